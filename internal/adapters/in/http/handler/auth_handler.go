// internal/adapters/in/http/handler/auth_handler.go
package handler

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"b7pizza/internal/application/usecase"
	"b7pizza/internal/platform/session"
)

// AuthHandler drives the login dialog and the EMAIL/SIGNIN/SIGNUP flow.
//
// Status mapping:
//   - 200: accepted; a backend refusal shows up as flow.notice
//   - 422: field validation failed (fieldErrors)
//   - 409: request already in flight, or wrong step
//   - 410: the storefront was disposed while the request ran
type AuthHandler struct {
	log *zap.Logger
}

func NewAuthHandler(log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{log: log.Named("auth_handler")}
}

type authResponse struct {
	session.AuthView
	Error       string              `json:"error,omitempty"`
	FieldErrors usecase.FieldErrors `json:"fieldErrors,omitempty"`
}

type dialogRequest struct {
	Open bool `json:"open"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// Get handles GET /api/auth.
func (h *AuthHandler) Get(w http.ResponseWriter, r *http.Request) {
	sf, ok := storefront(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, authResponse{AuthView: sf.AuthView()})
}

// Dialog handles POST /api/auth/dialog.
func (h *AuthHandler) Dialog(w http.ResponseWriter, r *http.Request) {
	sf, ok := storefront(w, r)
	if !ok {
		return
	}
	var in dialogRequest
	if err := readJSON(w, r, &in); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, authResponse{AuthView: sf.SetDialogOpen(in.Open)})
}

// Email handles POST /api/auth/email.
func (h *AuthHandler) Email(w http.ResponseWriter, r *http.Request) {
	var in emailRequest
	h.submit(w, r, &in, func(ctx context.Context, sf *session.Storefront) error {
		_, err := sf.Flow().SubmitEmail(ctx, in.Email)
		return err
	})
}

// SignIn handles POST /api/auth/signin.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var in signInRequest
	h.submit(w, r, &in, func(ctx context.Context, sf *session.Storefront) error {
		_, err := sf.Flow().SubmitSignIn(ctx, usecase.SignInForm{Email: in.Email, Password: in.Password})
		return err
	})
}

// SignUp handles POST /api/auth/signup.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var in signUpRequest
	h.submit(w, r, &in, func(ctx context.Context, sf *session.Storefront) error {
		_, err := sf.Flow().SubmitSignUp(ctx, usecase.SignUpForm{
			Name:            in.Name,
			Email:           in.Email,
			Password:        in.Password,
			PasswordConfirm: in.PasswordConfirm,
		})
		return err
	})
}

// Back handles POST /api/auth/back.
func (h *AuthHandler) Back(w http.ResponseWriter, r *http.Request) {
	sf, ok := storefront(w, r)
	if !ok {
		return
	}
	_, err := sf.Flow().Back()
	h.respond(w, sf, err)
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sf, ok := storefront(w, r)
	if !ok {
		return
	}
	view, err := sf.Logout(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, authResponse{AuthView: view, Error: "session_store_unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, authResponse{AuthView: view})
}

func (h *AuthHandler) submit(w http.ResponseWriter, r *http.Request, in any, call func(context.Context, *session.Storefront) error) {
	sf, ok := storefront(w, r)
	if !ok {
		return
	}
	if err := readJSON(w, r, in); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respond(w, sf, call(r.Context(), sf))
}

func (h *AuthHandler) respond(w http.ResponseWriter, sf *session.Storefront, err error) {
	out := authResponse{AuthView: sf.AuthView()}

	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, out)
	case errors.Is(err, usecase.ErrValidation):
		out.Error = "validation_failed"
		out.FieldErrors = out.Flow.FieldErrors
		writeJSON(w, http.StatusUnprocessableEntity, out)
	case errors.Is(err, usecase.ErrRequestInFlight):
		out.Error = "request_in_flight"
		writeJSON(w, http.StatusConflict, out)
	case errors.Is(err, usecase.ErrWrongStep):
		out.Error = "wrong_step"
		writeJSON(w, http.StatusConflict, out)
	case errors.Is(err, usecase.ErrFlowDisposed):
		out.Error = "session_expired"
		writeJSON(w, http.StatusGone, out)
	default:
		h.log.Error("auth flow failed", zap.Error(err))
		out.Error = "internal_error"
		writeJSON(w, http.StatusInternalServerError, out)
	}
}
