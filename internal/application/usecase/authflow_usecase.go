// internal/application/usecase/authflow_usecase.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	authdom "b7pizza/internal/domain/auth"
	"b7pizza/internal/domain/common"
)

var (
	ErrRequestInFlight = errors.New("authflow: request already in flight")
	ErrWrongStep       = errors.New("authflow: action not allowed in current step")
	ErrFlowDisposed    = errors.New("authflow: disposed")
	ErrValidation      = errors.New("authflow: validation failed")
	ErrNilGateway      = errors.New("authflow: gateway is nil")
	ErrNilSession      = errors.New("authflow: session is nil")
)

// Notices shown when the backend refuses or cannot be reached.
const (
	NoticeUnknownError  = "Erro desconhecido"
	NoticeEmailFailed   = "Não foi possível verificar o e-mail. Tente novamente."
	NoticeSignInFailed  = "Erro ao realizar login. Tente novamente."
	NoticeSignUpFailed  = "Erro ao realizar cadastro. Tente novamente."
	NoticeSessionFailed = "Não foi possível salvar a sessão. Tente novamente."
)

type Step string

const (
	StepEmail  Step = "EMAIL"
	StepSignIn Step = "SIGNIN"
	StepSignUp Step = "SIGNUP"
)

// TokenSink is the part of the auth session the flow writes to on success.
type TokenSink interface {
	SetToken(ctx context.Context, token string) error
	SetDialogOpen(open bool)
}

// AuthFlowSnapshot is an immutable view of the flow for rendering.
type AuthFlowSnapshot struct {
	Step          Step        `json:"step"`
	EmailDraft    string      `json:"emailDraft"`
	Pending       bool        `json:"pending"`
	FieldErrors   FieldErrors `json:"fieldErrors"`
	Notice        string      `json:"notice,omitempty"`
	Authenticated bool        `json:"authenticated"`
}

type flowState struct {
	step          Step
	emailDraft    string
	pending       bool
	fieldErrors   FieldErrors
	notice        string
	authenticated bool
}

// AuthFlowUsecase sequences email lookup, sign-in and sign-up.
//
//	EMAIL  --email exists-->  SIGNIN
//	EMAIL  --email unknown--> SIGNUP
//	SIGNIN/SIGNUP --back-->   EMAIL
//
// Network calls run outside the lock. Each request captures the current
// generation; Back, Reset and Dispose bump it so late completions are dropped.
// Once a token is being written, those three wait for the write to settle so
// the flow and the session agree on the outcome.
type AuthFlowUsecase struct {
	gateway authdom.Gateway
	session TokenSink
	log     *zap.Logger

	// held from the final liveness check until the token write is applied
	commitMu sync.Mutex

	mu       sync.Mutex
	st       flowState
	gen      uint64
	disposed bool

	listeners common.Listeners[AuthFlowSnapshot]
}

func NewAuthFlowUsecase(gateway authdom.Gateway, session TokenSink, log *zap.Logger) (*AuthFlowUsecase, error) {
	if gateway == nil {
		return nil, ErrNilGateway
	}
	if session == nil {
		return nil, ErrNilSession
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthFlowUsecase{
		gateway: gateway,
		session: session,
		log:     log.Named("authflow"),
		st:      initialState(),
	}, nil
}

func initialState() flowState {
	return flowState{step: StepEmail, fieldErrors: FieldErrors{}}
}

// ============================================================
// Queries
// ============================================================

func (uc *AuthFlowUsecase) Snapshot() AuthFlowSnapshot {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.snapshotLocked()
}

func (uc *AuthFlowUsecase) Subscribe(fn func(AuthFlowSnapshot)) func() {
	return uc.listeners.Subscribe(fn)
}

func (uc *AuthFlowUsecase) snapshotLocked() AuthFlowSnapshot {
	return AuthFlowSnapshot{
		Step:          uc.st.step,
		EmailDraft:    uc.st.emailDraft,
		Pending:       uc.st.pending,
		FieldErrors:   uc.st.fieldErrors.Clone(),
		Notice:        uc.st.notice,
		Authenticated: uc.st.authenticated,
	}
}

// ============================================================
// Commands
// ============================================================

// SubmitEmail validates email and asks the backend whether it is registered.
// On success the flow moves to SIGNIN or SIGNUP with the email as draft.
func (uc *AuthFlowUsecase) SubmitEmail(ctx context.Context, email string) (AuthFlowSnapshot, error) {
	email = normalizeEmail(email)

	gen, snap, err := uc.begin(StepEmail, validateEmailStep(email), func(st *flowState) {
		st.emailDraft = email
	})
	if err != nil {
		return snap, err
	}

	exists, callErr := uc.gateway.ValidateEmail(ctx, email)

	return uc.complete(gen, func(st *flowState) bool {
		if callErr != nil {
			uc.logFailure("validate_email", email, callErr)
			st.notice = noticeFor(callErr, NoticeEmailFailed)
			return true
		}
		st.emailDraft = email
		if exists {
			st.step = StepSignIn
		} else {
			st.step = StepSignUp
		}
		uc.log.Debug("email checked", zap.String("email", maskEmail(email)), zap.Bool("exists", exists))
		return true
	})
}

// SubmitSignIn validates the form and signs in. On success the token is
// stored, the dialog is closed and the flow reports authenticated.
func (uc *AuthFlowUsecase) SubmitSignIn(ctx context.Context, form SignInForm) (AuthFlowSnapshot, error) {
	form = form.normalized()

	gen, snap, err := uc.begin(StepSignIn, validateSignIn(form), func(st *flowState) {
		st.emailDraft = form.Email
	})
	if err != nil {
		return snap, err
	}

	token, callErr := uc.gateway.SignIn(ctx, form.Email, form.Password)
	if callErr != nil {
		return uc.complete(gen, func(st *flowState) bool {
			uc.logFailure("signin", form.Email, callErr)
			st.notice = noticeFor(callErr, NoticeSignInFailed)
			return true
		})
	}
	return uc.finishAuthenticated(ctx, gen, "signin", token)
}

// SubmitSignUp validates the form and creates the account.
func (uc *AuthFlowUsecase) SubmitSignUp(ctx context.Context, form SignUpForm) (AuthFlowSnapshot, error) {
	form = form.normalized()

	gen, snap, err := uc.begin(StepSignUp, validateSignUp(form), func(st *flowState) {
		st.emailDraft = form.Email
	})
	if err != nil {
		return snap, err
	}

	token, callErr := uc.gateway.SignUp(ctx, form.Name, form.Email, form.Password)
	if callErr != nil {
		return uc.complete(gen, func(st *flowState) bool {
			uc.logFailure("signup", form.Email, callErr)
			st.notice = noticeFor(callErr, NoticeSignUpFailed)
			return true
		})
	}
	return uc.finishAuthenticated(ctx, gen, "signup", token)
}

// Back returns to EMAIL keeping the email draft. Password fields live only in
// the submitted form and are never retained. An in-flight request is abandoned.
func (uc *AuthFlowUsecase) Back() (AuthFlowSnapshot, error) {
	uc.commitMu.Lock()
	defer uc.commitMu.Unlock()

	uc.mu.Lock()
	if uc.disposed {
		snap := uc.snapshotLocked()
		uc.mu.Unlock()
		return snap, ErrFlowDisposed
	}
	if uc.st.step == StepEmail {
		snap := uc.snapshotLocked()
		uc.mu.Unlock()
		return snap, ErrWrongStep
	}

	uc.gen++
	uc.st.step = StepEmail
	uc.st.pending = false
	uc.st.fieldErrors = FieldErrors{}
	uc.st.notice = ""
	snap := uc.snapshotLocked()
	uc.mu.Unlock()

	uc.listeners.Notify(snap)
	return snap, nil
}

// Reset puts the flow back to a fresh EMAIL step.
func (uc *AuthFlowUsecase) Reset() AuthFlowSnapshot {
	uc.commitMu.Lock()
	defer uc.commitMu.Unlock()

	uc.mu.Lock()
	if uc.disposed {
		snap := uc.snapshotLocked()
		uc.mu.Unlock()
		return snap
	}
	uc.gen++
	uc.st = initialState()
	snap := uc.snapshotLocked()
	uc.mu.Unlock()

	uc.listeners.Notify(snap)
	return snap
}

// Dispose ends the flow's lifetime. Completions that arrive afterwards are
// discarded without touching state or the session.
func (uc *AuthFlowUsecase) Dispose() {
	uc.commitMu.Lock()
	defer uc.commitMu.Unlock()

	uc.mu.Lock()
	uc.disposed = true
	uc.gen++
	uc.mu.Unlock()
}

func (uc *AuthFlowUsecase) Disposed() bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.disposed
}

// ============================================================
// Internals
// ============================================================

// begin checks step and pending, records the submitted input, applies
// validation and marks the request in flight. It returns the generation the
// caller must present to complete.
func (uc *AuthFlowUsecase) begin(want Step, fe FieldErrors, record func(*flowState)) (uint64, AuthFlowSnapshot, error) {
	uc.mu.Lock()

	if uc.disposed {
		snap := uc.snapshotLocked()
		uc.mu.Unlock()
		return 0, snap, ErrFlowDisposed
	}
	if uc.st.pending {
		snap := uc.snapshotLocked()
		uc.mu.Unlock()
		return 0, snap, ErrRequestInFlight
	}
	// a completed login is terminal until Reset
	if uc.st.authenticated || uc.st.step != want {
		snap := uc.snapshotLocked()
		uc.mu.Unlock()
		return 0, snap, ErrWrongStep
	}

	uc.st.notice = ""
	if record != nil {
		record(&uc.st)
	}
	if !fe.Empty() {
		uc.st.fieldErrors = fe
		snap := uc.snapshotLocked()
		uc.mu.Unlock()

		uc.log.Debug("validation failed", zap.String("step", string(want)), zap.Strings("fields", fe.Fields()))
		uc.listeners.Notify(snap)
		return 0, snap, ErrValidation
	}

	uc.st.fieldErrors = FieldErrors{}
	uc.st.pending = true
	gen := uc.gen
	snap := uc.snapshotLocked()
	uc.mu.Unlock()

	uc.listeners.Notify(snap)
	return gen, snap, nil
}

// complete applies fn when gen is still current. A stale completion returns
// the current snapshot and ErrFlowDisposed if the flow is gone, nil otherwise.
func (uc *AuthFlowUsecase) complete(gen uint64, fn func(*flowState) bool) (AuthFlowSnapshot, error) {
	uc.mu.Lock()
	if uc.disposed {
		snap := uc.snapshotLocked()
		uc.mu.Unlock()
		return snap, ErrFlowDisposed
	}
	if gen != uc.gen {
		snap := uc.snapshotLocked()
		uc.mu.Unlock()
		uc.log.Debug("stale completion dropped")
		return snap, nil
	}

	uc.st.pending = false
	changed := fn(&uc.st)
	snap := uc.snapshotLocked()
	uc.mu.Unlock()

	if changed {
		uc.listeners.Notify(snap)
	}
	return snap, nil
}

func (uc *AuthFlowUsecase) finishAuthenticated(ctx context.Context, gen uint64, op, token string) (AuthFlowSnapshot, error) {
	uc.commitMu.Lock()
	defer uc.commitMu.Unlock()

	if !uc.live(gen) {
		// abandoned by Back/Reset/Dispose: no token write
		return uc.complete(gen, func(*flowState) bool { return false })
	}

	tok := strings.TrimSpace(token)
	if tok == "" {
		return uc.complete(gen, func(st *flowState) bool {
			st.notice = NoticeUnknownError
			return true
		})
	}

	if err := uc.session.SetToken(ctx, tok); err != nil {
		uc.log.Error("token store failed", zap.String("op", op), zap.Error(err))
		return uc.complete(gen, func(st *flowState) bool {
			st.notice = NoticeSessionFailed
			return true
		})
	}

	snap, err := uc.complete(gen, func(st *flowState) bool {
		st.authenticated = true
		st.fieldErrors = FieldErrors{}
		st.notice = ""
		return true
	})
	if err == nil && snap.Authenticated {
		uc.session.SetDialogOpen(false)
		uc.log.Info("authenticated", zap.String("op", op), zap.String("email", maskEmail(snap.EmailDraft)))
	}
	return snap, err
}

func (uc *AuthFlowUsecase) live(gen uint64) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return !uc.disposed && gen == uc.gen
}

func (uc *AuthFlowUsecase) logFailure(op, email string, err error) {
	fields := []zap.Field{zap.String("op", op), zap.String("email", maskEmail(email))}
	if msg, ok := authdom.BusinessMessage(err); ok {
		uc.log.Info("backend refused", append(fields, zap.String("error", msg))...)
		return
	}
	uc.log.Warn("backend call failed", append(fields, zap.Error(err))...)
}

// noticeFor prefers the backend's own message for business errors.
func noticeFor(err error, transportDefault string) string {
	if msg, ok := authdom.BusinessMessage(err); ok {
		return msg
	}
	var be *authdom.BusinessError
	if errors.As(err, &be) {
		return NoticeUnknownError
	}
	return transportDefault
}

// maskEmail keeps the first rune of the local part and the domain.
func maskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	r := []rune(email[:at])
	return string(r[0]) + "***" + email[at:]
}
