// internal/testutil/fakebackend/server.go
//
// Package fakebackend is an in-process stand-in for the storefront backend:
// auth endpoints backed by bcrypt-hashed users issuing HS256 JWTs, plus the
// /pizzas catalog. Tests only.
package fakebackend

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	// MsgAccessDenied is returned by /auth/signin for bad credentials.
	MsgAccessDenied = "Acesso negado"
	// MsgEmailTaken is returned by /auth/signup for a registered email.
	MsgEmailTaken = "E-mail já cadastrado"
	// MsgInvalidFields is returned by /auth/signup for malformed input.
	MsgInvalidFields = "Dados inválidos"
)

// Pizza is the backend's catalog row. Price is serialized as a string, the
// way a decimal column comes out of the ORM.
type Pizza struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Price       string `json:"price"`
	Image       string `json:"image"`
	Ingredients string `json:"ingredients"`
}

type user struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	hash  []byte
}

// Server wraps an httptest.Server. Knobs are set through the Set* methods and
// may change between requests.
type Server struct {
	*httptest.Server

	mu     sync.Mutex
	secret []byte
	users  map[string]*user
	nextID int
	pizzas []Pizza
	hits   map[string]int

	delay      time.Duration
	failStatus int
	omitToken  bool
}

// New starts a server seeded with the default pizzas. Close it when done.
func New() *Server {
	s := &Server{
		secret: []byte("fakebackend-secret"),
		users:  map[string]*user{},
		nextID: 1,
		pizzas: DefaultPizzas(),
		hits:   map[string]int{},
	}

	r := chi.NewRouter()
	r.Use(s.middleware)
	r.Post("/auth/validate_email", s.validateEmail)
	r.Post("/auth/signin", s.signIn)
	r.Post("/auth/signup", s.signUp)
	r.Get("/pizzas", s.listPizzas)

	s.Server = httptest.NewServer(r)
	return s
}

func DefaultPizzas() []Pizza {
	return []Pizza{
		{ID: 1, Name: "Calabresa", Price: "45.90", Image: "calabresa.png", Ingredients: "Calabresa, cebola, mussarela"},
		{ID: 2, Name: "Marguerita", Price: "39.50", Image: "marguerita.png", Ingredients: "Tomate, manjericão, mussarela"},
		{ID: 3, Name: "Portuguesa", Price: "52.00", Image: "portuguesa.png", Ingredients: "Presunto, ovo, cebola, ervilha"},
	}
}

// ============================================================
// Knobs
// ============================================================

// AddUser registers a user directly.
func (s *Server) AddUser(name, email, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.addUserLocked(name, email, password)
	return err
}

func (s *Server) SetPizzas(list []Pizza) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pizzas = append([]Pizza(nil), list...)
}

// Hits returns how many requests reached path.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// SetFailStatus makes every endpoint answer code with an empty body; 0 disables.
func (s *Server) SetFailStatus(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failStatus = code
}

// SetDelay sleeps d before every response.
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// SetOmitToken makes signin/signup answer 200 without a token.
func (s *Server) SetOmitToken(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.omitToken = v
}

// ParseToken verifies a token minted by this server and returns its email claim.
func (s *Server) ParseToken(raw string) (string, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("unexpected claims")
	}
	email, _ := claims["email"].(string)
	return email, nil
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		delay := s.delay
		fail := s.failStatus
		s.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if fail != 0 {
			w.WriteHeader(fail)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) validateEmail(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	// the real backend never rejects here; unknown input is just "not found"
	_ = json.NewDecoder(r.Body).Decode(&in)

	s.mu.Lock()
	_, exists := s.users[normalizeEmail(in.Email)]
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"exists": exists})
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": MsgAccessDenied})
		return
	}

	s.mu.Lock()
	u, ok := s.users[normalizeEmail(in.Email)]
	s.mu.Unlock()

	if !ok || bcrypt.CompareHashAndPassword(u.hash, []byte(in.Password)) != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": MsgAccessDenied})
		return
	}

	s.writeToken(w, http.StatusOK, u)
}

func (s *Server) signUp(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": MsgInvalidFields})
		return
	}
	if len(strings.TrimSpace(in.Name)) < 2 || !strings.Contains(in.Email, "@") || len(in.Password) < 6 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": MsgInvalidFields})
		return
	}

	s.mu.Lock()
	u, err := s.addUserLocked(in.Name, in.Email, in.Password)
	s.mu.Unlock()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s.writeToken(w, http.StatusCreated, u)
}

func (s *Server) listPizzas(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	list := append([]Pizza(nil), s.pizzas...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"pizzas": list})
}

// ============================================================
// Helpers
// ============================================================

func (s *Server) addUserLocked(name, email, password string) (*user, error) {
	key := normalizeEmail(email)
	if _, ok := s.users[key]; ok {
		return nil, errors.New(MsgEmailTaken)
	}
	// MinCost keeps the suite fast
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	u := &user{ID: s.nextID, Name: strings.TrimSpace(name), Email: key, hash: hash}
	s.nextID++
	s.users[key] = u
	return u, nil
}

func (s *Server) writeToken(w http.ResponseWriter, status int, u *user) {
	s.mu.Lock()
	omit := s.omitToken
	s.mu.Unlock()
	if omit {
		writeJSON(w, http.StatusOK, map[string]any{"user": u})
		return
	}

	claims := jwt.MapClaims{
		"sub":   u.ID,
		"email": u.Email,
		"exp":   time.Now().Add(24 * time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, status, map[string]any{"user": u, "token": signed})
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
