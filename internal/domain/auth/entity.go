// internal/domain/auth/entity.go
package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"b7pizza/internal/domain/common"
)

// State is what the view needs to know about the session.
// The token itself is never part of it.
type State struct {
	Authenticated bool `json:"authenticated"`
	DialogOpen    bool `json:"dialogOpen"`
}

// Session holds the bearer token and the login dialog flag for one browser
// session. Token presence is the only authentication predicate.
//
// SetToken and ClearToken are the only paths that touch the TokenStore, and
// they write storage before memory so the two never disagree after a
// successful call.
type Session struct {
	key   string
	store TokenStore

	// serializes persist+apply sequences
	writeMu sync.Mutex

	mu         sync.RWMutex
	token      string
	dialogOpen bool
	hydrated   bool

	listeners common.Listeners[State]
}

// NewSession binds a session to its storage key.
func NewSession(key string, store TokenStore) (*Session, error) {
	k := strings.TrimSpace(key)
	if k == "" {
		return nil, ErrInvalidSessionKey
	}
	if store == nil {
		return nil, ErrNilStore
	}
	return &Session{key: k, store: store}, nil
}

// Key is the storage key of the session.
func (s *Session) Key() string {
	if s == nil {
		return ""
	}
	return s.key
}

// Hydrate loads a previously stored token. Only the first call reads storage.
// A storage failure leaves the session unauthenticated.
func (s *Session) Hydrate(ctx context.Context) error {
	if s == nil {
		return ErrInvalidSessionKey
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	done := s.hydrated
	s.mu.RUnlock()
	if done {
		return nil
	}

	tok, ok, err := s.store.Load(ctx, s.key)

	s.mu.Lock()
	s.hydrated = true
	changed := false
	if err == nil && ok && strings.TrimSpace(tok) != "" {
		s.token = strings.TrimSpace(tok)
		changed = true
	}
	st := s.stateLocked()
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("auth: hydrate: %w", err)
	}
	if changed {
		s.listeners.Notify(st)
	}
	return nil
}

// SetToken persists token and then exposes it in memory.
// A blank token behaves like ClearToken.
func (s *Session) SetToken(ctx context.Context, token string) error {
	if s == nil {
		return ErrInvalidSessionKey
	}
	tok := strings.TrimSpace(token)
	if tok == "" {
		return s.ClearToken(ctx)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.store.Save(ctx, s.key, tok); err != nil {
		return fmt.Errorf("auth: set token: %w", err)
	}

	s.mu.Lock()
	s.token = tok
	s.hydrated = true
	st := s.stateLocked()
	s.mu.Unlock()

	s.listeners.Notify(st)
	return nil
}

// ClearToken removes the token from storage and then from memory.
func (s *Session) ClearToken(ctx context.Context) error {
	if s == nil {
		return ErrInvalidSessionKey
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.store.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("auth: clear token: %w", err)
	}

	s.mu.Lock()
	had := s.token != ""
	s.token = ""
	s.hydrated = true
	st := s.stateLocked()
	s.mu.Unlock()

	if had {
		s.listeners.Notify(st)
	}
	return nil
}

// SetDialogOpen toggles the login dialog. It never touches the token.
func (s *Session) SetDialogOpen(open bool) {
	if s == nil {
		return
	}

	s.mu.Lock()
	if s.dialogOpen == open {
		s.mu.Unlock()
		return
	}
	s.dialogOpen = open
	st := s.stateLocked()
	s.mu.Unlock()

	s.listeners.Notify(st)
}

func (s *Session) Token() (string, bool) {
	if s == nil {
		return "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

func (s *Session) Authenticated() bool {
	_, ok := s.Token()
	return ok
}

func (s *Session) DialogOpen() bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dialogOpen
}

// State returns a snapshot for rendering.
func (s *Session) State() State {
	if s == nil {
		return State{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

// Subscribe registers fn to run after every change.
func (s *Session) Subscribe(fn func(State)) func() {
	if s == nil {
		return func() {}
	}
	return s.listeners.Subscribe(fn)
}

func (s *Session) stateLocked() State {
	return State{
		Authenticated: s.token != "",
		DialogOpen:    s.dialogOpen,
	}
}
