// internal/platform/session/storefront.go
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"b7pizza/internal/application/catalog"
	"b7pizza/internal/application/pricing"
	"b7pizza/internal/application/usecase"
	authdom "b7pizza/internal/domain/auth"
	cartdom "b7pizza/internal/domain/cart"
	"b7pizza/internal/domain/common"
	"b7pizza/internal/platform/logging"
)

var (
	ErrNilCatalog = errors.New("session: catalog loader is nil")
	ErrDisposed   = errors.New("session: storefront disposed")
)

// Event types pushed to subscribers.
const (
	EventCart = "cart"
	EventAuth = "auth"
)

// Deps are shared by every storefront built by one process.
type Deps struct {
	Store     authdom.TokenStore
	Gateway   authdom.Gateway
	Catalog   *catalog.Loader
	Engine    *pricing.Engine
	AuthLimit rate.Limit
	AuthBurst int
	Log       *zap.Logger
}

// AuthView combines the session flags with the flow snapshot.
type AuthView struct {
	Authenticated bool                     `json:"authenticated"`
	DialogOpen    bool                     `json:"dialogOpen"`
	Flow          usecase.AuthFlowSnapshot `json:"flow"`
}

// Event is one change notification.
type Event struct {
	Type string            `json:"type"`
	Cart *usecase.CartView `json:"cart,omitempty"`
	Auth *AuthView         `json:"auth,omitempty"`
}

// Storefront is the state owned by one browser session: auth session, login
// flow, cart ledger and its pricing watcher. The catalog is shared.
type Storefront struct {
	id      string
	session *authdom.Session
	ledger  *cartdom.Ledger
	watcher *pricing.Watcher
	flow    *usecase.AuthFlowUsecase
	cart    *usecase.CartUsecase
	catalog *catalog.Loader
	limiter *rate.Limiter
	log     *zap.Logger

	mu       sync.Mutex
	unsubs   []func()
	disposed bool

	listeners common.Listeners[Event]
}

// NewStorefront assembles a storefront and hydrates its token. A hydrate
// failure is logged and leaves the session unauthenticated.
func NewStorefront(ctx context.Context, id string, deps Deps) (*Storefront, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, authdom.ErrInvalidSessionKey
	}
	if deps.Catalog == nil {
		return nil, ErrNilCatalog
	}
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("session").With(zap.String("session", logging.MaskID(id)))

	sess, err := authdom.NewSession(id, deps.Store)
	if err != nil {
		return nil, fmt.Errorf("session: new: %w", err)
	}
	flow, err := usecase.NewAuthFlowUsecase(deps.Gateway, sess, log)
	if err != nil {
		return nil, fmt.Errorf("session: new: %w", err)
	}

	ledger := cartdom.NewLedger()
	watcher := pricing.NewWatcher(deps.Engine, ledger, deps.Catalog.Cache())

	limit, burst := deps.AuthLimit, deps.AuthBurst
	if limit <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}

	s := &Storefront{
		id:      id,
		session: sess,
		ledger:  ledger,
		watcher: watcher,
		flow:    flow,
		cart:    usecase.NewCartUsecase(ledger, watcher, sess),
		catalog: deps.Catalog,
		limiter: rate.NewLimiter(limit, burst),
		log:     log,
	}

	if err := sess.Hydrate(ctx); err != nil {
		log.Warn("token hydrate failed", zap.Error(err))
	}

	s.unsubs = append(s.unsubs,
		watcher.Subscribe(func(pricing.Summary) { s.emitCart() }),
		sess.Subscribe(func(authdom.State) {
			s.emitAuth()
			s.emitCart()
		}),
		flow.Subscribe(func(usecase.AuthFlowSnapshot) { s.emitAuth() }),
	)
	return s, nil
}

func (s *Storefront) ID() string                     { return s.id }
func (s *Storefront) Session() *authdom.Session      { return s.session }
func (s *Storefront) Ledger() *cartdom.Ledger        { return s.ledger }
func (s *Storefront) Cart() *usecase.CartUsecase     { return s.cart }
func (s *Storefront) Flow() *usecase.AuthFlowUsecase { return s.flow }
func (s *Storefront) Catalog() *catalog.Loader       { return s.catalog }

// AllowAuth reports whether another auth request may hit the backend now.
func (s *Storefront) AllowAuth() bool {
	return s.limiter.Allow()
}

func (s *Storefront) AuthView() AuthView {
	st := s.session.State()
	return AuthView{
		Authenticated: st.Authenticated,
		DialogOpen:    st.DialogOpen,
		Flow:          s.flow.Snapshot(),
	}
}

// SetDialogOpen shows or hides the login dialog. Any transition starts the
// flow over at EMAIL.
func (s *Storefront) SetDialogOpen(open bool) AuthView {
	if s.session.DialogOpen() != open {
		s.flow.Reset()
		s.session.SetDialogOpen(open)
	}
	return s.AuthView()
}

// Logout removes the token and resets the flow.
func (s *Storefront) Logout(ctx context.Context) (AuthView, error) {
	if err := s.session.ClearToken(ctx); err != nil {
		s.log.Error("logout failed", zap.Error(err))
		return s.AuthView(), err
	}
	s.flow.Reset()
	s.log.Info("logged out")
	return s.AuthView(), nil
}

// Subscribe receives cart and auth events until the returned func is called
// or the storefront is disposed.
func (s *Storefront) Subscribe(fn func(Event)) func() {
	return s.listeners.Subscribe(fn)
}

// Dispose detaches from shared sources and drops late flow completions.
func (s *Storefront) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	unsubs := s.unsubs
	s.unsubs = nil
	s.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
	s.flow.Dispose()
	s.watcher.Close()
	s.log.Debug("disposed")
}

func (s *Storefront) Disposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

func (s *Storefront) emitCart() {
	v := s.cart.View()
	s.listeners.Notify(Event{Type: EventCart, Cart: &v})
}

func (s *Storefront) emitAuth() {
	v := s.AuthView()
	s.listeners.Notify(Event{Type: EventAuth, Auth: &v})
}
