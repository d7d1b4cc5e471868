// internal/platform/session/registry.go
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"b7pizza/internal/platform/logging"
)

// DefaultIdleTTL evicts storefronts nobody touched for this long.
const DefaultIdleTTL = 30 * time.Minute

var ErrNilFactory = errors.New("session: factory is nil")

// Factory builds the storefront for id.
type Factory func(ctx context.Context, id string) (*Storefront, error)

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

type entry struct {
	sf       *Storefront
	lastSeen time.Time
}

// Registry maps session ids to live storefronts.
type Registry struct {
	factory Factory
	idleTTL time.Duration
	clock   Clock
	log     *zap.Logger

	mu      sync.Mutex
	items   map[string]*entry
	closed  bool
	creates singleflight.Group
}

func NewRegistry(factory Factory, idleTTL time.Duration, log *zap.Logger) (*Registry, error) {
	return NewRegistryWithClock(factory, idleTTL, systemClock{}, log)
}

func NewRegistryWithClock(factory Factory, idleTTL time.Duration, clock Clock, log *zap.Logger) (*Registry, error) {
	if factory == nil {
		return nil, ErrNilFactory
	}
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	if clock == nil {
		clock = systemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		factory: factory,
		idleTTL: idleTTL,
		clock:   clock,
		log:     log.Named("registry"),
		items:   map[string]*entry{},
	}, nil
}

// NewID returns a fresh session id.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like one NewID produced.
func ValidID(id string) bool {
	_, err := uuid.Parse(strings.TrimSpace(id))
	return err == nil && len(strings.TrimSpace(id)) == 36
}

// Get returns the live storefront for id and refreshes its idle timer.
func (r *Registry) Get(id string) (*Storefront, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.clock.Now()
	return e.sf, true
}

// Resolve returns the storefront for id, building it when missing. An id that
// is empty or malformed is replaced with a fresh one; a well-formed unknown id
// is kept so a persisted token can be hydrated after a restart or eviction.
// created reports whether a new storefront was built.
func (r *Registry) Resolve(ctx context.Context, id string) (sf *Storefront, created bool, err error) {
	id = strings.TrimSpace(id)
	if !ValidID(id) {
		id = NewID()
	}
	if sf, ok := r.Get(id); ok {
		return sf, false, nil
	}

	v, err, _ := r.creates.Do(id, func() (any, error) {
		if sf, ok := r.Get(id); ok {
			return sf, nil
		}
		sf, err := r.factory(ctx, id)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			sf.Dispose()
			return nil, ErrDisposed
		}
		r.items[id] = &entry{sf: sf, lastSeen: r.clock.Now()}
		n := len(r.items)
		r.mu.Unlock()

		r.log.Debug("storefront created", zap.String("session", logging.MaskID(id)), zap.Int("live", n))
		return sf, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*Storefront), true, nil
}

// Evict disposes and forgets id.
func (r *Registry) Evict(id string) bool {
	r.mu.Lock()
	e, ok := r.items[id]
	if ok {
		delete(r.items, id)
	}
	r.mu.Unlock()

	if ok {
		e.sf.Dispose()
	}
	return ok
}

// Sweep evicts every storefront idle for longer than the TTL and returns how
// many were removed.
func (r *Registry) Sweep() int {
	cutoff := r.clock.Now().Add(-r.idleTTL)

	r.mu.Lock()
	var stale []*Storefront
	for id, e := range r.items {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, e.sf)
			delete(r.items, id)
		}
	}
	r.mu.Unlock()

	for _, sf := range stale {
		sf.Dispose()
	}
	if len(stale) > 0 {
		r.log.Info("idle storefronts evicted", zap.Int("count", len(stale)))
	}
	return len(stale)
}

// Run sweeps every half TTL until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	t := time.NewTicker(r.idleTTL / 2)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Sweep()
		}
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Close disposes every storefront. Later Resolve calls fail.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	items := r.items
	r.items = map[string]*entry{}
	r.mu.Unlock()

	for _, e := range items {
		e.sf.Dispose()
	}
}
