// internal/application/catalog/loader.go
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	productdom "b7pizza/internal/domain/product"
)

var ErrNilSource = errors.New("catalog: product source is nil")

// ImageResolver rewrites a stored image reference into a display URL.
type ImageResolver interface {
	Resolve(raw string) string
}

// Loader fills a Cache from the backend.
//   - EnsureLoaded fetches at most once per cache; concurrent callers share a request.
//   - Refresh always fetches.
//   - a failed fetch leaves the cache untouched.
type Loader struct {
	cache  *Cache
	source productdom.Source
	images ImageResolver
	log    *zap.Logger

	group singleflight.Group
}

func NewLoader(cache *Cache, source productdom.Source, images ImageResolver, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{
		cache:  cache,
		source: source,
		images: images,
		log:    log.Named("catalog"),
	}
}

// Cache exposes the cache the loader fills.
func (l *Loader) Cache() *Cache {
	if l == nil {
		return nil
	}
	return l.cache
}

// EnsureLoaded populates the cache unless it already holds a snapshot.
func (l *Loader) EnsureLoaded(ctx context.Context) error {
	if l == nil || l.cache == nil {
		return ErrNilSource
	}
	if l.cache.Loaded() {
		return nil
	}
	return l.fetch(ctx)
}

// Refresh refetches the product list regardless of cache state.
func (l *Loader) Refresh(ctx context.Context) error {
	if l == nil || l.cache == nil {
		return ErrNilSource
	}
	return l.fetch(ctx)
}

// RunRefresh refetches every interval until ctx ends. A failed refresh keeps
// the previous snapshot.
func (l *Loader) RunRefresh(ctx context.Context, every time.Duration) {
	if l == nil || every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			// failures are logged by fetch
			_ = l.Refresh(ctx)
		}
	}
}

func (l *Loader) fetch(ctx context.Context) error {
	if l.source == nil {
		return ErrNilSource
	}

	// detached from the caller; the source's timeout bounds the flight
	flightCtx := context.WithoutCancel(ctx)
	ch := l.group.DoChan("products", func() (any, error) {
		list, err := l.source.ListProducts(flightCtx)
		if err != nil {
			return 0, err
		}
		return l.apply(list), nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res = <-ch:
	}

	if res.Err != nil {
		l.log.Warn("fetch failed, catalog unchanged",
			zap.Error(res.Err),
			zap.Int("cached", l.cache.Len()),
		)
		return fmt.Errorf("catalog: fetch: %w", res.Err)
	}

	n, _ := res.Val.(int)
	l.log.Debug("catalog loaded", zap.Int("products", n), zap.Bool("shared", res.Shared))
	return nil
}

// apply validates, resolves image URLs and swaps the snapshot.
func (l *Loader) apply(list []productdom.Product) int {
	out := make([]productdom.Product, 0, len(list))
	for _, p := range list {
		if err := p.Validate(); err != nil {
			l.log.Debug("skipping product", zap.String("id", p.ID), zap.Error(err))
			continue
		}
		if l.images != nil {
			p.Image = l.images.Resolve(p.Image)
		}
		out = append(out, p)
	}
	l.cache.SetProducts(out)
	return len(out)
}
