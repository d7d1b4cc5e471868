// internal/application/pricing/watcher.go
package pricing

import (
	"sync"

	cartdom "b7pizza/internal/domain/cart"
	"b7pizza/internal/domain/common"
	productdom "b7pizza/internal/domain/product"
)

// ItemSource is the ledger side of a Watcher.
type ItemSource interface {
	Items() []cartdom.Item
	Subscribe(fn func([]cartdom.Item)) func()
}

// CatalogSource is the catalog side of a Watcher.
type CatalogSource interface {
	productdom.Finder
	Subscribe(fn func([]productdom.Product)) func()
}

// Watcher keeps a Summary current by recomputing it whenever the ledger or
// the catalog changes.
type Watcher struct {
	engine  *Engine
	items   ItemSource
	catalog CatalogSource

	// serializes compute+store so the last recompute reads the latest state
	computeMu sync.Mutex

	mu      sync.RWMutex
	current Summary
	unsubs  []func()
	closed  bool

	listeners common.Listeners[Summary]
}

func NewWatcher(engine *Engine, items ItemSource, catalog CatalogSource) *Watcher {
	if engine == nil {
		engine = NewDefaultEngine()
	}
	w := &Watcher{engine: engine, items: items, catalog: catalog}

	if items != nil {
		w.unsubs = append(w.unsubs, items.Subscribe(func([]cartdom.Item) { w.recompute() }))
	}
	if catalog != nil {
		w.unsubs = append(w.unsubs, catalog.Subscribe(func([]productdom.Product) { w.recompute() }))
	}
	w.current = w.compute()
	return w
}

// Current returns the latest summary.
func (w *Watcher) Current() Summary {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

func (w *Watcher) Subscribe(fn func(Summary)) func() {
	return w.listeners.Subscribe(fn)
}

// Close detaches from both sources. Further changes are ignored.
func (w *Watcher) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	unsubs := w.unsubs
	w.unsubs = nil
	w.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
}

func (w *Watcher) recompute() {
	w.computeMu.Lock()
	s := w.compute()

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.computeMu.Unlock()
		return
	}
	w.current = s
	w.mu.Unlock()
	w.computeMu.Unlock()

	// a concurrent recompute may have stored a newer summary since
	w.listeners.Notify(w.Current())
}

func (w *Watcher) compute() Summary {
	var items []cartdom.Item
	if w.items != nil {
		items = w.items.Items()
	}
	var finder productdom.Finder
	if w.catalog != nil {
		finder = w.catalog
	}
	return w.engine.Summarize(items, finder)
}
