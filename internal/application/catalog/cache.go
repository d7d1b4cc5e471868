// internal/application/catalog/cache.go
package catalog

import (
	"strings"
	"sync"

	"b7pizza/internal/domain/common"
	productdom "b7pizza/internal/domain/product"
)

// Cache is the session's read-only snapshot of the product list.
// SetProducts swaps the snapshot wholesale; readers never see a half-built list.
type Cache struct {
	mu       sync.RWMutex
	products []productdom.Product
	byID     map[string]int
	loaded   bool

	listeners common.Listeners[[]productdom.Product]
}

var _ productdom.Finder = (*Cache)(nil)

func NewCache() *Cache {
	return &Cache{
		products: []productdom.Product{},
		byID:     map[string]int{},
	}
}

// SetProducts replaces the snapshot. Entries with a blank id are skipped;
// on duplicate ids the later entry wins.
func (c *Cache) SetProducts(list []productdom.Product) {
	if c == nil {
		return
	}

	next := make([]productdom.Product, 0, len(list))
	idx := make(map[string]int, len(list))
	for _, p := range list {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			continue
		}
		p.ID = id
		if i, ok := idx[id]; ok {
			next[i] = p
			continue
		}
		idx[id] = len(next)
		next = append(next, p)
	}

	c.mu.Lock()
	c.products = next
	c.byID = idx
	c.loaded = true
	snap := cloneProducts(next)
	c.mu.Unlock()

	c.listeners.Notify(snap)
}

// FindByID returns the product for id. A miss is not an error.
func (c *Cache) FindByID(id string) (productdom.Product, bool) {
	if c == nil {
		return productdom.Product{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.byID[strings.TrimSpace(id)]
	if !ok {
		return productdom.Product{}, false
	}
	return c.products[i], true
}

// Products returns a copy of the snapshot in backend order.
func (c *Cache) Products() []productdom.Product {
	if c == nil {
		return []productdom.Product{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneProducts(c.products)
}

func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

// Loaded reports whether SetProducts has been called at least once.
func (c *Cache) Loaded() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

func (c *Cache) Subscribe(fn func([]productdom.Product)) func() {
	if c == nil {
		return func() {}
	}
	return c.listeners.Subscribe(fn)
}

func cloneProducts(src []productdom.Product) []productdom.Product {
	out := make([]productdom.Product, len(src))
	copy(out, src)
	return out
}
