// internal/domain/cart/entity.go
package cart

import (
	"strings"
	"sync"

	"b7pizza/internal/domain/common"
)

// Item represents one line of the cart.
// Quantity is always >= 1 while the item is held by a Ledger.
type Item struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Ledger is the session cart.
//   - keyed by productId, at most one line per product
//   - lines keep insertion order
//   - mutated only through AddItem / RemoveItem / Clear
//
// Product ids are not checked against the catalog. A line that points at an
// unknown product is kept as-is and priced at zero downstream.
type Ledger struct {
	mu    sync.RWMutex
	items []Item

	listeners common.Listeners[[]Item]
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{items: []Item{}}
}

// AddItem adds delta to the quantity of productID, creating the line when
// absent. A blank id, a zero delta, or a delta that would take the quantity
// below zero leaves the ledger unchanged. A line that reaches zero is removed.
//
// The returned bool reports whether the ledger changed.
func (l *Ledger) AddItem(productID string, delta int) bool {
	if l == nil {
		return false
	}
	id := strings.TrimSpace(productID)
	if id == "" || delta == 0 {
		return false
	}

	l.mu.Lock()
	idx := findItemIndex(l.items, id)
	current := 0
	if idx >= 0 {
		current = l.items[idx].Quantity
	}

	next := current + delta
	if next < 0 {
		l.mu.Unlock()
		return false
	}

	switch {
	case idx < 0:
		if next == 0 {
			l.mu.Unlock()
			return false
		}
		l.items = append(l.items, Item{ProductID: id, Quantity: next})
	case next == 0:
		l.items = removeIndex(l.items, idx)
	default:
		l.items[idx].Quantity = next
	}
	snap := cloneItems(l.items)
	l.mu.Unlock()

	l.listeners.Notify(snap)
	return true
}

// RemoveItem deletes the line for productID. Unknown ids are ignored.
func (l *Ledger) RemoveItem(productID string) bool {
	if l == nil {
		return false
	}
	id := strings.TrimSpace(productID)
	if id == "" {
		return false
	}

	l.mu.Lock()
	idx := findItemIndex(l.items, id)
	if idx < 0 {
		l.mu.Unlock()
		return false
	}
	l.items = removeIndex(l.items, idx)
	snap := cloneItems(l.items)
	l.mu.Unlock()

	l.listeners.Notify(snap)
	return true
}

// Clear empties the ledger.
func (l *Ledger) Clear() bool {
	if l == nil {
		return false
	}

	l.mu.Lock()
	if len(l.items) == 0 {
		l.mu.Unlock()
		return false
	}
	l.items = []Item{}
	l.mu.Unlock()

	l.listeners.Notify([]Item{})
	return true
}

// Items returns a copy of the lines in insertion order.
func (l *Ledger) Items() []Item {
	if l == nil {
		return []Item{}
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneItems(l.items)
}

// Quantity returns the quantity held for productID.
func (l *Ledger) Quantity(productID string) (int, bool) {
	if l == nil {
		return 0, false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	idx := findItemIndex(l.items, strings.TrimSpace(productID))
	if idx < 0 {
		return 0, false
	}
	return l.items[idx].Quantity, true
}

// Len is the number of distinct lines, dangling ones included.
func (l *Ledger) Len() int {
	if l == nil {
		return 0
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// TotalQuantity is the sum of quantities across all lines.
func (l *Ledger) TotalQuantity() int {
	if l == nil {
		return 0
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := 0
	for _, it := range l.items {
		n += it.Quantity
	}
	return n
}

// Subscribe registers fn to receive a snapshot after every change.
func (l *Ledger) Subscribe(fn func([]Item)) func() {
	if l == nil {
		return func() {}
	}
	return l.listeners.Subscribe(fn)
}

// ----------------------------
// Helpers
// ----------------------------

func findItemIndex(items []Item, productID string) int {
	for i := range items {
		if items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func removeIndex(items []Item, idx int) []Item {
	if idx < 0 || idx >= len(items) {
		return items
	}
	// preserve order
	out := make([]Item, 0, len(items)-1)
	out = append(out, items[:idx]...)
	return append(out, items[idx+1:]...)
}

func cloneItems(src []Item) []Item {
	if len(src) == 0 {
		return []Item{}
	}
	cp := make([]Item, len(src))
	copy(cp, src)
	return cp
}
