// internal/application/pricing/watcher_test.go
package pricing

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"b7pizza/internal/application/catalog"
	cartdom "b7pizza/internal/domain/cart"
	productdom "b7pizza/internal/domain/product"
)

func TestWatcher_RecomputesOnLedgerAndCatalog(t *testing.T) {
	ledger := cartdom.NewLedger()
	cache := catalog.NewCache()
	w := NewWatcher(NewDefaultEngine(), ledger, cache)
	defer w.Close()

	assert.Equal(t, "R$ 10,00", w.Current().TotalText)

	var seen []Summary
	w.Subscribe(func(s Summary) { seen = append(seen, s) })

	ledger.AddItem("1", 2)
	// product not in catalog yet
	assert.Equal(t, "R$ 0,00", w.Current().SubtotalText)
	assert.Equal(t, []string{"1"}, w.Current().Unresolved)

	cache.SetProducts([]productdom.Product{{ID: "1", Name: "Calabresa", Price: d("45.90")}})
	assert.Equal(t, "R$ 91,80", w.Current().SubtotalText)
	assert.Equal(t, "R$ 101,80", w.Current().TotalText)

	require.Len(t, seen, 2)
	assert.Empty(t, seen[1].Unresolved)
}

func TestWatcher_CloseDetaches(t *testing.T) {
	ledger := cartdom.NewLedger()
	cache := catalog.NewCache()
	cache.SetProducts([]productdom.Product{{ID: "1", Price: d("5")}})

	w := NewWatcher(nil, ledger, cache)
	ledger.AddItem("1", 1)
	w.Close()
	w.Close()
	ledger.AddItem("1", 1)

	assert.Equal(t, 1, w.Current().TotalQuantity)
}

// stallingCatalog blocks the first FindByID after arm until release is closed.
type stallingCatalog struct {
	*catalog.Cache

	mu      sync.Mutex
	armed   bool
	entered chan struct{}
	release chan struct{}
}

func (s *stallingCatalog) arm() {
	s.mu.Lock()
	s.armed = true
	s.mu.Unlock()
}

func (s *stallingCatalog) FindByID(id string) (productdom.Product, bool) {
	s.mu.Lock()
	stall := s.armed
	s.armed = false
	s.mu.Unlock()
	if stall {
		close(s.entered)
		<-s.release
	}
	return s.Cache.FindByID(id)
}

func TestWatcher_SlowRecomputeDoesNotOverwriteNewer(t *testing.T) {
	ledger := cartdom.NewLedger()
	cat := &stallingCatalog{
		Cache:   catalog.NewCache(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	cat.SetProducts([]productdom.Product{{ID: "1", Price: d("5")}})
	ledger.AddItem("1", 1)

	w := NewWatcher(nil, ledger, cat)
	defer w.Close()

	cat.arm()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		cat.SetProducts([]productdom.Product{{ID: "1", Price: d("5")}})
	}()
	<-cat.entered

	go func() {
		defer wg.Done()
		ledger.AddItem("1", 4)
	}()
	time.Sleep(20 * time.Millisecond)
	close(cat.release)
	wg.Wait()

	assert.Equal(t, 5, w.Current().TotalQuantity)
	assert.Equal(t, "R$ 25,00", w.Current().SubtotalText)
}
