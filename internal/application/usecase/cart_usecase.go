// internal/application/usecase/cart_usecase.go
package usecase

import (
	"errors"
	"strings"

	"b7pizza/internal/application/pricing"
	cartdom "b7pizza/internal/domain/cart"
)

var (
	ErrCartInvalidArgument = errors.New("cart_usecase: invalid argument")
)

// AuthState reports whether the session holds a token.
type AuthState interface {
	Authenticated() bool
}

// CartView is what the cart panel renders.
// Checkout is offered only to authenticated sessions with at least one line.
type CartView struct {
	pricing.Summary
	Authenticated   bool `json:"authenticated"`
	CheckoutEnabled bool `json:"checkoutEnabled"`
}

// CartUsecase coordinates ledger mutations with the derived pricing summary.
type CartUsecase struct {
	ledger  *cartdom.Ledger
	watcher *pricing.Watcher
	auth    AuthState
}

func NewCartUsecase(ledger *cartdom.Ledger, watcher *pricing.Watcher, auth AuthState) *CartUsecase {
	return &CartUsecase{ledger: ledger, watcher: watcher, auth: auth}
}

// AddItem applies delta to productID. A delta that would go below zero is
// ignored by the ledger and simply returns the unchanged view.
func (uc *CartUsecase) AddItem(productID string, delta int) (CartView, error) {
	pid := strings.TrimSpace(productID)
	if pid == "" || delta == 0 {
		return uc.View(), ErrCartInvalidArgument
	}
	uc.ledger.AddItem(pid, delta)
	return uc.View(), nil
}

func (uc *CartUsecase) RemoveItem(productID string) (CartView, error) {
	pid := strings.TrimSpace(productID)
	if pid == "" {
		return uc.View(), ErrCartInvalidArgument
	}
	uc.ledger.RemoveItem(pid)
	return uc.View(), nil
}

func (uc *CartUsecase) Clear() CartView {
	uc.ledger.Clear()
	return uc.View()
}

// View returns the current summary plus the checkout gate.
func (uc *CartUsecase) View() CartView {
	s := uc.watcher.Current()
	authed := uc.auth != nil && uc.auth.Authenticated()
	return CartView{
		Summary:         s,
		Authenticated:   authed,
		CheckoutEnabled: authed && uc.ledger.Len() > 0,
	}
}
