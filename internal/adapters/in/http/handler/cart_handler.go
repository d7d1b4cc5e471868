// internal/adapters/in/http/handler/cart_handler.go
package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"b7pizza/internal/application/usecase"
)

// CartHandler serves the session's cart.
type CartHandler struct{}

func NewCartHandler() *CartHandler {
	return &CartHandler{}
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Get handles GET /api/cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	sf, ok := storefront(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sf.Cart().View())
}

// AddItem handles POST /api/cart/items. quantity is a signed delta.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sf, ok := storefront(w, r)
	if !ok {
		return
	}
	var in addItemRequest
	if err := readJSON(w, r, &in); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	view, err := sf.Cart().AddItem(in.ProductID, in.Quantity)
	if errors.Is(err, usecase.ErrCartInvalidArgument) {
		writeErr(w, http.StatusBadRequest, "productId and a non-zero quantity are required")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// RemoveItem handles DELETE /api/cart/items/{productId}.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sf, ok := storefront(w, r)
	if !ok {
		return
	}
	view, err := sf.Cart().RemoveItem(chi.URLParam(r, "productId"))
	if errors.Is(err, usecase.ErrCartInvalidArgument) {
		writeErr(w, http.StatusBadRequest, "productId is required")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Clear handles DELETE /api/cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	sf, ok := storefront(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sf.Cart().Clear())
}
