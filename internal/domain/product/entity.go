// internal/domain/product/entity.go
package product

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ===============================
// Errors
// ===============================

var (
	ErrInvalidID    = errors.New("product: invalid id")
	ErrInvalidPrice = errors.New("product: invalid price")
)

// ===============================
// Entity
// ===============================

// Product is the read-only catalog entry owned by the backend.
// Price is fixed-point; it is decoded from either a JSON string ("45.90")
// or a JSON number (45.9).
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Ingredients string          `json:"ingredients"`
}

// New builds a normalized product and validates it.
func New(id, name string, price decimal.Decimal, image, ingredients string) (Product, error) {
	p := Product{
		ID:          strings.TrimSpace(id),
		Name:        strings.TrimSpace(name),
		Price:       price,
		Image:       strings.TrimSpace(image),
		Ingredients: strings.TrimSpace(ingredients),
	}
	if err := p.Validate(); err != nil {
		return Product{}, err
	}
	return p, nil
}

// Validate checks the invariants a catalog entry must hold.
func (p Product) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return ErrInvalidID
	}
	if p.Price.IsNegative() {
		return ErrInvalidPrice
	}
	return nil
}

// UnmarshalJSON accepts numeric ids (the backend uses autoincrement keys)
// as well as string ids.
func (p *Product) UnmarshalJSON(b []byte) error {
	var w struct {
		ID          json.RawMessage `json:"id"`
		Name        string          `json:"name"`
		Price       decimal.Decimal `json:"price"`
		Image       string          `json:"image"`
		Ingredients string          `json:"ingredients"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	id, err := decodeID(w.ID)
	if err != nil {
		return err
	}

	p.ID = id
	p.Name = strings.TrimSpace(w.Name)
	p.Price = w.Price
	p.Image = strings.TrimSpace(w.Image)
	p.Ingredients = strings.TrimSpace(w.Ingredients)
	return nil
}

func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", ErrInvalidID
	}
	return n.String(), nil
}
