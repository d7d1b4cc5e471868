// internal/application/pricing/engine.go
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"

	cartdom "b7pizza/internal/domain/cart"
	productdom "b7pizza/internal/domain/product"
)

const (
	DefaultCurrency = "BRL"
	DefaultLocale   = "pt-BR"
)

// DefaultShipping is the flat shipping rate the storefront charges.
var DefaultShipping = decimal.NewFromInt(10)

var ErrNegativeShipping = errors.New("pricing: shipping must be >= 0")

type Config struct {
	Shipping decimal.Decimal
	Currency string
	Locale   string
}

// Engine derives cart money values from a ledger snapshot and the catalog.
// It holds no mutable state; every method is safe for concurrent use.
// Totals computed here are for display only.
type Engine struct {
	shipping decimal.Decimal
	money    moneyFormat
}

// NewEngine builds an engine. Empty Currency/Locale fall back to the defaults;
// Shipping is used as given, so zero means free shipping.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Shipping.IsNegative() {
		return nil, ErrNegativeShipping
	}
	cur := cfg.Currency
	if cur == "" {
		cur = DefaultCurrency
	}
	loc := cfg.Locale
	if loc == "" {
		loc = DefaultLocale
	}

	mf, err := newMoneyFormat(loc, cur)
	if err != nil {
		return nil, err
	}
	return &Engine{shipping: cfg.Shipping, money: mf}, nil
}

// NewDefaultEngine returns the pt-BR / BRL engine with the default shipping rate.
func NewDefaultEngine() *Engine {
	e, err := NewEngine(Config{Shipping: DefaultShipping})
	if err != nil {
		// defaults are constants; this cannot fail
		panic(err)
	}
	return e
}

// Subtotal sums price x quantity over items the catalog can resolve.
// Unresolved ids contribute zero.
func (e *Engine) Subtotal(items []cartdom.Item, catalog productdom.Finder) decimal.Decimal {
	sum := decimal.Zero
	if catalog == nil {
		return sum
	}
	for _, it := range items {
		p, ok := catalog.FindByID(it.ProductID)
		if !ok {
			continue
		}
		sum = sum.Add(e.LineTotal(p.Price, it.Quantity))
	}
	return sum
}

// Shipping is the flat rate, independent of cart contents.
func (e *Engine) Shipping() decimal.Decimal {
	if e == nil {
		return DefaultShipping
	}
	return e.shipping
}

func (e *Engine) Total(items []cartdom.Item, catalog productdom.Finder) decimal.Decimal {
	return e.Subtotal(items, catalog).Add(e.Shipping())
}

func (e *Engine) LineTotal(price decimal.Decimal, qty int) decimal.Decimal {
	if qty <= 0 {
		return decimal.Zero
	}
	return price.Mul(decimal.NewFromInt(int64(qty)))
}

// FormatMoney renders amount with two fraction digits, the currency symbol
// and locale grouping, e.g. "R$ 1.234,56".
func (e *Engine) FormatMoney(amount decimal.Decimal) string {
	return e.money.format(amount)
}

// ============================================================
// Summary
// ============================================================

// Row is one renderable cart line.
type Row struct {
	ProductID     string          `json:"productId"`
	Name          string          `json:"name"`
	Image         string          `json:"image"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	LineTotal     decimal.Decimal `json:"lineTotal"`
	UnitPriceText string          `json:"unitPriceText"`
	LineTotalText string          `json:"lineTotalText"`
	CanDecrease   bool            `json:"canDecrease"`
}

// Summary is the derived view of a cart.
// Lines whose product is unknown are listed in Unresolved and are not rendered.
type Summary struct {
	Rows          []Row           `json:"rows"`
	Unresolved    []string        `json:"unresolved,omitempty"`
	ItemCount     int             `json:"itemCount"`
	TotalQuantity int             `json:"totalQuantity"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Shipping      decimal.Decimal `json:"shipping"`
	Total         decimal.Decimal `json:"total"`
	SubtotalText  string          `json:"subtotalText"`
	ShippingText  string          `json:"shippingText"`
	TotalText     string          `json:"totalText"`
}

// Summarize builds display rows and totals in ledger order.
func (e *Engine) Summarize(items []cartdom.Item, catalog productdom.Finder) Summary {
	s := Summary{
		Rows:      make([]Row, 0, len(items)),
		ItemCount: len(items),
		Subtotal:  decimal.Zero,
	}

	for _, it := range items {
		s.TotalQuantity += it.Quantity

		var (
			p  productdom.Product
			ok bool
		)
		if catalog != nil {
			p, ok = catalog.FindByID(it.ProductID)
		}
		if !ok {
			s.Unresolved = append(s.Unresolved, it.ProductID)
			continue
		}

		line := e.LineTotal(p.Price, it.Quantity)
		s.Subtotal = s.Subtotal.Add(line)
		s.Rows = append(s.Rows, Row{
			ProductID:     it.ProductID,
			Name:          p.Name,
			Image:         p.Image,
			Quantity:      it.Quantity,
			UnitPrice:     p.Price,
			LineTotal:     line,
			UnitPriceText: e.FormatMoney(p.Price),
			LineTotalText: e.FormatMoney(line),
			CanDecrease:   it.Quantity > 1,
		})
	}

	s.Shipping = e.Shipping()
	s.Total = s.Subtotal.Add(s.Shipping)
	s.SubtotalText = e.FormatMoney(s.Subtotal)
	s.ShippingText = e.FormatMoney(s.Shipping)
	s.TotalText = e.FormatMoney(s.Total)
	return s
}
