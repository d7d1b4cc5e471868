// internal/application/pricing/engine_test.go
package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"b7pizza/internal/application/catalog"
	cartdom "b7pizza/internal/domain/cart"
	productdom "b7pizza/internal/domain/product"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testCatalog() *catalog.Cache {
	c := catalog.NewCache()
	c.SetProducts([]productdom.Product{
		{ID: "1", Name: "Calabresa", Price: d("45.90"), Image: "c.png"},
		{ID: "2", Name: "Marguerita", Price: d("39.50"), Image: "m.png"},
	})
	return c
}

func TestEngine_SubtotalAndTotal(t *testing.T) {
	e := NewDefaultEngine()
	cat := testCatalog()

	items := []cartdom.Item{{ProductID: "1", Quantity: 2}, {ProductID: "2", Quantity: 1}}
	assert.Equal(t, "131.3", e.Subtotal(items, cat).String())
	assert.Equal(t, "141.3", e.Total(items, cat).String())
	assert.True(t, e.Shipping().Equal(decimal.NewFromInt(10)))
}

func TestEngine_SubtotalIsOrderInvariant(t *testing.T) {
	e := NewDefaultEngine()
	cat := testCatalog()

	a := []cartdom.Item{{ProductID: "1", Quantity: 3}, {ProductID: "2", Quantity: 2}}
	b := []cartdom.Item{{ProductID: "2", Quantity: 2}, {ProductID: "1", Quantity: 3}}
	assert.True(t, e.Subtotal(a, cat).Equal(e.Subtotal(b, cat)))
}

func TestEngine_UnresolvedItemsCountZero(t *testing.T) {
	e := NewDefaultEngine()
	cat := testCatalog()

	items := []cartdom.Item{{ProductID: "ghost", Quantity: 4}}
	assert.True(t, e.Subtotal(items, cat).IsZero())
	assert.True(t, e.Total(items, cat).Equal(decimal.NewFromInt(10)))

	assert.True(t, e.Subtotal(items, nil).IsZero())
}

func TestEngine_EmptyCartTotalIsShipping(t *testing.T) {
	e := NewDefaultEngine()
	assert.Equal(t, "R$ 10,00", e.FormatMoney(e.Total(nil, testCatalog())))
}

func TestEngine_FormatMoney(t *testing.T) {
	e := NewDefaultEngine()

	cases := map[string]string{
		"0":           "R$ 0,00",
		"10":          "R$ 10,00",
		"45.9":        "R$ 45,90",
		"1234.56":     "R$ 1.234,56",
		"1234567.891": "R$ 1.234.567,89",
		"0.005":       "R$ 0,01",
		"2.675":       "R$ 2,68",
		"999.995":     "R$ 1.000,00",
		"-3.5":        "-R$ 3,50",
	}
	for in, want := range cases {
		assert.Equal(t, want, e.FormatMoney(d(in)), in)
	}

	// deterministic
	assert.Equal(t, e.FormatMoney(d("1234.56")), e.FormatMoney(d("1234.560")))
}

func TestEngine_OtherLocales(t *testing.T) {
	us, err := NewEngine(Config{Shipping: decimal.Zero, Currency: "USD", Locale: "en-US"})
	require.NoError(t, err)
	assert.Equal(t, "$ 1,234.56", us.FormatMoney(d("1234.56")))

	eu, err := NewEngine(Config{Currency: "EUR", Locale: "de-DE"})
	require.NoError(t, err)
	assert.Equal(t, "1.234,56 €", eu.FormatMoney(d("1234.56")))
	assert.Equal(t, "-3,50 €", eu.FormatMoney(d("-3.5")))

	usdInBrazil, err := NewEngine(Config{Currency: "USD", Locale: "pt-BR"})
	require.NoError(t, err)
	assert.Equal(t, "US$ 1.234,56", usdInBrazil.FormatMoney(d("1234.56")))
	assert.True(t, eu.Shipping().IsZero())
}

func TestNewEngine_Errors(t *testing.T) {
	_, err := NewEngine(Config{Shipping: d("-1")})
	assert.ErrorIs(t, err, ErrNegativeShipping)

	_, err = NewEngine(Config{Currency: "NOPE"})
	assert.ErrorIs(t, err, ErrInvalidCurrency)

	_, err = NewEngine(Config{Locale: "!!"})
	assert.ErrorIs(t, err, ErrInvalidLocale)
}

func TestEngine_Summarize(t *testing.T) {
	e := NewDefaultEngine()
	cat := testCatalog()

	s := e.Summarize([]cartdom.Item{
		{ProductID: "2", Quantity: 1},
		{ProductID: "ghost", Quantity: 2},
		{ProductID: "1", Quantity: 3},
	}, cat)

	require.Len(t, s.Rows, 2)
	assert.Equal(t, "Marguerita", s.Rows[0].Name)
	assert.False(t, s.Rows[0].CanDecrease)
	assert.Equal(t, "Calabresa", s.Rows[1].Name)
	assert.True(t, s.Rows[1].CanDecrease)
	assert.Equal(t, "R$ 137,70", s.Rows[1].LineTotalText)
	assert.Equal(t, "R$ 45,90", s.Rows[1].UnitPriceText)

	assert.Equal(t, []string{"ghost"}, s.Unresolved)
	assert.Equal(t, 3, s.ItemCount)
	assert.Equal(t, 6, s.TotalQuantity)
	assert.Equal(t, "R$ 177,20", s.SubtotalText)
	assert.Equal(t, "R$ 10,00", s.ShippingText)
	assert.Equal(t, "R$ 187,20", s.TotalText)
}
