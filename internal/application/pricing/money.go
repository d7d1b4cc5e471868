// internal/application/pricing/money.go
package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var (
	ErrInvalidLocale   = errors.New("pricing: invalid locale")
	ErrInvalidCurrency = errors.New("pricing: invalid currency")
)

// languages whose CLDR currency pattern puts the symbol after the amount
// ("1.234,56 €"); x/text does not export the patterns themselves.
var symbolAfter = map[string]bool{
	"de": true,
	"fr": true,
	"es": true,
	"it": true,
	"fi": true,
	"sv": true,
	"pl": true,
	"cs": true,
	"ru": true,
}

// moneyFormat renders amounts with the locale's CLDR separators and the
// currency's localized symbol.
type moneyFormat struct {
	printer *message.Printer
	symbol  string
	after   bool
}

func newMoneyFormat(locale, code string) (moneyFormat, error) {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return moneyFormat{}, fmt.Errorf("%w: %q", ErrInvalidLocale, locale)
	}
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return moneyFormat{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}

	p := message.NewPrinter(tag)
	base, _ := tag.Base()
	return moneyFormat{
		printer: p,
		symbol:  p.Sprint(currency.Symbol(unit)),
		after:   symbolAfter[base.String()],
	}, nil
}

// format rounds half away from zero at the second decimal (half-up for the
// non-negative amounts a cart produces).
func (f moneyFormat) format(amount decimal.Decimal) string {
	r := amount.Round(2)
	num := f.printer.Sprint(number.Decimal(r.Abs().InexactFloat64(), number.Scale(2)))

	sign := ""
	if r.IsNegative() {
		sign = "-"
	}
	if f.after {
		return sign + num + " " + f.symbol
	}
	return sign + f.symbol + " " + num
}
