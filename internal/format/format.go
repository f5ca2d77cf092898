// Package format renders amounts, percentages and dates for display.
package format

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"cashboard/internal/core"
)

var symbols = map[string]string{
	"KRW": "₩",
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
	"JPY": "¥",
}

// Money formats amounts in one currency for one locale.
type Money struct {
	tag     language.Tag
	printer *message.Printer
	unit    currency.Unit
	symbol  string
	scale   int
}

// NewMoney builds a formatter from a BCP 47 locale and an ISO 4217 code.
func NewMoney(locale, code string) (*Money, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("parse currency %q: %w", code, err)
	}
	scale, _ := currency.Standard.Rounding(unit)
	sym, ok := symbols[unit.String()]
	if !ok {
		sym = unit.String() + " "
	}
	return &Money{
		tag:     tag,
		printer: message.NewPrinter(tag),
		unit:    unit,
		symbol:  sym,
		scale:   scale,
	}, nil
}

// MustMoney is NewMoney for known-good constants.
func MustMoney(locale, code string) *Money {
	m, err := NewMoney(locale, code)
	if err != nil {
		panic(err)
	}
	return m
}

// Format renders e.g. "₩85,500" or "-₩1,234".
func (m *Money) Format(amount decimal.Decimal) string {
	sign := ""
	rounded := amount.Round(int32(m.scale))
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Abs()
	}
	return sign + m.symbol + m.Number(rounded)
}

// Number renders the amount with locale grouping and the currency's scale,
// without a symbol.
func (m *Money) Number(amount decimal.Decimal) string {
	f := amount.Round(int32(m.scale)).InexactFloat64()
	return m.printer.Sprint(number.Decimal(f, number.Scale(m.scale)))
}

// Currency returns the ISO code.
func (m *Money) Currency() string { return m.unit.String() }

// Date renders a calendar date in the locale's short form.
func (m *Money) Date(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	base, _ := m.tag.Base()
	switch base.String() {
	case "ko":
		return d.Format("2006. 1. 2.")
	case "en":
		return d.Format("1/2/2006")
	default:
		return d.Format("2006-01-02")
	}
}

// Percent renders one decimal place, e.g. "60.0%".
func Percent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// Bytes renders a size in IEC units, e.g. "16 MiB".
func Bytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

// Signed renders the amount with an explicit plus sign for positives.
func (m *Money) Signed(amount decimal.Decimal) string {
	s := m.Format(amount)
	if amount.IsPositive() && !strings.HasPrefix(s, "-") {
		return "+" + s
	}
	return s
}
