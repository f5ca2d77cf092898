package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount converts user input to a signed decimal amount.
//
// It tolerates currency symbols, whitespace and thousands separators. Any
// other character, such as a letter, makes the input invalid:
//
//	ParseAmount("-85,500")  -> -85500
//	ParseAmount("₩1,234")   -> 1234
//	ParseAmount("12,34")    -> 12.34
//	ParseAmount("1,234.50") -> 1234.5
//	ParseAmount("12abc3")   -> ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsDigit(r), r == '.', r == ',', r == '-', r == '+':
			b.WriteRune(r)
		case unicode.IsSpace(r), unicode.Is(unicode.Sc, r):
		default:
			return decimal.Zero, ErrInvalidAmount
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return decimal.Zero, ErrInvalidAmount
	}

	switch {
	case strings.Contains(cleaned, ".") && strings.Contains(cleaned, ","):
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	case strings.Contains(cleaned, ","):
		last := strings.LastIndex(cleaned, ",")
		if len(cleaned)-last-1 == 3 {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		} else if strings.Count(cleaned, ",") == 1 {
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			return decimal.Zero, ErrInvalidAmount
		}
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}
