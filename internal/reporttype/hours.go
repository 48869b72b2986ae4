package reporttype

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatHours renders an hours value rounded to two decimals, with
// exactly two decimal digits and an apostrophe grouping every three
// digits left of the decimal point ("1'234.57").
func FormatHours(hours float64) string {
	s := decimal.NewFromFloat(hours).Round(2).StringFixed(2)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	dot := strings.IndexByte(s, '.')
	intPart, fracPart := s[:dot], s[dot:]

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('\'')
		}
		b.WriteRune(r)
	}

	out := b.String() + fracPart
	if neg {
		out = "-" + out
	}
	return out
}
