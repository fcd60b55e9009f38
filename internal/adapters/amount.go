package adapters

import (
	"strings"

	"github.com/shopspring/decimal"
)

// parseVesAmount parses a Venezuelan-formatted amount like "1.250,75" where
// the dot is a thousands separator and the comma the decimal mark.
func parseVesAmount(s string) (decimal.Decimal, error) {
	normalized := strings.ReplaceAll(s, ".", "")
	normalized = strings.ReplaceAll(normalized, ",", ".")
	return decimal.NewFromString(normalized)
}

// slug keeps the first maxLen alphanumeric characters of s, uppercased.
// Used to build natural keys for sources that carry no reference number.
func slug(s string, maxLen int) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r >= 'a' && r <= 'z':
			return r - ('a' - 'A')
		default:
			return -1
		}
	}, s)
	if len(mapped) > maxLen {
		mapped = mapped[:maxLen]
	}
	return mapped
}
