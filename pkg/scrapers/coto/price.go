package coto

import (
	"encoding/json"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// parseAmount reads a machine-formatted number ("500", "1299.90") and falls
// back to the display parser for anything else.
func parseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return d.Abs(), true
	}
	return parseDisplayAmount(s)
}

// parseDisplayAmount reads a price as Coto renders it for people: "$1.234,50",
// "$ 899,00", "1234.5". Currency symbols, spaces and signs are ignored. The
// separator that appears last decides the decimal mark; a lone dot followed
// by exactly three digits is a thousands separator.
func parseDisplayAmount(s string) (decimal.Decimal, bool) {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	t := strings.Trim(b.String(), ".,")
	if t == "" {
		return decimal.Zero, false
	}

	lastComma := strings.LastIndex(t, ",")
	lastDot := strings.LastIndex(t, ".")

	var intPart, fracPart string
	switch {
	case lastComma > lastDot:
		intPart, fracPart = t[:lastComma], t[lastComma+1:]
	case lastDot > lastComma && lastComma >= 0:
		intPart, fracPart = t[:lastDot], t[lastDot+1:]
	case lastDot >= 0:
		if strings.Count(t, ".") == 1 && len(t)-lastDot-1 != 3 {
			intPart, fracPart = t[:lastDot], t[lastDot+1:]
		} else {
			intPart = t
		}
	default:
		intPart = t
	}

	intPart = strings.NewReplacer(".", "", ",", "").Replace(intPart)
	if intPart == "" {
		intPart = "0"
	}
	num := intPart
	if fracPart != "" {
		num += "." + fracPart
	}

	d, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

type discount struct {
	Price flexString `json:"precioDescuento"`
}

// discountPrice extracts the promotional price from a product.dtoDescuentos
// value: a JSON-encoded array of discount objects. Anything unparseable means
// there is no discount.
func discountPrice(encoded string) (decimal.Decimal, bool) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return decimal.Zero, false
	}
	var discounts []discount
	if err := json.Unmarshal([]byte(encoded), &discounts); err != nil || len(discounts) == 0 {
		return decimal.Zero, false
	}
	return parseDisplayAmount(string(discounts[0].Price))
}
