package utils

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var currencyMarks = []string{"₹", "INR", "inr", "Rs.", "rs.", "Rs", "rs"}

// CoerceAmount turns a price coming from the presentation layer into a
// non-negative decimal. Anything that is not a finite, non-negative number
// becomes 0; the caller never sees an error.
func CoerceAmount(raw any) decimal.Decimal {
	var d decimal.Decimal
	switch v := raw.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		d = v
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero
		}
		d = *v
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero
		}
		d = decimal.NewFromFloat(v)
	case float32:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Zero
		}
		d = decimal.NewFromFloat32(v)
	case int:
		d = decimal.NewFromInt(int64(v))
	case int64:
		d = decimal.NewFromInt(v)
	case int32:
		d = decimal.NewFromInt32(v)
	case json.Number:
		parsed, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Zero
		}
		d = parsed
	case string:
		parsed, ok := parseAmountString(v)
		if !ok {
			return decimal.Zero
		}
		d = parsed
	default:
		return decimal.Zero
	}
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Accept common user-formatted strings like "1,250.50", "₹ 120" or "Rs 99".
func parseAmountString(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	s = strings.ReplaceAll(s, ",", "")
	for _, mark := range currencyMarks {
		s = strings.ReplaceAll(s, mark, "")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Round2 rounds half away from zero to two places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
