package utils

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCalculateTaxAmount(t *testing.T) {
	rate := decimal.RequireFromString("0.18")
	cases := []struct {
		subtotal, tax, total string
	}{
		{"7.00", "1.26", "8.26"},
		{"0", "0", "0"},
		{"10", "1.8", "11.8"},
		{"3.33", "0.60", "3.93"},
		{"99.99", "18.00", "117.99"},
	}
	for _, tc := range cases {
		subtotal := decimal.RequireFromString(tc.subtotal)
		tax := CalculateTaxAmount(subtotal, rate)
		if !tax.Equal(decimal.RequireFromString(tc.tax)) {
			t.Fatalf("tax(%s) expected %s, got %s", tc.subtotal, tc.tax, tax.String())
		}
		total := CalculateTotalWithTax(subtotal, tax)
		if !total.Equal(decimal.RequireFromString(tc.total)) {
			t.Fatalf("total(%s) expected %s, got %s", tc.subtotal, tc.total, total.String())
		}
	}
}

func TestCalculateTaxAmount_NegativeInputIsZero(t *testing.T) {
	got := CalculateTaxAmount(decimal.NewFromInt(-5), decimal.RequireFromString("0.18"))
	if !got.IsZero() {
		t.Fatalf("expected 0 for negative subtotal, got %s", got.String())
	}
}
