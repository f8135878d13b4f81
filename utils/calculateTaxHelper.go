package utils

import "github.com/shopspring/decimal"

// CalculateTaxAmount applies a tax-exclusive rate (0.18 = 18%) and rounds to two places.
func CalculateTaxAmount(subtotal decimal.Decimal, rate decimal.Decimal) decimal.Decimal {
	if subtotal.IsNegative() || rate.IsNegative() {
		return decimal.Zero
	}
	return Round2(subtotal.Mul(rate))
}

// CalculateTotalWithTax returns round2(subtotal + taxAmount).
func CalculateTotalWithTax(subtotal decimal.Decimal, taxAmount decimal.Decimal) decimal.Decimal {
	return Round2(subtotal.Add(taxAmount))
}
