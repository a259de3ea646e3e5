package domain

import "github.com/shopspring/decimal"

// GSTRate is the fixed goods-and-services tax applied to rental subtotals.
var GSTRate = decimal.RequireFromString("0.18")

// Round2 rounds half away from zero to two fractional digits.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Tax returns round2(subtotal * GSTRate).
func Tax(subtotal decimal.Decimal) decimal.Decimal {
	return Round2(subtotal.Mul(GSTRate))
}
