package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// AppliedDiscount is a coupon evaluated against a specific subtotal.
type AppliedDiscount struct {
	Code       string          `json:"code"`
	Type       DiscountType    `json:"type"`
	Value      decimal.Decimal `json:"value"`
	Subtotal   Money           `json:"subtotal"`
	Discount   Money           `json:"discount"`
	FinalTotal Money           `json:"finalTotal"`
}

// ComputeDiscount returns the discount for subtotal clamped to [0, subtotal].
// Percent discounts round half up to the nearest paisa.
func ComputeDiscount(t DiscountType, value decimal.Decimal, subtotal Money) Money {
	if subtotal <= 0 {
		return 0
	}
	var raw Money
	switch t {
	case DiscountPercent:
		raw = Money(subtotal.decimalMinor().Mul(value).Div(hundred).Round(0).IntPart())
	case DiscountFixed:
		raw = MoneyFromDecimal(value)
	}
	return clamp(raw, 0, subtotal)
}

func (m Money) decimalMinor() decimal.Decimal {
	return decimal.NewFromInt(int64(m))
}

func clamp(v, lo, hi Money) Money {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
