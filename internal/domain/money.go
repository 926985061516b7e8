package domain

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Money is an amount in minor currency units (paise).
type Money int64

const minorUnitsPerMajor = 100

// MoneyFromDecimal converts a major-unit amount (rupees) to Money, rounding half up to the nearest paisa.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money(d.Mul(decimal.NewFromInt(minorUnitsPerMajor)).Round(0).IntPart())
}

// ParseMoney parses a rupee amount such as "1200" or "1199.50".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return MoneyFromDecimal(d), nil
}

// MaxMoney is the ceiling that sums and products of Money saturate at.
const MaxMoney = Money(math.MaxInt64)

// Plus adds two non-negative amounts, saturating at MaxMoney.
func (m Money) Plus(o Money) Money {
	if o > 0 && m > MaxMoney-o {
		return MaxMoney
	}
	return m + o
}

// Times multiplies a non-negative amount by a quantity, saturating at MaxMoney.
func (m Money) Times(q int) Money {
	if m <= 0 || q <= 0 {
		return 0
	}
	if int64(m) > math.MaxInt64/int64(q) {
		return MaxMoney
	}
	return m * Money(q)
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

func (m Money) String() string {
	return "₹" + m.Decimal().StringFixed(2)
}
