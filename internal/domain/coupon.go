package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountFixed   DiscountType = "fixed"
)

// ParseDiscountType accepts only the two known variants.
func ParseDiscountType(s string) (DiscountType, error) {
	switch DiscountType(strings.ToLower(strings.TrimSpace(s))) {
	case DiscountPercent:
		return DiscountPercent, nil
	case DiscountFixed:
		return DiscountFixed, nil
	default:
		return "", fmt.Errorf("unknown discount type %q", s)
	}
}

// Coupon is a stored discount rule. DiscountValue is a percentage for
// percent coupons and a rupee amount for fixed ones.
type Coupon struct {
	ID            string          `json:"id"`
	Code          string          `json:"code"`
	DiscountType  DiscountType    `json:"discountType"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	MinOrderValue Money           `json:"minOrderValue"`
	IsActive      bool            `json:"isActive"`
	MaxUses       *int            `json:"maxUses,omitempty"`
	UsedCount     int             `json:"usedCount"`
	ExpiresAt     *time.Time      `json:"expiresAt,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// CouponRecord is the untyped shape of a coupon row as read from storage.
type CouponRecord struct {
	ID            string
	Code          string
	DiscountType  string
	DiscountValue string
	MinOrderValue Money
	IsActive      bool
	MaxUses       *int
	UsedCount     int
	ExpiresAt     *time.Time
	CreatedAt     time.Time
}

// CanonicalCouponCode trims and upper-cases a shopper-entered code.
func CanonicalCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NewCoupon validates a stored record. Records with an unknown discount type,
// an unparsable or negative value, or a negative threshold are rejected.
func NewCoupon(rec CouponRecord) (*Coupon, error) {
	code := CanonicalCouponCode(rec.Code)
	if code == "" {
		return nil, &ValidationError{Field: "code", Message: "required"}
	}
	dt, err := ParseDiscountType(rec.DiscountType)
	if err != nil {
		return nil, &ValidationError{Field: "discountType", Message: err.Error()}
	}
	value, err := decimal.NewFromString(strings.TrimSpace(rec.DiscountValue))
	if err != nil {
		return nil, &ValidationError{Field: "discountValue", Message: "not a number"}
	}
	if value.IsNegative() {
		return nil, &ValidationError{Field: "discountValue", Message: "must not be negative"}
	}
	if rec.MinOrderValue < 0 {
		return nil, &ValidationError{Field: "minOrderValue", Message: "must not be negative"}
	}
	return &Coupon{
		ID:            rec.ID,
		Code:          code,
		DiscountType:  dt,
		DiscountValue: value,
		MinOrderValue: rec.MinOrderValue,
		IsActive:      rec.IsActive,
		MaxUses:       rec.MaxUses,
		UsedCount:     rec.UsedCount,
		ExpiresAt:     rec.ExpiresAt,
		CreatedAt:     rec.CreatedAt,
	}, nil
}

// Redeemable reports whether the coupon may be used at now, ignoring the
// order threshold.
func (c Coupon) Redeemable(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if c.ExpiresAt != nil && !now.Before(*c.ExpiresAt) {
		return false
	}
	if c.MaxUses != nil && c.UsedCount >= *c.MaxUses {
		return false
	}
	return true
}

// Apply computes the discount for subtotal. It returns a *MinimumOrderError
// when subtotal is below MinOrderValue.
func (c Coupon) Apply(subtotal Money) (AppliedDiscount, error) {
	if subtotal < c.MinOrderValue {
		return AppliedDiscount{}, &MinimumOrderError{Code: c.Code, Threshold: c.MinOrderValue, Subtotal: subtotal}
	}
	discount := ComputeDiscount(c.DiscountType, c.DiscountValue, subtotal)
	return AppliedDiscount{
		Code:       c.Code,
		Type:       c.DiscountType,
		Value:      c.DiscountValue,
		Subtotal:   subtotal,
		Discount:   discount,
		FinalTotal: subtotal - discount,
	}, nil
}
