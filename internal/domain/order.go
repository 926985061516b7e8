package domain

import (
	"fmt"
	"strings"
	"time"
)

type OrderStatus string

const (
	OrderPendingVerification OrderStatus = "pending_verification"
	OrderConfirmed           OrderStatus = "confirmed"
	OrderShipped             OrderStatus = "shipped"
	OrderCancelled           OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPendingVerification: {OrderConfirmed, OrderCancelled},
	OrderConfirmed:           {OrderShipped, OrderCancelled},
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case OrderPendingVerification, OrderConfirmed, OrderShipped, OrderCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ShippingInfo is the customer and delivery form collected at checkout.
type ShippingInfo struct {
	FullName     string `json:"fullName"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	Area         string `json:"area"`
	City         string `json:"city"`
	State        string `json:"state"`
	Pincode      string `json:"pincode"`
}

const (
	pincodeLength  = 6
	minPhoneLength = 10
)

// Validate checks required fields, the pincode and the phone number.
func (s ShippingInfo) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"fullName", s.FullName},
		{"phone", s.Phone},
		{"pincode", s.Pincode},
		{"city", s.City},
		{"state", s.State},
		{"addressLine1", s.AddressLine1},
		{"area", s.Area},
		{"email", s.Email},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ValidationError{Field: r.field, Message: "required"}
		}
	}
	pin := strings.TrimSpace(s.Pincode)
	if len(pin) != pincodeLength || !allDigits(pin) {
		return &ValidationError{Field: "pincode", Message: "must be exactly 6 digits"}
	}
	if len(strings.TrimSpace(s.Phone)) < minPhoneLength {
		return &ValidationError{Field: "phone", Message: "must be at least 10 characters"}
	}
	return nil
}

// Normalized returns a copy with surrounding whitespace removed.
func (s ShippingInfo) Normalized() ShippingInfo {
	return ShippingInfo{
		FullName:     strings.TrimSpace(s.FullName),
		Email:        strings.TrimSpace(s.Email),
		Phone:        strings.TrimSpace(s.Phone),
		AddressLine1: strings.TrimSpace(s.AddressLine1),
		AddressLine2: strings.TrimSpace(s.AddressLine2),
		Area:         strings.TrimSpace(s.Area),
		City:         strings.TrimSpace(s.City),
		State:        strings.TrimSpace(s.State),
		Pincode:      strings.TrimSpace(s.Pincode),
	}
}

// AddressText renders the address as a single line.
func (s ShippingInfo) AddressText() string {
	parts := []string{s.AddressLine1}
	if s.AddressLine2 != "" {
		parts = append(parts, s.AddressLine2)
	}
	parts = append(parts, s.Area, s.City)
	return fmt.Sprintf("%s, %s - %s", strings.Join(parts, ", "), s.State, s.Pincode)
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// OrderLine is a frozen copy of a cart line taken at order time.
type OrderLine struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice Money  `json:"unitPrice"`
}

func (l OrderLine) Total() Money {
	return l.UnitPrice.Times(l.Quantity)
}

// OrderPayload is the immutable record handed to order persistence.
type OrderPayload struct {
	IdempotencyKey   string       `json:"idempotencyKey"`
	Customer         ShippingInfo `json:"customer"`
	Lines            []OrderLine  `json:"lines"`
	Subtotal         Money        `json:"subtotal"`
	CouponCode       *string      `json:"couponCode,omitempty"`
	Discount         Money        `json:"discount"`
	ShippingCost     Money        `json:"shippingCost"`
	Total            Money        `json:"total"`
	PaymentReference string       `json:"paymentReference"`
	Status           OrderStatus  `json:"status"`
}

// NewOrderPayload freezes the cart lines and derives the totals.
func NewOrderPayload(key string, customer ShippingInfo, cart CartSnapshot, discount *AppliedDiscount, shipping Money, paymentRef string) OrderPayload {
	lines := make([]OrderLine, 0, len(cart.Items))
	for _, item := range cart.Items {
		lines = append(lines, OrderLine{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	subtotal := cart.Subtotal()
	payload := OrderPayload{
		IdempotencyKey:   key,
		Customer:         customer,
		Lines:            lines,
		Subtotal:         subtotal,
		ShippingCost:     shipping,
		PaymentReference: strings.TrimSpace(paymentRef),
		Status:           OrderPendingVerification,
	}
	if discount != nil {
		code := discount.Code
		payload.CouponCode = &code
		payload.Discount = clamp(discount.Discount, 0, subtotal)
	}
	payload.Total = (subtotal - payload.Discount).Plus(shipping)
	return payload
}

// Order is a persisted order as seen by the back office.
type Order struct {
	ID               string       `json:"id"`
	Customer         ShippingInfo `json:"customer"`
	ShippingAddress  string       `json:"shippingAddress"`
	Lines            []OrderLine  `json:"lines"`
	Subtotal         Money        `json:"subtotal"`
	CouponCode       *string      `json:"couponCode,omitempty"`
	Discount         Money        `json:"discount"`
	ShippingCost     Money        `json:"shippingCost"`
	Total            Money        `json:"total"`
	PaymentReference string       `json:"paymentReference"`
	Status           OrderStatus  `json:"status"`
	CreatedAt        time.Time    `json:"createdAt"`
}
