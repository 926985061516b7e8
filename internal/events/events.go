// Package events publishes order lifecycle events for downstream consumers
// such as fulfilment and notification workers.
package events

import (
	"context"
	"time"

	"hayase/internal/domain"
)

const (
	TypeOrderPlaced        = "order.placed"
	TypeOrderStatusChanged = "order.status_changed"
)

// Event is one message on the order events topic, keyed by order id.
type Event struct {
	Type       string
	OrderID    string
	OccurredAt time.Time
	Payload    any
}

type OrderPlaced struct {
	OrderID    string       `json:"orderId"`
	Total      domain.Money `json:"total"`
	Discount   domain.Money `json:"discount"`
	CouponCode *string      `json:"couponCode,omitempty"`
	LineCount  int          `json:"lineCount"`
	Email      string       `json:"email"`
}

type OrderStatusChanged struct {
	OrderID string             `json:"orderId"`
	From    domain.OrderStatus `json:"from"`
	To      domain.OrderStatus `json:"to"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Noop drops every event. Used when no brokers are configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

// NewOrderPlaced builds the event emitted after a successful checkout.
func NewOrderPlaced(orderID string, p domain.OrderPayload, at time.Time) Event {
	return Event{
		Type:       TypeOrderPlaced,
		OrderID:    orderID,
		OccurredAt: at,
		Payload: OrderPlaced{
			OrderID:    orderID,
			Total:      p.Total,
			Discount:   p.Discount,
			CouponCode: p.CouponCode,
			LineCount:  len(p.Lines),
			Email:      p.Customer.Email,
		},
	}
}

func NewOrderStatusChanged(orderID string, from, to domain.OrderStatus, at time.Time) Event {
	return Event{
		Type:       TypeOrderStatusChanged,
		OrderID:    orderID,
		OccurredAt: at,
		Payload:    OrderStatusChanged{OrderID: orderID, From: from, To: to},
	}
}
