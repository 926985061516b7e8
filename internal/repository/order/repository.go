package order

import (
	"context"

	"hayase/internal/domain"
)

// Writer is the persistence side of order placement.
type Writer interface {
	// CreateOrder inserts the order row, or returns the id of the row already
	// stored under payload.IdempotencyKey. A coupon redemption is counted only
	// on first insert.
	CreateOrder(ctx context.Context, payload domain.OrderPayload) (string, error)
	// CreateOrderLines replaces the order's lines in one transaction.
	CreateOrderLines(ctx context.Context, orderID string, lines []domain.OrderLine) error
	// DeleteOrder removes the order with its lines and releases its coupon redemption.
	DeleteOrder(ctx context.Context, orderID string) error
}

type Repository interface {
	Writer
	List(ctx context.Context) ([]domain.Order, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	// UpdateStatus moves the order from one status to another and returns
	// domain.ErrConflict when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) error
}
