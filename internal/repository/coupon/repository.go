package coupon

import (
	"context"
	"time"

	"hayase/internal/domain"

	"github.com/shopspring/decimal"
)

type CreateInput struct {
	Code          string
	DiscountType  domain.DiscountType
	DiscountValue decimal.Decimal
	MinOrderValue domain.Money
	IsActive      bool
	MaxUses       *int
	ExpiresAt     *time.Time
}

type Repository interface {
	// FindByCode matches case-insensitively and returns domain.ErrNotFound
	// when no row exists. Rows that fail validation are returned as errors.
	FindByCode(ctx context.Context, code string) (*domain.Coupon, error)
	List(ctx context.Context) ([]domain.Coupon, error)
	Create(ctx context.Context, in CreateInput) (*domain.Coupon, error)
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}
