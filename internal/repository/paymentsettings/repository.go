package paymentsettings

import (
	"context"

	"hayase/internal/domain"
)

type Repository interface {
	// GetActive returns the most recently updated active settings.
	GetActive(ctx context.Context) (*domain.PaymentSettings, error)
	// Latest returns the most recently updated settings, active or not.
	Latest(ctx context.Context) (*domain.PaymentSettings, error)
	Upsert(ctx context.Context, s domain.PaymentSettings) (*domain.PaymentSettings, error)
}
