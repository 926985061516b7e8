package product

import (
	"context"

	"hayase/internal/domain"
)

type Repository interface {
	List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	// Categories returns the distinct non-empty categories, sorted.
	Categories(ctx context.Context) ([]string, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdatePrice(ctx context.Context, id string, price domain.Money) error
}
