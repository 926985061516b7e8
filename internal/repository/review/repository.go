package review

import (
	"context"

	"hayase/internal/domain"
)

type Repository interface {
	// Create stores a review; an unknown product is domain.ErrNotFound.
	Create(ctx context.Context, r domain.Review) (*domain.Review, error)
	// ListForProduct returns a product's reviews in one status, newest first.
	ListForProduct(ctx context.Context, productID string, status domain.ReviewStatus) ([]domain.Review, error)
	// List returns every review with its product name, pending ones first.
	List(ctx context.Context) ([]domain.Review, error)
	SetStatus(ctx context.Context, id string, status domain.ReviewStatus) error
}
