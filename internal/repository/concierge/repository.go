package concierge

import (
	"context"

	"hayase/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, req domain.ConciergeRequest) (*domain.ConciergeRequest, error)
	// List returns every request, newest first.
	List(ctx context.Context) ([]domain.ConciergeRequest, error)
	SetStatus(ctx context.Context, id string, status domain.RequestStatus) error
}
