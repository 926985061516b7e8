package order

import (
	"context"
	"errors"
	"time"

	"hayase/internal/domain"
	"hayase/internal/events"
	"hayase/internal/logging"
	orderrepo "hayase/internal/repository/order"

	"go.uber.org/zap"
)

// Service is the back-office view of placed orders.
type Service struct {
	repo      orderrepo.Repository
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func New(repo orderrepo.Repository, publisher events.Publisher, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logging.OrNop(logger).Named("order"),
		now:       time.Now,
	}
}

// List returns orders newest first.
func (s *Service) List(ctx context.Context) ([]domain.Order, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	return s.repo.Get(ctx, id)
}

// UpdateStatus moves an order along its lifecycle. Moves the lifecycle does
// not allow, and moves raced by another update, return a *domain.TransitionError.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*domain.Order, error) {
	next, err := domain.ParseOrderStatus(status)
	if err != nil {
		return nil, &domain.ValidationError{Field: "status", Message: err.Error()}
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(next) {
		return nil, &domain.TransitionError{From: string(current.Status), To: string(next)}
	}
	if err := s.repo.UpdateStatus(ctx, id, current.Status, next); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, &domain.TransitionError{From: string(current.Status), To: string(next)}
		}
		return nil, err
	}

	s.logger.Info("order status changed",
		zap.String("order_id", id), zap.String("from", string(current.Status)), zap.String("to", string(next)))
	if err := s.publisher.Publish(ctx, events.NewOrderStatusChanged(id, current.Status, next, s.now())); err != nil {
		s.logger.Warn("publish order status event", zap.String("order_id", id), zap.Error(err))
	}

	current.Status = next
	return current, nil
}
