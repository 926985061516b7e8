package order

import (
	"context"
	"errors"
	"testing"

	"hayase/internal/domain"
	"hayase/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	orders    map[string]domain.Order
	updateErr error
}

func (s *stubRepo) CreateOrder(context.Context, domain.OrderPayload) (string, error) {
	return "", errors.New("not used")
}

func (s *stubRepo) CreateOrderLines(context.Context, string, []domain.OrderLine) error { return nil }
func (s *stubRepo) DeleteOrder(context.Context, string) error                          { return nil }

func (s *stubRepo) List(context.Context) ([]domain.Order, error) {
	out := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	return out, nil
}

func (s *stubRepo) Get(_ context.Context, id string) (*domain.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &o, nil
}

func (s *stubRepo) UpdateStatus(_ context.Context, id string, from, to domain.OrderStatus) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	o := s.orders[id]
	if o.Status != from {
		return domain.ErrConflict
	}
	o.Status = to
	s.orders[id] = o
	return nil
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return nil
}

func newRepo() *stubRepo {
	return &stubRepo{orders: map[string]domain.Order{
		"o1": {ID: "o1", Status: domain.OrderPendingVerification},
		"o2": {ID: "o2", Status: domain.OrderShipped},
	}}
}

func TestUpdateStatus_AllowedMovePublishes(t *testing.T) {
	repo := newRepo()
	pub := &recordingPublisher{}
	svc := New(repo, pub, nil)

	got, err := svc.UpdateStatus(context.Background(), "o1", "confirmed")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderConfirmed, got.Status)
	assert.Equal(t, domain.OrderConfirmed, repo.orders["o1"].Status)

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.TypeOrderStatusChanged, pub.events[0].Type)
	payload := pub.events[0].Payload.(events.OrderStatusChanged)
	assert.Equal(t, domain.OrderPendingVerification, payload.From)
	assert.Equal(t, domain.OrderConfirmed, payload.To)
}

func TestUpdateStatus_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("shipped is final", func(t *testing.T) {
		pub := &recordingPublisher{}
		_, err := New(newRepo(), pub, nil).UpdateStatus(ctx, "o2", "cancelled")
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		assert.Empty(t, pub.events)
	})

	t.Run("skipping confirmation", func(t *testing.T) {
		_, err := New(newRepo(), nil, nil).UpdateStatus(ctx, "o1", "shipped")
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := New(newRepo(), nil, nil).UpdateStatus(ctx, "o1", "lost")
		var verr *domain.ValidationError
		assert.True(t, errors.As(err, &verr))
	})

	t.Run("missing order", func(t *testing.T) {
		_, err := New(newRepo(), nil, nil).UpdateStatus(ctx, "nope", "confirmed")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("raced update", func(t *testing.T) {
		repo := newRepo()
		repo.updateErr = domain.ErrConflict
		_, err := New(repo, nil, nil).UpdateStatus(ctx, "o1", "confirmed")
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}
