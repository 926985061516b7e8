package cart

import (
	"context"
	"errors"
	"sync"

	"hayase/internal/domain"
	"hayase/internal/logging"
	cartrepo "hayase/internal/repository/cart"

	"go.uber.org/zap"
)

type snapshotStore interface {
	Save(ctx context.Context, key string, snapshot domain.CartSnapshot) error
	Load(ctx context.Context, key string) (domain.CartSnapshot, error)
}

// Store is one shopper's cart. Mutations are serialised by a mutex and each
// resulting snapshot is written through to the snapshot store before the
// lock is released, so persisted writes happen in mutation order.
type Store struct {
	mu         sync.Mutex
	key        string
	snapshots  snapshotStore
	logger     *zap.Logger
	current    domain.CartSnapshot
	loaded     bool
	drawerOpen bool
}

func NewStore(key string, snapshots cartrepo.SnapshotStore, logger *zap.Logger) *Store {
	return &Store{
		key:       key,
		snapshots: snapshots,
		logger:    logging.OrNop(logger).With(zap.String("cart_key", key)),
	}
}

// Load rehydrates the cart from the snapshot store. Only the first call reads
// storage; a missing, unreadable or corrupt snapshot yields an empty cart.
func (s *Store) Load(ctx context.Context) domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)
	return s.current
}

func (s *Store) AddItem(ctx context.Context, product domain.Product, quantity int) domain.CartSnapshot {
	return s.mutate(ctx, func(c domain.CartSnapshot) domain.CartSnapshot {
		s.drawerOpen = true
		return c.WithProduct(product, quantity)
	})
}

func (s *Store) RemoveItem(ctx context.Context, productID string) domain.CartSnapshot {
	return s.mutate(ctx, func(c domain.CartSnapshot) domain.CartSnapshot {
		return c.WithoutProduct(productID)
	})
}

func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) domain.CartSnapshot {
	return s.mutate(ctx, func(c domain.CartSnapshot) domain.CartSnapshot {
		return c.WithQuantity(productID, quantity)
	})
}

func (s *Store) ClearCart(ctx context.Context) domain.CartSnapshot {
	return s.mutate(ctx, func(c domain.CartSnapshot) domain.CartSnapshot {
		return c.Cleared()
	})
}

// RemoveOrdered drops the units of a placed order, keeping anything the
// shopper added while the order was being written.
func (s *Store) RemoveOrdered(ctx context.Context, lines []domain.OrderLine) domain.CartSnapshot {
	return s.mutate(ctx, func(c domain.CartSnapshot) domain.CartSnapshot {
		return c.WithoutOrdered(lines)
	})
}

// Snapshot returns the current cart without touching storage.
func (s *Store) Snapshot() domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Store) Subtotal() domain.Money {
	return s.Snapshot().Subtotal()
}

func (s *Store) DrawerOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drawerOpen
}

func (s *Store) SetDrawerOpen(open bool) {
	s.mu.Lock()
	s.drawerOpen = open
	s.mu.Unlock()
}

func (s *Store) mutate(ctx context.Context, op func(domain.CartSnapshot) domain.CartSnapshot) domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)
	s.current = op(s.current)
	if err := s.snapshots.Save(ctx, s.key, s.current); err != nil {
		s.logger.Warn("persist cart snapshot", zap.Error(err))
	}
	return s.current
}

func (s *Store) ensureLoaded(ctx context.Context) {
	if s.loaded {
		return
	}
	s.loaded = true
	snap, err := s.snapshots.Load(ctx, s.key)
	switch {
	case errors.Is(err, cartrepo.ErrNoSnapshot):
		s.current = domain.CartSnapshot{}
	case err != nil:
		s.logger.Warn("load cart snapshot, starting empty", zap.Error(err))
		s.current = domain.CartSnapshot{}
	default:
		s.current = snap.Sanitized()
	}
}
