// Package session keeps one cart and one checkout per shopper session.
package session

import (
	"context"
	"sync"
	"time"

	"hayase/internal/events"
	"hayase/internal/logging"
	cartrepo "hayase/internal/repository/cart"
	cartsvc "hayase/internal/service/cart"
	"hayase/internal/service/checkout"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session is a shopper's cart together with their checkout flow.
type Session struct {
	ID       string
	Cart     *cartsvc.Store
	Checkout *checkout.Engine

	expiresAt time.Time
}

type Deps struct {
	Snapshots cartrepo.SnapshotStore
	Coupons   checkout.CouponFinder
	Orders    checkout.OrderWriter
	Publisher events.Publisher
	Checkout  checkout.Options
}

// Registry hands out sessions by id with a sliding expiry. A known id whose
// in-memory session expired or was never seen by this process gets a fresh
// session that rehydrates its cart from the snapshot store.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	deps     Deps
	logger   *zap.Logger
	now      func() time.Time
}

func NewRegistry(deps Deps, ttl time.Duration, logger *zap.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		deps:     deps,
		logger:   logging.OrNop(logger).Named("session"),
		now:      time.Now,
	}
}

// Resolve returns the session for id, creating it when needed. created is
// true when id was empty or malformed and a new id was issued.
func (r *Registry) Resolve(ctx context.Context, id string) (s *Session, created bool) {
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
		created = true
	}
	now := r.now()

	r.mu.Lock()
	s, ok := r.sessions[id]
	if !ok || !now.Before(s.expiresAt) {
		s = r.newSession(id)
		r.sessions[id] = s
	}
	s.expiresAt = now.Add(r.ttl)
	r.mu.Unlock()

	// Only the first call reads the snapshot store.
	s.Cart.Load(ctx)
	return s, created
}

func (r *Registry) newSession(id string) *Session {
	logger := r.logger.With(zap.String("session_id", id))
	store := cartsvc.NewStore(cartrepo.Key(id), r.deps.Snapshots, logger)
	return &Session{
		ID:       id,
		Cart:     store,
		Checkout: checkout.NewEngine(store, r.deps.Coupons, r.deps.Orders, r.deps.Publisher, logger, r.deps.Checkout),
	}
}

// Sweep drops expired sessions and returns how many were removed.
func (r *Registry) Sweep() int {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		if !now.Before(s.expiresAt) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Run sweeps on every tick until ctx is done.
func (r *Registry) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Debug("expired sessions removed", zap.Int("count", n))
			}
		}
	}
}
