package cart

import (
	"context"
	"errors"

	"hayase/internal/domain"
)

// KeyPrefix namespaces cart snapshots in the key-value store.
const KeyPrefix = "hayase-cart:"

// ErrNoSnapshot is returned by Load when nothing was saved under the key.
var ErrNoSnapshot = errors.New("cart snapshot not found")

// SnapshotStore persists whole cart snapshots. Save overwrites; there are no
// partial updates and no versioning.
type SnapshotStore interface {
	Save(ctx context.Context, key string, snapshot domain.CartSnapshot) error
	Load(ctx context.Context, key string) (domain.CartSnapshot, error)
}

// Key returns the storage key for a cart session.
func Key(sessionID string) string {
	return KeyPrefix + sessionID
}
