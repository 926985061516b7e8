package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hayase/internal/domain"

	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis stores snapshots as JSON strings. Every save refreshes the TTL, so
// an abandoned cart expires ttl after its last mutation.
func NewRedis(client *redis.Client, ttl time.Duration) SnapshotStore {
	return &redisStore{client: client, ttl: ttl}
}

func (s *redisStore) Save(ctx context.Context, key string, snapshot domain.CartSnapshot) error {
	if snapshot.Items == nil {
		snapshot.Items = []domain.CartLineItem{}
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *redisStore) Load(ctx context.Context, key string) (domain.CartSnapshot, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.CartSnapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return domain.CartSnapshot{}, fmt.Errorf("redis get %s: %w", key, err)
	}
	var snapshot domain.CartSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return domain.CartSnapshot{}, fmt.Errorf("unmarshal cart %s: %w", key, err)
	}
	return snapshot, nil
}
