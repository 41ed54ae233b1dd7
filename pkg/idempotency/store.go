package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store remembers webhook event ids so redelivered events are skipped.
// Checking and marking are separate: an event id is marked only once its
// handling reached a terminal outcome, so a failed delivery stays eligible
// for the provider's retry. Keys expire after ttl; a replay older than that
// falls through to the handler, which is safe because settlement is an
// idempotent overwrite.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) Key(provider, eventID string) string {
	return fmt.Sprintf("idem:%s:%s", provider, eventID)
}

func (s *Store) Seen(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func (s *Store) Mark(ctx context.Context, key string) error {
	return s.rdb.Set(ctx, key, "1", s.ttl).Err()
}
