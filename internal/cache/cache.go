// Package cache wraps Redis for JSON values. A Store built from a nil client
// is a valid no-op store: every lookup misses and every write succeeds.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flicky/go-storefront/internal/metrics"
)

type Store struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func (s *Store) enabled() bool { return s != nil && s.rdb != nil }

// GetJSON reports whether key was found and decoded into dest. kind labels the
// hit/miss metrics.
func (s *Store) GetJSON(ctx context.Context, kind, key string, dest any) bool {
	if !s.enabled() {
		return false
	}
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil || json.Unmarshal(raw, dest) != nil {
		metrics.CacheMisses.WithLabelValues(kind).Inc()
		return false
	}
	metrics.CacheHits.WithLabelValues(kind).Inc()
	return true
}

func (s *Store) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !s.enabled() {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	return s.rdb.Set(ctx, key, data, ttl).Err()
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if !s.enabled() || len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

// Seen reports whether an idempotency key has been marked.
func (s *Store) Seen(ctx context.Context, key string) (bool, error) {
	if !s.enabled() {
		return false, nil
	}
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("check key: %w", err)
	}
	return n > 0, nil
}

func (s *Store) Mark(ctx context.Context, key string, ttl time.Duration) error {
	if !s.enabled() {
		return nil
	}
	return s.rdb.Set(ctx, key, "1", ttl).Err()
}

// Generation reads the counter at key. An unset counter is generation 0.
func (s *Store) Generation(ctx context.Context, key string) (int64, error) {
	if !s.enabled() {
		return 0, nil
	}
	n, err := s.rdb.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get generation: %w", err)
	}
	return n, nil
}

// Bump advances the counter at key and refreshes its ttl.
func (s *Store) Bump(ctx context.Context, key string, ttl time.Duration) error {
	if !s.enabled() {
		return nil
	}
	pipe := s.rdb.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("bump generation: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if !s.enabled() {
		return errors.New("redis not configured")
	}
	return s.rdb.Ping(ctx).Err()
}
