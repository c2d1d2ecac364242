package redisx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// Store groups the order service's Redis usage. Redis is a shortcut only;
// Postgres stays the source of truth.
type Store struct{ rdb *redis.Client }

func NewStore(rdb *redis.Client) *Store { return &Store{rdb: rdb} }

// LookupIdempotent returns the order number a previous request with the same
// key produced.
func (s *Store) LookupIdempotent(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, fmt.Sprintf(KeyIdemOrderCreate, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *Store) RememberIdempotent(ctx context.Context, key, orderNumber string) error {
	return s.rdb.Set(ctx, fmt.Sprintf(KeyIdemOrderCreate, key), orderNumber, TTLIdempotency).Err()
}

func (s *Store) CachedOrder(ctx context.Context, orderNumber string) ([]byte, bool, error) {
	b, err := s.rdb.Get(ctx, fmt.Sprintf(KeyOrder, orderNumber)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *Store) CacheOrder(ctx context.Context, orderNumber string, body []byte) error {
	return s.rdb.Set(ctx, fmt.Sprintf(KeyOrder, orderNumber), body, TTLOrderCache).Err()
}

func (s *Store) InvalidateOrder(ctx context.Context, orderNumber string) error {
	return s.rdb.Del(ctx, fmt.Sprintf(KeyOrder, orderNumber)).Err()
}

// MarkProcessed records eventID for service and reports whether this is the
// first time it was seen.
func (s *Store) MarkProcessed(ctx context.Context, service, eventID string) (bool, error) {
	return s.rdb.SetNX(ctx, fmt.Sprintf(KeyDedup, service, eventID), 1, TTLDedup).Result()
}

func (s *Store) Forget(ctx context.Context, service, eventID string) error {
	return s.rdb.Del(ctx, fmt.Sprintf(KeyDedup, service, eventID)).Err()
}
