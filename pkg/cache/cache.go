package cache

import (
	"context"
	"errors"
	"time"
)

var ErrCacheMiss = errors.New("cache: key not found")

// Service is a JSON value store. Implementations prefix keys themselves.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// ListService adds capped newest-first lists.
type ListService interface {
	Service
	// PushCapped prepends values in order, so the last value ends up at the
	// head, then trims the list to max entries.
	PushCapped(ctx context.Context, key string, max int, values ...interface{}) error
	// Range returns up to n raw entries from the head.
	Range(ctx context.Context, key string, n int) ([]string, error)
}
