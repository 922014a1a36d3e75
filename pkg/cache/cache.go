package cache

import (
	"context"
	"time"
)

// Cache là abstraction cho caching layer (Redis implementation ở infrastructure)
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ErrCacheMiss được trả về khi key không tồn tại
type CacheMissError struct{ Key string }

func (e *CacheMissError) Error() string {
	return "cache miss: " + e.Key
}
