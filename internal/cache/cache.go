package cache

import (
	"context"
	"time"
)

// Cache is a simple key-value store with expiration
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration)
	Delete(ctx context.Context, key string)
}
