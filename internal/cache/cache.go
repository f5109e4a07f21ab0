// Package cache stores JSON values with a time to live.
package cache

import (
	"context"
	"time"
)

// Cache is a JSON key-value cache. A miss is reported with hit=false and a nil error.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}
