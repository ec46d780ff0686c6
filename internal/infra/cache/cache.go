package cache

import (
	"context"
	"errors"
	"time"
)

// ErrUndecodable marks a stored value that could not be decoded into the
// requested destination. The key exists but its content is unusable.
var ErrUndecodable = errors.New("stored value cannot be decoded")

// Cache stores JSON encodable values under string keys.
type Cache interface {
	// Get decodes the value stored under key into dest. It reports false
	// with a nil error when the key does not exist.
	Get(ctx context.Context, key string, dest any) (bool, error)
	// Set stores value under key. A zero ttl keeps the value forever.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}
