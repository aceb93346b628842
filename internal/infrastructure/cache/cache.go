// Package cache provides the score cache: keyed JSON blobs with TTL,
// single-flight computation, and prefix invalidation.  Two implementations
// exist — Redis for production and an in-process map for tests and
// single-node deployments — behind one interface.
package cache

import (
	"context"
	"time"

	"github.com/turtacn/GovMatch-Engine/pkg/errors"
)

var (
	// ErrCacheMiss is returned by Get when the key is absent or expired.
	ErrCacheMiss = errors.New(errors.ErrCodeNotFound, "cache miss")
	// ErrSerialization is returned when a value cannot be encoded or decoded.
	ErrSerialization = errors.New(errors.ErrCodeSerialization, "cache serialization failed")
)

// ComputeFunc produces a value on cache miss.  It runs at most once per key
// across concurrent callers.
type ComputeFunc func(ctx context.Context) (interface{}, error)

// Cache is the engine-facing cache port.
type Cache interface {
	// Get decodes the cached value for key into dest, or ErrCacheMiss.
	Get(ctx context.Context, key string, dest interface{}) error
	// Set stores value under key with the given TTL.  A zero TTL uses the
	// implementation default.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Delete removes keys; missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
	// DeleteByPrefix removes every key with the given prefix and reports how
	// many were removed.
	DeleteByPrefix(ctx context.Context, prefix string) (int64, error)
	// GetOrCompute returns the cached value for key, or runs compute to fill
	// it.  Concurrent callers for the same key share one compute invocation
	// and all receive its result; compute errors are returned to every waiter
	// and nothing is cached.
	GetOrCompute(ctx context.Context, key string, dest interface{}, ttl time.Duration, compute ComputeFunc) error
}

// Serializer converts cached values to and from bytes.
type Serializer interface {
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
}
