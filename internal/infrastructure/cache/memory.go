package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/turtacn/GovMatch-Engine/internal/infrastructure/monitoring/logging"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// memoryCache is a process-local Cache with lazy expiry.  It mirrors the
// Redis implementation's semantics closely enough that the application layer
// cannot tell them apart, which is what makes it usable in tests.
type memoryCache struct {
	mu         sync.RWMutex
	entries    map[string]memoryEntry
	defaultTTL time.Duration
	serializer Serializer
	group      singleflight.Group
	now        func() time.Time
	log        logging.Logger
}

// NewMemoryCache builds an in-process cache.  A non-positive defaultTTL
// means entries written with a zero TTL never expire.  log may be nil.
func NewMemoryCache(defaultTTL time.Duration, log logging.Logger) Cache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &memoryCache{
		entries:    make(map[string]memoryEntry),
		defaultTTL: defaultTTL,
		serializer: jsonSerializer{},
		now:        time.Now,
		log:        log.Named("cache.memory"),
	}
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return ErrCacheMiss
	}
	if entry.expired(c.now()) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return ErrCacheMiss
	}
	if err := c.serializer.Unmarshal(entry.data, dest); err != nil {
		return ErrSerialization
	}
	return nil
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := c.serializer.Marshal(value)
	if err != nil {
		return ErrSerialization
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = memoryEntry{data: data, expiresAt: expiresAt}
	c.mu.Unlock()
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	c.mu.Unlock()
	return nil
}

func (c *memoryCache) DeleteByPrefix(_ context.Context, prefix string) (int64, error) {
	var deleted int64
	c.mu.Lock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
			deleted++
		}
	}
	c.mu.Unlock()
	return deleted, nil
}

func (c *memoryCache) GetOrCompute(ctx context.Context, key string, dest interface{}, ttl time.Duration, compute ComputeFunc) error {
	if err := c.Get(ctx, key, dest); err == nil {
		return nil
	}

	data, err, _ := c.group.Do(key, func() (interface{}, error) {
		value, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		encoded, err := c.serializer.Marshal(value)
		if err != nil {
			return nil, ErrSerialization
		}
		// A failed write only costs a recompute on the next call.
		if err := c.Set(ctx, key, json.RawMessage(encoded), ttl); err != nil {
			c.log.Warn("cache write failed after compute",
				logging.String("key", key),
				logging.Err(err),
			)
		}
		return encoded, nil
	})
	if err != nil {
		return err
	}
	if err := c.serializer.Unmarshal(data.([]byte), dest); err != nil {
		return ErrSerialization
	}
	return nil
}
