package cache

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/GovMatch-Engine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/GovMatch-Engine/pkg/errors"
)

type jsonSerializer struct{}

func (jsonSerializer) Marshal(v interface{}) ([]byte, error)      { return json.Marshal(v) }
func (jsonSerializer) Unmarshal(data []byte, v interface{}) error { return json.Unmarshal(data, v) }

// RedisConfig holds connection and behavior settings for the Redis cache.
type RedisConfig struct {
	Addr       string        `mapstructure:"addr"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	KeyPrefix  string        `mapstructure:"key_prefix"`
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
	ScanCount  int64         `mapstructure:"scan_count"`
}

type redisCache struct {
	client     redis.UniversalClient
	log        logging.Logger
	prefix     string
	defaultTTL time.Duration
	scanCount  int64
	serializer Serializer
	group      singleflight.Group
}

// NewRedisCache wraps an existing Redis client.  The caller owns the client's
// lifecycle.
func NewRedisCache(client redis.UniversalClient, cfg RedisConfig, log logging.Logger) Cache {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "govmatch:"
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = time.Hour
	}
	if cfg.ScanCount <= 0 {
		cfg.ScanCount = 200
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &redisCache{
		client:     client,
		log:        log.Named("cache.redis"),
		prefix:     cfg.KeyPrefix,
		defaultTTL: cfg.DefaultTTL,
		scanCount:  cfg.ScanCount,
		serializer: jsonSerializer{},
	}
}

// NewRedisClient dials Redis with the given config.
func NewRedisClient(cfg RedisConfig) (redis.UniversalClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "ping redis")
	}
	return client, nil
}

func (c *redisCache) fullKey(key string) string {
	return c.prefix + key
}

// jitterTTL spreads expirations by +/-10% so hot keys do not expire together.
func (c *redisCache) jitterTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	jitter := float64(ttl) * 0.1 * (rand.Float64()*2 - 1)
	return ttl + time.Duration(jitter)
}

func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, c.fullKey(key)).Bytes()
	if err == redis.Nil {
		return ErrCacheMiss
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "cache get")
	}
	if err := c.serializer.Unmarshal(data, dest); err != nil {
		return ErrSerialization
	}
	return nil
}

func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := c.serializer.Marshal(value)
	if err != nil {
		return ErrSerialization
	}
	if err := c.client.Set(ctx, c.fullKey(key), data, c.jitterTTL(ttl)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "cache set")
	}
	return nil
}

func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	fullKeys := make([]string, len(keys))
	for i, k := range keys {
		fullKeys[i] = c.fullKey(k)
	}
	if err := c.client.Del(ctx, fullKeys...).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "cache delete")
	}
	return nil
}

// DeleteByPrefix walks the keyspace with SCAN rather than KEYS so large
// invalidations do not block the server.
func (c *redisCache) DeleteByPrefix(ctx context.Context, prefix string) (int64, error) {
	pattern := c.fullKey(prefix) + "*"
	var (
		cursor  uint64
		deleted int64
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, c.scanCount).Result()
		if err != nil {
			return deleted, errors.Wrap(err, errors.ErrCodeCacheError, "cache scan")
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, errors.Wrap(err, errors.ErrCodeCacheError, "cache delete by prefix")
			}
			deleted += n
		}
		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

func (c *redisCache) GetOrCompute(ctx context.Context, key string, dest interface{}, ttl time.Duration, compute ComputeFunc) error {
	if err := c.Get(ctx, key, dest); err == nil {
		return nil
	} else if err != ErrCacheMiss {
		c.log.Warn("cache read failed, computing directly", logging.String("key", key), logging.Err(err))
	}

	data, err, shared := c.group.Do(key, func() (interface{}, error) {
		value, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		encoded, err := c.serializer.Marshal(value)
		if err != nil {
			return nil, ErrSerialization
		}
		if err := c.Set(ctx, key, json.RawMessage(encoded), ttl); err != nil {
			// The computed value is still good; a write failure only costs
			// the next caller a recompute.
			c.log.Warn("cache write failed", logging.String("key", key), logging.Err(err))
		}
		return encoded, nil
	})
	if err != nil {
		return err
	}
	if shared {
		c.log.Debug("single-flight shared result", logging.String("key", key))
	}
	if err := c.serializer.Unmarshal(data.([]byte), dest); err != nil {
		return ErrSerialization
	}
	return nil
}
