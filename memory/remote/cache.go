package remote

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/redis/go-redis/v9"
)

// Cache memoizes encoded results of the remote source.
type Cache interface {
	// Get returns the value for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key.
	Set(ctx context.Context, key string, value []byte) error

	// Clear drops every entry.
	Clear(ctx context.Context) error
}

// MapCache is an unbounded in-process Cache. It is the default.
type MapCache struct {
	entries map[string][]byte
}

// NewMapCache creates an empty MapCache.
func NewMapCache() *MapCache {
	return &MapCache{entries: make(map[string][]byte)}
}

// Get implements Cache.
func (c *MapCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok := c.entries[key]
	return v, ok, nil
}

// Set implements Cache.
func (c *MapCache) Set(ctx context.Context, key string, value []byte) error {
	c.entries[key] = value
	return nil
}

// Clear implements Cache.
func (c *MapCache) Clear(ctx context.Context) error {
	c.entries = make(map[string][]byte)
	return nil
}

// Len returns the number of entries.
func (c *MapCache) Len() int {
	return len(c.entries)
}

// NopCache memoizes nothing: every lookup reaches the source.
type NopCache struct{}

// Get implements Cache.
func (NopCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set implements Cache.
func (NopCache) Set(ctx context.Context, key string, value []byte) error {
	return nil
}

// Clear implements Cache.
func (NopCache) Clear(ctx context.Context) error {
	return nil
}

// RistrettoCache is a bounded in-process Cache. Entries cost their encoded
// size in bytes and are evicted once maxCost is exceeded.
type RistrettoCache struct {
	cache *ristretto.Cache
}

// NewRistrettoCache creates a RistrettoCache holding up to maxCost bytes.
func NewRistrettoCache(maxCost int64) (*RistrettoCache, error) {
	if maxCost <= 0 {
		return nil, fmt.Errorf("ristretto cache: max cost must be positive, got %d", maxCost)
	}

	counters := maxCost / 10
	if counters < 1000 {
		counters = 1000
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: counters,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("ristretto cache: %w", err)
	}
	return &RistrettoCache{cache: cache}, nil
}

// Get implements Cache.
func (c *RistrettoCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok := c.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, ok := v.([]byte)
	return b, ok, nil
}

// Set implements Cache. The write is visible to the next Get. A value the
// admission policy rejects is simply not cached.
func (c *RistrettoCache) Set(ctx context.Context, key string, value []byte) error {
	c.cache.Set(key, value, int64(len(value))+int64(len(key)))
	c.cache.Wait()
	return nil
}

// Clear implements Cache.
func (c *RistrettoCache) Clear(ctx context.Context) error {
	c.cache.Clear()
	return nil
}

// Close stops the cache's background goroutines.
func (c *RistrettoCache) Close() {
	c.cache.Close()
}

// DefaultRedisPrefix namespaces keys written by RedisCache.
const DefaultRedisPrefix = "rlmemory:remote:"

// RedisOptions configures a RedisCache connection.
type RedisOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379")
	URL string

	// Prefix namespaces every key. Defaults to DefaultRedisPrefix.
	Prefix string

	// TTL expires entries; zero keeps them until Clear.
	TTL time.Duration

	// TLS configuration for secure connections
	TLS *tls.Config

	// ConnectTimeout is the maximum time to wait for connection establishment
	ConnectTimeout time.Duration
}

// RedisCache is a Cache stored in Redis, so memoized results outlive the
// process.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(opts RedisOptions) (*RedisCache, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	redisOpts.TLSConfig = opts.TLS
	redisOpts.DialTimeout = opts.ConnectTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	cache := NewRedisCacheFromClient(client, opts.Prefix)
	cache.ttl = opts.TTL
	return cache, nil
}

// NewRedisCacheFromClient wraps an existing client. An empty prefix defaults
// to DefaultRedisPrefix.
func NewRedisCacheFromClient(client *redis.Client, prefix string) *RedisCache {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisCache{client: client, prefix: prefix}
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return b, true, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte) error {
	if err := c.client.Set(ctx, c.prefix+key, value, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Clear deletes every key under the cache prefix.
func (c *RedisCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
