package imaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by AvatarCache.Get when the key is absent.
var ErrCacheMiss = errors.New("avatar not cached")

// AvatarCache stores the raw bytes of downloaded avatars keyed by URL, so
// repeated runs do not hit the image hosts again.
type AvatarCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}

// MemoryAvatarCache is an in-process AvatarCache. Entries never expire.
type MemoryAvatarCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryAvatarCache creates an empty in-memory avatar cache.
func NewMemoryAvatarCache() *MemoryAvatarCache {
	return &MemoryAvatarCache{entries: make(map[string][]byte)}
}

// Get implements AvatarCache.
func (c *MemoryAvatarCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return data, nil
}

// Put implements AvatarCache. The data is copied.
func (c *MemoryAvatarCache) Put(_ context.Context, key string, data []byte) error {
	c.mu.Lock()
	c.entries[key] = append([]byte(nil), data...)
	c.mu.Unlock()
	return nil
}

// RedisAvatarCache is an AvatarCache backed by Redis.
type RedisAvatarCache struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// RedisOption configures a RedisAvatarCache.
type RedisOption func(*RedisAvatarCache)

// WithTTL sets the expiration of cached avatars. Zero keeps them forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(c *RedisAvatarCache) {
		c.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) RedisOption {
	return func(c *RedisAvatarCache) {
		c.prefix = prefix
	}
}

// NewRedisAvatarCache connects to the Redis server at address.
func NewRedisAvatarCache(address string, opts ...RedisOption) *RedisAvatarCache {
	return NewRedisAvatarCacheFromClient(backend.NewClient(&backend.Options{Addr: address}), opts...)
}

// NewRedisAvatarCacheFromClient wraps an existing client.
func NewRedisAvatarCacheFromClient(client *backend.Client, opts ...RedisOption) *RedisAvatarCache {
	c := &RedisAvatarCache{
		client: client,
		prefix: "avatar-mosaic:",
		ttl:    24 * time.Hour,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisAvatarCache) key(k string) string {
	return c.prefix + "avatar:" + k
}

// Get implements AvatarCache.
func (c *RedisAvatarCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to read avatar from redis: %w", err)
	}
	return data, nil
}

// Put implements AvatarCache.
func (c *RedisAvatarCache) Put(ctx context.Context, key string, data []byte) error {
	if err := c.client.Set(ctx, c.key(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write avatar to redis: %w", err)
	}
	return nil
}

// Ping checks that the server is reachable.
func (c *RedisAvatarCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to reach redis: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (c *RedisAvatarCache) Close() error {
	return c.client.Close()
}
