// Package cache keeps resolved short codes in Redis in front of the mapping
// store.
//
// Redis is treated as best-effort: when it fails the lookup falls through to
// the wrapped resolver and the failure is only logged and counted.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vadimbarashkov/shortlink/internal/metrics"
)

type Cache struct {
	rdb     redis.Cmdable
	prefix  string
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a Cache storing entries under prefix. Every read extends the
// entry's lifetime by ttl. m and logger may be nil.
func New(rdb redis.Cmdable, prefix string, ttl time.Duration, m *metrics.Metrics, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}

	return &Cache{
		rdb:     rdb,
		prefix:  prefix,
		ttl:     ttl,
		metrics: m,
		logger:  logger,
	}
}

func (c *Cache) key(shortCode string) string {
	return fmt.Sprintf("%s:%s", c.prefix, shortCode)
}

// get reports whether shortCode was cached. GETEX resets the TTL so that
// popular codes stay cached.
func (c *Cache) get(ctx context.Context, shortCode string) (string, bool) {
	val, err := c.rdb.GetEx(ctx, c.key(shortCode), c.ttl).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.metrics.ObserveCacheMiss()
			return "", false
		}

		c.metrics.ObserveCacheError()
		c.logger.Warn("failed to read cached url",
			slog.String("short_code", shortCode),
			slog.Any("err", err),
		)
		return "", false
	}

	c.metrics.ObserveCacheHit()
	return val, true
}

func (c *Cache) set(ctx context.Context, shortCode, originalURL string) {
	if err := c.rdb.Set(ctx, c.key(shortCode), originalURL, c.ttl).Err(); err != nil {
		c.metrics.ObserveCacheError()
		c.logger.Warn("failed to cache url",
			slog.String("short_code", shortCode),
			slog.Any("err", err),
		)
	}
}

func (c *Cache) evict(ctx context.Context, shortCode string) {
	if err := c.rdb.Del(ctx, c.key(shortCode)).Err(); err != nil {
		c.metrics.ObserveCacheError()
		c.logger.Error("failed to evict cached url",
			slog.String("short_code", shortCode),
			slog.Any("err", err),
		)
	}
}

type resolver interface {
	Resolve(ctx context.Context, shortCode string) (string, error)
}

// Resolver is a read-through cache over another resolver.
type Resolver struct {
	cache *Cache
	next  resolver
}

func NewResolver(c *Cache, next resolver) *Resolver {
	return &Resolver{
		cache: c,
		next:  next,
	}
}

// Resolve answers from the cache when it can. Misses are resolved by the
// wrapped resolver and cached on success; errors, including not found, are
// returned unchanged and never cached.
func (r *Resolver) Resolve(ctx context.Context, shortCode string) (string, error) {
	if url, ok := r.cache.get(ctx, shortCode); ok {
		return url, nil
	}

	url, err := r.next.Resolve(ctx, shortCode)
	if err != nil {
		return "", err
	}

	r.cache.set(ctx, shortCode, url)
	return url, nil
}

type remover interface {
	Remove(ctx context.Context, shortCode string) error
}

// Remover evicts the cached entry after the wrapped remover succeeds.
type Remover struct {
	cache *Cache
	next  remover
}

func NewRemover(c *Cache, next remover) *Remover {
	return &Remover{
		cache: c,
		next:  next,
	}
}

func (r *Remover) Remove(ctx context.Context, shortCode string) error {
	if err := r.next.Remove(ctx, shortCode); err != nil {
		return err
	}

	r.cache.evict(ctx, shortCode)
	return nil
}
