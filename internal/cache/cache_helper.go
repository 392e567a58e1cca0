package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheNotAvailable is returned when the redis client is not configured.
	ErrCacheNotAvailable = errors.New("cache not available")
	// ErrCacheNotFound is returned when a key does not exist in the cache.
	ErrCacheNotFound = errors.New("cache key not found")
)

// CacheConfig holds per-domain TTL settings.
type CacheConfig struct {
	TTL       time.Duration
	KeyPrefix string
}

// CacheHelper wraps a redis client with JSON serialization helpers.
// A nil client degrades gracefully: every operation returns
// ErrCacheNotAvailable and callers fall through to the database.
type CacheHelper struct {
	client *redis.Client
	logger *slog.Logger
	config CacheConfig
}

// NewCacheHelper creates a cache helper with the given TTL configuration.
func NewCacheHelper(client *redis.Client, logger *slog.Logger, config CacheConfig) *CacheHelper {
	return &CacheHelper{
		client: client,
		logger: logger,
		config: config,
	}
}

func (c *CacheHelper) key(parts ...string) string {
	key := c.config.KeyPrefix
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

// Get retrieves a value from the cache and unmarshals it into dest.
func (c *CacheHelper) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return ErrCacheNotAvailable
	}

	data, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheNotFound
		}
		c.logger.Warn("cache get failed", "key", key, "error", err)
		return fmt.Errorf("cache get: %w", err)
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		c.logger.Warn("cache unmarshal failed", "key", key, "error", err)
		return fmt.Errorf("cache unmarshal: %w", err)
	}
	return nil
}

// Set stores a value in the cache with the configured TTL.
func (c *CacheHelper) Set(ctx context.Context, key string, value interface{}) error {
	if c.client == nil {
		return ErrCacheNotAvailable
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.config.TTL).Err(); err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// SetWithTTL stores a value with an explicit TTL overriding the configured one.
func (c *CacheHelper) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return ErrCacheNotAvailable
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Delete removes one or more keys from the cache.
func (c *CacheHelper) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil {
		return ErrCacheNotAvailable
	}
	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("cache delete failed", "keys", keys, "error", err)
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// Exists reports whether a key is present in the cache.
func (c *CacheHelper) Exists(ctx context.Context, key string) (bool, error) {
	if c.client == nil {
		return false, ErrCacheNotAvailable
	}

	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("cache exists: %w", err)
	}
	return n > 0, nil
}

// InvalidatePattern deletes all keys matching a glob pattern using SCAN,
// batching deletes through a pipeline to avoid blocking the server.
func (c *CacheHelper) InvalidatePattern(ctx context.Context, pattern string) error {
	if c.client == nil {
		return ErrCacheNotAvailable
	}

	var cursor uint64
	deleted := 0
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("cache scan: %w", err)
		}

		if len(keys) > 0 {
			pipe := c.client.Pipeline()
			for _, k := range keys {
				pipe.Del(ctx, k)
			}
			if _, err := pipe.Exec(ctx); err != nil {
				return fmt.Errorf("cache pipeline delete: %w", err)
			}
			deleted += len(keys)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	if deleted > 0 {
		c.logger.Debug("cache pattern invalidated", "pattern", pattern, "deleted", deleted)
	}
	return nil
}

// CacheOrExecute returns the cached value for key, or executes fn and caches
// its result. The cache write happens asynchronously so a slow redis never
// delays the response.
func (c *CacheHelper) CacheOrExecute(ctx context.Context, key string, dest interface{}, fn func() (interface{}, error)) error {
	if err := c.Get(ctx, key, dest); err == nil {
		return nil
	} else if !errors.Is(err, ErrCacheNotFound) && !errors.Is(err, ErrCacheNotAvailable) {
		c.logger.Warn("cache read failed, executing fallback", "key", key, "error", err)
	}

	result, err := fn()
	if err != nil {
		return err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal result: %w", err)
	}

	if c.client != nil {
		go func() {
			bg, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := c.Set(bg, key, result); err != nil {
				c.logger.Warn("async cache set failed", "key", key, "error", err)
			}
		}()
	}
	return nil
}

// HealthCheck pings the redis server.
func (c *CacheHelper) HealthCheck(ctx context.Context) error {
	if c.client == nil {
		return ErrCacheNotAvailable
	}
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// CacheManager bundles the per-domain cache helpers.
type CacheManager struct {
	Course *CacheHelper
	User   *CacheHelper
	Stats  *CacheHelper

	client *redis.Client
	logger *slog.Logger
}

// NewCacheManager creates helpers for each cached domain. A nil client is
// allowed and yields a manager whose helpers all degrade gracefully.
func NewCacheManager(client *redis.Client, logger *slog.Logger) *CacheManager {
	if client == nil {
		logger.Warn("redis client not configured, caching disabled")
	}

	return &CacheManager{
		Course: NewCacheHelper(client, logger, CacheConfig{TTL: 10 * time.Minute, KeyPrefix: "course"}),
		User:   NewCacheHelper(client, logger, CacheConfig{TTL: 15 * time.Minute, KeyPrefix: "user"}),
		Stats:  NewCacheHelper(client, logger, CacheConfig{TTL: 5 * time.Minute, KeyPrefix: "stats"}),
		client: client,
		logger: logger,
	}
}

// HealthCheck verifies the underlying redis connection.
func (m *CacheManager) HealthCheck(ctx context.Context) error {
	if m.client == nil {
		return ErrCacheNotAvailable
	}
	return m.client.Ping(ctx).Err()
}

// ClearAll flushes the current redis database. Intended for tests and
// administrative tooling only.
func (m *CacheManager) ClearAll(ctx context.Context) error {
	if m.client == nil {
		return ErrCacheNotAvailable
	}
	return m.client.FlushDB(ctx).Err()
}

// CourseKey builds a cache key for a single course.
func CourseKey(courseID string) string {
	return "course:" + courseID
}

// CourseListKey builds a cache key for a filtered course listing.
func CourseListKey(suffix string) string {
	return "course:list:" + suffix
}

// UserKey builds a cache key for a single user.
func UserKey(userID string) string {
	return "user:" + userID
}

// CourseStatsKey builds a cache key for a course's enrollment stats.
func CourseStatsKey(courseID string) string {
	return "stats:course:" + courseID
}
