package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisClient(cfg Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// ReportCache stores JSON encoded reports under a versioned namespace.
// Invalidate bumps the version so every earlier entry is skipped and left
// to expire.
type ReportCache struct {
	client    redis.Cmdable
	namespace string
	ttl       time.Duration
}

func NewReportCache(client redis.Cmdable, namespace string, ttl time.Duration) *ReportCache {
	if namespace == "" {
		namespace = "reports"
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ReportCache{client: client, namespace: namespace, ttl: ttl}
}

func (c *ReportCache) versionKey() string {
	return c.namespace + ":version"
}

func (c *ReportCache) key(ctx context.Context, key string) (string, error) {
	version, err := c.client.Get(ctx, c.versionKey()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return fmt.Sprintf("%s:v%d:%s", c.namespace, version, key), nil
}

// Get decodes the entry at key into dst. It reports false on a miss.
func (c *ReportCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	full, err := c.key(ctx, key)
	if err != nil {
		return false, err
	}

	data, err := c.client.Get(ctx, full).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("failed to decode cached %s: %w", key, err)
	}
	return true, nil
}

func (c *ReportCache) Set(ctx context.Context, key string, value any) error {
	full, err := c.key(ctx, key)
	if err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, full, data, c.ttl).Err()
}

func (c *ReportCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, c.versionKey()).Err()
}
