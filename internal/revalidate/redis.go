package revalidate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultDialTimeout = 5 * time.Second

// NewRedisClient parses url, builds a client and verifies connectivity via PING.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// PageCache stores assembled public page data per profile.
type PageCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewPageCache(rdb *redis.Client, ttl time.Duration) *PageCache {
	return &PageCache{rdb: rdb, ttl: ttl}
}

func pageKey(profileID string) string { return "page:" + profileID }

// Get decodes the cached entry for profileID into dst. It reports false on a miss.
func (c *PageCache) Get(ctx context.Context, profileID string, dst any) (bool, error) {
	raw, err := c.rdb.Get(ctx, pageKey(profileID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get page cache %s: %w", profileID, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode page cache %s: %w", profileID, err)
	}
	return true, nil
}

func (c *PageCache) Set(ctx context.Context, profileID string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode page cache %s: %w", profileID, err)
	}
	if err := c.rdb.Set(ctx, pageKey(profileID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set page cache %s: %w", profileID, err)
	}
	return nil
}

// Invalidate evicts the cached page of userID.
func (c *PageCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.rdb.Del(ctx, pageKey(userID)).Err(); err != nil {
		return fmt.Errorf("evict page cache %s: %w", userID, err)
	}
	return nil
}
