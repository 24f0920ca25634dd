package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/ReviewsGo/internal/domain"
)

const statsKeyPrefix = "reviews:stats:"

// StatsCache caches aggregated review statistics in Redis. Entries expire on
// their own; writes that change the aggregate delete the shop's entries
// eagerly so the next read recomputes.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatsCache creates a Redis-backed stats cache with the given TTL.
func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{client: client, ttl: ttl}
}

func statsKey(shop, productID string) string {
	if productID == "" {
		productID = "all"
	}
	return statsKeyPrefix + shop + ":" + productID
}

// Get returns the cached stats for the shop and optional product, or nil on
// a cache miss.
func (c *StatsCache) Get(ctx context.Context, shop, productID string) (*domain.ReviewStats, error) {
	data, err := c.client.Get(ctx, statsKey(shop, productID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached stats: %w", err)
	}

	var stats domain.ReviewStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("unmarshal cached stats: %w", err)
	}

	return &stats, nil
}

// Set stores the stats for the shop and optional product with the cache TTL.
func (c *StatsCache) Set(ctx context.Context, shop, productID string, stats *domain.ReviewStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	if err := c.client.Set(ctx, statsKey(shop, productID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set cached stats: %w", err)
	}

	return nil
}

// Invalidate deletes every cached stats entry for the shop, both shop-wide
// and per-product.
func (c *StatsCache) Invalidate(ctx context.Context, shop string) error {
	pattern := statsKeyPrefix + shop + ":*"

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("scan stats keys: %w", err)
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("delete stats keys: %w", err)
			}
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
