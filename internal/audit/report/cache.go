package report

import (
	"context"
	"encoding/json"
	"time"

	"search-audit/internal/common/database"
	"search-audit/internal/common/errors"
	"search-audit/internal/models"

	"github.com/redis/go-redis/v9"
)

const latestSummaryKey = "audit:latest-summary"

// Cache keeps the latest run summary in Redis for the dashboard.
type Cache struct {
	redis *database.RedisClient
	ttl   time.Duration
}

func NewCache(rdb *database.RedisClient, ttl time.Duration) *Cache {
	return &Cache{redis: rdb, ttl: ttl}
}

// SetLatest replaces the cached summary.
func (c *Cache) SetLatest(ctx context.Context, summary models.RunSummary) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return errors.NewCacheWriteFailedError(err)
	}
	if err := c.redis.Set(ctx, latestSummaryKey, raw, c.ttl); err != nil {
		return errors.NewCacheWriteFailedError(err)
	}
	return nil
}

// GetLatest returns the cached summary, or nil on a cache miss.
func (c *Cache) GetLatest(ctx context.Context) (*models.RunSummary, error) {
	raw, err := c.redis.Get(ctx, latestSummaryKey)
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var summary models.RunSummary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}
