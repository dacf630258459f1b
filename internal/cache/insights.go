package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/balubo/insight-api/internal/models"
)

// ErrCacheMiss is returned when no cached record exists for the user
var ErrCacheMiss = errors.New("cache miss")

// InsightCache is a Redis read-through cache for insight records. A stale
// entry only lasts until the next recompute, which invalidates the key.
type InsightCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewInsightCache creates a new insight cache with the given TTL
func NewInsightCache(client *redis.Client, ttl time.Duration) *InsightCache {
	return &InsightCache{
		client: client,
		ttl:    ttl,
	}
}

func cacheKey(userID uuid.UUID) string {
	return fmt.Sprintf("insight:%s", userID)
}

// Get returns the cached record for a user, or ErrCacheMiss
func (c *InsightCache) Get(ctx context.Context, userID uuid.UUID) (*models.InsightRecord, error) {
	data, err := c.client.Get(ctx, cacheKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to read insight cache: %w", err)
	}

	var record models.InsightRecord
	if err := json.Unmarshal(data, &record); err != nil {
		// Treat corrupt entries as misses so the caller repopulates
		return nil, ErrCacheMiss
	}
	return &record, nil
}

// Set stores the record for a user with the configured TTL
func (c *InsightCache) Set(ctx context.Context, record *models.InsightRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal insight record: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(record.UserID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write insight cache: %w", err)
	}
	return nil
}

// Invalidate removes the cached record for a user
func (c *InsightCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if err := c.client.Del(ctx, cacheKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate insight cache: %w", err)
	}
	return nil
}
