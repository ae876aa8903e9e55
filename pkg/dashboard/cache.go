package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/diseaseforecast/platform/pkg/clinical"
	"github.com/diseaseforecast/platform/pkg/common/logger"
	"github.com/redis/go-redis/v9"
)

const SummaryKey = "dashboard:summary"

// Cache holds the last computed summary. GetSummary returns (nil, nil) on a
// miss.
type Cache interface {
	GetSummary(ctx context.Context) (*clinical.Summary, error)
	SetSummary(ctx context.Context, s *clinical.Summary, ttl time.Duration) error
}

type RedisCache struct {
	client redis.Cmdable
	key    string
}

// NewRedisCache returns nil when client is nil so callers can pass the result
// of database.OpenRedis straight through.
func NewRedisCache(client *redis.Client) Cache {
	if client == nil {
		return nil
	}
	return &RedisCache{client: client, key: SummaryKey}
}

func (c *RedisCache) GetSummary(ctx context.Context) (*clinical.Summary, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", c.key, err)
	}

	var s clinical.Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.key, err)
	}
	logger.Log.WithField("key", c.key).Debug("dashboard summary served from cache")
	return &s, nil
}

func (c *RedisCache) SetSummary(ctx context.Context, s *clinical.Summary, ttl time.Duration) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	logger.Log.WithFields(map[string]interface{}{
		"key":  c.key,
		"size": len(data),
	}).Debug("caching dashboard summary")

	return c.client.Set(ctx, c.key, data, ttl).Err()
}
