package database

import (
	"context"
	"time"

	"github.com/diseaseforecast/platform/pkg/common/config"
	"github.com/diseaseforecast/platform/pkg/common/logger"
	"github.com/redis/go-redis/v9"
)

// OpenRedis returns nil when Redis is disabled. A failed ping is logged but
// not fatal; the dashboard cache degrades to direct store reads.
func OpenRedis(cfg config.RedisConfig) *redis.Client {
	if !cfg.Enabled {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Log.WithError(err).Error("Failed to connect to Redis")
	} else {
		logger.Log.Info("Connected to Redis")
	}

	return client
}

func CloseRedis(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
