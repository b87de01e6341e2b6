package config

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/topic-modeler/internal/logger"
)

// NewRedisClient creates a Redis client from rc and pings it.
// Returns a ready-to-use Redis client or an error.
func NewRedisClient(ctx context.Context, rc RedisConfig) (*redis.Client, error) {
	addr := rc.Addr
	if addr == "" {
		addr = "127.0.0.1:6379"
	}

	logger.Printf("NewRedisClient: addr=%s db=%d passwordSet=%v", addr, rc.DB, rc.Password != "")

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		DB:       rc.DB,
		Password: rc.Password,
	})

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Errorf("NewRedisClient: failed to ping Redis: %v", err)
		client.Close()
		return nil, err
	}

	logger.Printf("NewRedisClient: successfully connected to Redis")
	return client, nil
}
