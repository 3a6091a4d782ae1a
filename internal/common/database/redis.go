// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"storefront-workers/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient backs checkout sessions, request tokens and the trade-in
// hierarchy cache.
type RedisClient struct {
	Client *redis.Client
}

func NewRedis(cfg config.RedisConfig) (*RedisClient, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 10
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     poolSize,
		MinIdleConns: poolSize / 2,
	})

	return &RedisClient{Client: rdb}, nil
}

// Ping checks the server and reports the round trip; /ready and the startup
// retry loop both call it.
func (c *RedisClient) Ping(ctx context.Context) error {
	start := time.Now()
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed after %s: %w", time.Since(start).Round(time.Millisecond), err)
	}
	return nil
}

func (c *RedisClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}
