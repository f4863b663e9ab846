package common

import (
	"context"
	"time"

	"meetings/boardroom/internal/config"
	"meetings/boardroom/internal/logging"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to the configured Redis. A failed ping is logged
// and the client is still returned; the pool reconnects on its own.
func NewRedisClient(cfg *config.Config) *redis.Client {
	addr := cfg.RedisAddr()
	logging.Info("Initializing Redis client", "addr", addr)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.RedisPassword,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logging.Error("Failed to ping Redis", "addr", addr, "error", err)
		return client
	}

	logging.Info("Connected to Redis", "addr", addr)
	return client
}
