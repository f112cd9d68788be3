package database

import (
	"context"
	"log/slog"

	"github.com/go-redis/redis/v8"
)

// NewRedisClient connects to Redis at the given address. Redis is an
// optional cache layer: an empty address or a failed ping returns nil
// and the application runs without caching.
func NewRedisClient(addr string) *redis.Client {
	if addr == "" {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		slog.Warn("Redis connection failed, continuing without cache", "addr", addr, "error", err)
		return nil
	}

	slog.Info("Redis connection established", "addr", addr)
	return rdb
}
