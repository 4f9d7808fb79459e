package client

import (
	"context"
	"smartrentals/pkg/logger"
	"time"

	"github.com/go-redis/redis/v8"
)

func NewRedisClient(log *logger.Logger, addr string, connTimeout time.Duration) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		DB:          0,
		DialTimeout: connTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to ping Redis", "addr", addr, "error", err)
	}

	log.Info("Successfully connected to Redis", "addr", addr)
	return rdb
}
