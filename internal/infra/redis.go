package infra

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// NewRedis returns (nil, nil) when redisURL is empty: queueing, caching and locking
// then fall back to in-process implementations.
func NewRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}
