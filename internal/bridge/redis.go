// Package bridge connects the simulator to Redis: quotes arrive on pub/sub
// channels, commands on a list, and results leave on per-account channels.
package bridge

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/efreitasn/simtrade/internal/config"
)

// Client is the subset of *redis.Client the bridge uses.
type Client interface {
	PSubscribe(ctx context.Context, channels ...string) *redis.PubSub
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// NewRedisClient creates a client from the Redis config.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
