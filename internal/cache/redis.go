package cache

import (
	"context"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var Client *redis.Client

// InitRedis connects the shared client. Redis only backs the quote cache, so an
// unreachable server leaves Client nil instead of stopping the process.
func InitRedis(ctx context.Context, logger zerolog.Logger) {
	addr := os.Getenv("REDIS_URL")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", addr).Msg("redis unavailable, price cache disabled")
		_ = client.Close()
		Client = nil
		return
	}
	Client = client
	logger.Info().Str("addr", addr).Msg("connected to redis")
}
