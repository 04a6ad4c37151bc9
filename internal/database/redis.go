package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/englishgpt-practice/internal/config"
)

// resultPollHeadroom keeps the read timeout above the result worker's
// BLPOP timeout so a blocking pop is never cut off client-side.
const resultPollHeadroom = 5 * time.Second

// NewRedisClient opens the client behind the exercise cache, the results
// queue and the live results feed.
func NewRedisClient(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	tuneRedis(opt)

	rdb := redis.NewClient(opt)

	ping := func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	if err := pingWithRetry(ctx, log, "redis", ConnectAttempts, ping); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	log.Info().
		Str("addr", opt.Addr).
		Int("db", opt.DB).
		Int("pool_size", opt.PoolSize).
		Msg("Redis connected")

	return rdb, nil
}

func tuneRedis(opt *redis.Options) {
	if opt.ReadTimeout <= 0 {
		opt.ReadTimeout = 3 * time.Second
	}
	opt.ReadTimeout += resultPollHeadroom
	if opt.PoolSize == 0 {
		opt.PoolSize = 20
	}
	opt.MinIdleConns = 2
	opt.ConnMaxIdleTime = 5 * time.Minute
}
