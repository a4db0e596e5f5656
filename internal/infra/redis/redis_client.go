package redis

import (
	"context"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"district-ai-portal/internal/config"
)

// RedisClient is the thin wrapper the rest of the codebase depends on, so
// repositories and the queue dispatcher can be tested with a fake.
type RedisClient interface {
	Ping(ctx context.Context) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	// XAdd appends an entry to a Redis stream and returns its id.
	XAdd(ctx context.Context, stream string, values map[string]interface{}) (string, error)
	Close() error
}

var _ RedisClient = (*redClient)(nil)

type redClient struct {
	cli *redis.Client
}

func NewClient(ctx context.Context, cfg *config.RedisConfig) (*redClient, error) {
	opts, err := clientOptions(cfg)
	if err != nil {
		return nil, err
	}
	c := redis.NewClient(opts)
	if err := c.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &redClient{cli: c}, nil
}

// clientOptions accepts both a full redis:// URL (the REDIS_URL form) and a
// bare host:port. Explicit password/db config wins over URL components.
func clientOptions(cfg *config.RedisConfig) (*redis.Options, error) {
	if strings.Contains(cfg.URL, "://") {
		opts, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, err
		}
		if cfg.Password != "" {
			opts.Password = cfg.Password
		}
		if cfg.DB != 0 {
			opts.DB = cfg.DB
		}
		return opts, nil
	}
	return &redis.Options{
		Addr:     cfg.URL,
		Password: cfg.Password,
		DB:       cfg.DB,
	}, nil
}

func (c *redClient) Ping(ctx context.Context) error { return c.cli.Ping(ctx).Err() }

func (c *redClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.cli.Set(ctx, key, value, expiration).Err()
}

func (c *redClient) Get(ctx context.Context, key string) (string, error) {
	return c.cli.Get(ctx, key).Result()
}

func (c *redClient) Del(ctx context.Context, keys ...string) error {
	return c.cli.Del(ctx, keys...).Err()
}

func (c *redClient) XAdd(ctx context.Context, stream string, values map[string]interface{}) (string, error) {
	return c.cli.XAdd(ctx, &redis.XAddArgs{Stream: stream, Values: values}).Result()
}

func (c *redClient) Close() error { return c.cli.Close() }
