package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"district-ai-portal/internal/domain/model"
	"district-ai-portal/internal/domain/ports/repository"
	"district-ai-portal/internal/infra/metrics"
	red "district-ai-portal/internal/infra/redis"
)

var _ repository.ModelConfigRepository = (*modelConfigRepoCacheDecorator)(nil)

// modelConfigRepoCacheDecorator caches catalog lookups in Redis. The catalog
// changes rarely and is read on every job creation and poll-interval
// computation, so a short TTL saves a lot of round trips.
type modelConfigRepoCacheDecorator struct {
	inner repository.ModelConfigRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewModelConfigRepoCacheDecorator(inner repository.ModelConfigRepository, cache red.RedisClient) repository.ModelConfigRepository {
	return &modelConfigRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   15 * time.Minute,
	}
}

func (d *modelConfigRepoCacheDecorator) FindByKey(ctx context.Context, tx repository.Tx, key string) (*model.ModelConfig, error) {
	cacheKey := fmt.Sprintf("model_config:key:%s", key)
	if cfg, ok := d.cached(ctx, cacheKey); ok {
		return cfg, nil
	}
	cfg, err := d.inner.FindByKey(ctx, tx, key)
	if err != nil {
		return nil, err
	}
	d.store(ctx, cacheKey, cfg)
	return cfg, nil
}

func (d *modelConfigRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.ModelConfig, error) {
	cacheKey := fmt.Sprintf("model_config:id:%d", id)
	if cfg, ok := d.cached(ctx, cacheKey); ok {
		return cfg, nil
	}
	cfg, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	d.store(ctx, cacheKey, cfg)
	return cfg, nil
}

// ListEnabled is not cached: it serves the occasional model-picker request,
// not the hot polling path.
func (d *modelConfigRepoCacheDecorator) ListEnabled(ctx context.Context, tx repository.Tx) ([]*model.ModelConfig, error) {
	return d.inner.ListEnabled(ctx, tx)
}

func (d *modelConfigRepoCacheDecorator) cached(ctx context.Context, cacheKey string) (*model.ModelConfig, bool) {
	val, err := d.cache.Get(ctx, cacheKey)
	if err == nil {
		var cfg model.ModelConfig
		if json.Unmarshal([]byte(val), &cfg) == nil {
			metrics.IncCacheRequest("model_config", "hit")
			return &cfg, true
		}
	}
	// redis.Nil (miss) and transport errors both fall through to the db
	metrics.IncCacheRequest("model_config", "miss")
	return nil, false
}

func (d *modelConfigRepoCacheDecorator) store(ctx context.Context, cacheKey string, cfg *model.ModelConfig) {
	if cfg == nil {
		return
	}
	bytes, err := json.Marshal(cfg)
	if err != nil {
		return
	}
	_ = d.cache.Set(ctx, cacheKey, bytes, d.ttl)
}
