//go:build !integration

package postgres

import (
	"context"
	"time"

	"district-ai-portal/internal/domain/model"
	"district-ai-portal/internal/domain/ports/repository"
	red "district-ai-portal/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerModelConfigRepo mocks the database repository the catalog decorator wraps.
type mockInnerModelConfigRepo struct {
	FindByKeyFunc   func(ctx context.Context, tx repository.Tx, key string) (*model.ModelConfig, error)
	FindByIDFunc    func(ctx context.Context, tx repository.Tx, id int64) (*model.ModelConfig, error)
	ListEnabledFunc func(ctx context.Context, tx repository.Tx) ([]*model.ModelConfig, error)
}

func (m *mockInnerModelConfigRepo) FindByKey(ctx context.Context, tx repository.Tx, key string) (*model.ModelConfig, error) {
	return m.FindByKeyFunc(ctx, tx, key)
}
func (m *mockInnerModelConfigRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.ModelConfig, error) {
	return m.FindByIDFunc(ctx, tx, id)
}
func (m *mockInnerModelConfigRepo) ListEnabled(ctx context.Context, tx repository.Tx) ([]*model.ModelConfig, error) {
	return m.ListEnabledFunc(ctx, tx)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc   func(ctx context.Context, key string) (string, error)
	SetFunc   func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc   func(ctx context.Context, keys ...string) error
	PingFunc  func(ctx context.Context) error
	XAddFunc  func(ctx context.Context, stream string, values map[string]interface{}) (string, error)
	CloseFunc func() error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return m.PingFunc(ctx) }
func (m *mockRedisClient) XAdd(ctx context.Context, stream string, values map[string]interface{}) (string, error) {
	return m.XAddFunc(ctx, stream, values)
}
func (m *mockRedisClient) Close() error { return m.CloseFunc() }
