package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"district-ai-portal/internal/domain"
	"district-ai-portal/internal/domain/model"
	"district-ai-portal/internal/domain/ports/repository"
)

var _ repository.ModelConfigRepository = (*modelConfigRepo)(nil)

type modelConfigRepo struct {
	pool *pgxpool.Pool
}

func NewModelConfigRepo(pool *pgxpool.Pool) *modelConfigRepo {
	return &modelConfigRepo{pool: pool}
}

const modelConfigColumns = `id, key, provider, provider_name, enabled, chat_enabled, latency_class, updated_at`

func (r *modelConfigRepo) FindByKey(ctx context.Context, tx repository.Tx, key string) (*model.ModelConfig, error) {
	const q = `SELECT ` + modelConfigColumns + ` FROM model_configs WHERE key = $1 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, key)
	if err != nil {
		return nil, err
	}
	return scanModelConfig(row)
}

func (r *modelConfigRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.ModelConfig, error) {
	const q = `SELECT ` + modelConfigColumns + ` FROM model_configs WHERE id = $1 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanModelConfig(row)
}

func (r *modelConfigRepo) ListEnabled(ctx context.Context, tx repository.Tx) ([]*model.ModelConfig, error) {
	const q = `SELECT ` + modelConfigColumns + ` FROM model_configs WHERE enabled = TRUE ORDER BY key;`
	rows, err := pickRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.ModelConfig
	for rows.Next() {
		cfg, err := scanModelConfig(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, rows.Err()
}

func scanModelConfig(row pgx.Row) (*model.ModelConfig, error) {
	var cfg model.ModelConfig
	var latency string
	err := row.Scan(&cfg.ID, &cfg.Key, &cfg.Provider, &cfg.ProviderName, &cfg.Enabled, &cfg.ChatEnabled, &latency, &cfg.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	cfg.Latency = model.LatencyClass(latency)
	return &cfg, nil
}
