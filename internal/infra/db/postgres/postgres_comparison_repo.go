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

var _ repository.ComparisonRepository = (*comparisonRepo)(nil)

type comparisonRepo struct {
	pool *pgxpool.Pool
}

func NewComparisonRepo(pool *pgxpool.Pool) *comparisonRepo {
	return &comparisonRepo{pool: pool}
}

func (r *comparisonRepo) Save(ctx context.Context, tx repository.Tx, c *model.Comparison) error {
	const q = `
INSERT INTO comparisons (user_id, prompt, model1_key, model2_key, model1_name, model2_name, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id;`

	row, err := pickRow(ctx, r.pool, tx, q,
		c.UserID, c.Prompt, c.Model1Key, c.Model2Key, c.Model1Name, c.Model2Name, []byte(c.Metadata), c.CreatedAt)
	if err != nil {
		return err
	}
	return row.Scan(&c.ID)
}

func (r *comparisonRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Comparison, error) {
	const q = `
SELECT id, user_id, prompt, model1_key, model2_key, model1_name, model2_name, metadata, created_at
  FROM comparisons
 WHERE id = $1;`

	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	var c model.Comparison
	err = row.Scan(&c.ID, &c.UserID, &c.Prompt, &c.Model1Key, &c.Model2Key, &c.Model1Name, &c.Model2Name, &c.Metadata, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &c, nil
}
