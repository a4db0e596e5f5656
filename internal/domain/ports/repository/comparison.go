package repository

import (
	"context"

	"district-ai-portal/internal/domain/model"
)

// ComparisonRepository is the port for comparison correlation records.
type ComparisonRepository interface {
	// Save inserts the record and assigns a positive integer ID.
	Save(ctx context.Context, tx Tx, c *model.Comparison) error
	FindByID(ctx context.Context, tx Tx, id int64) (*model.Comparison, error)
}
