package repository

import (
	"context"

	"district-ai-portal/internal/domain/model"
)

// ModelConfigRepository is the port for the model catalog.
type ModelConfigRepository interface {
	// FindByKey resolves a public model key such as "gpt-4o".
	FindByKey(ctx context.Context, tx Tx, key string) (*model.ModelConfig, error)
	FindByID(ctx context.Context, tx Tx, id int64) (*model.ModelConfig, error)
	ListEnabled(ctx context.Context, tx Tx) ([]*model.ModelConfig, error)
}
