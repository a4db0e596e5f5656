//go:build !integration

package web

import (
	"context"
	"encoding/json"
	"time"

	"district-ai-portal/internal/domain"
	"district-ai-portal/internal/domain/model"
	"district-ai-portal/internal/domain/ports/repository"
	"district-ai-portal/internal/usecase"
)

// --- Use case mocks ---

type mockJobUC struct {
	CreateJobFunc         func(ctx context.Context, req usecase.CreateJobRequest) (*model.CompletionJob, error)
	CreateAndDispatchFunc func(ctx context.Context, req usecase.CreateJobRequest) (*model.CompletionJob, error)
	GetJobFunc            func(ctx context.Context, id string) (*model.CompletionJob, error)
	CancelJobFunc         func(ctx context.Context, id string) error
	FailJobFunc           func(ctx context.Context, id, message string) error
	PollIntervalFunc      func(ctx context.Context, modelID int64, status model.JobStatus) time.Duration
}

var _ usecase.JobUseCase = (*mockJobUC)(nil)

func (m *mockJobUC) CreateJob(ctx context.Context, req usecase.CreateJobRequest) (*model.CompletionJob, error) {
	return m.CreateJobFunc(ctx, req)
}
func (m *mockJobUC) CreateAndDispatch(ctx context.Context, req usecase.CreateJobRequest) (*model.CompletionJob, error) {
	return m.CreateAndDispatchFunc(ctx, req)
}
func (m *mockJobUC) GetJob(ctx context.Context, id string) (*model.CompletionJob, error) {
	return m.GetJobFunc(ctx, id)
}
func (m *mockJobUC) CancelJob(ctx context.Context, id string) error {
	return m.CancelJobFunc(ctx, id)
}
func (m *mockJobUC) FailJob(ctx context.Context, id, message string) error {
	if m.FailJobFunc != nil {
		return m.FailJobFunc(ctx, id, message)
	}
	return nil
}
func (m *mockJobUC) MarkProcessing(ctx context.Context, id string) error  { return nil }
func (m *mockJobUC) MarkStreaming(ctx context.Context, id string) error   { return nil }
func (m *mockJobUC) AppendPartialContent(ctx context.Context, id, chunk string, progress json.RawMessage) error {
	return nil
}
func (m *mockJobUC) CompleteJob(ctx context.Context, id string, resp model.ResponseData) error {
	return nil
}
func (m *mockJobUC) OptimalPollingInterval(ctx context.Context, modelID int64, status model.JobStatus) time.Duration {
	if m.PollIntervalFunc != nil {
		return m.PollIntervalFunc(ctx, modelID, status)
	}
	if status.Terminal() {
		return 30 * time.Second
	}
	return time.Second
}

type mockCompareUC struct {
	CreateComparisonFunc func(ctx context.Context, userID string, req usecase.CreateComparisonRequest) (*usecase.ComparisonResult, error)
	GetComparisonFunc    func(ctx context.Context, id int64) (*model.Comparison, error)
}

var _ usecase.CompareUseCase = (*mockCompareUC)(nil)

func (m *mockCompareUC) CreateComparison(ctx context.Context, userID string, req usecase.CreateComparisonRequest) (*usecase.ComparisonResult, error) {
	return m.CreateComparisonFunc(ctx, userID, req)
}
func (m *mockCompareUC) GetComparison(ctx context.Context, id int64) (*model.Comparison, error) {
	return m.GetComparisonFunc(ctx, id)
}

// --- Catalog mock ---

type mockModelRepo struct {
	FindByKeyFunc   func(ctx context.Context, tx repository.Tx, key string) (*model.ModelConfig, error)
	FindByIDFunc    func(ctx context.Context, tx repository.Tx, id int64) (*model.ModelConfig, error)
	ListEnabledFunc func(ctx context.Context, tx repository.Tx) ([]*model.ModelConfig, error)
}

var _ repository.ModelConfigRepository = (*mockModelRepo)(nil)

func (m *mockModelRepo) FindByKey(ctx context.Context, tx repository.Tx, key string) (*model.ModelConfig, error) {
	if m.FindByKeyFunc != nil {
		return m.FindByKeyFunc(ctx, tx, key)
	}
	return nil, domain.ErrNotFound
}
func (m *mockModelRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.ModelConfig, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	return nil, domain.ErrNotFound
}
func (m *mockModelRepo) ListEnabled(ctx context.Context, tx repository.Tx) ([]*model.ModelConfig, error) {
	if m.ListEnabledFunc != nil {
		return m.ListEnabledFunc(ctx, tx)
	}
	return nil, nil
}
