//go:build !integration

package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"district-ai-portal/internal/domain"
	"district-ai-portal/internal/domain/model"
	"district-ai-portal/internal/domain/ports/queue"
	"district-ai-portal/internal/domain/ports/repository"
)

// --- In-memory JobRepository ---

// memJobRepo mimics the conditional-write semantics of the real repository:
// guarded transitions return ok=false when the guard does not match. Guards
// go through model.JobStatus.CanTransitionTo so this fake cannot drift from
// the domain state machine.
type memJobRepo struct {
	mu      sync.Mutex
	byID    map[string]*model.CompletionJob
	saveErr error
}

var _ repository.JobRepository = (*memJobRepo)(nil)

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{byID: map[string]*model.CompletionJob{}}
}

func cloneJob(j *model.CompletionJob) *model.CompletionJob {
	c := *j
	if j.Response != nil {
		r := *j.Response
		c.Response = &r
	}
	return &c
}

func (m *memJobRepo) Save(ctx context.Context, tx repository.Tx, job *model.CompletionJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.byID[job.ID] = cloneJob(job)
	return nil
}

func (m *memJobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.CompletionJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.byID[id]; ok {
		return cloneJob(j), nil
	}
	return nil, domain.ErrNotFound
}

func (m *memJobRepo) MarkProcessing(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.byID[id]
	if !ok || !j.Status.CanTransitionTo(model.JobStatusProcessing) {
		return false, nil
	}
	now := time.Now()
	j.Status = model.JobStatusProcessing
	j.StartedAt = &now
	return true, nil
}

func (m *memJobRepo) MarkStreaming(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.byID[id]
	if !ok || !j.Status.CanTransitionTo(model.JobStatusStreaming) {
		return false, nil
	}
	j.Status = model.JobStatusStreaming
	return true, nil
}

func (m *memJobRepo) AppendPartial(ctx context.Context, id, chunk string, progress json.RawMessage) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.byID[id]
	if !ok || (j.Status != model.JobStatusProcessing && j.Status != model.JobStatusStreaming) {
		return false, nil
	}
	j.PartialContent += chunk
	if progress != nil {
		j.Progress = progress
	}
	return true, nil
}

func (m *memJobRepo) Complete(ctx context.Context, id string, resp model.ResponseData) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.byID[id]
	if !ok || !j.Status.CanTransitionTo(model.JobStatusCompleted) {
		return false, nil
	}
	now := time.Now()
	j.Status = model.JobStatusCompleted
	j.Response = &resp
	j.CompletedAt = &now
	return true, nil
}

func (m *memJobRepo) Fail(ctx context.Context, id, message string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.byID[id]
	if !ok || !j.Status.CanTransitionTo(model.JobStatusFailed) {
		return false, nil
	}
	now := time.Now()
	j.Status = model.JobStatusFailed
	j.ErrorMessage = message
	j.CompletedAt = &now
	return true, nil
}

func (m *memJobRepo) Cancel(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.byID[id]
	if !ok || !j.Status.CanTransitionTo(model.JobStatusCancelled) {
		return false, nil
	}
	now := time.Now()
	j.Status = model.JobStatusCancelled
	j.CompletedAt = &now
	return true, nil
}

func (m *memJobRepo) FailExpired(ctx context.Context, now time.Time, message string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, j := range m.byID {
		if j.ExpiresAt != nil && !j.ExpiresAt.After(now) && !j.Status.Terminal() {
			j.Status = model.JobStatusFailed
			j.ErrorMessage = message
			n++
		}
	}
	return n, nil
}

// --- In-memory ComparisonRepository ---

type memComparisonRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*model.Comparison
}

var _ repository.ComparisonRepository = (*memComparisonRepo)(nil)

func newMemComparisonRepo() *memComparisonRepo {
	return &memComparisonRepo{nextID: 1, byID: map[int64]*model.Comparison{}}
}

func (m *memComparisonRepo) Save(ctx context.Context, tx repository.Tx, c *model.Comparison) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.nextID
	m.nextID++
	cp := *c
	m.byID[c.ID] = &cp
	return nil
}

func (m *memComparisonRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Comparison, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.byID[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

// --- In-memory ModelConfigRepository ---

type memModelRepo struct {
	byKey map[string]*model.ModelConfig
}

var _ repository.ModelConfigRepository = (*memModelRepo)(nil)

func newMemModelRepo(configs ...*model.ModelConfig) *memModelRepo {
	m := &memModelRepo{byKey: map[string]*model.ModelConfig{}}
	for _, c := range configs {
		m.byKey[c.Key] = c
	}
	return m
}

func (m *memModelRepo) FindByKey(ctx context.Context, tx repository.Tx, key string) (*model.ModelConfig, error) {
	if c, ok := m.byKey[key]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memModelRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.ModelConfig, error) {
	for _, c := range m.byKey {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memModelRepo) ListEnabled(ctx context.Context, tx repository.Tx) ([]*model.ModelConfig, error) {
	var out []*model.ModelConfig
	for _, c := range m.byKey {
		if c.Enabled {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

// --- Fake Dispatcher ---

type enqueueCall struct {
	JobID string
	Attrs queue.Attributes
}

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []enqueueCall

	// EnqueueFunc, when set, decides whether a call fails. Successful calls
	// are still recorded.
	EnqueueFunc func(ctx context.Context, jobID string, attrs queue.Attributes) error
}

var _ queue.Dispatcher = (*fakeDispatcher)(nil)

func (f *fakeDispatcher) Enqueue(ctx context.Context, jobID string, attrs queue.Attributes) error {
	if f.EnqueueFunc != nil {
		if err := f.EnqueueFunc(ctx, jobID, attrs); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, enqueueCall{JobID: jobID, Attrs: attrs})
	return nil
}

func (f *fakeDispatcher) Calls() []enqueueCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]enqueueCall, len(f.calls))
	copy(out, f.calls)
	return out
}

// --- Common fixtures ---

func testModels() (*model.ModelConfig, *model.ModelConfig) {
	return &model.ModelConfig{
			ID: 1, Key: "gpt-4o", Provider: "openai", ProviderName: "gpt-4o",
			Enabled: true, ChatEnabled: true, Latency: model.LatencyFast,
		}, &model.ModelConfig{
			ID: 2, Key: "claude-3-5-sonnet", Provider: "anthropic", ProviderName: "claude-3-5-sonnet-20241022",
			Enabled: true, ChatEnabled: true, Latency: model.LatencyStandard,
		}
}
