package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"district-ai-portal/internal/domain"
	"district-ai-portal/internal/domain/model"
	"district-ai-portal/internal/domain/ports/queue"
	"district-ai-portal/internal/domain/ports/repository"
	"district-ai-portal/internal/infra/metrics"
)

// Compile-time check
var _ CompareUseCase = (*compareUC)(nil)

const (
	promptMinLen = 1
	promptMaxLen = 10000
)

// CompareUseCase orchestrates side-by-side model comparisons: one comparison
// record, two correlated jobs, both enqueued or both failed.
type CompareUseCase interface {
	CreateComparison(ctx context.Context, userID string, req CreateComparisonRequest) (*ComparisonResult, error)
	GetComparison(ctx context.Context, id int64) (*model.Comparison, error)
}

type CreateComparisonRequest struct {
	Prompt     string
	Model1Key  string
	Model2Key  string
	Model1Name string
	Model2Name string
}

type ComparisonResult struct {
	Comparison *model.Comparison
	Job1       *model.CompletionJob
	Job2       *model.CompletionJob
	Model1     *model.ModelConfig
	Model2     *model.ModelConfig
}

type compareUC struct {
	comparisons repository.ComparisonRepository
	models      repository.ModelConfigRepository
	jobs        JobUseCase
	dispatcher  queue.Dispatcher
	log         *zerolog.Logger
}

func NewCompareUseCase(
	comparisons repository.ComparisonRepository,
	models repository.ModelConfigRepository,
	jobs JobUseCase,
	dispatcher queue.Dispatcher,
	logger *zerolog.Logger,
) *compareUC {
	l := logger.With().Str("component", "CompareUC").Logger()
	return &compareUC{comparisons: comparisons, models: models, jobs: jobs, dispatcher: dispatcher, log: &l}
}

func (u *compareUC) CreateComparison(ctx context.Context, userID string, req CreateComparisonRequest) (*ComparisonResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("user id required: %w", domain.ErrInvalidArgument)
	}
	prompt := strings.TrimSpace(req.Prompt)
	// Length bounds are in characters, not bytes; multibyte prompts count
	// each rune once.
	if n := utf8.RuneCountInString(prompt); n < promptMinLen || n > promptMaxLen {
		return nil, fmt.Errorf("prompt must be %d-%d characters: %w", promptMinLen, promptMaxLen, domain.ErrInvalidArgument)
	}
	if req.Model1Key == "" || req.Model2Key == "" {
		return nil, fmt.Errorf("both model ids required: %w", domain.ErrInvalidArgument)
	}
	if req.Model1Key == req.Model2Key {
		return nil, domain.ErrModelsNotDistinct
	}

	m1, err := u.lookupChatModel(ctx, req.Model1Key)
	if err != nil {
		return nil, err
	}
	m2, err := u.lookupChatModel(ctx, req.Model2Key)
	if err != nil {
		return nil, err
	}

	cmp := &model.Comparison{
		UserID:     userID,
		Prompt:     prompt,
		Model1Key:  m1.Key,
		Model2Key:  m2.Key,
		Model1Name: displayName(req.Model1Name, m1),
		Model2Name: displayName(req.Model2Name, m2),
		CreatedAt:  time.Now(),
	}
	if err := u.comparisons.Save(ctx, nil, cmp); err != nil {
		return nil, err
	}

	corr := model.Correlation{Kind: model.CorrelationComparison, ID: strconv.FormatInt(cmp.ID, 10)}
	messages := []model.Message{{Role: "user", Content: prompt}}

	// The two creates are independent: there is no cross-job transaction.
	job1, err := u.jobs.CreateJob(ctx, CreateJobRequest{
		UserID:      userID,
		Correlation: corr,
		ModelID:     m1.ID,
		Provider:    m1.Provider,
		ModelName:   m1.ProviderName,
		Source:      model.JobSourceCompare,
		Messages:    messages,
	})
	if err != nil {
		return nil, err
	}
	job2, err := u.jobs.CreateJob(ctx, CreateJobRequest{
		UserID:      userID,
		Correlation: corr,
		ModelID:     m2.ID,
		Provider:    m2.Provider,
		ModelName:   m2.ProviderName,
		Source:      model.JobSourceCompare,
		Messages:    messages,
	})
	if err != nil {
		// The first job would otherwise sit pending forever with no message.
		u.failPair(ctx, "comparison setup failed: "+err.Error(), job1)
		return nil, err
	}

	if err := u.enqueueBoth(ctx, job1, job2); err != nil {
		// Both jobs fail, not just the one whose enqueue broke: a lone
		// successful job is not a useful partial comparison.
		u.failPair(ctx, "failed to queue comparison job: "+err.Error(), job1, job2)
		return nil, fmt.Errorf("comparison %d: %w", cmp.ID, domain.ErrQueueDispatch)
	}

	u.log.Info().
		Int64("comparison_id", cmp.ID).
		Str("job1_id", job1.ID).
		Str("job2_id", job2.ID).
		Msg("comparison created")

	return &ComparisonResult{Comparison: cmp, Job1: job1, Job2: job2, Model1: m1, Model2: m2}, nil
}

func (u *compareUC) GetComparison(ctx context.Context, id int64) (*model.Comparison, error) {
	return u.comparisons.FindByID(ctx, nil, id)
}

func (u *compareUC) lookupChatModel(ctx context.Context, key string) (*model.ModelConfig, error) {
	cfg, err := u.models.FindByKey(ctx, nil, key)
	if err != nil {
		return nil, fmt.Errorf("model %q: %w", key, err)
	}
	if !cfg.Enabled || !cfg.ChatEnabled {
		return nil, fmt.Errorf("model %q: %w", key, domain.ErrModelDisabled)
	}
	return cfg, nil
}

// enqueueBoth dispatches both jobs in parallel and returns the first error.
func (u *compareUC) enqueueBoth(ctx context.Context, job1, job2 *model.CompletionJob) error {
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, job := range []*model.CompletionJob{job1, job2} {
		wg.Add(1)
		go func(i int, job *model.CompletionJob) {
			defer wg.Done()
			err := u.dispatcher.Enqueue(ctx, job.ID, DispatchAttributes(job))
			if err != nil {
				metrics.IncDispatch("error")
			} else {
				metrics.IncDispatch("ok")
			}
			errs[i] = err
		}(i, job)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// failPair applies the compensating failure to every given job. FailJob is
// idempotent, so failing a job whose enqueue actually succeeded is safe: the
// conditional write only touches it while still pending.
func (u *compareUC) failPair(ctx context.Context, message string, jobs ...*model.CompletionJob) {
	for _, job := range jobs {
		if job == nil {
			continue
		}
		if err := u.jobs.FailJob(ctx, job.ID, message); err != nil {
			u.log.Error().Err(err).Str("job_id", job.ID).Msg("compensating failure for comparison job did not stick")
		}
	}
}

func displayName(requested string, cfg *model.ModelConfig) string {
	if strings.TrimSpace(requested) != "" {
		return requested
	}
	return cfg.Key
}
