package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"district-ai-portal/internal/domain"
	"district-ai-portal/internal/domain/model"
	"district-ai-portal/internal/domain/ports/queue"
	"district-ai-portal/internal/domain/ports/repository"
	"district-ai-portal/internal/infra/metrics"
)

// Compile-time check
var _ JobUseCase = (*jobUC)(nil)

// JobUseCase is the job management service: it owns creation, reads and every
// legal transition of a completion job. Creation does NOT enqueue; dispatch is
// a separate caller-driven step so single and paired jobs share one
// compensating-failure path.
type JobUseCase interface {
	CreateJob(ctx context.Context, req CreateJobRequest) (*model.CompletionJob, error)
	CreateAndDispatch(ctx context.Context, req CreateJobRequest) (*model.CompletionJob, error)
	GetJob(ctx context.Context, id string) (*model.CompletionJob, error)
	// CancelJob returns domain.ErrJobTerminal when the job already reached a
	// terminal status; the conditional write guarantees a racing worker
	// terminal write wins.
	CancelJob(ctx context.Context, id string) error
	// FailJob is idempotent: failing an already-terminal job is a no-op.
	FailJob(ctx context.Context, id, message string) error

	// Worker-side transitions. The worker population is external; these
	// methods define the contract it calls through.
	MarkProcessing(ctx context.Context, id string) error
	MarkStreaming(ctx context.Context, id string) error
	AppendPartialContent(ctx context.Context, id, chunk string, progress json.RawMessage) error
	CompleteJob(ctx context.Context, id string, resp model.ResponseData) error

	// OptimalPollingInterval recommends a client poll delay for the given
	// model and status. Active states always poll faster than terminal ones.
	OptimalPollingInterval(ctx context.Context, modelID int64, status model.JobStatus) time.Duration
}

type CreateJobRequest struct {
	UserID      string
	Correlation model.Correlation
	ModelID     int64
	Provider    string
	ModelName   string
	Source      model.JobSource
	Messages    []model.Message
	Options     map[string]any
}

func (r CreateJobRequest) validate() error {
	switch r.Source {
	case model.JobSourceChat:
		return r.validateChat()
	case model.JobSourceCompare:
		return r.validateCompare()
	case model.JobSourceScheduled:
		return r.validateScheduled()
	default:
		return fmt.Errorf("unknown job source %q: %w", r.Source, domain.ErrInvalidArgument)
	}
}

func (r CreateJobRequest) validateCommon() error {
	if strings.TrimSpace(r.UserID) == "" {
		return fmt.Errorf("user id required: %w", domain.ErrInvalidArgument)
	}
	if r.ModelID <= 0 {
		return fmt.Errorf("model id required: %w", domain.ErrInvalidArgument)
	}
	if strings.TrimSpace(r.Provider) == "" {
		return fmt.Errorf("provider required: %w", domain.ErrInvalidArgument)
	}
	if strings.TrimSpace(r.ModelName) == "" {
		return fmt.Errorf("model name required: %w", domain.ErrInvalidArgument)
	}
	if len(r.Messages) == 0 {
		return fmt.Errorf("message list must not be empty: %w", domain.ErrInvalidArgument)
	}
	if r.Correlation.Kind != r.Source.ExpectedKind() {
		return fmt.Errorf("source %s requires %s correlation: %w", r.Source, r.Source.ExpectedKind(), domain.ErrInvalidArgument)
	}
	return nil
}

func (r CreateJobRequest) validateChat() error {
	return r.validateCommon()
}

func (r CreateJobRequest) validateCompare() error {
	if err := r.validateCommon(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Correlation.ID) == "" {
		return fmt.Errorf("comparison id required: %w", domain.ErrInvalidArgument)
	}
	return nil
}

func (r CreateJobRequest) validateScheduled() error {
	if err := r.validateCommon(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Correlation.ID) == "" {
		return fmt.Errorf("schedule id required: %w", domain.ErrInvalidArgument)
	}
	return nil
}

type jobUC struct {
	jobs       repository.JobRepository
	models     repository.ModelConfigRepository
	dispatcher queue.Dispatcher
	jobTTL     time.Duration
	log        *zerolog.Logger
}

func NewJobUseCase(
	jobs repository.JobRepository,
	models repository.ModelConfigRepository,
	dispatcher queue.Dispatcher,
	jobTTL time.Duration,
	logger *zerolog.Logger,
) *jobUC {
	l := logger.With().Str("component", "JobUC").Logger()
	return &jobUC{jobs: jobs, models: models, dispatcher: dispatcher, jobTTL: jobTTL, log: &l}
}

func (u *jobUC) CreateJob(ctx context.Context, req CreateJobRequest) (*model.CompletionJob, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	job := &model.CompletionJob{
		ID:          uuid.NewString(),
		UserID:      req.UserID,
		Correlation: req.Correlation,
		ModelID:     req.ModelID,
		Provider:    req.Provider,
		ModelName:   req.ModelName,
		Source:      req.Source,
		Request:     model.RequestData{Messages: req.Messages, Options: req.Options},
		Status:      model.JobStatusPending,
		CreatedAt:   now,
	}
	if u.jobTTL > 0 {
		exp := now.Add(u.jobTTL)
		job.ExpiresAt = &exp
	}

	if err := u.jobs.Save(ctx, nil, job); err != nil {
		return nil, err
	}
	metrics.IncJobCreated(string(req.Source))
	u.log.Debug().Str("job_id", job.ID).Str("source", string(req.Source)).Msg("job created")
	return job, nil
}

// CreateAndDispatch creates a job, enqueues it and applies the compensating
// failure when dispatch fails: the job never stays silently pending.
func (u *jobUC) CreateAndDispatch(ctx context.Context, req CreateJobRequest) (*model.CompletionJob, error) {
	job, err := u.CreateJob(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := u.dispatcher.Enqueue(ctx, job.ID, DispatchAttributes(job)); err != nil {
		u.compensate(ctx, job.ID, err)
		return nil, fmt.Errorf("enqueue job %s: %w", job.ID, domain.ErrQueueDispatch)
	}
	metrics.IncDispatch("ok")
	return job, nil
}

// compensate force-fails a job whose dispatch failed, retrying once. If the
// compensating write itself fails, we log and count it; the expiry reaper
// bounds the damage by eventually failing the orphaned pending job.
func (u *jobUC) compensate(ctx context.Context, jobID string, cause error) {
	metrics.IncDispatch("error")
	msg := "failed to queue job for processing: " + cause.Error()
	err := u.FailJob(ctx, jobID, msg)
	if err != nil {
		err = u.FailJob(ctx, jobID, msg)
	}
	if err != nil {
		metrics.IncCompensationFailure()
		u.log.Error().Err(err).Str("job_id", jobID).Msg("compensating job failure did not stick")
	}
}

func (u *jobUC) GetJob(ctx context.Context, id string) (*model.CompletionJob, error) {
	return u.jobs.FindByID(ctx, nil, id)
}

func (u *jobUC) CancelJob(ctx context.Context, id string) error {
	ok, err := u.jobs.Cancel(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrJobTerminal
	}
	metrics.IncJobFinished(string(model.JobStatusCancelled))
	u.log.Info().Str("job_id", id).Msg("job cancelled")
	return nil
}

func (u *jobUC) FailJob(ctx context.Context, id, message string) error {
	ok, err := u.jobs.Fail(ctx, id, message)
	if err != nil {
		return err
	}
	if ok {
		metrics.IncJobFinished(string(model.JobStatusFailed))
		u.log.Info().Str("job_id", id).Str("error", message).Msg("job failed")
	}
	// Already terminal: deliberate no-op so compensation and worker failure
	// reports never race into an error.
	return nil
}

func (u *jobUC) MarkProcessing(ctx context.Context, id string) error {
	ok, err := u.jobs.MarkProcessing(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrJobTerminal
	}
	return nil
}

func (u *jobUC) MarkStreaming(ctx context.Context, id string) error {
	ok, err := u.jobs.MarkStreaming(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrJobTerminal
	}
	return nil
}

func (u *jobUC) AppendPartialContent(ctx context.Context, id, chunk string, progress json.RawMessage) error {
	ok, err := u.jobs.AppendPartial(ctx, id, chunk, progress)
	if err != nil {
		return err
	}
	if !ok {
		// The job was cancelled or failed under the worker; it must stop
		// producing further writes.
		return domain.ErrJobTerminal
	}
	return nil
}

func (u *jobUC) CompleteJob(ctx context.Context, id string, resp model.ResponseData) error {
	ok, err := u.jobs.Complete(ctx, id, resp)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrJobTerminal
	}
	metrics.IncJobFinished(string(model.JobStatusCompleted))
	return nil
}

// Polling cadence policy. The exact numbers are policy, not protocol; the only
// hard rule is that active states poll faster than terminal ones.
const (
	pollFast     = 500 * time.Millisecond
	pollStandard = time.Second
	pollSlow     = 2 * time.Second
	pollTerminal = 30 * time.Second
	pollFloor    = 250 * time.Millisecond
)

func (u *jobUC) OptimalPollingInterval(ctx context.Context, modelID int64, status model.JobStatus) time.Duration {
	if status.Terminal() {
		return pollTerminal
	}

	base := pollStandard
	if cfg, err := u.models.FindByID(ctx, nil, modelID); err == nil {
		switch cfg.Latency {
		case model.LatencyFast:
			base = pollFast
		case model.LatencySlow:
			base = pollSlow
		}
	}

	if status == model.JobStatusStreaming {
		// Streaming updates land often; poll at half cadence.
		half := base / 2
		if half < pollFloor {
			half = pollFloor
		}
		return half
	}
	return base
}

// DispatchAttributes builds the queue message attributes for a job.
func DispatchAttributes(job *model.CompletionJob) queue.Attributes {
	attrs := queue.Attributes{
		JobType:  "completion",
		Provider: job.Provider,
		ModelID:  fmt.Sprintf("%d", job.ModelID),
		UserID:   job.UserID,
		Source:   string(job.Source),
	}
	if job.Correlation.Kind == model.CorrelationComparison {
		attrs.ComparisonID = job.Correlation.ID
	}
	return attrs
}
