package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"district-ai-portal/internal/domain"
	"district-ai-portal/internal/domain/model"
	"district-ai-portal/internal/domain/ports/repository"
)

var _ repository.JobRepository = (*jobRepo)(nil)

// jobRepo persists completion jobs in the completion_jobs table. Every status
// transition is a conditional UPDATE guarded on the current status, so a
// cancellation racing a worker's terminal write loses cleanly: the guard does
// not match and zero rows are affected.
type jobRepo struct {
	pool *pgxpool.Pool
}

func NewJobRepo(pool *pgxpool.Pool) *jobRepo {
	return &jobRepo{pool: pool}
}

// activeSet is inlined into guards below; it must match model.ActiveStatuses.
const activeSet = `('pending','processing','streaming')`

func (r *jobRepo) Save(ctx context.Context, tx repository.Tx, job *model.CompletionJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	reqData, err := json.Marshal(job.Request)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO completion_jobs
  (id, user_id, correlation_kind, correlation_id, model_id, provider, model_name, source,
   request_data, status, partial_content, error_message, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, '', '', $11, $12);`

	_, err = execSQL(ctx, r.pool, tx, q,
		job.ID, job.UserID, string(job.Correlation.Kind), job.Correlation.ID,
		job.ModelID, job.Provider, job.ModelName, string(job.Source),
		reqData, string(job.Status), job.CreatedAt, job.ExpiresAt)
	return err
}

func (r *jobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.CompletionJob, error) {
	const q = `
SELECT id, user_id, correlation_kind, correlation_id, model_id, provider, model_name, source,
       request_data, status, partial_content, progress_info, response_data, error_message,
       created_at, started_at, completed_at, expires_at
  FROM completion_jobs
 WHERE id = $1;`

	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}

	var (
		job      model.CompletionJob
		kind     string
		source   string
		status   string
		reqData  []byte
		respData []byte
	)
	err = row.Scan(
		&job.ID, &job.UserID, &kind, &job.Correlation.ID, &job.ModelID, &job.Provider,
		&job.ModelName, &source, &reqData, &status, &job.PartialContent, &job.Progress,
		&respData, &job.ErrorMessage, &job.CreatedAt, &job.StartedAt, &job.CompletedAt, &job.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}

	job.Correlation.Kind = model.CorrelationKind(kind)
	job.Source = model.JobSource(source)
	job.Status = model.JobStatus(status)
	if err := json.Unmarshal(reqData, &job.Request); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	if len(respData) > 0 {
		var resp model.ResponseData
		if err := json.Unmarshal(respData, &resp); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		job.Response = &resp
	}
	return &job, nil
}

func (r *jobRepo) MarkProcessing(ctx context.Context, id string) (bool, error) {
	const q = `
UPDATE completion_jobs
   SET status = 'processing', started_at = $2
 WHERE id = $1 AND status = 'pending';`
	tag, err := execSQL(ctx, r.pool, nil, q, id, time.Now())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *jobRepo) MarkStreaming(ctx context.Context, id string) (bool, error) {
	const q = `
UPDATE completion_jobs
   SET status = 'streaming'
 WHERE id = $1 AND status = 'processing';`
	tag, err := execSQL(ctx, r.pool, nil, q, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *jobRepo) AppendPartial(ctx context.Context, id, chunk string, progress json.RawMessage) (bool, error) {
	const q = `
UPDATE completion_jobs
   SET partial_content = partial_content || $2,
       progress_info   = COALESCE($3, progress_info)
 WHERE id = $1 AND status IN ('processing','streaming');`
	tag, err := execSQL(ctx, r.pool, nil, q, id, chunk, []byte(progress))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *jobRepo) Complete(ctx context.Context, id string, resp model.ResponseData) (bool, error) {
	respData, err := json.Marshal(resp)
	if err != nil {
		return false, err
	}
	const q = `
UPDATE completion_jobs
   SET status = 'completed', response_data = $2, completed_at = $3
 WHERE id = $1 AND status IN ('processing','streaming');`
	tag, err := execSQL(ctx, r.pool, nil, q, id, respData, time.Now())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *jobRepo) Fail(ctx context.Context, id, message string) (bool, error) {
	const q = `
UPDATE completion_jobs
   SET status = 'failed', error_message = $2, completed_at = $3
 WHERE id = $1 AND status IN ` + activeSet + `;`
	tag, err := execSQL(ctx, r.pool, nil, q, id, message, time.Now())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *jobRepo) Cancel(ctx context.Context, id string) (bool, error) {
	const q = `
UPDATE completion_jobs
   SET status = 'cancelled', completed_at = $2
 WHERE id = $1 AND status IN ` + activeSet + `;`
	tag, err := execSQL(ctx, r.pool, nil, q, id, time.Now())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *jobRepo) FailExpired(ctx context.Context, now time.Time, message string) (int64, error) {
	const q = `
UPDATE completion_jobs
   SET status = 'failed', error_message = $2, completed_at = $1
 WHERE expires_at IS NOT NULL AND expires_at <= $1 AND status IN ` + activeSet + `;`
	tag, err := execSQL(ctx, r.pool, nil, q, now, message)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
