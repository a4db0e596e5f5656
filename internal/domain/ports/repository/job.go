package repository

import (
	"context"
	"encoding/json"
	"time"

	"district-ai-portal/internal/domain/model"
)

// JobRepository is the port for completion-job persistence. The store is the
// single source of truth for job state.
//
// All transition methods are conditional writes keyed on "current status is
// still eligible", so a cancellation racing a worker's terminal write loses
// cleanly. They return false (and no error) when the guard did not match,
// which callers map to a conflict or a no-op as the operation requires.
type JobRepository interface {
	Save(ctx context.Context, tx Tx, job *model.CompletionJob) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.CompletionJob, error)

	// MarkProcessing transitions pending -> processing and stamps started_at.
	MarkProcessing(ctx context.Context, id string) (bool, error)
	// MarkStreaming transitions processing -> streaming.
	MarkStreaming(ctx context.Context, id string) (bool, error)
	// AppendPartial appends a chunk to partial_content and replaces progress.
	// Allowed only while processing or streaming.
	AppendPartial(ctx context.Context, id, chunk string, progress json.RawMessage) (bool, error)
	// Complete transitions processing|streaming -> completed, stores the
	// response payload and stamps completed_at.
	Complete(ctx context.Context, id string, resp model.ResponseData) (bool, error)
	// Fail transitions any non-terminal status -> failed with a message.
	Fail(ctx context.Context, id, message string) (bool, error)
	// Cancel transitions any non-terminal status -> cancelled.
	Cancel(ctx context.Context, id string) (bool, error)

	// FailExpired sweeps jobs whose expires_at has passed while still
	// non-terminal, failing them with the given message. Returns the number
	// of rows transitioned.
	FailExpired(ctx context.Context, now time.Time, message string) (int64, error)
}
