package queue

import "context"

// Attributes travel with every queue message so workers can route without
// loading the job row first. ModelID and UserID are stringified on the wire.
type Attributes struct {
	JobType      string
	Provider     string
	ModelID      string
	UserID       string
	Source       string
	ComparisonID string // set only for comparison jobs
}

// Dispatcher sends a job reference to the external work queue.
//
// Delivery is at-least-once: a message may be delivered more than once and
// consumers MUST be idempotent with respect to duplicates (the conditional
// status writes in the job store make re-processing a completed job a no-op).
//
// Callers own the no-orphan invariant: a job that was created but whose
// Enqueue failed must be explicitly transitioned to failed before the error
// is surfaced. A pending job with no queue message is invisible as "stuck".
type Dispatcher interface {
	Enqueue(ctx context.Context, jobID string, attrs Attributes) error
}
