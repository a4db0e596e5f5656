package model

import (
	"encoding/json"
	"time"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusStreaming  JobStatus = "streaming"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// Terminal reports whether no further transition is permitted.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// Active reports whether a client should keep polling for this status.
func (s JobStatus) Active() bool {
	switch s {
	case JobStatusPending, JobStatusProcessing, JobStatusStreaming:
		return true
	}
	return false
}

// ActiveStatuses is the cancellable set; used both for conditional SQL writes
// and for conflict responses.
func ActiveStatuses() []JobStatus {
	return []JobStatus{JobStatusPending, JobStatusProcessing, JobStatusStreaming}
}

// CanTransitionTo encodes the job state machine:
//
//	pending -> processing -> streaming -> completed
//	any non-terminal     -> failed | cancelled
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	if s.Terminal() {
		return false
	}
	switch next {
	case JobStatusFailed, JobStatusCancelled:
		return true
	case JobStatusProcessing:
		return s == JobStatusPending
	case JobStatusStreaming:
		return s == JobStatusProcessing
	case JobStatusCompleted:
		return s == JobStatusProcessing || s == JobStatusStreaming
	}
	return false
}

type CorrelationKind string

const (
	CorrelationConversation CorrelationKind = "conversation"
	CorrelationComparison   CorrelationKind = "comparison"
	CorrelationScheduled    CorrelationKind = "scheduled"
)

// Correlation says what a job belongs to. It replaces the old habit of
// stuffing a comparison id into a conversation-id column.
type Correlation struct {
	Kind CorrelationKind
	ID   string
}

type JobSource string

const (
	JobSourceChat      JobSource = "chat"
	JobSourceCompare   JobSource = "compare"
	JobSourceScheduled JobSource = "scheduled"
)

// Valid reports whether s is one of the known source variants.
func (s JobSource) Valid() bool {
	switch s {
	case JobSourceChat, JobSourceCompare, JobSourceScheduled:
		return true
	}
	return false
}

// ExpectedKind returns the correlation kind a job from this source must carry.
func (s JobSource) ExpectedKind() CorrelationKind {
	switch s {
	case JobSourceCompare:
		return CorrelationComparison
	case JobSourceScheduled:
		return CorrelationScheduled
	default:
		return CorrelationConversation
	}
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RequestData is written once at creation and never mutated.
type RequestData struct {
	Messages []Message      `json:"messages"`
	Options  map[string]any `json:"options,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ResponseData is present only on completed jobs.
type ResponseData struct {
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason"`
	Usage        Usage  `json:"usage"`
}

// CompletionJob is the durable record of one requested model completion.
// The worker population is the sole writer of status transitions beyond
// cancellation and the sole writer of PartialContent/Progress.
type CompletionJob struct {
	ID          string
	UserID      string
	Correlation Correlation
	ModelID     int64
	Provider    string
	ModelName   string
	Source      JobSource
	Request     RequestData
	Status      JobStatus

	PartialContent string
	Progress       json.RawMessage
	Response       *ResponseData
	ErrorMessage   string

	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	ExpiresAt   *time.Time
}
