package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"district-ai-portal/internal/domain"
	"district-ai-portal/internal/domain/model"
	"district-ai-portal/internal/infra/metrics"
	"district-ai-portal/internal/usecase"
)

type modelRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// jobStatusResponse is the polling payload. PartialContent is always present
// so clients can render progressively; ResponseData only when completed and
// ErrorMessage only when failed.
type jobStatusResponse struct {
	JobID                 string              `json:"jobId"`
	Status                string              `json:"status"`
	Model                 modelRef            `json:"model"`
	PartialContent        string              `json:"partialContent"`
	ResponseData          *model.ResponseData `json:"responseData,omitempty"`
	ErrorMessage          string              `json:"errorMessage,omitempty"`
	CreatedAt             time.Time           `json:"createdAt"`
	StartedAt             *time.Time          `json:"startedAt,omitempty"`
	CompletedAt           *time.Time          `json:"completedAt,omitempty"`
	PollingInterval       int64               `json:"pollingInterval"` // milliseconds
	ShouldContinuePolling bool                `json:"shouldContinuePolling"`
}

func (s *Server) jobStatusPayload(r *http.Request, job *model.CompletionJob) jobStatusResponse {
	interval := s.jobUC.OptimalPollingInterval(r.Context(), job.ModelID, job.Status)
	resp := jobStatusResponse{
		JobID:                 job.ID,
		Status:                string(job.Status),
		Model:                 modelRef{ID: strconv.FormatInt(job.ModelID, 10), Name: job.ModelName, Provider: job.Provider},
		PartialContent:        job.PartialContent,
		CreatedAt:             job.CreatedAt,
		StartedAt:             job.StartedAt,
		CompletedAt:           job.CompletedAt,
		PollingInterval:       interval.Milliseconds(),
		ShouldContinuePolling: job.Status.Active(),
	}
	if job.Status == model.JobStatusCompleted {
		resp.ResponseData = job.Response
	}
	if job.Status == model.JobStatusFailed {
		resp.ErrorMessage = job.ErrorMessage
	}
	return resp
}

// setPollCacheHeaders lets intermediaries briefly cache terminal responses;
// non-terminal responses must never be cached.
func setPollCacheHeaders(w http.ResponseWriter, status model.JobStatus) {
	if status.Terminal() {
		w.Header().Set("Cache-Control", "private, max-age=5")
	} else {
		w.Header().Set("Cache-Control", "no-store")
	}
}

// loadOwnedJob resolves a job and enforces ownership. A job belonging to a
// different principal is reported as 403 regardless of its status.
func (s *Server) loadOwnedJob(w http.ResponseWriter, r *http.Request, jobID string) (*model.CompletionJob, bool) {
	claims, _ := ClaimsFrom(r.Context())
	job, err := s.jobUC.GetJob(r.Context(), jobID)
	if err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	if job.UserID != claims.UserID {
		writeDomainError(w, domain.ErrForbidden)
		return nil, false
	}
	return job, true
}

// GET /api/v1/jobs/{jobID}
func (s *Server) jobGetHandler(w http.ResponseWriter, r *http.Request) {
	job, ok := s.loadOwnedJob(w, r, chi.URLParam(r, "jobID"))
	if !ok {
		return
	}

	// Comparison jobs must still resolve to a live, owned correlation record.
	if job.Correlation.Kind == model.CorrelationComparison {
		if !s.verifyComparisonOwnership(w, r, job) {
			return
		}
	}

	metrics.IncPoll(string(job.Status))
	setPollCacheHeaders(w, job.Status)
	writeJSON(w, http.StatusOK, s.jobStatusPayload(r, job))
}

// DELETE /api/v1/jobs/{jobID}
func (s *Server) jobCancelHandler(w http.ResponseWriter, r *http.Request) {
	job, ok := s.loadOwnedJob(w, r, chi.URLParam(r, "jobID"))
	if !ok {
		return
	}

	if err := s.jobUC.CancelJob(r.Context(), job.ID); err != nil {
		if errors.Is(err, domain.ErrJobTerminal) {
			// Refetch so the conflict reports what the job actually is now,
			// not the possibly stale status we loaded above.
			current := job.Status
			if fresh, ferr := s.jobUC.GetJob(r.Context(), job.ID); ferr == nil {
				current = fresh.Status
			}
			writeError(w, http.StatusConflict, "CONFLICT", "job is not cancellable", map[string]any{
				"currentStatus": current,
				"cancellable":   model.ActiveStatuses(),
			})
			return
		}
		writeDomainError(w, err)
		return
	}

	fresh, err := s.jobUC.GetJob(r.Context(), job.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, s.jobStatusPayload(r, fresh))
}

type jobCreateRequest struct {
	ModelID        string          `json:"modelId"`
	ConversationID string          `json:"conversationId"`
	Messages       []model.Message `json:"messages"`
	Options        map[string]any  `json:"options"`
}

// POST /api/v1/jobs — the chat flow's single-job creation. Dispatch failures
// are compensated inside the use case, so a 500 here never leaves a silent
// pending job behind.
func (s *Server) jobCreateHandler(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())

	var req jobCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON body", nil)
		return
	}

	cfg, err := s.models.FindByKey(r.Context(), nil, req.ModelID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !cfg.Enabled || !cfg.ChatEnabled {
		writeDomainError(w, domain.ErrModelDisabled)
		return
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	job, err := s.jobUC.CreateAndDispatch(r.Context(), usecase.CreateJobRequest{
		UserID:      claims.UserID,
		Correlation: model.Correlation{Kind: model.CorrelationConversation, ID: conversationID},
		ModelID:     cfg.ID,
		Provider:    cfg.Provider,
		ModelName:   cfg.ProviderName,
		Source:      model.JobSourceChat,
		Messages:    req.Messages,
		Options:     req.Options,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("X-Job-Id", job.ID)
	writeJSON(w, http.StatusAccepted, s.jobStatusPayload(r, job))
}

// GET /api/v1/models
func (s *Server) modelsListHandler(w http.ResponseWriter, r *http.Request) {
	configs, err := s.models.ListEnabled(r.Context(), nil)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]modelRef, 0, len(configs))
	for _, cfg := range configs {
		if !cfg.ChatEnabled {
			continue
		}
		out = append(out, modelRef{ID: cfg.Key, Name: cfg.Key, Provider: cfg.Provider})
	}
	writeJSON(w, http.StatusOK, struct {
		Data []modelRef `json:"data"`
	}{Data: out})
}
