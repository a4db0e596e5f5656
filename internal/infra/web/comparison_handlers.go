package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"district-ai-portal/internal/domain"
	"district-ai-portal/internal/domain/model"
	"district-ai-portal/internal/infra/metrics"
	"district-ai-portal/internal/usecase"
)

// FeatureCompare gates the side-by-side comparison endpoints.
const FeatureCompare = "model_comparison"

type comparisonCreateRequest struct {
	Prompt     string `json:"prompt"`
	Model1ID   string `json:"model1Id"`
	Model2ID   string `json:"model2Id"`
	Model1Name string `json:"model1Name"`
	Model2Name string `json:"model2Name"`
}

type comparisonCreateResponse struct {
	Job1ID       string   `json:"job1Id"`
	Job2ID       string   `json:"job2Id"`
	ComparisonID int64    `json:"comparisonId"`
	Status       string   `json:"status"`
	Model1       modelRef `json:"model1"`
	Model2       modelRef `json:"model2"`
}

// POST /api/v1/comparisons
func (s *Server) comparisonCreateHandler(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	if !claims.HasFeature(FeatureCompare) {
		writeDomainError(w, domain.ErrForbidden)
		return
	}

	var req comparisonCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON body", nil)
		return
	}

	res, err := s.compareUC.CreateComparison(r.Context(), claims.UserID, usecase.CreateComparisonRequest{
		Prompt:     req.Prompt,
		Model1Key:  req.Model1ID,
		Model2Key:  req.Model2ID,
		Model1Name: req.Model1Name,
		Model2Name: req.Model2Name,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("X-Comparison-Id", strconv.FormatInt(res.Comparison.ID, 10))
	w.Header().Set("X-Job1-Id", res.Job1.ID)
	w.Header().Set("X-Job2-Id", res.Job2.ID)
	writeJSON(w, http.StatusAccepted, comparisonCreateResponse{
		Job1ID:       res.Job1.ID,
		Job2ID:       res.Job2.ID,
		ComparisonID: res.Comparison.ID,
		Status:       string(model.JobStatusPending),
		Model1:       modelRef{ID: res.Model1.Key, Name: res.Comparison.Model1Name, Provider: res.Model1.Provider},
		Model2:       modelRef{ID: res.Model2.Key, Name: res.Comparison.Model2Name, Provider: res.Model2.Provider},
	})
}

// GET /api/v1/comparisons/{comparisonID}/jobs/{jobID} — comparison-scoped
// polling. Beyond ownership, the job must actually belong to the comparison
// named in the path; anything else is a malformed request, not a missing one.
func (s *Server) comparisonJobGetHandler(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())

	comparisonID, err := strconv.ParseInt(chi.URLParam(r, "comparisonID"), 10, 64)
	if err != nil || comparisonID <= 0 {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid comparison id", nil)
		return
	}

	cmp, err := s.compareUC.GetComparison(r.Context(), comparisonID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if cmp.UserID != claims.UserID {
		writeDomainError(w, domain.ErrForbidden)
		return
	}

	job, ok := s.loadOwnedJob(w, r, chi.URLParam(r, "jobID"))
	if !ok {
		return
	}
	if job.Correlation.Kind != model.CorrelationComparison ||
		job.Correlation.ID != strconv.FormatInt(comparisonID, 10) {
		writeDomainError(w, domain.ErrWrongCorrelation)
		return
	}

	metrics.IncPoll(string(job.Status))
	setPollCacheHeaders(w, job.Status)
	writeJSON(w, http.StatusOK, s.jobStatusPayload(r, job))
}

// verifyComparisonOwnership backs the generic polling route: a comparison job
// must still resolve to a live correlation record owned by the caller.
func (s *Server) verifyComparisonOwnership(w http.ResponseWriter, r *http.Request, job *model.CompletionJob) bool {
	id, err := strconv.ParseInt(job.Correlation.ID, 10, 64)
	if err != nil {
		writeDomainError(w, domain.ErrWrongCorrelation)
		return false
	}
	cmp, err := s.compareUC.GetComparison(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return false
	}
	claims, _ := ClaimsFrom(r.Context())
	if cmp.UserID != claims.UserID {
		writeDomainError(w, domain.ErrForbidden)
		return false
	}
	return true
}
