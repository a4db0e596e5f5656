package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"district-ai-portal/internal/domain/ports/repository"
	"district-ai-portal/internal/usecase"
)

// Server wires the job polling and comparison endpoints. It holds only
// injected collaborators; nothing here is a singleton.
type Server struct {
	jobUC     usecase.JobUseCase
	compareUC usecase.CompareUseCase
	models    repository.ModelConfigRepository
	auth      *AuthManager
	log       *zerolog.Logger
}

func NewServer(
	jobUC usecase.JobUseCase,
	compareUC usecase.CompareUseCase,
	models repository.ModelConfigRepository,
	auth *AuthManager,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "web").Logger()
	return &Server{jobUC: jobUC, compareUC: compareUC, models: models, auth: auth, log: &l}
}

// Router builds the HTTP routing tree. Handlers stay short-lived: all waiting
// for completion happens client-side via polling.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(TraceID())
	r.Use(RequestLog(s.log))
	r.Use(Recover(s.log))
	r.Use(Timeout(15 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RequireSession(s.auth))

		r.Get("/models", s.modelsListHandler)

		r.Post("/jobs", s.jobCreateHandler)
		r.Get("/jobs/{jobID}", s.jobGetHandler)
		r.Delete("/jobs/{jobID}", s.jobCancelHandler)

		r.Post("/comparisons", s.comparisonCreateHandler)
		r.Get("/comparisons/{comparisonID}/jobs/{jobID}", s.comparisonJobGetHandler)
	})

	return r
}
