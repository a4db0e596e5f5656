package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"district-ai-portal/internal/domain/ports/repository"
	"district-ai-portal/internal/infra/metrics"
)

const expiredMessage = "job expired before completing"

// Reaper periodically fails jobs whose expires_at passed while still
// non-terminal. Without it, a job orphaned by a lost queue message would sit
// pending forever and pollers could never distinguish "stuck" from "failed".
// The sweep uses the same conditional write as cancellation, so a worker
// terminal write racing the sweep wins.
type Reaper struct {
	interval time.Duration
	jobs     repository.JobRepository
	log      *zerolog.Logger
}

func NewReaper(interval time.Duration, jobs repository.JobRepository, logger *zerolog.Logger) *Reaper {
	l := logger.With().Str("component", "Reaper").Logger()
	return &Reaper{interval: interval, jobs: jobs, log: &l}
}

func (r *Reaper) Run(ctx context.Context) error {
	r.log.Info().Dur("interval", r.interval).Msg("starting job expiry reaper")
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("stopping job expiry reaper")
			return ctx.Err()
		case <-ticker.C:
			n, err := r.jobs.FailExpired(ctx, time.Now(), expiredMessage)
			if err != nil {
				r.log.Error().Err(err).Msg("expiry sweep error")
				continue
			}
			if n > 0 {
				metrics.AddJobsExpired(n)
				r.log.Info().Int64("count", n).Msg("expired jobs failed")
			}
		}
	}
}
