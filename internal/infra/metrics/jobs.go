package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(jobsCreatedTotal, jobsFinishedTotal, jobsExpiredTotal, compensationFailuresTotal)
}

var jobsCreatedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "completion_jobs_created_total",
		Help: "Total number of completion jobs created, labeled by source.",
	},
	[]string{"source"}, // 'chat', 'compare', 'scheduled'
)

var jobsFinishedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "completion_jobs_finished_total",
		Help: "Total number of completion jobs reaching a terminal status.",
	},
	[]string{"status"}, // 'completed', 'failed', 'cancelled'
)

var jobsExpiredTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "completion_jobs_expired_total",
		Help: "Jobs failed by the expiry reaper.",
	},
)

var compensationFailuresTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "completion_jobs_compensation_failures_total",
		Help: "Compensating fail-job writes that did not stick after a dispatch failure.",
	},
)

func IncJobCreated(source string)  { jobsCreatedTotal.WithLabelValues(norm(source)).Inc() }
func IncJobFinished(status string) { jobsFinishedTotal.WithLabelValues(norm(status)).Inc() }
func AddJobsExpired(n int64)       { jobsExpiredTotal.Add(float64(n)) }
func IncCompensationFailure()      { compensationFailuresTotal.Inc() }
