package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(jobPollRequestsTotal) }

var jobPollRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "job_poll_requests_total",
		Help: "Status polls served, labeled by the job status observed.",
	},
	[]string{"status"},
)

func IncPoll(status string) { jobPollRequestsTotal.WithLabelValues(norm(status)).Inc() }
