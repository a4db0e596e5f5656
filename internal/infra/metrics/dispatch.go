package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(queueDispatchTotal) }

var queueDispatchTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "queue_dispatch_total",
		Help: "Queue dispatch attempts by outcome.",
	},
	[]string{"outcome"}, // 'ok', 'error'
)

func IncDispatch(outcome string) { queueDispatchTotal.WithLabelValues(norm(outcome)).Inc() }
