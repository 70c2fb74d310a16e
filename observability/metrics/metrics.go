package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operations counts lend operations by method and outcome ("ok" or "error").
var Operations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lendbook",
	Subsystem: "rpc",
	Name:      "operations_total",
	Help:      "Lend protocol operations processed, labelled by method and outcome.",
}, []string{"method", "outcome"})

// ObserveOperation records a completed operation.
func ObserveOperation(method string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	Operations.WithLabelValues(method, outcome).Inc()
}
