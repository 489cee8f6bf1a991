package observability

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"nodetree/internal/domain"
)

// Metrics definitions
var (
	OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nodetree_operation_seconds",
		Help:    "Time spent in a hierarchy operation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nodetree_operations_total",
		Help: "Total number of hierarchy operations by outcome.",
	}, []string{"operation", "outcome"})

	NodesDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nodetree_nodes_deleted_total",
		Help: "Total number of nodes removed, cascaded descendants included.",
	})

	Nodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nodetree_nodes",
		Help: "Number of nodes in the store at the last count.",
	})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nodetree_http_requests_total",
		Help: "Total number of HTTP requests by method and status code.",
	}, []string{"method", "code"})
)

// ObserveOperation records the duration and outcome of one operation.
func ObserveOperation(operation string, started time.Time, err error) {
	OperationDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
	OperationsTotal.WithLabelValues(operation, Outcome(err)).Inc()
}

// Outcome classifies err into a low-cardinality label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidParent):
		return "rejected"
	default:
		return "error"
	}
}
