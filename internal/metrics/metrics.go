package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector of the process.
var Registry = prometheus.NewRegistry()

var (
	ResourceCommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blueprint_resource_commands_total",
			Help: "Resource commands by command and outcome.",
		},
		[]string{"command", "outcome"},
	)

	DeletionsRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "blueprint_resource_deletions_rejected_total",
			Help: "Resource deletions refused because of the anchor flag or live dependents.",
		},
	)

	SnapshotsSavedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "blueprint_graph_snapshots_saved_total",
			Help: "Graph snapshots stored as a new version.",
		},
	)
	SnapshotsSkippedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "blueprint_graph_snapshots_skipped_total",
			Help: "Graph snapshots skipped because the graph did not change.",
		},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blueprint_http_requests_total",
			Help: "HTTP requests by route pattern, method and status.",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blueprint_http_request_duration_seconds",
			Help:    "Time taken to serve HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		ResourceCommandsTotal,
		DeletionsRejectedTotal,
		SnapshotsSavedTotal,
		SnapshotsSkippedTotal,
		HTTPRequestsTotal,
		HTTPRequestDuration,
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

// Outcome labels a command result.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
