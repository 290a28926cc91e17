// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SyncRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_requests_total",
			Help: "Total number of sync requests by outcome",
		},
		[]string{"status"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "upstream_request_duration_seconds",
			Help: "Duration of outbound calls to ServiceNow and Onspring",
		},
		[]string{"system", "operation"},
	)

	RegistryRecordsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_records_created_total",
			Help: "Total number of Onspring records created by record type",
		},
		[]string{"type"},
	)

	SyncsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sync_requests_in_flight",
			Help: "Number of sync requests currently being processed",
		},
	)
)
