package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Attachment pipeline Prometheus metrics.
var (
	EnrichmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "attachdex",
			Name:      "enrichments_total",
			Help:      "Documents passed through enrichment, by content load outcome",
		},
		[]string{"outcome"}, // loaded, file_missing, too_large, policy_excluded, error, not_attachment
	)

	EnrichedBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "attachdex",
			Name:      "enriched_bytes_total",
			Help:      "Raw file bytes embedded into document payloads",
		},
	)

	ProvisionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "attachdex",
			Name:      "pipeline_provision_total",
			Help:      "Ingest pipeline put requests",
		},
		[]string{"status"},
	)

	CapabilityChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "attachdex",
			Name:      "capability_checks_total",
			Help:      "Ingest capability checks by source and result",
		},
		[]string{"source", "result"}, // source: cache, store, remote
	)

	IndexRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "attachdex",
			Name:      "index_requests_total",
			Help:      "Index requests sent to the search cluster",
		},
		[]string{"kind", "status"}, // kind: single, bulk
	)

	ResolverCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "attachdex",
			Name:      "resolver_cache_total",
			Help:      "File path resolver cache hits and misses",
		},
		[]string{"result"},
	)
)

var registerOnce sync.Once

// Register registers every attachdex collector on the default registry.
// Call it once from main; later calls are no-ops.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			EnrichmentsTotal,
			EnrichedBytesTotal,
			ProvisionTotal,
			CapabilityChecksTotal,
			IndexRequestsTotal,
			ResolverCacheTotal,
			httpRequestDuration,
			httpRequestsTotal,
			httpInFlight,
		)
	})
}
