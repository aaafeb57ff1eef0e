package attachdex

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/attachdex/internal/domain/load"
)

// Middleware operations as they appear in metrics and logs.
const (
	opEnrich            = "enrich"
	opEnsurePipeline    = "ensure_pipeline"
	opRefreshCapability = "refresh_capability"
)

// Outcomes of provisioning calls. Enrich reports the load outcome instead:
// loaded, file_missing, too_large, policy_excluded, not_attachment or error.
const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

// middlewareMetrics are registered on the caller's registry via WithMetrics.
type middlewareMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	capability prometheus.Gauge
}

func newMiddlewareMetrics(reg prometheus.Registerer) (*middlewareMetrics, error) {
	m := &middlewareMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attachdex",
			Subsystem: "middleware",
			Name:      "operations_total",
			Help:      "Middleware operations by name and outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "attachdex",
			Subsystem: "middleware",
			Name:      "operation_duration_seconds",
			Help:      "Middleware operation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		capability: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "attachdex",
			Subsystem: "middleware",
			Name:      "ingest_capability",
			Help:      "1 when the last capability refresh found the ingest-attachment plugin.",
		}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.capability); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers c, or swaps in the collector already registered under the same name.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("attachdex: metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("attachdex: register metric: %w", err)
	}
	return nil
}

// observer logs and counts middleware operations. A nil observer is a no-op.
type observer struct {
	logger  *zap.Logger
	metrics *middlewareMetrics
}

func newObserver(logger *zap.Logger, reg prometheus.Registerer) (*observer, error) {
	var m *middlewareMetrics
	if reg != nil {
		var err error
		m, err = newMiddlewareMetrics(reg)
		if err != nil {
			return nil, err
		}
	}
	return &observer{logger: logger, metrics: m}, nil
}

func (o *observer) record(op, outcome string, dur time.Duration) {
	if o.metrics == nil {
		return
	}
	o.metrics.operations.WithLabelValues(op, outcome).Inc()
	o.metrics.duration.WithLabelValues(op).Observe(dur.Seconds())
}

// enriched records one Enrich call by its load outcome. Skips are expected
// and logged at debug; a failed read is logged as a warning.
func (o *observer) enriched(docID, outcome string, start time.Time) {
	if o == nil {
		return
	}
	dur := time.Since(start)
	o.record(opEnrich, outcome, dur)

	if o.logger == nil {
		return
	}
	fields := []zap.Field{zap.String("doc_id", docID), zap.String("outcome", outcome), zap.Duration("duration", dur)}
	switch outcome {
	case load.OutcomeError:
		o.logger.Warn("Attachment content unavailable", fields...)
	case load.OutcomeLoaded:
		o.logger.Debug("Attachment content embedded", fields...)
	default:
		o.logger.Debug("Attachment content skipped", fields...)
	}
}

// provisioned records a pipeline or capability call against the cluster.
func (o *observer) provisioned(op string, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)
	outcome := outcomeOK
	if err != nil {
		outcome = outcomeError
	}
	o.record(op, outcome, dur)

	if o.logger == nil {
		return
	}
	if err != nil {
		o.logger.Warn("Operation failed", zap.String("op", op), zap.Duration("duration", dur), zap.Error(err))
		return
	}
	o.logger.Debug("Operation completed", zap.String("op", op), zap.Duration("duration", dur))
}

// capability publishes the last known ingest capability.
func (o *observer) capability(available bool) {
	if o == nil || o.metrics == nil {
		return
	}
	v := 0.0
	if available {
		v = 1
	}
	o.metrics.capability.Set(v)
}
