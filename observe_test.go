package attachdex

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	zapobserver "go.uber.org/zap/zaptest/observer"
)

func TestWithMetrics_CountsProvisioning(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, ingest := newMiddleware(t, nil, WithMetrics(reg))
	ctx := context.Background()

	if err := m.EnsurePipeline(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ingest.err = errors.New("unreachable")
	_ = m.EnsurePipeline(ctx)

	ops := m.obs.metrics.operations
	if got := testutil.ToFloat64(ops.WithLabelValues(opEnsurePipeline, "ok")); got != 1 {
		t.Errorf("ensure_pipeline ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(ops.WithLabelValues(opEnsurePipeline, "error")); got != 1 {
		t.Errorf("ensure_pipeline error = %v, want 1", got)
	}
}

func TestWithMetrics_CountsEnrichByLoadOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, _ := newMiddleware(t, map[string][]byte{
		"small": []byte("%PDF"),
		"big":   []byte("%PDF-1.7 too large"),
	}, WithMetrics(reg), WithMaxFileSize(8))
	ctx := context.Background()

	m.Enrich(ctx, mustDoc(t, "small", "attachment", "application/pdf"))
	m.Enrich(ctx, mustDoc(t, "big", "attachment", "application/pdf"))
	m.Enrich(ctx, mustDoc(t, "gone", "attachment", "application/pdf"))
	m.Enrich(ctx, mustDoc(t, "p1", "post", ""))

	ops := m.obs.metrics.operations
	for _, outcome := range []string{"loaded", "too_large", "file_missing", "not_attachment"} {
		if got := testutil.ToFloat64(ops.WithLabelValues(opEnrich, outcome)); got != 1 {
			t.Errorf("enrich %s = %v, want 1", outcome, got)
		}
	}
	if got := testutil.ToFloat64(ops.WithLabelValues(opEnrich, "ok")); got != 0 {
		t.Errorf("skips collapsed into ok: %v", got)
	}
}

func TestWithMetrics_CapabilityGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, ingest := newMiddleware(t, nil, WithMetrics(reg))
	ctx := context.Background()

	ingest.plugins = []string{"ingest-attachment"}
	if _, err := m.RefreshCapability(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := testutil.ToFloat64(m.obs.metrics.capability); got != 1 {
		t.Errorf("capability = %v, want 1", got)
	}

	ingest.plugins = nil
	_, _ = m.RefreshCapability(ctx)
	if got := testutil.ToFloat64(m.obs.metrics.capability); got != 0 {
		t.Errorf("capability = %v, want 0", got)
	}
}

func TestWithMetrics_ReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, _ := newMiddleware(t, nil, WithMetrics(reg))
	b, _ := newMiddleware(t, nil, WithMetrics(reg))

	if a.obs.metrics.operations != b.obs.metrics.operations {
		t.Error("second middleware should reuse the registered counter")
	}
	if a.obs.metrics.capability != b.obs.metrics.capability {
		t.Error("second middleware should reuse the registered gauge")
	}
}

func TestObserver_LogsByOutcome(t *testing.T) {
	core, logs := zapobserver.New(zapcore.DebugLevel)
	o, err := newObserver(zap.New(core), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	o.provisioned(opRefreshCapability, time.Now(), errors.New("boom"))
	o.provisioned(opEnsurePipeline, time.Now(), nil)
	o.enriched("1", "loaded", time.Now())
	o.enriched("2", "too_large", time.Now())
	o.enriched("3", "error", time.Now())

	if n := logs.FilterMessage("Operation failed").Len(); n != 1 {
		t.Errorf("failure logs = %d, want 1", n)
	}
	if n := logs.FilterMessage("Operation completed").Len(); n != 1 {
		t.Errorf("completion logs = %d, want 1", n)
	}
	skipped := logs.FilterMessage("Attachment content skipped").All()
	if len(skipped) != 1 || skipped[0].ContextMap()["outcome"] != "too_large" {
		t.Errorf("skipped logs = %v", skipped)
	}
	warned := logs.FilterMessage("Attachment content unavailable").All()
	if len(warned) != 1 || warned[0].Level != zapcore.WarnLevel || warned[0].ContextMap()["doc_id"] != "3" {
		t.Errorf("unavailable logs = %v", warned)
	}
}

func TestObserver_NilIsNoop(t *testing.T) {
	var o *observer
	o.provisioned(opEnrich, time.Now(), errors.New("ignored"))
	o.enriched("1", "error", time.Now())
	o.capability(true)
}
