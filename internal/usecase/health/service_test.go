package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockCapability struct {
	available bool
	calls     int
}

func (m *mockCapability) IsIngestCapabilityAvailable(_ context.Context) bool {
	m.calls++
	return m.available
}

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockPinger{}, &mockPinger{}, &mockCapability{available: true})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, name := range []string{"search", "database", "ingest_attachment"} {
		if r.Checks[name] != CheckOK {
			t.Errorf("expected %s %q, got %q", name, CheckOK, r.Checks[name])
		}
	}
}

func TestCheck_DatabaseDown(t *testing.T) {
	svc := New(&mockPinger{}, &mockPinger{err: errors.New("connection refused")}, nil)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["database"] != CheckError {
		t.Errorf("expected database %q, got %q", CheckError, r.Checks["database"])
	}
}

func TestCheck_PluginMissing(t *testing.T) {
	svc := New(&mockPinger{}, nil, &mockCapability{})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["ingest_attachment"] != CheckUnavailable {
		t.Errorf("expected %q, got %q", CheckUnavailable, r.Checks["ingest_attachment"])
	}
}

func TestCheck_SearchDown(t *testing.T) {
	capability := &mockCapability{available: true}
	svc := New(&mockPinger{err: errors.New("timeout")}, nil, capability)
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
	if capability.calls != 0 {
		t.Error("capability must not be checked while search is down")
	}
	if _, ok := r.Checks["database"]; ok {
		t.Error("database check should be absent when nil")
	}
}
