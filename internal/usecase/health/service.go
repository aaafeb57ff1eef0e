package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates the search cluster is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckUnavailable indicates a reachable component missing an optional feature.
	CheckUnavailable CheckResult = "unavailable"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	search     Pinger
	db         Pinger
	capability CapabilityChecker
}

// New creates a Service. db and capability can be nil.
func New(search, db Pinger, capability CapabilityChecker) *Service {
	return &Service{search: search, db: db, capability: capability}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	searchOK := s.search.Ping(ctx) == nil
	checks["search"] = result(searchOK)

	if s.db != nil {
		checks["database"] = result(s.db.Ping(ctx) == nil)
	}

	if s.capability != nil && searchOK {
		if s.capability.IsIngestCapabilityAvailable(ctx) {
			checks["ingest_attachment"] = CheckOK
		} else {
			checks["ingest_attachment"] = CheckUnavailable
		}
	}

	status := Healthy
	if !searchOK {
		status = Unhealthy
	} else {
		for _, v := range checks {
			if v != CheckOK {
				status = Degraded
				break
			}
		}
	}

	return Report{Status: status, Checks: checks}
}

func result(ok bool) CheckResult {
	if ok {
		return CheckOK
	}
	return CheckError
}
