package health

import "context"

// Pinger checks a dependency's availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CapabilityChecker reports whether the cluster can extract attachment text.
type CapabilityChecker interface {
	IsIngestCapabilityAvailable(ctx context.Context) bool
}
