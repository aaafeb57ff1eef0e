package chi

import (
	"context"

	"github.com/kailas-cloud/attachdex/internal/domain/batch"
	domdoc "github.com/kailas-cloud/attachdex/internal/domain/document"
	configsyncuc "github.com/kailas-cloud/attachdex/internal/usecase/configsync"
	healthuc "github.com/kailas-cloud/attachdex/internal/usecase/health"
)

// Indexer runs documents through enrichment and indexing.
type Indexer interface {
	IndexOne(ctx context.Context, doc *domdoc.Document) (bool, error)
	IndexBulk(ctx context.Context, docs []*domdoc.Document) ([]batch.Result, error)
	MaxBatchSize() int
}

// FileRegistry maps document ids to file paths.
type FileRegistry interface {
	Register(ctx context.Context, docID, path string) error
	Unregister(ctx context.Context, docID string) error
}

// Syncer pushes configuration to the search cluster.
type Syncer interface {
	Sync(ctx context.Context) configsyncuc.Report
}

// Capability reports and refreshes the ingest capability flag.
type Capability interface {
	IsIngestCapabilityAvailable(ctx context.Context) bool
	RefreshCapability(ctx context.Context) (bool, error)
}

// HealthChecker aggregates dependency health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
