package configsync

import (
	"context"

	"github.com/kailas-cloud/attachdex/internal/domain/mapping"
	"github.com/kailas-cloud/attachdex/internal/domain/pipeline"
)

// Provisioner installs the ingest pipeline and refreshes the capability flag.
type Provisioner interface {
	EnsurePipeline(ctx context.Context, d pipeline.Descriptor) error
	RefreshCapability(ctx context.Context) (bool, error)
}

// MappingWriter creates the index with the given mapping or updates its properties.
type MappingWriter interface {
	ApplyMapping(ctx context.Context, index string, m mapping.Mapping) error
}
