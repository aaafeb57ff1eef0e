package indexing

import (
	"context"

	"github.com/kailas-cloud/attachdex/internal/domain/batch"
	domdoc "github.com/kailas-cloud/attachdex/internal/domain/document"
)

// Filter decides whether a document is indexed at all.
type Filter interface {
	IsEligible(doc *domdoc.Document) bool
}

// Enricher embeds attachment content and reports the load outcome.
type Enricher interface {
	EnrichOutcome(ctx context.Context, doc *domdoc.Document) (*domdoc.Document, string)
}

// Router adds the ingest pipeline to request paths.
type Router interface {
	RouteSinglePath(path string, doc *domdoc.Document) string
	RouteBulkPath(path string) string
}

// Client sends routed requests to the search cluster.
type Client interface {
	Index(ctx context.Context, path string, body []byte) error
	Bulk(ctx context.Context, path string, body []byte) ([]batch.ItemResponse, error)
}
