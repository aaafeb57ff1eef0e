package enrich

import (
	"context"

	domdoc "github.com/kailas-cloud/attachdex/internal/domain/document"
	"github.com/kailas-cloud/attachdex/internal/domain/load"
	"github.com/kailas-cloud/attachdex/internal/domain/sizepolicy"
)

// ContentLoader loads attachment file content.
type ContentLoader interface {
	Load(ctx context.Context, doc *domdoc.Document, policy sizepolicy.Policy) load.Result
}
