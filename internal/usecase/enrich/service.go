// Package enrich embeds attachment file content into documents before indexing.
package enrich

import (
	"context"
	"encoding/base64"

	"go.uber.org/zap"

	domdoc "github.com/kailas-cloud/attachdex/internal/domain/document"
	"github.com/kailas-cloud/attachdex/internal/domain/load"
	"github.com/kailas-cloud/attachdex/internal/domain/sizepolicy"
	"github.com/kailas-cloud/attachdex/internal/metrics"
)

const outcomeNotAttachment = "not_attachment"

// Enricher writes the base64 file content into the attachment data field.
type Enricher struct {
	loader ContentLoader
	policy sizepolicy.Policy
	logger *zap.Logger
}

// New creates an enricher.
func New(loader ContentLoader, policy sizepolicy.Policy, logger *zap.Logger) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{loader: loader, policy: policy, logger: logger}
}

// Enrich sets attachment.data on doc and returns it. It never fails:
// documents without loadable content keep an empty string.
func (e *Enricher) Enrich(ctx context.Context, doc *domdoc.Document) *domdoc.Document {
	_, _ = e.EnrichOutcome(ctx, doc)
	return doc
}

// EnrichOutcome is Enrich that also reports the load outcome
// ("loaded", a skip reason, "error" or "not_attachment").
func (e *Enricher) EnrichOutcome(ctx context.Context, doc *domdoc.Document) (*domdoc.Document, string) {
	doc.Set(domdoc.AttachmentDataField, "")

	if !doc.IsAttachment() {
		metrics.EnrichmentsTotal.WithLabelValues(outcomeNotAttachment).Inc()
		return doc, outcomeNotAttachment
	}

	res := e.loader.Load(ctx, doc, e.policy)
	outcome := res.Outcome()
	metrics.EnrichmentsTotal.WithLabelValues(outcome).Inc()

	switch res.Kind() {
	case load.KindBytes:
		content := res.Content()
		doc.Set(domdoc.AttachmentDataField, base64.StdEncoding.EncodeToString(content))
		metrics.EnrichedBytesTotal.Add(float64(len(content)))
	case load.KindSkipped:
		e.logger.Debug("Attachment content skipped",
			zap.String("doc_id", doc.ID()),
			zap.String("reason", string(res.Reason())),
		)
	case load.KindError:
		e.logger.Warn("Attachment content load failed",
			zap.String("doc_id", doc.ID()),
			zap.Error(res.Err()),
		)
	}
	return doc, outcome
}
