// Package eligibility decides which documents take part in attachment enrichment.
package eligibility

import (
	domdoc "github.com/kailas-cloud/attachdex/internal/domain/document"
	"github.com/kailas-cloud/attachdex/internal/domain/mime"
)

// Filter accepts every non-attachment document and attachments whose
// mime type is on the allowlist.
type Filter struct {
	allowed mime.Allowlist
}

// New creates a filter over the given allowlist.
func New(allowed mime.Allowlist) *Filter {
	return &Filter{allowed: allowed}
}

// IsEligible reports whether doc should be indexed.
func (f *Filter) IsEligible(doc *domdoc.Document) bool {
	if !doc.IsAttachment() {
		return true
	}
	return f.allowed.Contains(doc.MimeType())
}
