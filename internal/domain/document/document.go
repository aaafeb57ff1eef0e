package document

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/kailas-cloud/attachdex/internal/domain"
)

// TypeAttachment is the document type of uploaded binary files.
const TypeAttachment = "attachment"

// AttachmentDataField is the payload field the ingest processor reads.
const AttachmentDataField = "attachment.data"

// Document is one indexable unit. The payload is built incrementally by
// enrichment stages and mutated in place.
type Document struct {
	id       string
	docType  string
	mimeType string
	payload  map[string]any
}

// New validates and creates a Document.
// ID and type are required; mime type may be empty for non-attachment types.
func New(id, docType, mimeType string, payload map[string]any) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("document ID is required: %w", domain.ErrInvalidDocument)
	}
	if len(id) > 512 {
		return Document{}, fmt.Errorf("document ID too long (max 512): %w", domain.ErrInvalidDocument)
	}
	if docType == "" {
		return Document{}, fmt.Errorf("document type is required: %w", domain.ErrInvalidDocument)
	}

	return Document{
		id:       id,
		docType:  docType,
		mimeType: mimeType,
		payload:  clonePayload(payload),
	}, nil
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Type returns the content category, e.g. "attachment".
func (d *Document) Type() string { return d.docType }

// MimeType returns the declared mime type.
func (d *Document) MimeType() string { return d.mimeType }

// IsAttachment reports whether the document is an attachment.
func (d *Document) IsAttachment() bool { return d.docType == TypeAttachment }

// Payload returns the mutable payload map.
func (d *Document) Payload() map[string]any {
	if d.payload == nil {
		d.payload = make(map[string]any)
	}
	return d.payload
}

// Set sets a payload field.
func (d *Document) Set(field string, value any) { d.Payload()[field] = value }

// Get returns a payload field.
func (d *Document) Get(field string) (any, bool) {
	v, ok := d.payload[field]
	return v, ok
}

// AttachmentData returns the encoded attachment content and whether the field is present.
func (d *Document) AttachmentData() (string, bool) {
	v, ok := d.payload[AttachmentDataField]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Source renders the payload as an index source. Dotted keys are expanded
// into nested objects: "attachment.data" becomes {"attachment": {"data": ...}}.
// A dotted key never overwrites a non-object value set under its prefix,
// except attachment.data, which replaces whatever the payload holds under
// "attachment" so the ingest processor always finds its input.
func (d *Document) Source() map[string]any {
	out := make(map[string]any, len(d.payload))
	for k, v := range d.payload {
		if !strings.Contains(k, ".") {
			out[k] = v
		}
	}
	for _, k := range slices.Sorted(maps.Keys(d.payload)) {
		if strings.Contains(k, ".") && k != AttachmentDataField {
			setPath(out, strings.Split(k, "."), d.payload[k], false)
		}
	}
	if v, ok := d.payload[AttachmentDataField]; ok {
		setPath(out, strings.Split(AttachmentDataField, "."), v, true)
	}
	return out
}

// setPath stores v under the nested path. With replace set, non-object values
// along the path are overwritten; otherwise the write is dropped.
func setPath(m map[string]any, parts []string, v any, replace bool) {
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			if _, taken := m[p]; taken && !replace {
				return
			}
			next = make(map[string]any)
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = v
}

func clonePayload(m map[string]any) map[string]any {
	c := make(map[string]any, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
