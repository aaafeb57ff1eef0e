// Package pipeline describes the remote ingest pipeline that extracts attachment content.
package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/attachdex/internal/domain/document"
)

// Default pipeline settings.
const (
	DefaultName        = "attachment"
	DefaultDescription = "Extract attachment contents"
)

// Descriptor names the ingest pipeline and the payload field its processor reads.
type Descriptor struct {
	name           string
	processorField string
	description    string
}

// New creates a descriptor. An empty name falls back to DefaultName.
// The processor field is fixed to document.AttachmentDataField.
func New(name string) Descriptor {
	if name == "" {
		name = DefaultName
	}
	return Descriptor{
		name:           name,
		processorField: document.AttachmentDataField,
		description:    DefaultDescription,
	}
}

// WithDescription returns a copy with the description replaced.
func (d Descriptor) WithDescription(desc string) Descriptor {
	if desc != "" {
		d.description = desc
	}
	return d
}

// Name returns the pipeline name.
func (d Descriptor) Name() string { return d.name }

// ProcessorField returns the field the attachment processor reads.
func (d Descriptor) ProcessorField() string { return d.processorField }

// Description returns the human readable description.
func (d Descriptor) Description() string { return d.description }

// Definition is the JSON body of a put-pipeline request.
type Definition struct {
	Description string      `json:"description,omitempty"`
	Processors  []Processor `json:"processors"`
}

// Processor is a single ingest processor stage.
type Processor struct {
	Attachment *AttachmentProcessor `json:"attachment,omitempty"`
}

// AttachmentProcessor configures the ingest-attachment processor.
type AttachmentProcessor struct {
	Field string `json:"field"`
}

// Definition renders the pipeline definition with a single attachment processor.
func (d Descriptor) Definition() Definition {
	return Definition{
		Description: d.description,
		Processors: []Processor{
			{Attachment: &AttachmentProcessor{Field: d.processorField}},
		},
	}
}

// Body renders the pipeline definition as JSON.
func (d Descriptor) Body() ([]byte, error) {
	b, err := json.Marshal(d.Definition())
	if err != nil {
		return nil, fmt.Errorf("marshal pipeline %s: %w", d.name, err)
	}
	return b, nil
}
