package loader

import (
	"context"

	domdoc "github.com/kailas-cloud/attachdex/internal/domain/document"
)

// FileResolver maps a document id to the path of its underlying file.
type FileResolver interface {
	Resolve(ctx context.Context, docID string) (string, error)
}

// Filesystem reads files by path.
type Filesystem interface {
	Exists(ctx context.Context, path string) bool
	Size(ctx context.Context, path string) (int64, error)
	GetContents(ctx context.Context, path string) ([]byte, error)
}

// SizeDecision receives the default verdict (false when the file is oversized)
// and returns the final one. Returning true loads the file regardless of size.
type SizeDecision func(allowed bool, path string, doc *domdoc.Document) bool
