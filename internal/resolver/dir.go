// Package resolver maps attachment documents to the files that hold their content.
package resolver

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/kailas-cloud/attachdex/internal/domain"
)

// Dir resolves a document to {root}/{id}, optionally with a fixed suffix.
// Root may be a local directory or a gs://bucket/prefix location.
type Dir struct {
	root   string
	suffix string
}

// NewDir creates a directory resolver.
func NewDir(root, suffix string) *Dir {
	return &Dir{root: root, suffix: suffix}
}

// Resolve implements loader.FileResolver.
func (d *Dir) Resolve(_ context.Context, docID string) (string, error) {
	if docID == "" || strings.ContainsAny(docID, `/\`) || docID == "." || docID == ".." {
		return "", fmt.Errorf("document id %q: %w", docID, domain.ErrFileNotResolved)
	}
	name := docID + d.suffix
	if strings.Contains(d.root, "://") {
		return strings.TrimSuffix(d.root, "/") + "/" + path.Clean(name), nil
	}
	return filepath.Join(d.root, name), nil
}
