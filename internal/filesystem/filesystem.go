// Package filesystem routes file access to the backend that owns a path.
package filesystem

import (
	"context"
	"path"
	"path/filepath"
	"strings"
)

const gcsScheme = "gs://"

// Backend is the file access contract used by the content loader.
type Backend interface {
	Exists(ctx context.Context, path string) bool
	Size(ctx context.Context, path string) (int64, error)
	GetContents(ctx context.Context, path string) ([]byte, error)
}

// Mux dispatches gs:// paths to a GCS backend and everything else to the local one.
type Mux struct {
	local Backend
	gcs   Backend
	root  string
}

// NewMux creates a dispatcher. gcs may be nil when no bucket is configured.
func NewMux(local, gcs Backend) *Mux {
	return &Mux{local: local, gcs: gcs}
}

// Confine limits the mux to paths under root. Anything else does not exist.
// An empty root leaves the mux unrestricted.
func (m *Mux) Confine(root string) *Mux {
	m.root = root
	return m
}

// Within reports whether p lies under root. Local and gs:// locations never
// contain each other. An empty root contains everything.
func Within(root, p string) bool {
	if root == "" {
		return true
	}
	rootGCS, pGCS := strings.HasPrefix(root, gcsScheme), strings.HasPrefix(p, gcsScheme)
	if rootGCS != pGCS {
		return false
	}
	if rootGCS {
		r := path.Clean(strings.TrimPrefix(root, gcsScheme))
		c := path.Clean(strings.TrimPrefix(p, gcsScheme))
		return c == r || strings.HasPrefix(c, r+"/")
	}
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(p))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (m *Mux) pick(p string) (Backend, error) {
	if !Within(m.root, p) {
		return nil, errOutsideRoot(p, m.root)
	}
	if strings.HasPrefix(p, gcsScheme) {
		if m.gcs == nil {
			return nil, errNoBackend(p)
		}
		return m.gcs, nil
	}
	if m.local == nil {
		return nil, errNoBackend(p)
	}
	return m.local, nil
}

// Exists reports whether path exists and is readable. Paths without a backend
// or outside the root do not exist.
func (m *Mux) Exists(ctx context.Context, p string) bool {
	b, err := m.pick(p)
	if err != nil {
		return false
	}
	return b.Exists(ctx, p)
}

// Size returns the file size in bytes.
func (m *Mux) Size(ctx context.Context, p string) (int64, error) {
	b, err := m.pick(p)
	if err != nil {
		return 0, err
	}
	return b.Size(ctx, p)
}

// GetContents reads the whole file.
func (m *Mux) GetContents(ctx context.Context, p string) ([]byte, error) {
	b, err := m.pick(p)
	if err != nil {
		return nil, err
	}
	return b.GetContents(ctx, p)
}
