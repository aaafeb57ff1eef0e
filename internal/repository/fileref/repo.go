// Package fileref is the id -> file path registry for attachment documents.
package fileref

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/attachdex/internal/db"
	"github.com/kailas-cloud/attachdex/internal/domain"
	"github.com/kailas-cloud/attachdex/internal/filesystem"
)

const fileKeyPrefix = "file:"

// store is the consumer interface for the registry (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
}

// Repo stores file paths under {prefix}file:{id}.
type Repo struct {
	store  store
	prefix string
	root   string
}

// New creates a file reference repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix}
}

// WithRoot restricts Register to paths under root.
func (r *Repo) WithRoot(root string) *Repo {
	r.root = root
	return r
}

// Resolve returns the file path registered for a document.
// Returns domain.ErrFileNotResolved when nothing is registered.
func (r *Repo) Resolve(ctx context.Context, docID string) (string, error) {
	data, err := r.store.Get(ctx, r.key(docID))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return "", fmt.Errorf("document %s: %w", docID, domain.ErrFileNotResolved)
		}
		return "", fmt.Errorf("resolve file %s: %w", docID, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("document %s: %w", docID, domain.ErrFileNotResolved)
	}
	return string(data), nil
}

// Register maps a document to a file path, replacing any previous mapping.
func (r *Repo) Register(ctx context.Context, docID, path string) error {
	if docID == "" || path == "" {
		return fmt.Errorf("document id and path are required: %w", domain.ErrInvalidDocument)
	}
	if !filesystem.Within(r.root, path) {
		return fmt.Errorf("path %s is outside %s: %w", path, r.root, domain.ErrInvalidDocument)
	}
	if err := r.store.Set(ctx, r.key(docID), []byte(path)); err != nil {
		return fmt.Errorf("register file %s: %w", docID, err)
	}
	return nil
}

// Unregister removes the mapping for a document.
func (r *Repo) Unregister(ctx context.Context, docID string) error {
	if err := r.store.Del(ctx, r.key(docID)); err != nil {
		return fmt.Errorf("unregister file %s: %w", docID, err)
	}
	return nil
}

func (r *Repo) key(docID string) string {
	return r.prefix + fileKeyPrefix + docID
}
