// Package local reads attachment files from the local filesystem.
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FS reads files from disk. An optional root confines access to one directory tree.
type FS struct {
	root string
}

// New creates a local filesystem backend. root may be empty for unrestricted access.
func New(root string) *FS {
	if root != "" {
		root = filepath.Clean(root)
	}
	return &FS{root: root}
}

// Exists reports whether path is a regular file that can be opened for reading.
func (f *FS) Exists(_ context.Context, path string) bool {
	p, err := f.confine(path)
	if err != nil {
		return false
	}
	info, err := os.Stat(p)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	fh, err := os.Open(p)
	if err != nil {
		return false
	}
	_ = fh.Close()
	return true
}

// Size returns the file size in bytes.
func (f *FS) Size(_ context.Context, path string) (int64, error) {
	p, err := f.confine(path)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.Size(), nil
}

// GetContents reads the whole file.
func (f *FS) GetContents(_ context.Context, path string) ([]byte, error) {
	p, err := f.confine(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func (f *FS) confine(path string) (string, error) {
	p := filepath.Clean(path)
	if f.root == "" {
		return p, nil
	}
	rel, err := filepath.Rel(f.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s outside of %s: %w", path, f.root, os.ErrPermission)
	}
	return p, nil
}
