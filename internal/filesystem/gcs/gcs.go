// Package gcs reads attachment files stored as Google Cloud Storage objects (gs://bucket/key).
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"cloud.google.com/go/storage"
)

// objects is the narrow object-store contract (ISP).
type objects interface {
	Size(ctx context.Context, bucket, name string) (int64, error)
	Read(ctx context.Context, bucket, name string) ([]byte, error)
}

// FS serves gs:// paths.
type FS struct {
	objects objects
}

// New creates a GCS backend on top of a storage client.
func New(client *storage.Client) *FS {
	return &FS{objects: &clientObjects{client: client}}
}

// Exists reports whether the object exists.
func (f *FS) Exists(ctx context.Context, path string) bool {
	_, err := f.Size(ctx, path)
	return err == nil
}

// Size returns the object size in bytes.
func (f *FS) Size(ctx context.Context, path string) (int64, error) {
	bucket, name, err := ParsePath(path)
	if err != nil {
		return 0, err
	}
	n, err := f.objects.Size(ctx, bucket, name)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	return n, nil
}

// GetContents downloads the whole object.
func (f *FS) GetContents(ctx context.Context, path string) ([]byte, error) {
	bucket, name, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	data, err := f.objects.Read(ctx, bucket, name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// ParsePath splits gs://bucket/object into its parts.
func ParsePath(path string) (bucket, name string, err error) {
	rest, ok := strings.CutPrefix(path, "gs://")
	if !ok {
		return "", "", fmt.Errorf("not a gs:// path: %q", path)
	}
	bucket, name, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || name == "" {
		return "", "", fmt.Errorf("gs path %q must be gs://bucket/object", path)
	}
	return bucket, name, nil
}

type clientObjects struct {
	client *storage.Client
}

func (c *clientObjects) Size(ctx context.Context, bucket, name string) (int64, error) {
	attrs, err := c.client.Bucket(bucket).Object(name).Attrs(ctx)
	if err != nil {
		return 0, mapErr(err)
	}
	return attrs.Size, nil
}

func (c *clientObjects) Read(ctx context.Context, bucket, name string) ([]byte, error) {
	r, err := c.client.Bucket(bucket).Object(name).NewReader(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	return data, nil
}

func mapErr(err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return fmt.Errorf("%w: %w", fs.ErrNotExist, err)
	}
	return err
}
