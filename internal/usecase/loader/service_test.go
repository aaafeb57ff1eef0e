package loader

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kailas-cloud/attachdex/internal/domain"
	domdoc "github.com/kailas-cloud/attachdex/internal/domain/document"
	"github.com/kailas-cloud/attachdex/internal/domain/load"
	"github.com/kailas-cloud/attachdex/internal/domain/sizepolicy"
	"github.com/kailas-cloud/attachdex/internal/filesystem/local"
	"github.com/kailas-cloud/attachdex/internal/resolver"
)

// --- Mocks ---

type mockResolver struct {
	paths map[string]string
	err   error
}

func (m *mockResolver) Resolve(_ context.Context, docID string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	p, ok := m.paths[docID]
	if !ok {
		return "", domain.ErrFileNotResolved
	}
	return p, nil
}

type mockFS struct {
	files   map[string][]byte
	sizes   map[string]int64 // overrides len(files[p])
	readErr error
	reads   int
}

func (m *mockFS) Exists(_ context.Context, p string) bool {
	_, ok := m.files[p]
	return ok
}

func (m *mockFS) Size(_ context.Context, p string) (int64, error) {
	if s, ok := m.sizes[p]; ok {
		return s, nil
	}
	b, ok := m.files[p]
	if !ok {
		return 0, os.ErrNotExist
	}
	return int64(len(b)), nil
}

func (m *mockFS) GetContents(_ context.Context, p string) ([]byte, error) {
	m.reads++
	if m.readErr != nil {
		return nil, m.readErr
	}
	return m.files[p], nil
}

func attachment(t *testing.T, id string) *domdoc.Document {
	t.Helper()
	d, err := domdoc.New(id, domdoc.TypeAttachment, "application/pdf", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return &d
}

func setup(content []byte, size int64) (*mockResolver, *mockFS) {
	r := &mockResolver{paths: map[string]string{"1": "/files/report.pdf"}}
	fs := &mockFS{files: map[string][]byte{"/files/report.pdf": content}}
	if size > 0 {
		fs.sizes = map[string]int64{"/files/report.pdf": size}
	}
	return r, fs
}

// --- Tests ---

func TestLoad_Bytes(t *testing.T) {
	content := bytes.Repeat([]byte{0x25}, 100)
	r, fs := setup(content, 0)
	l := New(r, fs, nil)

	res := l.Load(context.Background(), attachment(t, "1"), sizepolicy.Default())
	if res.Kind() != load.KindBytes {
		t.Fatalf("expected bytes, got %s", res.Outcome())
	}
	if !bytes.Equal(res.Content(), content) {
		t.Error("content mismatch")
	}
}

func TestLoad_ResolverMiss(t *testing.T) {
	r, fs := setup([]byte("x"), 0)
	l := New(r, fs, nil)

	res := l.Load(context.Background(), attachment(t, "unknown"), sizepolicy.Default())
	if res.Kind() != load.KindSkipped || res.Reason() != load.FileMissing {
		t.Errorf("expected skipped(file_missing), got %s", res.Outcome())
	}
}

func TestLoad_ResolverFailure(t *testing.T) {
	r, fs := setup([]byte("x"), 0)
	r.err = errors.New("registry unavailable")
	l := New(r, fs, nil)

	res := l.Load(context.Background(), attachment(t, "1"), sizepolicy.Default())
	if res.Kind() != load.KindError {
		t.Errorf("expected error, got %s", res.Outcome())
	}
}

func TestLoad_FileAbsent(t *testing.T) {
	r, fs := setup([]byte("x"), 0)
	fs.files = map[string][]byte{}
	l := New(r, fs, nil)

	res := l.Load(context.Background(), attachment(t, "1"), sizepolicy.Default())
	if res.Reason() != load.FileMissing {
		t.Errorf("expected file_missing, got %s", res.Outcome())
	}
	if fs.reads != 0 {
		t.Error("absent file must not be read")
	}
}

func TestLoad_TooLarge(t *testing.T) {
	r, fs := setup([]byte("x"), 6_000_000)
	l := New(r, fs, nil)

	res := l.Load(context.Background(), attachment(t, "1"), sizepolicy.Default())
	if res.Kind() != load.KindSkipped || res.Reason() != load.TooLarge {
		t.Errorf("expected skipped(too_large), got %s", res.Outcome())
	}
	if fs.reads != 0 {
		t.Error("oversized file must not be read")
	}
}

func TestLoad_SizeBoundary(t *testing.T) {
	tests := []struct {
		name string
		size int64
		want string
	}{
		{"just below", sizepolicy.DefaultMaxFileSizeBytes - 1, "loaded"},
		{"exactly max", sizepolicy.DefaultMaxFileSizeBytes, "too_large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, fs := setup([]byte("x"), tt.size)
			res := New(r, fs, nil).Load(context.Background(), attachment(t, "1"), sizepolicy.Default())
			if res.Outcome() != tt.want {
				t.Errorf("Outcome() = %q, want %q", res.Outcome(), tt.want)
			}
		})
	}
}

func TestLoad_HookOverridesSize(t *testing.T) {
	r, fs := setup([]byte("big"), 6_000_000)
	var gotPath string
	var gotAllowed bool
	hook := func(allowed bool, p string, _ *domdoc.Document) bool {
		gotPath, gotAllowed = p, allowed
		return true
	}

	res := New(r, fs, hook).Load(context.Background(), attachment(t, "1"), sizepolicy.Default())
	if !res.OK() {
		t.Fatalf("expected bytes, got %s", res.Outcome())
	}
	if gotAllowed {
		t.Error("hook should receive allowed=false for oversized file")
	}
	if gotPath != "/files/report.pdf" {
		t.Errorf("hook path = %q", gotPath)
	}
}

func TestLoad_HookExcludesSmallFile(t *testing.T) {
	r, fs := setup([]byte("small"), 0)
	hook := func(bool, string, *domdoc.Document) bool { return false }

	res := New(r, fs, hook).Load(context.Background(), attachment(t, "1"), sizepolicy.Default())
	if res.Reason() != load.PolicyExcluded {
		t.Errorf("expected policy_excluded, got %s", res.Outcome())
	}
}

func TestLoad_ReadError(t *testing.T) {
	r, fs := setup([]byte("x"), 0)
	fs.readErr = errors.New("disk failure")

	res := New(r, fs, nil).Load(context.Background(), attachment(t, "1"), sizepolicy.Default())
	if res.Kind() != load.KindError {
		t.Fatalf("expected error, got %s", res.Outcome())
	}
	if !errors.Is(res.Err(), domain.ErrIO) {
		t.Errorf("expected ErrIO, got %v", res.Err())
	}
	if !errors.Is(res.Err(), fs.readErr) {
		t.Errorf("expected wrapped cause, got %v", res.Err())
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	r, fs := setup([]byte{}, 0)

	res := New(r, fs, nil).Load(context.Background(), attachment(t, "1"), sizepolicy.Default())
	if !res.OK() {
		t.Fatalf("expected bytes, got %s", res.Outcome())
	}
	if len(res.Content()) != 0 {
		t.Errorf("expected empty content, got %d bytes", len(res.Content()))
	}
}

func TestLoad_LocalDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "7.pdf"), []byte("%PDF-1.7"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	l := New(resolver.NewDir(dir, ".pdf"), local.New(dir), nil)

	res := l.Load(context.Background(), attachment(t, "7"), sizepolicy.Default())
	if string(res.Content()) != "%PDF-1.7" {
		t.Errorf("expected file content, got %s", res.Outcome())
	}

	res = l.Load(context.Background(), attachment(t, "8"), sizepolicy.Default())
	if res.Reason() != load.FileMissing {
		t.Errorf("expected file_missing, got %s", res.Outcome())
	}
}
