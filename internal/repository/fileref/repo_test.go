package fileref

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/attachdex/internal/db"
	"github.com/kailas-cloud/attachdex/internal/domain"
)

type mockStore struct {
	data   map[string][]byte
	getErr error
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) Set(_ context.Context, key string, value []byte) error {
	m.data[key] = value
	return nil
}

func (m *mockStore) Del(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func newRepo() (*Repo, *mockStore) {
	ms := &mockStore{data: map[string][]byte{}}
	return New(ms, "attachdex:"), ms
}

func TestRegisterResolve(t *testing.T) {
	r, ms := newRepo()
	ctx := context.Background()

	if err := r.Register(ctx, "42", "/srv/uploads/2024/report.pdf"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, ok := ms.data["attachdex:file:42"]; !ok {
		t.Errorf("unexpected keys: %v", ms.data)
	}

	path, err := r.Resolve(ctx, "42")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if path != "/srv/uploads/2024/report.pdf" {
		t.Errorf("path = %q", path)
	}
}

func TestResolve_NotRegistered(t *testing.T) {
	r, _ := newRepo()
	_, err := r.Resolve(context.Background(), "missing")
	if !errors.Is(err, domain.ErrFileNotResolved) {
		t.Errorf("expected ErrFileNotResolved, got %v", err)
	}
}

func TestResolve_StoreError(t *testing.T) {
	r, ms := newRepo()
	ms.getErr = errors.New("timeout")
	_, err := r.Resolve(context.Background(), "42")
	if err == nil || errors.Is(err, domain.ErrFileNotResolved) {
		t.Errorf("expected store error, got %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	r, _ := newRepo()
	if err := r.Register(context.Background(), "", "/x"); !errors.Is(err, domain.ErrInvalidDocument) {
		t.Errorf("empty id: got %v", err)
	}
	if err := r.Register(context.Background(), "1", ""); !errors.Is(err, domain.ErrInvalidDocument) {
		t.Errorf("empty path: got %v", err)
	}
}

func TestUnregister(t *testing.T) {
	r, ms := newRepo()
	ctx := context.Background()
	_ = r.Register(ctx, "42", "/a")
	if err := r.Unregister(ctx, "42"); err != nil {
		t.Fatalf("Unregister: %v", err)
	}
	if len(ms.data) != 0 {
		t.Errorf("data = %v", ms.data)
	}
}

func TestRegister_OutsideRoot(t *testing.T) {
	r, ms := newRepo()
	r.WithRoot("/srv/uploads")
	ctx := context.Background()

	for _, p := range []string{"/etc/passwd", "/srv/uploads/../../etc/shadow", "gs://bucket/a.pdf"} {
		if err := r.Register(ctx, "42", p); !errors.Is(err, domain.ErrInvalidDocument) {
			t.Errorf("Register(%q) err = %v", p, err)
		}
	}
	if len(ms.data) != 0 {
		t.Errorf("rejected paths stored: %v", ms.data)
	}
	if err := r.Register(ctx, "42", "/srv/uploads/2024/report.pdf"); err != nil {
		t.Errorf("inside root: %v", err)
	}
}
