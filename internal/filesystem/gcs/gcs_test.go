package gcs

import (
	"context"
	"errors"
	"io/fs"
	"testing"
)

type fakeObjects struct {
	data map[string][]byte
}

func (f *fakeObjects) Size(_ context.Context, bucket, name string) (int64, error) {
	b, ok := f.data[bucket+"/"+name]
	if !ok {
		return 0, fs.ErrNotExist
	}
	return int64(len(b)), nil
}

func (f *fakeObjects) Read(_ context.Context, bucket, name string) ([]byte, error) {
	b, ok := f.data[bucket+"/"+name]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return b, nil
}

func newFake() *FS {
	return &FS{objects: &fakeObjects{data: map[string][]byte{
		"media/uploads/a.pdf": []byte("%PDF-1.7"),
	}}}
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		in         string
		bucket     string
		name       string
		shouldFail bool
	}{
		{"gs://media/uploads/a.pdf", "media", "uploads/a.pdf", false},
		{"gs://media/a", "media", "a", false},
		{"gs://media", "", "", true},
		{"gs://media/", "", "", true},
		{"gs:///a", "", "", true},
		{"/local/a.pdf", "", "", true},
	}
	for _, tc := range tests {
		b, n, err := ParsePath(tc.in)
		if tc.shouldFail {
			if err == nil {
				t.Errorf("ParsePath(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil || b != tc.bucket || n != tc.name {
			t.Errorf("ParsePath(%q) = %q, %q, %v", tc.in, b, n, err)
		}
	}
}

func TestFS_ExistsSizeContents(t *testing.T) {
	f := newFake()
	ctx := context.Background()

	if !f.Exists(ctx, "gs://media/uploads/a.pdf") {
		t.Error("expected object to exist")
	}
	if f.Exists(ctx, "gs://media/uploads/b.pdf") {
		t.Error("missing object reported as existing")
	}
	if n, err := f.Size(ctx, "gs://media/uploads/a.pdf"); err != nil || n != 8 {
		t.Errorf("Size() = %d, %v", n, err)
	}
	data, err := f.GetContents(ctx, "gs://media/uploads/a.pdf")
	if err != nil || string(data) != "%PDF-1.7" {
		t.Errorf("GetContents() = %q, %v", data, err)
	}
}

func TestFS_Missing(t *testing.T) {
	_, err := newFake().GetContents(context.Background(), "gs://media/none")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("err = %v, want ErrNotExist", err)
	}
}
