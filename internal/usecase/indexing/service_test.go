package indexing

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/kailas-cloud/attachdex/internal/domain"
	"github.com/kailas-cloud/attachdex/internal/domain/batch"
	domdoc "github.com/kailas-cloud/attachdex/internal/domain/document"
	"github.com/kailas-cloud/attachdex/internal/domain/mime"
	"github.com/kailas-cloud/attachdex/internal/usecase/eligibility"
	"github.com/kailas-cloud/attachdex/internal/usecase/route"
)

// --- Mocks ---

type mockEnricher struct {
	mu    sync.Mutex
	calls int
}

func (m *mockEnricher) EnrichOutcome(_ context.Context, d *domdoc.Document) (*domdoc.Document, string) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if !d.IsAttachment() {
		d.Set(domdoc.AttachmentDataField, "")
		return d, "not_attachment"
	}
	d.Set(domdoc.AttachmentDataField, "JVBERg==")
	return d, "loaded"
}

type mockClient struct {
	path     string
	body     []byte
	indexErr error
	items    []batch.ItemResponse
	bulkErr  error
}

func (m *mockClient) Index(_ context.Context, path string, body []byte) error {
	m.path, m.body = path, body
	return m.indexErr
}

func (m *mockClient) Bulk(_ context.Context, path string, body []byte) ([]batch.ItemResponse, error) {
	m.path, m.body = path, body
	return m.items, m.bulkErr
}

func newService(c *mockClient, enr *mockEnricher) *Service {
	return New(eligibility.New(mime.Default()), enr, route.New("attachment"), c, "content", nil)
}

func mkDoc(t *testing.T, id, docType, mimeType string) *domdoc.Document {
	t.Helper()
	d, err := domdoc.New(id, docType, mimeType, map[string]any{"title": "t-" + id})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return &d
}

// --- Tests ---

func TestIndexOne_Attachment(t *testing.T) {
	c := &mockClient{}
	svc := newService(c, &mockEnricher{})

	ok, err := svc.IndexOne(context.Background(), mkDoc(t, "1", "attachment", "application/pdf"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected indexed")
	}
	if c.path != "/content/_doc/1?pipeline=attachment" {
		t.Errorf("path = %q", c.path)
	}

	var src map[string]any
	if err := json.Unmarshal(c.body, &src); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	att, _ := src["attachment"].(map[string]any)
	if att["data"] != "JVBERg==" {
		t.Errorf("expected nested attachment.data, got %v", src)
	}
}

func TestIndexOne_NonAttachmentNotRouted(t *testing.T) {
	c := &mockClient{}
	svc := newService(c, &mockEnricher{})

	if _, err := svc.IndexOne(context.Background(), mkDoc(t, "p1", "post", "")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.path != "/content/_doc/p1" {
		t.Errorf("path = %q", c.path)
	}
}

func TestIndexOne_Ineligible(t *testing.T) {
	c := &mockClient{}
	enr := &mockEnricher{}
	svc := newService(c, enr)

	ok, err := svc.IndexOne(context.Background(), mkDoc(t, "img", "attachment", "image/png"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected not indexed")
	}
	if enr.calls != 0 || c.path != "" {
		t.Error("ineligible document must not be enriched or sent")
	}
}

func TestIndexOne_ClientError(t *testing.T) {
	c := &mockClient{indexErr: domain.ErrIndexRequest}
	svc := newService(c, &mockEnricher{})

	_, err := svc.IndexOne(context.Background(), mkDoc(t, "1", "attachment", "application/pdf"))
	if !errors.Is(err, domain.ErrIndexRequest) {
		t.Errorf("expected ErrIndexRequest, got %v", err)
	}
}

func TestIndexBulk_Mixed(t *testing.T) {
	c := &mockClient{items: []batch.ItemResponse{
		{ID: "1", Status: 201},
		{ID: "p", Status: 400, Reason: "mapper_parsing_exception"},
	}}
	enr := &mockEnricher{}
	svc := newService(c, enr)

	docs := []*domdoc.Document{
		mkDoc(t, "1", "attachment", "application/pdf"),
		mkDoc(t, "img", "attachment", "image/png"),
		mkDoc(t, "p", "post", ""),
	}
	results, err := svc.IndexBulk(context.Background(), docs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	if results[0].Status() != batch.StatusOK || results[0].Enriched() != "loaded" {
		t.Errorf("result[0] = %+v", results[0])
	}
	if results[1].Status() != batch.StatusSkipped || results[1].ID() != "img" {
		t.Errorf("result[1] = %+v", results[1])
	}
	if results[2].Status() != batch.StatusError || !errors.Is(results[2].Err(), domain.ErrIndexRequest) {
		t.Errorf("result[2] = %+v", results[2])
	}
	if enr.calls != 2 {
		t.Errorf("expected 2 enrich calls, got %d", enr.calls)
	}
	if c.path != "/content/_bulk?pipeline=attachment" {
		t.Errorf("path = %q", c.path)
	}
}

func TestIndexBulk_NDJSONBody(t *testing.T) {
	c := &mockClient{items: []batch.ItemResponse{{Status: 200}, {Status: 200}}}
	svc := newService(c, &mockEnricher{})

	docs := []*domdoc.Document{
		mkDoc(t, "a", "attachment", "application/pdf"),
		mkDoc(t, "b", "page", ""),
	}
	if _, err := svc.IndexBulk(context.Background(), docs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(c.body))
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if len(lines) != 4 {
		t.Fatalf("expected 4 NDJSON lines, got %d: %q", len(lines), c.body)
	}
	if lines[0] != `{"index":{"_id":"a"}}` || lines[2] != `{"index":{"_id":"b"}}` {
		t.Errorf("unexpected action lines: %q, %q", lines[0], lines[2])
	}
	if !bytes.HasSuffix(c.body, []byte("\n")) {
		t.Error("bulk body must end with a newline")
	}
}

func TestIndexBulk_TooLarge(t *testing.T) {
	svc := newService(&mockClient{}, &mockEnricher{}).WithLimits(2, 1)

	docs := []*domdoc.Document{mkDoc(t, "a", "post", ""), mkDoc(t, "b", "post", "")}
	_, err := svc.IndexBulk(context.Background(), docs)
	if !errors.Is(err, domain.ErrBatchTooLarge) {
		t.Errorf("expected ErrBatchTooLarge, got %v", err)
	}
}

func TestIndexBulk_AllIneligible(t *testing.T) {
	c := &mockClient{}
	svc := newService(c, &mockEnricher{})

	results, err := svc.IndexBulk(context.Background(),
		[]*domdoc.Document{mkDoc(t, "x", "attachment", "image/gif")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Status() != batch.StatusSkipped {
		t.Errorf("status = %q", results[0].Status())
	}
	if c.body != nil {
		t.Error("no request expected when nothing is eligible")
	}
}

func TestIndexBulk_RequestFailure(t *testing.T) {
	c := &mockClient{bulkErr: errors.New("connection reset")}
	svc := newService(c, &mockEnricher{})

	results, err := svc.IndexBulk(context.Background(),
		[]*domdoc.Document{mkDoc(t, "a", "post", ""), mkDoc(t, "i", "attachment", "image/png")})
	if err == nil {
		t.Fatal("expected error")
	}
	if results[0].Status() != batch.StatusError {
		t.Errorf("result[0] status = %q", results[0].Status())
	}
	if results[1].Status() != batch.StatusSkipped {
		t.Errorf("result[1] status = %q", results[1].Status())
	}
}

func TestIndexBulk_MissingItems(t *testing.T) {
	c := &mockClient{items: []batch.ItemResponse{{Status: 201}}}
	svc := newService(c, &mockEnricher{})

	results, err := svc.IndexBulk(context.Background(),
		[]*domdoc.Document{mkDoc(t, "a", "post", ""), mkDoc(t, "b", "post", "")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[1].Status() != batch.StatusError {
		t.Errorf("expected error for missing item, got %q", results[1].Status())
	}
}

func TestIndexBulk_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := newService(&mockClient{}, &mockEnricher{})

	_, err := svc.IndexBulk(ctx, []*domdoc.Document{mkDoc(t, "a", "post", "")})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
