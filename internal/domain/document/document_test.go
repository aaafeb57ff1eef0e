package document

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/attachdex/internal/domain"
)

func TestNew_Valid(t *testing.T) {
	doc, err := New("42", TypeAttachment, "application/pdf", map[string]any{"title": "Report"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID() != "42" {
		t.Errorf("ID() = %q", doc.ID())
	}
	if doc.Type() != TypeAttachment {
		t.Errorf("Type() = %q", doc.Type())
	}
	if doc.MimeType() != "application/pdf" {
		t.Errorf("MimeType() = %q", doc.MimeType())
	}
	if !doc.IsAttachment() {
		t.Error("expected IsAttachment() = true")
	}
	if doc.Payload()["title"] != "Report" {
		t.Errorf("Payload() = %v", doc.Payload())
	}
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		docType string
		errMsg  string
	}{
		{"empty id", "", "post", "ID is required"},
		{"long id", strings.Repeat("a", 513), "post", "too long"},
		{"empty type", "1", "", "type is required"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.id, tc.docType, "", nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("error %q does not contain %q", err.Error(), tc.errMsg)
			}
			if !errors.Is(err, domain.ErrInvalidDocument) {
				t.Errorf("expected ErrInvalidDocument, got %v", err)
			}
		})
	}
}

func TestNew_ClonesPayload(t *testing.T) {
	payload := map[string]any{"k": "v"}
	doc, _ := New("1", "post", "", payload)

	payload["k"] = "mutated"
	if doc.Payload()["k"] != "v" {
		t.Error("payload mutation leaked into document")
	}
}

func TestPayload_NilSafe(t *testing.T) {
	var doc Document
	doc.Set("a", 1)
	if v, ok := doc.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %v, %v", v, ok)
	}
}

func TestAttachmentData(t *testing.T) {
	doc, _ := New("1", TypeAttachment, "application/pdf", nil)
	if _, ok := doc.AttachmentData(); ok {
		t.Error("expected field absent on new document")
	}

	doc.Set(AttachmentDataField, "aGVsbG8=")
	got, ok := doc.AttachmentData()
	if !ok || got != "aGVsbG8=" {
		t.Errorf("AttachmentData() = %q, %v", got, ok)
	}

	doc.Set(AttachmentDataField, 7)
	if _, ok := doc.AttachmentData(); ok {
		t.Error("non-string value must not be reported as attachment data")
	}
}

func TestSource_ExpandsDottedKeys(t *testing.T) {
	doc, _ := New("1", TypeAttachment, "application/pdf", map[string]any{
		"post_id":         "1",
		"attachment.data": "ZGF0YQ==",
		"meta.a.b":        true,
	})

	src := doc.Source()
	if src["post_id"] != "1" {
		t.Errorf("post_id = %v", src["post_id"])
	}
	att, ok := src["attachment"].(map[string]any)
	if !ok {
		t.Fatalf("attachment = %T, want object", src["attachment"])
	}
	if att["data"] != "ZGF0YQ==" {
		t.Errorf("attachment.data = %v", att["data"])
	}
	meta := src["meta"].(map[string]any)
	if meta["a"].(map[string]any)["b"] != true {
		t.Errorf("meta = %v", meta)
	}
	if _, ok := src["attachment.data"]; ok {
		t.Error("dotted key must not remain flat in source")
	}
}

func TestSource_ScalarPrefixWins(t *testing.T) {
	doc, _ := New("1", "post", "", map[string]any{
		"meta":   "plain",
		"meta.a": "x",
	})
	if doc.Source()["meta"] != "plain" {
		t.Errorf("scalar prefix overwritten: %v", doc.Source()["meta"])
	}
}

func TestSource_AttachmentDataReplacesScalar(t *testing.T) {
	doc, _ := New("1", TypeAttachment, "application/pdf", map[string]any{"attachment": "legacy"})
	doc.Set(AttachmentDataField, "JVBERi0=")

	att, ok := doc.Source()["attachment"].(map[string]any)
	if !ok {
		t.Fatalf("attachment = %v, want object", doc.Source()["attachment"])
	}
	if att["data"] != "JVBERi0=" {
		t.Errorf("attachment.data = %v", att["data"])
	}
}
