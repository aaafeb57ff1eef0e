// Package mime holds the allowlist of attachment mime types eligible for indexing.
package mime

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Entry maps a short extension key to a canonical mime type.
type Entry struct {
	Ext      string
	MimeType string
}

// Allowlist is an ordered extension -> mime type mapping.
// The zero value is an empty allowlist.
type Allowlist struct {
	entries []Entry
}

// Default returns the Office and PDF types indexed out of the box.
func Default() Allowlist {
	return New(
		Entry{"doc", "application/msword"},
		Entry{"docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		Entry{"pdf", "application/pdf"},
		Entry{"ppt", "application/vnd.ms-powerpoint"},
		Entry{"pptx", "application/vnd.openxmlformats-officedocument.presentationml.presentation"},
		Entry{"xls", "application/vnd.ms-excel"},
		Entry{"xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	)
}

// New builds an allowlist. A repeated extension replaces the earlier mime type in place.
func New(entries ...Entry) Allowlist {
	var a Allowlist
	for _, e := range entries {
		a = a.With(e.Ext, e.MimeType)
	}
	return a
}

// With returns a copy with ext mapped to mimeType.
func (a Allowlist) With(ext, mimeType string) Allowlist {
	out := make([]Entry, len(a.entries), len(a.entries)+1)
	copy(out, a.entries)
	for i := range out {
		if out[i].Ext == ext {
			out[i].MimeType = mimeType
			return Allowlist{entries: out}
		}
	}
	return Allowlist{entries: append(out, Entry{Ext: ext, MimeType: mimeType})}
}

// Without returns a copy without ext.
func (a Allowlist) Without(ext string) Allowlist {
	out := make([]Entry, 0, len(a.entries))
	for _, e := range a.entries {
		if e.Ext != ext {
			out = append(out, e)
		}
	}
	return Allowlist{entries: out}
}

// Contains reports whether mimeType is one of the allowlist values (exact, case-sensitive).
func (a Allowlist) Contains(mimeType string) bool {
	for _, e := range a.entries {
		if e.MimeType == mimeType {
			return true
		}
	}
	return false
}

// Values returns the mime types in declaration order.
func (a Allowlist) Values() []string {
	out := make([]string, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.MimeType
	}
	return out
}

// Len returns the number of entries.
func (a Allowlist) Len() int { return len(a.entries) }

// UnmarshalYAML decodes a YAML mapping and keeps the key order.
func (a *Allowlist) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("allowed mime types must be a mapping, got %s", kindName(node.Kind))
	}
	var entries []Entry
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if v.Kind != yaml.ScalarNode || v.Value == "" {
			return fmt.Errorf("mime type for %q must be a non-empty string (line %d)", k.Value, v.Line)
		}
		entries = append(entries, Entry{Ext: k.Value, MimeType: v.Value})
	}
	*a = New(entries...)
	return nil
}

// MarshalYAML encodes the allowlist as an ordered mapping.
func (a Allowlist) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range a.entries {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: e.Ext},
			&yaml.Node{Kind: yaml.ScalarNode, Value: e.MimeType},
		)
	}
	return node, nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	case yaml.DocumentNode:
		return "document"
	default:
		return "unknown"
	}
}
