// Package mapping customises the index mapping for attachment documents.
package mapping

// Mapping is an index mapping body as sent to the search index.
type Mapping map[string]any

// WithAttachmentObject returns a copy of m with mappings.properties.attachment
// declared as an object, creating intermediate levels as needed.
func WithAttachmentObject(m Mapping) Mapping {
	out := cloneMap(m)
	mappings := childMap(out, "mappings")
	props := childMap(mappings, "properties")
	props["attachment"] = map[string]any{"type": "object"}
	return out
}

// Properties returns the mappings.properties block, or nil.
func (m Mapping) Properties() map[string]any {
	mappings, ok := m["mappings"].(map[string]any)
	if !ok {
		return nil
	}
	props, _ := mappings["properties"].(map[string]any)
	return props
}

func childMap(parent map[string]any, key string) map[string]any {
	child, ok := parent[key].(map[string]any)
	if ok {
		child = cloneMap(child)
	} else {
		child = make(map[string]any)
	}
	parent[key] = child
	return child
}

func cloneMap[M ~map[string]any](m M) map[string]any {
	out := make(map[string]any, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
