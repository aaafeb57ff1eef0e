// Package sizepolicy holds the threshold that governs embedding of file content.
package sizepolicy

// DefaultMaxFileSizeBytes is 5MB.
const DefaultMaxFileSizeBytes int64 = 5242880

// Policy is the configured size threshold.
type Policy struct {
	MaxFileSizeBytes int64
}

// Default returns the 5MB policy.
func Default() Policy { return Policy{MaxFileSizeBytes: DefaultMaxFileSizeBytes} }

// New creates a policy; non-positive values fall back to the default.
func New(maxBytes int64) Policy {
	if maxBytes <= 0 {
		return Default()
	}
	return Policy{MaxFileSizeBytes: maxBytes}
}

// Oversized reports whether size reaches the threshold.
func (p Policy) Oversized(size int64) bool {
	return size >= p.MaxFileSizeBytes
}
