// Package load models the outcome of loading an attachment's file content.
package load

// Reason explains why content was not loaded.
type Reason string

// Skip reasons.
const (
	FileMissing    Reason = "file_missing"
	TooLarge       Reason = "too_large"
	PolicyExcluded Reason = "policy_excluded"
)

// Outcome labels for results that are not skips.
const (
	OutcomeLoaded = "loaded"
	OutcomeError  = "error"
)

// Kind discriminates a Result.
type Kind int

// Result kinds.
const (
	KindBytes Kind = iota
	KindSkipped
	KindError
)

// Result is exactly one of: loaded bytes, a skip with a reason, or an IO error.
type Result struct {
	kind   Kind
	bytes  []byte
	reason Reason
	err    error
}

// Bytes creates a successful result.
func Bytes(b []byte) Result {
	if b == nil {
		b = []byte{}
	}
	return Result{kind: KindBytes, bytes: b}
}

// Skipped creates a skip result.
func Skipped(r Reason) Result { return Result{kind: KindSkipped, reason: r} }

// Error creates an error result.
func Error(err error) Result { return Result{kind: KindError, err: err} }

// Kind returns the result kind.
func (r Result) Kind() Kind { return r.kind }

// Content returns the loaded bytes; nil unless Kind is KindBytes.
func (r Result) Content() []byte { return r.bytes }

// Reason returns the skip reason; empty unless Kind is KindSkipped.
func (r Result) Reason() Reason { return r.reason }

// Err returns the IO error; nil unless Kind is KindError.
func (r Result) Err() error { return r.err }

// OK reports whether bytes were loaded.
func (r Result) OK() bool { return r.kind == KindBytes }

// Outcome is a short label for logs and metrics: "loaded", the skip reason, or "error".
func (r Result) Outcome() string {
	switch r.kind {
	case KindBytes:
		return OutcomeLoaded
	case KindSkipped:
		return string(r.reason)
	default:
		return OutcomeError
	}
}
