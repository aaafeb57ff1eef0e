package batch

// ItemStatus is the processing outcome of a single document in a bulk request.
type ItemStatus string

// Bulk item status values.
const (
	StatusOK      ItemStatus = "ok"
	StatusSkipped ItemStatus = "skipped"
	StatusError   ItemStatus = "error"
)

// Result is the outcome of processing one document in a bulk index operation.
type Result struct {
	id       string
	status   ItemStatus
	enriched string
	err      error
}

// NewOK creates a successful result. enriched is the content load outcome ("loaded", a skip reason, or "").
func NewOK(id, enriched string) Result {
	return Result{id: id, status: StatusOK, enriched: enriched}
}

// NewSkipped creates a result for a document filtered out as ineligible.
func NewSkipped(id string) Result { return Result{id: id, status: StatusSkipped} }

// NewError creates a failed result.
func NewError(id string, err error) Result { return Result{id: id, status: StatusError, err: err} }

// ID returns the document identifier.
func (r Result) ID() string { return r.id }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Enriched returns the content load outcome for attachments.
func (r Result) Enriched() string { return r.enriched }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// ItemResponse is the cluster's answer for one action of a bulk request.
type ItemResponse struct {
	ID     string
	Status int
	Reason string
}

// Failed reports whether the cluster rejected the action.
func (r ItemResponse) Failed() bool { return r.Status < 200 || r.Status > 299 }
