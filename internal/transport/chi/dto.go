package chi

// ErrorCode is a machine-readable API error code.
type ErrorCode string

// API error codes.
const (
	ErrorCodeBadRequest         ErrorCode = "bad_request"
	ErrorCodeUnauthorized       ErrorCode = "unauthorized"
	ErrorCodeValidationFailed   ErrorCode = "validation_failed"
	ErrorCodeBatchTooLarge      ErrorCode = "batch_too_large"
	ErrorCodeFileNotResolved    ErrorCode = "file_not_resolved"
	ErrorCodeIndexRequestFailed ErrorCode = "index_request_failed"
	ErrorCodeProvisioningFailed ErrorCode = "provisioning_failed"
	ErrorCodeNotImplemented     ErrorCode = "not_implemented"
	ErrorCodeInternalError      ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// DocumentRequest is a document submitted for indexing.
type DocumentRequest struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	MimeType string         `json:"mime_type,omitempty"`
	Payload  map[string]any `json:"payload,omitempty"`
}

// DocumentResponse reports the outcome of a single index call.
type DocumentResponse struct {
	ID      string `json:"id"`
	Indexed bool   `json:"indexed"`
}

// BulkRequest is a batch of documents.
type BulkRequest struct {
	Documents []DocumentRequest `json:"documents"`
}

// BulkResultItem is the per-document outcome of a bulk call.
type BulkResultItem struct {
	ID       string         `json:"id"`
	Status   string         `json:"status"`
	Enriched string         `json:"enriched,omitempty"`
	Error    *ErrorResponse `json:"error,omitempty"`
}

// BulkResponse lists bulk results in request order.
type BulkResponse struct {
	Items []BulkResultItem `json:"items"`
}

// FileRequest registers a file path for a document.
type FileRequest struct {
	Path string `json:"path"`
}

// SyncResponse is the outcome of a configuration sync run.
type SyncResponse struct {
	RunID               string            `json:"run_id"`
	OK                  bool              `json:"ok"`
	Pipeline            string            `json:"pipeline"`
	Index               string            `json:"index"`
	CapabilityAvailable bool              `json:"capability_available"`
	Errors              map[string]string `json:"errors,omitempty"`
	DurationMs          int64             `json:"duration_ms"`
}

// CapabilityResponse reports whether attachment text extraction is available.
type CapabilityResponse struct {
	IngestAttachment bool   `json:"ingest_attachment"`
	Pipeline         string `json:"pipeline"`
}

// HealthResponse aggregates dependency checks.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
