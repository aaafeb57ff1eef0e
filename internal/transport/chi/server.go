package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	gochi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/attachdex/internal/domain"
	dombatch "github.com/kailas-cloud/attachdex/internal/domain/batch"
	domdoc "github.com/kailas-cloud/attachdex/internal/domain/document"
	"github.com/kailas-cloud/attachdex/internal/logger"
	healthuc "github.com/kailas-cloud/attachdex/internal/usecase/health"
)

const maxBodyBytes = 8 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the attachdex HTTP API.
type Server struct {
	indexer       Indexer
	files         FileRegistry
	syncer        Syncer
	capability    Capability
	health        HealthChecker
	pipeline      string
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. files may be nil when no registry is configured.
func NewServer(
	indexer Indexer,
	files FileRegistry,
	syncer Syncer,
	capability Capability,
	health HealthChecker,
	pipeline string,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		indexer:    indexer,
		files:      files,
		syncer:     syncer,
		capability: capability,
		health:     health,
		pipeline:   pipeline,
		logger:     logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidDocument, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrBatchTooLarge, http.StatusRequestEntityTooLarge, ErrorCodeBatchTooLarge),
		sentinelHandler(domain.ErrFileNotResolved, http.StatusNotFound, ErrorCodeFileNotResolved),
		sentinelHandler(domain.ErrIndexRequest, http.StatusBadGateway, ErrorCodeIndexRequestFailed),
		sentinelHandler(domain.ErrProvision, http.StatusBadGateway, ErrorCodeProvisioningFailed),
	}
	return s
}

// Register mounts the API routes on r.
func (s *Server) Register(r gochi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/v1", func(r gochi.Router) {
		r.Post("/documents", s.IndexDocument)
		r.Post("/documents/_bulk", s.IndexBulk)
		r.Put("/files/{id}", s.RegisterFile)
		r.Delete("/files/{id}", s.UnregisterFile)
		r.Post("/sync", s.Sync)
		r.Get("/capability", s.GetCapability)
	})
}

// IndexDocument handles POST /v1/documents.
func (s *Server) IndexDocument(w http.ResponseWriter, r *http.Request) {
	var req DocumentRequest
	if !s.decode(w, r, &req) {
		return
	}

	doc, err := documentFromRequest(req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	r = r.WithContext(logger.WithFields(r.Context(), zap.String("doc_id", doc.ID())))
	indexed, err := s.indexer.IndexOne(r.Context(), doc)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	status := http.StatusOK
	if indexed {
		status = http.StatusCreated
	}
	writeJSON(w, status, DocumentResponse{ID: doc.ID(), Indexed: indexed})
}

// IndexBulk handles POST /v1/documents/_bulk.
func (s *Server) IndexBulk(w http.ResponseWriter, r *http.Request) {
	var req BulkRequest
	if !s.decode(w, r, &req) {
		return
	}

	if len(req.Documents) == 0 {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "documents must not be empty")
		return
	}
	if limit := s.indexer.MaxBatchSize(); len(req.Documents) > limit {
		writeError(w, http.StatusRequestEntityTooLarge, ErrorCodeBatchTooLarge,
			fmt.Sprintf("batch size %d exceeds maximum %d", len(req.Documents), limit))
		return
	}

	docs := make([]*domdoc.Document, len(req.Documents))
	for i, dr := range req.Documents {
		doc, err := documentFromRequest(dr)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed,
				"documents["+strconv.Itoa(i)+"]: "+err.Error())
			return
		}
		docs[i] = doc
	}

	r = r.WithContext(logger.WithFields(r.Context(), zap.Int("batch_size", len(docs))))
	results, err := s.indexer.IndexBulk(r.Context(), docs)
	if err != nil && results == nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]BulkResultItem, len(results))
	for i, res := range results {
		items[i] = batchResultToResponse(res)
	}
	status := http.StatusOK
	if err != nil {
		logger.FromContext(r.Context()).Warn("Bulk request failed", zap.Error(err))
		status = http.StatusBadGateway
	}
	writeJSON(w, status, BulkResponse{Items: items})
}

// RegisterFile handles PUT /v1/files/{id}.
func (s *Server) RegisterFile(w http.ResponseWriter, r *http.Request) {
	if s.files == nil {
		writeError(w, http.StatusNotImplemented, ErrorCodeNotImplemented, "file registry is not configured")
		return
	}

	var req FileRequest
	if !s.decode(w, r, &req) {
		return
	}

	id := gochi.URLParam(r, "id")
	r = r.WithContext(logger.WithFields(r.Context(), zap.String("doc_id", id)))
	if err := s.files.Register(r.Context(), id, req.Path); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UnregisterFile handles DELETE /v1/files/{id}. Unknown ids are not an error.
func (s *Server) UnregisterFile(w http.ResponseWriter, r *http.Request) {
	if s.files == nil {
		writeError(w, http.StatusNotImplemented, ErrorCodeNotImplemented, "file registry is not configured")
		return
	}

	id := gochi.URLParam(r, "id")
	r = r.WithContext(logger.WithFields(r.Context(), zap.String("doc_id", id)))
	if err := s.files.Unregister(r.Context(), id); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Sync handles POST /v1/sync.
func (s *Server) Sync(w http.ResponseWriter, r *http.Request) {
	report := s.syncer.Sync(r.Context())

	resp := SyncResponse{
		RunID:               report.RunID,
		OK:                  report.OK(),
		Pipeline:            report.Pipeline,
		Index:               report.Index,
		CapabilityAvailable: report.CapabilityAvailable,
		DurationMs:          report.Duration.Milliseconds(),
	}
	errs := map[string]error{
		"pipeline":   report.PipelineErr,
		"mapping":    report.MappingErr,
		"capability": report.CapabilityErr,
	}
	for step, err := range errs {
		if err == nil {
			continue
		}
		if resp.Errors == nil {
			resp.Errors = make(map[string]string)
		}
		resp.Errors[step] = err.Error()
	}

	status := http.StatusOK
	if !resp.OK {
		s.logger.Warn("Configuration sync reported errors",
			zap.String("sync_run_id", resp.RunID),
			zap.Any("errors", resp.Errors),
		)
		status = http.StatusBadGateway
	}
	writeJSON(w, status, resp)
}

// GetCapability handles GET /v1/capability. ?refresh=true re-queries the cluster.
func (s *Server) GetCapability(w http.ResponseWriter, r *http.Request) {
	var available bool
	if refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh")); refresh {
		v, err := s.capability.RefreshCapability(r.Context())
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		available = v
	} else {
		available = s.capability.IsIngestCapabilityAvailable(r.Context())
	}

	writeJSON(w, http.StatusOK, CapabilityResponse{IngestAttachment: available, Pipeline: s.pipeline})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func documentFromRequest(req DocumentRequest) (*domdoc.Document, error) {
	doc, err := domdoc.New(req.ID, req.Type, req.MimeType, req.Payload)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidDocument,
		domain.ErrBatchTooLarge,
		domain.ErrFileNotResolved,
		domain.ErrIndexRequest,
		domain.ErrProvision,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}

func batchResultToResponse(r dombatch.Result) BulkResultItem {
	item := BulkResultItem{
		ID:       r.ID(),
		Status:   string(r.Status()),
		Enriched: r.Enriched(),
	}
	if r.Err() != nil {
		item.Error = &ErrorResponse{
			Code:    batchErrorCode(r.Err()),
			Message: safeDomainMessage(r.Err()),
		}
	}
	return item
}

func batchErrorCode(err error) ErrorCode {
	switch {
	case errors.Is(err, domain.ErrInvalidDocument):
		return ErrorCodeValidationFailed
	case errors.Is(err, domain.ErrIndexRequest):
		return ErrorCodeIndexRequestFailed
	default:
		return ErrorCodeInternalError
	}
}
