// Package attachdex enriches attachment documents with their file content
// before indexing and routes them through an ingest pipeline that extracts
// the text.
package attachdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/attachdex/internal/db"
	dbRedis "github.com/kailas-cloud/attachdex/internal/db/redis"
	"github.com/kailas-cloud/attachdex/internal/domain"
	domdoc "github.com/kailas-cloud/attachdex/internal/domain/document"
	"github.com/kailas-cloud/attachdex/internal/domain/mime"
	"github.com/kailas-cloud/attachdex/internal/domain/pipeline"
	"github.com/kailas-cloud/attachdex/internal/domain/sizepolicy"
	"github.com/kailas-cloud/attachdex/internal/filesystem"
	"github.com/kailas-cloud/attachdex/internal/filesystem/gcs"
	"github.com/kailas-cloud/attachdex/internal/filesystem/local"
	"github.com/kailas-cloud/attachdex/internal/repository/settings"
	"github.com/kailas-cloud/attachdex/internal/resolver"
	"github.com/kailas-cloud/attachdex/internal/transport/elastic"
	"github.com/kailas-cloud/attachdex/internal/usecase/configsync"
	"github.com/kailas-cloud/attachdex/internal/usecase/eligibility"
	"github.com/kailas-cloud/attachdex/internal/usecase/enrich"
	"github.com/kailas-cloud/attachdex/internal/usecase/loader"
	"github.com/kailas-cloud/attachdex/internal/usecase/provision"
	"github.com/kailas-cloud/attachdex/internal/usecase/route"
)

const defaultReadinessTimeout = 10 * time.Second

// Document is a record submitted for indexing.
type Document = domdoc.Document

// SizeDecision receives the default verdict (false when the file is oversized)
// and returns the final one.
type SizeDecision = loader.SizeDecision

// Errors reported by the middleware.
var (
	ErrProvision       = domain.ErrProvision
	ErrIO              = domain.ErrIO
	ErrFileNotResolved = domain.ErrFileNotResolved
	ErrInvalidDocument = domain.ErrInvalidDocument
)

// ProvisionError carries the pipeline name and the cluster's reason.
type ProvisionError = domain.ProvisionError

// NewDocument validates and creates a document. payload is copied.
func NewDocument(id, docType, mimeType string, payload map[string]any) (*Document, error) {
	d, err := domdoc.New(id, docType, mimeType, payload)
	if err != nil {
		return nil, fmt.Errorf("attachdex: %w", err)
	}
	return &d, nil
}

// Middleware is the attachment enrichment stage of an indexing pipeline.
type Middleware struct {
	store       db.Store
	filter      *eligibility.Filter
	provisioner *provision.Service
	enricher    *enrich.Enricher
	router      *route.Router
	descriptor  pipeline.Descriptor
	obs         *observer
}

// New builds a Middleware. A cluster (WithElasticsearch or WithIngestClient)
// and a file source (WithFileRoot or WithFileResolver) are required.
func New(opts ...Option) (*Middleware, error) {
	cfg := &config{
		pipelineName:     pipeline.DefaultName,
		description:      pipeline.DefaultDescription,
		maxFileSize:      sizepolicy.DefaultMaxFileSizeBytes,
		allowlist:        mime.Default(),
		keyPrefix:        "attachdex:",
		readinessTimeout: defaultReadinessTimeout,
		logger:           zap.NewNop(),
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	ingest, err := buildIngest(cfg)
	if err != nil {
		return nil, err
	}
	res, err := buildResolver(cfg)
	if err != nil {
		return nil, err
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	m := &Middleware{obs: obs}
	var st provision.SettingsStore
	if cfg.redisAddr != "" {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    []string{cfg.redisAddr},
			Password: cfg.redisPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("attachdex: create redis store: %w", err)
		}
		if err := store.WaitForReady(context.Background(), cfg.readinessTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("attachdex: redis not ready: %w", err)
		}
		m.store = store
		st = settings.New(store, cfg.keyPrefix, cfg.capabilityTTL)
	}

	fs := cfg.fs
	if fs == nil {
		var gcsBackend filesystem.Backend
		if cfg.gcs != nil {
			gcsBackend = gcs.New(cfg.gcs)
		}
		fs = filesystem.NewMux(local.New(""), gcsBackend)
	}

	m.descriptor = pipeline.New(cfg.pipelineName).WithDescription(cfg.description)
	m.filter = eligibility.New(cfg.allowlist)
	m.provisioner = provision.New(ingest, st, cfg.logger)
	m.enricher = enrich.New(loader.New(res, fs, cfg.decide), sizepolicy.New(cfg.maxFileSize), cfg.logger)
	m.router = route.New(cfg.pipelineName)
	return m, nil
}

func buildIngest(cfg *config) (IngestClient, error) {
	if cfg.ingest != nil {
		return cfg.ingest, nil
	}
	if len(cfg.esAddrs) == 0 {
		return nil, errors.New("attachdex: cluster address required (use WithElasticsearch or WithIngestClient)")
	}
	c, err := elastic.New(&elastic.Config{
		Addrs:    cfg.esAddrs,
		Username: cfg.esUsername,
		Password: cfg.esPassword,
		APIKey:   cfg.esAPIKey,
		Logger:   cfg.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("attachdex: %w", err)
	}
	return c, nil
}

func buildResolver(cfg *config) (FileResolver, error) {
	switch {
	case cfg.resolver != nil:
		return cfg.resolver, nil
	case cfg.fileRoot != "":
		return resolver.NewDir(cfg.fileRoot, cfg.fileSuffix), nil
	default:
		return nil, errors.New("attachdex: file source required (use WithFileRoot or WithFileResolver)")
	}
}

// Close releases the Redis connection, if any.
func (m *Middleware) Close() {
	if m.store != nil {
		m.store.Close()
	}
}

// IsEligible reports whether doc should be indexed: any non-attachment, or an
// attachment whose mime type is allowed.
func (m *Middleware) IsEligible(doc *Document) bool {
	return m.filter.IsEligible(doc)
}

// Enrich sets attachment.data to the base64 file content, or to "" when the
// content is not available. It never fails.
func (m *Middleware) Enrich(ctx context.Context, doc *Document) *Document {
	start := time.Now()
	out, outcome := m.enricher.EnrichOutcome(ctx, doc)
	m.obs.enriched(doc.ID(), outcome, start)
	return out
}

// RouteSinglePath adds the pipeline parameter for attachment documents.
func (m *Middleware) RouteSinglePath(path string, doc *Document) string {
	return m.router.RouteSinglePath(path, doc)
}

// RouteBulkPath adds the pipeline parameter unconditionally.
func (m *Middleware) RouteBulkPath(path string) string {
	return m.router.RouteBulkPath(path)
}

// EnsurePipeline creates or overwrites the ingest pipeline.
func (m *Middleware) EnsurePipeline(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { m.obs.provisioned(opEnsurePipeline, start, err) }()

	if err = m.provisioner.EnsurePipeline(ctx, m.descriptor); err != nil {
		return fmt.Errorf("attachdex: %w", err)
	}
	return nil
}

// IsIngestCapabilityAvailable reports whether the ingest-attachment plugin is installed.
func (m *Middleware) IsIngestCapabilityAvailable(ctx context.Context) bool {
	return m.provisioner.IsIngestCapabilityAvailable(ctx)
}

// RefreshCapability re-queries the cluster for the ingest-attachment plugin.
func (m *Middleware) RefreshCapability(ctx context.Context) (available bool, err error) {
	start := time.Now()
	defer func() { m.obs.provisioned(opRefreshCapability, start, err) }()

	v, err := m.provisioner.RefreshCapability(ctx)
	if err != nil {
		return false, fmt.Errorf("attachdex: %w", err)
	}
	m.obs.capability(v)
	return v, nil
}

// SyncTypes returns types with "attachment" appended once.
func SyncTypes(types []string) []string {
	return configsync.SyncTypes(types)
}
