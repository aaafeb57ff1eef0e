package attachdex

import (
	"context"
	"time"

	"cloud.google.com/go/storage"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/attachdex/internal/domain/mime"
)

// IngestClient is the subset of the search cluster API the middleware needs.
type IngestClient interface {
	PutPipeline(ctx context.Context, name string, body []byte) error
	CatPlugins(ctx context.Context) ([]string, error)
}

// FileResolver maps a document id to its file path.
type FileResolver interface {
	Resolve(ctx context.Context, docID string) (string, error)
}

// Filesystem reads files by path.
type Filesystem interface {
	Exists(ctx context.Context, path string) bool
	Size(ctx context.Context, path string) (int64, error)
	GetContents(ctx context.Context, path string) ([]byte, error)
}

// Option configures a Middleware.
type Option interface {
	apply(*config)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

type config struct {
	esAddrs          []string
	esUsername       string
	esPassword       string
	esAPIKey         string
	ingest           IngestClient
	resolver         FileResolver
	fileRoot         string
	fileSuffix       string
	fs               Filesystem
	gcs              *storage.Client
	pipelineName     string
	description      string
	maxFileSize      int64
	allowlist        mime.Allowlist
	decide           SizeDecision
	redisAddr        string
	redisPassword    string
	keyPrefix        string
	capabilityTTL    time.Duration
	readinessTimeout time.Duration
	logger           *zap.Logger
	metricsReg       prometheus.Registerer
}

// WithElasticsearch connects to the cluster at addrs.
func WithElasticsearch(addrs ...string) Option {
	return optionFunc(func(c *config) {
		c.esAddrs = addrs
	})
}

// WithBasicAuth sets cluster credentials.
func WithBasicAuth(username, password string) Option {
	return optionFunc(func(c *config) {
		c.esUsername = username
		c.esPassword = password
	})
}

// WithAPIKey sets a cluster API key.
func WithAPIKey(key string) Option {
	return optionFunc(func(c *config) {
		c.esAPIKey = key
	})
}

// WithIngestClient supplies a ready cluster client instead of WithElasticsearch.
func WithIngestClient(ic IngestClient) Option {
	return optionFunc(func(c *config) {
		c.ingest = ic
	})
}

// WithFileResolver sets how document ids map to file paths.
func WithFileResolver(r FileResolver) Option {
	return optionFunc(func(c *config) {
		c.resolver = r
	})
}

// WithFileRoot resolves document id "42" to root/42<suffix>.
// root may be a local directory or gs://bucket/prefix.
func WithFileRoot(root, suffix string) Option {
	return optionFunc(func(c *config) {
		c.fileRoot = root
		c.fileSuffix = suffix
	})
}

// WithFilesystem replaces the default local and GCS file access.
func WithFilesystem(fs Filesystem) Option {
	return optionFunc(func(c *config) {
		c.fs = fs
	})
}

// WithGCS enables gs:// paths through the given storage client.
func WithGCS(client *storage.Client) Option {
	return optionFunc(func(c *config) {
		c.gcs = client
	})
}

// WithPipelineName sets the ingest pipeline name (default "attachment").
func WithPipelineName(name string) Option {
	return optionFunc(func(c *config) {
		c.pipelineName = name
	})
}

// WithPipelineDescription sets the ingest pipeline description.
func WithPipelineDescription(desc string) Option {
	return optionFunc(func(c *config) {
		c.description = desc
	})
}

// WithMaxFileSize sets the size at which files are no longer embedded.
func WithMaxFileSize(bytes int64) Option {
	return optionFunc(func(c *config) {
		c.maxFileSize = bytes
	})
}

// WithAllowedMimeType adds an extension and mime type to the allowlist.
func WithAllowedMimeType(ext, mimeType string) Option {
	return optionFunc(func(c *config) {
		c.allowlist = c.allowlist.With(ext, mimeType)
	})
}

// WithoutMimeType removes an extension from the allowlist.
func WithoutMimeType(ext string) Option {
	return optionFunc(func(c *config) {
		c.allowlist = c.allowlist.Without(ext)
	})
}

// WithSizeDecision installs a hook that may override the size verdict.
func WithSizeDecision(fn SizeDecision) Option {
	return optionFunc(func(c *config) {
		c.decide = fn
	})
}

// WithRedis persists the capability flag in Redis so other processes share it.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *config) {
		c.redisAddr = addr
		c.redisPassword = password
	})
}

// WithKeyPrefix sets the Redis key prefix (default "attachdex:").
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *config) {
		c.keyPrefix = prefix
	})
}

// WithCapabilityTTL expires the shared capability flag after ttl.
func WithCapabilityTTL(ttl time.Duration) Option {
	return optionFunc(func(c *config) {
		c.capabilityTTL = ttl
	})
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *config) {
		c.logger = l
	})
}

// WithMetrics registers operation counters and latency histograms on reg.
// Collectors already registered by another Middleware are reused.
func WithMetrics(reg prometheus.Registerer) Option {
	return optionFunc(func(c *config) {
		c.metricsReg = reg
	})
}
