package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/kailas-cloud/attachdex/internal/config"
	"github.com/kailas-cloud/attachdex/internal/db"
	dbRedis "github.com/kailas-cloud/attachdex/internal/db/redis"
	"github.com/kailas-cloud/attachdex/internal/domain/pipeline"
	"github.com/kailas-cloud/attachdex/internal/domain/sizepolicy"
	"github.com/kailas-cloud/attachdex/internal/filesystem"
	"github.com/kailas-cloud/attachdex/internal/filesystem/gcs"
	"github.com/kailas-cloud/attachdex/internal/filesystem/local"
	"github.com/kailas-cloud/attachdex/internal/metrics"
	"github.com/kailas-cloud/attachdex/internal/repository/fileref"
	"github.com/kailas-cloud/attachdex/internal/repository/settings"
	"github.com/kailas-cloud/attachdex/internal/resolver"
	"github.com/kailas-cloud/attachdex/internal/transport/elastic"
	"github.com/kailas-cloud/attachdex/internal/usecase/configsync"
	"github.com/kailas-cloud/attachdex/internal/usecase/eligibility"
	"github.com/kailas-cloud/attachdex/internal/usecase/enrich"
	"github.com/kailas-cloud/attachdex/internal/usecase/health"
	"github.com/kailas-cloud/attachdex/internal/usecase/indexing"
	"github.com/kailas-cloud/attachdex/internal/usecase/loader"
	"github.com/kailas-cloud/attachdex/internal/usecase/provision"
	"github.com/kailas-cloud/attachdex/internal/usecase/route"
)

// app is the composition root shared by the subcommands.
type app struct {
	cfg        config.Config
	logger     *zap.Logger
	search     *elastic.Client
	store      db.Store
	gcs        *storage.Client
	descriptor pipeline.Descriptor
	provision  *provision.Service
	sync       *configsync.Service
	indexer    *indexing.Service
	files      resolver.Registrar
	health     *health.Service
}

// newApp connects to the configured backends and assembles the services.
func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	search, err := elastic.New(&elastic.Config{
		Addrs:    cfg.Search.Addrs,
		Username: cfg.Search.Username,
		Password: cfg.Search.Password,
		APIKey:   cfg.Search.APIKey,
		Timeout:  time.Duration(cfg.Search.TimeoutSec) * time.Second,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("search client: %w", err)
	}
	a.search = search

	if err := a.openStore(ctx); err != nil {
		return nil, err
	}

	var settingsStore provision.SettingsStore
	if a.store != nil {
		ttl := time.Duration(cfg.Attachments.CapabilityTTLSec) * time.Second
		settingsStore = settings.New(a.store, cfg.Storage.KeyPrefix, ttl)
	}

	res, err := a.buildResolver()
	if err != nil {
		a.Close()
		return nil, err
	}

	fs, err := a.buildFilesystem(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	att := cfg.Attachments
	policy := sizepolicy.New(att.MaxFileSizeBytes)
	a.descriptor = pipeline.New(att.PipelineName).WithDescription(att.PipelineDescription)

	filter := eligibility.New(*att.AllowedMimeTypes)
	contentLoader := loader.New(res, fs, loader.NewPolicyDecision(att.IndexOversized, att.ExcludePatterns))
	enricher := enrich.New(contentLoader, policy, logger)
	router := route.New(a.descriptor.Name())

	a.provision = provision.New(search, settingsStore, logger)
	a.sync = configsync.New(a.provision, search, a.descriptor, cfg.Search.Index, logger)
	a.indexer = indexing.New(filter, enricher, router, search, cfg.Search.Index, logger).
		WithLimits(cfg.Indexing.Workers, cfg.Indexing.MaxBatchSize)

	// Pass a nil interface, not a typed nil pointer, when there is no store.
	var dbPinger health.Pinger
	if a.store != nil {
		dbPinger = a.store
	}
	a.health = health.New(search, dbPinger, a.provision)

	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	dbCfg := a.cfg.Database
	switch dbCfg.Driver {
	case "none", "":
		return nil
	case "valkey", "redis":
		// rueidis speaks the same protocol to both.
		timeout := time.Duration(dbCfg.ReadinessTimeout) * time.Second
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:       dbCfg.Addrs,
			Password:    dbCfg.Password,
			DialTimeout: timeout,
		})
		if err != nil {
			return fmt.Errorf("create database store: %w", err)
		}
		if err := store.WaitForReady(ctx, timeout); err != nil {
			store.Close()
			return fmt.Errorf("database not ready: %w", err)
		}
		a.store = store
		a.logger.Info("Connected to database",
			zap.String("driver", dbCfg.Driver),
			zap.Strings("addrs", dbCfg.Addrs),
		)
		return nil
	default:
		return fmt.Errorf("unknown database driver %q", dbCfg.Driver)
	}
}

// buildResolver returns the cached path resolver and, for the registry
// resolver, records the registrar that keeps the cache coherent.
func (a *app) buildResolver() (loader.FileResolver, error) {
	files := a.cfg.Files
	ttl := time.Duration(files.CacheTTLSec) * time.Second

	switch files.Resolver {
	case "dir", "":
		inner := resolver.NewDir(files.Root, files.Suffix)
		return resolver.NewCached(inner, files.CacheSize, ttl, metrics.ResolverCacheTotal), nil
	case "registry":
		if a.store == nil {
			return nil, fmt.Errorf("registry resolver requires a database store")
		}
		repo := fileref.New(a.store, a.cfg.Storage.KeyPrefix).WithRoot(files.Root)
		cached := resolver.NewCached(repo, files.CacheSize, ttl, metrics.ResolverCacheTotal)
		a.files = resolver.NewInvalidatingRegistrar(repo, cached)
		return cached, nil
	default:
		return nil, fmt.Errorf("unknown file resolver %q", files.Resolver)
	}
}

func (a *app) buildFilesystem(ctx context.Context) (*filesystem.Mux, error) {
	files := a.cfg.Files

	// Registered paths come from API callers, so the registry is always confined.
	root := ""
	if files.ConfineToRoot || files.Resolver == "registry" {
		root = files.Root
	}
	localRoot := ""
	if !strings.HasPrefix(root, "gs://") {
		localRoot = root
	}

	var gcsBackend filesystem.Backend
	if files.GCS {
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs client: %w", err)
		}
		a.gcs = client
		gcsBackend = gcs.New(client)
	}

	return filesystem.NewMux(local.New(localRoot), gcsBackend).Confine(root), nil
}

// Close releases backend connections.
func (a *app) Close() {
	if a.gcs != nil {
		_ = a.gcs.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
}
