package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/attachdex/internal/logger"
	"github.com/kailas-cloud/attachdex/internal/metrics"
	chiTransport "github.com/kailas-cloud/attachdex/internal/transport/chi"
	"github.com/kailas-cloud/attachdex/internal/version"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		port        int
		syncOnStart bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API that enriches and indexes documents.

By default the ingest pipeline and index mapping are synced once at startup.
A failed sync is logged and the server starts anyway.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), root, port, syncOnStart)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP port (overrides http.port)")
	cmd.Flags().BoolVar(&syncOnStart, "sync", true, "Sync pipeline and mapping before serving")

	return cmd
}

func runServe(ctx context.Context, root *rootOptions, port int, syncOnStart bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, env, err := root.load()
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.HTTP.Port = port
	}

	logger, err := logpkg.NewLogger(env, logpkg.Options{Level: cfg.Logging.Level, File: cfg.Logging.File})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting attachdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("search_addrs", cfg.Search.Addrs),
		zap.String("index", cfg.Search.Index),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("files_resolver", cfg.Files.Resolver),
		zap.Strings("allowed_mime_types", cfg.Attachments.AllowedMimeTypes.Values()),
	)

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialise", zap.Error(err))
		return err
	}
	defer a.Close()

	metrics.Register()

	if syncOnStart {
		if report := a.sync.Sync(ctx); !report.OK() {
			logger.Warn("Startup sync incomplete, serving anyway", zap.String("run_id", report.RunID))
		}
	}

	server := chiTransport.NewServer(a.indexer, a.files, a.sync, a.provision, a.health, a.descriptor.Name(), logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(requestLogMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error("HTTP server error", zap.Error(err))
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-quit:
		logger.Info("Received shutdown signal")
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("Server stopped gracefully")
	return nil
}
