// Package provision installs the attachment ingest pipeline and tracks
// whether the cluster can run it.
package provision

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/attachdex/internal/domain"
	"github.com/kailas-cloud/attachdex/internal/domain/pipeline"
	"github.com/kailas-cloud/attachdex/internal/metrics"
)

// IngestAttachmentPlugin is the plugin component that provides the attachment processor.
const IngestAttachmentPlugin = "ingest-attachment"

// Service provisions ingest pipelines and caches the capability flag.
type Service struct {
	client   IngestClient
	settings SettingsStore
	logger   *zap.Logger

	mu         sync.RWMutex
	capability *bool
}

// New creates a provisioner. settings may be nil.
func New(client IngestClient, settings SettingsStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: client, settings: settings, logger: logger}
}

// EnsurePipeline creates or overwrites the ingest pipeline described by d.
// Calling it repeatedly with the same descriptor is safe.
func (s *Service) EnsurePipeline(ctx context.Context, d pipeline.Descriptor) error {
	return s.install(ctx, d.Name(), d.Body)
}

func (s *Service) install(ctx context.Context, name string, encode func() ([]byte, error)) error {
	body, err := encode()
	if err != nil {
		return s.fail(name, "encode pipeline body", err)
	}

	if err := s.client.PutPipeline(ctx, name, body); err != nil {
		detail := ""
		var rd remoteDetail
		if errors.As(err, &rd) {
			detail = rd.Detail()
		}
		return s.fail(name, detail, err)
	}

	metrics.ProvisionTotal.WithLabelValues("ok").Inc()
	s.logger.Info("Ingest pipeline provisioned", zap.String("pipeline", name))
	return nil
}

// fail counts and logs a provisioning failure and wraps it as a ProvisionError.
func (s *Service) fail(name, detail string, err error) error {
	metrics.ProvisionTotal.WithLabelValues("error").Inc()
	s.logger.Error("Ingest pipeline provisioning failed",
		zap.String("pipeline", name),
		zap.String("detail", detail),
		zap.Error(err),
	)
	return domain.NewProvisionError(name, detail, err)
}

// IsIngestCapabilityAvailable reports whether the ingest-attachment plugin is installed.
// The first successful answer is kept until RefreshCapability is called.
// A failed query reports false and is not cached.
func (s *Service) IsIngestCapabilityAvailable(ctx context.Context) bool {
	if v, ok := s.cached(); ok {
		metrics.CapabilityChecksTotal.WithLabelValues("cache", resultLabel(v)).Inc()
		return v
	}

	if s.settings != nil {
		active, found, err := s.settings.Plugin(ctx, IngestAttachmentPlugin)
		switch {
		case err != nil:
			s.logger.Warn("Capability settings lookup failed", zap.Error(err))
		case found:
			s.store(active)
			metrics.CapabilityChecksTotal.WithLabelValues("store", resultLabel(active)).Inc()
			return active
		}
	}

	v, err := s.query(ctx)
	if err != nil {
		s.logger.Warn("Ingest capability check failed", zap.Error(err))
		return false
	}
	s.remember(ctx, v)
	return v
}

// RefreshCapability drops the cached flag and queries the cluster again.
func (s *Service) RefreshCapability(ctx context.Context) (bool, error) {
	s.mu.Lock()
	s.capability = nil
	s.mu.Unlock()

	if s.settings != nil {
		if err := s.settings.ForgetPlugin(ctx, IngestAttachmentPlugin); err != nil {
			s.logger.Warn("Capability settings reset failed", zap.Error(err))
		}
	}

	v, err := s.query(ctx)
	if err != nil {
		return false, err
	}
	s.remember(ctx, v)
	return v, nil
}

func (s *Service) query(ctx context.Context) (bool, error) {
	plugins, err := s.client.CatPlugins(ctx)
	if err != nil {
		metrics.CapabilityChecksTotal.WithLabelValues("remote", "error").Inc()
		return false, fmt.Errorf("cat plugins: %w: %w", domain.ErrProvision, err)
	}
	v := slices.Contains(plugins, IngestAttachmentPlugin)
	metrics.CapabilityChecksTotal.WithLabelValues("remote", resultLabel(v)).Inc()
	return v, nil
}

func (s *Service) remember(ctx context.Context, v bool) {
	s.store(v)
	if s.settings == nil {
		return
	}
	if err := s.settings.SetPlugin(ctx, IngestAttachmentPlugin, v); err != nil {
		s.logger.Warn("Capability settings write failed", zap.Error(err))
	}
}

func (s *Service) cached() (bool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.capability == nil {
		return false, false
	}
	return *s.capability, true
}

func (s *Service) store(v bool) {
	s.mu.Lock()
	s.capability = &v
	s.mu.Unlock()
}

func resultLabel(v bool) string {
	if v {
		return "available"
	}
	return "unavailable"
}
