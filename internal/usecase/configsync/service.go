// Package configsync pushes attachment settings to the search cluster.
package configsync

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domdoc "github.com/kailas-cloud/attachdex/internal/domain/document"
	"github.com/kailas-cloud/attachdex/internal/domain/mapping"
	"github.com/kailas-cloud/attachdex/internal/domain/pipeline"
)

// Report is the outcome of one sync run. Step failures are recorded, not returned.
type Report struct {
	RunID               string
	Pipeline            string
	Index               string
	PipelineErr         error
	MappingErr          error
	CapabilityAvailable bool
	CapabilityErr       error
	Duration            time.Duration
}

// OK reports whether every step succeeded.
func (r Report) OK() bool {
	return r.PipelineErr == nil && r.MappingErr == nil && r.CapabilityErr == nil
}

// Service runs configuration sync.
type Service struct {
	prov       Provisioner
	mappings   MappingWriter
	descriptor pipeline.Descriptor
	index      string
	base       mapping.Mapping
	logger     *zap.Logger
}

// New creates a sync service. mappings may be nil to skip the mapping step.
func New(
	prov Provisioner, mappings MappingWriter, descriptor pipeline.Descriptor,
	index string, logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		prov:       prov,
		mappings:   mappings,
		descriptor: descriptor,
		index:      index,
		logger:     logger,
	}
}

// WithBaseMapping sets the mapping the attachment object is merged into.
func (s *Service) WithBaseMapping(m mapping.Mapping) *Service {
	s.base = m
	return s
}

// Sync provisions the pipeline, applies the index mapping and refreshes the
// capability flag. A failing step does not stop the following ones.
func (s *Service) Sync(ctx context.Context) Report {
	start := time.Now()
	r := Report{
		RunID:    uuid.NewString(),
		Pipeline: s.descriptor.Name(),
		Index:    s.index,
	}
	log := s.logger.With(zap.String("sync_run_id", r.RunID))

	if err := s.prov.EnsurePipeline(ctx, s.descriptor); err != nil {
		r.PipelineErr = err
		log.Error("Pipeline sync failed", zap.Error(err))
	}

	if s.mappings != nil {
		m := mapping.WithAttachmentObject(s.base)
		if err := s.mappings.ApplyMapping(ctx, s.index, m); err != nil {
			r.MappingErr = err
			log.Error("Mapping sync failed", zap.String("index", s.index), zap.Error(err))
		}
	}

	available, err := s.prov.RefreshCapability(ctx)
	if err != nil {
		r.CapabilityErr = err
		log.Warn("Capability refresh failed", zap.Error(err))
	}
	r.CapabilityAvailable = available
	if err == nil && !available {
		log.Warn("Ingest attachment plugin is not installed; attachment content will not be extracted")
	}

	r.Duration = time.Since(start)
	log.Info("Configuration sync finished",
		zap.Bool("ok", r.OK()),
		zap.Bool("capability", r.CapabilityAvailable),
		zap.Duration("duration", r.Duration),
	)
	return r
}

// SyncTypes returns types with the attachment type appended once.
func SyncTypes(types []string) []string {
	if slices.Contains(types, domdoc.TypeAttachment) {
		return slices.Clone(types)
	}
	return append(slices.Clone(types), domdoc.TypeAttachment)
}
