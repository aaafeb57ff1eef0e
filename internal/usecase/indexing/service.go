// Package indexing is the host that runs documents through the attachment
// pipeline stage and submits them to the search cluster.
package indexing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/attachdex/internal/domain"
	"github.com/kailas-cloud/attachdex/internal/domain/batch"
	domdoc "github.com/kailas-cloud/attachdex/internal/domain/document"
	"github.com/kailas-cloud/attachdex/internal/metrics"
)

// Service indexes single documents and batches.
type Service struct {
	filter       Filter
	enricher     Enricher
	router       Router
	client       Client
	index        string
	workers      int
	maxBatchSize int
	logger       *zap.Logger
}

// New creates an indexing service for one index.
func New(filter Filter, enricher Enricher, router Router, client Client, index string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		filter:       filter,
		enricher:     enricher,
		router:       router,
		client:       client,
		index:        index,
		workers:      4,
		maxBatchSize: 100,
		logger:       logger,
	}
}

// WithLimits configures enrichment parallelism and the maximum batch size.
func (s *Service) WithLimits(workers, maxBatchSize int) *Service {
	if workers > 0 {
		s.workers = workers
	}
	if maxBatchSize > 0 {
		s.maxBatchSize = maxBatchSize
	}
	return s
}

// MaxBatchSize returns the configured batch limit.
func (s *Service) MaxBatchSize() int { return s.maxBatchSize }

// IndexOne enriches and indexes a single document.
// Returns false without error when the document is not eligible.
func (s *Service) IndexOne(ctx context.Context, doc *domdoc.Document) (bool, error) {
	if !s.filter.IsEligible(doc) {
		return false, nil
	}

	doc, outcome := s.enricher.EnrichOutcome(ctx, doc)

	body, err := json.Marshal(doc.Source())
	if err != nil {
		return false, fmt.Errorf("encode document %s: %w: %w", doc.ID(), domain.ErrInvalidDocument, err)
	}

	path := s.router.RouteSinglePath(s.docPath(doc.ID()), doc)
	if err := s.client.Index(ctx, path, body); err != nil {
		metrics.IndexRequestsTotal.WithLabelValues("single", "error").Inc()
		return false, fmt.Errorf("index document %s: %w", doc.ID(), err)
	}
	metrics.IndexRequestsTotal.WithLabelValues("single", "ok").Inc()

	s.logger.Debug("Document indexed",
		zap.String("doc_id", doc.ID()),
		zap.String("type", doc.Type()),
		zap.String("enriched", outcome),
	)
	return true, nil
}

// IndexBulk enriches eligible documents in parallel and submits them in one
// bulk request. Results are returned in input order. The error is non-nil only
// when the batch as a whole could not be processed.
func (s *Service) IndexBulk(ctx context.Context, docs []*domdoc.Document) ([]batch.Result, error) {
	if len(docs) > s.maxBatchSize {
		return nil, fmt.Errorf("%d documents, max %d: %w", len(docs), s.maxBatchSize, domain.ErrBatchTooLarge)
	}

	results := make([]batch.Result, len(docs))
	var eligible []int
	for i, d := range docs {
		if s.filter.IsEligible(d) {
			eligible = append(eligible, i)
		} else {
			results[i] = batch.NewSkipped(d.ID())
		}
	}
	if len(eligible) == 0 {
		return results, nil
	}

	outcomes, err := s.enrichAll(ctx, docs, eligible)
	if err != nil {
		return nil, err
	}

	body, err := s.bulkBody(docs, eligible)
	if err != nil {
		return nil, err
	}

	items, err := s.client.Bulk(ctx, s.router.RouteBulkPath(s.bulkPath()), body)
	if err != nil {
		metrics.IndexRequestsTotal.WithLabelValues("bulk", "error").Inc()
		for _, i := range eligible {
			results[i] = batch.NewError(docs[i].ID(), err)
		}
		return results, fmt.Errorf("bulk index: %w", err)
	}
	metrics.IndexRequestsTotal.WithLabelValues("bulk", "ok").Inc()

	for n, i := range eligible {
		id := docs[i].ID()
		switch {
		case n >= len(items):
			results[i] = batch.NewError(id, fmt.Errorf("missing bulk item response: %w", domain.ErrIndexRequest))
		case items[n].Failed():
			results[i] = batch.NewError(id,
				fmt.Errorf("status %d: %s: %w", items[n].Status, items[n].Reason, domain.ErrIndexRequest))
		default:
			results[i] = batch.NewOK(id, outcomes[n])
		}
	}

	s.logger.Info("Bulk indexed",
		zap.Int("total", len(docs)),
		zap.Int("eligible", len(eligible)),
	)
	return results, nil
}

// enrichAll runs enrichment for docs[eligible[n]] and returns outcomes by n.
// Enrichment shares no state between documents.
func (s *Service) enrichAll(ctx context.Context, docs []*domdoc.Document, eligible []int) ([]string, error) {
	outcomes := make([]string, len(eligible))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for n, i := range eligible {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, outcomes[n] = s.enricher.EnrichOutcome(gctx, docs[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("enrich batch: %w", err)
	}
	return outcomes, nil
}

type bulkAction struct {
	Index bulkMeta `json:"index"`
}

type bulkMeta struct {
	ID string `json:"_id"`
}

func (s *Service) bulkBody(docs []*domdoc.Document, eligible []int) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, i := range eligible {
		d := docs[i]
		if err := enc.Encode(bulkAction{Index: bulkMeta{ID: d.ID()}}); err != nil {
			return nil, fmt.Errorf("encode bulk action: %w", err)
		}
		if err := enc.Encode(d.Source()); err != nil {
			return nil, errors.Join(
				fmt.Errorf("encode document %s: %w", d.ID(), domain.ErrInvalidDocument), err)
		}
	}
	return buf.Bytes(), nil
}

func (s *Service) docPath(id string) string {
	return "/" + url.PathEscape(s.index) + "/_doc/" + url.PathEscape(id)
}

func (s *Service) bulkPath() string {
	return "/" + url.PathEscape(s.index) + "/_bulk"
}
