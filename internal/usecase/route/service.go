// Package route directs index requests through the attachment ingest pipeline.
package route

import (
	"net/url"
	"strings"

	domdoc "github.com/kailas-cloud/attachdex/internal/domain/document"
)

// PipelineParam is the query parameter that selects an ingest pipeline.
const PipelineParam = "pipeline"

// Router appends the pipeline query parameter to index request paths.
type Router struct {
	pipeline string
}

// New creates a router for the named pipeline.
func New(pipelineName string) *Router {
	return &Router{pipeline: pipelineName}
}

// RouteSinglePath routes a single-document index path. Paths for
// non-attachment documents are returned unchanged.
func (r *Router) RouteSinglePath(path string, doc *domdoc.Document) string {
	if !doc.IsAttachment() {
		return path
	}
	return r.withPipeline(path)
}

// RouteBulkPath routes a bulk index path. Bulk requests always carry the
// pipeline since they may mix attachments with other documents.
func (r *Router) RouteBulkPath(path string) string {
	return r.withPipeline(path)
}

// withPipeline drops any existing pipeline pairs and appends the configured one.
// Other pairs are kept byte for byte, including ones that do not decode.
func (r *Router) withPipeline(path string) string {
	base, rawQuery, _ := strings.Cut(path, "?")

	kept := make([]string, 0, strings.Count(rawQuery, "&")+2)
	for pair := range strings.SplitSeq(rawQuery, "&") {
		if pair == "" || isPipelinePair(pair) {
			continue
		}
		kept = append(kept, pair)
	}
	kept = append(kept, PipelineParam+"="+url.QueryEscape(r.pipeline))
	return base + "?" + strings.Join(kept, "&")
}

func isPipelinePair(pair string) bool {
	key, _, _ := strings.Cut(pair, "=")
	if k, err := url.QueryUnescape(key); err == nil {
		key = k
	}
	return key == PipelineParam
}
