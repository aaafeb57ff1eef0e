package loader

import (
	"path"
	"path/filepath"

	domdoc "github.com/kailas-cloud/attachdex/internal/domain/document"
)

// NewPolicyDecision builds a SizeDecision from configuration.
// indexOversized lifts the size limit; a file whose base name matches any
// exclude pattern is never loaded.
func NewPolicyDecision(indexOversized bool, excludePatterns []string) SizeDecision {
	if !indexOversized && len(excludePatterns) == 0 {
		return Identity
	}
	patterns := append([]string(nil), excludePatterns...)

	return func(allowed bool, p string, _ *domdoc.Document) bool {
		base := path.Base(filepath.ToSlash(p))
		for _, pattern := range patterns {
			if ok, _ := path.Match(pattern, base); ok {
				return false
			}
		}
		return allowed || indexOversized
	}
}
