// Package loader reads an attachment's file content under a size policy.
package loader

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/attachdex/internal/domain"
	domdoc "github.com/kailas-cloud/attachdex/internal/domain/document"
	"github.com/kailas-cloud/attachdex/internal/domain/load"
	"github.com/kailas-cloud/attachdex/internal/domain/sizepolicy"
)

// Loader resolves and reads attachment files.
type Loader struct {
	resolver FileResolver
	fs       Filesystem
	decide   SizeDecision
}

// New creates a loader. A nil decide keeps the default verdict.
func New(resolver FileResolver, fs Filesystem, decide SizeDecision) *Loader {
	if decide == nil {
		decide = Identity
	}
	return &Loader{resolver: resolver, fs: fs, decide: decide}
}

// Identity is the default SizeDecision.
func Identity(allowed bool, _ string, _ *domdoc.Document) bool { return allowed }

// Load returns the file bytes, a skip reason, or a read error. It never retries.
func (l *Loader) Load(ctx context.Context, doc *domdoc.Document, policy sizepolicy.Policy) load.Result {
	path, err := l.resolver.Resolve(ctx, doc.ID())
	if err != nil {
		if errors.Is(err, domain.ErrFileNotResolved) {
			return load.Skipped(load.FileMissing)
		}
		return load.Error(fmt.Errorf("resolve file for %s: %w", doc.ID(), err))
	}
	if path == "" || !l.fs.Exists(ctx, path) {
		return load.Skipped(load.FileMissing)
	}

	size, err := l.fs.Size(ctx, path)
	if err != nil {
		return load.Skipped(load.FileMissing)
	}

	oversized := policy.Oversized(size)
	if !l.decide(!oversized, path, doc) {
		if oversized {
			return load.Skipped(load.TooLarge)
		}
		return load.Skipped(load.PolicyExcluded)
	}

	content, err := l.fs.GetContents(ctx, path)
	if err != nil {
		return load.Error(fmt.Errorf("read %s: %w: %w", path, domain.ErrIO, err))
	}
	return load.Bytes(content)
}
