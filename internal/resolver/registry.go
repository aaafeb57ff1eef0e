package resolver

import (
	"context"
	"fmt"
)

// Registrar stores id -> path mappings.
type Registrar interface {
	Register(ctx context.Context, docID, path string) error
	Unregister(ctx context.Context, docID string) error
}

// InvalidatingRegistrar changes mappings and drops any cached resolution for them.
type InvalidatingRegistrar struct {
	inner Registrar
	cache *Cached
}

// NewInvalidatingRegistrar wraps inner. cache may be nil.
func NewInvalidatingRegistrar(inner Registrar, cache *Cached) *InvalidatingRegistrar {
	return &InvalidatingRegistrar{inner: inner, cache: cache}
}

// Register implements Registrar.
func (r *InvalidatingRegistrar) Register(ctx context.Context, docID, path string) error {
	if err := r.inner.Register(ctx, docID, path); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	r.forget(docID)
	return nil
}

// Unregister implements Registrar.
func (r *InvalidatingRegistrar) Unregister(ctx context.Context, docID string) error {
	if err := r.inner.Unregister(ctx, docID); err != nil {
		return fmt.Errorf("unregister: %w", err)
	}
	r.forget(docID)
	return nil
}

func (r *InvalidatingRegistrar) forget(docID string) {
	if r.cache != nil {
		r.cache.Forget(docID)
	}
}
