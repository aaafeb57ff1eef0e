// Package settings persists the cached search-index capability flags shared by all processes.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/attachdex/internal/db"
)

const pluginKeyPrefix = "settings:plugins:"

// store is the consumer interface for settings persistence (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Store keeps plugin capability flags under {prefix}settings:plugins:{name}.
type Store struct {
	store  store
	prefix string
	ttl    time.Duration
}

// New creates a settings store. ttl <= 0 keeps flags until explicitly refreshed.
func New(s store, keyPrefix string, ttl time.Duration) *Store {
	return &Store{store: s, prefix: keyPrefix, ttl: ttl}
}

// Plugin returns the cached flag for a plugin. found is false when no value is stored.
func (s *Store) Plugin(ctx context.Context, name string) (active, found bool, err error) {
	data, err := s.store.Get(ctx, s.key(name))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return false, false, nil
		}
		return false, false, fmt.Errorf("settings GET %s: %w", name, err)
	}

	v, err := strconv.ParseBool(string(data))
	if err != nil {
		return false, false, fmt.Errorf("settings GET %s parse: %w", name, err)
	}
	return v, true, nil
}

// SetPlugin stores the flag for a plugin.
func (s *Store) SetPlugin(ctx context.Context, name string, active bool) error {
	val := []byte(strconv.FormatBool(active))
	var err error
	if s.ttl > 0 {
		err = s.store.SetWithTTL(ctx, s.key(name), val, s.ttl)
	} else {
		err = s.store.Set(ctx, s.key(name), val)
	}
	if err != nil {
		return fmt.Errorf("settings SET %s: %w", name, err)
	}
	return nil
}

// ForgetPlugin drops the cached flag for a plugin.
func (s *Store) ForgetPlugin(ctx context.Context, name string) error {
	if err := s.store.Del(ctx, s.key(name)); err != nil {
		return fmt.Errorf("settings DEL %s: %w", name, err)
	}
	return nil
}

func (s *Store) key(name string) string {
	return s.prefix + pluginKeyPrefix + name
}
