// ABOUTME: Atomically swappable configuration snapshot with hot reload
// ABOUTME: Readers get an immutable *Config; Reload swaps the whole snapshot

package config

import (
	"fmt"
	"sync/atomic"
)

// Store holds the current configuration snapshot. Components that must see
// configuration changes without a restart (provider routing, Azure settings)
// call Snapshot on every request instead of capturing a *Config at startup.
//
// This is the explicit hot-reload policy: Reload is the only writer, readers
// never observe a half-written configuration, and a failed reload keeps the
// previous snapshot in place.
type Store struct {
	path    string
	current atomic.Pointer[Config]
}

// NewStore creates a Store seeded with an already-loaded configuration.
// path may be empty when the configuration came from the environment;
// Reload then re-reads the environment instead of a file.
func NewStore(path string, cfg *Config) *Store {
	s := &Store{path: path}
	s.current.Store(cfg)
	return s
}

// Snapshot returns the current configuration. The returned value must be
// treated as read-only.
func (s *Store) Snapshot() *Config {
	return s.current.Load()
}

// Reload re-reads the configuration source and atomically swaps the snapshot.
// On failure the previous snapshot stays active and the error is returned for
// logging.
func (s *Store) Reload() error {
	var (
		cfg *Config
		err error
	)
	if s.path != "" {
		cfg, err = Load(s.path)
	} else {
		cfg, err = FromEnv()
	}
	if err != nil {
		return fmt.Errorf("reloading config: %w", err)
	}

	s.current.Store(cfg)
	return nil
}
