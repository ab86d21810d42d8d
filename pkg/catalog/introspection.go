package catalog

import (
	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	Root          string   `json:"root"`
	SystemDir     string   `json:"system_dir"`
	Exclude       []string `json:"exclude,omitempty"`
	LockRetries   int      `json:"lock_retries"`
	LockStaleMS   int64    `json:"lock_stale_ms"`
	WatcherActive bool     `json:"watcher_active"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return StoreState{
		Root:          s.Root,
		SystemDir:     s.config.SystemDir,
		Exclude:       s.config.Exclude,
		LockRetries:   s.lock.retries,
		LockStaleMS:   s.lock.stale.Milliseconds(),
		WatcherActive: s.watcherActive,
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "catalog-store"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)

func (s *Store) setWatcherActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watcherActive = active
}
