// Package cache holds small in-process caches with TTL expiry, used to avoid
// re-rendering report documents whose rows have not changed.
package cache

import (
	"context"
	"time"

	"creditregister/internal/log"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	// Get retrieves a value from the cache
	Get(key string) (T, bool)

	// Set stores a value in the cache
	Set(key string, data T)

	// Delete removes a key from the cache
	Delete(key string)

	// Size returns the current number of items in the cache
	Size() int
}

// Cleaner is implemented by caches that can drop expired items on demand.
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically sweeps expired items out of its registered caches.
type Manager struct {
	caches []Cleaner
	logger *log.Logger
	done   chan struct{}
}

func NewManager(logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Discard()
	}
	return &Manager{logger: logger.WithComponent(log.ComponentCache)}
}

// Register adds a cache to the manager for cleanup. Call it before Start.
func (m *Manager) Register(c Cleaner) {
	m.caches = append(m.caches, c)
}

// Start sweeps every interval until ctx is done.
func (m *Manager) Start(ctx context.Context, interval time.Duration) {
	m.done = make(chan struct{})
	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := m.Sweep(); n > 0 {
					m.logger.Debug("Expired cache items removed", "items", n)
				}
			}
		}
	}()
}

// Sweep cleans every registered cache once and returns the number of items removed.
func (m *Manager) Sweep() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}

// Wait blocks until the goroutine started by Start has returned.
func (m *Manager) Wait() {
	if m.done != nil {
		<-m.done
	}
}
