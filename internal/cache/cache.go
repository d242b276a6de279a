// Package cache holds the expiring in-process caches used for login
// sessions, plus a manager that sweeps them periodically.
package cache

import (
	"context"
	"sync"
	"time"

	"fintrack/internal/log"
)

// Cache is a keyed store with per-entry expiry.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner drops expired entries and reports how many went.
type Cleaner interface {
	CleanExpired() int
}

// Manager sweeps registered caches on an interval.
type Manager struct {
	mu     sync.Mutex
	caches []Cleaner
	logger *log.Logger
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
}

func NewManager(logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Discard()
	}
	return &Manager{
		logger: logger.WithComponent(log.ComponentCache),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (m *Manager) Register(c Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches = append(m.caches, c)
}

// Sweep cleans every registered cache once.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	caches := append([]Cleaner(nil), m.caches...)
	m.mu.Unlock()

	total := 0
	for _, c := range caches {
		total += c.CleanExpired()
	}
	return total
}

// StartCleanup sweeps in the background until Stop.
func (m *Manager) StartCleanup(interval time.Duration) {
	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := m.Sweep(); n > 0 {
					m.logger.DebugContext(context.Background(), "Expired cache entries removed", log.FieldCount, n)
				}
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop ends the cleanup goroutine. It is safe to call more than once, and
// must only be called after StartCleanup.
func (m *Manager) Stop() {
	m.once.Do(func() {
		close(m.stop)
		<-m.done
	})
}
