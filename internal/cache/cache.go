package cache

import (
	"context"
	"sync"
	"time"

	"graphfi/internal/log"
)

// Cache is the subset of LRUCache the HTTP layer depends on.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Take(key string) (T, bool)
	Size() int
}

var _ Cache[[]byte] = (*LRUCache[[]byte])(nil)

// Cleaner is implemented by caches that can drop expired items.
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically cleans every registered cache until stopped.
type Manager struct {
	mu          sync.Mutex
	caches      map[string]Cleaner
	logger      *log.Logger
	stopCleanup chan struct{}
	cleanupDone chan struct{}
	started     bool
	stopOnce    sync.Once
}

// NewManager creates a new cache manager
func NewManager(logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Nop()
	}
	return &Manager{
		caches:      make(map[string]Cleaner),
		logger:      logger.WithComponent(log.ComponentCache),
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a named cache to the cleanup cycle.
func (m *Manager) Register(name string, c Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches[name] = c
}

// CleanAll runs one cleanup pass and returns the number of items removed per cache.
func (m *Manager) CleanAll(ctx context.Context) map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := make(map[string]int, len(m.caches))
	for name, c := range m.caches {
		n := c.CleanExpired()
		removed[name] = n
		if n > 0 {
			m.logger.DebugContext(ctx, "Expired cache items removed",
				"cache", name,
				"removed", n)
		}
	}
	return removed
}

// StartCleanup begins periodic cleanup of all registered caches
func (m *Manager) StartCleanup(interval time.Duration) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.mu.Unlock()

	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.CleanAll(context.Background())
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop ends the cleanup routine and waits for it to exit. It is safe to
// call more than once, and before StartCleanup.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCleanup)
		m.mu.Lock()
		started := m.started
		m.mu.Unlock()
		if started {
			<-m.cleanupDone
		}
	})
}
