package cachego

import (
	"context"
	"sync"
	"time"
)

// Manager owns named caches with shared defaults and a single periodic sweep
// timer. Caches are created lazily on first GetCache and live until the
// manager is closed.
//
// There is no ambient process-wide manager: construct one at application
// start-up and pass it to consumers.
type Manager struct {
	mu     sync.Mutex
	caches map[string]*Cache

	cacheDefaults   []Option
	cleanupInterval time.Duration
	logger          *Logger

	// Sweeper ownership. cancel is non-nil while the sweeper runs.
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type managerOptions struct {
	cleanupInterval time.Duration
	cacheDefaults   []Option
	logger          *Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*managerOptions)

// WithCleanupInterval sets the period of the sweep timer installed by
// StartCleanup. Non-positive values fall back to DefaultCleanupInterval.
func WithCleanupInterval(d time.Duration) ManagerOption {
	return func(o *managerOptions) {
		if d > 0 {
			o.cleanupInterval = d
		}
	}
}

// WithCacheDefaults sets options applied to every cache the manager creates.
// Per-call GetCache options are applied on top and win.
func WithCacheDefaults(opts ...Option) ManagerOption {
	return func(o *managerOptions) {
		o.cacheDefaults = append(o.cacheDefaults, opts...)
	}
}

// WithManagerLogger configures the manager's own logging (sweep activity).
// If nil is passed, logging is disabled.
func WithManagerLogger(l *Logger) ManagerOption {
	return func(o *managerOptions) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// NewManager creates a Manager. The sweep timer does not run until
// StartCleanup is called.
func NewManager(opts ...ManagerOption) *Manager {
	o := managerOptions{
		cleanupInterval: DefaultCleanupInterval,
		logger:          NoopLogger(),
	}
	for _, fn := range opts {
		fn(&o)
	}

	return &Manager{
		caches:          make(map[string]*Cache),
		cacheDefaults:   o.cacheDefaults,
		cleanupInterval: o.cleanupInterval,
		logger:          o.logger,
	}
}

// GetCache returns the cache registered under name, creating it on first use
// with the given options merged over the manager defaults. The instance is a
// singleton per name for the lifetime of the manager: later calls return the
// existing cache and ignore the options.
func (m *Manager) GetCache(ctx context.Context, name string, opts ...Option) *Cache {
	m.mu.Lock()
	if c, ok := m.caches[name]; ok {
		m.mu.Unlock()
		return c
	}
	merged := make([]Option, 0, len(m.cacheDefaults)+len(opts))
	merged = append(merged, m.cacheDefaults...)
	merged = append(merged, opts...)
	m.mu.Unlock()

	// Construction loads persisted state and must not hold the registry
	// lock. Recheck after: a concurrent GetCache for the same name may have
	// won, in which case its instance stays registered.
	c := New(ctx, name, merged...)

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.caches[name]; ok {
		return existing
	}
	m.caches[name] = c
	return c
}

// StartCleanup installs the periodic sweep timer. Idempotent: only one timer
// exists per manager regardless of call count. Each tick runs Cleanup on
// every registered cache.
func (m *Manager) StartCleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.wg.Add(1)
	go m.sweep(ctx)
}

func (m *Manager) sweep(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := 0
			for _, c := range m.snapshotCaches() {
				removed += c.Cleanup(ctx)
			}
			if removed > 0 {
				m.logger.DebugContext(ctx, "sweep pass completed", "removed", removed)
			}
		}
	}
}

func (m *Manager) snapshotCaches() []*Cache {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Cache, 0, len(m.caches))
	for _, c := range m.caches {
		out = append(out, c)
	}
	return out
}

// Close stops the sweep timer. Safe to call multiple times; caches remain
// usable afterwards but are no longer swept.
func (m *Manager) Close() error {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
		m.wg.Wait()
	}
	return nil
}

// ClearAll clears every registered cache.
func (m *Manager) ClearAll(ctx context.Context) {
	for _, c := range m.snapshotCaches() {
		c.Clear(ctx)
	}
}

// Stats returns per-cache statistics for all registered caches.
func (m *Manager) Stats() map[string]Stats {
	caches := m.snapshotCaches()
	out := make(map[string]Stats, len(caches))
	for _, c := range caches {
		out[c.Name()] = c.Stats()
	}
	return out
}
