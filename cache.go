package cachego

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/hupe1980/cachego/backend"
	"github.com/hupe1980/cachego/codec"
)

// Cache is a TTL entry store with size-bounded eviction, hit/miss statistics,
// and optional persistence. All methods are safe for concurrent use.
//
// Every operation is atomic under the cache lock; the only unlocked window is
// the factory call inside GetOrSet. Two concurrent GetOrSet calls for the
// same cold key therefore both run their factory unless WithSingleFlight is
// set, and the last completion wins.
type Cache struct {
	name    string
	ttl     time.Duration
	maxSize int

	mu      sync.Mutex
	entries map[string]*entry
	order   []string // insertion order; tie-break for eviction
	hits    uint64
	misses  uint64

	backend    backend.Backend
	persistent bool
	codec      codec.Codec
	limiter    *rate.Limiter
	sf         *singleflight.Group

	logger  *Logger
	metrics MetricsCollector
	now     func() time.Time
}

type entry struct {
	value       any
	encoded     bool // value holds codec output ([]byte), not the raw value
	expiresAt   time.Time
	accessCount uint64
}

// New creates a cache with the given name.
//
// If a persistent backend is configured, the previous snapshot is loaded and
// entries that expired while the state was dormant are purged immediately.
// Any load failure (missing slot, corrupt blob) means starting empty, never
// an error.
func New(ctx context.Context, name string, opts ...Option) *Cache {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}

	_, noop := o.backend.(backend.Noop)

	c := &Cache{
		name:       name,
		ttl:        o.ttl,
		maxSize:    o.maxSize,
		entries:    make(map[string]*entry),
		backend:    o.backend,
		persistent: !noop,
		codec:      o.codec,
		limiter:    o.persistLimiter,
		logger:     o.logger,
		metrics:    o.metrics,
		now:        time.Now,
	}
	if o.singleFlight {
		c.sf = &singleflight.Group{}
	}

	c.load(ctx)

	return c
}

// Name returns the cache name.
func (c *Cache) Name() string { return c.name }

// Set stores value under key, replacing any previous entry.
//
// The entry expires at now + TTL (per-call override via WithEntryTTL, cache
// default otherwise) and its access count restarts at zero. If the write
// pushes the cache past its size bound, one entry is evicted before Set
// returns. Persistent caches re-persist the full snapshot synchronously;
// storage and codec failures are logged and degrade to memory-only state.
//
// An empty key is ignored.
func (c *Cache) Set(ctx context.Context, key string, value any, opts ...SetOption) {
	if key == "" {
		c.logger.WarnContext(ctx, "ignoring set with empty key", "cache", c.name)
		return
	}
	start := time.Now()

	var so setOptions
	for _, fn := range opts {
		fn(&so)
	}
	ttl := so.ttl
	if ttl <= 0 {
		ttl = c.ttl
	}

	stored := value
	encoded := false
	if c.codec != nil {
		b, err := c.codec.Marshal(value)
		if err != nil {
			// Value stays usable in memory; only persistence is degraded.
			cerr := &CodecError{Codec: c.codec.Name(), Cache: c.name, cause: err}
			c.logger.WarnContext(ctx, "value not encodable, kept in memory only",
				"cache", c.name, "key", key, "error", cerr)
		} else {
			stored = b
			encoded = true
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = &entry{
		value:     stored,
		encoded:   encoded,
		expiresAt: c.now().Add(ttl),
	}

	if len(c.entries) > c.maxSize {
		c.evictLocked(ctx)
	}

	c.persistLocked(ctx)
	c.metrics.RecordSet(c.name, time.Since(start))
}

// Get returns the decoded value for key, or (nil, false) when the key is
// absent or expired. Discovering an expired entry deletes it and counts the
// call as a miss; a hit bumps the hit counter and the entry's access count.
func (c *Cache) Get(ctx context.Context, key string) (any, bool) {
	var out any
	if !c.getInto(ctx, key, &out) {
		return nil, false
	}
	return out, true
}

// getInto looks up key and writes the decoded value into dst (a non-nil
// pointer). All hit/miss accounting lives here; Get, TypedCache, and Memoize
// share it.
func (c *Cache) getInto(ctx context.Context, key string, dst any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.missLocked()
		return false
	}
	if !c.now().Before(e.expiresAt) {
		c.removeLocked(key)
		c.persistLocked(ctx)
		c.missLocked()
		return false
	}

	if e.encoded {
		if err := c.codec.Unmarshal(e.value.([]byte), dst); err != nil {
			// Undecodable blob is as good as absent.
			cerr := &CodecError{Codec: c.codec.Name(), Cache: c.name, cause: err}
			c.logger.WarnContext(ctx, "value not decodable, treating as miss",
				"cache", c.name, "key", key, "error", cerr)
			c.removeLocked(key)
			c.persistLocked(ctx)
			c.missLocked()
			return false
		}
	} else if !assign(dst, e.value) {
		c.missLocked()
		return false
	}

	e.accessCount++
	c.hits++
	c.metrics.RecordGet(c.name, true)
	return true
}

func (c *Cache) missLocked() {
	c.misses++
	c.metrics.RecordGet(c.name, false)
}

// Has reports whether key holds a live entry. An expired entry found here is
// deleted, but Has never touches the hit/miss counters.
func (c *Cache) Has(ctx context.Context, key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	if !c.now().Before(e.expiresAt) {
		c.removeLocked(key)
		c.persistLocked(ctx)
		return false
	}
	return true
}

// Delete removes key. Persistent caches re-persist the snapshot.
func (c *Cache) Delete(ctx context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		return
	}
	c.removeLocked(key)
	c.persistLocked(ctx)
}

// Clear empties the cache, resets the hit/miss counters, and removes the
// backend slot entirely (not just the in-memory view).
func (c *Cache) Clear(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry)
	c.order = nil
	c.hits = 0
	c.misses = 0

	if !c.persistent {
		return
	}
	if err := c.backend.Remove(ctx, c.name); err != nil {
		serr := &StorageError{Op: "remove", Cache: c.name, cause: err}
		c.logger.WarnContext(ctx, "clearing backend slot failed",
			"cache", c.name, "error", serr)
	}
}

// GetOrSet returns the cached value for key, running factory on a miss.
// A non-nil factory result is stored with Set semantics and returned.
//
// Factory errors are not swallowed: they propagate to the caller and nothing
// is cached. This is the only error class the cache ever relays.
func (c *Cache) GetOrSet(ctx context.Context, key string, factory func(context.Context) (any, error), opts ...SetOption) (any, error) {
	return getOrSet(ctx, c, key, factory, opts...)
}

// getOrSet is the shared miss path for GetOrSet, TypedCache, and Memoize.
// The factory runs outside the cache lock.
func getOrSet[T any](ctx context.Context, c *Cache, key string, factory func(context.Context) (T, error), opts ...SetOption) (T, error) {
	var zero T

	var cached T
	if c.getInto(ctx, key, &cached) {
		return cached, nil
	}

	call := func() (any, error) {
		if c.sf != nil {
			// Another flight may have populated the key while we queued.
			var again T
			if c.getInto(ctx, key, &again) {
				return again, nil
			}
		}
		v, err := factory(ctx)
		if err != nil {
			return nil, err
		}
		if !isNil(v) {
			c.Set(ctx, key, v, opts...)
		}
		return v, nil
	}

	var v any
	var err error
	if c.sf != nil {
		v, err, _ = c.sf.Do(key, call)
	} else {
		v, err = call()
	}
	if err != nil {
		return zero, err
	}
	out, _ := v.(T)
	return out, nil
}

// Cleanup removes every expired entry and returns how many were dropped.
// The manager's periodic sweep calls this on each registered cache; it also
// runs once at construction for persistent caches.
func (c *Cache) Cleanup(ctx context.Context) int {
	start := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var expired []string
	for _, key := range c.order {
		if !now.Before(c.entries[key].expiresAt) {
			expired = append(expired, key)
		}
	}
	for _, key := range expired {
		c.removeLocked(key)
	}
	if len(expired) > 0 {
		c.persistLocked(ctx)
	}

	c.logger.LogSweep(ctx, c.name, len(expired))
	c.metrics.RecordSweep(c.name, len(expired), time.Since(start))
	return len(expired)
}

// Evict removes the entry with the lowest access count, breaking ties by
// insertion order, and returns the evicted key. Despite the historical "LRU"
// label this is least-frequently-used: no recency timestamp is tracked.
func (c *Cache) Evict(ctx context.Context) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key, ok := c.evictLocked(ctx)
	if ok {
		c.persistLocked(ctx)
	}
	return key, ok
}

func (c *Cache) evictLocked(ctx context.Context) (string, bool) {
	if len(c.order) == 0 {
		return "", false
	}

	victim := c.order[0]
	lowest := c.entries[victim].accessCount
	for _, key := range c.order[1:] {
		if count := c.entries[key].accessCount; count < lowest {
			victim = key
			lowest = count
		}
	}

	c.removeLocked(victim)
	c.logger.LogEviction(ctx, c.name, victim, lowest)
	c.metrics.RecordEviction(c.name)
	return victim, true
}

func (c *Cache) removeLocked(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Stats returns a point-in-time snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var hitRate float64
	if total := c.hits + c.misses; total > 0 {
		hitRate = float64(c.hits) / float64(total) * 100
	}

	kind := "volatile"
	if c.persistent {
		kind = c.backend.Name()
	}

	return Stats{
		Name:      c.name,
		Size:      len(c.entries),
		MaxSize:   c.maxSize,
		HitCount:  c.hits,
		MissCount: c.misses,
		HitRate:   hitRate,
		TTL:       c.ttl,
		Backend:   kind,
	}
}

// Stats describes one cache at a point in time.
type Stats struct {
	Name      string        `json:"name"`
	Size      int           `json:"size"`
	MaxSize   int           `json:"maxSize"`
	HitCount  uint64        `json:"hitCount"`
	MissCount uint64        `json:"missCount"`
	HitRate   float64       `json:"hitRate"` // percent; 0 with no accesses
	TTL       time.Duration `json:"ttl"`
	Backend   string        `json:"backend"`
}

// load restores the persisted snapshot at construction time.
func (c *Cache) load(ctx context.Context) {
	if !c.persistent {
		return
	}

	data, err := c.backend.Load(ctx, c.name)
	if err != nil {
		if !errors.Is(err, backend.ErrNotFound) {
			serr := &StorageError{Op: "load", Cache: c.name, cause: err}
			c.logger.LogLoad(ctx, c.name, 0, serr)
		}
		return
	}

	restored, err := c.restore(data)
	if err != nil {
		c.logger.LogLoad(ctx, c.name, 0, err)
		return
	}
	c.logger.LogLoad(ctx, c.name, restored, nil)

	// Drop whatever expired while the snapshot was dormant.
	c.Cleanup(ctx)
}

func assign(dst, v any) bool {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return false
	}
	ev := rv.Elem()
	if v == nil {
		ev.SetZero()
		return true
	}
	vv := reflect.ValueOf(v)
	if !vv.Type().AssignableTo(ev.Type()) {
		return false
	}
	ev.Set(vv)
	return true
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
