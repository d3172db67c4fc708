package cachego

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/hupe1980/cachego/backend"
	"github.com/hupe1980/cachego/codec"
)

const (
	// DefaultTTL is the entry lifetime used when no TTL is configured.
	DefaultTTL = 5 * time.Minute
	// DefaultMaxSize is the entry bound used when no size is configured.
	DefaultMaxSize = 100
	// DefaultCleanupInterval is the period of the manager's sweep timer.
	DefaultCleanupInterval = time.Minute
)

type options struct {
	ttl            time.Duration
	maxSize        int
	backend        backend.Backend
	codec          codec.Codec
	logger         *Logger
	metrics        MetricsCollector
	persistLimiter *rate.Limiter
	singleFlight   bool
}

func defaultOptions() options {
	return options{
		ttl:     DefaultTTL,
		maxSize: DefaultMaxSize,
		backend: backend.Noop{},
		logger:  NoopLogger(),
		metrics: NoopMetricsCollector{},
	}
}

// Option configures a Cache at construction.
type Option func(*options)

// WithTTL sets the default entry lifetime. Non-positive values fall back to
// DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithMaxSize bounds the number of entries. When a write exceeds the bound,
// the entry with the lowest access count is evicted. Non-positive values fall
// back to DefaultMaxSize.
func WithMaxSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxSize = n
		}
	}
}

// WithBackend selects the persistence backend. The default (and nil) is the
// volatile no-op backend: the cache lives in memory only.
//
// A persistent cache loads its snapshot once at construction, purges entries
// that expired while dormant, and re-persists the full snapshot after every
// mutation.
func WithBackend(b backend.Backend) Option {
	return func(o *options) {
		if b == nil {
			b = backend.Noop{}
		}
		o.backend = b
	}
}

// WithCodec selects the value codec for persisted caches.
//
// Without a codec, values are kept raw in memory and snapshots encode them
// with the default JSON codec on a best-effort basis. With a codec, values
// are encoded on write and decoded on every read, so a Get after a process
// restart yields exactly what the codec reproduces.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		o.codec = c
	}
}

// WithLogger configures structured logging. If nil is passed, logging is
// disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
func WithMetricsCollector(m MetricsCollector) Option {
	return func(o *options) {
		if m == nil {
			m = NoopMetricsCollector{}
		}
		o.metrics = m
	}
}

// WithPersistLimiter rate-limits snapshot writes.
//
// By default every mutation re-persists the full snapshot, which is O(size)
// per write. With a limiter, writes that exceed the budget are skipped
// best-effort; the next allowed mutation persists the complete current state,
// so nothing is lost unless the process dies inside a skipped window.
func WithPersistLimiter(l *rate.Limiter) Option {
	return func(o *options) {
		o.persistLimiter = l
	}
}

// WithSingleFlight coalesces concurrent GetOrSet misses for the same key
// into one factory invocation.
//
// Off by default: the historical contract lets two concurrent misses run the
// factory twice with the last completion winning. Enabling single-flight is
// a deliberate behavioral change, not a compatibility fix.
func WithSingleFlight() Option {
	return func(o *options) {
		o.singleFlight = true
	}
}

type setOptions struct {
	ttl time.Duration
}

// SetOption configures a single write.
type SetOption func(*setOptions)

// WithEntryTTL overrides the cache default TTL for one write.
func WithEntryTTL(ttl time.Duration) SetOption {
	return func(o *setOptions) {
		o.ttl = ttl
	}
}
