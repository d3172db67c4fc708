// Package cachego provides a registry of named caches with TTL expiration,
// size-bounded eviction, pluggable persistence, and a memoization helper.
//
// # Quick Start
//
// Memory-only cache:
//
//	ctx := context.Background()
//	m := cachego.NewManager()
//	defer m.Close()
//
//	api := m.GetCache(ctx, "api", cachego.WithTTL(5*time.Minute))
//	api.Set(ctx, "chapters:42", chapters)
//	v, ok := api.Get(ctx, "chapters:42")
//
// Persisted cache (one snapshot blob per cache name):
//
//	api := m.GetCache(ctx, "api",
//	    cachego.WithBackend(backend.NewLocal("./cache")),
//	    cachego.WithCodec(codec.GoJSON{}),
//	)
//
// Backends exist for the local filesystem, bbolt, S3, DynamoDB, and MinIO;
// see the backend subpackages. Any profile (a five-minute persisted API
// cache, a thirty-minute volatile image cache, ...) is plain configuration —
// nothing in the engine special-cases a name.
//
// # Loading Through the Cache
//
// GetOrSet runs a factory on a miss and caches non-nil results. Factory
// errors are the only errors the cache ever relays to callers; storage and
// codec failures are logged and degrade to memory-only operation.
//
//	v, err := api.GetOrSet(ctx, key, func(ctx context.Context) (any, error) {
//	    return fetchChapter(ctx, id)
//	})
//
// Two concurrent GetOrSet calls for the same cold key both run the factory
// (last write wins). Opt in to coalescing with WithSingleFlight.
//
// # Memoization
//
//	lookup := cachego.Memoize(api, fetchChapter)
//	chapter, err := lookup(ctx, 42)
//
// # Sweeping
//
// Expired entries are dropped lazily on access. Manager.StartCleanup installs
// a single periodic sweep (default every minute) that purges expired entries
// of every registered cache regardless of access.
//
// # Eviction
//
// When a Set pushes a cache past its maximum size, the entry with the lowest
// access count is evicted (ties broken by insertion order). This is
// least-frequently-used, not recency-based LRU: no access timestamps are
// tracked.
package cachego
