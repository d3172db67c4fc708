package cachego

import "context"

// TypedCache is a typed view over a Cache. On a codec-backed cache, reads
// decode directly into T; on an identity cache, a stored value of a
// different type reads as a miss.
type TypedCache[T any] struct {
	c *Cache
}

// Typed creates a typed view over c. Multiple views may share one cache.
func Typed[T any](c *Cache) *TypedCache[T] {
	return &TypedCache[T]{c: c}
}

// Get returns the value for key, or (zero, false) on a miss.
func (t *TypedCache[T]) Get(ctx context.Context, key string) (T, bool) {
	var out T
	ok := t.c.getInto(ctx, key, &out)
	return out, ok
}

// Set stores val under key with Set semantics.
func (t *TypedCache[T]) Set(ctx context.Context, key string, val T, opts ...SetOption) {
	t.c.Set(ctx, key, val, opts...)
}

// GetOrSet returns the cached value for key, running factory on a miss.
// Factory errors propagate uncached.
func (t *TypedCache[T]) GetOrSet(ctx context.Context, key string, factory func(context.Context) (T, error), opts ...SetOption) (T, error) {
	return getOrSet(ctx, t.c, key, factory, opts...)
}

// Has reports whether key holds a live entry.
func (t *TypedCache[T]) Has(ctx context.Context, key string) bool {
	return t.c.Has(ctx, key)
}

// Delete removes key.
func (t *TypedCache[T]) Delete(ctx context.Context, key string) {
	t.c.Delete(ctx, key)
}
