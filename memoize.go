package cachego

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

type memoizeOptions[A any] struct {
	keyFn   func(A) string
	setOpts []SetOption
}

// MemoizeOption configures a memoized function.
type MemoizeOption[A any] func(*memoizeOptions[A])

// WithKeyFunc replaces the default structural key generator.
func WithKeyFunc[A any](fn func(A) string) MemoizeOption[A] {
	return func(o *memoizeOptions[A]) {
		o.keyFn = fn
	}
}

// WithResultTTL overrides the cache default TTL for memoized results.
func WithResultTTL[A any](ttl time.Duration) MemoizeOption[A] {
	return func(o *memoizeOptions[A]) {
		o.setOpts = append(o.setOpts, WithEntryTTL(ttl))
	}
}

// Memoize wraps fn so that calls with equal arguments (under the key
// generator's equivalence) within the TTL window reuse the cached result.
//
// The default key generator is a stable structural encoding of the argument:
// encoding/json with its sorted map keys, so two structurally equal maps
// produce the same key. Errors from fn propagate to the caller uncached,
// exactly as in GetOrSet.
func Memoize[A, R any](c *Cache, fn func(context.Context, A) (R, error), opts ...MemoizeOption[A]) func(context.Context, A) (R, error) {
	o := memoizeOptions[A]{keyFn: structuralKey[A]}
	for _, optFn := range opts {
		optFn(&o)
	}

	return func(ctx context.Context, arg A) (R, error) {
		return getOrSet(ctx, c, o.keyFn(arg), func(ctx context.Context) (R, error) {
			return fn(ctx, arg)
		}, o.setOpts...)
	}
}

// Memoize2 is Memoize for two-argument functions. The default key joins the
// structural encodings of both arguments.
func Memoize2[A, B, R any](c *Cache, fn func(context.Context, A, B) (R, error), keyFn func(A, B) string) func(context.Context, A, B) (R, error) {
	if keyFn == nil {
		keyFn = func(a A, b B) string {
			return structuralKey(a) + "," + structuralKey(b)
		}
	}

	return func(ctx context.Context, a A, b B) (R, error) {
		return getOrSet(ctx, c, keyFn(a, b), func(ctx context.Context) (R, error) {
			return fn(ctx, a, b)
		})
	}
}

// structuralKey derives a cache key from an arbitrary argument. encoding/json
// is used deliberately: it guarantees sorted map keys, which makes the
// encoding stable across calls.
func structuralKey[A any](arg A) string {
	b, err := json.Marshal(arg)
	if err != nil {
		// Unencodable arguments still need a deterministic key.
		return fmt.Sprintf("%#v", arg)
	}
	return string(b)
}
