// Package backend provides the durable key-value slot behind persisted
// caches. Each cache name maps to one opaque snapshot blob.
package backend

import (
	"context"
	"os"
)

// ErrNotFound is returned by Load when no blob exists for a cache name.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Backend stores one snapshot blob per cache name.
//
// Implementations must be safe for concurrent use. Save must replace the
// previous blob atomically as observed by Load: a concurrent Load sees either
// the old or the new blob, never a torn write.
type Backend interface {
	// Load returns the blob for name, or ErrNotFound.
	Load(ctx context.Context, name string) ([]byte, error)
	// Save replaces the blob for name.
	Save(ctx context.Context, name string, data []byte) error
	// Remove deletes the blob for name. Removing an absent blob is not an error.
	Remove(ctx context.Context, name string) error
	// Name identifies the backend kind in stats and logs.
	Name() string
}
