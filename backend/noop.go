package backend

import "context"

// Noop is the volatile backend used by memory-only caches: loads find
// nothing, saves and removes do nothing.
type Noop struct{}

// Load always returns ErrNotFound.
func (Noop) Load(context.Context, string) ([]byte, error) { return nil, ErrNotFound }

// Save discards the blob.
func (Noop) Save(context.Context, string, []byte) error { return nil }

// Remove does nothing.
func (Noop) Remove(context.Context, string) error { return nil }

// Name returns "noop".
func (Noop) Name() string { return "noop" }
