package cachego

import "fmt"

// StorageError indicates a backend I/O failure.
//
// Storage errors are caught at the cache boundary, logged, and surfaced
// through the metrics collector; they are never returned from cache
// operations. A load failure means "start empty", a save failure means the
// in-memory state is retained and persistence was best-effort.
//
// The original underlying error can be accessed via errors.Unwrap.
type StorageError struct {
	Op    string // "load", "save", "remove"
	Cache string
	cause error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed for cache %q: %v", e.Op, e.Cache, e.cause)
}

func (e *StorageError) Unwrap() error { return e.cause }

// CodecError indicates a value encode/decode failure.
//
// A decode failure is treated as a cache miss; an encode failure keeps the
// value in memory and skips the persisted write. Like StorageError it never
// escapes the cache API.
//
// The original underlying error can be accessed via errors.Unwrap.
type CodecError struct {
	Codec string
	Cache string
	cause error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("codec %s failed for cache %q: %v", e.Codec, e.Cache, e.cause)
}

func (e *CodecError) Unwrap() error { return e.cause }
