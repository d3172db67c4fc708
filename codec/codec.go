// Package codec centralizes value encoding for persisted caches.
//
// Cachego treats codec selection as a compatibility boundary: if you change
// the codec of a named cache, blobs persisted by the previous codec may no
// longer decode and are treated as cache misses.
package codec

// Codec encodes/decodes cache values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
//
// Compressing wrappers (Zstd, LZ4) produce composite names such as
// "zstd+go-json" and are not resolvable here; construct them explicitly.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}
