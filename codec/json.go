package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// Notes:
// - For typical structs/maps/slices JSON is stable and portable.
// - Time, complex numbers, funcs, channels, etc may not be supported.
//
// If you need custom encoding (e.g. protobuf/msgpack), implement Codec and
// pass it to the cache at construction.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the codec used for snapshot framing and as the inner codec of
// the compressing wrappers when none is given.
//
// Persisted snapshots are plain JSON regardless of which JSON implementation
// produced them, so Default may change between releases without breaking
// existing blobs.
var Default Codec = GoJSON{}
