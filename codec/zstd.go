package codec

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Zstd wraps an inner codec with zstd block compression.
//
// Useful for large values on persisted caches (2-3x smaller blobs, slightly
// slower writes). The compressed output is opaque bytes, not JSON.
type Zstd struct {
	inner Codec

	once    sync.Once
	enc     *zstd.Encoder
	dec     *zstd.Decoder
	initErr error
}

// NewZstd creates a zstd-compressing wrapper around inner.
// If inner is nil, Default is used.
func NewZstd(inner Codec) *Zstd {
	if inner == nil {
		inner = Default
	}
	return &Zstd{inner: inner}
}

func (z *Zstd) init() error {
	z.once.Do(func() {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			z.initErr = err
			return
		}
		dec, err := zstd.NewReader(nil)
		if err != nil {
			z.initErr = err
			return
		}
		z.enc = enc
		z.dec = dec
	})
	return z.initErr
}

// Marshal encodes the value with the inner codec and compresses the result.
func (z *Zstd) Marshal(v any) ([]byte, error) {
	if err := z.init(); err != nil {
		return nil, err
	}
	b, err := z.inner.Marshal(v)
	if err != nil {
		return nil, err
	}
	return z.enc.EncodeAll(b, nil), nil
}

// Unmarshal decompresses the data and decodes it with the inner codec.
func (z *Zstd) Unmarshal(data []byte, v any) error {
	if err := z.init(); err != nil {
		return err
	}
	b, err := z.dec.DecodeAll(data, nil)
	if err != nil {
		return err
	}
	return z.inner.Unmarshal(b, v)
}

// Name returns the composite codec name (e.g. "zstd+go-json").
func (z *Zstd) Name() string {
	return fmt.Sprintf("zstd+%s", z.inner.Name())
}
