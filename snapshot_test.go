package cachego

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/hupe1980/cachego/backend"
	"github.com/hupe1980/cachego/codec"
)

func TestSnapshotWireLayout(t *testing.T) {
	ctx := context.Background()
	store := backend.NewMemory()

	c := New(ctx, "wire", WithBackend(store), WithTTL(time.Hour))
	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", "two")
	c.Get(ctx, "a")
	c.Get(ctx, "missing")
	c.Delete(ctx, "nothing") // no-op, does not re-persist

	blob, err := store.Load(ctx, "wire")
	require.NoError(t, err)

	var snap struct {
		Data        [][2]json.RawMessage `json:"data"`
		Timestamps  [][2]json.RawMessage `json:"timestamps"`
		AccessCount [][2]json.RawMessage `json:"accessCount"`
		HitCount    uint64               `json:"hitCount"`
		MissCount   uint64               `json:"missCount"`
	}
	require.NoError(t, json.Unmarshal(blob, &snap))

	require.Len(t, snap.Data, 2)
	require.Len(t, snap.Timestamps, 2)
	require.Len(t, snap.AccessCount, 2)

	// Pairs are [key, value] arrays in insertion order.
	assert.Equal(t, `"a"`, string(snap.Data[0][0]))
	assert.Equal(t, `1`, string(snap.Data[0][1]))
	assert.Equal(t, `"b"`, string(snap.Data[1][0]))
	assert.Equal(t, `"two"`, string(snap.Data[1][1]))

	// Timestamps are epoch milliseconds roughly an hour out.
	var expiresAt int64
	require.NoError(t, json.Unmarshal(snap.Timestamps[0][1], &expiresAt))
	assert.InDelta(t, time.Now().Add(time.Hour).UnixMilli(), expiresAt, float64(10*time.Second/time.Millisecond))

	// "a" was read once between persists; the access count rides along with
	// the next snapshot, which the Delete above did not trigger. Re-persist
	// and check.
	c.Set(ctx, "c", 3)
	blob, err = store.Load(ctx, "wire")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(blob, &snap))

	assert.Equal(t, `"a"`, string(snap.AccessCount[0][0]))
	assert.Equal(t, `1`, string(snap.AccessCount[0][1]))
	assert.Equal(t, uint64(1), snap.HitCount)
	assert.Equal(t, uint64(1), snap.MissCount)
}

func TestSnapshotEncodedValuesAreBase64(t *testing.T) {
	ctx := context.Background()
	store := backend.NewMemory()

	c := New(ctx, "enc", WithBackend(store), WithCodec(codec.GoJSON{}), WithTTL(time.Hour))
	c.Set(ctx, "k", map[string]int{"n": 1})

	blob, err := store.Load(ctx, "enc")
	require.NoError(t, err)

	var snap struct {
		Data [][2]json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(blob, &snap))
	require.Len(t, snap.Data, 1)

	// With a codec the stored value is the codec's output, carried as a
	// base64 JSON string rather than inline JSON.
	var b64 string
	require.NoError(t, json.Unmarshal(snap.Data[0][1], &b64))

	var payload []byte
	require.NoError(t, json.Unmarshal(snap.Data[0][1], &payload))
	assert.JSONEq(t, `{"n":1}`, string(payload))
}

func TestRestoreDropsEntriesWithoutTimestamps(t *testing.T) {
	ctx := context.Background()
	store := backend.NewMemory()

	future := time.Now().Add(time.Hour).UnixMilli()
	blob := []byte(`{
		"data": [["keep", 1], ["orphan", 2]],
		"timestamps": [["keep", ` + jsonInt(future) + `]],
		"accessCount": [["keep", 3]],
		"hitCount": 5,
		"missCount": 2
	}`)
	require.NoError(t, store.Save(ctx, "partial", blob))

	c := New(ctx, "partial", WithBackend(store))

	assert.True(t, c.Has(ctx, "keep"))
	assert.False(t, c.Has(ctx, "orphan"))

	st := c.Stats()
	assert.Equal(t, 1, st.Size)
	assert.Equal(t, uint64(5), st.HitCount)
	assert.Equal(t, uint64(2), st.MissCount)
}

func TestRestoredAccessCountsGuideEviction(t *testing.T) {
	ctx := context.Background()
	store := backend.NewMemory()

	c := New(ctx, "counts", WithBackend(store), WithMaxSize(2), WithTTL(time.Hour))
	c.Set(ctx, "hot", 1)
	c.Set(ctx, "cold", 2)
	c.Get(ctx, "hot")
	c.Get(ctx, "hot")
	c.Set(ctx, "flush", 0) // evicts "cold", persists counts
	c.Delete(ctx, "flush")

	c2 := New(ctx, "counts", WithBackend(store), WithMaxSize(2), WithTTL(time.Hour))
	require.True(t, c2.Has(ctx, "hot"))

	// The restored count keeps "hot" protected from eviction.
	c2.Set(ctx, "new", 3)
	c2.Set(ctx, "newer", 4)
	assert.True(t, c2.Has(ctx, "hot"))
	assert.False(t, c2.Has(ctx, "new"))
}

func TestPersistLimiterThrottlesWrites(t *testing.T) {
	ctx := context.Background()
	store := backend.NewMemory()

	c := New(ctx, "throttled",
		WithBackend(store),
		WithTTL(time.Hour),
		WithPersistLimiter(rate.NewLimiter(rate.Every(time.Hour), 1)),
	)

	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", 2)
	c.Set(ctx, "c", 3)

	// Only the first write got through the limiter.
	blob, err := store.Load(ctx, "throttled")
	require.NoError(t, err)

	var snap struct {
		Data [][2]json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(blob, &snap))
	assert.Len(t, snap.Data, 1)

	// In-memory state is unaffected.
	assert.Equal(t, 3, c.Stats().Size)
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
