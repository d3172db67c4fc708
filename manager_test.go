package cachego

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/cachego/backend"
)

func TestManagerGetCacheSingleton(t *testing.T) {
	ctx := context.Background()
	m := NewManager()
	defer m.Close()

	a := m.GetCache(ctx, "users")
	b := m.GetCache(ctx, "users")
	other := m.GetCache(ctx, "sessions")

	assert.Same(t, a, b)
	assert.NotSame(t, a, other)
}

func TestManagerIgnoresOptionsOnSecondGet(t *testing.T) {
	ctx := context.Background()
	m := NewManager()
	defer m.Close()

	c := m.GetCache(ctx, "users", WithMaxSize(5))
	again := m.GetCache(ctx, "users", WithMaxSize(500))

	assert.Same(t, c, again)
	assert.Equal(t, 5, again.Stats().MaxSize)
}

func TestManagerDefaultsMerge(t *testing.T) {
	ctx := context.Background()
	m := NewManager(WithCacheDefaults(WithTTL(time.Hour), WithMaxSize(10)))
	defer m.Close()

	// Defaults apply as-is.
	c := m.GetCache(ctx, "a")
	st := c.Stats()
	assert.Equal(t, time.Hour, st.TTL)
	assert.Equal(t, 10, st.MaxSize)

	// Per-call options win over defaults.
	c2 := m.GetCache(ctx, "b", WithTTL(time.Minute))
	st2 := c2.Stats()
	assert.Equal(t, time.Minute, st2.TTL)
	assert.Equal(t, 10, st2.MaxSize)
}

func TestManagerStartCleanupSweeps(t *testing.T) {
	ctx := context.Background()
	m := NewManager(WithCleanupInterval(10 * time.Millisecond))
	defer m.Close()

	c := m.GetCache(ctx, "sweepy", WithTTL(time.Hour))
	c.Set(ctx, "gone", 1, WithEntryTTL(time.Millisecond))
	c.Set(ctx, "kept", 2)

	m.StartCleanup()

	assert.Eventually(t, func() bool {
		return c.Stats().Size == 1
	}, time.Second, 5*time.Millisecond)
	assert.True(t, c.Has(ctx, "kept"))
}

func TestManagerStartCleanupIdempotent(t *testing.T) {
	m := NewManager(WithCleanupInterval(10 * time.Millisecond))

	m.StartCleanup()
	m.StartCleanup()
	m.StartCleanup()

	require.NoError(t, m.Close())
	// Close is safe to repeat, and caches survive it.
	require.NoError(t, m.Close())
}

func TestManagerCachesUsableAfterClose(t *testing.T) {
	ctx := context.Background()
	m := NewManager()

	c := m.GetCache(ctx, "users")
	require.NoError(t, m.Close())

	c.Set(ctx, "a", 1)
	assert.True(t, c.Has(ctx, "a"))
}

func TestManagerClearAll(t *testing.T) {
	ctx := context.Background()
	store := backend.NewMemory()
	m := NewManager()
	defer m.Close()

	a := m.GetCache(ctx, "a", WithBackend(store))
	b := m.GetCache(ctx, "b")
	a.Set(ctx, "x", 1)
	b.Set(ctx, "y", 2)
	require.Equal(t, 1, store.Len())

	m.ClearAll(ctx)

	assert.Equal(t, 0, a.Stats().Size)
	assert.Equal(t, 0, b.Stats().Size)
	assert.Equal(t, 0, store.Len())
}

func TestManagerStats(t *testing.T) {
	ctx := context.Background()
	m := NewManager()
	defer m.Close()

	a := m.GetCache(ctx, "a")
	m.GetCache(ctx, "b")
	a.Set(ctx, "x", 1)
	a.Get(ctx, "x")

	stats := m.Stats()
	require.Len(t, stats, 2)
	assert.Equal(t, 1, stats["a"].Size)
	assert.Equal(t, uint64(1), stats["a"].HitCount)
	assert.Equal(t, 0, stats["b"].Size)
}
