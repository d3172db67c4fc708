package backend

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	_, err := b.Load(ctx, "absent")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, b.Save(ctx, "api", []byte(`{"hitCount":1}`)))

	got, err := b.Load(ctx, "api")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"hitCount":1}`), got)

	// Overwrite replaces the previous blob.
	require.NoError(t, b.Save(ctx, "api", []byte(`{"hitCount":2}`)))
	got, err = b.Load(ctx, "api")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"hitCount":2}`), got)

	require.NoError(t, b.Remove(ctx, "api"))
	_, err = b.Load(ctx, "api")
	assert.ErrorIs(t, err, ErrNotFound)

	// Removing an absent blob is not an error.
	require.NoError(t, b.Remove(ctx, "api"))
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	testBackend(t, m)
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, "memory", m.Name())
}

func TestMemoryCopiesData(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	data := []byte("original")
	require.NoError(t, m.Save(ctx, "images", data))
	data[0] = 'X'

	got, err := m.Load(ctx, "images")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got)

	// Mutating the loaded copy must not affect the stored blob.
	got[0] = 'Y'
	again, err := m.Load(ctx, "images")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), again)
}

func TestLocal(t *testing.T) {
	l := NewLocal(t.TempDir())
	testBackend(t, l)
	assert.Equal(t, "local", l.Name())
}

func TestLocalFileLayout(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	l := NewLocal(dir)

	require.NoError(t, l.Save(ctx, "search", []byte("blob")))

	data, err := os.ReadFile(filepath.Join(dir, "search.cache"))
	require.NoError(t, err)
	assert.Equal(t, []byte("blob"), data)

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLocalRejectsUnsafeNames(t *testing.T) {
	ctx := context.Background()
	l := NewLocal(t.TempDir())

	for _, name := range []string{"", "..", "a/b", `a\b`} {
		err := l.Save(ctx, name, []byte("x"))
		assert.Error(t, err, "name %q", name)
		assert.False(t, errors.Is(err, ErrNotFound))
	}
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	n := Noop{}

	require.NoError(t, n.Save(ctx, "api", []byte("ignored")))
	_, err := n.Load(ctx, "api")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, n.Remove(ctx, "api"))
	assert.Equal(t, "noop", n.Name())
}
