package cachego

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoizeCachesByArgument(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	calls := 0
	double := Memoize(c, func(_ context.Context, n int) (int, error) {
		calls++
		return n * 2, nil
	})

	v, err := double(ctx, 21)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = double(ctx, 21)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls)

	// A different argument is a different key.
	v, err = double(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 10, v)
	assert.Equal(t, 2, calls)
}

func TestMemoizeErrorNotCached(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	boom := errors.New("upstream down")
	calls := 0
	fetch := Memoize(c, func(_ context.Context, id string) (string, error) {
		calls++
		if calls == 1 {
			return "", boom
		}
		return "value-" + id, nil
	})

	_, err := fetch(ctx, "a")
	assert.ErrorIs(t, err, boom)

	// The failure was not cached; the retry runs the function again.
	v, err := fetch(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "value-a", v)
	assert.Equal(t, 2, calls)
}

func TestMemoizeStructuralKeyStable(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	calls := 0
	sum := Memoize(c, func(_ context.Context, m map[string]int) (int, error) {
		calls++
		total := 0
		for _, v := range m {
			total += v
		}
		return total, nil
	})

	// Structurally equal maps built in different insertion orders share a key.
	a := map[string]int{}
	a["x"] = 1
	a["y"] = 2
	b := map[string]int{}
	b["y"] = 2
	b["x"] = 1

	v1, err := sum(ctx, a)
	require.NoError(t, err)
	v2, err := sum(ctx, b)
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, calls)
}

func TestMemoizeCustomKeyFunc(t *testing.T) {
	type request struct {
		UserID string
		Trace  string // must not affect caching
	}

	ctx := context.Background()
	c, _ := newTestCache(t)

	calls := 0
	load := Memoize(c, func(_ context.Context, r request) (string, error) {
		calls++
		return "profile-" + r.UserID, nil
	}, WithKeyFunc(func(r request) string { return r.UserID }))

	v1, err := load(ctx, request{UserID: "u1", Trace: "t-1"})
	require.NoError(t, err)
	v2, err := load(ctx, request{UserID: "u1", Trace: "t-2"})
	require.NoError(t, err)

	assert.Equal(t, "profile-u1", v1)
	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, calls)
}

func TestMemoizeResultTTL(t *testing.T) {
	ctx := context.Background()
	c, clk := newTestCache(t, WithTTL(time.Hour))

	calls := 0
	f := Memoize(c, func(_ context.Context, n int) (int, error) {
		calls++
		return n, nil
	}, WithResultTTL[int](time.Second))

	_, err := f(ctx, 1)
	require.NoError(t, err)

	clk.Advance(2 * time.Second)
	_, err = f(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestMemoize2(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	calls := 0
	concat := Memoize2(c, func(_ context.Context, a string, b int) (string, error) {
		calls++
		return fmt.Sprintf("%s-%d", a, b), nil
	}, nil)

	v, err := concat(ctx, "page", 1)
	require.NoError(t, err)
	assert.Equal(t, "page-1", v)

	_, err = concat(ctx, "page", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	_, err = concat(ctx, "page", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestStructuralKey(t *testing.T) {
	assert.Equal(t, `"abc"`, structuralKey("abc"))
	assert.Equal(t, "7", structuralKey(7))

	type args struct {
		A string `json:"a"`
		B int    `json:"b"`
	}
	assert.Equal(t, `{"a":"x","b":2}`, structuralKey(args{A: "x", B: 2}))

	// Unencodable arguments still yield a deterministic key.
	ch := make(chan int)
	assert.Equal(t, structuralKey(ch), structuralKey(ch))
}
