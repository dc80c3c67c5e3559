package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, "test:"), mr
}

func TestCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	require.NoError(t, c.Set(ctx, "vec", []float32{0.5, 0.25}, time.Minute))
	assert.True(t, mr.Exists("test:vec"))

	var got []float32
	require.NoError(t, c.Get(ctx, "vec", &got))
	assert.Equal(t, []float32{0.5, 0.25}, got)
}

func TestCache_Miss(t *testing.T) {
	c, _ := newTestCache(t)

	var got []float32
	err := c.Get(context.Background(), "absent", &got)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	require.NoError(t, c.Set(ctx, "short", "v", time.Second))
	mr.FastForward(2 * time.Second)

	var got string
	assert.ErrorIs(t, c.Get(ctx, "short", &got), ErrMiss)
}

