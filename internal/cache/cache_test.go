package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("idem")

	_, err := c.Get(ctx, "k")
	require.True(t, IsNotFound(err))

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryAddOnlyOnce(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("")

	ok, err := c.Add(ctx, "evt_1", "1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Add(ctx, "evt_1", "1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())
}

func TestMemoryTTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("")
	require.NoError(t, c.Set(ctx, "k", "v", 20*time.Millisecond))
	time.Sleep(40 * time.Millisecond)
	_, err := c.Get(ctx, "k")
	assert.True(t, IsNotFound(err))
}

func TestNewDefaultsToMemory(t *testing.T) {
	c, err := New(context.Background(), Config{Kind: "whatever"})
	require.NoError(t, err)
	_, ok := c.(*Memory)
	assert.True(t, ok)
	require.NoError(t, c.Ping(context.Background()))
}
