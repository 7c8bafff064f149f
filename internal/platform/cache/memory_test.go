package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_HashFields(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	_, err := c.GetHashField(ctx, "products:data", "p1")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.PutHashField(ctx, "products:data", "p1", []byte(`{"id":"p1"}`)))
	require.NoError(t, c.PutHashField(ctx, "products:data", "p2", []byte(`{"id":"p2"}`)))

	val, err := c.GetHashField(ctx, "products:data", "p1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"id":"p1"}`), val)

	require.NoError(t, c.DeleteHashFields(ctx, "products:data", "p1"))
	_, err = c.GetHashField(ctx, "products:data", "p1")
	assert.ErrorIs(t, err, ErrMiss)

	// Untouched field survives
	_, err = c.GetHashField(ctx, "products:data", "p2")
	assert.NoError(t, err)
}

func TestMemoryCache_Sets(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	members, err := c.SetMembers(ctx, "products:ids")
	require.NoError(t, err)
	assert.Empty(t, members)

	require.NoError(t, c.AddToSet(ctx, "products:ids", "p1", "p2", "p3"))
	require.NoError(t, c.RemoveFromSet(ctx, "products:ids", "p2"))

	members, err = c.SetMembers(ctx, "products:ids")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"p1", "p3"}, members)

	require.NoError(t, c.DeleteKey(ctx, "products:ids"))
	members, err = c.SetMembers(ctx, "products:ids")
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestMemoryCache_Values(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	_, err := c.GetValue(ctx, "wallet:u1")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.SetValue(ctx, "wallet:u1", []byte("100.00"), 0))
	val, err := c.GetValue(ctx, "wallet:u1")
	require.NoError(t, err)
	assert.Equal(t, []byte("100.00"), val)

	require.NoError(t, c.DeleteKey(ctx, "wallet:u1"))
	_, err = c.GetValue(ctx, "wallet:u1")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryCache_ValueTTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.SetValue(ctx, "cart:u1", []byte("x"), 10*time.Millisecond))

	_, err := c.GetValue(ctx, "cart:u1")
	assert.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, err = c.GetValue(ctx, "cart:u1")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryCache_DeleteByPrefix(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.SetValue(ctx, "orders:search:abc", []byte("1"), 0))
	require.NoError(t, c.SetValue(ctx, "orders:search:def", []byte("2"), 0))
	require.NoError(t, c.SetValue(ctx, "orders:user:u1:abc", []byte("3"), 0))

	require.NoError(t, c.DeleteByPrefix(ctx, "orders:search:"))

	_, err := c.GetValue(ctx, "orders:search:abc")
	assert.ErrorIs(t, err, ErrMiss)
	_, err = c.GetValue(ctx, "orders:search:def")
	assert.ErrorIs(t, err, ErrMiss)

	// Sibling prefix untouched
	_, err = c.GetValue(ctx, "orders:user:u1:abc")
	assert.NoError(t, err)
}

func TestMemoryCache_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	original := []byte("payload")
	require.NoError(t, c.SetValue(ctx, "k", original, 0))

	val, err := c.GetValue(ctx, "k")
	require.NoError(t, err)
	val[0] = 'X'

	again, err := c.GetValue(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), again)
}
