package cache

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nos-commerce-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisForTest(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c, err := NewRedisCache(context.Background(), logger, &config.RedisConfig{Addr: srv.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c, srv
}

func TestRedisCache_HashFields(t *testing.T) {
	ctx := context.Background()
	c, _ := newRedisForTest(t)

	_, err := c.GetHashField(ctx, "products:data", "p1")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.PutHashField(ctx, "products:data", "p1", []byte("one")))
	val, err := c.GetHashField(ctx, "products:data", "p1")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), val)

	require.NoError(t, c.DeleteHashFields(ctx, "products:data", "p1"))
	_, err = c.GetHashField(ctx, "products:data", "p1")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisCache_Sets(t *testing.T) {
	ctx := context.Background()
	c, _ := newRedisForTest(t)

	members, err := c.SetMembers(ctx, "products:ids")
	require.NoError(t, err)
	assert.Empty(t, members)

	require.NoError(t, c.AddToSet(ctx, "products:ids", "a", "b", "c"))
	require.NoError(t, c.RemoveFromSet(ctx, "products:ids", "b"))

	members, err = c.SetMembers(ctx, "products:ids")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "c"}, members)

	require.NoError(t, c.DeleteKey(ctx, "products:ids"))
	members, err = c.SetMembers(ctx, "products:ids")
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestRedisCache_Values(t *testing.T) {
	ctx := context.Background()
	c, srv := newRedisForTest(t)

	_, err := c.GetValue(ctx, "wallet:u1")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.SetValue(ctx, "wallet:u1", []byte("42.00"), time.Minute))
	val, err := c.GetValue(ctx, "wallet:u1")
	require.NoError(t, err)
	assert.Equal(t, []byte("42.00"), val)

	// Expiry is enforced server-side
	srv.FastForward(2 * time.Minute)
	_, err = c.GetValue(ctx, "wallet:u1")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisCache_DeleteByPrefix(t *testing.T) {
	ctx := context.Background()
	c, _ := newRedisForTest(t)

	require.NoError(t, c.SetValue(ctx, "products:search:k1", []byte("1"), 0))
	require.NoError(t, c.SetValue(ctx, "products:search:k2", []byte("2"), 0))
	require.NoError(t, c.SetValue(ctx, "wallet:txns:u1:k3", []byte("3"), 0))

	require.NoError(t, c.DeleteByPrefix(ctx, "products:search:"))

	_, err := c.GetValue(ctx, "products:search:k1")
	assert.ErrorIs(t, err, ErrMiss)
	_, err = c.GetValue(ctx, "products:search:k2")
	assert.ErrorIs(t, err, ErrMiss)
	_, err = c.GetValue(ctx, "wallet:txns:u1:k3")
	assert.NoError(t, err)
}

func TestRedisCache_DeleteByPrefixManyKeys(t *testing.T) {
	ctx := context.Background()
	c, _ := newRedisForTest(t)

	// Enough keys to force multiple SCAN pages
	for i := 0; i < 500; i++ {
		require.NoError(t, c.SetValue(ctx, DerivedQueryKey("orders:search", "page", string(rune(i))), []byte("x"), 0))
	}

	require.NoError(t, c.DeleteByPrefix(ctx, "orders:search:"))

	_, err := c.GetValue(ctx, DerivedQueryKey("orders:search", "page", string(rune(7))))
	assert.ErrorIs(t, err, ErrMiss)
}
