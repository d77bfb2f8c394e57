package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	r := NewRedis(server.Addr(), "", 0)
	t.Cleanup(func() { r.Close() })
	require.NoError(t, r.Ping(context.Background()))
	return r, server
}

func TestRedis_SetGet(t *testing.T) {
	ctx := context.Background()
	r, server := newTestRedis(t)

	require.NoError(t, r.Set(ctx, PropertyKey("abc"), cachedValue{Name: "Villa", Price: 1000}, time.Hour))

	var got cachedValue
	found, err := r.Get(ctx, "property:abc", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, cachedValue{Name: "Villa", Price: 1000}, got)
	assert.Equal(t, time.Hour, server.TTL("property:abc"))

	found, err = r.Get(ctx, PropertyKey("missing"), &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedis_Expiry(t *testing.T) {
	ctx := context.Background()
	r, server := newTestRedis(t)

	require.NoError(t, r.Set(ctx, SearchKey(`{"city":"Oran"}`), []string{"a"}, 30*time.Minute))

	var got []string
	server.FastForward(29 * time.Minute)
	found, err := r.Get(ctx, SearchKey(`{"city":"Oran"}`), &got)
	require.NoError(t, err)
	assert.True(t, found)

	server.FastForward(time.Minute)
	found, err = r.Get(ctx, SearchKey(`{"city":"Oran"}`), &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedis_Delete(t *testing.T) {
	ctx := context.Background()
	r, server := newTestRedis(t)

	require.NoError(t, r.Set(ctx, "k", 1, 0))
	require.NoError(t, r.Delete(ctx, "k"))
	assert.False(t, server.Exists("k"))
}

func TestRedis_PushCapped(t *testing.T) {
	ctx := context.Background()
	r, server := newTestRedis(t)

	for i := 0; i < 105; i++ {
		require.NoError(t, r.PushCapped(ctx, SearchHistoryKey, fmt.Sprintf("q%d", i), 100))
	}

	history, err := server.List(SearchHistoryKey)
	require.NoError(t, err)
	assert.Len(t, history, 100)
	assert.Equal(t, "q104", history[0])
	assert.Equal(t, "q5", history[99])
}

func TestRedis_GetUndecodable(t *testing.T) {
	ctx := context.Background()
	r, server := newTestRedis(t)

	require.NoError(t, server.Set("k", "not json"))

	var got cachedValue
	found, err := r.Get(ctx, "k", &got)
	assert.Error(t, err)
	assert.False(t, found)
}
