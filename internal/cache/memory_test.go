package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedValue struct {
	Name  string
	Price float64
}

func TestMemory_SetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	err := c.Set(ctx, PropertyKey("abc"), cachedValue{Name: "Villa", Price: 1000}, time.Hour)
	require.NoError(t, err)

	var got cachedValue
	found, err := c.Get(ctx, "property:abc", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, cachedValue{Name: "Villa", Price: 1000}, got)

	found, err = c.Get(ctx, PropertyKey("missing"), &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", "v", 30*time.Minute))

	var got string
	now = now.Add(29 * time.Minute)
	found, _ := c.Get(ctx, "k", &got)
	assert.True(t, found)

	now = now.Add(time.Minute)
	found, _ = c.Get(ctx, "k", &got)
	assert.False(t, found)
}

func TestMemory_Delete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	require.NoError(t, c.Set(ctx, "k", 1, 0))
	require.NoError(t, c.Delete(ctx, "k"))

	var got int
	found, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemory_PushCapped(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	for i := 0; i < 105; i++ {
		require.NoError(t, c.PushCapped(ctx, SearchHistoryKey, fmt.Sprintf("q%d", i), 100))
	}

	history := c.List(SearchHistoryKey)
	assert.Len(t, history, 100)
	assert.Equal(t, "q104", history[0])
	assert.Equal(t, "q5", history[99])
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	var c Cache = Noop{}
	require.NoError(t, c.Set(ctx, "k", 1, time.Hour))

	var got int
	found, err := c.Get(ctx, "k", &got)
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestSearchKey(t *testing.T) {
	assert.Equal(t, `search:{"city":"Oran"}`, SearchKey(`{"city":"Oran"}`))
}
