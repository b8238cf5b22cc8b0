package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestNoopAlwaysMisses(t *testing.T) {
	var c Cache = Noop{}
	ctx := context.Background()
	require.NoError(t, c.SetJSON(ctx, "k", sample{Name: "x"}, time.Minute))
	var out sample
	found, err := c.GetJSON(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, c.Delete(ctx, "k"))
}

func TestRedisRoundTrip(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	c, err := NewRedis(ctx, url, "profitlens-test:"+uuid.NewString()+":")
	require.NoError(t, err)
	defer c.Close()

	var out sample
	found, err := c.GetJSON(ctx, "missing", &out)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.SetJSON(ctx, "item", sample{Name: "a", Count: 2}, time.Minute))
	found, err = c.GetJSON(ctx, "item", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, sample{Name: "a", Count: 2}, out)

	require.NoError(t, c.Delete(ctx, "item"))
	found, err = c.GetJSON(ctx, "item", &out)
	require.NoError(t, err)
	assert.False(t, found)
}
