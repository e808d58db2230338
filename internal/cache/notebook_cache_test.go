package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carter293/Carter-Querio-notebook-sub004/internal/config"
	"github.com/carter293/Carter-Querio-notebook-sub004/pkg/models"
)

func newTestNotebookCache(t *testing.T) *NotebookCache {
	t.Helper()
	s := miniredis.RunT(t)
	t.Cleanup(s.Close)

	cfg := config.RedisConfig{URL: "redis://" + s.Addr(), PoolSize: 5}
	rc, err := NewRedisCache(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { rc.Close() })

	return NewNotebookCache(rc, time.Minute)
}

func TestNotebookCache_MissReturnsNil(t *testing.T) {
	c := newTestNotebookCache(t)

	nb, err := c.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, nb)
}

func TestNotebookCache_SetThenGet(t *testing.T) {
	c := newTestNotebookCache(t)
	ctx := context.Background()

	want := &models.Notebook{ID: "nb-1", Name: "scratch"}
	require.NoError(t, c.Set(ctx, want))

	got, err := c.Get(ctx, "nb-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Name, got.Name)
}

func TestNotebookCache_Invalidate(t *testing.T) {
	c := newTestNotebookCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, &models.Notebook{ID: "nb-2"}))
	require.NoError(t, c.Invalidate(ctx, "nb-2"))

	got, err := c.Get(ctx, "nb-2")
	require.NoError(t, err)
	assert.Nil(t, got)
}
