package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreGetSave(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(time.Minute)

	_, err := m.Get(ctx, "run1", RunFields...)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Save(ctx, "run1", map[string]string{
		FieldCalculated: "true",
		FieldCalcParams: `{"a":"1"}`,
	}, nil))

	vals, err := m.Get(ctx, "run1", FieldCalculated, FieldPlotted)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{FieldCalculated: "true"}, vals)

	require.NoError(t, m.Save(ctx, "run1", map[string]string{FieldPlotted: "false"}, []string{FieldCalcParams}))
	vals, err = m.Get(ctx, "run1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{FieldCalculated: "true", FieldPlotted: "false"}, vals)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Save(ctx, "run1", map[string]string{FieldFirstLoad: "false"}, nil))

	now = now.Add(30 * time.Second)
	_, err := m.Get(ctx, "run1")
	require.NoError(t, err)

	// a save refreshes the TTL
	require.NoError(t, m.Save(ctx, "run1", map[string]string{FieldPlotted: "false"}, nil))
	now = now.Add(45 * time.Second)
	_, err = m.Get(ctx, "run1")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = m.Get(ctx, "run1")
	assert.ErrorIs(t, err, ErrNotFound)

	runs, err := m.Runs(ctx)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestMemoryStoreDeleteAndRuns(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(0)

	for _, id := range []string{"b", "a", "c"} {
		require.NoError(t, m.Save(ctx, id, map[string]string{FieldFirstLoad: "true"}, nil))
	}
	require.NoError(t, m.Delete(ctx, "c"))

	runs, err := m.Runs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, runs)
	assert.NoError(t, m.Ping(ctx))
}

func TestMemoryStoreTTL(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	ttl, err := m.TTL(ctx, "run1")
	require.NoError(t, err)
	assert.Zero(t, ttl)

	require.NoError(t, m.Save(ctx, "run1", map[string]string{FieldFirstLoad: "false"}, nil))
	now = now.Add(20 * time.Second)
	ttl, err = m.TTL(ctx, "run1")
	require.NoError(t, err)
	assert.Equal(t, 40*time.Second, ttl)
}
