package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"runwizard/src/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entryAt(runID, event string, ts time.Time) model.JournalEntry {
	return model.JournalEntry{
		RunID:     runID,
		Event:     event,
		Params:    model.FormSnapshot{"a": "1"},
		Gates:     model.Gates{PlotEnabled: true},
		Timestamp: ts,
	}
}

func TestJournalAppendLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "journal")
	j := NewJSONJournal(dir)

	entries, err := j.Load("run1")
	require.NoError(t, err)
	assert.Empty(t, entries)

	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, j.Append(entryAt("run1", "calc_submit", t0)))
	require.NoError(t, j.Append(entryAt("run1", "plot_submit", t0.Add(time.Minute))))
	require.NoError(t, j.Append(entryAt("run2", "calc_submit", t0)))

	entries, err = j.Load("run1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "calc_submit", entries[0].Event)
	assert.Equal(t, "plot_submit", entries[1].Event)
	assert.True(t, entries[1].Timestamp.Equal(t0.Add(time.Minute)))
	assert.Equal(t, model.FormSnapshot{"a": "1"}, entries[0].Params)
}

func TestJournalRecoversFromCorruptFile(t *testing.T) {
	dir := t.TempDir()
	j := NewJSONJournal(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run1.json"), []byte("{broken"), 0644))

	_, err := j.Load("run1")
	assert.Error(t, err)

	require.NoError(t, j.Append(entryAt("run1", "calc_submit", time.Now())))
	entries, err := j.Load("run1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	backup, err := os.ReadFile(filepath.Join(dir, "run1.json.bak"))
	require.NoError(t, err)
	assert.Equal(t, "{broken", string(backup))
}

func TestJournalStatsAndPrune(t *testing.T) {
	j := NewJSONJournal(t.TempDir())
	now := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)

	require.NoError(t, j.Append(entryAt("run1", "calc_submit", now.Add(-48*time.Hour))))
	require.NoError(t, j.Append(entryAt("run1", "calc_submit", now.Add(-time.Hour))))
	require.NoError(t, j.Append(entryAt("run1", "plot_submit", now.Add(-time.Minute))))

	stats, err := j.Stats("run1")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalEntries)
	assert.Equal(t, map[string]int{"calc_submit": 2, "plot_submit": 1}, stats.EventCounts)
	assert.True(t, stats.OldestEntry.Equal(now.Add(-48*time.Hour)))
	assert.True(t, stats.NewestEntry.Equal(now.Add(-time.Minute)))
	assert.Positive(t, stats.FileSizeBytes)

	removed, err := j.Prune("run1", 24*time.Hour, now)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	removed, err = j.Prune("run1", 24*time.Hour, now)
	require.NoError(t, err)
	assert.Zero(t, removed)

	entries, err := j.Load("run1")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestJournalStatsEmpty(t *testing.T) {
	stats, err := NewJSONJournal(t.TempDir()).Stats("none")
	require.NoError(t, err)
	assert.Zero(t, stats.TotalEntries)
	assert.Empty(t, stats.EventCounts)
}
