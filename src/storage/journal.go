package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"runwizard/src/logger"
	"runwizard/src/model"
)

// JSONJournal keeps one JSON file per run listing its accepted submissions.
type JSONJournal struct {
	baseDir string
	mu      sync.Mutex
}

// NewJSONJournal creates a journal rooted at baseDir
func NewJSONJournal(baseDir string) *JSONJournal {
	return &JSONJournal{baseDir: baseDir}
}

func (j *JSONJournal) path(runID string) string {
	return filepath.Join(j.baseDir, filepath.Base(runID)+".json")
}

// Load loads all entries of a run, oldest first
func (j *JSONJournal) Load(runID string) ([]model.JournalEntry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.load(runID)
}

func (j *JSONJournal) load(runID string) ([]model.JournalEntry, error) {
	data, err := os.ReadFile(j.path(runID))
	if os.IsNotExist(err) {
		return []model.JournalEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read journal file: %w", err)
	}

	var entries []model.JournalEntry
	if err := codec.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse journal file: %w", err)
	}
	return entries, nil
}

func (j *JSONJournal) write(runID string, entries []model.JournalEntry) error {
	data, err := codec.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal journal: %w", err)
	}
	if err := os.WriteFile(j.path(runID), data, 0644); err != nil {
		return fmt.Errorf("failed to write journal file: %w", err)
	}
	return nil
}

// Append adds one entry to the run's journal
func (j *JSONJournal) Append(entry model.JournalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(j.baseDir, 0755); err != nil {
		return fmt.Errorf("failed to create journal directory: %w", err)
	}

	entries, err := j.load(entry.RunID)
	if err != nil {
		backup := j.path(entry.RunID) + ".bak"
		if err := os.Rename(j.path(entry.RunID), backup); err != nil {
			return fmt.Errorf("failed to back up unreadable journal: %w", err)
		}
		log := logger.ForRun(entry.RunID)
		log.Warn().Err(err).Str("backup", backup).Msg("unreadable journal moved aside, starting fresh")
		entries = []model.JournalEntry{}
	}

	entries = append(entries, entry)
	return j.write(entry.RunID, entries)
}

// JournalStats summarizes the journal of a run
type JournalStats struct {
	RunID         string         `json:"run_id"`
	TotalEntries  int            `json:"total_entries"`
	EventCounts   map[string]int `json:"event_counts"`
	OldestEntry   time.Time      `json:"oldest_entry"`
	NewestEntry   time.Time      `json:"newest_entry"`
	FileSizeBytes int64          `json:"file_size_bytes"`
}

// Stats returns statistics about a run's journal
func (j *JSONJournal) Stats(runID string) (*JournalStats, error) {
	entries, err := j.Load(runID)
	if err != nil {
		return nil, err
	}

	stats := &JournalStats{
		RunID:       runID,
		EventCounts: map[string]int{},
	}
	if len(entries) == 0 {
		return stats, nil
	}

	stats.TotalEntries = len(entries)
	stats.OldestEntry = entries[0].Timestamp
	stats.NewestEntry = entries[0].Timestamp
	for _, entry := range entries {
		stats.EventCounts[entry.Event]++
		if entry.Timestamp.Before(stats.OldestEntry) {
			stats.OldestEntry = entry.Timestamp
		}
		if entry.Timestamp.After(stats.NewestEntry) {
			stats.NewestEntry = entry.Timestamp
		}
	}

	if info, err := os.Stat(j.path(runID)); err == nil {
		stats.FileSizeBytes = info.Size()
	}
	return stats, nil
}

// Prune removes entries older than maxAge and returns how many were dropped
func (j *JSONJournal) Prune(runID string, maxAge time.Duration, now time.Time) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	entries, err := j.load(runID)
	if err != nil {
		return 0, err
	}

	cutoff := now.Add(-maxAge)
	kept := make([]model.JournalEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Timestamp.After(cutoff) {
			kept = append(kept, entry)
		}
	}

	removed := len(entries) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := j.write(runID, kept); err != nil {
		return 0, err
	}

	log := logger.ForRun(runID)
	log.Info().Int("removed", removed).Msg("pruned journal")
	return removed, nil
}
