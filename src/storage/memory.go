package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation for development and tests.
type MemoryStore struct {
	mu   sync.Mutex
	runs map[string]*memoryRun
	ttl  time.Duration
	now  func() time.Time
}

type memoryRun struct {
	fields    map[string]string
	updatedAt time.Time
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &MemoryStore{
		runs: make(map[string]*memoryRun),
		ttl:  ttl,
		now:  time.Now,
	}
}

// lookup returns the run or nil, evicting it when expired. Callers hold mu.
func (m *MemoryStore) lookup(runID string) *memoryRun {
	run, exists := m.runs[runID]
	if !exists {
		return nil
	}
	if m.now().Sub(run.updatedAt) > m.ttl {
		delete(m.runs, runID)
		return nil
	}
	return run
}

func (m *MemoryStore) Get(ctx context.Context, runID string, fields ...string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	run := m.lookup(runID)
	if run == nil {
		return nil, ErrNotFound
	}
	if len(fields) == 0 {
		fields = RunFields
	}
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		if v, ok := run.fields[f]; ok {
			out[f] = v
		}
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

func (m *MemoryStore) Save(ctx context.Context, runID string, set map[string]string, del []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	run := m.lookup(runID)
	if run == nil {
		run = &memoryRun{fields: make(map[string]string)}
		m.runs[runID] = run
	}
	for f, v := range set {
		run.fields[f] = v
	}
	for _, f := range del {
		delete(run.fields, f)
	}
	run.updatedAt = m.now()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.runs, runID)
	return nil
}

func (m *MemoryStore) Runs(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	runs := make([]string, 0, len(m.runs))
	for id := range m.runs {
		if m.lookup(id) != nil {
			runs = append(runs, id)
		}
	}
	sort.Strings(runs)
	return runs, nil
}

func (m *MemoryStore) TTL(ctx context.Context, runID string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	run := m.lookup(runID)
	if run == nil {
		return 0, nil
	}
	return run.updatedAt.Add(m.ttl).Sub(m.now()), nil
}

func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }
