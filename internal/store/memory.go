// Package store keeps completed walk-forward runs in memory so embedding
// processes and the CLI can refer back to them by ID. Durable persistence is
// deliberately left to outer tooling.
package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/backtest"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/config"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/core"
)

// RunRecord is one completed harness run with the configuration that
// produced it.
type RunRecord struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Symbols   []string
	Config    *config.Config
	Report    *backtest.Report
}

// MemoryStore is a bounded in-memory run store. Oldest runs are evicted
// when capacity is exceeded.
type MemoryStore struct {
	mu      sync.RWMutex
	runs    map[uuid.UUID]*RunRecord
	order   []uuid.UUID
	maxSize int
}

// NewMemoryStore creates a store holding at most maxSize runs.
func NewMemoryStore(maxSize int) *MemoryStore {
	if maxSize < 1 {
		maxSize = 1
	}
	return &MemoryStore{
		runs:    make(map[uuid.UUID]*RunRecord),
		maxSize: maxSize,
	}
}

// Save records a run and returns it with a fresh ID.
func (m *MemoryStore) Save(cfg *config.Config, symbols []string, report *backtest.Report) *RunRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := &RunRecord{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		Symbols:   append([]string(nil), symbols...),
		Config:    cfg,
		Report:    report,
	}
	m.runs[rec.ID] = rec
	m.order = append(m.order, rec.ID)

	for len(m.order) > m.maxSize {
		evict := m.order[0]
		m.order = m.order[1:]
		delete(m.runs, evict)
	}
	return rec
}

// Get retrieves a run by ID.
func (m *MemoryStore) Get(id uuid.UUID) (*RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.runs[id]
	if !ok {
		return nil, core.ErrNoData
	}
	return rec, nil
}

// List returns all stored runs, newest first.
func (m *MemoryStore) List() []*RunRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*RunRecord, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		out = append(out, m.runs[m.order[i]])
	}
	return out
}

// Len returns the number of stored runs.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}
