package store

import (
	"context"
	"math"
	"sort"
	"sync"
)

// Memory is an in-memory Store used by tests and local development. Ordering
// of NearestNeighbors ties follows insertion order, matching the contract.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
	order   []string
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]Entry)}
}

func (m *Memory) GetByID(ctx context.Context, id string) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return entry, nil
}

func (m *Memory) Put(ctx context.Context, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entries[entry.ID]; !exists {
		m.order = append(m.order, entry.ID)
	}
	m.entries[entry.ID] = entry
	return nil
}

func (m *Memory) NearestNeighbors(ctx context.Context, vector []float32, limit int) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		entry Entry
		sim   float64
	}
	candidates := make([]scored, 0, len(m.order))
	for _, id := range m.order {
		e := m.entries[id]
		candidates = append(candidates, scored{entry: e, sim: cosine(vector, e.Vector)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].sim > candidates[j].sim
	})

	if limit > 0 && limit < len(candidates) {
		candidates = candidates[:limit]
	}
	out := make([]Entry, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.entry)
	}
	return out, nil
}

// Len reports how many entries have been stored.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Failing is a Store whose every operation fails with Err. Tests use it to
// exercise unavailability paths.
type Failing struct {
	Err error
}

func (f Failing) GetByID(context.Context, string) (Entry, error) { return Entry{}, f.Err }

func (f Failing) Put(context.Context, Entry) error { return f.Err }

func (f Failing) NearestNeighbors(context.Context, []float32, int) ([]Entry, error) {
	return nil, f.Err
}
