package history

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/mpilhlt/filmstudio/internal/models"
)

// MemoryStore keeps rows in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	rows []Row
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Insert(ctx context.Context, row Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.ID == row.ID {
			return fmt.Errorf("duplicate generation record %s", row.ID)
		}
	}
	m.rows = append(m.rows, row)
	return nil
}

// List returns matching rows, newest first.
func (m *MemoryStore) List(ctx context.Context, q Query) ([]Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Row, 0, len(m.rows))
	for i := len(m.rows) - 1; i >= 0; i-- {
		if q.Kind == "" || m.rows[i].Kind == q.Kind {
			out = append(out, m.rows[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if q.Offset >= len(out) {
		return []Row{}, nil
	}
	out = out[q.Offset:]
	if q.Limit > 0 && q.Limit < len(out) {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.rows {
		if r.ID == id {
			return r, nil
		}
	}
	return Row{}, fmt.Errorf("%s: %w", id, ErrNotFound)
}

func (m *MemoryStore) Nearest(ctx context.Context, embedding []float32, n int) ([]RowMatch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []RowMatch
	for _, r := range m.rows {
		if r.Kind != models.KindStoryboard || len(r.Embedding) != len(embedding) {
			continue
		}
		out = append(out, RowMatch{Row: r, Similarity: cosine(r.Embedding, embedding)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out, nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
