package history

import (
	"context"
	"sync"

	"github.com/vadiminshakov/profitwatch/internal/domain"
)

// MemoryBackend keeps records in process memory. Used for dry runs and tests.
type MemoryBackend struct {
	mu      sync.RWMutex
	records []domain.BalanceRecord
	nextID  int64
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (m *MemoryBackend) Append(_ context.Context, record domain.BalanceRecord) (domain.BalanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	record.ID = m.nextID
	m.records = append(m.records, record)
	return record, nil
}

func (m *MemoryBackend) Latest(_ context.Context) (domain.BalanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.records) == 0 {
		return domain.BalanceRecord{}, domain.ErrNoBaseline
	}
	latest := m.records[0]
	for _, r := range m.records[1:] {
		if r.Newer(latest) {
			latest = r
		}
	}
	return latest, nil
}

func (m *MemoryBackend) Close() error { return nil }
