package usage

import (
	"context"
	"sync"

	"github.com/petal-labs/scribe/core"
)

// Memory keeps records in memory, in append order.
type Memory struct {
	mu      sync.Mutex
	records []core.UsageRecord
}

// NewMemory returns an empty Memory recorder.
func NewMemory() *Memory {
	return &Memory{}
}

// Append stores rec.
func (m *Memory) Append(_ context.Context, rec core.UsageRecord) error {
	m.mu.Lock()
	m.records = append(m.records, rec)
	m.mu.Unlock()
	return nil
}

// Records returns a copy of the stored records.
func (m *Memory) Records() []core.UsageRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.UsageRecord, len(m.records))
	copy(out, m.records)
	return out
}

// Len returns the number of stored records.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

var _ core.UsageRecorder = (*Memory)(nil)
