package testing

import (
	"context"
	"sync"

	"github.com/aristath/scorecard/internal/modules/scoring/domain"
)

// MockSource is a scriptable snapshot source for testing
type MockSource struct {
	mu      sync.RWMutex
	records []domain.RawRecord
	err     error
	calls   int
	name    string
}

// NewMockSource creates a mock source returning records
func NewMockSource(records []domain.RawRecord) *MockSource {
	return &MockSource{
		records: records,
		name:    "mock",
	}
}

// SetRecords sets the records returned by subsequent loads
func (m *MockSource) SetRecords(records []domain.RawRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = records
}

// SetError sets an error returned by subsequent loads; nil clears it
func (m *MockSource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Load ran
func (m *MockSource) Calls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

// Load returns a copy of the scripted records or the scripted error
func (m *MockSource) Load(ctx context.Context) ([]domain.RawRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}

	out := make([]domain.RawRecord, len(m.records))
	copy(out, m.records)
	return out, nil
}

// Describe returns the mock's name
func (m *MockSource) Describe() string {
	return m.name
}
