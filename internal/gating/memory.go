package gating

import (
	"fmt"
	"sync"
)

// MemoryProvider is a Provider over gates held in memory. It is used for
// tests and by callers that build gate trees programmatically.
type MemoryProvider struct {
	mu      sync.RWMutex
	samples map[string][]*Gate
	order   []string
}

// NewMemoryProvider returns an empty provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{samples: make(map[string][]*Gate)}
}

// Add appends a gate to a sample's tree, creating the sample if needed.
func (m *MemoryProvider) Add(sampleID string, gates ...*Gate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.samples[sampleID]; !ok {
		m.order = append(m.order, sampleID)
	}
	for _, g := range gates {
		m.samples[sampleID] = append(m.samples[sampleID], g.Clone())
	}
}

// SampleIDs lists samples in insertion order.
func (m *MemoryProvider) SampleIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.order...)
}

// GateIDs implements Provider.
func (m *MemoryProvider) GateIDs(sampleID string) ([]GateID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	gates, ok := m.samples[sampleID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSampleNotFound, sampleID)
	}
	ids := make([]GateID, 0, len(gates))
	for _, g := range gates {
		ids = append(ids, g.ID())
	}
	return ids, nil
}

// Gate implements Provider. The returned gate is a copy.
func (m *MemoryProvider) Gate(sampleID string, id GateID) (*Gate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	gates, ok := m.samples[sampleID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSampleNotFound, sampleID)
	}
	for _, g := range gates {
		if g.Name == id.Name && g.Path.Equal(id.Path) {
			return g.Clone(), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrGateNotFound, id)
}
