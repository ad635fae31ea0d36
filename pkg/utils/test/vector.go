package testutils

import (
	"context"
	"fmt"
	"sync"

	"github.com/papercomputeco/engram/pkg/vector"
)

// StoredRecord is one record held by the mock driver.
type StoredRecord struct {
	ID       string
	Text     string
	Metadata map[string]any
}

// MockVectorDriver is a test vector driver with scripted search results and
// recorded mutations.
type MockVectorDriver struct {
	mu sync.Mutex

	// Records holds every stored record by id.
	Records map[string]StoredRecord

	// HitsFor maps a query string to the hits Search returns for it.
	HitsFor map[string][]vector.Hit

	// DefaultHits is returned by Search for queries not in HitsFor.
	DefaultHits []vector.Hit

	// Deleted accumulates ids passed to Delete.
	Deleted []string

	// FailSearch, FailStore, and FailDelete force the corresponding call
	// to return an error.
	FailSearch bool
	FailStore  bool
	FailDelete bool
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{
		Records: make(map[string]StoredRecord),
		HitsFor: make(map[string][]vector.Hit),
	}
}

func (m *MockVectorDriver) Store(_ context.Context, id, text string, metadata map[string]any) error {
	if m.FailStore {
		return fmt.Errorf("mock store failure for: %s", id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Records[id] = StoredRecord{ID: id, Text: text, Metadata: metadata}
	return nil
}

func (m *MockVectorDriver) Update(ctx context.Context, id, text string, metadata map[string]any) error {
	return m.Store(ctx, id, text, metadata)
}

func (m *MockVectorDriver) Search(_ context.Context, query string, topK int, threshold float32) ([]vector.Hit, error) {
	if m.FailSearch {
		return nil, fmt.Errorf("mock search failure for: %s", query)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	hits, ok := m.HitsFor[query]
	if !ok {
		hits = m.DefaultHits
	}
	hits = vector.FilterHits(hits, threshold)
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func (m *MockVectorDriver) Delete(_ context.Context, id string) error {
	if m.FailDelete {
		return fmt.Errorf("mock delete failure for: %s", id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Records, id)
	m.Deleted = append(m.Deleted, id)
	return nil
}

func (m *MockVectorDriver) Close() error {
	return nil
}
