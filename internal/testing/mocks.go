package testing

import (
	"context"
	"sync"

	"github.com/aristath/predictions-dashboard/internal/domain"
)

// MockKeyValueStore is an in-memory domain.KeyValueStore with error injection
type MockKeyValueStore struct {
	mu       sync.RWMutex
	data     map[string][]byte
	getErr   error
	setErr   error
	getCalls int
	setCalls int
}

// NewMockKeyValueStore creates an empty mock store
func NewMockKeyValueStore() *MockKeyValueStore {
	return &MockKeyValueStore{data: make(map[string][]byte)}
}

// Get returns the stored value
func (m *MockKeyValueStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	value, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

// Set stores a copy of value
func (m *MockKeyValueStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

// Put seeds a raw value without counting a call
func (m *MockKeyValueStore) Put(key string, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = []byte(value)
}

// Raw returns the stored value as a string
func (m *MockKeyValueStore) Raw(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[key]
	return string(value), ok
}

// SetGetError makes Get fail
func (m *MockKeyValueStore) SetGetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getErr = err
}

// SetSetError makes Set fail
func (m *MockKeyValueStore) SetSetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setErr = err
}

// GetCalls returns the number of Get calls
func (m *MockKeyValueStore) GetCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getCalls
}

// SetCalls returns the number of Set calls
func (m *MockKeyValueStore) SetCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.setCalls
}

// MockEventFeed is a domain.EventFeed returning canned events
type MockEventFeed struct {
	mu     sync.Mutex
	events []domain.NormalizedEvent
	err    error
	calls  int
	query  string
}

// NewMockEventFeed creates a feed returning events
func NewMockEventFeed(events []domain.NormalizedEvent) *MockEventFeed {
	return &MockEventFeed{events: events}
}

// FetchEvents returns the canned events or the configured error
func (m *MockEventFeed) FetchEvents(_ context.Context, query string) ([]domain.NormalizedEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.query = query
	if m.err != nil {
		return nil, m.err
	}
	return m.events, nil
}

// SetError makes FetchEvents fail
func (m *MockEventFeed) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// LastQuery returns the query of the most recent call
func (m *MockEventFeed) LastQuery() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.query
}

// Calls returns the number of FetchEvents calls
func (m *MockEventFeed) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
