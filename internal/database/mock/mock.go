// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"bytes"
	"context"
	"slices"
	"sync"

	"github.com/kozaktomas/gaitid/internal/database"
)

// MockSignatureStore is an in-memory implementation of database.SignatureStore.
// WithinTx holds the write lock for the whole callback, so concurrent writers
// are serialised the same way the SQL backends serialise them.
type MockSignatureStore struct {
	mu      sync.RWMutex
	entries []database.Entry
	nextID  int64
	closed  bool

	// Error injection
	LatestError         error
	LatestByPersonError error
	AllError            error
	CountError          error
	BeginError          error
	FindError           error
	AppendError         error
	CommitError         error
}

// NewMockSignatureStore creates an empty mock store.
func NewMockSignatureStore() *MockSignatureStore {
	return &MockSignatureStore{nextID: 1}
}

// AddEntry seeds an entry directly, bypassing the resolver. Returns its gait id.
func (m *MockSignatureStore) AddEntry(personID int64, sig []byte) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendLocked(personID, sig)
}

// Entries returns a copy of the stored entries.
func (m *MockSignatureStore) Entries() []database.Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.entries)
}

// Closed reports whether Close was called.
func (m *MockSignatureStore) Closed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

func (m *MockSignatureStore) appendLocked(personID int64, sig []byte) int64 {
	id := m.nextID
	m.nextID++
	m.entries = append(m.entries, database.Entry{
		GaitID:    id,
		PersonID:  personID,
		Signature: bytes.Clone(sig),
	})
	return id
}

// Latest returns the entry with the highest gait id
func (m *MockSignatureStore) Latest(ctx context.Context) (*database.Entry, error) {
	if m.LatestError != nil {
		return nil, m.LatestError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.entries) == 0 {
		return nil, nil
	}
	e := m.entries[len(m.entries)-1]
	return &e, nil
}

// LatestByPerson returns the entry with the highest person id
func (m *MockSignatureStore) LatestByPerson(ctx context.Context) (*database.Entry, error) {
	if m.LatestByPersonError != nil {
		return nil, m.LatestByPersonError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	latest := database.LatestByPerson(m.entries)
	if latest == nil {
		return nil, nil
	}
	e := *latest
	return &e, nil
}

// All returns every entry ordered by gait id
func (m *MockSignatureStore) All(ctx context.Context) ([]database.Entry, error) {
	if m.AllError != nil {
		return nil, m.AllError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.entries), nil
}

// Count returns the number of entries
func (m *MockSignatureStore) Count(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

// WithinTx runs fn with exclusive access; appended entries are discarded when
// fn or the injected commit fails.
func (m *MockSignatureStore) WithinTx(ctx context.Context, fn func(tx database.SignatureTx) error) error {
	if m.BeginError != nil {
		return m.BeginError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &mockTx{store: m, nextID: m.nextID}
	if err := fn(tx); err != nil {
		return err
	}
	if m.CommitError != nil {
		return m.CommitError
	}
	for _, e := range tx.pending {
		m.appendLocked(e.PersonID, e.Signature)
	}
	return nil
}

// Close marks the store closed
func (m *MockSignatureStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// mockTx runs while the store's write lock is held.
type mockTx struct {
	store   *MockSignatureStore
	pending []database.Entry
	nextID  int64
}

func (t *mockTx) view() []database.Entry {
	return append(slices.Clone(t.store.entries), t.pending...)
}

func (t *mockTx) All(ctx context.Context) ([]database.Entry, error) {
	if t.store.AllError != nil {
		return nil, t.store.AllError
	}
	return t.view(), nil
}

func (t *mockTx) FindBySignature(ctx context.Context, sig []byte) (*database.Entry, error) {
	if t.store.FindError != nil {
		return nil, t.store.FindError
	}
	for _, e := range t.view() {
		if bytes.Equal(e.Signature, sig) {
			return &e, nil
		}
	}
	return nil, nil
}

func (t *mockTx) Append(ctx context.Context, personID int64, sig []byte) (int64, error) {
	if t.store.AppendError != nil {
		return 0, t.store.AppendError
	}
	id := t.nextID
	t.nextID++
	t.pending = append(t.pending, database.Entry{GaitID: id, PersonID: personID, Signature: bytes.Clone(sig)})
	return id, nil
}

var _ database.SignatureStore = (*MockSignatureStore)(nil)
