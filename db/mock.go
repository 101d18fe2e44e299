package db

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

// Compile-time interface check.
var _ Store = (*MockStore)(nil)

// MockStore is an in-memory [Store] with the same semantics as
// [PebbleDB]: copies in and out, atomic batches, sorted iteration.
//
//	store := db.NewMockStore("books", "ledger")
//	defer store.Close()
type MockStore struct {
	mu     sync.RWMutex
	data   map[string]map[string][]byte
	closed atomic.Bool

	// FailCommit, when set, makes every batch commit return it. Used to
	// exercise rollback paths.
	FailCommit error
}

// NewMockStore creates a MockStore with the given column families.
// The [DefaultColumnFamily] ("default") is always included.
func NewMockStore(cfs ...string) *MockStore {
	m := &MockStore{data: map[string]map[string][]byte{DefaultColumnFamily: {}}}
	for _, cf := range cfs {
		m.data[cf] = map[string][]byte{}
	}
	return m
}

// ---------------------------------------------------------------------------
// Store implementation
// ---------------------------------------------------------------------------

// bucket resolves cf for a single-key call. Caller must hold mu.
func (m *MockStore) bucket(cf string, key []byte) (map[string][]byte, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	if key == nil {
		return nil, ErrNilKey
	}
	b, ok := m.data[cf]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnFamilyNotFound, cf)
	}
	return b, nil
}

// Get returns a copy of the stored value.
func (m *MockStore) Get(cf string, key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, err := m.bucket(cf, key)
	if err != nil {
		return nil, err
	}
	v, ok := b[string(key)]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return clone(v), nil
}

// Put stores a copy of value.
func (m *MockStore) Put(cf string, key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := m.bucket(cf, key)
	if err != nil {
		return err
	}
	b[string(key)] = clone(value)
	return nil
}

func (m *MockStore) Delete(cf string, key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := m.bucket(cf, key)
	if err != nil {
		return err
	}
	delete(b, string(key))
	return nil
}

// Has reports whether key exists in cf.
func (m *MockStore) Has(cf string, key []byte) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, err := m.bucket(cf, key)
	if err != nil {
		return false, err
	}
	_, ok := b[string(key)]
	return ok, nil
}

func (m *MockStore) NewBatch() Batch {
	return &mockBatch{store: m}
}

// NewIterator iterates over a snapshot taken at creation time.
func (m *MockStore) NewIterator(cf string) (Iterator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed.Load() {
		return nil, ErrClosed
	}
	b, ok := m.data[cf]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnFamilyNotFound, cf)
	}

	// Snapshot: sorted copy of the current data.
	entries := make([]mockEntry, 0, len(b))
	for k, v := range b {
		entries = append(entries, mockEntry{key: []byte(k), value: clone(v)})
	}
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].key, entries[j].key) < 0
	})
	return &mockIterator{entries: entries, pos: -1}, nil
}

func (m *MockStore) Flush() error {
	if m.closed.Load() {
		return ErrClosed
	}
	return nil
}

// Close drops all data. A second Close returns ErrClosed.
func (m *MockStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed.Swap(true) {
		return ErrClosed
	}
	m.data = nil
	return nil
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// Len reports the number of keys in cf, or -1 for an unknown family or a
// closed store.
func (m *MockStore) Len(cf string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed.Load() {
		return -1
	}
	b, ok := m.data[cf]
	if !ok {
		return -1
	}
	return len(b)
}

// ---------------------------------------------------------------------------
// Batch implementation
// ---------------------------------------------------------------------------

type mockOp struct {
	del   bool
	cf    string
	key   string
	value []byte
}

type mockBatch struct {
	store  *MockStore
	ops    []mockOp
	closed bool
}

func (b *mockBatch) stage(op mockOp, key []byte) error {
	if b.closed {
		return ErrBatchClosed
	}
	if key == nil {
		return ErrNilKey
	}
	// Family names never change after NewMockStore.
	if _, ok := b.store.data[op.cf]; !ok {
		return fmt.Errorf("%w: %q", ErrColumnFamilyNotFound, op.cf)
	}
	b.ops = append(b.ops, op)
	return nil
}

func (b *mockBatch) Put(cf string, key, value []byte) error {
	return b.stage(mockOp{cf: cf, key: string(key), value: clone(value)}, key)
}

func (b *mockBatch) Delete(cf string, key []byte) error {
	return b.stage(mockOp{del: true, cf: cf, key: string(key)}, key)
}

func (b *mockBatch) Count() int { return len(b.ops) }

// Commit applies every staged op under one hold of the write lock.
func (b *mockBatch) Commit() error {
	if b.closed {
		return ErrBatchClosed
	}

	b.store.mu.Lock()
	defer b.store.mu.Unlock()

	if b.store.closed.Load() {
		return ErrClosed
	}
	if b.store.FailCommit != nil {
		return b.store.FailCommit
	}
	for _, op := range b.ops {
		if op.del {
			delete(b.store.data[op.cf], op.key)
		} else {
			b.store.data[op.cf][op.key] = op.value
		}
	}
	return nil
}

func (b *mockBatch) Close() {
	b.closed = true
	b.ops = nil
}

// ---------------------------------------------------------------------------
// Iterator implementation
// ---------------------------------------------------------------------------

type mockEntry struct {
	key   []byte
	value []byte
}

// mockIterator walks a sorted snapshot; pos is -1 until positioned.
type mockIterator struct {
	entries []mockEntry
	pos     int
}

// Seek positions at the first key >= target.
func (it *mockIterator) Seek(target []byte) {
	it.pos = sort.Search(len(it.entries), func(i int) bool {
		return bytes.Compare(it.entries[i].key, target) >= 0
	})
}

func (it *mockIterator) SeekToFirst() { it.pos = 0 }
func (it *mockIterator) SeekToLast()  { it.pos = len(it.entries) - 1 }
func (it *mockIterator) Next()        { it.pos++ }
func (it *mockIterator) Prev()        { it.pos-- }

func (it *mockIterator) Valid() bool {
	return it.pos >= 0 && it.pos < len(it.entries)
}

func (it *mockIterator) Key() []byte {
	if !it.Valid() {
		return nil
	}
	return clone(it.entries[it.pos].key)
}

func (it *mockIterator) Value() []byte {
	if !it.Valid() {
		return nil
	}
	return clone(it.entries[it.pos].value)
}

func (it *mockIterator) Err() error { return nil }
func (it *mockIterator) Close()     {}
