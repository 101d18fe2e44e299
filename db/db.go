// Package db is the key/value layer underneath the bookstore. It exposes
// ordered column families (simulated by key prefixes), atomic write
// batches, and bidirectional iterators.
//
// [PebbleDB] is the durable implementation; [MockStore] keeps everything
// in memory and is used by unit tests. Both satisfy [Store].
package db

import (
	"errors"
	"io"
)

var (
	ErrClosed               = errors.New("db: store is closed")
	ErrColumnFamilyNotFound = errors.New("db: unknown column family")
	ErrKeyNotFound          = errors.New("db: key not found")
	ErrNilKey               = errors.New("db: nil key")
	ErrBatchClosed          = errors.New("db: batch already closed")
)

// DefaultColumnFamily is always registered, whatever the options say.
const DefaultColumnFamily = "default"

// Store is safe for concurrent use.
type Store interface {
	// Get returns a copy of the value, or ErrKeyNotFound.
	Get(cf string, key []byte) ([]byte, error)

	Put(cf string, key []byte, value []byte) error

	// Delete of a missing key succeeds.
	Delete(cf string, key []byte) error

	Has(cf string, key []byte) (bool, error)

	// NewBatch starts an atomic write set. Close must always be called.
	NewBatch() Batch

	// NewIterator walks one column family in key order. Keys are returned
	// without the family prefix.
	NewIterator(cf string) (Iterator, error)

	// Flush persists the memtable.
	Flush() error

	io.Closer
}

// Batch buffers writes until Commit applies them all or none.
type Batch interface {
	Put(cf string, key []byte, value []byte) error
	Delete(cf string, key []byte) error
	Count() int
	Commit() error
	Close()
}

// Iterator returns copies from Key and Value, so they stay valid after
// the iterator moves.
type Iterator interface {
	Seek(target []byte)
	SeekToFirst()
	SeekToLast()
	Next()
	Prev()
	Valid() bool
	Key() []byte
	Value() []byte
	Err() error
	Close()
}
