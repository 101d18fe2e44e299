package db

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/beyondbrewing/bookstore/pkg/logger"
	"github.com/cockroachdb/pebble"
)

// Compile-time interface check.
var _ Store = (*PebbleDB)(nil)

// PebbleDB is the durable [Store]. Pebble does its own locking, so the
// struct only guards against use after Close.
//
// Every column family lives in one Pebble keyspace under the prefix
// cf + 0x00, so a family is a contiguous key range and iterators can be
// bounded to it.
type PebbleDB struct {
	db *pebble.DB

	// Built once in Open and only read afterwards.
	prefixes map[string][]byte

	writeOpts *pebble.WriteOptions
	path      string
	logger    logger.Logger

	// Operations hold mu.RLock; Close takes mu.Lock so it waits for them.
	closed atomic.Bool
	mu     sync.RWMutex
}

// Open opens (creating if needed) the Pebble directory at path. The caller
// must Close the store to release file handles and the block cache.
func Open(path string, opts ...Option) (*PebbleDB, error) {
	cfg := DefaultConfig()
	for _, o := range opts {
		o(cfg)
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	log = log.With("component", "db")

	// --- Build Pebble options ---

	cache := pebble.NewCache(cfg.CacheSize)
	defer cache.Unref()

	pdb, err := pebble.Open(path, &pebble.Options{
		Cache:        cache,
		MemTableSize: cfg.MemTableSize,
		MaxOpenFiles: cfg.MaxOpenFiles,
		ReadOnly:     cfg.ReadOnly,
		Logger:       pebbleLogger{log: log.With("engine", "pebble")},
	})
	if err != nil {
		return nil, fmt.Errorf("db: open %s: %w", path, err)
	}

	// --- Build CF prefix map ---

	prefixes := make(map[string][]byte, 1+len(cfg.ColumnFamilies))
	prefixes[DefaultColumnFamily] = cfPrefix(DefaultColumnFamily)
	for _, cf := range cfg.ColumnFamilies {
		prefixes[cf] = cfPrefix(cf)
	}

	writeOpts := pebble.NoSync
	if cfg.SyncWrites {
		writeOpts = pebble.Sync
	}

	names := make([]string, 0, len(prefixes))
	for cf := range prefixes {
		names = append(names, cf)
	}
	sort.Strings(names)
	log.Info("store opened", "path", path, "column_families", names, "sync", cfg.SyncWrites)

	return &PebbleDB{
		db:        pdb,
		prefixes:  prefixes,
		writeOpts: writeOpts,
		path:      path,
		logger:    log,
	}, nil
}

// Path returns the directory the store was opened from.
func (p *PebbleDB) Path() string { return p.path }

// ---------------------------------------------------------------------------
// Store implementation
// ---------------------------------------------------------------------------

// Get returns a copy of the value stored under key in cf.
func (p *PebbleDB) Get(cf string, key []byte) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	full, err := p.key(cf, key)
	if err != nil {
		return nil, err
	}

	val, closer, err := p.db.Get(full)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db: get %s: %w", cf, err)
	}
	defer closer.Close()

	// Copy: val is only valid until closer.Close().
	return clone(val), nil
}

// Put writes one key outside any batch.
func (p *PebbleDB) Put(cf string, key, value []byte) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	full, err := p.key(cf, key)
	if err != nil {
		return err
	}
	if err := p.db.Set(full, value, p.writeOpts); err != nil {
		return fmt.Errorf("db: put %s: %w", cf, err)
	}
	return nil
}

// Delete removes key from cf. A missing key is not an error.
func (p *PebbleDB) Delete(cf string, key []byte) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	full, err := p.key(cf, key)
	if err != nil {
		return err
	}
	if err := p.db.Delete(full, p.writeOpts); err != nil {
		return fmt.Errorf("db: delete %s: %w", cf, err)
	}
	return nil
}

// Has reports whether key exists in cf.
func (p *PebbleDB) Has(cf string, key []byte) (bool, error) {
	_, err := p.Get(cf, key)
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

// NewBatch starts an empty atomic write set.
func (p *PebbleDB) NewBatch() Batch {
	return &pebbleBatch{owner: p, batch: p.db.NewBatch()}
}

// NewIterator returns an iterator bounded to cf's key range. It starts
// unpositioned; call Seek, SeekToFirst, or SeekToLast first.
func (p *PebbleDB) NewIterator(cf string) (Iterator, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed.Load() {
		return nil, ErrClosed
	}
	prefix, ok := p.prefixes[cf]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnFamilyNotFound, cf)
	}

	it, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: cfUpperBound(cf),
	})
	if err != nil {
		return nil, fmt.Errorf("db: iterator %s: %w", cf, err)
	}
	return &pebbleIterator{iter: it, prefix: prefix}, nil
}

// Flush forces the memtable to disk.
func (p *PebbleDB) Flush() error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed.Load() {
		return ErrClosed
	}
	if err := p.db.Flush(); err != nil {
		return fmt.Errorf("db: flush: %w", err)
	}
	return nil
}

// Close performs a graceful shutdown. It takes the write lock, so every
// in-flight operation finishes before Pebble is torn down.
func (p *PebbleDB) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed.Swap(true) {
		return ErrClosed
	}

	if err := p.db.Flush(); err != nil {
		p.logger.Warn("flush before close failed", "error", err)
	}
	if err := p.db.Close(); err != nil {
		return fmt.Errorf("db: close: %w", err)
	}
	p.logger.Info("store closed", "path", p.path)
	return nil
}

// key validates the call and returns the prefixed storage key.
// Caller must hold mu.
func (p *PebbleDB) key(cf string, key []byte) ([]byte, error) {
	if p.closed.Load() {
		return nil, ErrClosed
	}
	if key == nil {
		return nil, ErrNilKey
	}
	prefix, ok := p.prefixes[cf]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnFamilyNotFound, cf)
	}
	return prefixedKey(prefix, key), nil
}

// ---------------------------------------------------------------------------
// Batch implementation
// ---------------------------------------------------------------------------

// pebbleBatch stages prefixed writes in a pebble.Batch. It is not safe
// for concurrent use.
type pebbleBatch struct {
	owner  *PebbleDB
	batch  *pebble.Batch
	closed bool
}

func (b *pebbleBatch) Put(cf string, key, value []byte) error {
	full, err := b.stage(cf, key)
	if err != nil {
		return err
	}
	if err := b.batch.Set(full, value, nil); err != nil {
		return fmt.Errorf("db: batch put %s: %w", cf, err)
	}
	return nil
}

func (b *pebbleBatch) Delete(cf string, key []byte) error {
	full, err := b.stage(cf, key)
	if err != nil {
		return err
	}
	if err := b.batch.Delete(full, nil); err != nil {
		return fmt.Errorf("db: batch delete %s: %w", cf, err)
	}
	return nil
}

func (b *pebbleBatch) stage(cf string, key []byte) ([]byte, error) {
	if b.closed {
		return nil, ErrBatchClosed
	}
	if key == nil {
		return nil, ErrNilKey
	}
	prefix, ok := b.owner.prefixes[cf]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnFamilyNotFound, cf)
	}
	return prefixedKey(prefix, key), nil
}

func (b *pebbleBatch) Count() int { return int(b.batch.Count()) }

// Commit applies the batch atomically with the store's write options.
func (b *pebbleBatch) Commit() error {
	if b.closed {
		return ErrBatchClosed
	}

	b.owner.mu.RLock()
	defer b.owner.mu.RUnlock()

	if b.owner.closed.Load() {
		return ErrClosed
	}
	if err := b.batch.Commit(b.owner.writeOpts); err != nil {
		return fmt.Errorf("db: commit: %w", err)
	}
	return nil
}

// Close discards anything not committed. Safe to call twice.
func (b *pebbleBatch) Close() {
	if b.closed {
		return
	}
	_ = b.batch.Close()
	b.closed = true
}

// ---------------------------------------------------------------------------
// Iterator implementation
// ---------------------------------------------------------------------------

type pebbleIterator struct {
	iter   *pebble.Iterator
	prefix []byte
	closed bool
	err    error
}

func (it *pebbleIterator) Seek(target []byte) { it.iter.SeekGE(prefixedKey(it.prefix, target)) }
func (it *pebbleIterator) SeekToFirst()       { it.iter.First() }
func (it *pebbleIterator) SeekToLast()        { it.iter.Last() }
func (it *pebbleIterator) Next()              { it.iter.Next() }
func (it *pebbleIterator) Prev()              { it.iter.Prev() }
func (it *pebbleIterator) Valid() bool        { return it.iter.Valid() }

func (it *pebbleIterator) Key() []byte {
	// Strip the CF prefix and return a copy.
	raw := it.iter.Key()
	if len(raw) < len(it.prefix) {
		return nil
	}
	return clone(raw[len(it.prefix):])
}

func (it *pebbleIterator) Value() []byte {
	v, err := it.iter.ValueAndErr()
	if err != nil {
		it.err = err
		return nil
	}
	return clone(v)
}

func (it *pebbleIterator) Err() error {
	if it.err != nil {
		return it.err
	}
	return it.iter.Error()
}

func (it *pebbleIterator) Close() {
	if it.closed {
		return
	}
	_ = it.iter.Close()
	it.closed = true
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// pebbleLogger forwards Pebble's printf-style messages to the module logger.
type pebbleLogger struct {
	log logger.Logger
}

func (l pebbleLogger) Infof(format string, args ...any) {
	l.log.Debug(fmt.Sprintf(format, args...))
}

func (l pebbleLogger) Errorf(format string, args ...any) {
	l.log.Error(fmt.Sprintf(format, args...))
}

func (l pebbleLogger) Fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.log.Error(msg, "fatal", true)
	_ = l.log.Sync()
	panic(msg)
}

// cfPrefix builds the key prefix for a column family: "cf\x00".
func cfPrefix(cf string) []byte {
	return append([]byte(cf), 0x00)
}

// cfUpperBound builds the exclusive upper bound for iteration: "cf\x01".
func cfUpperBound(cf string) []byte {
	return append([]byte(cf), 0x01)
}

// prefixedKey concatenates a CF prefix and a user key into one storage key.
func prefixedKey(prefix, key []byte) []byte {
	out := make([]byte, 0, len(prefix)+len(key))
	out = append(out, prefix...)
	return append(out, key...)
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
