// Package storage owns the on-disk layout of a bookstore. It decides which
// tables exist, creates or wipes the store root, and funnels every
// mutation through one serialized, atomic write path ([Layer.Update]).
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/beyondbrewing/bookstore/db"
	"github.com/beyondbrewing/bookstore/pkg/logger"
)

// Tables of the store. Each is a db column family.
const (
	CFBooks        = "books"
	CFTitleIndex   = "title_idx"
	CFAuthorIndex  = "author_idx"
	CFKeywordIndex = "keyword_idx"
	CFUsers        = "users"
	CFLedger       = "ledger"
	CFMeta         = "meta"
)

// ColumnFamilies lists every table the layer registers.
var ColumnFamilies = []string{
	CFBooks, CFTitleIndex, CFAuthorIndex, CFKeywordIndex, CFUsers, CFLedger, CFMeta,
}

// SchemaVersion is stamped into the meta table by the first successful
// bootstrap. A store without it is treated as empty.
const SchemaVersion = "bookstore/1"

var schemaKey = []byte("schema")

// pebbleDir is where the key/value files live beneath the root.
const pebbleDir = "pebble"

var (
	// ErrFault marks I/O failures and corrupted layouts. Test with errors.Is.
	ErrFault = errors.New("storage: fault")

	ErrNotFound = errors.New("storage: not found")
	ErrClosed   = errors.New("storage: closed")
)

// FaultError wraps an underlying failure with the operation that hit it.
type FaultError struct {
	Op  string
	Err error
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *FaultError) Unwrap() error { return e.Err }

// Is makes every FaultError match ErrFault.
func (e *FaultError) Is(target error) bool { return target == ErrFault }

func fault(op string, err error) error {
	if err == nil {
		return nil
	}
	var fe *FaultError
	if errors.As(err, &fe) {
		return err
	}
	return &FaultError{Op: op, Err: err}
}

// Layer is the single owner of the durable store.
//
// Readers share mu through View; Update holds it exclusively, so a writer
// never runs alongside a reader and every committed transaction is
// visible to the next call.
type Layer struct {
	root   string
	store  db.Store
	logger logger.Logger
	fresh  bool

	mu     sync.RWMutex
	closed bool
}

// Open initializes the store under root. With forceReset every book, user,
// and ledger entry is discarded. Errors match ErrFault.
func Open(root string, forceReset bool, opts ...Option) (*Layer, error) {
	cfg := DefaultConfig()
	for _, o := range opts {
		o(cfg)
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	log = log.With("component", "storage")

	if root == "" {
		return nil, fault("open", errors.New("empty root path"))
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fault("create root", err)
	}
	if err := probeWritable(root); err != nil {
		return nil, fault("probe root", err)
	}

	dir := filepath.Join(root, pebbleDir)
	if forceReset {
		log.Warn("force reset requested, discarding store", "root", root)
		if err := os.RemoveAll(dir); err != nil {
			return nil, fault("reset", err)
		}
	}

	store, err := db.Open(dir,
		db.WithColumnFamilies(ColumnFamilies...),
		db.WithSyncWrites(cfg.SyncWrites),
		db.WithCacheSize(cfg.CacheSize),
		db.WithLogger(log),
	)
	if err != nil {
		return nil, fault("open store", err)
	}

	l, err := attach(root, store, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return l, nil
}

// NewWithStore wraps an already opened store, typically a db.MockStore
// registered with ColumnFamilies.
func NewWithStore(store db.Store, opts ...Option) (*Layer, error) {
	cfg := DefaultConfig()
	for _, o := range opts {
		o(cfg)
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	return attach("", store, log.With("component", "storage"))
}

func attach(root string, store db.Store, log logger.Logger) (*Layer, error) {
	stamp, err := store.Get(CFMeta, schemaKey)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		stamp = nil
	case err != nil:
		return nil, fault("read schema", err)
	case !bytes.Equal(stamp, []byte(SchemaVersion)):
		return nil, fault("read schema", fmt.Errorf("unsupported layout %q", stamp))
	}

	l := &Layer{root: root, store: store, logger: log, fresh: stamp == nil}
	log.Info("storage ready", "root", root, "fresh", l.fresh)
	return l, nil
}

// probeWritable creates and removes a scratch file in dir.
func probeWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		return err
	}
	return os.Remove(name)
}

// Root is the directory passed to Open.
func (l *Layer) Root() string { return l.root }

// Fresh reports whether the store had no schema stamp when it was opened,
// i.e. it still needs bootstrapping.
func (l *Layer) Fresh() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.fresh
}

// View runs fn against committed state. Views run concurrently with each
// other but never with an Update.
func (l *Layer) View(fn func(r Reader) error) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return fault("view", ErrClosed)
	}
	return fn(storeReader{store: l.store})
}

// Update runs fn inside an exclusive transaction. Writes staged on the Tx
// become durable in one atomic commit when fn returns nil; if fn fails
// nothing is written. Commit hooks run after a successful commit while the
// lock is still held.
func (l *Layer) Update(fn func(tx *Tx) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return fault("update", ErrClosed)
	}

	tx := newTx(l.store)
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.commit(); err != nil {
		l.logger.Error("commit failed", "ops", len(tx.ops), "error", err)
		return fault("commit", err)
	}
	if tx.stamped {
		l.fresh = false
	}
	for _, hook := range tx.hooks {
		hook()
	}
	return nil
}

// Close releases the store. Later calls fail with ErrFault.
func (l *Layer) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	if err := l.store.Close(); err != nil {
		return fault("close", err)
	}
	return nil
}
