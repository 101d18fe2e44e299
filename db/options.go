package db

import (
	"github.com/beyondbrewing/bookstore/pkg/logger"
)

// Config tunes a [PebbleDB]. Build it through [Option] values passed to
// [Open].
type Config struct {
	// ColumnFamilies are the logical tables accepted by the store.
	ColumnFamilies []string

	// CacheSize is the Pebble block cache in bytes.
	CacheSize int64

	// MemTableSize is the size of one memtable in bytes.
	MemTableSize uint64

	MaxOpenFiles int

	// SyncWrites fsyncs the WAL on every write and batch commit. The
	// bookstore acknowledges a transaction only after it is durable, so
	// this is on by default.
	SyncWrites bool

	// ReadOnly opens the directory without taking the write path.
	ReadOnly bool

	Logger logger.Logger
}

// DefaultConfig is sized for a catalog of a few hundred thousand titles
// on a single machine.
func DefaultConfig() *Config {
	return &Config{
		CacheSize:    8 << 20,
		MemTableSize: 4 << 20,
		MaxOpenFiles: 256,
		SyncWrites:   true,
	}
}

// Option mutates a Config during Open.
type Option func(*Config)

// WithColumnFamilies registers logical tables. "default" is implicit.
func WithColumnFamilies(cfs ...string) Option {
	return func(c *Config) { c.ColumnFamilies = cfs }
}

// WithCacheSize sets the block cache size in bytes.
func WithCacheSize(size int64) Option {
	return func(c *Config) { c.CacheSize = size }
}

// WithMemTableSize sets the memtable size in bytes.
func WithMemTableSize(size uint64) Option {
	return func(c *Config) { c.MemTableSize = size }
}

// WithMaxOpenFiles caps open file descriptors.
func WithMaxOpenFiles(n int) Option {
	return func(c *Config) { c.MaxOpenFiles = n }
}

// WithSyncWrites toggles per-commit fsync.
func WithSyncWrites(sync bool) Option {
	return func(c *Config) { c.SyncWrites = sync }
}

// WithReadOnly opens the store for inspection only.
func WithReadOnly(ro bool) Option {
	return func(c *Config) { c.ReadOnly = ro }
}

// WithLogger routes store and Pebble messages to l.
func WithLogger(l logger.Logger) Option {
	return func(c *Config) { c.Logger = l }
}
