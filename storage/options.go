package storage

import "github.com/beyondbrewing/bookstore/pkg/logger"

// Config holds Layer settings.
type Config struct {
	// SyncWrites fsyncs every commit before Update returns.
	SyncWrites bool
	CacheSize  int64
	Logger     logger.Logger
}

func DefaultConfig() *Config {
	return &Config{
		SyncWrites: true,
		CacheSize:  8 << 20,
	}
}

type Option func(*Config)

func WithSyncWrites(sync bool) Option {
	return func(c *Config) { c.SyncWrites = sync }
}

func WithCacheSize(n int64) Option {
	return func(c *Config) { c.CacheSize = n }
}

func WithLogger(l logger.Logger) Option {
	return func(c *Config) { c.Logger = l }
}
