package catalog

import "github.com/beyondbrewing/bookstore/pkg/logger"

// Config holds Catalog settings.
type Config struct {
	// CacheCapacity is the number of books kept in the read cache.
	// Zero disables the cache.
	CacheCapacity int64

	Logger logger.Logger
}

func DefaultConfig() *Config {
	return &Config{CacheCapacity: 4096}
}

type Option func(*Config)

func WithCacheCapacity(n int64) Option {
	return func(c *Config) { c.CacheCapacity = n }
}

func WithLogger(l logger.Logger) Option {
	return func(c *Config) { c.Logger = l }
}
