package ledger

import (
	"time"

	"github.com/beyondbrewing/bookstore/pkg/logger"
)

type Config struct {
	// Clock stamps new entries.
	Clock  func() time.Time
	Logger logger.Logger
}

func DefaultConfig() *Config {
	return &Config{Clock: time.Now}
}

type Option func(*Config)

func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		if now != nil {
			c.Clock = now
		}
	}
}

func WithLogger(l logger.Logger) Option {
	return func(c *Config) { c.Logger = l }
}
