package auth

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/beyondbrewing/bookstore/pkg/logger"
)

// Config holds Manager settings.
type Config struct {
	// BcryptCost is the work factor for new password hashes.
	BcryptCost int

	// MaxAttempts failed logins within Window lock the username for
	// Lockout. Zero disables the lock.
	MaxAttempts int
	Window      time.Duration
	Lockout     time.Duration

	Clock  func() time.Time
	Logger logger.Logger
}

func DefaultConfig() *Config {
	return &Config{
		BcryptCost:  bcrypt.DefaultCost,
		MaxAttempts: 5,
		Window:      time.Minute,
		Lockout:     5 * time.Minute,
		Clock:       time.Now,
	}
}

func (c *Config) validate() error {
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return errors.New("auth: bcrypt cost out of range")
	}
	if c.MaxAttempts < 0 {
		return errors.New("auth: negative max attempts")
	}
	if c.MaxAttempts > 0 && (c.Window <= 0 || c.Lockout <= 0) {
		return errors.New("auth: lockout needs a positive window and duration")
	}
	if c.Clock == nil {
		return errors.New("auth: nil clock")
	}
	return nil
}

type Option func(*Config)

func WithBcryptCost(cost int) Option {
	return func(c *Config) { c.BcryptCost = cost }
}

// WithLockout configures the failed-login limiter. max == 0 disables it.
func WithLockout(max int, window, lockout time.Duration) Option {
	return func(c *Config) {
		c.MaxAttempts = max
		c.Window = window
		c.Lockout = lockout
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Config) { c.Clock = now }
}

func WithLogger(l logger.Logger) Option {
	return func(c *Config) { c.Logger = l }
}
