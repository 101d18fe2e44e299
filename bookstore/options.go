package bookstore

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/beyondbrewing/bookstore/pkg/logger"
)

// Config holds all settings for an Engine.
type Config struct {
	// Root is the directory holding every persisted table.
	Root string

	// SyncWrites fsyncs each commit before the call returns. Turning it off
	// trades durability for speed and is meant for tests.
	SyncWrites bool

	// BlockCacheSize is the storage engine's block cache in bytes.
	BlockCacheSize int64

	// CacheCapacity is the number of books kept in the read cache.
	CacheCapacity int64

	BcryptCost int

	// MaxLoginAttempts failures within LoginWindow lock a username for
	// Lockout. Zero disables the lock.
	MaxLoginAttempts int
	LoginWindow      time.Duration
	Lockout          time.Duration

	// AdminUser and AdminPassword seed a fresh store.
	AdminUser     string
	AdminPassword string

	Policy Policy

	// Clock stamps ledger entries and drives the login limiter.
	Clock func() time.Time

	// Logger falls back to logger.Default() if nil.
	Logger logger.Logger
}

func DefaultConfig() *Config {
	return &Config{
		Root:             "bookstore-data",
		SyncWrites:       true,
		BlockCacheSize:   8 << 20,
		CacheCapacity:    4096,
		BcryptCost:       bcrypt.DefaultCost,
		MaxLoginAttempts: 5,
		LoginWindow:      time.Minute,
		Lockout:          5 * time.Minute,
		AdminUser:        "root",
		AdminPassword:    "sjtu",
		Policy:           DefaultPolicy(),
		Clock:            time.Now,
	}
}

func (c *Config) validate() error {
	if c.Root == "" {
		return errors.New("bookstore: root must not be empty")
	}
	if c.AdminUser == "" || c.AdminPassword == "" {
		return errors.New("bookstore: bootstrap admin credentials must be set")
	}
	if c.CacheCapacity < 0 {
		return errors.New("bookstore: negative cache capacity")
	}
	if c.Policy == nil {
		c.Policy = DefaultPolicy()
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	return nil
}

type Option func(*Config)

// WithRoot sets the store directory.
func WithRoot(dir string) Option {
	return func(c *Config) { c.Root = dir }
}

// WithSyncWrites toggles fsync on commit.
func WithSyncWrites(sync bool) Option {
	return func(c *Config) { c.SyncWrites = sync }
}

func WithBlockCacheSize(n int64) Option {
	return func(c *Config) { c.BlockCacheSize = n }
}

// WithCacheCapacity sizes the book read cache. Zero disables it.
func WithCacheCapacity(n int64) Option {
	return func(c *Config) { c.CacheCapacity = n }
}

func WithBcryptCost(cost int) Option {
	return func(c *Config) { c.BcryptCost = cost }
}

// WithLockout configures failed-login locking. max == 0 disables it.
func WithLockout(max int, window, lockout time.Duration) Option {
	return func(c *Config) {
		c.MaxLoginAttempts = max
		c.LoginWindow = window
		c.Lockout = lockout
	}
}

// WithBootstrapAdmin sets the account created in a fresh store.
func WithBootstrapAdmin(username, password string) Option {
	return func(c *Config) {
		c.AdminUser = username
		c.AdminPassword = password
	}
}

// WithPolicy replaces the privilege policy. The map is copied.
func WithPolicy(p Policy) Option {
	return func(c *Config) { c.Policy = p.clone() }
}

func WithClock(now func() time.Time) Option {
	return func(c *Config) { c.Clock = now }
}

// WithLogger sets a structured logger for the engine and its components.
func WithLogger(l logger.Logger) Option {
	return func(c *Config) { c.Logger = l }
}
