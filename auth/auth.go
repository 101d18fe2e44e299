// Package auth stores user accounts and checks credentials.
//
// Passwords are kept as bcrypt hashes, which embed a per-hash salt. Failed
// logins feed an in-memory limiter that can lock a username for a while.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/beyondbrewing/bookstore/pkg/logger"
	"github.com/beyondbrewing/bookstore/storage"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrLocked             = fmt.Errorf("%w: account locked", ErrInvalidCredentials)
	ErrNotFound           = errors.New("auth: user not found")
	ErrUserExists         = errors.New("auth: user already exists")
	ErrInvalidArgument    = errors.New("auth: invalid argument")
)

type Manager struct {
	cost    int
	limiter *limiter
	// dummy is compared against when the username is unknown, so a miss
	// costs as much as a wrong password.
	dummy  []byte
	logger logger.Logger
}

func New(opts ...Option) (*Manager, error) {
	cfg := DefaultConfig()
	for _, o := range opts {
		o(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-password"), cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}
	return &Manager{
		cost:    cfg.BcryptCost,
		limiter: newLimiter(cfg.MaxAttempts, cfg.Window, cfg.Lockout, cfg.Clock),
		dummy:   dummy,
		logger:  log.With("component", "auth"),
	}, nil
}

// Lookup loads one user.
func (m *Manager) Lookup(r storage.Reader, username string) (User, error) {
	if !validCredential(username) {
		return User{}, fmt.Errorf("%w: %q", ErrNotFound, username)
	}
	var u User
	err := storage.GetJSON(r, storage.CFUsers, []byte(username), &u)
	if errors.Is(err, storage.ErrNotFound) {
		return User{}, fmt.Errorf("%w: %q", ErrNotFound, username)
	}
	return u, err
}

// List returns every user, ordered by username.
func (m *Manager) List(r storage.Reader) ([]User, error) {
	out := []User{}
	err := r.Scan(storage.CFUsers, nil, func(_, v []byte) (bool, error) {
		var u User
		if err := storage.Decode(v, &u); err != nil {
			return false, err
		}
		out = append(out, u)
		return true, nil
	})
	return out, err
}

// Bootstrap creates the initial admin account.
func (m *Manager) Bootstrap(tx *storage.Tx, username, password string) (User, error) {
	return m.Add(tx, User{Username: username, Name: username, Privilege: Admin}, password)
}

// Add creates u with the given password. u.PasswordHash is ignored. An
// empty name defaults to the username.
func (m *Manager) Add(tx *storage.Tx, u User, password string) (User, error) {
	if !validCredential(u.Username) {
		return User{}, fmt.Errorf("%w: username %q", ErrInvalidArgument, u.Username)
	}
	if !validCredential(password) {
		return User{}, fmt.Errorf("%w: password", ErrInvalidArgument)
	}
	if u.Name == "" {
		u.Name = u.Username
	}
	if !validName(u.Name) {
		return User{}, fmt.Errorf("%w: name %q", ErrInvalidArgument, u.Name)
	}
	if !u.Privilege.Valid() {
		return User{}, fmt.Errorf("%w: %s", ErrInvalidArgument, u.Privilege)
	}

	exists, err := tx.Has(storage.CFUsers, []byte(u.Username))
	if err != nil {
		return User{}, err
	}
	if exists {
		return User{}, fmt.Errorf("%w: %q", ErrUserExists, u.Username)
	}

	hash, err := m.hash(password)
	if err != nil {
		return User{}, err
	}
	u.PasswordHash = hash
	if err := m.put(tx, u); err != nil {
		return User{}, err
	}
	m.logger.Info("user added", "username", u.Username, "privilege", u.Privilege.String())
	return u, nil
}

// Authenticate checks a username/password pair. Unknown users, wrong
// passwords, and locked usernames all fail with ErrInvalidCredentials.
func (m *Manager) Authenticate(r storage.Reader, username, password string) (User, error) {
	if m.limiter.locked(username) {
		m.logger.Warn("login refused, account locked", "username", username)
		return User{}, ErrLocked
	}

	u, err := m.Lookup(r, username)
	switch {
	case errors.Is(err, ErrNotFound):
		_ = bcrypt.CompareHashAndPassword(m.dummy, []byte(password))
		m.failed(username)
		return User{}, ErrInvalidCredentials
	case err != nil:
		return User{}, err
	}

	if err := m.compare(u, password); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			m.failed(username)
		}
		return User{}, err
	}
	m.limiter.reset(username)
	return u, nil
}

func (m *Manager) failed(username string) {
	if m.limiter.fail(username) {
		m.logger.Warn("account locked after failed logins", "username", username)
	}
}

func (m *Manager) compare(u User, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrInvalidCredentials
	default:
		return fmt.Errorf("auth: stored hash for %q: %w", u.Username, err)
	}
}

// ChangePassword replaces the password after checking the old one.
func (m *Manager) ChangePassword(tx *storage.Tx, username, oldPassword, newPassword string) error {
	u, err := m.Authenticate(tx, username, oldPassword)
	if err != nil {
		return err
	}
	return m.setPassword(tx, u, newPassword)
}

// SetPassword replaces the password without checking the old one.
func (m *Manager) SetPassword(tx *storage.Tx, username, newPassword string) error {
	u, err := m.Lookup(tx, username)
	if err != nil {
		return err
	}
	return m.setPassword(tx, u, newPassword)
}

func (m *Manager) setPassword(tx *storage.Tx, u User, password string) error {
	if !validCredential(password) {
		return fmt.Errorf("%w: password", ErrInvalidArgument)
	}
	hash, err := m.hash(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return m.put(tx, u)
}

// SetPrivilege changes the tier of an existing user.
func (m *Manager) SetPrivilege(tx *storage.Tx, username string, p Privilege) (User, error) {
	if !p.Valid() {
		return User{}, fmt.Errorf("%w: %s", ErrInvalidArgument, p)
	}
	u, err := m.Lookup(tx, username)
	if err != nil {
		return User{}, err
	}
	u.Privilege = p
	return u, m.put(tx, u)
}

// Delete removes a user.
func (m *Manager) Delete(tx *storage.Tx, username string) error {
	if _, err := m.Lookup(tx, username); err != nil {
		return err
	}
	tx.Delete(storage.CFUsers, []byte(username))
	m.logger.Info("user deleted", "username", username)
	return nil
}

func (m *Manager) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(h), nil
}

func (m *Manager) put(tx *storage.Tx, u User) error {
	return tx.PutJSON(storage.CFUsers, []byte(u.Username), u)
}
