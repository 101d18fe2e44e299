// Package bookstore is the engine façade: it composes storage, catalog,
// ledger, and auth behind a call contract where every operation returns a
// Status plus an optional payload.
//
// Each mutating call runs as one storage transaction, so a non-Success
// status never leaves a partial write behind. Sessions carry the caller's
// privilege and select/modify cursor; the engine itself only counts live
// sessions per username.
package bookstore

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/beyondbrewing/bookstore/auth"
	"github.com/beyondbrewing/bookstore/catalog"
	"github.com/beyondbrewing/bookstore/ledger"
	"github.com/beyondbrewing/bookstore/pkg/logger"
	"github.com/beyondbrewing/bookstore/storage"
)

type (
	Book          = catalog.Book
	Patch         = catalog.Patch
	FinanceRecord = ledger.Summary
	User          = auth.User
)

var (
	ErrNotInitialized = errors.New("bookstore: engine not initialized")

	errPermission      = errors.New("bookstore: permission denied")
	errNothingSelected = errors.New("bookstore: nothing selected")
	errInvalidArgument = errors.New("bookstore: invalid argument")
)

// Engine is safe for concurrent use by multiple sessions.
type Engine struct {
	cfg     *Config
	base    logger.Logger
	logger  logger.Logger
	catalog *catalog.Catalog
	ledger  *ledger.Ledger
	auth    *auth.Manager

	// mu guards the layer and epoch. Operations hold it shared;
	// Initialize and Close hold it exclusively.
	mu    sync.RWMutex
	layer *storage.Layer
	epoch uint64

	sessMu sync.Mutex
	live   map[string]int
}

// New builds an Engine. Call Initialize before anything else.
func New(opts ...Option) (*Engine, error) {
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

	cat, err := catalog.New(
		catalog.WithCacheCapacity(cfg.CacheCapacity),
		catalog.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	am, err := auth.New(
		auth.WithBcryptCost(cfg.BcryptCost),
		auth.WithLockout(cfg.MaxLoginAttempts, cfg.LoginWindow, cfg.Lockout),
		auth.WithClock(cfg.Clock),
		auth.WithLogger(log),
	)
	if err != nil {
		cat.Close()
		return nil, err
	}

	return &Engine{
		cfg:     cfg,
		base:    log,
		logger:  log.With("component", "engine"),
		catalog: cat,
		ledger:  ledger.New(ledger.WithClock(cfg.Clock), ledger.WithLogger(log)),
		auth:    am,
		live:    map[string]int{},
	}, nil
}

// Initialize opens the store under the configured root, wiping it first
// when forceReset is set. A fresh store gets the bootstrap admin account.
// Sessions from before the call stop working.
func (e *Engine) Initialize(forceReset bool) Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.layer != nil {
		if err := e.layer.Close(); err != nil {
			e.logger.Warn("closing previous store", "error", err)
		}
		e.layer = nil
	}
	e.catalog.Purge()
	e.ledger.Reset()

	layer, err := storage.Open(e.cfg.Root, forceReset,
		storage.WithSyncWrites(e.cfg.SyncWrites),
		storage.WithCacheSize(e.cfg.BlockCacheSize),
		storage.WithLogger(e.base),
	)
	if err != nil {
		return e.status("initialize", err)
	}

	if layer.Fresh() {
		err = layer.Update(func(tx *storage.Tx) error {
			if _, err := e.auth.Bootstrap(tx, e.cfg.AdminUser, e.cfg.AdminPassword); err != nil {
				return err
			}
			tx.StampSchema()
			return nil
		})
		if err != nil {
			_ = layer.Close()
			return e.status("bootstrap", err)
		}
	}
	if err := layer.View(e.ledger.Load); err != nil {
		_ = layer.Close()
		return e.status("load ledger", err)
	}

	e.layer = layer
	e.epoch++
	e.sessMu.Lock()
	e.live = map[string]int{}
	e.sessMu.Unlock()

	e.logger.Info("engine initialized", "root", e.cfg.Root, "reset", forceReset)
	return Success
}

// Close releases the store. The engine can be re-initialized afterwards.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var err error
	if e.layer != nil {
		err = e.layer.Close()
		e.layer = nil
	}
	e.epoch++
	return err
}

// Shutdown closes the store and releases the book cache for good.
func (e *Engine) Shutdown() error {
	err := e.Close()
	e.catalog.Close()
	return err
}

// do runs fn with the current layer after checking s may perform op.
func (e *Engine) do(s *Session, op Operation, fn func(l *storage.Layer) error) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.layer == nil {
		return ErrNotInitialized
	}
	if err := e.authorize(s, op); err != nil {
		return err
	}
	return fn(e.layer)
}

// open runs fn without a session.
func (e *Engine) open(fn func(l *storage.Layer) error) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.layer == nil {
		return ErrNotInitialized
	}
	return fn(e.layer)
}

func (e *Engine) authorize(s *Session, op Operation) error {
	if s == nil || s.closed || s.epoch != e.epoch {
		return fmt.Errorf("%w: no active session", errPermission)
	}
	if !e.cfg.Policy.allows(op, s.privilege) {
		return fmt.Errorf("%w: %s may not %s", errPermission, s.privilege, op)
	}
	return nil
}

// status maps an error to the Status returned to the caller. Faults and
// anything unrecognized are logged.
func (e *Engine) status(op string, err error) Status {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, auth.ErrInvalidCredentials):
		return InvalidCredentials
	case errors.Is(err, errPermission):
		return PermissionDenied
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, auth.ErrNotFound):
		return NotFound
	case errors.Is(err, catalog.ErrDuplicateISBN):
		return DuplicateISBN
	case errors.Is(err, catalog.ErrInsufficientStock):
		return InsufficientStock
	case errors.Is(err, errNothingSelected):
		return NothingSelected
	case errors.Is(err, auth.ErrUserExists):
		return DuplicateUser
	case errors.Is(err, errInvalidArgument),
		errors.Is(err, catalog.ErrInvalidArgument),
		errors.Is(err, ledger.ErrInvalidArgument),
		errors.Is(err, auth.ErrInvalidArgument):
		return InvalidArgument
	}
	e.logger.Error("operation failed", "op", op, "error", err)
	return StorageFault
}

func (e *Engine) newSession(u auth.User) (*Session, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("bookstore: session id: %w", err)
	}
	e.sessMu.Lock()
	e.live[u.Username]++
	e.sessMu.Unlock()
	return &Session{id: id, username: u.Username, privilege: u.Privilege, epoch: e.epoch}, nil
}

// Login checks credentials and opens a session.
func (e *Engine) Login(username, password string) (Status, *Session) {
	var s *Session
	err := e.open(func(l *storage.Layer) error {
		// The session is counted under the read lock so DeleteUser, which
		// writes, sees it.
		return l.View(func(r storage.Reader) error {
			u, err := e.auth.Authenticate(r, username, password)
			if err != nil {
				return err
			}
			s, err = e.newSession(u)
			return err
		})
	})
	if st := e.status("login", err); st != Success {
		return st, nil
	}
	e.logger.Debug("login", "username", username, "session", s.id)
	return Success, s
}

// SwitchUser opens a session as username without a password. The caller
// must hold a strictly higher privilege than the target.
func (e *Engine) SwitchUser(s *Session, username string) (Status, *Session) {
	var next *Session
	err := e.open(func(l *storage.Layer) error {
		if s == nil || s.closed || s.epoch != e.epoch {
			return fmt.Errorf("%w: no active session", errPermission)
		}
		return l.View(func(r storage.Reader) error {
			u, err := e.auth.Lookup(r, username)
			if errors.Is(err, auth.ErrNotFound) {
				return auth.ErrInvalidCredentials
			}
			if err != nil {
				return err
			}
			if s.privilege <= u.Privilege {
				return fmt.Errorf("%w: %s cannot switch to %s", errPermission, s.privilege, u.Privilege)
			}
			next, err = e.newSession(u)
			return err
		})
	})
	if st := e.status("switch user", err); st != Success {
		return st, nil
	}
	return Success, next
}

// Logout ends s.
func (e *Engine) Logout(s *Session) Status {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if s == nil || s.closed {
		return PermissionDenied
	}
	s.closed = true
	s.cursor.clear()
	if s.epoch != e.epoch {
		return Success
	}

	e.sessMu.Lock()
	if e.live[s.username]--; e.live[s.username] <= 0 {
		delete(e.live, s.username)
	}
	e.sessMu.Unlock()
	return Success
}

// Purchase sells qty copies of isbn. Stock and income change together or
// not at all. The returned record is the ledger total right after the sale.
func (e *Engine) Purchase(s *Session, isbn string, qty int64) (Status, FinanceRecord) {
	var rec FinanceRecord
	err := e.do(s, OpPurchase, func(l *storage.Layer) error {
		if qty <= 0 {
			return fmt.Errorf("%w: quantity must be positive", errInvalidArgument)
		}
		if err := catalog.ValidateISBN(isbn); err != nil {
			return err
		}
		return l.Update(func(tx *storage.Tx) error {
			b, err := e.catalog.DecrementStock(tx, isbn, qty)
			if err != nil {
				return err
			}
			if b.Price != 0 && qty > math.MaxInt64/b.Price {
				return fmt.Errorf("%w: total price overflows", errInvalidArgument)
			}
			entry, err := e.ledger.RecordIncome(tx, b.Price*qty)
			if err != nil {
				return err
			}
			rec = FinanceRecord{Income: entry.Income, Expenditure: entry.Expenditure}
			return nil
		})
	})
	if st := e.status("purchase", err); st != Success {
		return st, FinanceRecord{}
	}
	e.logger.Debug("purchase", "isbn", isbn, "quantity", qty, "user", s.username)
	return Success, rec
}

// ShowFinance returns the totals over the whole ledger.
func (e *Engine) ShowFinance(s *Session) (Status, FinanceRecord) {
	var rec FinanceRecord
	err := e.do(s, OpShowFinance, func(*storage.Layer) error {
		rec = e.ledger.Aggregate()
		return nil
	})
	if st := e.status("show finance", err); st != Success {
		return st, FinanceRecord{}
	}
	return Success, rec
}

// ShowFinanceLast returns the totals over the last count ledger entries.
func (e *Engine) ShowFinanceLast(s *Session, count int) (Status, FinanceRecord) {
	var rec FinanceRecord
	err := e.do(s, OpShowFinance, func(l *storage.Layer) error {
		return l.View(func(r storage.Reader) error {
			var err error
			rec, err = e.ledger.Last(r, count)
			return err
		})
	})
	if st := e.status("show finance", err); st != Success {
		return st, FinanceRecord{}
	}
	return Success, rec
}

// Select points the session's cursor at isbn. A failed select leaves
// nothing selected.
func (e *Engine) Select(s *Session, isbn string) Status {
	err := e.do(s, OpSelect, func(l *storage.Layer) error {
		s.cursor.clear()
		return l.View(func(r storage.Reader) error {
			if _, err := e.catalog.Get(r, isbn); err != nil {
				return err
			}
			s.cursor.set(isbn)
			return nil
		})
	})
	return e.status("select", err)
}

// Modify applies p to the selected book and clears the selection,
// whatever the outcome.
func (e *Engine) Modify(s *Session, p Patch) Status {
	err := e.do(s, OpModify, func(l *storage.Layer) error {
		isbn, ok := s.cursor.Selected()
		if !ok {
			return errNothingSelected
		}
		defer s.cursor.clear()
		return l.Update(func(tx *storage.Tx) error {
			_, err := e.catalog.Modify(tx, isbn, p)
			return err
		})
	})
	return e.status("modify", err)
}

// Search lists books matching every non-empty field of filter, ordered by
// ISBN. No match is an empty slice with Success.
func (e *Engine) Search(s *Session, filter Book) (Status, []Book) {
	var out []Book
	err := e.do(s, OpSearch, func(l *storage.Layer) error {
		return l.View(func(r storage.Reader) error {
			var err error
			out, err = e.catalog.Search(r, filter)
			return err
		})
	})
	if st := e.status("search", err); st != Success {
		return st, nil
	}
	return Success, out
}

// AddBook inserts a new book.
func (e *Engine) AddBook(s *Session, b Book) Status {
	err := e.do(s, OpAddBook, func(l *storage.Layer) error {
		return l.Update(func(tx *storage.Tx) error {
			_, err := e.catalog.Add(tx, b)
			return err
		})
	})
	return e.status("add book", err)
}

// Import restocks the selected book with qty copies bought for cost in
// total. The selection is kept.
func (e *Engine) Import(s *Session, qty, cost int64) Status {
	err := e.do(s, OpImport, func(l *storage.Layer) error {
		isbn, ok := s.cursor.Selected()
		if !ok {
			return errNothingSelected
		}
		if qty <= 0 || cost < 0 {
			return fmt.Errorf("%w: import needs a positive quantity and a non-negative cost", errInvalidArgument)
		}
		return l.Update(func(tx *storage.Tx) error {
			if _, err := e.catalog.IncrementStock(tx, isbn, qty); err != nil {
				return err
			}
			_, err := e.ledger.RecordExpenditure(tx, cost)
			return err
		})
	})
	return e.status("import", err)
}

// AddUser creates an account with a privilege strictly below the caller's.
func (e *Engine) AddUser(s *Session, username, password, name string, p auth.Privilege) Status {
	err := e.do(s, OpAddUser, func(l *storage.Layer) error {
		if p >= s.privilege {
			return fmt.Errorf("%w: cannot grant %s", errPermission, p)
		}
		return l.Update(func(tx *storage.Tx) error {
			_, err := e.auth.Add(tx, auth.User{Username: username, Name: name, Privilege: p}, password)
			return err
		})
	})
	return e.status("add user", err)
}

// Register creates a customer account. No session is needed.
func (e *Engine) Register(username, password, name string) Status {
	err := e.open(func(l *storage.Layer) error {
		return l.Update(func(tx *storage.Tx) error {
			_, err := e.auth.Add(tx, auth.User{Username: username, Name: name, Privilege: auth.ReadOnly}, password)
			return err
		})
	})
	return e.status("register", err)
}

// ChangePassword sets a new password for username. Without the old
// password only an admin may do it.
func (e *Engine) ChangePassword(s *Session, username, newPassword, oldPassword string) Status {
	err := e.do(s, OpChangePassword, func(l *storage.Layer) error {
		if oldPassword == "" && s.privilege < auth.Admin {
			return fmt.Errorf("%w: old password required", errPermission)
		}
		return l.Update(func(tx *storage.Tx) error {
			if oldPassword == "" {
				return e.auth.SetPassword(tx, username, newPassword)
			}
			return e.auth.ChangePassword(tx, username, oldPassword, newPassword)
		})
	})
	return e.status("change password", err)
}

// DeleteUser removes an account that has no live session. Sessions are
// opened under the store's read lock, so the count checked here cannot
// change before the delete commits.
func (e *Engine) DeleteUser(s *Session, username string) Status {
	err := e.do(s, OpDeleteUser, func(l *storage.Layer) error {
		return l.Update(func(tx *storage.Tx) error {
			e.sessMu.Lock()
			n := e.live[username]
			e.sessMu.Unlock()
			if n > 0 {
				return fmt.Errorf("%w: %q is logged in", errPermission, username)
			}
			return e.auth.Delete(tx, username)
		})
	})
	return e.status("delete user", err)
}

// SetPrivilege moves username to another tier. Callers cannot change
// their own tier.
func (e *Engine) SetPrivilege(s *Session, username string, p auth.Privilege) Status {
	err := e.do(s, OpSetPrivilege, func(l *storage.Layer) error {
		if username == s.username {
			return fmt.Errorf("%w: cannot change own privilege", errPermission)
		}
		return l.Update(func(tx *storage.Tx) error {
			_, err := e.auth.SetPrivilege(tx, username, p)
			return err
		})
	})
	return e.status("set privilege", err)
}

// VerifyLedger re-walks the ledger chain. A broken chain is a StorageFault.
func (e *Engine) VerifyLedger(s *Session) Status {
	err := e.do(s, OpVerify, func(l *storage.Layer) error {
		return l.View(e.ledger.Verify)
	})
	return e.status("verify ledger", err)
}

// Stats summarizes the store.
type Stats struct {
	Books   int
	Users   int
	Entries uint64
	Finance FinanceRecord
}

// Stats counts books, users, and ledger entries.
func (e *Engine) Stats(s *Session) (Status, Stats) {
	var st Stats
	err := e.do(s, OpStats, func(l *storage.Layer) error {
		return l.View(func(r storage.Reader) error {
			var err error
			if st.Books, err = e.catalog.Count(r); err != nil {
				return err
			}
			users, err := e.auth.List(r)
			if err != nil {
				return err
			}
			st.Users = len(users)
			st.Entries = e.ledger.Len()
			st.Finance = e.ledger.Aggregate()
			return nil
		})
	})
	if code := e.status("stats", err); code != Success {
		return code, Stats{}
	}
	return Success, st
}
