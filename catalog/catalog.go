// Package catalog owns the book table and its secondary indexes.
//
// Books are keyed by ISBN, so a full scan already comes back in ISBN
// order. Title, author, and keyword lookups go through index tables whose
// keys are value + 0x00 + ISBN; a prefix scan over one value therefore
// also yields ISBN order. Every write happens inside a storage.Tx so a
// record and its index entries commit together.
package catalog

import (
	"errors"
	"fmt"
	"math"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/beyondbrewing/bookstore/pkg/logger"
	"github.com/beyondbrewing/bookstore/storage"
)

var (
	ErrNotFound          = errors.New("catalog: book not found")
	ErrDuplicateISBN     = errors.New("catalog: isbn already exists")
	ErrInsufficientStock = errors.New("catalog: insufficient stock")
	ErrInvalidArgument   = errors.New("catalog: invalid argument")
)

// Catalog is stateless apart from its read cache; it is safe for
// concurrent use as long as writes go through storage.Layer.Update.
type Catalog struct {
	cache  *ristretto.Cache[string, Book]
	logger logger.Logger
}

// New builds a Catalog. A cache capacity of zero disables caching.
func New(opts ...Option) (*Catalog, error) {
	cfg := DefaultConfig()
	for _, o := range opts {
		o(cfg)
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	c := &Catalog{logger: log.With("component", "catalog")}
	if cfg.CacheCapacity > 0 {
		cache, err := ristretto.NewCache(&ristretto.Config[string, Book]{
			NumCounters: cfg.CacheCapacity * 10,
			MaxCost:     cfg.CacheCapacity,
			BufferItems: 64,
		})
		if err != nil {
			return nil, fmt.Errorf("catalog: cache: %w", err)
		}
		c.cache = cache
	}
	return c, nil
}

// Close releases the cache.
func (c *Catalog) Close() {
	if c.cache != nil {
		c.cache.Close()
	}
}

// Purge drops every cached record, e.g. after the store was reset.
func (c *Catalog) Purge() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// cacheable reports whether r reads plain committed state. A Tx may hold
// staged writes the cache must never see.
func (c *Catalog) cacheable(r storage.Reader) bool {
	_, inTx := r.(*storage.Tx)
	return c.cache != nil && !inTx
}

// invalidate drops isbns from the cache once tx commits. Sets from
// earlier reads are buffered, so the hook drains the buffer before Update
// returns.
func (c *Catalog) invalidate(tx *storage.Tx, isbns ...string) {
	if c.cache == nil {
		return
	}
	tx.OnCommit(func() {
		for _, isbn := range isbns {
			c.cache.Del(isbn)
		}
		c.cache.Wait()
	})
}

// Get loads one book by ISBN.
func (c *Catalog) Get(r storage.Reader, isbn string) (Book, error) {
	if err := validISBN(isbn); err != nil {
		return Book{}, err
	}
	useCache := c.cacheable(r)
	if useCache {
		if b, ok := c.cache.Get(isbn); ok {
			return b, nil
		}
	}

	var b Book
	err := storage.GetJSON(r, storage.CFBooks, []byte(isbn), &b)
	if errors.Is(err, storage.ErrNotFound) {
		return Book{}, fmt.Errorf("%w: %q", ErrNotFound, isbn)
	}
	if err != nil {
		return Book{}, err
	}

	if useCache {
		c.cache.Set(isbn, b, 1)
	}
	return b, nil
}

// Exists reports whether isbn is stored.
func (c *Catalog) Exists(r storage.Reader, isbn string) (bool, error) {
	return r.Has(storage.CFBooks, []byte(isbn))
}

// Search returns every book matching all non-empty fields of filter,
// ISBN ascending. An empty filter lists the whole catalog.
func (c *Catalog) Search(r storage.Reader, filter Book) ([]Book, error) {
	if err := validFilter(filter); err != nil {
		return nil, err
	}

	if filter.ISBN != "" {
		b, err := c.Get(r, filter.ISBN)
		if errors.Is(err, ErrNotFound) {
			return []Book{}, nil
		}
		if err != nil {
			return nil, err
		}
		if !matches(b, filter) {
			return []Book{}, nil
		}
		return []Book{b}, nil
	}

	cf, value := pickIndex(filter)
	if cf == "" {
		return c.all(r)
	}

	var isbns []string
	err := r.Scan(cf, indexPrefix(value), func(k, _ []byte) (bool, error) {
		isbns = append(isbns, indexISBN(k))
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]Book, 0, len(isbns))
	for _, isbn := range isbns {
		b, err := c.Get(r, isbn)
		if errors.Is(err, ErrNotFound) {
			c.logger.Warn("dangling index entry", "table", cf, "isbn", isbn)
			continue
		}
		if err != nil {
			return nil, err
		}
		if matches(b, filter) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (c *Catalog) all(r storage.Reader) ([]Book, error) {
	out := []Book{}
	err := r.Scan(storage.CFBooks, nil, func(_, v []byte) (bool, error) {
		var b Book
		if err := storage.Decode(v, &b); err != nil {
			return false, err
		}
		out = append(out, b)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of stored books.
func (c *Catalog) Count(r storage.Reader) (int, error) {
	n := 0
	err := r.Scan(storage.CFBooks, nil, func(_, _ []byte) (bool, error) {
		n++
		return true, nil
	})
	return n, err
}

// Add inserts a new book.
func (c *Catalog) Add(tx *storage.Tx, b Book) (Book, error) {
	b, err := normalize(b)
	if err != nil {
		return Book{}, err
	}
	exists, err := c.Exists(tx, b.ISBN)
	if err != nil {
		return Book{}, err
	}
	if exists {
		return Book{}, fmt.Errorf("%w: %q", ErrDuplicateISBN, b.ISBN)
	}

	if err := c.put(tx, b); err != nil {
		return Book{}, err
	}
	addIndexes(tx, b)
	c.invalidate(tx, b.ISBN)
	return b, nil
}

// Modify applies p to the book stored under isbn and returns the result.
// Changing the ISBN re-keys the record; the new ISBN must be free. Setting
// the ISBN to its current value is not a change.
func (c *Catalog) Modify(tx *storage.Tx, isbn string, p Patch) (Book, error) {
	if p.Empty() {
		return Book{}, fmt.Errorf("%w: nothing to modify", ErrInvalidArgument)
	}
	if p.Price != nil && *p.Price < 0 {
		return Book{}, fmt.Errorf("%w: negative price", ErrInvalidArgument)
	}

	old, err := c.Get(tx, isbn)
	if err != nil {
		return Book{}, err
	}
	updated, err := normalize(p.apply(old))
	if err != nil {
		return Book{}, err
	}

	if updated.ISBN != old.ISBN {
		taken, err := c.Exists(tx, updated.ISBN)
		if err != nil {
			return Book{}, err
		}
		if taken {
			return Book{}, fmt.Errorf("%w: %q", ErrDuplicateISBN, updated.ISBN)
		}
		tx.Delete(storage.CFBooks, []byte(old.ISBN))
	}

	if err := c.put(tx, updated); err != nil {
		return Book{}, err
	}
	removeIndexes(tx, old)
	addIndexes(tx, updated)
	c.invalidate(tx, old.ISBN, updated.ISBN)

	c.logger.Debug("book modified", "isbn", old.ISBN, "new_isbn", updated.ISBN)
	return updated, nil
}

// DecrementStock removes qty copies. On shortfall nothing is staged.
func (c *Catalog) DecrementStock(tx *storage.Tx, isbn string, qty int64) (Book, error) {
	if qty <= 0 {
		return Book{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidArgument)
	}
	b, err := c.Get(tx, isbn)
	if err != nil {
		return Book{}, err
	}
	if b.Quantity < qty {
		return Book{}, fmt.Errorf("%w: %q has %d, want %d", ErrInsufficientStock, isbn, b.Quantity, qty)
	}
	b.Quantity -= qty
	if err := c.put(tx, b); err != nil {
		return Book{}, err
	}
	c.invalidate(tx, isbn)
	return b, nil
}

// IncrementStock adds qty copies.
func (c *Catalog) IncrementStock(tx *storage.Tx, isbn string, qty int64) (Book, error) {
	if qty <= 0 {
		return Book{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidArgument)
	}
	b, err := c.Get(tx, isbn)
	if err != nil {
		return Book{}, err
	}
	if b.Quantity > math.MaxInt64-qty {
		return Book{}, fmt.Errorf("%w: quantity overflow", ErrInvalidArgument)
	}
	b.Quantity += qty
	if err := c.put(tx, b); err != nil {
		return Book{}, err
	}
	c.invalidate(tx, isbn)
	return b, nil
}

func (c *Catalog) put(tx *storage.Tx, b Book) error {
	return tx.PutJSON(storage.CFBooks, []byte(b.ISBN), b)
}
