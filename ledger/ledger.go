// Package ledger is the append-only record of money coming in and going
// out of the store.
//
// Entries are keyed by a big-endian sequence number starting at 1. Each
// entry stores the running totals after it and a double-SHA256 link to the
// previous entry, so the tail sum of the last n entries is two reads and
// the whole chain can be re-verified. A head record in the meta table
// holds the latest totals; it is written in the same transaction as the
// entry it describes.
package ledger

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/beyondbrewing/bookstore/pkg/logger"
	"github.com/beyondbrewing/bookstore/storage"
)

var (
	ErrInvalidArgument = errors.New("ledger: invalid argument")
	ErrCorrupted       = errors.New("ledger: chain corrupted")
)

// Kind tags an entry as money in or money out.
type Kind string

const (
	Income      Kind = "income"
	Expenditure Kind = "expenditure"
)

// Entry is one ledger line. Amount is in minor currency units; Income and
// Expenditure are the cumulative totals including this entry.
type Entry struct {
	Seq         uint64    `json:"seq"`
	Kind        Kind      `json:"kind"`
	Amount      int64     `json:"amount"`
	Time        time.Time `json:"time"`
	Income      int64     `json:"income"`
	Expenditure int64     `json:"expenditure"`
	Prev        string    `json:"prev"`
	Hash        string    `json:"hash"`
}

// Summary is an aggregate over some run of entries.
type Summary struct {
	Income      int64 `json:"income"`
	Expenditure int64 `json:"expenditure"`
}

// Balance is income minus expenditure.
func (s Summary) Balance() int64 { return s.Income - s.Expenditure }

// head is the persisted tip of the chain.
type head struct {
	Seq         uint64 `json:"seq"`
	Income      int64  `json:"income"`
	Expenditure int64  `json:"expenditure"`
	Hash        string `json:"hash"`
}

func (h head) summary() Summary {
	return Summary{Income: h.Income, Expenditure: h.Expenditure}
}

var headKey = []byte("ledger/head")

// Ledger mirrors the committed head in memory so Aggregate never touches
// the store.
type Ledger struct {
	mu     sync.RWMutex
	tip    head
	now    func() time.Time
	logger logger.Logger
}

// New returns an empty Ledger; call Load to pick up persisted state.
func New(opts ...Option) *Ledger {
	cfg := DefaultConfig()
	for _, o := range opts {
		o(cfg)
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	return &Ledger{
		tip:    head{Hash: genesis.String()},
		now:    cfg.Clock,
		logger: log.With("component", "ledger"),
	}
}

var genesis chainhash.Hash

// Load reads the persisted head. A store without one is an empty ledger.
func (l *Ledger) Load(r storage.Reader) error {
	h, err := readHead(r)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.tip = h
	l.mu.Unlock()
	l.logger.Info("ledger loaded", "entries", h.Seq, "income", h.Income, "expenditure", h.Expenditure)
	return nil
}

func readHead(r storage.Reader) (head, error) {
	var h head
	err := storage.GetJSON(r, storage.CFMeta, headKey, &h)
	if errors.Is(err, storage.ErrNotFound) {
		return head{Hash: genesis.String()}, nil
	}
	return h, err
}

// Aggregate returns the totals over every committed entry.
func (l *Ledger) Aggregate() Summary {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tip.summary()
}

// Len is the number of committed entries.
func (l *Ledger) Len() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tip.Seq
}

// RecordIncome appends an income entry to tx.
func (l *Ledger) RecordIncome(tx *storage.Tx, amount int64) (Entry, error) {
	return l.append(tx, Income, amount)
}

// RecordExpenditure appends an expenditure entry to tx.
func (l *Ledger) RecordExpenditure(tx *storage.Tx, amount int64) (Entry, error) {
	return l.append(tx, Expenditure, amount)
}

func (l *Ledger) append(tx *storage.Tx, kind Kind, amount int64) (Entry, error) {
	if amount < 0 {
		return Entry{}, fmt.Errorf("%w: negative amount %d", ErrInvalidArgument, amount)
	}

	// Read through tx so several appends in one transaction chain up.
	h, err := readHead(tx)
	if err != nil {
		return Entry{}, err
	}

	e := Entry{
		Seq:         h.Seq + 1,
		Kind:        kind,
		Amount:      amount,
		Time:        l.now().UTC(),
		Income:      h.Income,
		Expenditure: h.Expenditure,
		Prev:        h.Hash,
	}
	switch kind {
	case Income:
		if e.Income > math.MaxInt64-amount {
			return Entry{}, fmt.Errorf("%w: income total overflows", ErrInvalidArgument)
		}
		e.Income += amount
	case Expenditure:
		if e.Expenditure > math.MaxInt64-amount {
			return Entry{}, fmt.Errorf("%w: expenditure total overflows", ErrInvalidArgument)
		}
		e.Expenditure += amount
	}

	hash, err := entryHash(e)
	if err != nil {
		return Entry{}, err
	}
	e.Hash = hash.String()

	next := head{Seq: e.Seq, Income: e.Income, Expenditure: e.Expenditure, Hash: e.Hash}
	if err := tx.PutJSON(storage.CFLedger, seqKey(e.Seq), e); err != nil {
		return Entry{}, err
	}
	if err := tx.PutJSON(storage.CFMeta, headKey, next); err != nil {
		return Entry{}, err
	}
	tx.OnCommit(func() {
		l.mu.Lock()
		// Hooks of one tx run in order, so the last append wins.
		if next.Seq > l.tip.Seq {
			l.tip = next
		}
		l.mu.Unlock()
	})
	return e, nil
}

// Reset forgets the in-memory head. Used after the store was wiped.
func (l *Ledger) Reset() {
	l.mu.Lock()
	l.tip = head{Hash: genesis.String()}
	l.mu.Unlock()
}

// Last sums the most recent count entries. Zero yields an empty summary;
// asking for more entries than exist is an error.
func (l *Ledger) Last(r storage.Reader, count int) (Summary, error) {
	if count < 0 {
		return Summary{}, fmt.Errorf("%w: negative count", ErrInvalidArgument)
	}
	h, err := readHead(r)
	if err != nil {
		return Summary{}, err
	}
	if uint64(count) > h.Seq {
		return Summary{}, fmt.Errorf("%w: %d entries requested, %d recorded", ErrInvalidArgument, count, h.Seq)
	}
	if count == 0 {
		return Summary{}, nil
	}

	base := h.Seq - uint64(count)
	if base == 0 {
		return h.summary(), nil
	}
	var before Entry
	if err := storage.GetJSON(r, storage.CFLedger, seqKey(base), &before); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Summary{}, fmt.Errorf("%w: entry %d missing", ErrCorrupted, base)
		}
		return Summary{}, err
	}
	return Summary{
		Income:      h.Income - before.Income,
		Expenditure: h.Expenditure - before.Expenditure,
	}, nil
}

// Entries returns up to limit entries starting at sequence number from.
// A non-positive limit returns everything from there on.
func (l *Ledger) Entries(r storage.Reader, from uint64, limit int) ([]Entry, error) {
	out := []Entry{}
	it := func(_, v []byte) (bool, error) {
		var e Entry
		if err := storage.Decode(v, &e); err != nil {
			return false, err
		}
		out = append(out, e)
		return limit <= 0 || len(out) < limit, nil
	}
	if err := r.ScanFrom(storage.CFLedger, seqKey(from), it); err != nil {
		return nil, err
	}
	return out, nil
}

// Verify walks the chain from the first entry, recomputing every hash and
// running total, and checks the result against the head.
func (l *Ledger) Verify(r storage.Reader) error {
	var (
		prev  = head{Hash: genesis.String()}
		count uint64
	)
	err := r.Scan(storage.CFLedger, nil, func(k, v []byte) (bool, error) {
		if len(k) != 8 {
			return false, fmt.Errorf("%w: malformed key %x", ErrCorrupted, k)
		}
		var e Entry
		if err := storage.Decode(v, &e); err != nil {
			return false, err
		}
		count++
		if e.Seq != count || binary.BigEndian.Uint64(k) != e.Seq {
			return false, fmt.Errorf("%w: expected seq %d, found %d", ErrCorrupted, count, e.Seq)
		}
		if e.Prev != prev.Hash {
			return false, fmt.Errorf("%w: entry %d does not link to its predecessor", ErrCorrupted, e.Seq)
		}
		want := prev
		switch e.Kind {
		case Income:
			want.Income += e.Amount
		case Expenditure:
			want.Expenditure += e.Amount
		default:
			return false, fmt.Errorf("%w: entry %d has kind %q", ErrCorrupted, e.Seq, e.Kind)
		}
		if e.Amount < 0 || e.Income != want.Income || e.Expenditure != want.Expenditure {
			return false, fmt.Errorf("%w: entry %d totals do not add up", ErrCorrupted, e.Seq)
		}
		hash, err := entryHash(e)
		if err != nil {
			return false, err
		}
		if hash.String() != e.Hash {
			return false, fmt.Errorf("%w: entry %d hash mismatch", ErrCorrupted, e.Seq)
		}
		prev = head{Seq: e.Seq, Income: e.Income, Expenditure: e.Expenditure, Hash: e.Hash}
		return true, nil
	})
	if err != nil {
		return err
	}

	h, err := readHead(r)
	if err != nil {
		return err
	}
	if h != prev {
		return fmt.Errorf("%w: head %d/%s does not match chain tip %d/%s", ErrCorrupted, h.Seq, h.Hash, prev.Seq, prev.Hash)
	}
	return nil
}

// entryHash covers every field except Hash itself.
func entryHash(e Entry) (chainhash.Hash, error) {
	prev, err := chainhash.NewHashFromStr(e.Prev)
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("%w: bad prev hash: %v", ErrCorrupted, err)
	}

	buf := make([]byte, 0, chainhash.HashSize+8*5+len(e.Kind))
	buf = append(buf, prev[:]...)
	buf = binary.BigEndian.AppendUint64(buf, e.Seq)
	buf = append(buf, string(e.Kind)...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(e.Amount))
	buf = binary.BigEndian.AppendUint64(buf, uint64(e.Time.UnixNano()))
	buf = binary.BigEndian.AppendUint64(buf, uint64(e.Income))
	buf = binary.BigEndian.AppendUint64(buf, uint64(e.Expenditure))
	return chainhash.DoubleHashH(buf), nil
}

func seqKey(seq uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, seq)
}
