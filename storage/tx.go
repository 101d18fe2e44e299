package storage

import (
	"bytes"
	"errors"
	"sort"

	jsoniter "github.com/json-iterator/go"

	"github.com/beyondbrewing/bookstore/db"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Reader is read access to one consistent state of the store.
type Reader interface {
	// Get returns ErrNotFound for a missing key.
	Get(cf string, key []byte) ([]byte, error)
	Has(cf string, key []byte) (bool, error)

	// Scan visits keys beginning with prefix in ascending order until fn
	// returns false or an error. A nil prefix visits the whole table.
	Scan(cf string, prefix []byte, fn func(key, value []byte) (bool, error)) error

	// ScanFrom visits keys at or after start in ascending order.
	ScanFrom(cf string, start []byte, fn func(key, value []byte) (bool, error)) error

	// ScanReverse visits the whole table in descending key order.
	ScanReverse(cf string, fn func(key, value []byte) (bool, error)) error
}

type storeReader struct {
	store db.Store
}

func (r storeReader) Get(cf string, key []byte) ([]byte, error) {
	v, err := r.store.Get(cf, key)
	if errors.Is(err, db.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fault("get "+cf, err)
	}
	return v, nil
}

func (r storeReader) Has(cf string, key []byte) (bool, error) {
	ok, err := r.store.Has(cf, key)
	if err != nil {
		return false, fault("has "+cf, err)
	}
	return ok, nil
}

func (r storeReader) Scan(cf string, prefix []byte, fn func(key, value []byte) (bool, error)) error {
	return r.scan(cf, prefix, prefix, fn)
}

func (r storeReader) ScanFrom(cf string, start []byte, fn func(key, value []byte) (bool, error)) error {
	return r.scan(cf, start, nil, fn)
}

// scan seeks to start and walks forward while keys carry prefix.
func (r storeReader) scan(cf string, start, prefix []byte, fn func(key, value []byte) (bool, error)) error {
	it, err := r.store.NewIterator(cf)
	if err != nil {
		return fault("scan "+cf, err)
	}
	defer it.Close()

	if start == nil {
		it.SeekToFirst()
	} else {
		it.Seek(start)
	}
	for ; it.Valid(); it.Next() {
		k := it.Key()
		if !bytes.HasPrefix(k, prefix) {
			break
		}
		more, err := fn(k, it.Value())
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}
	return fault("scan "+cf, it.Err())
}

func (r storeReader) ScanReverse(cf string, fn func(key, value []byte) (bool, error)) error {
	it, err := r.store.NewIterator(cf)
	if err != nil {
		return fault("scan "+cf, err)
	}
	defer it.Close()

	for it.SeekToLast(); it.Valid(); it.Prev() {
		more, err := fn(it.Key(), it.Value())
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}
	return fault("scan "+cf, it.Err())
}

type staged struct {
	value   []byte
	deleted bool
}

type op struct {
	cf  string
	key []byte
	staged
}

// Tx stages writes for one Update. Reads through a Tx see its own staged
// writes layered over the committed state.
type Tx struct {
	base    storeReader
	overlay map[string]map[string]staged
	ops     []op
	hooks   []func()
	stamped bool
}

func newTx(store db.Store) *Tx {
	return &Tx{base: storeReader{store: store}, overlay: map[string]map[string]staged{}}
}

func (tx *Tx) Put(cf string, key, value []byte) {
	tx.stage(cf, key, staged{value: append([]byte(nil), value...)})
}

func (tx *Tx) Delete(cf string, key []byte) {
	tx.stage(cf, key, staged{deleted: true})
}

func (tx *Tx) stage(cf string, key []byte, s staged) {
	m := tx.overlay[cf]
	if m == nil {
		m = map[string]staged{}
		tx.overlay[cf] = m
	}
	k := append([]byte(nil), key...)
	m[string(k)] = s
	tx.ops = append(tx.ops, op{cf: cf, key: k, staged: s})
}

// PutJSON encodes v and stages it under key.
func (tx *Tx) PutJSON(cf string, key []byte, v any) error {
	data, err := Encode(v)
	if err != nil {
		return err
	}
	tx.Put(cf, key, data)
	return nil
}

// OnCommit registers fn to run after the transaction is durable. Hooks do
// not run if the transaction is abandoned.
func (tx *Tx) OnCommit(fn func()) {
	tx.hooks = append(tx.hooks, fn)
}

// StampSchema marks the store as bootstrapped in this transaction.
func (tx *Tx) StampSchema() {
	tx.Put(CFMeta, schemaKey, []byte(SchemaVersion))
	tx.stamped = true
}

// Len is the number of staged writes.
func (tx *Tx) Len() int { return len(tx.ops) }

func (tx *Tx) Get(cf string, key []byte) ([]byte, error) {
	if s, ok := tx.overlay[cf][string(key)]; ok {
		if s.deleted {
			return nil, ErrNotFound
		}
		return append([]byte(nil), s.value...), nil
	}
	return tx.base.Get(cf, key)
}

func (tx *Tx) Has(cf string, key []byte) (bool, error) {
	if s, ok := tx.overlay[cf][string(key)]; ok {
		return !s.deleted, nil
	}
	return tx.base.Has(cf, key)
}

func (tx *Tx) Scan(cf string, prefix []byte, fn func(key, value []byte) (bool, error)) error {
	kvs, err := tx.merged(cf, prefix)
	if err != nil {
		return err
	}
	for _, kv := range kvs {
		more, err := fn(kv.key, kv.value)
		if err != nil || !more {
			return err
		}
	}
	return nil
}

func (tx *Tx) ScanFrom(cf string, start []byte, fn func(key, value []byte) (bool, error)) error {
	kvs, err := tx.merged(cf, nil)
	if err != nil {
		return err
	}
	i := sort.Search(len(kvs), func(i int) bool { return bytes.Compare(kvs[i].key, start) >= 0 })
	for _, kv := range kvs[i:] {
		more, err := fn(kv.key, kv.value)
		if err != nil || !more {
			return err
		}
	}
	return nil
}

func (tx *Tx) ScanReverse(cf string, fn func(key, value []byte) (bool, error)) error {
	kvs, err := tx.merged(cf, nil)
	if err != nil {
		return err
	}
	for i := len(kvs) - 1; i >= 0; i-- {
		more, err := fn(kvs[i].key, kvs[i].value)
		if err != nil || !more {
			return err
		}
	}
	return nil
}

type kv struct {
	key, value []byte
}

// merged materializes committed and staged entries of one table.
func (tx *Tx) merged(cf string, prefix []byte) ([]kv, error) {
	m := map[string][]byte{}
	err := tx.base.Scan(cf, prefix, func(k, v []byte) (bool, error) {
		m[string(k)] = v
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	for k, s := range tx.overlay[cf] {
		if !bytes.HasPrefix([]byte(k), prefix) {
			continue
		}
		if s.deleted {
			delete(m, k)
		} else {
			m[k] = s.value
		}
	}

	out := make([]kv, 0, len(m))
	for k, v := range m {
		out = append(out, kv{key: []byte(k), value: v})
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i].key, out[j].key) < 0 })
	return out, nil
}

func (tx *Tx) commit() error {
	if len(tx.ops) == 0 {
		return nil
	}
	b := tx.base.store.NewBatch()
	defer b.Close()

	for _, o := range tx.ops {
		var err error
		if o.deleted {
			err = b.Delete(o.cf, o.key)
		} else {
			err = b.Put(o.cf, o.key, o.value)
		}
		if err != nil {
			return err
		}
	}
	return b.Commit()
}

// Encode serializes a record.
func Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fault("encode", err)
	}
	return data, nil
}

// Decode parses a record. A malformed record is a storage fault.
func Decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fault("decode", err)
	}
	return nil
}

// GetJSON loads and decodes the record under key.
func GetJSON(r Reader, cf string, key []byte, v any) error {
	data, err := r.Get(cf, key)
	if err != nil {
		return err
	}
	return Decode(data, v)
}
