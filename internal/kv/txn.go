package kv

import (
	"bytes"
	"errors"
	"io"
	"sync"

	"github.com/cockroachdb/pebble"
)

// reader is what a pebble batch and snapshot have in common.
type reader interface {
	Get(key []byte) ([]byte, io.Closer, error)
	NewIter(o *pebble.IterOptions) (*pebble.Iterator, error)
	Close() error
}

// Txn is a transaction over a Store.
type Txn struct {
	store *Store
	batch *pebble.Batch
	snap  *pebble.Snapshot
	r     reader
	write bool

	// mu serializes calls into the batch or snapshot so that several
	// goroutines can read one transaction.
	mu      sync.Mutex
	cursors []*Cursor
	closed  bool
}

// Writable reports whether the transaction can write.
func (t *Txn) Writable() bool { return t.write }

func (t *Txn) check(db Database, write bool) error {
	if t.closed {
		return ErrTxnClosed
	}
	if write && !t.write {
		return ErrReadOnly
	}
	return t.store.known(db)
}

// get returns a copy of the value stored under the store key k.
func (t *Txn) get(k []byte) ([]byte, bool, error) {
	v, closer, err := t.r.Get(k)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	out := bytes.Clone(v)
	if out == nil {
		out = []byte{}
	}
	return out, true, closer.Close()
}

// Get returns the value stored under key.
func (t *Txn) Get(db Database, key []byte) ([]byte, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.check(db, false); err != nil {
		return nil, false, err
	}
	return t.get(db.key(key))
}

// Put stores key and value, replacing any previous value.
func (t *Txn) Put(db Database, key, value []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.check(db, true); err != nil {
		return err
	}
	return t.batch.Set(db.key(key), value, nil)
}

// Delete removes key and reports whether it existed.
func (t *Txn) Delete(db Database, key []byte) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.check(db, true); err != nil {
		return false, err
	}
	k := db.key(key)
	_, ok, err := t.get(k)
	if err != nil || !ok {
		return false, err
	}
	return true, t.batch.Delete(k, nil)
}

// DeleteRange removes every key k with start <= k <= end and returns how
// many were removed. An empty range is not an error.
func (t *Txn) DeleteRange(db Database, start, end []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.check(db, true); err != nil {
		return 0, err
	}
	if bytes.Compare(start, end) > 0 {
		return 0, nil
	}

	lower := db.key(start)
	upper := append(db.key(end), 0)
	n, err := t.count(lower, upper)
	if err != nil || n == 0 {
		return 0, err
	}
	if err := t.batch.DeleteRange(lower, upper, nil); err != nil {
		return 0, err
	}
	return n, nil
}

func (t *Txn) count(lower, upper []byte) (int, error) {
	it, err := t.r.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return 0, err
	}
	n := 0
	for valid := it.First(); valid; valid = it.Next() {
		n++
	}
	return n, errors.Join(it.Error(), it.Close())
}

func (t *Txn) cursor(lower, upper []byte) (*Cursor, error) {
	it, err := t.r.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, err
	}
	c := &Cursor{it: it}
	t.cursors = append(t.cursors, c)
	return c, nil
}

// Seek returns a cursor positioned before the first key >= start. A nil
// start iterates the whole database.
func (t *Txn) Seek(db Database, start []byte) (*Cursor, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.check(db, false); err != nil {
		return nil, err
	}
	_, upper := db.bounds(nil)
	return t.cursor(db.key(start), upper)
}

// Prefix returns a cursor over the keys starting with prefix.
func (t *Txn) Prefix(db Database, prefix []byte) (*Cursor, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.check(db, false); err != nil {
		return nil, err
	}
	return t.cursor(db.bounds(prefix))
}

// Count returns the number of keys starting with prefix.
func (t *Txn) Count(db Database, prefix []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.check(db, false); err != nil {
		return 0, err
	}
	return t.count(db.bounds(prefix))
}

// Len returns the number of keys in db.
func (t *Txn) Len(db Database) (int, error) {
	return t.Count(db, nil)
}

// Commit applies the transaction's writes. Committing a read transaction
// only closes it.
func (t *Txn) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrTxnClosed
	}
	var err error
	if t.write {
		err = t.closeCursors()
		if err == nil {
			err = t.batch.Commit(pebble.Sync)
		}
	}
	return errors.Join(err, t.release())
}

// Abort discards the transaction. It is safe to call after Commit.
func (t *Txn) Abort() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	_ = t.release()
}

func (t *Txn) closeCursors() error {
	var errs []error
	for _, c := range t.cursors {
		errs = append(errs, c.Close())
	}
	t.cursors = nil
	return errors.Join(errs...)
}

// release closes the cursors and the batch or snapshot and hands the
// writer lock back.
func (t *Txn) release() error {
	t.closed = true
	err := errors.Join(t.closeCursors(), t.r.Close())
	if t.write {
		t.store.writer.Unlock()
	}
	return err
}
