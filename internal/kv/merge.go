package kv

import (
	"bytes"
	"fmt"
)

// Source is a strictly ascending stream of entries, such as a staging
// cursor or another Cursor. Key and Value may be reused after Next.
type Source interface {
	Next() bool
	Key() []byte
	Value() []byte
	Err() error
}

// MergeFunc resolves a key present both in the database and in the merge
// source. values holds the stored value followed by the incoming one. The
// returned value is stored; an error aborts the merge.
type MergeFunc func(key []byte, values [][]byte) ([]byte, error)

// Merge inserts every entry of src into db. Keys already present are
// resolved with fn; a nil fn keeps the incoming value. The entries are
// staged in a separate batch, so the database is left unchanged when
// Merge fails.
func (t *Txn) Merge(db Database, src Source, fn MergeFunc) error {
	t.mu.Lock()
	err := t.check(db, true)
	t.mu.Unlock()
	if err != nil {
		return err
	}

	pending := t.store.db.NewBatch()
	defer func() { _ = pending.Close() }()

	var prev []byte
	for first := true; src.Next(); first = false {
		k, v := src.Key(), src.Value()
		if !first && bytes.Compare(prev, k) >= 0 {
			return fmt.Errorf("%w: key %x after %x", ErrUnsortedSource, k, prev)
		}
		prev = append(prev[:0], k...)

		key := db.key(k)
		if fn != nil {
			t.mu.Lock()
			old, ok, err := t.get(key)
			t.mu.Unlock()
			if err != nil {
				return err
			}
			if ok {
				if v, err = fn(k, [][]byte{old, v}); err != nil {
					return err
				}
			}
		}
		if err := pending.Set(key, v, nil); err != nil {
			return err
		}
	}
	if err := src.Err(); err != nil {
		return err
	}
	if pending.Empty() {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrTxnClosed
	}
	return t.batch.Apply(pending, nil)
}
