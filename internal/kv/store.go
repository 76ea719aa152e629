package kv

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

const (
	// catalogID prefixes the catalog entries mapping names to prefixes.
	catalogID byte = 0
	// maxDatabaseID keeps every key below keyspaceEnd.
	maxDatabaseID byte = 0xFE
	keyspaceEnd   byte = 0xFF
)

// Database names a database inside a Store.
type Database struct {
	name string
	id   byte
}

// Name returns the database name.
func (d Database) Name() string { return d.name }

func (d Database) String() string { return d.name }

// key returns the store key of k in d.
func (d Database) key(k []byte) []byte {
	out := make([]byte, 0, len(k)+1)
	out = append(out, d.id)
	return append(out, k...)
}

// bounds returns the store key range of the keys of d starting with prefix.
func (d Database) bounds(prefix []byte) (lower, upper []byte) {
	lower = d.key(prefix)
	for i := len(lower) - 1; i > 0; i-- {
		if lower[i] != 0xFF {
			upper = slices.Clone(lower[:i+1])
			upper[i]++
			return lower, upper
		}
	}
	return lower, []byte{d.id + 1}
}

func catalogKey(name string) []byte {
	return append([]byte{catalogID}, name...)
}

// Store is a pebble-backed sorted key-value store with named databases.
type Store struct {
	db     *pebble.DB
	writer sync.Mutex

	mu      sync.RWMutex
	catalog map[string]byte
}

// Open creates an empty in-memory store holding the named databases.
func Open(names ...string) (*Store, error) {
	db, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	if err != nil {
		return nil, fmt.Errorf("kv: open: %w", err)
	}
	s := &Store{db: db, catalog: make(map[string]byte)}
	for _, n := range names {
		if _, err := s.CreateDatabase(n); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

// Close releases the underlying pebble database. Open transactions must
// be finished first.
func (s *Store) Close() error {
	return s.db.Close()
}

// Database returns a handle for the named database.
func (s *Store) Database(name string) (Database, error) {
	s.mu.RLock()
	id, ok := s.catalog[name]
	s.mu.RUnlock()
	if !ok {
		return Database{}, fmt.Errorf("%w: %q", ErrUnknownDatabase, name)
	}
	return Database{name: name, id: id}, nil
}

// CreateDatabase adds an empty database, returning the existing one if the
// name is taken. It waits for any open write transaction.
func (s *Store) CreateDatabase(name string) (Database, error) {
	s.writer.Lock()
	defer s.writer.Unlock()

	if db, err := s.Database(name); err == nil {
		return db, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := byte(1)
	for _, id := range s.catalog {
		if id >= next {
			next = id + 1
		}
	}
	if len(s.catalog) >= int(maxDatabaseID) || next > maxDatabaseID {
		return Database{}, fmt.Errorf("%w: %q", ErrTooManyDatabases, name)
	}
	if err := s.db.Set(catalogKey(name), []byte{next}, pebble.Sync); err != nil {
		return Database{}, fmt.Errorf("kv: create database %q: %w", name, err)
	}
	s.catalog[name] = next
	return Database{name: name, id: next}, nil
}

// Databases returns the database names in ascending order.
func (s *Store) Databases() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.catalog))
}

func (s *Store) known(db Database) error {
	s.mu.RLock()
	id, ok := s.catalog[db.name]
	s.mu.RUnlock()
	if !ok || id != db.id || db.id == catalogID {
		return fmt.Errorf("%w: %q", ErrUnknownDatabase, db.name)
	}
	return nil
}

// Begin starts a transaction. A write transaction blocks until the
// previous writer commits or aborts.
func (s *Store) Begin(write bool) (*Txn, error) {
	if write {
		s.writer.Lock()
	}
	return s.newTxn(write), nil
}

// TryBegin starts a write transaction or returns ErrWriterBusy.
func (s *Store) TryBegin() (*Txn, error) {
	if !s.writer.TryLock() {
		return nil, ErrWriterBusy
	}
	return s.newTxn(true), nil
}

func (s *Store) newTxn(write bool) *Txn {
	t := &Txn{store: s, write: write}
	if write {
		t.batch = s.db.NewIndexedBatch()
		t.r = t.batch
	} else {
		t.snap = s.db.NewSnapshot()
		t.r = t.snap
	}
	return t
}

// View runs fn in a read transaction.
func (s *Store) View(fn func(*Txn) error) error {
	txn, err := s.Begin(false)
	if err != nil {
		return err
	}
	defer txn.Abort()
	return fn(txn)
}

// Update runs fn in a write transaction, committing when fn returns nil.
func (s *Store) Update(fn func(*Txn) error) error {
	txn, err := s.Begin(true)
	if err != nil {
		return err
	}
	defer txn.Abort()

	if err := fn(txn); err != nil {
		return err
	}
	return txn.Commit()
}
