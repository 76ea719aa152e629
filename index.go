package facetidx

import (
	"fmt"
	"math"
	"time"

	"github.com/hupe1980/facetidx/internal/bitmap"
	"github.com/hupe1980/facetidx/internal/codec"
	"github.com/hupe1980/facetidx/internal/facet"
	"github.com/hupe1980/facetidx/internal/kv"
)

// Database names of an Index.
const (
	MainDB                = "main"
	FacetIDF64DocIDsDB    = "facet-id-f64-docids"
	FacetIDStringDocIDsDB = "facet-id-string-docids"
)

// FieldID identifies a faceted attribute.
type FieldID = codec.FieldID

// Bitmap is a set of document ids.
type Bitmap = bitmap.Bitmap

// NumberEntry is a decoded numeric level entry.
type NumberEntry = facet.NumberEntry

// StringEntry is a decoded string level entry.
type StringEntry = facet.StringEntry

// Index holds the facet databases: level 0 and the computed levels of
// numbers and strings, and the main database with per-field metadata.
type Index struct {
	store   *kv.Store
	main    kv.Database
	numbers kv.Database
	strings kv.Database
}

// NewIndex creates an empty in-memory index. Close releases it.
func NewIndex() (*Index, error) {
	store, err := kv.Open()
	if err != nil {
		return nil, err
	}
	idx, err := newIndex(store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return idx, nil
}

func newIndex(store *kv.Store) (*Index, error) {
	idx := &Index{store: store}
	for _, db := range []struct {
		name string
		dst  *kv.Database
	}{
		{MainDB, &idx.main},
		{FacetIDF64DocIDsDB, &idx.numbers},
		{FacetIDStringDocIDsDB, &idx.strings},
	} {
		d, err := store.CreateDatabase(db.name)
		if err != nil {
			return nil, err
		}
		*db.dst = d
	}
	return idx, nil
}

// Close releases the index. Transactions must be finished first.
func (i *Index) Close() error {
	return i.store.Close()
}

// Txn is a transaction over an Index.
type Txn struct {
	kv *kv.Txn
}

// Begin starts a transaction. Only one write transaction is open at a time.
func (i *Index) Begin(write bool) (*Txn, error) {
	t, err := i.store.Begin(write)
	if err != nil {
		return nil, err
	}
	return &Txn{kv: t}, nil
}

// Commit publishes the transaction's writes.
func (t *Txn) Commit() error { return t.kv.Commit() }

// Abort discards the transaction. It is safe to call after Commit.
func (t *Txn) Abort() { t.kv.Abort() }

// View runs fn in a read transaction.
func (i *Index) View(fn func(*Txn) error) error {
	return i.store.View(func(t *kv.Txn) error {
		return fn(&Txn{kv: t})
	})
}

// Update runs fn in a write transaction, committing when fn returns nil.
func (i *Index) Update(fn func(*Txn) error) error {
	return i.store.Update(func(t *kv.Txn) error {
		return fn(&Txn{kv: t})
	})
}

// FacetedFieldIDs returns the faceted fields in ascending order.
func (i *Index) FacetedFieldIDs(txn *Txn) ([]FieldID, error) {
	data, ok, err := txn.kv.Get(i.main, []byte(codec.FacetedFieldsKey))
	if err != nil || !ok {
		return nil, err
	}
	return codec.DecodeFieldIDs(data)
}

// SetFacetedFields replaces the set of faceted fields.
func (i *Index) SetFacetedFields(txn *Txn, fids []FieldID) error {
	return txn.kv.Put(i.main, []byte(codec.FacetedFieldsKey), codec.EncodeFieldIDs(fids))
}

// NumberFacetedDocumentsIDs returns the documents having a number for fid.
func (i *Index) NumberFacetedDocumentsIDs(txn *Txn, fid FieldID) (*Bitmap, error) {
	return i.bitmap(txn, codec.NumberFacetedDocumentsIDsKey(fid))
}

// PutNumberFacetedDocumentsIDs stores the documents having a number for fid.
func (i *Index) PutNumberFacetedDocumentsIDs(txn *Txn, fid FieldID, docids *Bitmap) error {
	return i.putBitmap(txn, codec.NumberFacetedDocumentsIDsKey(fid), docids)
}

// StringFacetedDocumentsIDs returns the documents having a string for fid.
func (i *Index) StringFacetedDocumentsIDs(txn *Txn, fid FieldID) (*Bitmap, error) {
	return i.bitmap(txn, codec.StringFacetedDocumentsIDsKey(fid))
}

// PutStringFacetedDocumentsIDs stores the documents having a string for fid.
func (i *Index) PutStringFacetedDocumentsIDs(txn *Txn, fid FieldID, docids *Bitmap) error {
	return i.putBitmap(txn, codec.StringFacetedDocumentsIDsKey(fid), docids)
}

func (i *Index) bitmap(txn *Txn, key []byte) (*Bitmap, error) {
	data, ok, err := txn.kv.Get(i.main, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return bitmap.New(), nil
	}
	return bitmap.DecodeCbo(data)
}

func (i *Index) putBitmap(txn *Txn, key []byte, docids *Bitmap) error {
	value, err := bitmap.EncodeCbo(nil, docids)
	if err != nil {
		return err
	}
	return txn.kv.Put(i.main, key, value)
}

// UpdatedAt returns when the facet levels were last rebuilt.
func (i *Index) UpdatedAt(txn *Txn) (time.Time, bool, error) {
	data, ok, err := txn.kv.Get(i.main, []byte(codec.UpdatedAtKey))
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	t, err := codec.DecodeTime(data)
	return t, err == nil, err
}

// SetUpdatedAt records the rebuild time.
func (i *Index) SetUpdatedAt(txn *Txn, t time.Time) error {
	return txn.kv.Put(i.main, []byte(codec.UpdatedAtKey), codec.EncodeTime(t))
}

// AddNumberFacetValue adds documents to the level 0 entry of value.
func (i *Index) AddNumberFacetValue(txn *Txn, fid FieldID, value float64, docids ...uint32) error {
	if math.IsNaN(value) {
		return fmt.Errorf("field %d: %w", fid, codec.ErrNaN)
	}
	key, err := codec.EncodeNumberKey(codec.NumberKey{FieldID: fid, Left: value, Right: value})
	if err != nil {
		return err
	}

	set := bitmap.Of(docids...)
	old, ok, err := txn.kv.Get(i.numbers, key)
	if err != nil {
		return err
	}
	if ok {
		if err := bitmap.UnionCbo(set, old); err != nil {
			return err
		}
	}
	encoded, err := bitmap.EncodeCbo(nil, set)
	if err != nil {
		return err
	}
	return txn.kv.Put(i.numbers, key, encoded)
}

// AddStringFacetValue adds documents to the level 0 entry of value. Values
// equal after normalization share one entry, which keeps the first
// original text.
func (i *Index) AddStringFacetValue(txn *Txn, fid FieldID, value string, docids ...uint32) error {
	key := codec.EncodeStringLevel0Key(fid, codec.Normalize(value))

	original := value
	set := bitmap.Of(docids...)
	old, ok, err := txn.kv.Get(i.strings, key)
	if err != nil {
		return err
	}
	if ok {
		v, err := codec.DecodeStringLevel0Value(old)
		if err != nil {
			return err
		}
		original = v.Original
		set.Or(v.DocIDs)
	}
	encoded, err := codec.EncodeStringLevel0Value(original, set)
	if err != nil {
		return err
	}
	return txn.kv.Put(i.strings, key, encoded)
}

// NumberLevel returns the decoded entries of one numeric level of fid.
func (i *Index) NumberLevel(txn *Txn, fid FieldID, level uint8) ([]NumberEntry, error) {
	return facet.NumberEntries(txn.kv, i.numbers, fid, level)
}

// StringLevel returns the decoded entries of one string level of fid.
func (i *Index) StringLevel(txn *Txn, fid FieldID, level uint8) ([]StringEntry, error) {
	return facet.StringEntries(txn.kv, i.strings, fid, level)
}

// LevelCount returns the number of levels stored for fid, level 0 included.
func (i *Index) LevelCount(txn *Txn, fid FieldID) (numbers, strings int, err error) {
	if numbers, err = i.levelCount(txn, i.numbers, fid); err != nil {
		return 0, 0, err
	}
	if strings, err = i.levelCount(txn, i.strings, fid); err != nil {
		return 0, 0, err
	}
	return numbers, strings, nil
}

func (i *Index) levelCount(txn *Txn, db kv.Database, fid FieldID) (int, error) {
	n := 0
	for level := 0; level <= math.MaxUint8; level++ {
		count, err := txn.kv.Count(db, codec.LevelPrefix(fid, uint8(level)))
		if err != nil {
			return 0, err
		}
		if count == 0 {
			break
		}
		n++
	}
	return n, nil
}
