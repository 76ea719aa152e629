package facet

import (
	"fmt"

	"github.com/hupe1980/facetidx/internal/codec"
	"github.com/hupe1980/facetidx/internal/kv"
)

// ClearNumberLevels deletes every numeric level of fid above 0 and returns
// the number of removed entries.
func ClearNumberLevels(txn *kv.Txn, db kv.Database, fid codec.FieldID) (int, error) {
	start, end := codec.NumberLevelsRange(fid)
	n, err := txn.DeleteRange(db, start, end)
	if err != nil {
		return 0, fmt.Errorf("clear number levels of field %d: %w", fid, err)
	}
	return n, nil
}

// ClearStringLevels deletes every string level of fid above 0 and returns
// the number of removed entries.
func ClearStringLevels(txn *kv.Txn, db kv.Database, fid codec.FieldID) (int, error) {
	start, end := codec.StringLevelsRange(fid)
	n, err := txn.DeleteRange(db, start, end)
	if err != nil {
		return 0, fmt.Errorf("clear string levels of field %d: %w", fid, err)
	}
	return n, nil
}
