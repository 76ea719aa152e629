package facet

import (
	"bytes"
	"fmt"

	"github.com/hupe1980/facetidx/internal/kv"
	"github.com/hupe1980/facetidx/internal/sorter"
)

// WriteInto merges every staged level into db. Levels never overwrite
// stored keys: a key already present is a *MergeConflictError naming
// process.
func WriteInto(txn *kv.Txn, db kv.Database, levels []*sorter.Reader, process string) error {
	conflict := func(key []byte, _ [][]byte) ([]byte, error) {
		return nil, &MergeConflictError{Process: process, Key: bytes.Clone(key)}
	}
	for _, r := range levels {
		if err := txn.Merge(db, r.Cursor(), conflict); err != nil {
			return fmt.Errorf("write %s: %w", process, err)
		}
	}
	return nil
}
