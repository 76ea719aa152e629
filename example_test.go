package facetidx_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hupe1980/facetidx"
	"github.com/hupe1980/facetidx/blobstore"
)

// Example demonstrates indexing prices and rebuilding their levels.
func Example() {
	ctx := context.Background()
	idx, err := facetidx.NewIndex()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = idx.Close() }()

	const price facetidx.FieldID = 1
	err = idx.Update(func(txn *facetidx.Txn) error {
		if err := idx.SetFacetedFields(txn, []facetidx.FieldID{price}); err != nil {
			return err
		}
		for doc := range uint32(100) {
			if err := idx.AddNumberFacetValue(txn, price, float64(doc), doc); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	if err := idx.RecomputeFacetLevels(ctx, facetidx.WithLevelGroupSize(4), facetidx.WithMinLevelSize(5)); err != nil {
		log.Fatal(err)
	}

	_ = idx.View(func(txn *facetidx.Txn) error {
		for level := uint8(1); level <= 2; level++ {
			entries, _ := idx.NumberLevel(txn, price, level)
			fmt.Printf("level %d: %d entries, first covers [%g, %g]\n", level, len(entries), entries[0].Left, entries[0].Right)
		}
		return nil
	})
	// Output:
	// level 1: 25 entries, first covers [0, 3]
	// level 2: 7 entries, first covers [0, 15]
}

// ExampleFacets_Execute runs a rebuild inside a caller-owned transaction.
func ExampleFacets_Execute() {
	ctx := context.Background()
	idx, err := facetidx.NewIndex()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = idx.Close() }()

	_ = idx.Update(func(txn *facetidx.Txn) error {
		_ = idx.SetFacetedFields(txn, []facetidx.FieldID{1})
		_ = idx.AddStringFacetValue(txn, 1, "Blue", 1)
		_ = idx.AddStringFacetValue(txn, 1, "blue", 2)
		return idx.AddStringFacetValue(txn, 1, "Red", 3)
	})

	metrics := &facetidx.BasicMetricsCollector{}
	f, err := facetidx.NewFacets(idx,
		facetidx.WithMetricsCollector(metrics),
		facetidx.WithClock(func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }),
	)
	if err != nil {
		log.Fatal(err)
	}

	txn, err := idx.Begin(true)
	if err != nil {
		log.Fatal(err)
	}
	defer txn.Abort()
	if err := f.Execute(ctx, txn); err != nil {
		log.Fatal(err)
	}
	if err := txn.Commit(); err != nil {
		log.Fatal(err)
	}

	_ = idx.View(func(txn *facetidx.Txn) error {
		updated, _, _ := idx.UpdatedAt(txn)
		docids, _ := idx.StringFacetedDocumentsIDs(txn, 1)
		fmt.Println(updated.Format(time.DateOnly), docids.ToArray())
		return nil
	})
	fmt.Println("rebuilds:", metrics.GetStats().RebuildCount)
	// Output:
	// 2024-01-01 [1 2 3]
	// rebuilds: 1
}

// ExampleIndex_Save stores a snapshot and loads it back.
func ExampleIndex_Save() {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	idx, err := facetidx.NewIndex()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = idx.Close() }()
	name, err := idx.Save(ctx, store)
	if err != nil {
		log.Fatal(err)
	}
	loaded, err := facetidx.LoadIndex(ctx, store)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = loaded.Close() }()
	fmt.Println(name)
	// Output: INDEX-000001.bin
}
