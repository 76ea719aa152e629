// Package facetidx maintains the facet level hierarchy of a search index.
//
// Every faceted field stores one level 0 entry per distinct value: numbers
// keyed by their order-preserving encoding, strings by their normalized
// text. Range and prefix queries over level 0 alone touch every value, so
// facetidx groups consecutive entries into coarser levels. An entry of
// level L covers LevelGroupSize entries of level L-1 and stores the union
// of their document ids. Levels are built while they keep at least
// MinLevelSize entries.
//
// # Quick Start
//
//	idx, err := facetidx.NewIndex()
//	if err != nil {
//	    return err
//	}
//	defer idx.Close()
//	err = idx.Update(func(txn *facetidx.Txn) error {
//	    if err := idx.SetFacetedFields(txn, []facetidx.FieldID{1}); err != nil {
//	        return err
//	    }
//	    return idx.AddNumberFacetValue(txn, 1, 9.99, 42)
//	})
//	err = idx.RecomputeFacetLevels(ctx,
//	    facetidx.WithLevelGroupSize(4),
//	    facetidx.WithMinLevelSize(5),
//	    facetidx.WithParallelism(runtime.GOMAXPROCS(0)),
//	)
//
// # Rebuilds
//
// Facets.Execute runs inside a caller-owned write transaction:
//
//	f, _ := facetidx.NewFacets(idx, facetidx.WithCompression(facetidx.CompressionZstd))
//	txn, _ := idx.Begin(true)
//	defer txn.Abort()
//	if err := f.Execute(ctx, txn); err != nil {
//	    return err
//	}
//	return txn.Commit()
//
// A rebuild clears every level above 0, computes each field's levels into
// staged sorted runs on disk and merges them back in field order. A
// failed rebuild leaves the committed index untouched once the
// transaction is aborted.
//
// # Snapshots
//
// Save writes the committed state to a blobstore.BlobStore as
// INDEX-<version>.bin and points CURRENT at it; LoadIndex reads it back:
//
//	name, err := idx.Save(ctx, blobstore.NewLocalStore("./data"))
//	idx, err := facetidx.LoadIndex(ctx, blobstore.NewLocalStore("./data"))
//
// The blobstore/s3 and blobstore/minio packages store snapshots remotely.
//
// # Observability
//
// WithLogger attaches a slog-based Logger and WithMetricsCollector a
// MetricsCollector; both default to no-ops.
package facetidx
