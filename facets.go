package facetidx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/facetidx/internal/facet"
	"golang.org/x/sync/errgroup"
)

// Level kinds.
const (
	KindNumber = "number"
	KindString = "string"
)

const (
	numberLevelsProcess = "facet number levels"
	stringLevelsProcess = "facet string levels"
)

// Facets rebuilds the facet levels of every faceted field.
type Facets struct {
	index *Index
	opts  options
}

// NewFacets validates the options and returns a Facets for index.
func NewFacets(index *Index, optFns ...Option) (*Facets, error) {
	opts, err := applyOptions(optFns)
	if err != nil {
		return nil, err
	}
	return &Facets{index: index, opts: opts}, nil
}

// fieldLevels holds the staged levels of one field until they are merged.
type fieldLevels struct {
	fid     FieldID
	strings *facet.Result
	numbers *facet.Result
}

func (f *fieldLevels) close() error {
	return errors.Join(f.strings.Close(), f.numbers.Close())
}

// Execute records the update time, then clears and rebuilds every level
// above 0 of each faceted field and stores the field's document sets. It
// writes through txn and leaves committing to the caller; on error the
// transaction must be aborted.
func (f *Facets) Execute(ctx context.Context, txn *Txn) (err error) {
	start := time.Now()
	var fids []FieldID
	defer func() {
		err = translateError(err)
		f.opts.logger.LogRebuild(ctx, len(fids), time.Since(start), err)
		f.opts.metricsCollector.RecordRebuild(len(fids), time.Since(start), err)
	}()

	if !txn.kv.Writable() {
		return ErrReadOnlyTxn
	}
	if err := f.index.SetUpdatedAt(txn, f.opts.clock()); err != nil {
		return fmt.Errorf("set updated at: %w", err)
	}
	fids, err = f.index.FacetedFieldIDs(txn)
	if err != nil {
		return fmt.Errorf("read faceted fields: %w", err)
	}

	for _, fid := range fids {
		strs, err := facet.ClearStringLevels(txn.kv, f.index.strings, fid)
		if err != nil {
			return &ErrFieldLevels{FieldID: fid, Kind: KindString, cause: err}
		}
		numbers, err := facet.ClearNumberLevels(txn.kv, f.index.numbers, fid)
		if err != nil {
			return &ErrFieldLevels{FieldID: fid, Kind: KindNumber, cause: err}
		}
		f.opts.logger.WithField(fid).LogClearedLevels(ctx, numbers, strs)
	}

	levels, err := f.compute(ctx, txn, fids)
	defer func() {
		for _, l := range levels {
			if cerr := l.close(); cerr != nil && err == nil {
				err = cerr
			}
		}
	}()
	if err != nil {
		return err
	}

	for _, l := range levels {
		if err := f.write(txn, l); err != nil {
			return err
		}
	}
	return nil
}

// compute stages the levels of every field. Fields run concurrently up to
// the configured parallelism; each only reads its own level 0.
func (f *Facets) compute(ctx context.Context, txn *Txn, fids []FieldID) ([]*fieldLevels, error) {
	levels := make([]*fieldLevels, len(fids))
	for i, fid := range fids {
		levels[i] = &fieldLevels{fid: fid}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.parallelism)
	for _, l := range levels {
		g.Go(func() error {
			if err := f.opts.resource.AcquireBackground(gctx); err != nil {
				return err
			}
			defer f.opts.resource.ReleaseBackground()
			return f.computeField(gctx, txn, l)
		})
	}
	return levels, g.Wait()
}

func (f *Facets) computeField(ctx context.Context, txn *Txn, l *fieldLevels) error {
	cfg := f.opts.facetConfig()
	logger := f.opts.logger.WithField(l.fid)

	var err error
	l.strings, err = f.measure(ctx, logger, KindString, func() (*facet.Result, error) {
		return facet.ComputeStringLevels(ctx, txn.kv, f.index.strings, l.fid, cfg)
	})
	if err != nil {
		return &ErrFieldLevels{FieldID: l.fid, Kind: KindString, cause: err}
	}
	l.numbers, err = f.measure(ctx, logger, KindNumber, func() (*facet.Result, error) {
		return facet.ComputeNumberLevels(ctx, txn.kv, f.index.numbers, l.fid, cfg)
	})
	if err != nil {
		return &ErrFieldLevels{FieldID: l.fid, Kind: KindNumber, cause: err}
	}
	return nil
}

func (f *Facets) measure(ctx context.Context, logger *Logger, kind string, fn func() (*facet.Result, error)) (*facet.Result, error) {
	start := time.Now()
	res, err := fn()
	elapsed := time.Since(start)

	var (
		top        uint8
		level0Size int
	)
	if res != nil {
		top, level0Size = res.TopLevel, res.Level0Size
	}
	logger.LogFieldLevels(ctx, kind, top, level0Size, elapsed, err)
	f.opts.metricsCollector.RecordFieldLevels(kind, int(top), level0Size, elapsed, err)
	return res, err
}

// write stores the document sets of one field and merges its levels.
func (f *Facets) write(txn *Txn, l *fieldLevels) error {
	if err := f.index.PutStringFacetedDocumentsIDs(txn, l.fid, l.strings.DocumentIDs); err != nil {
		return &ErrFieldLevels{FieldID: l.fid, Kind: KindString, cause: err}
	}
	if err := facet.WriteInto(txn.kv, f.index.strings, l.strings.Levels, stringLevelsProcess); err != nil {
		return &ErrFieldLevels{FieldID: l.fid, Kind: KindString, cause: translateError(err)}
	}

	if err := f.index.PutNumberFacetedDocumentsIDs(txn, l.fid, l.numbers.DocumentIDs); err != nil {
		return &ErrFieldLevels{FieldID: l.fid, Kind: KindNumber, cause: err}
	}
	if err := facet.WriteInto(txn.kv, f.index.numbers, l.numbers.Levels, numberLevelsProcess); err != nil {
		return &ErrFieldLevels{FieldID: l.fid, Kind: KindNumber, cause: translateError(err)}
	}
	return nil
}

// RecomputeFacetLevels rebuilds every facet level in one write transaction.
// Nothing is committed when it fails.
func (i *Index) RecomputeFacetLevels(ctx context.Context, optFns ...Option) error {
	f, err := NewFacets(i, optFns...)
	if err != nil {
		return err
	}
	txn, err := i.Begin(true)
	if err != nil {
		return err
	}
	defer txn.Abort()

	if err := f.Execute(ctx, txn); err != nil {
		return err
	}
	return txn.Commit()
}
