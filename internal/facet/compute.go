package facet

import (
	"context"
	"fmt"

	"github.com/hupe1980/facetidx/internal/bitmap"
	"github.com/hupe1980/facetidx/internal/codec"
	"github.com/hupe1980/facetidx/internal/kv"
	"github.com/hupe1980/facetidx/internal/sorter"
)

// Config tunes level computation.
type Config struct {
	// LevelGroupSize is clamped to at least 2.
	LevelGroupSize int
	MinLevelSize   int
	Sorter         sorter.Options
}

// DefaultConfig returns the default tuning.
func DefaultConfig() Config {
	return Config{
		LevelGroupSize: DefaultLevelGroupSize,
		MinLevelSize:   DefaultMinLevelSize,
		Sorter:         sorter.DefaultOptions(),
	}
}

// Validate reports invalid settings.
func (c Config) Validate() error {
	if c.LevelGroupSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLevelGroupSize, c.LevelGroupSize)
	}
	if c.MinLevelSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMinLevelSize, c.MinLevelSize)
	}
	return nil
}

// Result is the outcome of computing one field's levels.
type Result struct {
	// Levels holds one stream per level, level 1 first.
	Levels []*sorter.Reader
	// DocumentIDs is the union of every level 0 bitmap of the field.
	DocumentIDs *bitmap.Bitmap
	TopLevel    uint8
	Level0Size  int
}

// Close releases the staged streams.
func (r *Result) Close() error {
	if r == nil {
		return nil
	}
	err := closeReaders(r.Levels)
	r.Levels = nil
	return err
}

// computeField counts the field's level 0, plans its top level and builds
// the levels. Without a qualifying level the documents are the direct
// union of level 0.
func computeField[B any](ctx context.Context, txn *kv.Txn, db kv.Database, fid codec.FieldID, cfg Config, c levelCodec[B]) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	prefix := codec.LevelPrefix(fid, 0)

	level0Size, err := txn.Count(db, prefix)
	if err != nil {
		return nil, fmt.Errorf("count level 0: %w", err)
	}
	groupSize := ClampLevelGroupSize(cfg.LevelGroupSize)
	res := &Result{
		DocumentIDs: bitmap.New(),
		TopLevel:    TopLevel(level0Size, groupSize, cfg.MinLevelSize),
		Level0Size:  level0Size,
	}

	cursor, err := txn.Prefix(db, prefix)
	if err != nil {
		return nil, fmt.Errorf("read level 0: %w", err)
	}
	defer func() { _ = cursor.Close() }()

	b := &builder[B]{
		codec:      c,
		level0:     cursor,
		level0Size: level0Size,
		groupSize:  groupSize,
		sorter:     cfg.Sorter,
	}
	collect := func(bitmaps []*bitmap.Bitmap, _, _ B) error {
		for _, docids := range bitmaps {
			res.DocumentIDs.Or(docids)
		}
		return nil
	}

	if res.TopLevel == 0 {
		if err := b.scanLevel0(ctx, collect); err != nil {
			return nil, err
		}
		return res, nil
	}

	levels, err := computeLevels(ctx, b, res.TopLevel, collect)
	if err != nil {
		return nil, err
	}
	res.Levels = levels
	return res, nil
}
