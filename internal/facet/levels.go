package facet

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/facetidx/internal/bitmap"
	"github.com/hupe1980/facetidx/internal/kv"
	"github.com/hupe1980/facetidx/internal/sorter"
)

// groupFunc receives one group: the bitmaps of its members and the bounds
// of its first and last member.
type groupFunc[B any] func(bitmaps []*bitmap.Bitmap, left, right B) error

// levelCodec adapts the builder to one bound type.
type levelCodec[B any] struct {
	// bound extracts the bound of the i-th level 0 entry.
	bound func(i int, key []byte) (B, error)
	// bitmap decodes the documents of a level 0 value.
	bitmap func(value []byte) (*bitmap.Bitmap, error)
	// write stages one level entry.
	write func(w *sorter.Writer, level uint8, left, right B, docids *bitmap.Bitmap) error
}

// builder carries the state shared by every recursion depth.
type builder[B any] struct {
	codec      levelCodec[B]
	level0     kv.Source
	level0Size int
	groupSize  int
	sorter     sorter.Options
}

// computeLevels stages levels 1..level and returns their streams in
// ascending level order. report receives every group of the given level.
// Level 0 is only read.
func computeLevels[B any](ctx context.Context, b *builder[B], level uint8, report groupFunc[B]) ([]*sorter.Reader, error) {
	if level == 0 {
		return nil, b.scanLevel0(ctx, report)
	}

	w, err := sorter.NewWriter(ctx, b.sorter)
	if err != nil {
		return nil, fmt.Errorf("level %d: %w", level, err)
	}

	var (
		bitmaps []*bitmap.Bitmap
		bounds  [][2]B
	)
	flush := func() error {
		if err := report(bitmaps, bounds[0][0], bounds[len(bounds)-1][1]); err != nil {
			return err
		}
		for i, docids := range bitmaps {
			if err := b.codec.write(w, level, bounds[i][0], bounds[i][1], docids); err != nil {
				return fmt.Errorf("level %d: %w", level, err)
			}
		}
		bitmaps, bounds = bitmaps[:0], bounds[:0]
		return nil
	}

	sub, err := computeLevels(ctx, b, level-1, func(group []*bitmap.Bitmap, left, right B) error {
		bitmaps = append(bitmaps, bitmap.Union(group...))
		bounds = append(bounds, [2]B{left, right})
		if len(bitmaps) == b.groupSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return nil, errors.Join(err, w.Abort())
	}
	if len(bitmaps) > 0 {
		if err := flush(); err != nil {
			return nil, errors.Join(err, w.Abort(), closeReaders(sub))
		}
	}

	r, err := w.IntoReader()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("level %d: %w", level, err), closeReaders(sub))
	}
	return append(sub, r), nil
}

// scanLevel0 reports the first level0Size entries in groups of groupSize.
// The last group may be shorter.
func (b *builder[B]) scanLevel0(ctx context.Context, report groupFunc[B]) error {
	var (
		bitmaps     []*bitmap.Bitmap
		left, right B
	)
	for i := 0; i < b.level0Size; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if !b.level0.Next() {
			if err := b.level0.Err(); err != nil {
				return fmt.Errorf("read level 0: %w", err)
			}
			return fmt.Errorf("read level 0: ended after %d of %d entries", i, b.level0Size)
		}

		bound, err := b.codec.bound(i, b.level0.Key())
		if err != nil {
			return fmt.Errorf("decode level 0 key: %w", err)
		}
		docids, err := b.codec.bitmap(b.level0.Value())
		if err != nil {
			return fmt.Errorf("decode level 0 value: %w", err)
		}

		if len(bitmaps) == 0 {
			left = bound
		}
		right = bound
		bitmaps = append(bitmaps, docids)

		if len(bitmaps) == b.groupSize {
			if err := report(bitmaps, left, right); err != nil {
				return err
			}
			bitmaps = bitmaps[:0]
		}
	}
	if len(bitmaps) > 0 {
		return report(bitmaps, left, right)
	}
	return nil
}

func closeReaders(readers []*sorter.Reader) error {
	var errs []error
	for _, r := range readers {
		errs = append(errs, r.Close())
	}
	return errors.Join(errs...)
}
