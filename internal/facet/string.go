package facet

import (
	"context"
	"fmt"

	"github.com/hupe1980/facetidx/internal/bitmap"
	"github.com/hupe1980/facetidx/internal/codec"
	"github.com/hupe1980/facetidx/internal/conv"
	"github.com/hupe1980/facetidx/internal/kv"
	"github.com/hupe1980/facetidx/internal/sorter"
)

// StringBound locates a string facet value: its position in level 0 and
// its normalized text.
type StringBound struct {
	Ordinal uint32
	Text    string
}

// ComputeStringLevels stages every string level of fid above 0.
func ComputeStringLevels(ctx context.Context, txn *kv.Txn, db kv.Database, fid codec.FieldID, cfg Config) (*Result, error) {
	return computeField(ctx, txn, db, fid, cfg, stringCodec(fid))
}

func stringCodec(fid codec.FieldID) levelCodec[StringBound] {
	return levelCodec[StringBound]{
		bound: func(i int, key []byte) (StringBound, error) {
			ordinal, err := conv.IntToUint32(i)
			if err != nil {
				return StringBound{}, fmt.Errorf("ordinal: %w", err)
			}
			_, text, err := codec.DecodeStringLevel0Key(key)
			if err != nil {
				return StringBound{}, err
			}
			return StringBound{Ordinal: ordinal, Text: text}, nil
		},
		bitmap: func(value []byte) (*bitmap.Bitmap, error) {
			cbo, err := codec.StringLevel0Bitmap(value)
			if err != nil {
				return nil, err
			}
			return bitmap.DecodeCbo(cbo)
		},
		write: func(w *sorter.Writer, level uint8, left, right StringBound, docids *bitmap.Bitmap) error {
			return writeStringEntry(w, fid, level, left, right, docids)
		},
	}
}

func writeStringEntry(w *sorter.Writer, fid codec.FieldID, level uint8, left, right StringBound, docids *bitmap.Bitmap) error {
	key, err := codec.EncodeStringLevelKey(codec.StringLevelKey{
		FieldID: fid,
		Level:   level,
		Left:    left.Ordinal,
		Right:   right.Ordinal,
	})
	if err != nil {
		return err
	}
	value, err := codec.EncodeStringBoundsValue(level, left.Text, right.Text, docids)
	if err != nil {
		return err
	}
	return w.Insert(key, value)
}
