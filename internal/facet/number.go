package facet

import (
	"context"

	"github.com/hupe1980/facetidx/internal/bitmap"
	"github.com/hupe1980/facetidx/internal/codec"
	"github.com/hupe1980/facetidx/internal/kv"
	"github.com/hupe1980/facetidx/internal/sorter"
)

// ComputeNumberLevels stages every numeric level of fid above 0.
func ComputeNumberLevels(ctx context.Context, txn *kv.Txn, db kv.Database, fid codec.FieldID, cfg Config) (*Result, error) {
	return computeField(ctx, txn, db, fid, cfg, numberCodec(fid))
}

func numberCodec(fid codec.FieldID) levelCodec[float64] {
	return levelCodec[float64]{
		bound: func(_ int, key []byte) (float64, error) {
			k, err := codec.DecodeNumberKey(key)
			if err != nil {
				return 0, err
			}
			return k.Left, nil
		},
		bitmap: bitmap.DecodeCbo,
		write: func(w *sorter.Writer, level uint8, left, right float64, docids *bitmap.Bitmap) error {
			return writeNumberEntry(w, fid, level, left, right, docids)
		},
	}
}

func writeNumberEntry(w *sorter.Writer, fid codec.FieldID, level uint8, left, right float64, docids *bitmap.Bitmap) error {
	key, err := codec.EncodeNumberKey(codec.NumberKey{FieldID: fid, Level: level, Left: left, Right: right})
	if err != nil {
		return err
	}
	value, err := bitmap.EncodeCbo(nil, docids)
	if err != nil {
		return err
	}
	return w.Insert(key, value)
}
