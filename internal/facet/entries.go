package facet

import (
	"github.com/hupe1980/facetidx/internal/bitmap"
	"github.com/hupe1980/facetidx/internal/codec"
	"github.com/hupe1980/facetidx/internal/kv"
)

// NumberEntry is a decoded numeric level entry.
type NumberEntry struct {
	Level  uint8
	Left   float64
	Right  float64
	DocIDs *bitmap.Bitmap
}

// StringEntry is a decoded string level entry. At level 0 Left and Right
// are the normalized text, Original the text as indexed, and both ordinals
// are the entry position. Above level 1 the texts are empty.
type StringEntry struct {
	Level        uint8
	LeftOrdinal  uint32
	RightOrdinal uint32
	Left         string
	Right        string
	Original     string
	DocIDs       *bitmap.Bitmap
}

// NumberEntries returns the entries of one numeric level in key order.
func NumberEntries(txn *kv.Txn, db kv.Database, fid codec.FieldID, level uint8) ([]NumberEntry, error) {
	c, err := txn.Prefix(db, codec.LevelPrefix(fid, level))
	if err != nil {
		return nil, err
	}
	defer func() { _ = c.Close() }()
	var out []NumberEntry
	for c.Next() {
		k, err := codec.DecodeNumberKey(c.Key())
		if err != nil {
			return nil, err
		}
		docids, err := bitmap.DecodeCbo(c.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, NumberEntry{Level: k.Level, Left: k.Left, Right: k.Right, DocIDs: docids})
	}
	return out, c.Err()
}

// StringEntries returns the entries of one string level in key order.
func StringEntries(txn *kv.Txn, db kv.Database, fid codec.FieldID, level uint8) ([]StringEntry, error) {
	c, err := txn.Prefix(db, codec.LevelPrefix(fid, level))
	if err != nil {
		return nil, err
	}
	defer func() { _ = c.Close() }()
	var out []StringEntry
	for i := uint32(0); c.Next(); i++ {
		e, err := decodeStringEntry(i, level, c.Key(), c.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, c.Err()
}

func decodeStringEntry(i uint32, level uint8, key, value []byte) (StringEntry, error) {
	if level == 0 {
		_, text, err := codec.DecodeStringLevel0Key(key)
		if err != nil {
			return StringEntry{}, err
		}
		v, err := codec.DecodeStringLevel0Value(value)
		if err != nil {
			return StringEntry{}, err
		}
		return StringEntry{
			LeftOrdinal:  i,
			RightOrdinal: i,
			Left:         text,
			Right:        text,
			Original:     v.Original,
			DocIDs:       v.DocIDs,
		}, nil
	}

	k, err := codec.DecodeStringLevelKey(key)
	if err != nil {
		return StringEntry{}, err
	}
	v, err := codec.DecodeStringBoundsValue(value)
	if err != nil {
		return StringEntry{}, err
	}
	e := StringEntry{
		Level:        k.Level,
		LeftOrdinal:  k.Left,
		RightOrdinal: k.Right,
		DocIDs:       v.DocIDs,
	}
	if v.Bounds != nil {
		e.Left, e.Right = v.Bounds[0], v.Bounds[1]
	}
	return e, nil
}
