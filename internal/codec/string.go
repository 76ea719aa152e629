package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/hupe1980/facetidx/internal/bitmap"
)

// StringLevelKeySize is the encoded size of a string key above level 0.
const StringLevelKeySize = 2 + 1 + 4 + 4

// StringLevelKey is the logical shape of a string entry key above level 0.
// Bounds are ordinals: positions in the sorted level 0.
type StringLevelKey struct {
	FieldID FieldID
	Level   uint8
	Left    uint32
	Right   uint32
}

// Normalize returns the level 0 key form of a facet text.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// EncodeStringLevel0Key returns fid | 0 | normalized.
func EncodeStringLevel0Key(fid FieldID, normalized string) []byte {
	key := make([]byte, 0, 3+len(normalized))
	key = append(key, LevelPrefix(fid, 0)...)
	return append(key, normalized...)
}

// DecodeStringLevel0Key decodes a string level 0 key.
func DecodeStringLevel0Key(key []byte) (FieldID, string, error) {
	if len(key) < 3 {
		return 0, "", fmt.Errorf("%w: string key has %d bytes", ErrShortKey, len(key))
	}
	if key[2] != 0 {
		return 0, "", fmt.Errorf("%w: %d in level 0 key", ErrInvalidLevel, key[2])
	}
	return FieldID(binary.BigEndian.Uint16(key)), string(key[3:]), nil
}

// EncodeStringLevelKey returns the encoding of k.
func EncodeStringLevelKey(k StringLevelKey) ([]byte, error) {
	if k.Level == 0 {
		return nil, fmt.Errorf("%w: ordinal keys start at level 1", ErrInvalidLevel)
	}
	key := make([]byte, 0, StringLevelKeySize)
	key = append(key, LevelPrefix(k.FieldID, k.Level)...)
	key = binary.BigEndian.AppendUint32(key, k.Left)
	key = binary.BigEndian.AppendUint32(key, k.Right)
	return key, nil
}

// DecodeStringLevelKey decodes a string key above level 0.
func DecodeStringLevelKey(key []byte) (StringLevelKey, error) {
	if len(key) < StringLevelKeySize {
		return StringLevelKey{}, fmt.Errorf("%w: string level key has %d bytes", ErrShortKey, len(key))
	}
	if key[2] == 0 {
		return StringLevelKey{}, fmt.Errorf("%w: level 0 key has no ordinals", ErrInvalidLevel)
	}
	return StringLevelKey{
		FieldID: FieldID(binary.BigEndian.Uint16(key)),
		Level:   key[2],
		Left:    binary.BigEndian.Uint32(key[3:]),
		Right:   binary.BigEndian.Uint32(key[7:]),
	}, nil
}

// StringLevelsRange returns the inclusive key range holding every level
// above 0 of a field.
func StringLevelsRange(fid FieldID) (start, end []byte) {
	start, _ = EncodeStringLevelKey(StringLevelKey{FieldID: fid, Level: 1})
	end, _ = EncodeStringLevelKey(StringLevelKey{FieldID: fid, Level: math.MaxUint8, Left: math.MaxUint32, Right: math.MaxUint32})
	return start, end
}

// StringLevel0Value is the value of a string level 0 entry.
type StringLevel0Value struct {
	Original string
	DocIDs   *bitmap.Bitmap
}

// EncodeStringLevel0Value returns u16 len | original | cbo.
func EncodeStringLevel0Value(original string, docids *bitmap.Bitmap) ([]byte, error) {
	buf := make([]byte, 0, 2+len(original)+bitmap.CboSize(docids))
	buf, err := appendString(buf, original)
	if err != nil {
		return nil, err
	}
	return bitmap.EncodeCbo(buf, docids)
}

// DecodeStringLevel0Value decodes a string level 0 value.
func DecodeStringLevel0Value(data []byte) (StringLevel0Value, error) {
	original, rest, err := readString(data)
	if err != nil {
		return StringLevel0Value{}, err
	}
	docids, err := bitmap.DecodeCbo(rest)
	if err != nil {
		return StringLevel0Value{}, err
	}
	return StringLevel0Value{Original: original, DocIDs: docids}, nil
}

// StringLevel0Bitmap extracts only the CBO payload of a level 0 value.
func StringLevel0Bitmap(data []byte) ([]byte, error) {
	_, rest, err := readString(data)
	return rest, err
}

// StringBoundsValue is the value of a string entry above level 0.
// Bounds is only set at level 1.
type StringBoundsValue struct {
	Bounds *[2]string
	DocIDs *bitmap.Bitmap
}

// EncodeStringBoundsValue encodes a level L>0 value. Bound texts are
// kept only when level is 1.
func EncodeStringBoundsValue(level uint8, left, right string, docids *bitmap.Bitmap) ([]byte, error) {
	if level == 0 {
		return nil, fmt.Errorf("%w: bounds value at level 0", ErrInvalidLevel)
	}
	if level > 1 {
		buf := make([]byte, 0, 1+bitmap.CboSize(docids))
		return bitmap.EncodeCbo(append(buf, 0), docids)
	}
	buf := make([]byte, 0, 5+len(left)+len(right)+bitmap.CboSize(docids))
	buf = append(buf, 1)
	buf, err := appendString(buf, left)
	if err != nil {
		return nil, err
	}
	if buf, err = appendString(buf, right); err != nil {
		return nil, err
	}
	return bitmap.EncodeCbo(buf, docids)
}

// DecodeStringBoundsValue decodes a level L>0 value.
func DecodeStringBoundsValue(data []byte) (StringBoundsValue, error) {
	if len(data) == 0 {
		return StringBoundsValue{}, fmt.Errorf("%w: missing bounds flag", ErrShortValue)
	}
	var v StringBoundsValue
	rest := data[1:]
	if data[0] == 1 {
		left, r, err := readString(rest)
		if err != nil {
			return StringBoundsValue{}, err
		}
		right, r, err := readString(r)
		if err != nil {
			return StringBoundsValue{}, err
		}
		v.Bounds = &[2]string{left, right}
		rest = r
	}
	docids, err := bitmap.DecodeCbo(rest)
	if err != nil {
		return StringBoundsValue{}, err
	}
	v.DocIDs = docids
	return v, nil
}

func appendString(dst []byte, s string) ([]byte, error) {
	if len(s) > math.MaxUint16 {
		return nil, fmt.Errorf("%w: %d bytes", ErrStringTooLong, len(s))
	}
	dst = binary.BigEndian.AppendUint16(dst, uint16(len(s)))
	return append(dst, s...), nil
}

func readString(data []byte) (string, []byte, error) {
	if len(data) < 2 {
		return "", nil, fmt.Errorf("%w: missing string length", ErrShortValue)
	}
	n := int(binary.BigEndian.Uint16(data))
	if len(data) < 2+n {
		return "", nil, fmt.Errorf("%w: string needs %d bytes, have %d", ErrShortValue, n, len(data)-2)
	}
	return string(data[2 : 2+n]), data[2+n:], nil
}
