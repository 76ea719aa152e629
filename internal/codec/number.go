package codec

import (
	"encoding/binary"
	"fmt"
	"math"
)

// FieldID identifies a faceted attribute.
type FieldID uint16

// NumberKeySize is the encoded size of a number entry key.
const NumberKeySize = 2 + 1 + 8 + 8

// NumberKey is the logical shape of a number entry key.
type NumberKey struct {
	FieldID FieldID
	Level   uint8
	Left    float64
	Right   float64
}

// EncodeF64 returns the order-preserving big-endian form of f. Both zeros
// encode as +0.
func EncodeF64(f float64) uint64 {
	if f == 0 {
		f = 0
	}
	bits := math.Float64bits(f)
	if bits&(1<<63) != 0 {
		return ^bits
	}
	return bits | 1<<63
}

// DecodeF64 reverses EncodeF64.
func DecodeF64(u uint64) float64 {
	if u&(1<<63) != 0 {
		return math.Float64frombits(u &^ (1 << 63))
	}
	return math.Float64frombits(^u)
}

// AppendNumberKey appends the encoding of k to dst.
func AppendNumberKey(dst []byte, k NumberKey) ([]byte, error) {
	if math.IsNaN(k.Left) || math.IsNaN(k.Right) {
		return nil, ErrNaN
	}
	dst = binary.BigEndian.AppendUint16(dst, uint16(k.FieldID))
	dst = append(dst, k.Level)
	dst = binary.BigEndian.AppendUint64(dst, EncodeF64(k.Left))
	dst = binary.BigEndian.AppendUint64(dst, EncodeF64(k.Right))
	return dst, nil
}

// EncodeNumberKey returns the encoding of k.
func EncodeNumberKey(k NumberKey) ([]byte, error) {
	return AppendNumberKey(make([]byte, 0, NumberKeySize), k)
}

// DecodeNumberKey decodes a number entry key.
func DecodeNumberKey(key []byte) (NumberKey, error) {
	if len(key) < NumberKeySize {
		return NumberKey{}, fmt.Errorf("%w: number key has %d bytes", ErrShortKey, len(key))
	}
	return NumberKey{
		FieldID: FieldID(binary.BigEndian.Uint16(key)),
		Level:   key[2],
		Left:    DecodeF64(binary.BigEndian.Uint64(key[3:])),
		Right:   DecodeF64(binary.BigEndian.Uint64(key[11:])),
	}, nil
}

// NumberLevelsRange returns the inclusive key range holding every level
// above 0 of a field.
func NumberLevelsRange(fid FieldID) (start, end []byte) {
	start, _ = EncodeNumberKey(NumberKey{FieldID: fid, Level: 1, Left: math.Inf(-1), Right: math.Inf(-1)})
	end, _ = EncodeNumberKey(NumberKey{FieldID: fid, Level: math.MaxUint8, Left: math.Inf(1), Right: math.Inf(1)})
	return start, end
}
