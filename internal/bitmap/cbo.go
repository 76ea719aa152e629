package bitmap

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// CboThreshold is the largest cardinality encoded as a raw id list.
const CboThreshold = 7

// ErrInvalidCbo is returned when a raw id payload is not a multiple of four bytes.
var ErrInvalidCbo = errors.New("bitmap: invalid cbo payload")

// CboSize returns the encoded size of b.
func CboSize(b *Bitmap) int {
	if c := b.Cardinality(); c <= CboThreshold {
		return int(c) * 4
	}
	return int(b.SerializedSize())
}

// EncodeCbo appends the CBO encoding of b to dst.
func EncodeCbo(dst []byte, b *Bitmap) ([]byte, error) {
	if b.Cardinality() <= CboThreshold {
		for id := range b.Iterator() {
			dst = binary.LittleEndian.AppendUint32(dst, id)
		}
		return dst, nil
	}
	buf := bytes.NewBuffer(dst)
	buf.Grow(int(b.SerializedSize()))
	if _, err := b.WriteTo(buf); err != nil {
		return nil, fmt.Errorf("bitmap: serialize: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeCbo decodes a CBO payload into a new bitmap.
func DecodeCbo(data []byte) (*Bitmap, error) {
	b := New()
	if err := UnionCbo(b, data); err != nil {
		return nil, err
	}
	return b, nil
}

// UnionCbo ors the ids of a CBO payload into dst.
func UnionCbo(dst *Bitmap, data []byte) error {
	if len(data) <= CboThreshold*4 {
		if len(data)%4 != 0 {
			return fmt.Errorf("%w: %d bytes", ErrInvalidCbo, len(data))
		}
		for i := 0; i < len(data); i += 4 {
			dst.rb.Add(binary.LittleEndian.Uint32(data[i:]))
		}
		return nil
	}
	rb := roaring.New()
	if _, err := rb.ReadFrom(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("bitmap: deserialize: %w", err)
	}
	dst.rb.Or(rb)
	return nil
}
