package codec

import (
	"encoding/binary"
	"fmt"
	"slices"
	"time"
)

// Keys of the main database.
const (
	FacetedFieldsKey             = "faceted-fields"
	UpdatedAtKey                 = "updated-at"
	numberFacetedDocumentsIDsKey = "number-faceted-documents-ids"
	stringFacetedDocumentsIDsKey = "string-faceted-documents-ids"
)

// NumberFacetedDocumentsIDsKey returns the main key of a field's number document set.
func NumberFacetedDocumentsIDsKey(fid FieldID) []byte {
	return binary.BigEndian.AppendUint16([]byte(numberFacetedDocumentsIDsKey), uint16(fid))
}

// StringFacetedDocumentsIDsKey returns the main key of a field's string document set.
func StringFacetedDocumentsIDsKey(fid FieldID) []byte {
	return binary.BigEndian.AppendUint16([]byte(stringFacetedDocumentsIDsKey), uint16(fid))
}

// EncodeFieldIDs encodes a sorted, deduplicated field id set.
func EncodeFieldIDs(fids []FieldID) []byte {
	sorted := slices.Clone(fids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	buf := make([]byte, 0, 2*len(sorted))
	for _, fid := range sorted {
		buf = binary.BigEndian.AppendUint16(buf, uint16(fid))
	}
	return buf
}

// DecodeFieldIDs decodes a field id set.
func DecodeFieldIDs(data []byte) ([]FieldID, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("%w: field id set has %d bytes", ErrShortValue, len(data))
	}
	fids := make([]FieldID, 0, len(data)/2)
	for i := 0; i < len(data); i += 2 {
		fids = append(fids, FieldID(binary.BigEndian.Uint16(data[i:])))
	}
	return fids, nil
}

// EncodeTime encodes t as big-endian unix nanoseconds.
func EncodeTime(t time.Time) []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(t.UnixNano()))
}

// DecodeTime decodes a time written by EncodeTime.
func DecodeTime(data []byte) (time.Time, error) {
	if len(data) != 8 {
		return time.Time{}, fmt.Errorf("%w: time has %d bytes", ErrShortValue, len(data))
	}
	return time.Unix(0, int64(binary.BigEndian.Uint64(data))).UTC(), nil
}
