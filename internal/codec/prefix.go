package codec

import "encoding/binary"

// FieldPrefix returns the key prefix shared by all entries of a field.
func FieldPrefix(fid FieldID) []byte {
	return binary.BigEndian.AppendUint16(make([]byte, 0, 3), uint16(fid))
}

// LevelPrefix returns the key prefix shared by all entries of a field level.
func LevelPrefix(fid FieldID, level uint8) []byte {
	return append(FieldPrefix(fid), level)
}
