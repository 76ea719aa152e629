package hash

import (
	"fmt"
	"hash/crc32"
)

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32C computes the CRC32-Castagnoli checksum of data.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}

// MismatchError is returned when a stored checksum does not match the data.
type MismatchError struct {
	What     string
	Expected uint32
	Actual   uint32
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: checksum mismatch: expected 0x%08x, got 0x%08x", e.What, e.Expected, e.Actual)
}

// Verify returns a *MismatchError if the checksum of data is not expected.
func Verify(what string, data []byte, expected uint32) error {
	if actual := CRC32C(data); actual != expected {
		return &MismatchError{What: what, Expected: expected, Actual: actual}
	}
	return nil
}
