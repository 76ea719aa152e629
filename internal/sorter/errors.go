package sorter

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsortedKey is returned when a key is smaller than its predecessor.
	ErrUnsortedKey = errors.New("sorter: key inserted out of order")
	// ErrDuplicateKey is returned when a key equals its predecessor.
	ErrDuplicateKey = errors.New("sorter: duplicate key")
	// ErrWriterClosed is returned when inserting into a sealed or aborted writer.
	ErrWriterClosed = errors.New("sorter: writer closed")
	// ErrReaderClosed is returned by cursors of a closed reader.
	ErrReaderClosed = errors.New("sorter: reader closed")
)

// CorruptError is returned when a staging file fails validation.
type CorruptError struct {
	Path   string
	Offset int
	Reason string
	cause  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("sorter: corrupt staging file %s at offset %d: %s", e.Path, e.Offset, e.Reason)
}

func (e *CorruptError) Unwrap() error { return e.cause }
