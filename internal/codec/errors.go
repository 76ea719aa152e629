package codec

import "errors"

var (
	// ErrShortKey is returned when a key is too short for its layout.
	ErrShortKey = errors.New("codec: key too short")
	// ErrShortValue is returned when a value is too short for its layout.
	ErrShortValue = errors.New("codec: value too short")
	// ErrInvalidLevel is returned when a key's level byte does not match its layout.
	ErrInvalidLevel = errors.New("codec: invalid level")
	// ErrStringTooLong is returned for texts longer than a u16 length prefix allows.
	ErrStringTooLong = errors.New("codec: string too long")
	// ErrNaN is returned when a NaN is used as a facet bound.
	ErrNaN = errors.New("codec: NaN is not a valid facet value")
)
