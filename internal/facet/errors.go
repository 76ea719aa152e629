package facet

import (
	"errors"
	"fmt"
)

// ErrInvalidLevelGroupSize is returned for a non-positive group size.
var ErrInvalidLevelGroupSize = errors.New("facet: level group size must be positive")

// ErrInvalidMinLevelSize is returned for a non-positive minimum level size.
var ErrInvalidMinLevelSize = errors.New("facet: min level size must be positive")

// MergeConflictError reports a key produced twice while merging levels.
type MergeConflictError struct {
	Process string
	Key     []byte
}

func (e *MergeConflictError) Error() string {
	return fmt.Sprintf("facet: merge conflict in %s on key %x", e.Process, e.Key)
}
