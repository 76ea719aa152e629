package facetidx

import (
	"errors"
	"fmt"

	"github.com/hupe1980/facetidx/internal/codec"
	"github.com/hupe1980/facetidx/internal/facet"
	"github.com/hupe1980/facetidx/internal/kv"
)

var (
	// ErrInternal marks violated internal invariants. Errors matching it
	// indicate a bug rather than bad input or a failing environment.
	ErrInternal = errors.New("internal error")

	// ErrInvalidLevelGroupSize is returned when the level group size is not positive.
	ErrInvalidLevelGroupSize = errors.New("level group size must be positive")

	// ErrInvalidMinLevelSize is returned when the minimum level size is not positive.
	ErrInvalidMinLevelSize = errors.New("min level size must be positive")

	// ErrInvalidParallelism is returned when parallelism is not positive.
	ErrInvalidParallelism = errors.New("parallelism must be positive")

	// ErrReadOnlyTxn is returned when a rebuild is run in a read transaction.
	ErrReadOnlyTxn = errors.New("write transaction required")

	// ErrNaN is returned when a NaN is added as a number facet value.
	ErrNaN = codec.ErrNaN

	// ErrNoSnapshot is returned by LoadIndex when the store holds no
	// readable snapshot.
	ErrNoSnapshot = errors.New("no index snapshot")

	// ErrCorruptSnapshot is returned when a snapshot or CURRENT exists but
	// cannot be read. It matches ErrNoSnapshot.
	ErrCorruptSnapshot = fmt.Errorf("%w: corrupt", ErrNoSnapshot)
)

// ErrMergeConflict indicates that merging computed levels met a key that
// already exists. It matches ErrInternal.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrMergeConflict struct {
	Process string
	Key     []byte
	cause   error
}

func (e *ErrMergeConflict) Error() string {
	return fmt.Sprintf("merge conflict in %s on key %x", e.Process, e.Key)
}

func (e *ErrMergeConflict) Unwrap() error { return e.cause }

// Is reports whether target is ErrInternal.
func (e *ErrMergeConflict) Is(target error) bool { return target == ErrInternal }

// ErrFieldLevels indicates that computing or writing the levels of one
// field failed.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrFieldLevels struct {
	FieldID FieldID
	Kind    string
	cause   error
}

func (e *ErrFieldLevels) Error() string {
	return fmt.Sprintf("%s levels of field %d: %v", e.Kind, e.FieldID, e.cause)
}

func (e *ErrFieldLevels) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var (
		fe  *ErrFieldLevels
		rmc *ErrMergeConflict
	)
	if errors.As(err, &fe) || errors.As(err, &rmc) {
		return err
	}

	var mc *facet.MergeConflictError
	if errors.As(err, &mc) {
		return &ErrMergeConflict{Process: mc.Process, Key: mc.Key, cause: err}
	}
	if errors.Is(err, kv.ErrReadOnly) {
		return fmt.Errorf("%w: %w", ErrReadOnlyTxn, err)
	}

	return err
}
