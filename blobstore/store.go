package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
)

// CurrentName is the blob holding the name of the latest snapshot.
const CurrentName = "CURRENT"

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// ErrExist is returned by PutIfNotExists when the blob already exists.
var ErrExist = os.ErrExist

// BlobStore stores immutable index snapshots and the pointer to the
// current one.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Create starts writing a blob. It becomes visible when the returned
	// WritableBlob is closed.
	Create(ctx context.Context, name string) (WritableBlob, error)
	// Put writes a blob atomically.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the names starting with prefix in ascending order.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	io.Closer
	// ReadAt reads len(p) bytes at off. It returns io.EOF when fewer
	// bytes remain.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// ReadRange returns a reader over length bytes starting at off.
	ReadRange(ctx context.Context, off, length int64) (ReadCloser, error)
	// Size returns the size of the blob in bytes.
	Size() int64
}

// WritableBlob is a blob being written.
type WritableBlob interface {
	io.WriteCloser
	// Sync flushes buffered data where the backend supports it.
	Sync() error
}

// Aborter is an optional interface for WritableBlobs that can discard
// an unfinished write.
type Aborter interface {
	Abort() error
}

// Mappable is an optional interface for Blobs that support memory mapping.
type Mappable interface {
	// Bytes returns the underlying byte slice.
	// The slice is valid until the Blob is closed.
	Bytes() ([]byte, error)
}

// ConditionalPutter is an optional interface for stores that can create a
// blob only if it does not exist yet.
type ConditionalPutter interface {
	// PutIfNotExists writes a blob atomically or fails with an error
	// satisfying errors.Is(err, ErrExist).
	PutIfNotExists(ctx context.Context, name string, data []byte) error
}

// ReadCloser is returned by Blob.ReadRange.
type ReadCloser = io.ReadCloser

// NopReadCloser returns a ReadCloser with a no-op Close.
func NopReadCloser(r io.Reader) ReadCloser {
	return io.NopCloser(r)
}

// ReadAll reads a whole blob, without copying when it is Mappable.
func ReadAll(ctx context.Context, b Blob) ([]byte, error) {
	if m, ok := b.(Mappable); ok {
		return m.Bytes()
	}
	rc, err := b.ReadRange(ctx, 0, b.Size())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	data := make([]byte, b.Size())
	if _, err := io.ReadFull(rc, data); err != nil {
		return nil, fmt.Errorf("blobstore: read %d bytes: %w", len(data), err)
	}
	return data, nil
}

// readAt copies data[off:] into p with io.ReaderAt semantics.
func readAt(data, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 || off >= int64(len(data)) {
		return 0, io.EOF
	}
	n := copy(p, data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// sliceRange returns data[off:off+length] clipped to the slice.
func sliceRange(data []byte, off, length int64) []byte {
	if off < 0 || off >= int64(len(data)) {
		return nil
	}
	return data[off:min(off+length, int64(len(data)))]
}
