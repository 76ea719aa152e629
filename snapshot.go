package facetidx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/facetidx/blobstore"
	"github.com/hupe1980/facetidx/internal/hash"
	"github.com/hupe1980/facetidx/internal/kv"
	"github.com/hupe1980/facetidx/resource"
)

const (
	snapshotPrefix = "INDEX-"
	snapshotSuffix = ".bin"

	// maxSaveAttempts bounds the retries of a conditional snapshot put
	// that lost a race for its version.
	maxSaveAttempts = 8
)

// SnapshotName returns the blob name of a snapshot version.
func SnapshotName(version uint64) string {
	return fmt.Sprintf("%s%06d%s", snapshotPrefix, version, snapshotSuffix)
}

// ParseSnapshotName returns the version of a snapshot blob name.
func ParseSnapshotName(name string) (uint64, bool) {
	digits, ok := strings.CutPrefix(name, snapshotPrefix)
	if !ok {
		return 0, false
	}
	digits, ok = strings.CutSuffix(digits, snapshotSuffix)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Snapshots returns the snapshot versions in store in ascending order.
func Snapshots(ctx context.Context, store blobstore.BlobStore) ([]uint64, error) {
	names, err := store.List(ctx, snapshotPrefix)
	if err != nil {
		return nil, err
	}
	versions := make([]uint64, 0, len(names))
	for _, name := range names {
		if v, ok := ParseSnapshotName(name); ok {
			versions = append(versions, v)
		}
	}
	slices.Sort(versions)
	return versions, nil
}

// Save writes the committed state of the index as a new snapshot and
// points CURRENT at it. It returns the snapshot name.
//
// Stores implementing blobstore.ConditionalPutter never overwrite an
// existing snapshot: when another writer took the version first, Save
// moves on to the next one.
func (i *Index) Save(ctx context.Context, store blobstore.BlobStore, optFns ...Option) (name string, err error) {
	o, err := applyOptions(optFns)
	if err != nil {
		return "", err
	}

	start := time.Now()
	var size int64
	defer func() {
		o.logger.LogSnapshot(ctx, "save", name, size, err)
		o.metricsCollector.RecordSnapshot(size, time.Since(start), err)
	}()

	versions, err := Snapshots(ctx, store)
	if err != nil {
		return "", fmt.Errorf("list snapshots: %w", err)
	}
	next := uint64(1)
	if len(versions) > 0 {
		next = versions[len(versions)-1] + 1
	}

	if cp, ok := store.(blobstore.ConditionalPutter); ok {
		name, size, err = i.putSnapshot(ctx, cp, next, o.resource)
	} else {
		name = SnapshotName(next)
		size, err = i.writeSnapshot(ctx, store, name, o.resource)
	}
	if err != nil {
		return name, err
	}

	if err := store.Put(ctx, blobstore.CurrentName, []byte(name)); err != nil {
		return name, fmt.Errorf("publish %s: %w", name, err)
	}
	return name, nil
}

func (i *Index) putSnapshot(ctx context.Context, store blobstore.ConditionalPutter, version uint64, rc *resource.Controller) (string, int64, error) {
	var buf bytes.Buffer
	if _, err := i.store.WriteTo(rc.ThrottleWriter(ctx, &buf)); err != nil {
		return "", 0, err
	}

	for range maxSaveAttempts {
		name := SnapshotName(version)
		err := store.PutIfNotExists(ctx, name, buf.Bytes())
		if err == nil {
			return name, int64(buf.Len()), nil
		}
		if !errors.Is(err, blobstore.ErrExist) {
			return name, 0, err
		}
		version++
	}
	return "", 0, fmt.Errorf("snapshot version %d: %w", version, blobstore.ErrExist)
}

func (i *Index) writeSnapshot(ctx context.Context, store blobstore.BlobStore, name string, rc *resource.Controller) (int64, error) {
	w, err := store.Create(ctx, name)
	if err != nil {
		return 0, err
	}
	n, err := i.store.WriteTo(rc.ThrottleWriter(ctx, w))
	if err != nil {
		if a, ok := w.(blobstore.Aborter); ok {
			_ = a.Abort()
		}
		return 0, err
	}
	if err := w.Close(); err != nil {
		return 0, err
	}
	return n, nil
}

// LoadIndex opens the snapshot CURRENT points at.
// It returns ErrNoSnapshot when the store has none and
// ErrCorruptSnapshot when it cannot be read.
func LoadIndex(ctx context.Context, store blobstore.BlobStore, optFns ...Option) (idx *Index, err error) {
	o, err := applyOptions(optFns)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var (
		name string
		size int64
	)
	defer func() {
		o.logger.LogSnapshot(ctx, "load", name, size, err)
		o.metricsCollector.RecordSnapshot(size, time.Since(start), err)
	}()

	current, err := readBlob(ctx, store, blobstore.CurrentName)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, ErrNoSnapshot
		}
		return nil, err
	}
	name = strings.TrimSpace(string(current))
	if _, ok := ParseSnapshotName(name); !ok {
		return nil, fmt.Errorf("%w: CURRENT names %q", ErrCorruptSnapshot, name)
	}

	idx, size, err = loadSnapshot(ctx, store, name)
	return idx, err
}

// LoadSnapshot opens the named snapshot.
func LoadSnapshot(ctx context.Context, store blobstore.BlobStore, name string) (*Index, error) {
	idx, _, err := loadSnapshot(ctx, store, name)
	return idx, err
}

func loadSnapshot(ctx context.Context, store blobstore.BlobStore, name string) (*Index, int64, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", name, err)
	}
	defer func() { _ = blob.Close() }()

	rc, err := blob.ReadRange(ctx, 0, blob.Size())
	if err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", name, err)
	}
	defer func() { _ = rc.Close() }()

	kvs, err := kv.Open()
	if err != nil {
		return nil, 0, err
	}
	n, err := kvs.ReadFrom(rc)
	if err != nil {
		_ = kvs.Close()
		var mismatch *hash.MismatchError
		if errors.Is(err, kv.ErrInvalidSnapshot) || errors.As(err, &mismatch) {
			return nil, n, fmt.Errorf("%w: %s: %w", ErrCorruptSnapshot, name, err)
		}
		return nil, n, fmt.Errorf("read %s: %w", name, err)
	}
	idx, err := newIndex(kvs)
	if err != nil {
		_ = kvs.Close()
		return nil, n, err
	}
	return idx, n, nil
}

// PruneSnapshots deletes all but the newest keep snapshots. The snapshot
// CURRENT points at is never deleted.
func PruneSnapshots(ctx context.Context, store blobstore.BlobStore, keep int) (int, error) {
	versions, err := Snapshots(ctx, store)
	if err != nil {
		return 0, err
	}
	if keep < 1 {
		keep = 1
	}
	if len(versions) <= keep {
		return 0, nil
	}

	var current string
	if data, err := readBlob(ctx, store, blobstore.CurrentName); err == nil {
		current = strings.TrimSpace(string(data))
	} else if !errors.Is(err, blobstore.ErrNotFound) {
		return 0, err
	}

	deleted := 0
	for _, v := range versions[:len(versions)-keep] {
		name := SnapshotName(v)
		if name == current {
			continue
		}
		if err := store.Delete(ctx, name); err != nil {
			return deleted, fmt.Errorf("delete %s: %w", name, err)
		}
		deleted++
	}
	return deleted, nil
}

func readBlob(ctx context.Context, store blobstore.BlobStore, name string) ([]byte, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = blob.Close() }()

	data, err := blobstore.ReadAll(ctx, blob)
	if err != nil {
		return nil, err
	}
	// Mapped bytes die with the blob.
	return bytes.Clone(data), nil
}
