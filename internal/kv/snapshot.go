package kv

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/cockroachdb/pebble"
	"github.com/hupe1980/facetidx/internal/hash"
	"github.com/klauspost/compress/zstd"
)

// Snapshot layout, little-endian:
//
//	magic u32 | version u16 | reserved u16 | crc32c u32
//	zstd(pebble batch)
//
// The batch holds every key of the store, catalog included, in key order.
// The checksum covers the uncompressed batch.
const (
	snapshotMagic      uint32 = 0x464B5642 // "FKVB"
	snapshotVersion    uint16 = 2
	snapshotHeaderSize        = 12

	// maxSnapshotPayload bounds the decompressed batch.
	maxSnapshotPayload = 1 << 34
	// maxSnapshotWindow bounds the zstd window a snapshot may ask for.
	maxSnapshotWindow = 64 << 20
)

// WriteTo writes a snapshot of the committed state to w.
func (s *Store) WriteTo(w io.Writer) (int64, error) {
	snap := s.db.NewSnapshot()
	defer func() { _ = snap.Close() }()

	export := s.db.NewBatch()
	defer func() { _ = export.Close() }()

	it, err := snap.NewIter(&pebble.IterOptions{LowerBound: []byte{catalogID}, UpperBound: []byte{keyspaceEnd}})
	if err != nil {
		return 0, err
	}
	for valid := it.First(); valid; valid = it.Next() {
		if err := export.Set(it.Key(), it.Value(), nil); err != nil {
			_ = it.Close()
			return 0, err
		}
	}
	if err := errors.Join(it.Error(), it.Close()); err != nil {
		return 0, err
	}
	repr := export.Repr()

	hdr := make([]byte, snapshotHeaderSize)
	binary.LittleEndian.PutUint32(hdr[0:4], snapshotMagic)
	binary.LittleEndian.PutUint16(hdr[4:6], snapshotVersion)
	binary.LittleEndian.PutUint32(hdr[8:12], hash.CRC32C(repr))

	cw := &countingWriter{w: w}
	if _, err := cw.Write(hdr); err != nil {
		return cw.n, err
	}
	enc, err := zstd.NewWriter(cw, zstd.WithEncoderConcurrency(1))
	if err != nil {
		return cw.n, err
	}
	if _, err := enc.Write(repr); err != nil {
		_ = enc.Close()
		return cw.n, err
	}
	if err := enc.Close(); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

// ReadFrom replaces the store's contents with the snapshot read from r.
// It waits for any open write transaction. On error the store is left
// unchanged.
func (s *Store) ReadFrom(r io.Reader) (int64, error) {
	cr := &countingReader{r: r}
	hdr := make([]byte, snapshotHeaderSize)
	if _, err := io.ReadFull(cr, hdr); err != nil {
		return cr.n, fmt.Errorf("%w: header: %w", ErrInvalidSnapshot, err)
	}
	if magic := binary.LittleEndian.Uint32(hdr[0:4]); magic != snapshotMagic {
		return cr.n, fmt.Errorf("%w: bad magic 0x%08x", ErrInvalidSnapshot, magic)
	}
	if v := binary.LittleEndian.Uint16(hdr[4:6]); v != snapshotVersion {
		return cr.n, fmt.Errorf("%w: unsupported version %d", ErrInvalidSnapshot, v)
	}

	dec, err := zstd.NewReader(cr,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(maxSnapshotPayload),
		zstd.WithDecoderMaxWindow(maxSnapshotWindow),
	)
	if err != nil {
		return cr.n, err
	}
	defer dec.Close()

	repr, err := io.ReadAll(dec)
	if err != nil {
		return cr.n, fmt.Errorf("%w: payload: %w", ErrInvalidSnapshot, err)
	}
	if err := hash.Verify("kv snapshot", repr, binary.LittleEndian.Uint32(hdr[8:12])); err != nil {
		return cr.n, err
	}

	loaded := s.db.NewBatch()
	defer func() { _ = loaded.Close() }()
	if err := loaded.SetRepr(repr); err != nil {
		return cr.n, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}

	s.writer.Lock()
	defer s.writer.Unlock()

	b := s.db.NewIndexedBatch()
	defer func() { _ = b.Close() }()
	if err := b.DeleteRange([]byte{catalogID}, []byte{keyspaceEnd}, nil); err != nil {
		return cr.n, err
	}
	if err := b.Apply(loaded, nil); err != nil {
		return cr.n, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	catalog, err := readCatalog(b)
	if err != nil {
		return cr.n, err
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return cr.n, err
	}

	s.mu.Lock()
	s.catalog = catalog
	s.mu.Unlock()
	return cr.n, nil
}

// readCatalog decodes the catalog of r and checks that every other key
// belongs to a cataloged database.
func readCatalog(r reader) (map[string]byte, error) {
	it, err := r.NewIter(&pebble.IterOptions{LowerBound: []byte{catalogID}, UpperBound: []byte{keyspaceEnd}})
	if err != nil {
		return nil, err
	}
	defer func() { _ = it.Close() }()

	catalog := make(map[string]byte)
	ids := make(map[byte]bool)
	for valid := it.First(); valid; valid = it.Next() {
		k, v := it.Key(), it.Value()
		if len(k) == 0 {
			return nil, fmt.Errorf("%w: empty key", ErrInvalidSnapshot)
		}
		if k[0] == catalogID {
			if len(v) != 1 || v[0] == catalogID || v[0] > maxDatabaseID || ids[v[0]] {
				return nil, fmt.Errorf("%w: catalog entry %q", ErrInvalidSnapshot, k[1:])
			}
			catalog[string(k[1:])] = v[0]
			ids[v[0]] = true
			continue
		}
		if !ids[k[0]] {
			return nil, fmt.Errorf("%w: key %x outside any database", ErrInvalidSnapshot, k)
		}
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	return catalog, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
