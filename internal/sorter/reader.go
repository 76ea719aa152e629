package sorter

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/hupe1980/facetidx/internal/conv"
	"github.com/hupe1980/facetidx/internal/fs"
	"github.com/hupe1980/facetidx/internal/hash"
	"github.com/hupe1980/facetidx/internal/mmap"
)

// Reader is a sealed staging file. Its cursors may run concurrently.
type Reader struct {
	fsys        fs.FileSystem
	path        string
	m           *mmap.Mapping
	compression Compression
	entries     uint64
	blocks      uint64
	dataEnd     int
	closed      atomic.Bool
}

func openReader(fsys fs.FileSystem, path string) (*Reader, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sorter: map staging file: %w", err)
	}

	data := m.Bytes()
	if len(data) < headerSize+footerSize {
		_ = m.Close()
		return nil, &CorruptError{Path: path, Reason: fmt.Sprintf("file has %d bytes", len(data))}
	}
	if binary.LittleEndian.Uint32(data[0:]) != fileMagic {
		_ = m.Close()
		return nil, &CorruptError{Path: path, Reason: "bad header magic"}
	}
	if v := binary.LittleEndian.Uint16(data[4:]); v != fileVersion {
		_ = m.Close()
		return nil, &CorruptError{Path: path, Reason: fmt.Sprintf("unsupported version %d", v)}
	}

	footer := data[len(data)-footerSize:]
	if binary.LittleEndian.Uint32(footer[16:]) != fileMagic {
		_ = m.Close()
		return nil, &CorruptError{Path: path, Offset: len(data) - footerSize, Reason: "bad footer magic"}
	}

	entries := binary.LittleEndian.Uint64(footer[0:])
	if _, err := conv.Uint64ToInt(entries); err != nil {
		_ = m.Close()
		return nil, &CorruptError{Path: path, Offset: len(data) - footerSize, Reason: "entry count", cause: err}
	}

	_ = m.AdviseSequential()

	return &Reader{
		fsys:        fsys,
		path:        path,
		m:           m,
		compression: Compression(data[6]),
		entries:     entries,
		blocks:      binary.LittleEndian.Uint64(footer[8:]),
		dataEnd:     len(data) - footerSize,
	}, nil
}

// Len returns the number of entries.
func (r *Reader) Len() int {
	return int(r.entries)
}

// Path returns the staging file path.
func (r *Reader) Path() string {
	return r.path
}

// Compression returns the block codec of the file.
func (r *Reader) Compression() Compression {
	return r.compression
}

// Cursor returns a cursor positioned before the first entry.
func (r *Reader) Cursor() *Cursor {
	return &Cursor{r: r, off: headerSize}
}

// Close unmaps and deletes the staging file. It is idempotent.
func (r *Reader) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	err := r.m.Close()
	if rmErr := r.fsys.Remove(r.path); rmErr != nil && !os.IsNotExist(rmErr) {
		err = errors.Join(err, rmErr)
	}
	return err
}

// Cursor iterates the entries of a Reader in key order.
// Key and Value are valid until the next call to Next.
type Cursor struct {
	r   *Reader
	off int

	block []byte
	pos   int
	buf   []byte

	key   []byte
	value []byte
	err   error
}

// Next advances to the next entry. It returns false at the end or on error.
func (c *Cursor) Next() bool {
	if c.err != nil {
		return false
	}
	if c.r.closed.Load() {
		c.err = ErrReaderClosed
		return false
	}

	for c.pos >= len(c.block) {
		if c.off >= c.r.dataEnd {
			return false
		}
		if err := c.loadBlock(); err != nil {
			c.err = err
			return false
		}
	}

	klen, n := binary.Uvarint(c.block[c.pos:])
	if n <= 0 {
		c.err = c.corrupt("bad key length")
		return false
	}
	c.pos += n
	vlen, n := binary.Uvarint(c.block[c.pos:])
	if n <= 0 {
		c.err = c.corrupt("bad value length")
		return false
	}
	c.pos += n
	if uint64(len(c.block)-c.pos) < klen+vlen {
		c.err = c.corrupt("entry overruns block")
		return false
	}

	c.key = c.block[c.pos : c.pos+int(klen)]
	c.pos += int(klen)
	c.value = c.block[c.pos : c.pos+int(vlen)]
	c.pos += int(vlen)
	return true
}

func (c *Cursor) loadBlock() error {
	data := c.r.m.Bytes()
	if c.off+blockHeaderSize > c.r.dataEnd {
		return c.corrupt("truncated block header")
	}
	header := data[c.off : c.off+blockHeaderSize]
	rawLen := int(binary.LittleEndian.Uint32(header[0:]))
	storedLen := int(binary.LittleEndian.Uint32(header[4:]))
	checksum := binary.LittleEndian.Uint32(header[8:])
	flags := header[12]

	start := c.off + blockHeaderSize
	if start+storedLen > c.r.dataEnd {
		return c.corrupt("truncated block")
	}
	stored := data[start : start+storedLen]
	if err := hash.Verify("sorter block", stored, checksum); err != nil {
		return &CorruptError{Path: c.r.path, Offset: c.off, Reason: "block checksum", cause: err}
	}

	if flags&blockFlagCompressed != 0 {
		raw, err := decompressBlock(c.r.compression, c.buf, stored, rawLen)
		if err != nil {
			return &CorruptError{Path: c.r.path, Offset: c.off, Reason: "decompress block", cause: err}
		}
		c.buf = raw
		c.block = raw
	} else {
		if storedLen != rawLen {
			return c.corrupt("raw block length mismatch")
		}
		c.block = stored
	}

	c.pos = 0
	c.off = start + storedLen
	return nil
}

func (c *Cursor) corrupt(reason string) error {
	return &CorruptError{Path: c.r.path, Offset: c.off, Reason: reason}
}

// Key returns the current key.
func (c *Cursor) Key() []byte { return c.key }

// Value returns the current value.
func (c *Cursor) Value() []byte { return c.value }

// Err returns the error that stopped iteration, if any.
func (c *Cursor) Err() error { return c.err }
