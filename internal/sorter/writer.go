package sorter

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/hupe1980/facetidx/internal/fs"
	"github.com/hupe1980/facetidx/internal/hash"
)

const (
	fileMagic       = 0x46535254 // "FSRT"
	fileVersion     = 1
	headerSize      = 8
	blockHeaderSize = 13
	footerSize      = 20

	blockFlagCompressed = 1
)

// Writer stages strictly ascending key/value pairs in a temporary file.
// It is not safe for concurrent use.
type Writer struct {
	opts Options
	f    fs.File
	bw   *bufio.Writer

	block        []byte
	blockEntries int

	lastKey []byte
	hasLast bool
	entries uint64
	blocks  uint64

	closed bool
}

// NewWriter creates a staging file in opts.TempDir.
func NewWriter(ctx context.Context, opts Options) (*Writer, error) {
	opts = opts.withDefaults()

	f, err := fs.CreateTemp(opts.FS, opts.TempDir, "facet-levels-", ".stage")
	if err != nil {
		return nil, fmt.Errorf("sorter: create staging file: %w", err)
	}

	out := opts.Resource.ThrottleWriter(ctx, f)

	w := &Writer{
		opts:  opts,
		f:     f,
		bw:    bufio.NewWriterSize(out, opts.BlockSize+blockHeaderSize),
		block: make([]byte, 0, opts.BlockSize),
	}

	header := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(header[0:], fileMagic)
	binary.LittleEndian.PutUint16(header[4:], fileVersion)
	header[6] = byte(opts.Compression)
	if _, err := w.bw.Write(header); err != nil {
		_ = w.Abort()
		return nil, fmt.Errorf("sorter: write header: %w", err)
	}

	return w, nil
}

// Insert appends an entry. key must be strictly greater than the previous key.
func (w *Writer) Insert(key, value []byte) error {
	if w.closed {
		return ErrWriterClosed
	}
	if w.hasLast {
		switch c := bytes.Compare(key, w.lastKey); {
		case c == 0:
			return fmt.Errorf("%w: %x", ErrDuplicateKey, key)
		case c < 0:
			return fmt.Errorf("%w: %x after %x", ErrUnsortedKey, key, w.lastKey)
		}
	}

	w.block = binary.AppendUvarint(w.block, uint64(len(key)))
	w.block = binary.AppendUvarint(w.block, uint64(len(value)))
	w.block = append(w.block, key...)
	w.block = append(w.block, value...)
	w.blockEntries++
	w.entries++

	w.lastKey = append(w.lastKey[:0], key...)
	w.hasLast = true

	if len(w.block) >= w.opts.BlockSize {
		return w.flushBlock()
	}
	return nil
}

// Len returns the number of inserted entries.
func (w *Writer) Len() int {
	return int(w.entries)
}

func (w *Writer) flushBlock() error {
	if w.blockEntries == 0 {
		return nil
	}

	stored, compressed, err := compressBlock(w.opts.Compression, w.block)
	if err != nil {
		return fmt.Errorf("sorter: compress block: %w", err)
	}

	var header [blockHeaderSize]byte
	binary.LittleEndian.PutUint32(header[0:], uint32(len(w.block)))
	binary.LittleEndian.PutUint32(header[4:], uint32(len(stored)))
	binary.LittleEndian.PutUint32(header[8:], hash.CRC32C(stored))
	if compressed {
		header[12] = blockFlagCompressed
	}

	if _, err := w.bw.Write(header[:]); err != nil {
		return fmt.Errorf("sorter: write block: %w", err)
	}
	if _, err := w.bw.Write(stored); err != nil {
		return fmt.Errorf("sorter: write block: %w", err)
	}

	w.blocks++
	w.block = w.block[:0]
	w.blockEntries = 0
	return nil
}

// IntoReader seals the staging file and opens it for reading.
// The writer must not be used afterwards.
func (w *Writer) IntoReader() (*Reader, error) {
	if w.closed {
		return nil, ErrWriterClosed
	}

	if err := w.seal(); err != nil {
		_ = w.Abort()
		return nil, err
	}
	w.closed = true

	r, err := openReader(w.opts.FS, w.f.Name())
	if err != nil {
		_ = w.opts.FS.Remove(w.f.Name())
		return nil, err
	}
	return r, nil
}

func (w *Writer) seal() error {
	if err := w.flushBlock(); err != nil {
		return err
	}

	var footer [footerSize]byte
	binary.LittleEndian.PutUint64(footer[0:], w.entries)
	binary.LittleEndian.PutUint64(footer[8:], w.blocks)
	binary.LittleEndian.PutUint32(footer[16:], fileMagic)
	if _, err := w.bw.Write(footer[:]); err != nil {
		return fmt.Errorf("sorter: write footer: %w", err)
	}
	if err := w.bw.Flush(); err != nil {
		return fmt.Errorf("sorter: flush: %w", err)
	}
	if err := w.f.Sync(); err != nil {
		return fmt.Errorf("sorter: sync staging file: %w", err)
	}
	if err := w.f.Close(); err != nil {
		return fmt.Errorf("sorter: close staging file: %w", err)
	}
	return nil
}

// Abort discards the staging file. It is safe to call more than once.
func (w *Writer) Abort() error {
	if w.closed {
		return nil
	}
	w.closed = true
	_ = w.f.Close()
	if err := w.opts.FS.Remove(w.f.Name()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
