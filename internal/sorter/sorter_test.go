package sorter

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"testing"

	"github.com/hupe1980/facetidx/internal/fs"
	"github.com/hupe1980/facetidx/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	key, value string
}

func collect(t *testing.T, r *Reader) []entry {
	t.Helper()
	var out []entry
	c := r.Cursor()
	for c.Next() {
		out = append(out, entry{string(c.Key()), string(c.Value())})
	}
	require.NoError(t, c.Err())
	return out
}

func makeEntries(n int) []entry {
	out := make([]entry, n)
	for i := range out {
		key := binary.BigEndian.AppendUint32(nil, uint32(i))
		out[i] = entry{string(key), fmt.Sprintf("value-%06d-%s", i, "aaaaaaaaaaaaaaaaaaaaaaaa")}
	}
	return out
}

func TestWriter_RoundTrip(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd, CompressionS2} {
		t.Run(c.String(), func(t *testing.T) {
			w, err := NewWriter(context.Background(), Options{
				Compression: c,
				BlockSize:   256,
				TempDir:     t.TempDir(),
			})
			require.NoError(t, err)

			want := makeEntries(500)
			for _, e := range want {
				require.NoError(t, w.Insert([]byte(e.key), []byte(e.value)))
			}
			assert.Equal(t, 500, w.Len())

			r, err := w.IntoReader()
			require.NoError(t, err)
			defer r.Close()

			assert.Equal(t, 500, r.Len())
			assert.Equal(t, c, r.Compression())
			assert.Equal(t, want, collect(t, r))
			// readers are re-iterable
			assert.Equal(t, want, collect(t, r))
		})
	}
}

func TestWriter_Empty(t *testing.T) {
	w, err := NewWriter(context.Background(), Options{TempDir: t.TempDir()})
	require.NoError(t, err)

	r, err := w.IntoReader()
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, 0, r.Len())
	assert.Empty(t, collect(t, r))
}

func TestWriter_Order(t *testing.T) {
	w, err := NewWriter(context.Background(), Options{TempDir: t.TempDir()})
	require.NoError(t, err)
	defer w.Abort()

	require.NoError(t, w.Insert([]byte("b"), nil))
	assert.ErrorIs(t, w.Insert([]byte("b"), nil), ErrDuplicateKey)
	assert.ErrorIs(t, w.Insert([]byte("a"), nil), ErrUnsortedKey)
	require.NoError(t, w.Insert([]byte("ba"), nil))
	assert.Equal(t, 2, w.Len())
}

func TestWriter_Closed(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(context.Background(), Options{TempDir: dir})
	require.NoError(t, err)

	require.NoError(t, w.Abort())
	require.NoError(t, w.Abort())
	assert.ErrorIs(t, w.Insert([]byte("a"), nil), ErrWriterClosed)
	_, err = w.IntoReader()
	assert.ErrorIs(t, err, ErrWriterClosed)

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestReader_CloseRemovesFile(t *testing.T) {
	w, err := NewWriter(context.Background(), Options{TempDir: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, w.Insert([]byte("k"), []byte("v")))

	r, err := w.IntoReader()
	require.NoError(t, err)
	path := r.Path()

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	c := r.Cursor()
	assert.False(t, c.Next())
	assert.ErrorIs(t, c.Err(), ErrReaderClosed)
}

func TestReader_DetectsCorruption(t *testing.T) {
	w, err := NewWriter(context.Background(), Options{TempDir: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, w.Insert([]byte("key"), []byte("value")))
	path := w.f.Name()
	require.NoError(t, w.seal())
	w.closed = true

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[headerSize+blockHeaderSize+2] ^= 0xFF
	require.NoError(t, os.WriteFile(path, data, 0o600))

	r, err := openReader(fs.Default, path)
	require.NoError(t, err)
	defer r.Close()

	c := r.Cursor()
	assert.False(t, c.Next())
	var ce *CorruptError
	require.ErrorAs(t, c.Err(), &ce)
	assert.Equal(t, "block checksum", ce.Reason)
}

func TestWriter_WriteFault(t *testing.T) {
	dir := t.TempDir()
	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule(".stage", fs.Fault{FailAfterBytes: 512})

	w, err := NewWriter(context.Background(), Options{TempDir: dir, BlockSize: 64, FS: ffs})
	require.NoError(t, err)

	var insertErr error
	for _, e := range makeEntries(100) {
		if insertErr = w.Insert([]byte(e.key), []byte(e.value)); insertErr != nil {
			break
		}
	}
	if insertErr == nil {
		_, insertErr = w.IntoReader()
	} else {
		require.NoError(t, w.Abort())
	}
	assert.ErrorIs(t, insertErr, fs.ErrInjected)

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, files)
	assert.Equal(t, ffs.Opened(), ffs.Removed())
}

func TestWriter_OpenAndSyncFaults(t *testing.T) {
	dir := t.TempDir()

	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule("facet-levels-", fs.Fault{FailOnOpen: true, FailAfterBytes: -1})
	_, err := NewWriter(context.Background(), Options{TempDir: dir, FS: ffs})
	assert.ErrorIs(t, err, fs.ErrInjected)

	ffs = fs.NewFaultyFS(nil)
	ffs.AddRule(".stage", fs.Fault{FailOnSync: true, FailAfterBytes: -1})
	w, err := NewWriter(context.Background(), Options{TempDir: dir, FS: ffs})
	require.NoError(t, err)
	require.NoError(t, w.Insert([]byte("k"), []byte("v")))
	_, err = w.IntoReader()
	assert.ErrorIs(t, err, fs.ErrInjected)

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestWriter_RateLimited(t *testing.T) {
	rc := resource.NewController(resource.Config{IOLimitBytesPerSec: 1 << 20})
	w, err := NewWriter(context.Background(), Options{TempDir: t.TempDir(), Resource: rc, BlockSize: 64})
	require.NoError(t, err)

	want := makeEntries(50)
	for _, e := range want {
		require.NoError(t, w.Insert([]byte(e.key), []byte(e.value)))
	}
	r, err := w.IntoReader()
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, want, collect(t, r))
}

func TestParseCompression(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd, CompressionS2} {
		got, err := ParseCompression(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	got, err := ParseCompression("snappy")
	require.NoError(t, err)
	assert.Equal(t, CompressionS2, got)

	_, err = ParseCompression("brotli")
	assert.Error(t, err)
}
