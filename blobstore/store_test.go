package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]BlobStore {
	return map[string]BlobStore{
		"local":  NewLocalStore(t.TempDir()),
		"memory": NewMemoryStore(),
	}
}

func TestBlobStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			data := []byte("hello world, this is an index snapshot")

			w, err := store.Create(ctx, "INDEX-000001.bin")
			require.NoError(t, err)
			n, err := w.Write(data)
			require.NoError(t, err)
			require.Equal(t, len(data), n)
			require.NoError(t, w.Sync())
			require.NoError(t, w.Close())
			assert.Error(t, w.Close())

			blob, err := store.Open(ctx, "INDEX-000001.bin")
			require.NoError(t, err)
			defer blob.Close()
			require.Equal(t, int64(len(data)), blob.Size())

			buf := make([]byte, 5)
			n, err = blob.ReadAt(ctx, buf, 6)
			require.NoError(t, err)
			assert.Equal(t, "world", string(buf[:n]))

			n, err = blob.ReadAt(ctx, make([]byte, 100), int64(len(data)-3))
			assert.ErrorIs(t, err, io.EOF)
			assert.Equal(t, 3, n)

			rc, err := blob.ReadRange(ctx, 13, 4)
			require.NoError(t, err)
			got, err := io.ReadAll(rc)
			require.NoError(t, err)
			require.NoError(t, rc.Close())
			assert.Equal(t, "this", string(got))

			all, err := ReadAll(ctx, blob)
			require.NoError(t, err)
			assert.Equal(t, data, all)
		})
	}
}

func TestBlobStore_PutListDelete(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Put(ctx, "INDEX-000002.bin", []byte("b")))
			require.NoError(t, store.Put(ctx, "INDEX-000001.bin", []byte("a")))
			require.NoError(t, store.Put(ctx, "CURRENT", []byte("INDEX-000002.bin")))
			require.NoError(t, store.Put(ctx, "CURRENT", []byte("INDEX-000001.bin")))

			names, err := store.List(ctx, "INDEX-")
			require.NoError(t, err)
			assert.Equal(t, []string{"INDEX-000001.bin", "INDEX-000002.bin"}, names)

			blob, err := store.Open(ctx, "CURRENT")
			require.NoError(t, err)
			current, err := ReadAll(ctx, blob)
			require.NoError(t, err)
			assert.Equal(t, "INDEX-000001.bin", string(current))
			require.NoError(t, blob.Close())

			require.NoError(t, store.Delete(ctx, "INDEX-000002.bin"))
			require.NoError(t, store.Delete(ctx, "INDEX-000002.bin"))
			_, err = store.Open(ctx, "INDEX-000002.bin")
			assert.ErrorIs(t, err, ErrNotFound)

			names, err = store.List(ctx, "")
			require.NoError(t, err)
			assert.Equal(t, []string{"CURRENT", "INDEX-000001.bin"}, names)
		})
	}
}

func TestLocalStore_NestedNamesAndMissingRoot(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "missing")
	store := NewLocalStore(root)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, store.Put(ctx, "tenant/INDEX-000001.bin", []byte("x")))
	_, err = os.Stat(filepath.Join(root, "tenant", "INDEX-000001.bin"))
	require.NoError(t, err)

	names, err = store.List(ctx, "tenant/")
	require.NoError(t, err)
	assert.Equal(t, []string{"tenant/INDEX-000001.bin"}, names)
}

func TestLocalStore_CreateIsInvisibleUntilClose(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())

	w, err := store.Create(ctx, "INDEX-000001.bin")
	require.NoError(t, err)
	_, err = w.Write([]byte("partial"))
	require.NoError(t, err)

	_, err = store.Open(ctx, "INDEX-000001.bin")
	assert.ErrorIs(t, err, ErrNotFound)
	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, w.Close())
	names, err = store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"INDEX-000001.bin"}, names)
}

func TestLocalStore_EmptyBlob(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())
	require.NoError(t, store.Put(ctx, "empty", nil))

	blob, err := store.Open(ctx, "empty")
	require.NoError(t, err)
	defer blob.Close()
	assert.Zero(t, blob.Size())

	data, err := ReadAll(ctx, blob)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestBlobStore_PutIfNotExists(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			cp, ok := store.(ConditionalPutter)
			require.True(t, ok)

			require.NoError(t, cp.PutIfNotExists(ctx, "INDEX-000001.bin", []byte("first")))
			err := cp.PutIfNotExists(ctx, "INDEX-000001.bin", []byte("second"))
			assert.ErrorIs(t, err, ErrExist)

			blob, err := store.Open(ctx, "INDEX-000001.bin")
			require.NoError(t, err)
			data, err := ReadAll(ctx, blob)
			require.NoError(t, err)
			assert.Equal(t, "first", string(data))
			require.NoError(t, blob.Close())

			names, err := store.List(ctx, "")
			require.NoError(t, err)
			assert.Equal(t, []string{"INDEX-000001.bin"}, names, "no temporary files remain")
		})
	}
}

func TestBlobStore_Abort(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			w, err := store.Create(ctx, "INDEX-000002.bin")
			require.NoError(t, err)
			_, err = w.Write([]byte("partial"))
			require.NoError(t, err)

			a, ok := w.(Aborter)
			require.True(t, ok)
			require.NoError(t, a.Abort())

			_, err = store.Open(ctx, "INDEX-000002.bin")
			assert.ErrorIs(t, err, ErrNotFound)
			names, err := store.List(ctx, "")
			require.NoError(t, err)
			assert.Empty(t, names)
		})
	}
}
