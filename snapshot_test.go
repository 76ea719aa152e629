package facetidx

import (
	"bytes"
	"context"
	"testing"

	"github.com/hupe1980/facetidx/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dump(t *testing.T, idx *Index) []byte {
	t.Helper()
	var buf bytes.Buffer
	_, err := idx.store.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

// streamingStore hides the optional interfaces of the wrapped store.
type streamingStore struct {
	blobstore.BlobStore
}

// blindStore lists nothing, so Save races with existing snapshots.
type blindStore struct {
	*blobstore.MemoryStore
}

func (blindStore) List(context.Context, string) ([]string, error) {
	return nil, nil
}

func TestSnapshot_RoundTrip(t *testing.T) {
	ctx := context.Background()
	stores := map[string]blobstore.BlobStore{
		"local":     blobstore.NewLocalStore(t.TempDir()),
		"memory":    blobstore.NewMemoryStore(),
		"streaming": streamingStore{blobstore.NewMemoryStore()},
	}

	idx := seedIndex(t)
	require.NoError(t, idx.RecomputeFacetLevels(ctx, testOptions(t)...))
	want := dump(t, idx)

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			metrics := &BasicMetricsCollector{}

			_, err := LoadIndex(ctx, store)
			require.ErrorIs(t, err, ErrNoSnapshot)

			first, err := idx.Save(ctx, store, WithMetricsCollector(metrics))
			require.NoError(t, err)
			assert.Equal(t, "INDEX-000001.bin", first)
			second, err := idx.Save(ctx, store, WithMetricsCollector(metrics))
			require.NoError(t, err)
			assert.Equal(t, "INDEX-000002.bin", second)

			versions, err := Snapshots(ctx, store)
			require.NoError(t, err)
			assert.Equal(t, []uint64{1, 2}, versions)

			loaded, err := LoadIndex(ctx, store, WithMetricsCollector(metrics))
			require.NoError(t, err)
			t.Cleanup(func() { _ = loaded.Close() })
			assert.Equal(t, want, dump(t, loaded))

			require.NoError(t, loaded.View(func(txn *Txn) error {
				numbers, strs, err := loaded.LevelCount(txn, priceField)
				require.NoError(t, err)
				assert.Equal(t, 4, numbers)
				assert.Zero(t, strs)
				return nil
			}))

			stats := metrics.GetStats()
			assert.Equal(t, int64(3), stats.SnapshotCount)
			assert.Zero(t, stats.SnapshotErrors)
			assert.Equal(t, 3*int64(len(want)), stats.SnapshotBytes)
		})
	}
}

func TestSnapshot_LoadedIndexIsWritable(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	idx := seedIndex(t)
	_, err := idx.Save(ctx, store)
	require.NoError(t, err)

	loaded, err := LoadIndex(ctx, store)
	require.NoError(t, err)
	t.Cleanup(func() { _ = loaded.Close() })
	require.NoError(t, loaded.Update(func(txn *Txn) error {
		return loaded.AddNumberFacetValue(txn, priceField, 1e6, 5000)
	}))
	require.NoError(t, loaded.RecomputeFacetLevels(ctx, testOptions(t)...))

	require.NoError(t, loaded.View(func(txn *Txn) error {
		docids, err := loaded.NumberFacetedDocumentsIDs(txn, priceField)
		require.NoError(t, err)
		assert.Equal(t, uint64(1001), docids.Cardinality())
		return nil
	}))
}

func TestSnapshot_ConditionalPutSkipsTakenVersion(t *testing.T) {
	ctx := context.Background()
	mem := blobstore.NewMemoryStore()
	require.NoError(t, mem.Put(ctx, "INDEX-000001.bin", []byte("other writer")))

	idx := seedIndex(t)
	name, err := idx.Save(ctx, blindStore{mem})
	require.NoError(t, err)
	assert.Equal(t, "INDEX-000002.bin", name)

	blob, err := mem.Open(ctx, "INDEX-000001.bin")
	require.NoError(t, err)
	data, err := blobstore.ReadAll(ctx, blob)
	require.NoError(t, err)
	assert.Equal(t, "other writer", string(data))

	loaded, err := LoadIndex(ctx, mem)
	require.NoError(t, err)
	t.Cleanup(func() { _ = loaded.Close() })
	assert.Equal(t, dump(t, idx), dump(t, loaded))
}

func TestSnapshot_Corrupt(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	idx := seedIndex(t)
	name, err := idx.Save(ctx, store)
	require.NoError(t, err)

	data := dump(t, idx)
	data[len(data)-1] ^= 0xff
	require.NoError(t, store.Put(ctx, name, data))

	metrics := &BasicMetricsCollector{}
	_, err = LoadIndex(ctx, store, WithMetricsCollector(metrics))
	assert.ErrorIs(t, err, ErrNoSnapshot)
	assert.ErrorIs(t, err, ErrCorruptSnapshot)
	assert.Equal(t, int64(1), metrics.GetStats().SnapshotErrors)

	require.NoError(t, store.Put(ctx, blobstore.CurrentName, []byte("garbage")))
	_, err = LoadIndex(ctx, store)
	assert.ErrorIs(t, err, ErrCorruptSnapshot)
}

func TestSnapshot_OversizedHeader(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	// A valid header followed by a zstd frame claiming a 1 TiB payload.
	blob := []byte{0x42, 0x56, 0x4B, 0x46, 0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	blob = append(blob, 0x28, 0xB5, 0x2F, 0xFD, 0xE0, 0, 0, 0, 0, 0, 1, 0, 0)
	name := SnapshotName(1)
	require.NoError(t, store.Put(ctx, name, blob))
	require.NoError(t, store.Put(ctx, blobstore.CurrentName, []byte(name)))

	_, err := LoadIndex(ctx, store)
	assert.ErrorIs(t, err, ErrNoSnapshot)
	assert.ErrorIs(t, err, ErrCorruptSnapshot)
}

func TestPruneSnapshots(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	idx := seedIndex(t)

	for range 4 {
		_, err := idx.Save(ctx, store)
		require.NoError(t, err)
	}

	deleted, err := PruneSnapshots(ctx, store, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	versions, err := Snapshots(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 4}, versions)

	// CURRENT is kept even when it is not among the newest.
	require.NoError(t, store.Put(ctx, blobstore.CurrentName, []byte(SnapshotName(3))))
	deleted, err = PruneSnapshots(ctx, store, 0)
	require.NoError(t, err)
	assert.Zero(t, deleted)
	versions, err = Snapshots(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 4}, versions)
}

func TestParseSnapshotName(t *testing.T) {
	tests := []struct {
		name    string
		version uint64
		ok      bool
	}{
		{"INDEX-000001.bin", 1, true},
		{"INDEX-1234567.bin", 1234567, true},
		{"INDEX-.bin", 0, false},
		{"INDEX-000001", 0, false},
		{"CURRENT", 0, false},
		{"INDEX-abc.bin", 0, false},
	}
	for _, tt := range tests {
		v, ok := ParseSnapshotName(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.version, v, tt.name)
	}
	assert.Equal(t, "INDEX-000042.bin", SnapshotName(42))
}
