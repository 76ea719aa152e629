package minio_test

import (
	"context"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/hupe1980/facetidx"
	"github.com/hupe1980/facetidx/blobstore"
	minioblob "github.com/hupe1980/facetidx/blobstore/minio"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore connects to MINIO_ENDPOINT (default localhost:9000) and
// skips when no server answers.
func newTestStore(t *testing.T) *minioblob.Store {
	t.Helper()
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "localhost:9000"
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds: credentials.NewStaticV4("minioadmin", "minioadmin", ""),
	})
	if err != nil {
		t.Skipf("minio client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.ListBuckets(ctx); err != nil {
		t.Skipf("minio not available: %v", err)
	}

	const bucket = "test-facetidx"
	exists, err := client.BucketExists(context.Background(), bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(context.Background(), bucket, minio.MakeBucketOptions{}))
	}
	return minioblob.NewStore(client, bucket, fmt.Sprintf("run-%d/", time.Now().UnixNano()))
}

func TestStore_Blobs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "levels.bin", []byte("facet levels 0123")))

	blob, err := store.Open(ctx, "levels.bin")
	require.NoError(t, err)
	defer blob.Close()
	assert.Equal(t, int64(17), blob.Size())

	rc, err := blob.ReadRange(ctx, 6, 6)
	require.NoError(t, err)
	part, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "levels", string(part))

	wb, err := store.Create(ctx, "streamed.bin")
	require.NoError(t, err)
	_, err = wb.Write([]byte("streamed"))
	require.NoError(t, err)
	require.NoError(t, wb.Close())

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"levels.bin", "streamed.bin"}, names)

	for _, name := range names {
		require.NoError(t, store.Delete(ctx, name))
	}
	_, err = store.Open(ctx, "levels.bin")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
	assert.NoError(t, store.Delete(ctx, "levels.bin"))
}

func TestStore_SnapshotRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	idx, err := facetidx.NewIndex()
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	require.NoError(t, idx.Update(func(txn *facetidx.Txn) error {
		require.NoError(t, idx.SetFacetedFields(txn, []facetidx.FieldID{1}))
		for doc := range uint32(200) {
			require.NoError(t, idx.AddNumberFacetValue(txn, 1, float64(doc), doc))
		}
		return nil
	}))
	require.NoError(t, idx.RecomputeFacetLevels(ctx, facetidx.WithTempDir(t.TempDir())))

	for range 2 {
		_, err := idx.Save(ctx, store)
		require.NoError(t, err)
	}

	loaded, err := facetidx.LoadIndex(ctx, store)
	require.NoError(t, err)
	t.Cleanup(func() { _ = loaded.Close() })
	require.NoError(t, loaded.View(func(txn *facetidx.Txn) error {
		numbers, _, err := loaded.LevelCount(txn, 1)
		require.NoError(t, err)
		assert.Equal(t, 3, numbers)
		return nil
	}))

	removed, err := facetidx.PruneSnapshots(ctx, store, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	versions, err := facetidx.Snapshots(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, versions)

	for _, name := range []string{blobstore.CurrentName, facetidx.SnapshotName(2)} {
		require.NoError(t, store.Delete(ctx, name))
	}
}
