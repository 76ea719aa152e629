package s3_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hupe1980/facetidx"
	"github.com/hupe1980/facetidx/blobstore"
	s3blob "github.com/hupe1980/facetidx/blobstore/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestIntegration_Snapshots runs against S3_BUCKET. With DDB_TABLE set the
// CURRENT pointer is committed to DynamoDB instead of the bucket.
func TestIntegration_Snapshots(t *testing.T) {
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		t.Skip("S3_BUCKET not set")
	}

	ctx := context.Background()
	cfg, err := config.LoadDefaultConfig(ctx)
	require.NoError(t, err)

	prefix := fmt.Sprintf("test-facetidx-%d/", time.Now().UnixNano())
	base := s3blob.NewStore(s3.NewFromConfig(cfg), bucket, prefix, s3blob.WithUploadConfig(s3blob.UploadConfig{
		PartSize:       5 << 20,
		Concurrency:    2,
		EnableChecksum: true,
	}))
	var store blobstore.BlobStore = base
	if table := os.Getenv("DDB_TABLE"); table != "" {
		store = s3blob.NewDDBCommitStore(base, dynamodb.NewFromConfig(cfg), table, "s3://"+bucket+"/"+prefix)
	}
	t.Cleanup(func() {
		names, _ := base.List(ctx, "")
		for _, name := range names {
			_ = base.Delete(ctx, name)
		}
	})

	t.Run("Blob", func(t *testing.T) {
		data := make([]byte, 6<<20)
		_, _ = rand.Read(data)

		w, err := store.Create(ctx, "payload.bin")
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		r, err := store.Open(ctx, "payload.bin")
		require.NoError(t, err)
		defer r.Close()
		assert.Equal(t, int64(len(data)), r.Size())

		buf := make([]byte, 100)
		_, err = r.ReadAt(ctx, buf, 5<<20)
		require.NoError(t, err)
		assert.Equal(t, data[5<<20:5<<20+100], buf)

		_, err = store.Open(ctx, "missing.bin")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("SaveLoad", func(t *testing.T) {
		idx, err := facetidx.NewIndex()
		require.NoError(t, err)
		t.Cleanup(func() { _ = idx.Close() })
		require.NoError(t, idx.Update(func(txn *facetidx.Txn) error {
			require.NoError(t, idx.SetFacetedFields(txn, []facetidx.FieldID{7}))
			for doc := range uint32(64) {
				require.NoError(t, idx.AddStringFacetValue(txn, 7, fmt.Sprintf("tag-%02d", doc%32), doc))
			}
			return nil
		}))
		require.NoError(t, idx.RecomputeFacetLevels(ctx, facetidx.WithTempDir(t.TempDir())))

		name, err := idx.Save(ctx, store)
		require.NoError(t, err)

		loaded, err := facetidx.LoadIndex(ctx, store)
		require.NoError(t, err)
		t.Cleanup(func() { _ = loaded.Close() })
		require.NoError(t, loaded.View(func(txn *facetidx.Txn) error {
			docids, err := loaded.StringFacetedDocumentsIDs(txn, 7)
			require.NoError(t, err)
			assert.Equal(t, uint64(64), docids.Cardinality())
			_, strs, err := loaded.LevelCount(txn, 7)
			require.NoError(t, err)
			assert.Equal(t, 2, strs)
			return nil
		}))

		versions, err := facetidx.Snapshots(ctx, store)
		require.NoError(t, err)
		assert.Contains(t, versions, uint64(1))
		assert.Equal(t, facetidx.SnapshotName(1), name)
	})
}
