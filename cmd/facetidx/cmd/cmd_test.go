package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/facetidx"
	"github.com/hupe1980/facetidx/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) error {
	t.Helper()
	RootCmd.SetArgs(args)
	return RootCmd.Execute()
}

func TestImportRebuildInspect(t *testing.T) {
	dir := t.TempDir()
	storeDir := filepath.Join(dir, "store")
	input := filepath.Join(dir, "docs.ndjson")
	require.NoError(t, os.WriteFile(input, []byte(`{"id": 1, "price": 9.5, "color": "Blue"}
{"id": 2, "price": 20, "color": ["blue", "Red"], "ignored": "x"}

{"id": 3, "price": null, "color": true}
`), 0o600))

	require.NoError(t, run(t, "import", storeDir, input,
		"--field", "price=1", "--field", "color=2", "--temp-dir", dir, "--log-level", "error"))
	require.NoError(t, run(t, "rebuild", storeDir, "--group-size", "2", "--min-level-size", "1",
		"--compression", "lz4", "--temp-dir", dir, "--log-format", "json"))
	require.NoError(t, run(t, "fields", storeDir))
	require.NoError(t, run(t, "levels", storeDir, "2"))
	require.NoError(t, run(t, "snapshots", storeDir))

	ctx := context.Background()
	store := blobstore.NewLocalStore(storeDir)
	versions, err := facetidx.Snapshots(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, versions)

	idx, err := facetidx.LoadIndex(ctx, store)
	require.NoError(t, err)
	require.NoError(t, idx.View(func(txn *facetidx.Txn) error {
		fids, err := idx.FacetedFieldIDs(txn)
		require.NoError(t, err)
		assert.Equal(t, []facetidx.FieldID{1, 2}, fids)

		prices, err := idx.NumberFacetedDocumentsIDs(txn, 1)
		require.NoError(t, err)
		assert.Equal(t, []uint32{1, 2}, prices.ToArray())

		colors, err := idx.StringLevel(txn, 2, 0)
		require.NoError(t, err)
		require.Len(t, colors, 3)
		assert.Equal(t, "blue", colors[0].Left)
		assert.Equal(t, []uint32{1, 2}, colors[0].DocIDs.ToArray())

		_, strs, err := idx.LevelCount(txn, 2)
		require.NoError(t, err)
		assert.Equal(t, 2, strs)
		return nil
	}))

	require.NoError(t, run(t, "prune", storeDir, "--keep", "1"))
	versions, err = facetidx.Snapshots(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, versions)
}

func TestCommandErrors(t *testing.T) {
	dir := t.TempDir()

	assert.Error(t, run(t, "rebuild", dir, "--compression", "brotli"))
	assert.ErrorIs(t, run(t, "rebuild", dir, "--compression", "none"), facetidx.ErrNoSnapshot)
	assert.Error(t, run(t, "levels", dir, "70000"))
	assert.Error(t, run(t, "fields", dir, "--log-level", "loud"))
	assert.Error(t, run(t, "import", dir, filepath.Join(dir, "missing.ndjson")))
}
