package facetidx

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/hupe1980/facetidx/internal/facet"
	"github.com/hupe1980/facetidx/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	priceField FieldID = 1
	colorField FieldID = 2
	emptyField FieldID = 3
)

// seedIndex fills 1000 prices, 100 colors and one faceted field without values.
func seedIndex(t *testing.T) *Index {
	t.Helper()
	idx := newTestIndex(t)
	require.NoError(t, idx.Update(func(txn *Txn) error {
		require.NoError(t, idx.SetFacetedFields(txn, []FieldID{priceField, colorField, emptyField}))
		for i := range 1000 {
			require.NoError(t, idx.AddNumberFacetValue(txn, priceField, float64(i)/4, uint32(i)))
		}
		for i := range 100 {
			require.NoError(t, idx.AddStringFacetValue(txn, colorField, fmt.Sprintf("Color-%03d", i), uint32(i), uint32(i+1000)))
		}
		return nil
	}))
	return idx
}

func testOptions(t *testing.T, extra ...Option) []Option {
	return append([]Option{WithTempDir(t.TempDir())}, extra...)
}

func TestFacets_Execute(t *testing.T) {
	ctx := context.Background()
	idx := seedIndex(t)
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	metrics := &BasicMetricsCollector{}

	require.NoError(t, idx.RecomputeFacetLevels(ctx, testOptions(t,
		WithClock(func() time.Time { return now }),
		WithMetricsCollector(metrics),
	)...))

	require.NoError(t, idx.View(func(txn *Txn) error {
		updated, ok, err := idx.UpdatedAt(txn)
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, now.Equal(updated))

		numbers, strs, err := idx.LevelCount(txn, priceField)
		require.NoError(t, err)
		assert.Equal(t, 4, numbers)
		assert.Zero(t, strs)

		for level, want := range map[uint8]int{1: 250, 2: 63, 3: 16} {
			entries, err := idx.NumberLevel(txn, priceField, level)
			require.NoError(t, err)
			assert.Len(t, entries, want, "level %d", level)
		}

		numbers, strs, err = idx.LevelCount(txn, colorField)
		require.NoError(t, err)
		assert.Zero(t, numbers)
		assert.Equal(t, 3, strs)

		level1, err := idx.StringLevel(txn, colorField, 1)
		require.NoError(t, err)
		require.Len(t, level1, 25)
		assert.Equal(t, "color-000", level1[0].Left)
		assert.Equal(t, "color-003", level1[0].Right)
		assert.Equal(t, []uint32{0, 1, 2, 3, 1000, 1001, 1002, 1003}, level1[0].DocIDs.ToArray())

		level2, err := idx.StringLevel(txn, colorField, 2)
		require.NoError(t, err)
		assert.Len(t, level2, 7)

		priceDocs, err := idx.NumberFacetedDocumentsIDs(txn, priceField)
		require.NoError(t, err)
		assert.Equal(t, uint64(1000), priceDocs.Cardinality())

		colorDocs, err := idx.StringFacetedDocumentsIDs(txn, colorField)
		require.NoError(t, err)
		assert.Equal(t, uint64(200), colorDocs.Cardinality())

		emptyDocs, err := idx.NumberFacetedDocumentsIDs(txn, emptyField)
		require.NoError(t, err)
		assert.True(t, emptyDocs.IsEmpty())
		return nil
	}))

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.RebuildCount)
	assert.Equal(t, int64(3), stats.RebuildFields)
	assert.Equal(t, int64(6), stats.FieldLevelsCount)
	assert.Equal(t, int64(5), stats.LevelsBuilt)
	assert.Equal(t, int64(1100), stats.Level0Entries)
	assert.Zero(t, stats.RebuildErrors)
}

func TestFacets_ExecuteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	idx := seedIndex(t)

	levels := func() [][]NumberEntry {
		var out [][]NumberEntry
		require.NoError(t, idx.View(func(txn *Txn) error {
			for level := uint8(1); level <= 3; level++ {
				entries, err := idx.NumberLevel(txn, priceField, level)
				require.NoError(t, err)
				out = append(out, entries)
			}
			return nil
		}))
		return out
	}

	require.NoError(t, idx.RecomputeFacetLevels(ctx, testOptions(t)...))
	first := levels()
	require.NoError(t, idx.RecomputeFacetLevels(ctx, testOptions(t)...))
	assert.Equal(t, first, levels())
}

func TestFacets_ParallelismDoesNotChangeResult(t *testing.T) {
	ctx := context.Background()

	snapshot := func(opts ...Option) []byte {
		idx := seedIndex(t)
		require.NoError(t, idx.RecomputeFacetLevels(ctx, testOptions(t, append(opts,
			WithClock(func() time.Time { return time.Unix(0, 0) }),
		)...)...))
		var buf bytes.Buffer
		_, err := idx.store.WriteTo(&buf)
		require.NoError(t, err)
		return buf.Bytes()
	}

	rc := resource.NewController(resource.Config{MaxBackgroundWorkers: 2})
	sequential := snapshot()
	assert.Equal(t, sequential, snapshot(WithParallelism(8)))
	assert.Equal(t, sequential, snapshot(WithParallelism(3), WithResourceController(rc)))
	assert.Equal(t, sequential, snapshot(WithCompression(CompressionZstd)))
}

func TestFacets_ShrinkingFieldDropsStaleLevels(t *testing.T) {
	ctx := context.Background()
	idx := seedIndex(t)
	require.NoError(t, idx.RecomputeFacetLevels(ctx, testOptions(t)...))

	// Rebuilding with a larger group size leaves fewer levels.
	require.NoError(t, idx.RecomputeFacetLevels(ctx, testOptions(t, WithLevelGroupSize(16))...))
	require.NoError(t, idx.View(func(txn *Txn) error {
		numbers, _, err := idx.LevelCount(txn, priceField)
		require.NoError(t, err)
		assert.Equal(t, 2, numbers)

		level1, err := idx.NumberLevel(txn, priceField, 1)
		require.NoError(t, err)
		assert.Len(t, level1, 63)

		for _, level := range []uint8{2, 3} {
			entries, err := idx.NumberLevel(txn, priceField, level)
			require.NoError(t, err)
			assert.Empty(t, entries)
		}
		return nil
	}))
}

func TestFacets_ReadOnlyTxn(t *testing.T) {
	idx := seedIndex(t)
	f, err := NewFacets(idx, testOptions(t)...)
	require.NoError(t, err)

	txn, err := idx.Begin(false)
	require.NoError(t, err)
	defer txn.Abort()

	assert.ErrorIs(t, f.Execute(context.Background(), txn), ErrReadOnlyTxn)
}

func TestFacets_InvalidOptions(t *testing.T) {
	idx := newTestIndex(t)

	_, err := NewFacets(idx, WithLevelGroupSize(0))
	assert.ErrorIs(t, err, ErrInvalidLevelGroupSize)
	_, err = NewFacets(idx, WithMinLevelSize(-1))
	assert.ErrorIs(t, err, ErrInvalidMinLevelSize)
	_, err = NewFacets(idx, WithParallelism(0))
	assert.ErrorIs(t, err, ErrInvalidParallelism)
	assert.ErrorIs(t, idx.RecomputeFacetLevels(context.Background(), WithLevelGroupSize(-3)), ErrInvalidLevelGroupSize)

	f, err := NewFacets(idx, WithLevelGroupSize(1), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, f.opts.levelGroupSize)
}

func TestFacets_CanceledRollsBack(t *testing.T) {
	idx := seedIndex(t)
	require.NoError(t, idx.RecomputeFacetLevels(context.Background(), testOptions(t)...))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	metrics := &BasicMetricsCollector{}
	err := idx.RecomputeFacetLevels(ctx, testOptions(t, WithMetricsCollector(metrics))...)
	require.ErrorIs(t, err, context.Canceled)

	var fe *ErrFieldLevels
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, priceField, fe.FieldID)
	assert.Equal(t, KindNumber, fe.Kind)
	assert.Equal(t, int64(1), metrics.GetStats().RebuildErrors)

	require.NoError(t, idx.View(func(txn *Txn) error {
		numbers, _, err := idx.LevelCount(txn, priceField)
		require.NoError(t, err)
		assert.Equal(t, 4, numbers)
		return nil
	}))
}

func TestFacets_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	idx := seedIndex(t)

	require.NoError(t, idx.RecomputeFacetLevels(context.Background(), testOptions(t, WithLogger(logger))...))

	out := buf.String()
	assert.Contains(t, out, `"msg":"facet levels computed"`)
	assert.Contains(t, out, `"field_id":1`)
	assert.Contains(t, out, `"top_level":3`)
	assert.Contains(t, out, `"msg":"facet rebuild completed"`)
	assert.Contains(t, out, `"msg":"facet levels cleared"`)

	buf.Reset()
	require.NoError(t, idx.RecomputeFacetLevels(context.Background(), testOptions(t, WithLogger(logger))...))
	assert.Contains(t, buf.String(), `"number_entries":329`, "second rebuild clears the stale levels 1-3")
}

func TestTranslateError(t *testing.T) {
	assert.NoError(t, translateError(nil))

	conflict := &facet.MergeConflictError{Process: numberLevelsProcess, Key: []byte{0, 1, 1}}
	err := translateError(fmt.Errorf("merge: %w", conflict))
	var mc *ErrMergeConflict
	require.ErrorAs(t, err, &mc)
	assert.Equal(t, numberLevelsProcess, mc.Process)
	assert.Equal(t, []byte{0, 1, 1}, mc.Key)
	assert.ErrorIs(t, err, ErrInternal)
	assert.ErrorIs(t, err, conflict)

	wrapped := &ErrFieldLevels{FieldID: 4, Kind: KindNumber, cause: err}
	assert.Same(t, wrapped, translateError(wrapped))
	assert.ErrorIs(t, wrapped, ErrInternal)
	assert.Contains(t, wrapped.Error(), "number levels of field 4")
}
