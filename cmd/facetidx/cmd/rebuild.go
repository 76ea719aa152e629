package cmd

import (
	"fmt"
	"runtime"

	"github.com/hupe1980/facetidx"
	"github.com/hupe1980/facetidx/resource"
	"github.com/spf13/cobra"
)

var (
	groupSize    int
	minLevelSize int
	compression  string
	parallelism  int
	tempDir      string
	ioLimit      int64
)

// rebuildCmd represents the rebuild command
var rebuildCmd = &cobra.Command{
	Use:   "rebuild [store]",
	Short: "rebuild recomputes every facet level and saves a new snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := rebuildOptions()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		store, err := openStore(ctx, args[0])
		if err != nil {
			return err
		}
		idx, err := loadIndex(ctx, store, false)
		if err != nil {
			return err
		}
		defer func() { _ = idx.Close() }()

		metrics := &facetidx.BasicMetricsCollector{}
		if err := idx.RecomputeFacetLevels(ctx, append(opts, facetidx.WithMetricsCollector(metrics))...); err != nil {
			return err
		}
		name, err := idx.Save(ctx, store, facetidx.WithLogger(logger))
		if err != nil {
			return err
		}

		stats := metrics.GetStats()
		fmt.Printf("rebuilt %d fields, %d levels over %d entries, saved %s\n",
			stats.RebuildFields, stats.LevelsBuilt, stats.Level0Entries, name)
		return nil
	},
}

func addRebuildFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&groupSize, "group-size", 4, "level-(L-1) groups per level-L entry")
	cmd.Flags().IntVar(&minLevelSize, "min-level-size", 5, "smallest number of entries a level must hold")
	cmd.Flags().StringVar(&compression, "compression", "none", "staging compression: none, lz4, zstd or s2")
	cmd.Flags().IntVar(&parallelism, "parallelism", runtime.GOMAXPROCS(0), "fields computed concurrently")
	cmd.Flags().StringVar(&tempDir, "temp-dir", "", "directory for staged levels")
	cmd.Flags().Int64Var(&ioLimit, "io-limit", 0, "staging IO limit in bytes per second, 0 for none")
}

// rebuildOptions turns the rebuild flags into options. Out of range sizes
// surface as errors from the rebuild.
func rebuildOptions() ([]facetidx.Option, error) {
	c, err := facetidx.ParseCompression(compression)
	if err != nil {
		return nil, err
	}
	return []facetidx.Option{
		facetidx.WithLevelGroupSize(groupSize),
		facetidx.WithMinLevelSize(minLevelSize),
		facetidx.WithParallelism(parallelism),
		facetidx.WithTempDir(tempDir),
		facetidx.WithLogger(logger),
		facetidx.WithResourceController(resource.NewController(resource.Config{
			MaxBackgroundWorkers: int64(max(parallelism, 1)),
			IOLimitBytesPerSec:   ioLimit,
		})),
		facetidx.WithCompression(c),
	}, nil
}

func init() {
	RootCmd.AddCommand(rebuildCmd)
	addRebuildFlags(rebuildCmd)
}
