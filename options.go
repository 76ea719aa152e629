package facetidx

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hupe1980/facetidx/internal/facet"
	"github.com/hupe1980/facetidx/internal/sorter"
	"github.com/hupe1980/facetidx/resource"
)

// Compression selects the codec of staged level blocks.
type Compression = sorter.Compression

// Staging compressions.
const (
	CompressionNone = sorter.CompressionNone
	CompressionLZ4  = sorter.CompressionLZ4
	CompressionZstd = sorter.CompressionZstd
	CompressionS2   = sorter.CompressionS2
)

// ParseCompression parses "none", "lz4", "zstd", "s2" or "snappy".
func ParseCompression(s string) (Compression, error) {
	return sorter.ParseCompression(s)
}

type options struct {
	levelGroupSize   int
	minLevelSize     int
	compression      Compression
	tempDir          string
	parallelism      int
	resource         *resource.Controller
	metricsCollector MetricsCollector
	logger           *Logger
	clock            func() time.Time
}

// Option configures facet level computation.
type Option func(*options)

// WithLevelGroupSize sets how many lower-level groups one group spans.
// Values below 2 are raised to 2. Default: 4.
func WithLevelGroupSize(n int) Option {
	return func(o *options) {
		o.levelGroupSize = n
	}
}

// WithMinLevelSize sets the smallest number of entries a level must hold
// to be built. Default: 5.
func WithMinLevelSize(n int) Option {
	return func(o *options) {
		o.minLevelSize = n
	}
}

// WithCompression sets the block codec of the staged levels.
// Default: CompressionNone.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithTempDir sets the directory for staged levels. Default: os.TempDir().
func WithTempDir(dir string) Option {
	return func(o *options) {
		o.tempDir = dir
	}
}

// WithParallelism sets how many fields are computed concurrently.
// Default: 1.
//
// Computation only reads level 0; clearing and merging always run on the
// calling goroutine in field order, so the result does not depend on it.
func WithParallelism(n int) Option {
	return func(o *options) {
		o.parallelism = n
	}
}

// WithResourceController bounds background workers and staging IO.
//
// Example:
//
//	rc := resource.NewController(resource.Config{
//	    MaxBackgroundWorkers: 4,
//	    IOLimitBytesPerSec:   64 << 20,
//	})
//	f, _ := facetidx.NewFacets(idx, facetidx.WithParallelism(8), facetidx.WithResourceController(rc))
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resource = rc
	}
}

// WithMetricsCollector configures a metrics collector.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &facetidx.BasicMetricsCollector{}
//	f, _ := facetidx.NewFacets(idx, facetidx.WithMetricsCollector(metrics))
//	// ... run f.Execute ...
//	stats := metrics.GetStats()
//	fmt.Printf("levels built: %d\n", stats.LevelsBuilt)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := facetidx.NewJSONLogger(slog.LevelInfo)
//	f, _ := facetidx.NewFacets(idx, facetidx.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithClock overrides the time source of the updated-at timestamp.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.clock = now
	}
}

func applyOptions(optFns []Option) (options, error) {
	o := options{
		levelGroupSize:   facet.DefaultLevelGroupSize,
		minLevelSize:     facet.DefaultMinLevelSize,
		compression:      CompressionNone,
		parallelism:      1,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		clock:            time.Now,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}

	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.clock == nil {
		o.clock = time.Now
	}

	if o.levelGroupSize <= 0 {
		return o, fmt.Errorf("%w: %d", ErrInvalidLevelGroupSize, o.levelGroupSize)
	}
	if o.minLevelSize <= 0 {
		return o, fmt.Errorf("%w: %d", ErrInvalidMinLevelSize, o.minLevelSize)
	}
	if o.parallelism <= 0 {
		return o, fmt.Errorf("%w: %d", ErrInvalidParallelism, o.parallelism)
	}
	o.levelGroupSize = facet.ClampLevelGroupSize(o.levelGroupSize)
	return o, nil
}

func (o options) facetConfig() facet.Config {
	cfg := facet.DefaultConfig()
	cfg.LevelGroupSize = o.levelGroupSize
	cfg.MinLevelSize = o.minLevelSize
	cfg.Sorter.Compression = o.compression
	cfg.Sorter.TempDir = o.tempDir
	cfg.Sorter.Resource = o.resource
	return cfg
}
