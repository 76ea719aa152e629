package sorter

import (
	"github.com/hupe1980/facetidx/internal/fs"
	"github.com/hupe1980/facetidx/resource"
)

// DefaultBlockSize is the raw size at which a block is flushed.
const DefaultBlockSize = 64 * 1024

// Options configures a staging Writer.
type Options struct {
	// Compression is the block codec. Default: CompressionNone.
	Compression Compression

	// BlockSize is the raw block size in bytes. Default: DefaultBlockSize.
	BlockSize int

	// TempDir is the directory for staging files. Default: os.TempDir().
	TempDir string

	// Resource throttles staging writes. Nil means unlimited.
	Resource *resource.Controller

	// FS creates and removes staging files. Default: fs.Default.
	FS fs.FileSystem
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		Compression: CompressionNone,
		BlockSize:   DefaultBlockSize,
	}
}

func (o Options) withDefaults() Options {
	if o.BlockSize <= 0 {
		o.BlockSize = DefaultBlockSize
	}
	if o.FS == nil {
		o.FS = fs.Default
	}
	return o
}
