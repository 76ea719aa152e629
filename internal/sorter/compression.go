package sorter

import (
	"fmt"
	"strings"
	"sync"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the block codec of a staging file.
type Compression uint8

const (
	// CompressionNone stores blocks as is.
	CompressionNone Compression = iota
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4
	// CompressionZstd uses zstd (better ratio).
	CompressionZstd
	// CompressionS2 uses S2, the Snappy extension.
	CompressionS2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	case CompressionS2:
		return "s2"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression parses the String form of a Compression.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	case "s2", "snappy":
		return CompressionS2, nil
	default:
		return CompressionNone, fmt.Errorf("sorter: unknown compression %q", s)
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil)
}

// compressBlock returns the stored form of raw. The second result is false
// when the block is kept uncompressed because compression did not help.
func compressBlock(c Compression, raw []byte) ([]byte, bool, error) {
	var out []byte
	switch c {
	case CompressionNone:
		return raw, false, nil
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, buf, nil)
		if err != nil {
			return nil, false, err
		}
		out = buf[:n]
	case CompressionZstd:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, false, err
		}
		out = enc.EncodeAll(raw, nil)
		zstdEncoderPool.Put(enc)
	case CompressionS2:
		out = s2.Encode(nil, raw)
	default:
		return nil, false, fmt.Errorf("sorter: unknown compression %d", c)
	}

	// Keep incompressible blocks raw.
	if len(out) == 0 || len(out) >= len(raw) {
		return raw, false, nil
	}
	return out, true, nil
}

// decompressBlock decodes a stored block into dst, which is reused when large enough.
func decompressBlock(c Compression, dst, stored []byte, rawLen int) ([]byte, error) {
	if cap(dst) < rawLen {
		dst = make([]byte, rawLen)
	}
	dst = dst[:rawLen]

	switch c {
	case CompressionLZ4:
		n, err := lz4.UncompressBlock(stored, dst)
		if err != nil {
			return nil, err
		}
		if n != rawLen {
			return nil, fmt.Errorf("lz4: decompressed %d bytes, want %d", n, rawLen)
		}
		return dst, nil
	case CompressionZstd:
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, err
		}
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(stored, dst[:0])
		if err != nil {
			return nil, err
		}
		if len(out) != rawLen {
			return nil, fmt.Errorf("zstd: decompressed %d bytes, want %d", len(out), rawLen)
		}
		return out, nil
	case CompressionS2:
		n, err := s2.DecodedLen(stored)
		if err != nil {
			return nil, err
		}
		if n != rawLen {
			return nil, fmt.Errorf("s2: block holds %d bytes, want %d", n, rawLen)
		}
		return s2.Decode(dst, stored)
	default:
		return nil, fmt.Errorf("sorter: unknown compression %d", c)
	}
}
