// Package codec implements the Codec Layer (spec component C3): pluggable
// compression adapters plus an encryption wrapper sharing the same
// byte-in/byte-out contract, operating on Data Container buffers.
//
// The Compressor/Decompressor/Codec split and the builtin-registry pattern
// are carried directly from the teacher's compress package
// (github.com/arloliu/mebo/compress), generalized from mebo's fixed
// two-column (timestamp/value) usage to an arbitrary number of variant-block
// columns, and extended with a Level parameter since the spec exposes
// compression_level as a tunable (1-20, default 6) rather than a fixed
// per-algorithm default.
package codec

import (
	"fmt"

	"github.com/govariant/govariant/format"
)

// Compressor compresses a byte payload at the given level (algorithms that
// don't support levels ignore it). The returned slice is newly allocated and
// owned by the caller; the input is never modified.
type Compressor interface {
	Compress(data []byte, level int) ([]byte, error)
}

// Decompressor decompresses a byte payload previously produced by the
// matching Compressor.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines compression and decompression for one algorithm.
type Codec interface {
	Compressor
	Decompressor
}

// CreateCodec is a factory returning the Codec implementing compressionType,
// or an error naming target for diagnostics.
func CreateCodec(compressionType format.CompressionType, target string) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return NoOpCodec{}, nil
	case format.CompressionZstd:
		return NewZstdCodec(), nil
	case format.CompressionS2:
		return S2Codec{}, nil
	case format.CompressionLZ4:
		return LZ4Codec{}, nil
	default:
		return nil, fmt.Errorf("codec: invalid %s compression type: %s", target, compressionType)
	}
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NoOpCodec{},
	format.CompressionZstd: NewZstdCodec(),
	format.CompressionS2:   S2Codec{},
	format.CompressionLZ4:  LZ4Codec{},
}

// GetCodec retrieves a shared built-in Codec for compressionType.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if c, ok := builtinCodecs[compressionType]; ok {
		return c, nil
	}

	return nil, fmt.Errorf("codec: unsupported compression type: %s", compressionType)
}

// TypeOf reports the format.CompressionType a builtin Codec value
// implements, so a Writer can persist which algorithm it used (spec §6 item
// 2: the archive's header record must let a Reader recover the matching
// Decompressor without being independently configured with the same Codec
// instance the Writer used). Returns format.CompressionNone for any Codec
// not constructed by this package.
func TypeOf(c Codec) format.CompressionType {
	switch c.(type) {
	case S2Codec:
		return format.CompressionS2
	case ZstdCodec:
		return format.CompressionZstd
	case LZ4Codec:
		return format.CompressionLZ4
	default:
		return format.CompressionNone
	}
}
