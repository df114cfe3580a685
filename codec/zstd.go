package codec

import (
	"sync"

	"github.com/klauspost/compress/zstd"
)

// ZstdCodec provides Zstandard compression via the pure-Go klauspost/compress
// implementation. The teacher guards a cgo binding (valyala/gozstd) behind a
// build tag for maximum throughput; we deliberately keep only the pure-Go
// path here so the storage engine core has no cgo dependency (see
// DESIGN.md for the full rationale).
type ZstdCodec struct{}

var _ Codec = ZstdCodec{}

// NewZstdCodec creates a Zstd codec.
func NewZstdCodec() ZstdCodec { return ZstdCodec{} }

var (
	zstdEncoders sync.Map // map[zstd.EncoderLevel]*zstd.Encoder
	zstdDecoder  *zstd.Decoder
	zstdDecOnce  sync.Once
)

func zstdEncoderFor(level int) (*zstd.Encoder, error) {
	el := zstdLevelFromCompressionLevel(level)
	if enc, ok := zstdEncoders.Load(el); ok {
		return enc.(*zstd.Encoder), nil
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(el))
	if err != nil {
		return nil, err
	}

	actual, _ := zstdEncoders.LoadOrStore(el, enc)

	return actual.(*zstd.Encoder), nil
}

func zstdLevelFromCompressionLevel(level int) zstd.EncoderLevel {
	switch {
	case level <= 1:
		return zstd.SpeedFastest
	case level <= 6:
		return zstd.SpeedDefault
	case level <= 12:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedBestCompression
	}
}

// Compress compresses data at the given compression_level (1-20, mapped onto
// the library's four speed tiers).
func (ZstdCodec) Compress(data []byte, level int) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	enc, err := zstdEncoderFor(level)
	if err != nil {
		return nil, err
	}

	return enc.EncodeAll(data, make([]byte, 0, len(data))), nil
}

// Decompress decompresses Zstd-compressed data.
func (ZstdCodec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	zstdDecOnce.Do(func() {
		zstdDecoder, _ = zstd.NewReader(nil)
	})

	return zstdDecoder.DecodeAll(data, nil)
}
