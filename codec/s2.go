package codec

import "github.com/klauspost/compress/s2"

// S2Codec provides S2 compression, a Snappy-compatible algorithm tuned for
// high throughput. Good default for columns flushed at high block rates
// where compression cost matters more than ratio.
type S2Codec struct{}

var _ Codec = S2Codec{}

// Compress compresses data with S2. level is ignored; S2 has no level knob.
func (S2Codec) Compress(data []byte, level int) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Encode(nil, data), nil
}

// Decompress decompresses S2-compressed data.
func (S2Codec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Decode(nil, data)
}
