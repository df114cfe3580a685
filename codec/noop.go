package codec

// NoOpCodec is the "stored/identity" codec of the Codec Layer. An archive
// uses one codec for every column, so a writer configured with NoOpCodec
// stores all columns uncompressed; no column switches to it on its own when
// another codec would inflate its payload.
type NoOpCodec struct{}

var _ Codec = NoOpCodec{}

// Compress returns data unchanged; level is ignored.
func (NoOpCodec) Compress(data []byte, level int) ([]byte, error) {
	return data, nil
}

// Decompress returns data unchanged.
func (NoOpCodec) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
