package container_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/govariant/govariant/codec"
	"github.com/govariant/govariant/container"
	"github.com/govariant/govariant/endian"
	"github.com/govariant/govariant/errs"
	"github.com/govariant/govariant/format"
)

func TestContainer_NarrowingRoundTrip(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	c := container.New(engine)

	values := []int32{10, 20, 30, 127, 5}
	for _, v := range values {
		require.NoError(t, c.Append(format.I32, v))
	}
	require.NoError(t, c.Finalize())

	// All values fit in an i8, so finalize should narrow the on-disk type.
	require.Equal(t, format.I8, c.DataHeader().Type)
	require.False(t, c.DataHeader().IsUniform())

	cdc, err := codec.CreateCodec(format.CompressionNone, "test")
	require.NoError(t, err)
	require.NoError(t, c.Compress(cdc, 0))
	require.NoError(t, c.MarkWritten())

	decoded, err := container.Decode(engine, c.DataHeader(), container.Header{}, c.CompressedData(), nil, cdc)
	require.NoError(t, err)
	require.Equal(t, len(values), decoded.EntryCount())

	for i, want := range values {
		got, err := decoded.Int64At(i)
		require.NoError(t, err)
		require.Equal(t, int64(want), got)
	}
}

func TestContainer_UniformValueCollapse(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	c := container.New(engine)

	for i := 0; i < 100; i++ {
		require.NoError(t, c.Append(format.U32, uint32(42)))
	}
	require.NoError(t, c.Finalize())

	require.True(t, c.DataHeader().IsUniform())

	cdc, err := codec.CreateCodec(format.CompressionZstd, "test")
	require.NoError(t, err)
	require.NoError(t, c.Compress(cdc, 3))

	decoded, err := container.Decode(engine, c.DataHeader(), container.Header{}, c.CompressedData(), nil, cdc)
	require.NoError(t, err)
	require.Equal(t, 100, decoded.EntryCount())

	for i := 0; i < 100; i++ {
		got, err := decoded.Uint64At(i)
		require.NoError(t, err)
		require.Equal(t, uint64(42), got)
	}
}

func TestContainer_VariableStrideStrings(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	c := container.New(engine)

	alleles := []string{"A", "GT", "C", "AAAA"}
	for _, s := range alleles {
		for i := 0; i < len(s); i++ {
			require.NoError(t, c.Append(format.Char, s[i]))
		}
		require.NoError(t, c.AddStride(len(s)))
	}
	require.NoError(t, c.Finalize())

	require.True(t, c.DataHeader().IsVariableStride())

	cdc, err := codec.CreateCodec(format.CompressionS2, "test")
	require.NoError(t, err)
	require.NoError(t, c.Compress(cdc, 1))

	decoded, err := container.Decode(engine, c.DataHeader(), c.StrideHeader(), c.CompressedData(), c.CompressedStride(), cdc)
	require.NoError(t, err)
	require.Equal(t, len(alleles), decoded.EntryCount())

	for i, want := range alleles {
		got, err := decoded.BytesAt(i)
		require.NoError(t, err)
		require.Equal(t, want, string(got))
	}
}

func TestContainer_DecodeDetectsBitFlip(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	c := container.New(engine)

	values := []int32{10, 20, 30, 127, 5}
	for _, v := range values {
		require.NoError(t, c.Append(format.I32, v))
	}
	require.NoError(t, c.Finalize())

	cdc, err := codec.CreateCodec(format.CompressionNone, "test")
	require.NoError(t, err)
	require.NoError(t, c.Compress(cdc, 0))

	tampered := append([]byte(nil), c.CompressedData()...)
	tampered[0] ^= 0x01

	_, err = container.Decode(engine, c.DataHeader(), container.Header{}, tampered, nil, cdc)
	require.ErrorIs(t, err, errs.ErrChecksumMismatch)
}

func TestContainer_SchemaMismatchRejected(t *testing.T) {
	c := container.New(endian.GetLittleEndianEngine())
	require.NoError(t, c.Append(format.I32, int32(1)))
	require.Error(t, c.Append(format.I32, "not an int32"))
}
