package buffer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/govariant/govariant/buffer"
	"github.com/govariant/govariant/endian"
)

func TestBuffer_AppendAndReadRoundTrip(t *testing.T) {
	b := buffer.New(endian.GetLittleEndianEngine())

	b.AppendUint8(0xAB)
	b.AppendInt16(-12)
	b.AppendUint32(1234567)
	b.AppendInt64(-9876543210)
	b.AppendFloat64(3.14159)
	b.AppendString("chr1")

	require.Equal(t, 1+2+4+8+8+4+4, b.Len())

	u8, err := b.Uint8At(0)
	require.NoError(t, err)
	assert.Equal(t, uint8(0xAB), u8)

	i32, err := b.Int64At(1 + 2 + 4)
	require.NoError(t, err)
	assert.Equal(t, int64(-9876543210), i32)

	s, next, err := b.StringAt(1 + 2 + 4 + 8 + 8)
	require.NoError(t, err)
	assert.Equal(t, "chr1", s)
	assert.Equal(t, b.Len(), next)
}

func TestBuffer_BoundsError(t *testing.T) {
	b := buffer.New(endian.GetLittleEndianEngine())
	b.AppendUint32(1)

	_, err := b.Uint64At(0)
	require.Error(t, err)
}

func TestBuffer_GrowNeverShrinks(t *testing.T) {
	b := buffer.NewWithCapacity(endian.GetLittleEndianEngine(), 1024)
	startCap := b.Cap()

	b.AppendBytes(make([]byte, 16))
	b.Reset()

	assert.GreaterOrEqual(t, b.Cap(), startCap)
	assert.Equal(t, 0, b.Len())
}
