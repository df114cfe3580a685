package keychain_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/govariant/govariant/endian"
	"github.com/govariant/govariant/keychain"
)

func TestKeychain_PutLookupEncodeRoundTrip(t *testing.T) {
	k := keychain.New()
	tag := [16]byte{1, 2, 3}
	require.NoError(t, k.Put(7, 3, []byte("0123456789012345678901234567ab"), []byte("abcdefghijkl"), tag))
	require.NoError(t, k.Put(7, 4, []byte("x0123456789012345678901234567a"), []byte("mnopqrstuvwx"), tag))
	require.Equal(t, 2, k.Len())

	e, ok := k.Lookup(7, 3)
	require.True(t, ok)
	require.Equal(t, uint64(7), e.BlockID)
	require.Equal(t, uint32(3), e.ColID)

	engine := endian.GetLittleEndianEngine()
	data := k.Encode(engine)

	decoded, err := keychain.Decode(engine, data)
	require.NoError(t, err)
	require.Equal(t, 2, decoded.Len())

	de, ok := decoded.Lookup(7, 4)
	require.True(t, ok)
	require.Equal(t, e.Tag, tag)
	require.Equal(t, []byte("x0123456789012345678901234567a"), de.Key)
}
