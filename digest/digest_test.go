package digest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/govariant/govariant/digest"
)

func TestVerify_DetectsBitFlip(t *testing.T) {
	data := []byte("compressed column payload")
	sum := digest.Sum512(data)

	require.NoError(t, digest.Verify(data, sum))

	tampered := append([]byte(nil), data...)
	tampered[0] ^= 0x01
	assert.Error(t, digest.Verify(tampered, sum))
}

func TestManager_UpdateAndLookup(t *testing.T) {
	m := digest.NewManager()
	key := digest.FieldKey{Kind: digest.FieldInfo, ID: 7}

	_, ok := m.Lookup(key)
	assert.False(t, ok)

	pair := digest.Pair{Uncompressed: digest.Sum512([]byte("a")), Compressed: digest.Sum512([]byte("b"))}
	m.Update(key, pair)

	got, ok := m.Lookup(key)
	require.True(t, ok)
	assert.Equal(t, pair, got)
	assert.Equal(t, 1, m.Len())
}

func TestManager_KeysSorted(t *testing.T) {
	m := digest.NewManager()
	m.Update(digest.FieldKey{Kind: digest.FieldFormat, ID: 3}, digest.Pair{})
	m.Update(digest.FieldKey{Kind: digest.FieldMeta, ID: 9}, digest.Pair{})
	m.Update(digest.FieldKey{Kind: digest.FieldMeta, ID: 1}, digest.Pair{})

	keys := m.Keys()
	require.Len(t, keys, 3)
	assert.Equal(t, digest.FieldMeta, keys[0].Kind)
	assert.Equal(t, uint32(1), keys[0].ID)
	assert.Equal(t, digest.FieldMeta, keys[1].Kind)
	assert.Equal(t, uint32(9), keys[1].ID)
	assert.Equal(t, digest.FieldFormat, keys[2].Kind)
}
