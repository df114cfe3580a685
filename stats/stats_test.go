package stats_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/govariant/govariant/digest"
	"github.com/govariant/govariant/endian"
	"github.com/govariant/govariant/stats"
)

func TestManager_UpdateAccumulates(t *testing.T) {
	m := stats.NewManager()
	key := digest.FieldKey{Kind: digest.FieldInfo, ID: 7}

	m.Update(key, 100, 40)
	m.Update(key, 50, 20)

	got, ok := m.Lookup(key)
	require.True(t, ok)
	require.Equal(t, uint64(150), got.UncompressedBytes)
	require.Equal(t, uint64(60), got.CompressedBytes)
	require.InDelta(t, 0.4, m.CompressionRatio(key), 1e-9)
}

func TestManager_EncodeDecodeRoundTrip(t *testing.T) {
	m := stats.NewManager()
	m.Update(digest.FieldKey{Kind: digest.FieldMeta, ID: 0}, 1000, 400)
	m.Update(digest.FieldKey{Kind: digest.FieldInfo, ID: 5}, 200, 80)
	m.Update(digest.FieldKey{Kind: digest.FieldFormat, ID: 5}, 300, 120)

	engine := endian.GetLittleEndianEngine()
	data := m.Encode(engine)

	got, err := stats.Decode(engine, data)
	require.NoError(t, err)
	require.Equal(t, m.Len(), got.Len())

	for _, key := range m.Keys() {
		want, _ := m.Lookup(key)
		have, ok := got.Lookup(key)
		require.True(t, ok)
		require.Equal(t, want, have)
	}
}

func TestManager_LookupMissing(t *testing.T) {
	m := stats.NewManager()
	_, ok := m.Lookup(digest.FieldKey{Kind: digest.FieldInfo, ID: 99})
	require.False(t, ok)
	require.Equal(t, float64(0), m.CompressionRatio(digest.FieldKey{Kind: digest.FieldInfo, ID: 99}))
}
