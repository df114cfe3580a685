package vindex_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/govariant/govariant/endian"
	"github.com/govariant/govariant/vindex"
)

// TestIndex_IntervalQuery_S4 mirrors spec scenario S4: four blocks evenly
// covering a 400k-base contig; querying [150_000,250_000) must return
// exactly the two blocks whose ranges intersect it.
func TestIndex_IntervalQuery_S4(t *testing.T) {
	ix := vindex.New(vindex.ContigLengths{0: 400_000})

	require.NoError(t, ix.AddBlock(0, 1, 0, 99_999, 0, 100, 1000))
	require.NoError(t, ix.AddBlock(0, 2, 100_000, 199_999, 100, 100, 1000))
	require.NoError(t, ix.AddBlock(0, 3, 200_000, 299_999, 200, 100, 1000))
	require.NoError(t, ix.AddBlock(0, 4, 300_000, 399_999, 300, 100, 1000))

	got := ix.Query(0, 150_000, 250_000)
	require.ElementsMatch(t, []uint64{2, 3}, got)
}

// TestIndex_Soundness checks that every block containing a given position
// is returned by a point query at that position (spec §8 "Index
// soundness").
func TestIndex_Soundness(t *testing.T) {
	ix := vindex.New(vindex.ContigLengths{0: 1_000_000})

	require.NoError(t, ix.AddBlock(0, 10, 500, 50_000, 0, 1, 1))
	require.NoError(t, ix.AddBlock(0, 11, 40_000, 60_000, 1, 1, 1))

	got := ix.Query(0, 45_000, 45_000)
	require.Contains(t, got, uint64(10))
	require.Contains(t, got, uint64(11))
}

// TestIndex_Locality checks that query never returns a block whose range
// fails to intersect the query interval (spec §8 "Index locality").
func TestIndex_Locality(t *testing.T) {
	ix := vindex.New(vindex.ContigLengths{0: 1_000_000})

	require.NoError(t, ix.AddBlock(0, 1, 0, 10_000, 0, 1, 1))
	require.NoError(t, ix.AddBlock(0, 2, 900_000, 910_000, 1, 1, 1))

	got := ix.Query(0, 0, 10_000)
	require.NotContains(t, got, uint64(2))
}

func TestIndex_UnknownContig(t *testing.T) {
	ix := vindex.New(vindex.ContigLengths{0: 1000})
	require.Nil(t, ix.Query(99, 0, 10))
}

func TestLinearIndex_EncodeDecodeRoundTrip(t *testing.T) {
	li := vindex.NewLinearIndex()
	li.Append(0, vindex.LinearEntry{BlockID: 1, ByteOffset: 10, ByteLength: 20, MinPos: 0, MaxPos: 99, VariantCount: 5})
	li.Append(0, vindex.LinearEntry{BlockID: 2, ByteOffset: 30, ByteLength: 15, MinPos: 100, MaxPos: 199, VariantCount: 3})
	li.Append(1, vindex.LinearEntry{BlockID: 3, ByteOffset: 0, ByteLength: 5, MinPos: 0, MaxPos: 10, VariantCount: 1})

	engine := endian.GetLittleEndianEngine()
	data := li.Encode(engine)

	decoded, err := vindex.DecodeLinearIndex(engine, data)
	require.NoError(t, err)
	require.Len(t, decoded.Entries(0), 2)
	require.Equal(t, uint64(2), decoded.Entries(0)[1].BlockID)
	require.Len(t, decoded.Entries(1), 1)
}
