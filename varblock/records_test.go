package varblock_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/govariant/govariant/codec"
	"github.com/govariant/govariant/digest"
	"github.com/govariant/govariant/endian"
	"github.com/govariant/govariant/format"
	"github.com/govariant/govariant/genotype"
	"github.com/govariant/govariant/varblock"
)

// TestToRecords_RoundTrip flushes a handful of records with INFO, FORMAT,
// and genotype data, decodes the block, and verifies ToRecords reconstructs
// the original Records (spec §4.9's read-side transposition inverse).
func TestToRecords_RoundTrip(t *testing.T) {
	schema := varblock.NewSchema()
	schema.ContigLengths[0] = 1_000_000
	schema.Info[1] = varblock.FieldSchema{ID: 1, Type: format.I32, Stride: 1}
	schema.Format[2] = varblock.FieldSchema{ID: 2, Type: format.U8, Stride: 1}

	engine := endian.GetLittleEndianEngine()
	b := varblock.New(schema, engine, 7, 3)

	recs := []varblock.Record{
		{
			Contig: 0, Pos: 1000, Quality: 30, Name: "rs1",
			Ref: "A", Alt: []string{"G"},
			Info:      []varblock.FieldValue{{ID: 1, Values: []any{int32(5)}}},
			FilterIDs: []uint32{11},
			Format: [][]varblock.FieldValue{
				{{ID: 2, Values: []any{uint8(10)}}},
				{{ID: 2, Values: []any{uint8(20)}}},
				{{ID: 2, Values: []any{uint8(30)}}},
			},
			Genotypes: []genotype.Genotype{
				{Alleles: []int32{0, 0}, Phased: false},
				{Alleles: []int32{0, 1}, Phased: true},
				{Alleles: []int32{1, 1}, Phased: true},
			},
		},
		{
			Contig: 0, Pos: 2000, Quality: 40, Name: "rs2",
			Ref: "C", Alt: []string{"T"},
			FilterIDs: []uint32{},
			Genotypes: []genotype.Genotype{
				{Alleles: []int32{0, 0}, Phased: false},
				{Alleles: []int32{0, 0}, Phased: false},
				{Alleles: []int32{0, 1}, Phased: false},
			},
		},
	}

	for _, rec := range recs {
		needsFlush, err := b.NeedsFlushBefore(rec, 1000, 1_000_000)
		require.NoError(t, err)
		require.False(t, needsFlush)
		require.NoError(t, b.Append(rec))
	}

	opts := varblock.FlushOptions{
		Codec:            codec.NoOpCodec{},
		CompressionLevel: 1,
		PermuteGenotypes: true,
		Cipher:           format.CipherNone,
		Digests:          digest.NewManager(),
	}

	data, header, err := b.Flush(opts)
	require.NoError(t, err)

	decoded, err := varblock.DecodeBlock(engine, varblock.DecodeOptions{
		Codec:   codec.NoOpCodec{},
		BlockID: 7,
		Cipher:  format.CipherNone,
	}, schema, data)
	require.NoError(t, err)

	got, err := varblock.ToRecords(schema, header, 3, decoded)
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.Equal(t, int32(1000), got[0].Pos)
	require.Equal(t, "A", got[0].Ref)
	require.Equal(t, []string{"G"}, got[0].Alt)
	require.Equal(t, []uint32{11}, got[0].FilterIDs)
	require.Len(t, got[0].Info, 1)
	require.Equal(t, uint32(1), got[0].Info[0].ID)
	require.Equal(t, int32(5), got[0].Info[0].Values[0])
	require.Len(t, got[0].Format, 3)
	require.Equal(t, uint8(10), got[0].Format[0][0].Values[0])
	require.Equal(t, uint8(30), got[0].Format[2][0].Values[0])
	require.Len(t, got[0].Genotypes, 3)
	require.Equal(t, []int32{0, 1}, got[0].Genotypes[1].Alleles)

	require.Equal(t, int32(2000), got[1].Pos)
	require.Equal(t, "C", got[1].Ref)
	require.Empty(t, got[1].Info)
	require.Len(t, got[1].Format, 3)
	for _, sampleFields := range got[1].Format {
		require.Empty(t, sampleFields)
	}
	require.Len(t, got[1].Genotypes, 3)
	require.Equal(t, []int32{0, 1}, got[1].Genotypes[2].Alleles)
}

// TestToRecords_NegativeInfoValue exercises Finalize's integer narrowing
// together with readEntry's sign-extension on the read path: an I32 INFO
// field holding only small negative values gets narrowed to a single-byte
// on-disk type, and ToRecords must still reconstruct the original negative
// int32, not a zero-extended positive one.
func TestToRecords_NegativeInfoValue(t *testing.T) {
	schema := varblock.NewSchema()
	schema.ContigLengths[0] = 1_000_000
	schema.Info[1] = varblock.FieldSchema{ID: 1, Type: format.I32, Stride: 1}

	engine := endian.GetLittleEndianEngine()
	b := varblock.New(schema, engine, 1, 0)

	recs := []varblock.Record{
		{
			Contig: 0, Pos: 100, Quality: 1, Name: "rs1",
			Ref: "A", Alt: []string{"G"},
			Info:      []varblock.FieldValue{{ID: 1, Values: []any{int32(-3)}}},
			FilterIDs: []uint32{},
		},
		{
			Contig: 0, Pos: 200, Quality: 1, Name: "rs2",
			Ref: "C", Alt: []string{"T"},
			Info:      []varblock.FieldValue{{ID: 1, Values: []any{int32(-1)}}},
			FilterIDs: []uint32{},
		},
	}

	for _, rec := range recs {
		require.NoError(t, b.Append(rec))
	}

	opts := varblock.FlushOptions{
		Codec:            codec.NoOpCodec{},
		CompressionLevel: 1,
		Cipher:           format.CipherNone,
		Digests:          digest.NewManager(),
	}

	data, header, err := b.Flush(opts)
	require.NoError(t, err)

	decoded, err := varblock.DecodeBlock(engine, varblock.DecodeOptions{
		Codec:   codec.NoOpCodec{},
		BlockID: 1,
		Cipher:  format.CipherNone,
	}, schema, data)
	require.NoError(t, err)

	got, err := varblock.ToRecords(schema, header, 0, decoded)
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.Equal(t, int32(-3), got[0].Info[0].Values[0])
	require.Equal(t, int32(-1), got[1].Info[0].Values[0])
}
