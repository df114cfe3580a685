package varblock_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/govariant/govariant/codec"
	"github.com/govariant/govariant/digest"
	"github.com/govariant/govariant/endian"
	"github.com/govariant/govariant/errs"
	"github.com/govariant/govariant/format"
	"github.com/govariant/govariant/genotype"
	"github.com/govariant/govariant/keychain"
	"github.com/govariant/govariant/varblock"
)

func gt(a, b int32, phased bool) genotype.Genotype {
	return genotype.Genotype{Alleles: []int32{a, b}, Phased: phased}
}

func newBlock(t *testing.T, numSamples int) (*varblock.Schema, *varblock.Block) {
	t.Helper()
	schema := varblock.NewSchema()
	schema.ContigLengths[0] = 100_000
	schema.Info[1] = varblock.FieldSchema{ID: 1, Type: format.I32, Stride: 1}
	schema.Format[2] = varblock.FieldSchema{ID: 2, Type: format.U8, Stride: 1}

	return schema, varblock.New(schema, endian.GetLittleEndianEngine(), 0, numSamples)
}

// TestBlock_FlushDecodeRoundTrip exercises the S1 scenario: a single
// biallelic SNV across 4 samples, flushed then decoded back.
func TestBlock_FlushDecodeRoundTrip(t *testing.T) {
	schema, b := newBlock(t, 4)

	rec := varblock.Record{
		Contig: 0, Pos: 100, Quality: 40.0, Name: "rs1",
		Ref: "A", Alt: []string{"G"},
		Info:      []varblock.FieldValue{{ID: 1, Values: []any{int32(7)}}},
		FilterIDs: []uint32{},
		Genotypes: []genotype.Genotype{gt(0, 0, false), gt(0, 1, true), gt(1, 1, true), gt(0, 0, false)},
	}

	needsFlush, err := b.NeedsFlushBefore(rec, 1000, 1_000_000)
	require.NoError(t, err)
	require.False(t, needsFlush)
	require.NoError(t, b.Append(rec))
	require.Equal(t, 1, b.Len())

	cdc := codec.NoOpCodec{}
	opts := varblock.FlushOptions{
		Codec:            cdc,
		CompressionLevel: 1,
		PermuteGenotypes: true,
		Cipher:           format.CipherNone,
		Digests:          digest.NewManager(),
	}

	data, header, err := b.Flush(opts)
	require.NoError(t, err)
	require.Equal(t, int32(0), header.Contig)
	require.Equal(t, int32(100), header.MinPos)
	require.Equal(t, int32(100), header.MaxPos)
	require.Equal(t, uint32(1), header.VariantCount)
	require.True(t, header.Controller.Has(varblock.CtrlHasGenotypes))

	decoded, err := varblock.DecodeBlock(endian.GetLittleEndianEngine(), varblock.DecodeOptions{
		Codec:   cdc,
		BlockID: 0,
		Cipher:  format.CipherNone,
	}, schema, data)
	require.NoError(t, err)
	require.NotNil(t, decoded.Meta[varblock.MetaContigID])
	require.Equal(t, 1, decoded.Meta[varblock.MetaContigID].EntryCount())

	pos, err := decoded.Meta[varblock.MetaPosition].Int64At(0)
	require.NoError(t, err)
	require.Equal(t, int64(0), pos) // stored relative to block minPos

	infoCol, ok := decoded.Info[1]
	require.True(t, ok)
	v, err := infoCol.Int64At(0)
	require.NoError(t, err)
	require.Equal(t, int64(7), v)
}

// TestBlock_FlushDecodeDetectsBitFlip exercises the S5 tamper scenario at
// the block level: flip one bit in the last column's compressed payload
// bytes and confirm the real decode path (not a synthetic digest.Verify
// call) surfaces errs.ErrChecksumMismatch.
func TestBlock_FlushDecodeDetectsBitFlip(t *testing.T) {
	schema, b := newBlock(t, 0)

	rec := varblock.Record{
		Contig: 0, Pos: 100, Quality: 40.0, Name: "rs1",
		Ref: "A", Alt: []string{"G"},
		Info:      []varblock.FieldValue{{ID: 1, Values: []any{int32(7)}}},
		FilterIDs: []uint32{},
	}
	require.NoError(t, b.Append(rec))

	cdc := codec.NoOpCodec{}
	opts := varblock.FlushOptions{
		Codec:            cdc,
		CompressionLevel: 1,
		Cipher:           format.CipherNone,
		Digests:          digest.NewManager(),
	}

	data, _, err := b.Flush(opts)
	require.NoError(t, err)

	// Layout is [column records...][footer][footerLen(4)][sentinel(8)];
	// flip the last byte before the footer, landing inside the final
	// column's (here, INFO field 1's) compressed data bytes.
	require.GreaterOrEqual(t, len(data), 12)
	footerLen := binary.LittleEndian.Uint32(data[len(data)-12 : len(data)-8])
	footerOff := len(data) - 12 - int(footerLen)
	require.Greater(t, footerOff, 0)

	tampered := append([]byte(nil), data...)
	tampered[footerOff-1] ^= 0x01

	_, err = varblock.DecodeBlock(endian.GetLittleEndianEngine(), varblock.DecodeOptions{
		Codec:   cdc,
		BlockID: 0,
		Cipher:  format.CipherNone,
	}, schema, tampered)
	require.ErrorIs(t, err, errs.ErrChecksumMismatch)
}

// TestBlock_EncryptedRoundTrip verifies a block flushed with AES-256-GCM
// encryption decodes back via the keychain.
func TestBlock_EncryptedRoundTrip(t *testing.T) {
	schema, b := newBlock(t, 2)

	rec := varblock.Record{
		Contig: 0, Pos: 50, Ref: "A", Alt: []string{"T"},
		Genotypes: []genotype.Genotype{gt(0, 1, false), gt(1, 1, false)},
	}
	require.NoError(t, b.Append(rec))

	kc := keychain.New()
	cdc := codec.NoOpCodec{}
	opts := varblock.FlushOptions{
		Codec:            cdc,
		CompressionLevel: 1,
		Cipher:           format.CipherAES256GCM,
		Keychain:         kc,
		Digests:          digest.NewManager(),
	}

	data, header, err := b.Flush(opts)
	require.NoError(t, err)
	require.True(t, header.Controller.Has(varblock.CtrlAnyEncrypted))

	decoded, err := varblock.DecodeBlock(endian.GetLittleEndianEngine(), varblock.DecodeOptions{
		Codec:    cdc,
		BlockID:  0,
		Cipher:   format.CipherAES256GCM,
		Keychain: kc,
	}, schema, data)
	require.NoError(t, err)

	contig, err := decoded.Meta[varblock.MetaContigID].Int64At(0)
	require.NoError(t, err)
	require.Equal(t, int64(0), contig)
}

func TestBlock_NeedsFlush_ContigChange(t *testing.T) {
	_, b := newBlock(t, 0)
	require.NoError(t, b.Append(varblock.Record{Contig: 0, Pos: 10}))

	needsFlush, err := b.NeedsFlushBefore(varblock.Record{Contig: 1, Pos: 5}, 1000, 1_000_000)
	require.NoError(t, err)
	require.True(t, needsFlush)
}

// TestBlock_UnsortedInput mirrors scenario S6: writing (chr1,200) then
// (chr1,100) within one block must report UnsortedInput.
func TestBlock_UnsortedInput(t *testing.T) {
	_, b := newBlock(t, 0)
	require.NoError(t, b.Append(varblock.Record{Contig: 0, Pos: 200}))

	_, err := b.NeedsFlushBefore(varblock.Record{Contig: 0, Pos: 100}, 1000, 1_000_000)
	require.ErrorIs(t, err, errs.ErrUnsortedInput)
}

func TestBlock_NeedsFlush_VariantCountCheckpoint(t *testing.T) {
	_, b := newBlock(t, 0)
	require.NoError(t, b.Append(varblock.Record{Contig: 0, Pos: 10}))
	require.NoError(t, b.Append(varblock.Record{Contig: 0, Pos: 20}))

	needsFlush, err := b.NeedsFlushBefore(varblock.Record{Contig: 0, Pos: 30}, 2, 1_000_000)
	require.NoError(t, err)
	require.True(t, needsFlush)
}

func TestBlock_NeedsFlush_BasePairSpanCheckpoint(t *testing.T) {
	_, b := newBlock(t, 0)
	require.NoError(t, b.Append(varblock.Record{Contig: 0, Pos: 100}))

	needsFlush, err := b.NeedsFlushBefore(varblock.Record{Contig: 0, Pos: 10_100}, 1000, 5000)
	require.NoError(t, err)
	require.True(t, needsFlush)
}

func TestBlock_Append_ContigRangeViolation(t *testing.T) {
	_, b := newBlock(t, 0)
	err := b.Append(varblock.Record{Contig: 0, Pos: 999_999})
	require.ErrorIs(t, err, errs.ErrContigRangeViolation)
}

func TestPatternDict_InternDeduplicates(t *testing.T) {
	d := varblock.NewPatternDict()

	id1, err := d.Intern([]uint32{3, 1, 2})
	require.NoError(t, err)

	id2, err := d.Intern([]uint32{1, 2, 3})
	require.NoError(t, err)

	require.Equal(t, id1, id2)
	require.NotEqual(t, uint16(0), id1)

	empty, err := d.Intern(nil)
	require.NoError(t, err)
	require.Equal(t, uint16(0), empty)
}
