package writer_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/govariant/govariant/codec"
	"github.com/govariant/govariant/endian"
	"github.com/govariant/govariant/format"
	"github.com/govariant/govariant/reader"
	"github.com/govariant/govariant/varblock"
	"github.com/govariant/govariant/vindex"
	"github.com/govariant/govariant/writer"
)

// TestWriterReader_RoundTrip writes an archive across two contigs (forcing
// at least one block flush on the contig boundary) and reads it back end to
// end through both Iterate and Seek, verifying the on-disk footer's
// EndOfDataOffset actually locates the tail sections (spec §4.8/§4.9's
// "open(sink) ... close()" / "open(source) ... iter_blocks()" contracts).
func TestWriterReader_RoundTrip(t *testing.T) {
	schema := varblock.NewSchema()
	schema.ContigLengths[0] = 1_000_000
	schema.ContigLengths[1] = 500_000
	schema.Info[1] = varblock.FieldSchema{ID: 1, Type: format.I32, Stride: 1}

	engine := endian.GetLittleEndianEngine()
	metadata := []byte(`{"contigs":["chr1","chr2"],"samples":2}`)

	var sink bytes.Buffer
	w, err := writer.Open(&sink, engine, schema, 2, vindex.ContigLengths{0: 1_000_000, 1: 500_000}, metadata,
		writer.WithCodec(codec.NoOpCodec{}),
		writer.WithWorkers(2),
		writer.WithCheckpointVariants(2),
	)
	require.NoError(t, err)

	recs := []varblock.Record{
		{Contig: 0, Pos: 100, Quality: 10, Name: "rs1", Ref: "A", Alt: []string{"G"}, FilterIDs: []uint32{},
			Info: []varblock.FieldValue{{ID: 1, Values: []any{int32(7)}}},
		},
		{Contig: 0, Pos: 200, Quality: 20, Name: "rs2", Ref: "C", Alt: []string{"T"}, FilterIDs: []uint32{}},
		{Contig: 0, Pos: 300, Quality: 30, Name: "rs3", Ref: "G", Alt: []string{"A"}, FilterIDs: []uint32{}},
		{Contig: 1, Pos: 50, Quality: 40, Name: "rs4", Ref: "T", Alt: []string{"C"}, FilterIDs: []uint32{}},
	}

	for _, rec := range recs {
		require.NoError(t, w.Append(rec))
	}
	require.NoError(t, w.Close())

	data := sink.Bytes()
	src := bytes.NewReader(data)

	r, err := reader.Open(src, int64(len(data)), engine,
		reader.WithSchema(schema),
		reader.WithNumSamples(2),
	)
	require.NoError(t, err)

	require.Equal(t, metadata, r.Metadata())
	require.Equal(t, uint64(len(recs)), r.VariantCount())
	require.Equal(t, []int32{0, 1}, r.Contigs())

	var got []varblock.Record
	for rec, err := range r.Iterate() {
		require.NoError(t, err)
		got = append(got, rec)
	}
	require.Len(t, got, len(recs))
	for i, rec := range recs {
		require.Equal(t, rec.Contig, got[i].Contig)
		require.Equal(t, rec.Pos, got[i].Pos)
		require.Equal(t, rec.Ref, got[i].Ref)
		require.Equal(t, rec.Alt, got[i].Alt)
	}

	var seeked []varblock.Record
	for rec, err := range r.Seek(0, 150, 300) {
		require.NoError(t, err)
		seeked = append(seeked, rec)
	}
	require.Len(t, seeked, 2)
	require.Equal(t, int32(200), seeked[0].Pos)
	require.Equal(t, int32(300), seeked[1].Pos)
}

// TestWriterReader_Cancel verifies Cancel's cooperative-cancel path leaves
// the sink without a valid footer, so a subsequent Reader rejects it.
func TestWriterReader_Cancel(t *testing.T) {
	schema := varblock.NewSchema()
	schema.ContigLengths[0] = 1_000_000

	engine := endian.GetLittleEndianEngine()

	var sink bytes.Buffer
	w, err := writer.Open(&sink, engine, schema, 0, vindex.ContigLengths{0: 1_000_000}, nil,
		writer.WithCodec(codec.NoOpCodec{}),
	)
	require.NoError(t, err)

	require.NoError(t, w.Append(varblock.Record{Contig: 0, Pos: 1, Ref: "A", FilterIDs: []uint32{}}))
	require.NoError(t, w.Cancel())

	data := sink.Bytes()
	_, err = reader.Open(bytes.NewReader(data), int64(len(data)), engine, reader.WithSchema(schema))
	require.Error(t, err)
}
