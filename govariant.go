// Package govariant provides the top-level convenience API for the columnar
// variant archive format: thin constructors over the writer and reader
// packages, curated with default option bundles for the common case of
// writing a fresh archive or opening one for random-access queries.
//
// Core Features:
//   - NewWriter opens an archive for sequential append, with S2 compression,
//     genotype permutation, and both sibling artifacts (digest table,
//     statistics table) enabled by default.
//   - NewReader opens an archive for block-level iteration and interval
//     queries, given the same Schema and sample count the writer used.
//   - DefaultSchema builds an empty Schema with no registered fields, for
//     callers that only need fixed-column data with no INFO/FORMAT
//     annotations.
//
// Basic Usage:
//
//	schema := govariant.DefaultSchema()
//	schema.Info[1] = varblock.FieldSchema{ID: 1, Type: format.I32, Stride: 1}
//
//	var buf bytes.Buffer
//	w, err := govariant.NewWriter(&buf, endian.GetLittleEndianEngine(), schema,
//	    numSamples, vindex.ContigLengths{0: 248_956_422}, metadata)
//	if err != nil {
//	    // handle error
//	}
//	if err := w.Append(rec); err != nil {
//	    // handle error
//	}
//	if err := w.Close(); err != nil {
//	    // handle error
//	}
//
//	r, err := govariant.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()),
//	    endian.GetLittleEndianEngine(), schema, numSamples)
//	if err != nil {
//	    // handle error
//	}
//	for rec, err := range r.Iterate() {
//	    if err != nil {
//	        // handle error
//	    }
//	    // use rec
//	}
package govariant

import (
	"io"

	"github.com/govariant/govariant/endian"
	"github.com/govariant/govariant/reader"
	"github.com/govariant/govariant/varblock"
	"github.com/govariant/govariant/vindex"
	"github.com/govariant/govariant/writer"
)

// DefaultSchema returns an empty Schema with no registered INFO or FORMAT
// fields and no contig lengths, ready for the caller to populate before
// opening a Writer or Reader.
func DefaultSchema() *varblock.Schema {
	return varblock.NewSchema()
}

// NewWriter opens sink for sequential append using the package's curated
// defaults (writer.defaultOptions: S2 compression, genotype permutation,
// digest/statistics tables enabled), plus any caller-supplied overrides.
//
// Use this when:
//   - You are producing a new archive from a stream of Records and want the
//     recommended codec/checkpoint/worker defaults without assembling them
//     by hand.
//
// Parameters:
//   - sink: destination for the archive bytes, written sequentially.
//   - engine: byte order for all multi-byte fields; must match the engine
//     passed to NewReader when the archive is later opened.
//   - schema: the INFO/FORMAT field descriptors Records will reference.
//   - numSamples: the archive-wide sample count, used to size genotype
//     columns.
//   - contigLengths: per-contig lengths in bases, used to size the
//     Hierarchical Index.
//   - metadata: an opaque caller-owned byte slice (e.g. a serialized contig/
//     sample/field descriptor block), stored verbatim in the archive header
//     and returned unmodified by Reader.Metadata.
//   - opts: additional writer.Option values layered on top of the defaults.
//
// Returns:
//   - *writer.Writer ready for Append calls, or an error if the header
//     could not be written to sink.
//
// Example:
//
//	w, err := govariant.NewWriter(sink, endian.GetLittleEndianEngine(), schema,
//	    2, vindex.ContigLengths{0: 248_956_422}, metadata,
//	    writer.WithCompressionLevel(9))
func NewWriter(sink io.Writer, engine endian.EndianEngine, schema *varblock.Schema, numSamples int, contigLengths vindex.ContigLengths, metadata []byte, opts ...writer.Option) (*writer.Writer, error) {
	return writer.Open(sink, engine, schema, numSamples, contigLengths, metadata, opts...)
}

// NewReader opens src for block-level iteration and interval queries.
// Unlike NewWriter, there are no curated defaults to layer: every fact
// reader.Options carries (schema, sample count) must match what the
// archive's Writer actually used, so this is a direct pass-through with a
// narrower, positional signature for the two facts every caller needs.
//
// Use this when:
//   - You have a complete archive (or a random-access view of one) and want
//     to walk its Records via Iterate or a bounded Seek.
//
// Parameters:
//   - src: random-access source over the archive's bytes.
//   - size: total byte length of src.
//   - engine: byte order the archive was written with.
//   - schema: the same Schema passed to NewWriter when producing this
//     archive.
//   - numSamples: the same sample count passed to NewWriter.
//   - opts: additional reader.Option values (reader.Options has no other
//     required fields, so most callers need none).
//
// Returns:
//   - *reader.Reader with its header, footer, and sibling artifacts parsed,
//     or an error if the archive is truncated or malformed.
//
// Example:
//
//	r, err := govariant.NewReader(src, size, endian.GetLittleEndianEngine(), schema, 2)
func NewReader(src io.ReaderAt, size int64, engine endian.EndianEngine, schema *varblock.Schema, numSamples int, opts ...reader.Option) (*reader.Reader, error) {
	all := append([]reader.Option{reader.WithSchema(schema), reader.WithNumSamples(numSamples)}, opts...)
	return reader.Open(src, size, engine, all...)
}
