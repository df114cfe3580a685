// Package reader implements the Reader Pipeline (spec component C9): the
// external contract "open(source); header(); seek(interval) or
// iter_blocks()". A Reader opens a random-access source, parses the fixed
// file magic, the compressed metadata header record, the trailing footer,
// and the four length-prefixed sibling artifacts (linear index, digest
// table, statistics table, keychain), then lazily decodes individual blocks on demand.
//
// Blocks are located via the Hierarchical Index's linear entries rather
// than its quad-tree: the quad-tree is a Writer-side acceleration structure
// over an in-memory Tree and is never serialized to disk (spec §4.7 leaves
// the on-disk index format to the linear entries plus block min/max
// position), so a Reader's interval queries filter the linear index's
// position-ordered entries directly — still O(blocks-on-contig), with no
// bin traversal needed for the block counts one archive file holds.
package reader

import (
	"fmt"
	"io"
	"iter"

	"github.com/govariant/govariant/archive"
	"github.com/govariant/govariant/buffer"
	"github.com/govariant/govariant/codec"
	"github.com/govariant/govariant/digest"
	"github.com/govariant/govariant/endian"
	"github.com/govariant/govariant/errs"
	"github.com/govariant/govariant/format"
	"github.com/govariant/govariant/internal/pool"
	"github.com/govariant/govariant/keychain"
	"github.com/govariant/govariant/stats"
	"github.com/govariant/govariant/varblock"
	"github.com/govariant/govariant/vindex"
)

// Reader holds one open archive's parsed metadata and the handles needed to
// decode blocks on demand.
type Reader struct {
	src    io.ReaderAt
	size   int64
	engine endian.EndianEngine
	opts   Options

	metadata []byte
	codec    codec.Codec
	cipher   format.CipherType

	linear   *vindex.LinearIndex
	digests  *digest.Manager
	stats    *stats.Manager
	keychain *keychain.Keychain

	footer archive.Footer
}

// Open parses an archive's magic, header record, footer, and sibling
// artifacts from src (size bytes long), leaving block bodies undecoded
// until Seek or Iterate walks them.
func Open(src io.ReaderAt, size int64, engine endian.EndianEngine, opts ...Option) (*Reader, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	r := &Reader{src: src, size: size, engine: engine, opts: o}

	magicLen := int64(len(archive.WriteMagic()))
	magic, err := r.readAt(0, int(magicLen))
	if err != nil {
		return nil, err
	}
	if err := archive.CheckMagic(magic); err != nil {
		return nil, err
	}

	headerOff := magicLen
	const headerPrefixSize = 1 + 4 + 4 // codec id, uncompressed len, compressed len
	prefix, err := r.readAt(headerOff, headerPrefixSize)
	if err != nil {
		return nil, err
	}
	prefixBuf := buffer.FromBytes(engine, prefix)
	cLen, err := prefixBuf.Uint32At(5)
	if err != nil {
		return nil, err
	}

	headerRecord, err := r.readAt(headerOff, headerPrefixSize+int(cLen))
	if err != nil {
		return nil, err
	}
	metadata, ctype, _, err := archive.DecodeHeaderRecord(engine, headerRecord)
	if err != nil {
		return nil, err
	}
	r.metadata = metadata

	r.codec, err = codec.GetCodec(ctype)
	if err != nil {
		return nil, err
	}

	footerBytes, err := r.readAt(size-int64(archive.Size), int(archive.Size))
	if err != nil {
		return nil, err
	}
	r.footer, err = archive.DecodeFooter(engine, footerBytes)
	if err != nil {
		return nil, err
	}

	if r.footer.Controller&1 != 0 {
		r.cipher = format.CipherType(r.footer.Controller >> 1)
	}

	tailStart := int64(r.footer.EndOfDataOffset)
	tailEnd := size - int64(archive.Size)
	if tailEnd < tailStart {
		return nil, fmt.Errorf("%w: tail section span negative", errs.ErrTruncatedArchive)
	}
	tail, err := r.readAt(tailStart, int(tailEnd-tailStart))
	if err != nil {
		return nil, err
	}

	off := 0
	linearPayload, off, err := archive.DecodeSection(engine, tail, off)
	if err != nil {
		return nil, err
	}
	r.linear, err = vindex.DecodeLinearIndex(engine, linearPayload)
	if err != nil {
		return nil, err
	}

	digestPayload, off, err := archive.DecodeSection(engine, tail, off)
	if err != nil {
		return nil, err
	}
	r.digests, err = digest.Decode(engine, digestPayload)
	if err != nil {
		return nil, err
	}

	statsPayload, off, err := archive.DecodeSection(engine, tail, off)
	if err != nil {
		return nil, err
	}
	r.stats, err = stats.Decode(engine, statsPayload)
	if err != nil {
		return nil, err
	}

	keychainPayload, _, err := archive.DecodeSection(engine, tail, off)
	if err != nil {
		return nil, err
	}
	r.keychain, err = keychain.Decode(engine, keychainPayload)
	if err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Reader) readAt(off int64, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := r.src.ReadAt(buf, off); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrIoError, err)
	}

	return buf, nil
}

// Metadata returns the archive's opaque header record payload (the
// contig/sample/INFO/FORMAT/FILTER descriptor block; spec §1 leaves parsing
// it to the caller).
func (r *Reader) Metadata() []byte { return r.metadata }

// BlockCount and VariantCount report the archive-wide totals recorded in
// the footer.
func (r *Reader) BlockCount() uint64   { return r.footer.BlockCount }
func (r *Reader) VariantCount() uint64 { return r.footer.VariantCount }

// Digests exposes the aggregated per-column digest table, for callers that
// want to re-verify block contents independently of decode-time checksums.
func (r *Reader) Digests() *digest.Manager { return r.digests }

// Stats exposes the per-column uncompressed/compressed byte totals sidecar
// (spec §6 "Statistics file"), for callers auditing compression efficiency
// per field without re-reading every block.
func (r *Reader) Stats() *stats.Manager { return r.stats }

// Contigs returns the contig ids present in the archive, ascending.
func (r *Reader) Contigs() []int32 { return r.linear.Contigs() }

// Blocks returns contig's block entries in write order (equivalently,
// position order).
func (r *Reader) Blocks(contig int32) []vindex.LinearEntry {
	return r.linear.Entries(contig)
}

// Query returns contig's block entries whose [MinPos,MaxPos] span overlaps
// [posMin,posMax], per spec §4.7 "seek(interval)"; callers should still
// exact-filter returned Records by position, since a block can span beyond
// the query bounds.
func (r *Reader) Query(contig int32, posMin, posMax int32) []vindex.LinearEntry {
	all := r.linear.Entries(contig)
	out := make([]vindex.LinearEntry, 0, len(all))
	for _, e := range all {
		if e.MaxPos >= posMin && e.MinPos <= posMax {
			out = append(out, e)
		}
	}

	return out
}

// ReadBlock decodes one block's bytes into its reconstructed Records. The
// raw block bytes are borrowed from a pooled buffer (spec §4.9 blocks are
// read and discarded one at a time, making them a natural pooling unit) and
// returned once DecodeBlock has consumed them into freshly-allocated
// decompressed columns.
func (r *Reader) ReadBlock(contig int32, entry vindex.LinearEntry) ([]varblock.Record, error) {
	bb := pool.GetBlobBuffer()
	defer pool.PutBlobBuffer(bb)
	bb.Grow(int(entry.ByteLength))
	bb.SetLength(int(entry.ByteLength))

	if _, err := r.src.ReadAt(bb.Bytes(), int64(entry.ByteOffset)); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrIoError, err)
	}

	decoded, err := varblock.DecodeBlock(r.engine, varblock.DecodeOptions{
		Codec:    r.codec,
		Keychain: r.keychain,
		BlockID:  entry.BlockID,
		Cipher:   r.cipher,
	}, r.opts.Schema, bb.Bytes())
	if err != nil {
		return nil, err
	}

	header := varblock.Header{
		BlockID:      entry.BlockID,
		Contig:       contig,
		MinPos:       entry.MinPos,
		MaxPos:       entry.MaxPos,
		VariantCount: entry.VariantCount,
	}

	return varblock.ToRecords(r.opts.Schema, header, r.opts.NumSamples, decoded)
}

// Iterate walks every block across every contig in position-sorted default
// order (spec §4.9 "iter_blocks"), yielding one Record at a time. A decode
// error aborts iteration after yielding it.
func (r *Reader) Iterate() iter.Seq2[varblock.Record, error] {
	return func(yield func(varblock.Record, error) bool) {
		for _, contig := range r.Contigs() {
			for _, entry := range r.Blocks(contig) {
				records, err := r.ReadBlock(contig, entry)
				if err != nil {
					yield(varblock.Record{}, err)
					return
				}
				for _, rec := range records {
					if !yield(rec, nil) {
						return
					}
				}
			}
		}
	}
}

// Seek walks only the blocks overlapping [posMin,posMax] on contig,
// yielding the subset of Records whose own position falls in range (spec
// §4.9 "seek(interval)").
func (r *Reader) Seek(contig int32, posMin, posMax int32) iter.Seq2[varblock.Record, error] {
	return func(yield func(varblock.Record, error) bool) {
		for _, entry := range r.Query(contig, posMin, posMax) {
			records, err := r.ReadBlock(contig, entry)
			if err != nil {
				yield(varblock.Record{}, err)
				return
			}
			for _, rec := range records {
				if rec.Pos < posMin || rec.Pos > posMax {
					continue
				}
				if !yield(rec, nil) {
					return
				}
			}
		}
	}
}
