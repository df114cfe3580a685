package varblock

import (
	"fmt"

	"github.com/govariant/govariant/buffer"
	"github.com/govariant/govariant/codec"
	"github.com/govariant/govariant/digest"
	"github.com/govariant/govariant/endian"
	"github.com/govariant/govariant/errs"
	"github.com/govariant/govariant/genotype"
)

// columnOffset records where one column's record begins within the block's
// byte stream, for the footer's offset table (spec §3 "Block footer:
// per-column offsets... one for each meta column, plus a table for INFO
// and FORMAT columns").
type columnOffset struct {
	fieldID uint32
	offset  uint32
}

// buildFooter serializes the column offset table and the three pattern
// dictionaries, then wraps the result as a compressed, digested blob — the
// footer is itself a data container per spec §4.6 step 6 ("block footer
// (itself a data container: compressed + digested...)"), though it carries
// fixed internal structure rather than a typed column and so is encoded
// directly rather than through container.Container.
func (b *Block) buildFooter(offsets []columnOffset, hasGT bool, gtClass genotype.Classification, opts FlushOptions) ([]byte, error) {
	raw := buffer.New(b.engine)

	raw.AppendUint32(uint32(len(offsets)))
	for _, o := range offsets {
		raw.AppendUint32(o.fieldID)
		raw.AppendUint32(o.offset)
	}

	writePatternTable(raw, b.infoPatterns)
	writePatternTable(raw, b.fmtPatterns)
	writePatternTable(raw, b.filtPatterns)

	writeClassification(raw, hasGT, gtClass)

	uncompressed := raw.Bytes()
	compressed, err := opts.Codec.Compress(uncompressed, opts.CompressionLevel)
	if err != nil {
		return nil, err
	}

	sum := digest.Sum512(uncompressed)

	out := buffer.New(b.engine)
	out.AppendUint32(uint32(len(uncompressed)))
	out.AppendUint32(uint32(len(compressed)))
	out.AppendBytes(sum[:])
	out.AppendBytes(compressed)

	return out.Bytes(), nil
}

// writeClassification persists the block-wide Genotype Codec Step A
// decision (spec §4.5) into the footer, since it is needed to interpret the
// genotype meta column's RLE words on read but has no other home in the
// wire format (it is a block-wide, not per-record, value).
func writeClassification(b *buffer.Buffer, hasGT bool, c genotype.Classification) {
	b.AppendBool(hasGT)
	if !hasGT {
		return
	}

	b.AppendUint8(uint8(c.Stream))
	b.AppendUint8(uint8(c.Width))
	b.AppendUint8(uint8(c.Ploidy))
	b.AppendUint8(uint8(c.AlleleBits))
	b.AppendUint8(uint8(c.PhaseBits))
	b.AppendBool(c.AnyMissing)
	b.AppendBool(c.MixedPloidy)
	b.AppendInt32(c.MaxAllele)
	b.AppendUint8(uint8(c.RunBits))
	b.AppendBool(c.UniformPhased)
}

func readClassification(b *buffer.Buffer, off int) (bool, genotype.Classification, int, error) {
	hasGT, err := b.Uint8At(off)
	if err != nil {
		return false, genotype.Classification{}, off, err
	}
	off++
	if hasGT == 0 {
		return false, genotype.Classification{}, off, nil
	}

	var c genotype.Classification

	stream, err := b.Uint8At(off)
	if err != nil {
		return false, c, off, err
	}
	c.Stream = genotype.Stream(stream)
	off++

	width, err := b.Uint8At(off)
	if err != nil {
		return false, c, off, err
	}
	c.Width = int(width)
	off++

	ploidy, err := b.Uint8At(off)
	if err != nil {
		return false, c, off, err
	}
	c.Ploidy = int(ploidy)
	off++

	alleleBits, err := b.Uint8At(off)
	if err != nil {
		return false, c, off, err
	}
	c.AlleleBits = int(alleleBits)
	off++

	phaseBits, err := b.Uint8At(off)
	if err != nil {
		return false, c, off, err
	}
	c.PhaseBits = int(phaseBits)
	off++

	anyMissing, err := b.Uint8At(off)
	if err != nil {
		return false, c, off, err
	}
	c.AnyMissing = anyMissing != 0
	off++

	mixedPloidy, err := b.Uint8At(off)
	if err != nil {
		return false, c, off, err
	}
	c.MixedPloidy = mixedPloidy != 0
	off++

	maxAllele, err := b.Int32At(off)
	if err != nil {
		return false, c, off, err
	}
	c.MaxAllele = maxAllele
	off += 4

	runBits, err := b.Uint8At(off)
	if err != nil {
		return false, c, off, err
	}
	c.RunBits = int(runBits)
	off++

	uniformPhased, err := b.Uint8At(off)
	if err != nil {
		return false, c, off, err
	}
	c.UniformPhased = uniformPhased != 0
	off++

	return true, c, off, nil
}

func writePatternTable(b *buffer.Buffer, d *PatternDict) {
	patterns := d.Patterns()
	b.AppendUint32(uint32(len(patterns)))
	for _, p := range patterns {
		b.AppendUint32(uint32(len(p)))
		for _, id := range p {
			b.AppendUint32(id)
		}
	}
}

// footerBody is the parsed, decompressed-and-verified contents of a block
// footer, used by the reader's block-parsing path.
type footerBody struct {
	offsets []columnOffset
	info    [][]uint32
	format  [][]uint32
	filter  [][]uint32
	hasGT   bool
	gtClass genotype.Classification
}

// parseFooter decompresses and verifies a footer blob produced by
// buildFooter, then parses its fixed layout.
func parseFooter(engine endian.EndianEngine, dec codec.Decompressor, data []byte) (footerBody, error) {
	in := buffer.FromBytes(engine, data)

	uLen, err := in.Uint32At(0)
	if err != nil {
		return footerBody{}, err
	}
	cLen, err := in.Uint32At(4)
	if err != nil {
		return footerBody{}, err
	}

	wantBytes, err := in.Slice(8, 8+64)
	if err != nil {
		return footerBody{}, err
	}
	var want [64]byte
	copy(want[:], wantBytes)

	compressed, err := in.Slice(8+64, 8+64+int(cLen))
	if err != nil {
		return footerBody{}, err
	}

	uncompressed, err := dec.Decompress(compressed)
	if err != nil {
		return footerBody{}, fmt.Errorf("%w: footer decompress: %v", errs.ErrCodecFailure, err)
	}
	if uint32(len(uncompressed)) != uLen {
		return footerBody{}, fmt.Errorf("%w: footer length mismatch", errs.ErrChecksumMismatch)
	}
	if err := digest.Verify(uncompressed, want); err != nil {
		return footerBody{}, err
	}

	body := buffer.FromBytes(engine, uncompressed)

	count, err := body.Uint32At(0)
	if err != nil {
		return footerBody{}, err
	}

	off := 4
	offsets := make([]columnOffset, 0, count)
	for i := uint32(0); i < count; i++ {
		fieldID, err := body.Uint32At(off)
		if err != nil {
			return footerBody{}, err
		}
		off += 4
		o, err := body.Uint32At(off)
		if err != nil {
			return footerBody{}, err
		}
		off += 4
		offsets = append(offsets, columnOffset{fieldID: fieldID, offset: o})
	}

	info, off, err := readPatternTable(body, off)
	if err != nil {
		return footerBody{}, err
	}
	fmtTable, off, err := readPatternTable(body, off)
	if err != nil {
		return footerBody{}, err
	}
	filt, off, err := readPatternTable(body, off)
	if err != nil {
		return footerBody{}, err
	}

	hasGT, gtClass, _, err := readClassification(body, off)
	if err != nil {
		return footerBody{}, err
	}

	return footerBody{offsets: offsets, info: info, format: fmtTable, filter: filt, hasGT: hasGT, gtClass: gtClass}, nil
}

func readPatternTable(b *buffer.Buffer, off int) ([][]uint32, int, error) {
	count, err := b.Uint32At(off)
	if err != nil {
		return nil, off, err
	}
	off += 4

	patterns := make([][]uint32, 0, count)
	for i := uint32(0); i < count; i++ {
		n, err := b.Uint32At(off)
		if err != nil {
			return nil, off, err
		}
		off += 4

		ids := make([]uint32, n)
		for j := uint32(0); j < n; j++ {
			id, err := b.Uint32At(off)
			if err != nil {
				return nil, off, err
			}
			off += 4
			ids[j] = id
		}
		patterns = append(patterns, ids)
	}

	return patterns, off, nil
}
