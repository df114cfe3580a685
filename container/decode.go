package container

import (
	"fmt"
	"iter"
	"math"

	"github.com/govariant/govariant/buffer"
	"github.com/govariant/govariant/codec"
	"github.com/govariant/govariant/digest"
	"github.com/govariant/govariant/endian"
	"github.com/govariant/govariant/errs"
	"github.com/govariant/govariant/format"
)

// Decode reconstructs a Container from its on-disk parts: the data header,
// compressed data bytes, and — when the header reports variable stride — the
// stride header and compressed stride bytes. It verifies the uncompressed
// content digest of the data buffer and, when present, of the stride buffer,
// producing errs.ErrChecksumMismatch on
// tampering, per spec §4.4 "Read paths verify ... before exposing any value."
func Decode(engine endian.EndianEngine, header Header, strideHeader Header, compressedData, compressedStride []byte, cdc codec.Decompressor) (*Container, error) {
	if header.HasPreprocessor() {
		return nil, fmt.Errorf("%w: preprocessor-applied containers are not supported by this build", errs.ErrCodecFailure)
	}

	data, err := cdc.Decompress(compressedData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrCodecFailure, err)
	}
	if err := digest.Verify(data, header.UncompressedSHA); err != nil {
		return nil, err
	}

	c := &Container{
		engine: engine,
		typ:    header.Type,
		signed: header.IsSigned(),
		header: header,
		data:   buffer.FromBytes(engine, data),
		state:  StateFinalized,
	}

	if header.IsVariableStride() {
		sdata, err := cdc.Decompress(compressedStride)
		if err != nil {
			return nil, fmt.Errorf("%w: stride buffer: %v", errs.ErrCodecFailure, err)
		}
		if err := digest.Verify(sdata, strideHeader.UncompressedSHA); err != nil {
			return nil, err
		}

		c.strideHeader = strideHeader
		c.stride = buffer.FromBytes(engine, sdata)

		widths := make([]int, strideHeader.EntryCount)
		for i := range widths {
			w, err := c.stride.Uint32At(i * 4)
			if err != nil {
				return nil, err
			}
			widths[i] = int(w)
		}
		c.entryWidths = widths
	} else if header.Stride > 1 {
		widths := make([]int, header.EntryCount)
		for i := range widths {
			widths[i] = int(header.Stride)
		}
		c.entryWidths = widths
	}

	return c, nil
}

// entryLayout returns the width, in elements, of entry i and its starting
// byte offset into c.data.
func (c *Container) entryLayout(i int) (elems, byteOff int) {
	width := c.typ.Size()
	if c.header.IsUniform() {
		return c.entryElemCount(i), 0
	}
	if len(c.entryWidths) == 0 {
		return 1, i * width
	}

	if c.entryByteOffsets == nil {
		offsets := make([]int, len(c.entryWidths))
		off := 0
		for j, w := range c.entryWidths {
			offsets[j] = off
			off += w * width
		}
		c.entryByteOffsets = offsets
	}

	return c.entryWidths[i], c.entryByteOffsets[i]
}

func (c *Container) entryElemCount(i int) int {
	if len(c.entryWidths) == 0 {
		return 1
	}

	return c.entryWidths[i]
}

// EntryCount returns the number of logical entries (records) in the
// container.
func (c *Container) EntryCount() int { return int(c.header.EntryCount) }

// WordAt returns element j of entry i as a canonical 64-bit word, sign-
// extended per the container's IsSigned flag when the on-disk type was
// narrowed by Finalize — the same widened pattern asU64 produced for that
// element before narrowing, so callers converting it back to a Go value
// via ValueAt can use the column's originally declared (not narrowed)
// primitive type directly.
func (c *Container) WordAt(i, j int) (uint64, error) {
	elems, off := c.entryLayout(i)
	if j < 0 || j >= elems {
		return 0, fmt.Errorf("%w: element %d out of range for entry %d", errs.ErrBufferBounds, j, i)
	}

	width := c.typ.Size()
	raw, err := readWidth(c.data, off+j*width, width)
	if err != nil {
		return 0, err
	}

	if c.header.IsSigned() {
		return uint64(signExtend(raw, width)), nil
	}

	return raw, nil
}

// Entries iterates logical entries, yielding each entry's raw element words
// (not yet converted to their Go type). Uniform-value containers replay the
// same single entry EntryCount times.
func (c *Container) Entries() iter.Seq2[int, []uint64] {
	return func(yield func(int, []uint64) bool) {
		width := c.typ.Size()
		n := c.EntryCount()

		for i := 0; i < n; i++ {
			elems, off := c.entryLayout(i)
			words := make([]uint64, elems)
			for j := 0; j < elems; j++ {
				raw, err := readWidth(c.data, off+j*width, width)
				if err != nil {
					return
				}
				words[j] = raw
			}

			if !yield(i, words) {
				return
			}
		}
	}
}

func readWidth(b *buffer.Buffer, off, width int) (uint64, error) {
	switch width {
	case 1:
		v, err := b.Uint8At(off)
		return uint64(v), err
	case 2:
		v, err := b.Uint16At(off)
		return uint64(v), err
	case 4:
		v, err := b.Uint32At(off)
		return uint64(v), err
	default:
		return b.Uint64At(off)
	}
}

// Int64At returns entry i's single value widened to int64, for signed
// integer containers with a fixed one-element stride.
func (c *Container) Int64At(i int) (int64, error) {
	_, off := c.entryLayout(i)
	raw, err := readWidth(c.data, off, c.typ.Size())
	if err != nil {
		return 0, err
	}

	return signExtend(raw, c.typ.Size()), nil
}

// Uint64At returns entry i's single value widened to uint64, for unsigned
// integer containers with a fixed one-element stride.
func (c *Container) Uint64At(i int) (uint64, error) {
	_, off := c.entryLayout(i)

	return readWidth(c.data, off, c.typ.Size())
}

// Float64At returns entry i's single value widened to float64.
func (c *Container) Float64At(i int) (float64, error) {
	_, off := c.entryLayout(i)
	raw, err := readWidth(c.data, off, c.typ.Size())
	if err != nil {
		return 0, err
	}

	if c.typ == format.F32 {
		return float64(math.Float32frombits(uint32(raw))), nil
	}

	return math.Float64frombits(raw), nil
}

// BytesAt returns entry i's raw bytes, for Char containers holding
// variable-length strings (e.g. REF/ALT alleles, one entry per record).
func (c *Container) BytesAt(i int) ([]byte, error) {
	elems, off := c.entryLayout(i)

	return c.data.Slice(off, off+elems)
}
