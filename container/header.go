package container

import (
	"crypto/sha512"

	"github.com/govariant/govariant/buffer"
	"github.com/govariant/govariant/endian"
	"github.com/govariant/govariant/format"
)

// Flag bits packed into Header.Flags and StrideHeader.Flags.
const (
	FlagVariableStride     uint8 = 1 << 0
	FlagUniformValue       uint8 = 1 << 1
	FlagSigned             uint8 = 1 << 2
	FlagPreprocessorApplied uint8 = 1 << 3
)

// headerFixedSize is the on-disk size of Header excluding the two SHA-512
// checksum fields appended by Bytes/ParseHeader; ParseHeader reads the
// digests starting at this offset.
const headerFixedSize = 1 + 4 + 1 + 4 + 4 + 4 // type, stride, flags, entryCount, uncompressedLen, compressedLen

// HeaderSize is the full fixed on-disk size of a Header: the fixed fields
// plus the two SHA-512 digests.
const HeaderSize = headerFixedSize + 2*sha512.Size

// Header is the fixed-size record accompanying a container's data buffer, per
// spec §3 "Data Container": primitive type tag, stride, flag bits, and the
// uncompressed/compressed content digests.
type Header struct {
	Type             format.PrimitiveType
	Stride           int32 // -1 => variable-stride; entry element count otherwise
	Flags            uint8
	EntryCount       uint32
	UncompressedLen  uint32
	CompressedLen    uint32
	UncompressedSHA  [sha512.Size]byte
	CompressedSHA    [sha512.Size]byte
}

// IsVariableStride reports whether entries in this container have differing
// element counts (stride == -1).
func (h Header) IsVariableStride() bool { return h.Flags&FlagVariableStride != 0 }

// IsUniform reports whether every entry shares an identical byte
// representation (the data buffer holds a single collapsed entry on disk).
func (h Header) IsUniform() bool { return h.Flags&FlagUniformValue != 0 }

// IsSigned reports whether Type is a signed integer type, independent of the
// raw Type tag (kept as its own flag bit so narrowing can change Type while
// preserving the original sign, per spec §4.2 finalize: "sign is preserved").
func (h Header) IsSigned() bool { return h.Flags&FlagSigned != 0 }

// HasPreprocessor reports whether a byte-shuffle preprocessor was applied
// before compression. SPEC_FULL.md §4 / spec.md §9 leaves the transform
// under-documented; this engine never sets the bit (see DESIGN.md Open
// Question resolution) but preserves the flag and rejects reads that
// encounter it set, per spec's own guidance to "gate reads on the flag."
func (h Header) HasPreprocessor() bool { return h.Flags&FlagPreprocessorApplied != 0 }

// Bytes serializes the header using the given byte order.
func (h Header) Bytes(engine endian.EndianEngine) []byte {
	b := buffer.NewWithCapacity(engine, HeaderSize)
	b.AppendUint8(uint8(h.Type))
	b.AppendInt32(h.Stride)
	b.AppendUint8(h.Flags)
	b.AppendUint32(h.EntryCount)
	b.AppendUint32(h.UncompressedLen)
	b.AppendUint32(h.CompressedLen)
	b.AppendBytes(h.UncompressedSHA[:])
	b.AppendBytes(h.CompressedSHA[:])

	return b.Bytes()
}

// ParseHeader decodes a Header previously produced by Bytes.
func ParseHeader(engine endian.EndianEngine, data []byte) (Header, error) {
	b := buffer.FromBytes(engine, data)

	var h Header

	typ, err := b.Uint8At(0)
	if err != nil {
		return Header{}, err
	}
	h.Type = format.PrimitiveType(typ)

	stride, err := b.Int32At(1)
	if err != nil {
		return Header{}, err
	}
	h.Stride = stride

	flags, err := b.Uint8At(5)
	if err != nil {
		return Header{}, err
	}
	h.Flags = flags

	entryCount, err := b.Uint32At(6)
	if err != nil {
		return Header{}, err
	}
	h.EntryCount = entryCount

	uLen, err := b.Uint32At(10)
	if err != nil {
		return Header{}, err
	}
	h.UncompressedLen = uLen

	cLen, err := b.Uint32At(14)
	if err != nil {
		return Header{}, err
	}
	h.CompressedLen = cLen

	uSHA, err := b.Slice(headerFixedSize, headerFixedSize+sha512.Size)
	if err != nil {
		return Header{}, err
	}
	copy(h.UncompressedSHA[:], uSHA)

	cSHA, err := b.Slice(headerFixedSize+sha512.Size, headerFixedSize+2*sha512.Size)
	if err != nil {
		return Header{}, err
	}
	copy(h.CompressedSHA[:], cSHA)

	return h, nil
}
