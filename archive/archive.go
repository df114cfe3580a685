// Package archive implements the archive-level wire framing shared by the
// Writer and Reader pipelines (spec §6 EXTERNAL INTERFACES, items 1, 2, 6):
// the file magic, the compressed metadata header record, and the file-tail
// footer. These are file-global concerns that sit above a single Variant
// Block, so they live outside the varblock package (which owns only the
// per-block header/footer).
package archive

import (
	"fmt"

	"github.com/govariant/govariant/buffer"
	"github.com/govariant/govariant/codec"
	"github.com/govariant/govariant/endian"
	"github.com/govariant/govariant/errs"
	"github.com/govariant/govariant/format"
)

// EncodeHeaderRecord wraps metadata (the self-describing contig/sample/
// INFO/FORMAT/FILTER descriptor block, opaque to this package) as spec §6
// item 2: "1-byte codec id, 4-byte uncompressed length, 4-byte compressed
// length, compressed bytes." The codec id is written as a plain leading
// byte (never itself compressed) so a Reader can recover the right
// Decompressor before it has decoded anything else.
func EncodeHeaderRecord(engine endian.EndianEngine, ctype format.CompressionType, cdc codec.Compressor, level int, metadata []byte) ([]byte, error) {
	compressed, err := cdc.Compress(metadata, level)
	if err != nil {
		return nil, fmt.Errorf("%w: header record: %v", errs.ErrCodecFailure, err)
	}

	b := buffer.New(engine)
	b.AppendUint8(uint8(ctype))
	b.AppendUint32(uint32(len(metadata)))
	b.AppendUint32(uint32(len(compressed)))
	b.AppendBytes(compressed)

	return b.Bytes(), nil
}

// DecodeHeaderRecord is the inverse of EncodeHeaderRecord: it resolves the
// Decompressor from the record's own leading codec id rather than requiring
// the caller to already know it, and returns the decompressed metadata, the
// codec type in effect for the rest of the archive, and the number of bytes
// consumed from data.
func DecodeHeaderRecord(engine endian.EndianEngine, data []byte) ([]byte, format.CompressionType, int, error) {
	b := buffer.FromBytes(engine, data)

	ctypeRaw, err := b.Uint8At(0)
	if err != nil {
		return nil, 0, 0, err
	}
	ctype := format.CompressionType(ctypeRaw)

	dec, err := codec.GetCodec(ctype)
	if err != nil {
		return nil, 0, 0, err
	}

	uLen, err := b.Uint32At(1)
	if err != nil {
		return nil, 0, 0, err
	}
	cLen, err := b.Uint32At(5)
	if err != nil {
		return nil, 0, 0, err
	}

	compressed, err := b.Slice(9, 9+int(cLen))
	if err != nil {
		return nil, 0, 0, err
	}

	metadata, err := dec.Decompress(compressed)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: header record: %v", errs.ErrCodecFailure, err)
	}
	if uint32(len(metadata)) != uLen {
		return nil, 0, 0, fmt.Errorf("%w: header record length mismatch", errs.ErrChecksumMismatch)
	}

	return metadata, ctype, 9 + int(cLen), nil
}

// EncodeSection wraps an already-serialized sibling artifact (linear
// index, digest table, statistics table, keychain) with an 8-byte length
// prefix, so the four tail sections can be concatenated and parsed back without each
// artifact's own encoding needing to self-report how many bytes it
// consumed.
func EncodeSection(engine endian.EndianEngine, data []byte) []byte {
	b := buffer.NewWithCapacity(engine, 8+len(data))
	b.AppendUint64(uint64(len(data)))
	b.AppendBytes(data)

	return b.Bytes()
}

// DecodeSection reads one length-prefixed section starting at off, returning
// its payload and the offset of the next section.
func DecodeSection(engine endian.EndianEngine, data []byte, off int) ([]byte, int, error) {
	b := buffer.FromBytes(engine, data)

	n, err := b.Uint64At(off)
	if err != nil {
		return nil, off, err
	}
	off += 8

	payload, err := b.Slice(off, off+int(n))
	if err != nil {
		return nil, off, err
	}

	return payload, off + int(n), nil
}

// Footer is the file-global tail structure (spec §3 "Footer", §6 item 6):
// "end-of-data offset, block count, total variant count, controller flags,
// a fixed magic byte sequence."
type Footer struct {
	EndOfDataOffset uint64
	BlockCount      uint64
	VariantCount    uint64
	Controller      uint16
}

// Size is the fixed on-disk size of a Footer record: 8+8+8+2 fixed fields
// plus the 32-byte EOF marker.
const Size = 8 + 8 + 8 + 2 + 32

// Encode serializes the footer, appending format.EOFMarker, per spec's
// invariant that "footer sits at a known fixed-size offset from
// end-of-file."
func (f Footer) Encode(engine endian.EndianEngine) []byte {
	b := buffer.NewWithCapacity(engine, Size)
	b.AppendUint64(f.EndOfDataOffset)
	b.AppendUint64(f.BlockCount)
	b.AppendUint64(f.VariantCount)
	b.AppendUint16(uint16(f.Controller))
	b.AppendBytes(format.EOFMarker[:])

	return b.Bytes()
}

// DecodeFooter parses the trailing Size bytes of an archive, per spec
// invariant "footer sits at a known fixed-size offset from end-of-file."
func DecodeFooter(engine endian.EndianEngine, data []byte) (Footer, error) {
	if len(data) < Size {
		return Footer{}, fmt.Errorf("%w: footer shorter than fixed size", errs.ErrTruncatedArchive)
	}

	tail := data[len(data)-Size:]
	b := buffer.FromBytes(engine, tail)

	var f Footer

	endOffset, err := b.Uint64At(0)
	if err != nil {
		return Footer{}, err
	}
	f.EndOfDataOffset = endOffset

	blockCount, err := b.Uint64At(8)
	if err != nil {
		return Footer{}, err
	}
	f.BlockCount = blockCount

	variantCount, err := b.Uint64At(16)
	if err != nil {
		return Footer{}, err
	}
	f.VariantCount = variantCount

	controller, err := b.Uint16At(24)
	if err != nil {
		return Footer{}, err
	}
	f.Controller = controller

	marker, err := b.Slice(26, 26+32)
	if err != nil {
		return Footer{}, err
	}
	for i := range format.EOFMarker {
		if marker[i] != format.EOFMarker[i] {
			return Footer{}, fmt.Errorf("%w: EOF marker mismatch", errs.ErrTruncatedArchive)
		}
	}

	return f, nil
}

// WriteMagic returns the fixed 8-byte file magic (spec §6 item 1).
func WriteMagic() []byte {
	return format.FileMagic[:]
}

// CheckMagic reports errs.ErrVersionMismatch if data does not begin with
// the expected file magic.
func CheckMagic(data []byte) error {
	if len(data) < len(format.FileMagic) {
		return fmt.Errorf("%w: archive shorter than file magic", errs.ErrTruncatedArchive)
	}
	for i := range format.FileMagic {
		if data[i] != format.FileMagic[i] {
			return fmt.Errorf("%w: unrecognized file magic", errs.ErrVersionMismatch)
		}
	}

	return nil
}
