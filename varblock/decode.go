package varblock

import (
	"fmt"

	"github.com/govariant/govariant/buffer"
	"github.com/govariant/govariant/codec"
	"github.com/govariant/govariant/container"
	"github.com/govariant/govariant/digest"
	"github.com/govariant/govariant/endian"
	"github.com/govariant/govariant/errs"
	"github.com/govariant/govariant/format"
	"github.com/govariant/govariant/genotype"
	"github.com/govariant/govariant/keychain"
)

// DecodeOptions configures one DecodeBlock call, mirroring FlushOptions for
// the read path (spec §4.9 "Symmetrical: read and verify block footer,
// lazily materialize requested columns only").
type DecodeOptions struct {
	Codec    codec.Decompressor
	Keychain *keychain.Keychain
	BlockID  uint64
	Cipher   format.CipherType // format.CipherNone if the block was not encrypted
}

// DecodedBlock holds a block's column containers, ready for transposition
// back into Records. Meta columns are indexed by their MetaColumn constant;
// Info and Format are keyed by global field id.
type DecodedBlock struct {
	Meta   [metaColumnCount]*container.Container
	Info   map[uint32]*container.Container
	Format map[uint32]*container.Container

	// InfoPatterns, FormatPatterns, and FilterPatterns are the block's three
	// pattern dictionaries, indexed by local pattern id (spec §3 "Pattern
	// Dictionary"), recovered from the footer.
	InfoPatterns   [][]uint32
	FormatPatterns [][]uint32
	FilterPatterns [][]uint32

	// HasGenotypes and GTClass carry the block-wide Genotype Codec Step A
	// decision (spec §4.5), needed to interpret whichever genotype meta
	// column is populated.
	HasGenotypes bool
	GTClass      genotype.Classification
}

// DecodeBlock parses one block's byte stream — column records, footer,
// end-of-block sentinel — per spec §4.6 step 6 / §6 wire format item 3. The
// caller supplies the block's schema so dynamic columns can be routed to
// Info vs Format (the footer's offset table only carries a global field id,
// not which dictionary it belongs to).
func DecodeBlock(engine endian.EndianEngine, opts DecodeOptions, schema *Schema, data []byte) (*DecodedBlock, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: block shorter than end-of-block sentinel", errs.ErrTruncatedArchive)
	}

	full := buffer.FromBytes(engine, data)

	sentinelOff := len(data) - 8
	sentinel, err := full.Uint64At(sentinelOff)
	if err != nil {
		return nil, err
	}
	if sentinel != Sentinel {
		return nil, fmt.Errorf("%w: end-of-block sentinel mismatch", errs.ErrTruncatedArchive)
	}

	if sentinelOff < 4 {
		return nil, fmt.Errorf("%w: block missing footer length", errs.ErrTruncatedArchive)
	}
	footerLenOff := sentinelOff - 4
	footerLen, err := full.Uint32At(footerLenOff)
	if err != nil {
		return nil, err
	}

	footerOff := footerLenOff - int(footerLen)
	if footerOff < 0 {
		return nil, fmt.Errorf("%w: footer length exceeds block size", errs.ErrTruncatedArchive)
	}

	footerBytes, err := full.Slice(footerOff, footerLenOff)
	if err != nil {
		return nil, err
	}

	footer, err := parseFooter(engine, opts.Codec, footerBytes)
	if err != nil {
		return nil, err
	}

	decoded := &DecodedBlock{
		Info:           make(map[uint32]*container.Container),
		Format:         make(map[uint32]*container.Container),
		InfoPatterns:   footer.info,
		FormatPatterns: footer.format,
		FilterPatterns: footer.filter,
		HasGenotypes:   footer.hasGT,
		GTClass:        footer.gtClass,
	}

	for idx, co := range footer.offsets {
		end := footerOff
		if idx+1 < len(footer.offsets) {
			end = int(footer.offsets[idx+1].offset)
		}

		recBytes, err := full.Slice(int(co.offset), end)
		if err != nil {
			return nil, err
		}

		c, err := decodeColumnRecord(engine, opts, uint32(idx), recBytes)
		if err != nil {
			return nil, err
		}

		if idx < metaColumnCount {
			decoded.Meta[idx] = c
			continue
		}

		if schema != nil {
			if _, ok := schema.Format[co.fieldID]; ok {
				decoded.Format[co.fieldID] = c
				continue
			}
		}
		decoded.Info[co.fieldID] = c
	}

	return decoded, nil
}

func decodeColumnRecord(engine endian.EndianEngine, opts DecodeOptions, columnID uint32, rec []byte) (*container.Container, error) {
	b := buffer.FromBytes(engine, rec)

	hdr, off, err := readHeader(b, engine, 0)
	if err != nil {
		return nil, err
	}

	compData, off, err := readLengthPrefixed(b, off)
	if err != nil {
		return nil, err
	}

	var strideHdr container.Header
	var compStride []byte
	if hdr.IsVariableStride() {
		strideHdr, off, err = readHeader(b, engine, off)
		if err != nil {
			return nil, err
		}
		compStride, _, err = readLengthPrefixed(b, off)
		if err != nil {
			return nil, err
		}
	}

	if opts.Cipher != format.CipherNone && opts.Keychain != nil {
		entry, ok := opts.Keychain.Lookup(opts.BlockID, columnID)
		if ok {
			ciph, err := codec.NewCipher(opts.Cipher, entry.Key, entry.Nonce)
			if err != nil {
				return nil, err
			}

			compData, err = ciph.Open(codec.Sealed{Ciphertext: compData, Tag: entry.Tag})
			if err != nil {
				return nil, err
			}

			if hdr.IsVariableStride() && entry.HasStride {
				compStride, err = ciph.Open(codec.Sealed{Ciphertext: compStride, Tag: entry.StrideTag})
				if err != nil {
					return nil, err
				}
			}
		}
	}

	return container.Decode(engine, hdr, strideHdr, compData, compStride, opts.Codec)
}

// readHeader parses a fixed container.Header plus its header-MD5 starting
// at off, returning the next unread offset.
func readHeader(b *buffer.Buffer, engine endian.EndianEngine, off int) (container.Header, int, error) {
	hdrBytes, err := b.Slice(off, off+container.HeaderSize)
	if err != nil {
		return container.Header{}, off, err
	}

	hdr, err := container.ParseHeader(engine, hdrBytes)
	if err != nil {
		return container.Header{}, off, err
	}
	off += container.HeaderSize

	wantMD5, err := b.Slice(off, off+16)
	if err != nil {
		return container.Header{}, off, err
	}
	off += 16

	got := digest.HeaderSum(hdrBytes)
	for i := range got {
		if got[i] != wantMD5[i] {
			return container.Header{}, off, fmt.Errorf("%w: column header checksum", errs.ErrChecksumMismatch)
		}
	}

	return hdr, off, nil
}

func readLengthPrefixed(b *buffer.Buffer, off int) ([]byte, int, error) {
	n, err := b.Uint32At(off)
	if err != nil {
		return nil, off, err
	}
	off += 4

	data, err := b.Slice(off, off+int(n))
	if err != nil {
		return nil, off, err
	}

	return data, off + int(n), nil
}
