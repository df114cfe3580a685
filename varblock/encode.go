package varblock

import (
	"fmt"
	"sort"
	"strings"

	"github.com/govariant/govariant/buffer"
	"github.com/govariant/govariant/codec"
	"github.com/govariant/govariant/container"
	"github.com/govariant/govariant/digest"
	"github.com/govariant/govariant/format"
	"github.com/govariant/govariant/genotype"
	"github.com/govariant/govariant/internal/pool"
	"github.com/govariant/govariant/keychain"
	"github.com/govariant/govariant/stats"
)

// Header is the fixed per-block header preceding a block's column records
// (spec §3 "Block header").
type Header struct {
	BlockID      uint64
	Contig       int32
	MinPos       int32
	MaxPos       int32
	VariantCount uint32
	Controller   Controller
}

// Sentinel is the fixed 64-bit end-of-block marker (spec §4.6 step 6).
const Sentinel uint64 = 0xFACEFEEDC0FFEE01

// FlushOptions configures one Flush call; each field corresponds to an
// archive-level configuration knob from spec §6.
type FlushOptions struct {
	Codec             codec.Codec
	CompressionLevel  int
	PermuteGenotypes  bool
	Cipher            format.CipherType // CipherNone to disable encryption
	Keychain          *keychain.Keychain
	Digests           *digest.Manager
	Stats             *stats.Manager
}

// columnRecord is one finalized, compressed (and possibly encrypted)
// container plus the field id it belongs to (0 for fixed meta columns) and
// which of the three column namespaces it came from, so digest/statistics
// aggregation can key meta column 5, INFO field 5, and FORMAT field 5
// distinctly instead of colliding on a shared numeric id.
type columnRecord struct {
	kind    digest.FieldKind
	fieldID uint32
	c       *container.Container
}

// Flush runs the full spec §4.6 flush sequence over the block's buffered
// records and returns the encoded byte stream for this block (column
// records, footer, end-of-block sentinel) plus the header summarizing it
// for the Hierarchical Index.
func (b *Block) Flush(opts FlushOptions) ([]byte, Header, error) {
	header := Header{
		BlockID:      b.ID,
		Contig:       b.contig,
		MinPos:       b.minPos,
		MaxPos:       b.maxPos,
		VariantCount: uint32(len(b.records)),
	}

	var (
		gtClass genotype.Classification
		gtPerm  genotype.Permutation
		gtWords [][]uint64
		hasGT   bool
	)

	if b.NumSamples > 0 {
		variants := make([][]genotype.Genotype, len(b.records))
		hasAnyGT := false
		for i, rec := range b.records {
			variants[i] = rec.Genotypes
			if len(rec.Genotypes) > 0 {
				hasAnyGT = true
			}
		}

		if hasAnyGT {
			enc, err := genotype.EncodeBlock(b.NumSamples, variants, opts.PermuteGenotypes)
			if err != nil {
				return nil, header, err
			}
			gtClass, gtPerm, gtWords, hasGT = enc.Classification, enc.Permutation, enc.VariantWords, true
			header.Controller |= CtrlHasGenotypes
			if !gtPerm.IsIdentity() {
				header.Controller |= CtrlHasPermutation
			}
		}
	}

	meta, err := b.buildMetaColumns(gtClass, gtPerm, gtWords, hasGT)
	if err != nil {
		return nil, header, err
	}

	info, format_, err := b.buildAnnotationColumns()
	if err != nil {
		return nil, header, err
	}

	all := make([]columnRecord, 0, len(meta)+len(info)+len(format_))
	all = append(all, meta...)
	all = append(all, info...)
	all = append(all, format_...)

	for i := range all {
		if err := all[i].c.Finalize(); err != nil {
			return nil, header, err
		}
		if err := all[i].c.Compress(opts.Codec, opts.CompressionLevel); err != nil {
			return nil, header, err
		}
		if opts.Digests != nil {
			opts.Digests.Update(digestKey(i, all[i]), digest.Pair{
				Uncompressed: all[i].c.DataHeader().UncompressedSHA,
				Compressed:   all[i].c.DataHeader().CompressedSHA,
			})
		}
		if opts.Stats != nil {
			opts.Stats.Update(statsKey(i, all[i]),
				uint64(all[i].c.DataHeader().UncompressedLen),
				uint64(all[i].c.DataHeader().CompressedLen))
		}
		if opts.Cipher != format.CipherNone {
			if err := encryptColumn(b.ID, uint32(i), opts, all[i].c); err != nil {
				return nil, header, err
			}
			header.Controller |= CtrlAnyEncrypted
		}
	}

	out := buffer.New(b.engine)
	offsets := make([]columnOffset, 0, len(all))
	for i := range all {
		offsets = append(offsets, columnOffset{fieldID: all[i].fieldID, offset: uint32(out.Len())})
		writeColumnRecord(out, all[i].c)
	}

	footer, err := b.buildFooter(offsets, hasGT, gtClass, opts)
	if err != nil {
		return nil, header, err
	}
	out.AppendBytes(footer)
	out.AppendUint32(uint32(len(footer)))
	out.AppendUint64(Sentinel)

	return out.Bytes(), header, nil
}

func digestKey(columnIndex int, cr columnRecord) digest.FieldKey {
	if cr.kind == digest.FieldMeta {
		return digest.FieldKey{Kind: digest.FieldMeta, ID: uint32(columnIndex)}
	}

	return digest.FieldKey{Kind: cr.kind, ID: cr.fieldID}
}

// statsKey reuses digest.FieldKey as the statistics table's column
// identity too, since both sidecars key by the same (meta-index or
// INFO/FORMAT field id) namespace.
func statsKey(columnIndex int, cr columnRecord) digest.FieldKey {
	return digestKey(columnIndex, cr)
}

func encryptColumn(blockID uint64, columnID uint32, opts FlushOptions, c *container.Container) error {
	key, err := codec.GenerateKey()
	if err != nil {
		return err
	}
	nonce, err := codec.GenerateNonce()
	if err != nil {
		return err
	}

	ciph, err := codec.NewCipher(opts.Cipher, key, nonce)
	if err != nil {
		return err
	}

	sealedData, err := ciph.Seal(c.CompressedData())
	if err != nil {
		return err
	}

	var sealedStride []byte
	hasStride := c.DataHeader().IsVariableStride()
	var strideTag [codec.TagSize]byte
	if hasStride {
		ss, err := ciph.Seal(c.CompressedStride())
		if err != nil {
			return err
		}
		sealedStride = ss.Ciphertext
		strideTag = ss.Tag
	}

	c.SetSealed(sealedData.Ciphertext, sealedStride)
	if err := c.MarkEncrypted(); err != nil {
		return err
	}

	if opts.Keychain == nil {
		return nil
	}

	if hasStride {
		return opts.Keychain.PutWithStride(blockID, columnID, key, nonce, sealedData.Tag, strideTag)
	}

	return opts.Keychain.Put(blockID, columnID, key, nonce, sealedData.Tag)
}

func writeColumnRecord(out *buffer.Buffer, c *container.Container) {
	h := c.DataHeader()
	hdrBytes := h.Bytes(out.Engine())
	out.AppendBytes(hdrBytes)
	out.AppendBytes(sliceMD5(hdrBytes))
	out.AppendUint32(uint32(len(c.CompressedData())))
	out.AppendBytes(c.CompressedData())

	if h.IsVariableStride() {
		sh := c.StrideHeader()
		shBytes := sh.Bytes(out.Engine())
		out.AppendBytes(shBytes)
		out.AppendBytes(sliceMD5(shBytes))
		out.AppendUint32(uint32(len(c.CompressedStride())))
		out.AppendBytes(c.CompressedStride())
	}
}

func sliceMD5(b []byte) []byte {
	sum := digest.HeaderSum(b)

	return sum[:]
}

// buildMetaColumns transposes the block's buffered records into the 20
// fixed meta columns, per spec §3/§6.
func (b *Block) buildMetaColumns(gtClass genotype.Classification, gtPerm genotype.Permutation, gtWords [][]uint64, hasGT bool) ([]columnRecord, error) {
	cols := make([]*container.Container, metaColumnCount)
	for i := range cols {
		cols[i] = container.New(b.engine)
	}

	for _, rec := range b.records {
		if err := cols[MetaContigID].Append(format.I32, rec.Contig); err != nil {
			return nil, err
		}
		if err := cols[MetaPosition].Append(format.I32, rec.Pos-b.minPos); err != nil {
			return nil, err
		}
		if err := cols[MetaQuality].Append(format.F32, rec.Quality); err != nil {
			return nil, err
		}

		if err := appendString(cols[MetaName], rec.Name); err != nil {
			return nil, err
		}

		packed := byte(0)
		if rec.isBiallelicSNV() {
			packed = rec.Ref[0]
		}
		if err := cols[MetaRefAltPacked].Append(format.U8, packed); err != nil {
			return nil, err
		}

		joined := rec.Ref
		if len(rec.Alt) > 0 {
			joined = rec.Ref + "," + strings.Join(rec.Alt, ",")
		}
		if err := appendString(cols[MetaRefAltStrings], joined); err != nil {
			return nil, err
		}

		infoIDs, infoIDsDone := pool.GetUint32Slice(len(rec.Info))
		for i, fv := range rec.Info {
			infoIDs[i] = fv.ID
		}
		infoPatID, err := b.infoPatterns.Intern(infoIDs)
		infoIDsDone()
		if err != nil {
			return nil, err
		}
		if err := cols[MetaInfoPatternID].Append(format.U16, infoPatID); err != nil {
			return nil, err
		}

		fmtIDs := make([]uint32, 0)
		for _, fields := range rec.Format {
			for _, fv := range fields {
				fmtIDs = append(fmtIDs, fv.ID)
			}
		}
		fmtPatID, err := b.fmtPatterns.Intern(fmtIDs)
		if err != nil {
			return nil, err
		}
		if err := cols[MetaFormatPatternID].Append(format.U16, fmtPatID); err != nil {
			return nil, err
		}

		filtPatID, err := b.filtPatterns.Intern(rec.FilterIDs)
		if err != nil {
			return nil, err
		}
		if err := cols[MetaFilterPatternID].Append(format.U16, filtPatID); err != nil {
			return nil, err
		}

		ploidy := uint8(0)
		for _, g := range rec.Genotypes {
			if len(g.Alleles) > int(ploidy) {
				ploidy = uint8(len(g.Alleles))
			}
		}
		if err := cols[MetaPloidyVector].Append(format.U8, ploidy); err != nil {
			return nil, err
		}

		ctrl := recordController(rec, gtClass, hasGT)
		if err := cols[MetaControllerBits].Append(format.U16, uint16(ctrl)); err != nil {
			return nil, err
		}
	}

	if hasGT {
		genoCol := genotypeColumnFor(gtClass.Stream == genotype.StreamDiploidBiallelicRLE, gtClass.Width)
		target := cols[genoCol]
		for _, words := range gtWords {
			for _, w := range words {
				if err := appendNarrowWord(target, gtClass.Width, w); err != nil {
					return nil, err
				}
			}
			if err := target.AddStride(len(words)); err != nil {
				return nil, err
			}
		}

		if len(gtPerm) > 0 {
			permCol := cols[MetaPermutationArray]
			for _, p := range gtPerm {
				if err := permCol.Append(format.U32, p); err != nil {
					return nil, err
				}
			}
			if err := permCol.AddStride(len(gtPerm)); err != nil {
				return nil, err
			}
		}
	}

	out := make([]columnRecord, len(cols))
	for i, c := range cols {
		out[i] = columnRecord{kind: digest.FieldMeta, fieldID: 0, c: c}
	}

	return out, nil
}

func appendString(c *container.Container, s string) error {
	for i := 0; i < len(s); i++ {
		if err := c.Append(format.Char, s[i]); err != nil {
			return err
		}
	}

	return c.AddStride(len(s))
}

func appendNarrowWord(c *container.Container, width int, w uint64) error {
	switch width {
	case 8:
		return c.Append(format.U8, uint8(w))
	case 16:
		return c.Append(format.U16, uint16(w))
	case 32:
		return c.Append(format.U32, uint32(w))
	default:
		return c.Append(format.U64, w)
	}
}

func recordController(rec Record, c genotype.Classification, hasGT bool) RecordController {
	var ctrl RecordController
	if hasGT && len(rec.Genotypes) > 0 {
		ctrl |= RecGTAvailable
	}
	if c.AnyMissing {
		ctrl |= RecAnyMissing
	}
	if c.PhaseBits == 1 {
		ctrl |= RecMixedPhase
	} else if c.UniformPhased {
		ctrl |= RecUniformPhase
	}
	if c.MixedPloidy {
		ctrl |= RecMixedPloidy
	}
	if c.Stream == genotype.StreamDiploidBiallelicRLE {
		ctrl |= RecBiallelic | RecDiploid
	}
	if rec.isBiallelicSNV() {
		ctrl |= RecSimpleSNV | RecAllelesPacked | RecAllSNV
	}

	return ctrl
}

// buildAnnotationColumns transposes INFO and FORMAT values into the two
// dynamic column dictionaries, keyed by global field id.
func (b *Block) buildAnnotationColumns() ([]columnRecord, []columnRecord, error) {
	info := make(map[uint32]*container.Container)
	formatCols := make(map[uint32]*container.Container)

	for _, rec := range b.records {
		for _, fv := range rec.Info {
			c, ok := info[fv.ID]
			if !ok {
				c = container.New(b.engine)
				info[fv.ID] = c
			}
			if err := appendFieldValue(c, b.schema.Info[fv.ID], fv); err != nil {
				return nil, nil, err
			}
		}

		for _, sampleFields := range rec.Format {
			for _, fv := range sampleFields {
				c, ok := formatCols[fv.ID]
				if !ok {
					c = container.New(b.engine)
					formatCols[fv.ID] = c
				}
				if err := appendFieldValue(c, b.schema.Format[fv.ID], fv); err != nil {
					return nil, nil, err
				}
			}
		}
	}

	return containerMapToSlice(digest.FieldInfo, info), containerMapToSlice(digest.FieldFormat, formatCols), nil
}

func appendFieldValue(c *container.Container, fs FieldSchema, fv FieldValue) error {
	for _, v := range fv.Values {
		if err := c.Append(fs.Type, v); err != nil {
			return fmt.Errorf("field %d: %w", fv.ID, err)
		}
	}
	if fs.Stride < 0 {
		return c.AddStride(len(fv.Values))
	}

	return nil
}

// containerMapToSlice flattens m into columnRecords ordered by ascending
// field id: map iteration order is randomized, but columns must be written
// in a deterministic order so two encodes of the same records produce
// byte-identical blocks.
func containerMapToSlice(kind digest.FieldKind, m map[uint32]*container.Container) []columnRecord {
	out := make([]columnRecord, 0, len(m))
	for id, c := range m {
		out = append(out, columnRecord{kind: kind, fieldID: id, c: c})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].fieldID < out[j].fieldID })

	return out
}
