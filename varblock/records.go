package varblock

import (
	"fmt"
	"strings"

	"github.com/govariant/govariant/container"
	"github.com/govariant/govariant/errs"
	"github.com/govariant/govariant/format"
	"github.com/govariant/govariant/genotype"
)

// ToRecords reassembles a decoded block's columns back into Records, the
// inverse of buildMetaColumns/buildAnnotationColumns (spec §4.9: the read
// path "reconstitutes rows by walking every column in lockstep"). header
// supplies the block's position-offset base and controller bits; numSamples
// is the archive-wide sample count, fixed across blocks and supplied by the
// caller rather than stored per block.
func ToRecords(schema *Schema, header Header, numSamples int, d *DecodedBlock) ([]Record, error) {
	n := int(header.VariantCount)
	records := make([]Record, n)

	// Genotype presence and the permutation, if any, are both recovered from
	// the footer-persisted column state rather than header.Controller: a
	// Reader reconstructing header from the Hierarchical Index's linear
	// entry never has real Controller bits (they are never written to disk,
	// only held in the in-memory Header Flush returns for the writer's own
	// index bookkeeping).
	var genotypes [][]genotype.Genotype
	if d.HasGenotypes && numSamples > 0 {
		words, err := genotypeWords(d, n)
		if err != nil {
			return nil, err
		}

		perm, err := readPermutation(d.Meta[MetaPermutationArray])
		if err != nil {
			return nil, err
		}
		if len(perm) == 0 {
			perm = genotype.Identity(numSamples)
		}

		genotypes, err = genotype.DecodeBlock(d.GTClass, perm, words, numSamples, true)
		if err != nil {
			return nil, err
		}
	}

	infoCursor := make(map[uint32]int)
	fmtCursor := make(map[uint32]int)

	for i := 0; i < n; i++ {
		var rec Record

		contig, err := d.Meta[MetaContigID].Int64At(i)
		if err != nil {
			return nil, err
		}
		rec.Contig = int32(contig)

		posOff, err := d.Meta[MetaPosition].Int64At(i)
		if err != nil {
			return nil, err
		}
		rec.Pos = header.MinPos + int32(posOff)

		q, err := d.Meta[MetaQuality].Float64At(i)
		if err != nil {
			return nil, err
		}
		rec.Quality = float32(q)

		nameBytes, err := d.Meta[MetaName].BytesAt(i)
		if err != nil {
			return nil, err
		}
		rec.Name = string(nameBytes)

		refAltBytes, err := d.Meta[MetaRefAltStrings].BytesAt(i)
		if err != nil {
			return nil, err
		}
		parts := strings.Split(string(refAltBytes), ",")
		rec.Ref = parts[0]
		if len(parts) > 1 {
			rec.Alt = append([]string(nil), parts[1:]...)
		}

		filtPatID, err := d.Meta[MetaFilterPatternID].Uint64At(i)
		if err != nil {
			return nil, err
		}
		rec.FilterIDs, err = lookupPattern(d.FilterPatterns, uint16(filtPatID))
		if err != nil {
			return nil, err
		}

		infoPatID, err := d.Meta[MetaInfoPatternID].Uint64At(i)
		if err != nil {
			return nil, err
		}
		infoIDs, err := lookupPattern(d.InfoPatterns, uint16(infoPatID))
		if err != nil {
			return nil, err
		}
		rec.Info, err = readInfoValues(schema, d, infoCursor, infoIDs)
		if err != nil {
			return nil, err
		}

		fmtPatID, err := d.Meta[MetaFormatPatternID].Uint64At(i)
		if err != nil {
			return nil, err
		}
		fmtIDsRaw, err := lookupPattern(d.FormatPatterns, uint16(fmtPatID))
		if err != nil {
			return nil, err
		}
		rec.Format, err = readFormatValues(schema, d, fmtCursor, dedupFieldIDs(fmtIDsRaw), numSamples)
		if err != nil {
			return nil, err
		}

		if genotypes != nil {
			rec.Genotypes = genotypes[i]
		}

		records[i] = rec
	}

	return records, nil
}

func lookupPattern(patterns [][]uint32, id uint16) ([]uint32, error) {
	if int(id) >= len(patterns) {
		return nil, fmt.Errorf("%w: pattern id %d not present", errs.ErrSchemaMismatch, id)
	}

	return patterns[id], nil
}

// dedupFieldIDs collapses the FORMAT pattern's per-sample-repeated id
// multiset (spec §4.6: fmtIDs is accumulated once per sample) back into the
// unique set of fields applied uniformly to every sample of the record.
func dedupFieldIDs(ids []uint32) []uint32 {
	out := make([]uint32, 0, len(ids))
	for i, id := range ids {
		if i == 0 || id != ids[i-1] {
			out = append(out, id)
		}
	}

	return out
}

func readInfoValues(schema *Schema, d *DecodedBlock, cursor map[uint32]int, ids []uint32) ([]FieldValue, error) {
	out := make([]FieldValue, 0, len(ids))
	for _, id := range ids {
		c, ok := d.Info[id]
		if !ok {
			return nil, fmt.Errorf("%w: info field %d missing column", errs.ErrSchemaMismatch, id)
		}

		fs, ok := schema.Info[id]
		if !ok {
			return nil, fmt.Errorf("%w: info field %d not in schema", errs.ErrSchemaMismatch, id)
		}

		values, err := readEntry(c, fs.Type, cursor[id])
		if err != nil {
			return nil, err
		}
		cursor[id]++

		out = append(out, FieldValue{ID: id, Values: values})
	}

	return out, nil
}

func readFormatValues(schema *Schema, d *DecodedBlock, cursor map[uint32]int, ids []uint32, numSamples int) ([][]FieldValue, error) {
	perSample := make([][]FieldValue, numSamples)

	for _, id := range ids {
		c, ok := d.Format[id]
		if !ok {
			return nil, fmt.Errorf("%w: format field %d missing column", errs.ErrSchemaMismatch, id)
		}

		fs, ok := schema.Format[id]
		if !ok {
			return nil, fmt.Errorf("%w: format field %d not in schema", errs.ErrSchemaMismatch, id)
		}

		for s := 0; s < numSamples; s++ {
			values, err := readEntry(c, fs.Type, cursor[id])
			if err != nil {
				return nil, err
			}
			cursor[id]++

			perSample[s] = append(perSample[s], FieldValue{ID: id, Values: values})
		}
	}

	return perSample, nil
}

// readEntry converts container entry i into its typed Go values. It widens
// each element via Container.WordAt (which reverses Finalize's integer
// narrowing and sign-extends appropriately) before converting to typ, the
// column's originally declared primitive type — not c.Type(), which may
// have been narrowed to a smaller width on disk.
func readEntry(c *container.Container, typ format.PrimitiveType, i int) ([]any, error) {
	if i < 0 || i >= c.EntryCount() {
		return nil, fmt.Errorf("%w: entry %d out of range", errs.ErrBufferBounds, i)
	}

	n := entryElemCountExported(c, i)
	values := make([]any, n)
	for j := 0; j < n; j++ {
		w, err := c.WordAt(i, j)
		if err != nil {
			return nil, err
		}
		values[j] = container.ValueAt(typ, w)
	}

	return values, nil
}

// entryElemCountExported recovers entry i's element count without a direct
// accessor: BytesAt/Entries both derive it from container-private layout,
// so the cheapest public probe is walking Entries once for the index we
// need. Used only by readEntry, where per-record columns are short.
func entryElemCountExported(c *container.Container, i int) int {
	for idx, words := range c.Entries() {
		if idx == i {
			return len(words)
		}
	}

	return 0
}

func genotypeWords(d *DecodedBlock, n int) ([][]uint64, error) {
	col := genotypeColumnFor(d.GTClass.Stream == genotype.StreamDiploidBiallelicRLE, d.GTClass.Width)
	c := d.Meta[col]
	if c == nil {
		return nil, fmt.Errorf("%w: genotype column %s empty", errs.ErrSchemaMismatch, col)
	}

	words := make([][]uint64, n)
	for i, w := range c.Entries() {
		if i >= n {
			break
		}
		words[i] = w
	}

	return words, nil
}

// readPermutation reads the permutation array meta column, which is a
// single block-wide entry holding one sample index per element (spec §4.5
// Step B: the permutation is a block-wide, not per-record, decision).
func readPermutation(c *container.Container) (genotype.Permutation, error) {
	if c == nil || c.EntryCount() == 0 {
		return nil, nil
	}

	for _, words := range c.Entries() {
		perm := make(genotype.Permutation, len(words))
		for i, w := range words {
			perm[i] = uint32(w)
		}

		return perm, nil
	}

	return nil, nil
}
