package varblock

// MetaColumn enumerates the 20 fixed meta columns of a Variant Block (spec
// §3). Exactly one of the eight genotype-stream columns is populated per
// block, chosen by the Genotype Codec's Step A classification; the other
// seven stay empty.
type MetaColumn uint8

const (
	MetaContigID MetaColumn = iota
	MetaPosition
	MetaControllerBits
	MetaQuality
	MetaName
	MetaRefAltPacked
	MetaRefAltStrings
	MetaInfoPatternID
	MetaFormatPatternID
	MetaFilterPatternID
	MetaPloidyVector
	MetaPermutationArray
	MetaGTRLE8
	MetaGTRLE16
	MetaGTRLE32
	MetaGTRLE64
	MetaGTSimple8
	MetaGTSimple16
	MetaGTSimple32
	MetaGTSimple64

	metaColumnCount
)

func (m MetaColumn) String() string {
	names := [...]string{
		"contig_id", "position", "controller_bits", "quality", "name",
		"ref_alt_packed", "ref_alt_strings", "info_pattern_id", "format_pattern_id",
		"filter_pattern_id", "ploidy_vector", "permutation_array",
		"gt_rle8", "gt_rle16", "gt_rle32", "gt_rle64",
		"gt_simple8", "gt_simple16", "gt_simple32", "gt_simple64",
	}
	if int(m) < len(names) {
		return names[m]
	}

	return "unknown"
}

// genotypeColumnFor returns which of the eight genotype-stream meta columns
// carries words for the given classification.
func genotypeColumnFor(streamIsRLE bool, width int) MetaColumn {
	idx := map[int]int{8: 0, 16: 1, 32: 2, 64: 3}[width]
	if streamIsRLE {
		return MetaGTRLE8 + MetaColumn(idx)
	}

	return MetaGTSimple8 + MetaColumn(idx)
}
