// Package genotype implements the Genotype Codec (spec component C5): for
// each block, classify the genotype matrix into one of eight container
// streams, compute an adaptive sample permutation that maximizes
// run-length compressibility, and run-length encode the permuted matrix
// into fixed-width words.
//
// The codec operates one block at a time: classify (Step A), permute
// (Step B), encode (Step C) and decode (Step D) each take the full set of
// per-variant genotype vectors for a block, since stream/width selection
// and the sample permutation are both block-wide decisions (spec §4.5,
// and the Genotype Record invariant: "for a given block, all genotype
// records use the same encoding method and width").
package genotype

import (
	"fmt"

	"github.com/govariant/govariant/errs"
)

// AlleleMissing and AlleleEndOfVector are reserved sentinel allele values in
// the caller-facing representation, mirrored from tachyon's yon_gt_ppa
// sentinel convention (_examples/original_source/lib/core/genotypes.h):
// ordinary allele indices are always >= 0.
const (
	AlleleMissing     = int32(-1)
	AlleleEndOfVector = int32(-2)
)

// Genotype is one sample's call at one variant, in the caller's original
// (unpermuted) representation.
type Genotype struct {
	Alleles []int32 // length == that sample's ploidy at this variant; may contain sentinels
	Phased  bool
}

// Stream identifies which of the two RLE bit-layouts a block's genotype
// column uses.
type Stream uint8

const (
	// StreamDiploidBiallelicRLE packs [run_length | alleleB | alleleA | phase]
	// per spec §4.5 Step C, used when every variant in the block has ploidy 2
	// and at most two distinct alleles (ref/alt).
	StreamDiploidBiallelicRLE Stream = iota + 1
	// StreamNAllelicSimple generalizes the same run-length word layout to
	// arbitrary ploidy and allele counts.
	StreamNAllelicSimple
)

func (s Stream) String() string {
	switch s {
	case StreamDiploidBiallelicRLE:
		return "diploid-biallelic-rle"
	case StreamNAllelicSimple:
		return "n-allelic-simple"
	default:
		return "unknown"
	}
}

// Classification is the block-wide Step A decision: which stream, what word
// width, and the bit shares within each word.
type Classification struct {
	Stream      Stream
	Width       int // 8, 16, 32, or 64
	Ploidy      int
	AlleleBits  int
	PhaseBits   int // 0 (uniform phase) or 1 (mixed phase)
	AnyMissing  bool
	MixedPloidy bool
	MaxAllele   int32 // highest ordinary allele index observed
	RunBits     int

	// UniformPhased is only meaningful when PhaseBits == 0: it is the single
	// phase value shared by every genotype in the block (phase bits are
	// omitted from the word layout entirely in that case, per spec §4.5 Step
	// C "mixed-phase ⇒ 1 phase bit per entry else 0").
	UniformPhased bool
}

// MaxRun returns the largest run length representable in one word before a
// run must be split across multiple words.
func (c Classification) MaxRun() uint64 {
	return uint64(1)<<uint(c.RunBits) - 1
}

var widths = []int{8, 16, 32, 64}

// Classify inspects every variant's genotype vector in a block and picks the
// stream, word width, and bit layout used for the whole block's genotype
// column, per spec §4.5 Step A.
func Classify(variants [][]Genotype) (Classification, error) {
	var c Classification

	ploidy := 0
	mixedPloidy := false
	biallelic := true
	anyMissing := false
	sawPhased, sawUnphased := false, false
	var maxAllele int32 = -1

	for _, samples := range variants {
		for _, g := range samples {
			p := len(g.Alleles)
			if ploidy == 0 {
				ploidy = p
			} else if p != ploidy {
				if p > ploidy {
					ploidy = p
				}
				mixedPloidy = true
			}

			if g.Phased {
				sawPhased = true
			} else {
				sawUnphased = true
			}

			for _, a := range g.Alleles {
				switch a {
				case AlleleMissing:
					anyMissing = true
				case AlleleEndOfVector:
					// accounted for by mixedPloidy above
				default:
					if a < 0 {
						return c, fmt.Errorf("%w: negative allele index %d", errs.ErrGtOverflow, a)
					}
					if a > maxAllele {
						maxAllele = a
					}
					if a > 1 {
						biallelic = false
					}
				}
			}
		}
	}

	if ploidy == 0 {
		ploidy = 2
	}

	c.Ploidy = ploidy
	c.MixedPloidy = mixedPloidy
	c.AnyMissing = anyMissing
	c.MaxAllele = maxAllele
	if sawPhased && sawUnphased {
		c.PhaseBits = 1
	} else {
		c.UniformPhased = sawPhased
	}

	if ploidy == 2 && biallelic && !mixedPloidy {
		c.Stream = StreamDiploidBiallelicRLE
		if anyMissing {
			c.AlleleBits = 2
		} else {
			c.AlleleBits = 1
		}
	} else {
		c.Stream = StreamNAllelicSimple
		symbols := maxAllele + 1
		if symbols < 1 {
			symbols = 1
		}
		if anyMissing {
			symbols++
		}
		if mixedPloidy {
			symbols++ // reserve a code for AlleleEndOfVector
		}
		c.AlleleBits = bitsFor(uint64(symbols))
	}

	need := c.AlleleBits*c.Ploidy + c.PhaseBits
	for _, w := range widths {
		if w > need {
			c.Width = w
			c.RunBits = w - need
			return c, nil
		}
	}

	return c, fmt.Errorf("%w: %d bits per entry exceeds the largest word width", errs.ErrGtOverflow, need)
}

// bitsFor returns ceil(log2(n)) for n >= 1, with bitsFor(1) == 1 (a single
// symbol still needs a bit to round-trip through the word layout).
func bitsFor(n uint64) int {
	if n <= 1 {
		return 1
	}

	bits := 0
	for v := n - 1; v > 0; v >>= 1 {
		bits++
	}

	return bits
}
