package genotype

import (
	"fmt"

	"github.com/govariant/govariant/errs"
)

// alleleCode maps one caller-facing allele (possibly a sentinel) to its
// in-word symbol for the given classification.
func alleleCode(c Classification, a int32) (uint64, error) {
	switch a {
	case AlleleMissing:
		if !c.AnyMissing {
			return 0, fmt.Errorf("%w: missing allele in a block not classified any-missing", errs.ErrGtOverflow)
		}
		if c.Stream == StreamDiploidBiallelicRLE {
			return 2, nil // alleleBits==2 in this path; code 2 reserved for missing
		}

		return uint64(c.MaxAllele + 1), nil
	case AlleleEndOfVector:
		if !c.MixedPloidy {
			return 0, fmt.Errorf("%w: end-of-vector allele in a uniform-ploidy block", errs.ErrPloidyMismatch)
		}

		eov := uint64(c.MaxAllele + 1)
		if c.AnyMissing {
			eov++
		}

		return eov, nil
	default:
		max := uint64(1)<<uint(c.AlleleBits) - 1
		if uint64(a) > max {
			return 0, fmt.Errorf("%w: allele %d does not fit %d bits", errs.ErrGtOverflow, a, c.AlleleBits)
		}

		return uint64(a), nil
	}
}

// codeAllele is the inverse of alleleCode: given an in-word symbol, returns
// the caller-facing allele value (possibly a sentinel).
func codeAllele(c Classification, code uint64) int32 {
	if c.Stream == StreamDiploidBiallelicRLE {
		if c.AnyMissing && code == 2 {
			return AlleleMissing
		}

		return int32(code)
	}

	missingCode := uint64(c.MaxAllele + 1)
	eovCode := missingCode
	if c.AnyMissing {
		eovCode++
	}

	switch {
	case c.AnyMissing && code == missingCode:
		return AlleleMissing
	case c.MixedPloidy && code == eovCode:
		return AlleleEndOfVector
	default:
		return int32(code)
	}
}

// tupleWord packs one sample's allele tuple and phase bit into the low bits
// of a word, per spec §4.5 Step C: "[... | allele_B | allele_A | phase]" for
// the diploid stream, generalized to arbitrary ploidy by stacking allele
// slots from index 0 (lowest, just above phase) upward.
func tupleWord(c Classification, g Genotype) (uint64, error) {
	var word uint64
	// Pad missing ploidy slots (mixed-ploidy blocks) with end-of-vector.
	if len(g.Alleles) < c.Ploidy {
		eovCode, err := alleleCode(c, AlleleEndOfVector)
		if err != nil {
			return 0, err
		}
		for i := len(g.Alleles); i < c.Ploidy; i++ {
			word = word<<uint(c.AlleleBits) | eovCode
		}
	}
	for i := len(g.Alleles) - 1; i >= 0; i-- {
		code, err := alleleCode(c, g.Alleles[i])
		if err != nil {
			return 0, err
		}
		word = word<<uint(c.AlleleBits) | code
	}

	word <<= uint(c.PhaseBits)
	if c.PhaseBits == 1 && g.Phased {
		word |= 1
	}

	return word, nil
}

func untupleWord(c Classification, tuple uint64) Genotype {
	phased := c.UniformPhased
	if c.PhaseBits == 1 {
		phased = tuple&1 != 0
		tuple >>= 1
	}

	alleles := make([]int32, c.Ploidy)
	mask := uint64(1)<<uint(c.AlleleBits) - 1
	for i := 0; i < c.Ploidy; i++ {
		alleles[i] = codeAllele(c, tuple&mask)
		tuple >>= uint(c.AlleleBits)
	}

	return Genotype{Alleles: alleles, Phased: phased}
}

// EncodeVariant run-length encodes one variant's permuted sample vector
// (spec §4.5 Step C): walks samples in order, emitting a new word whenever
// the (allele tuple, phase) differs from the previous sample, splitting runs
// that exceed the word's run-length field.
func EncodeVariant(c Classification, permuted []Genotype) ([]uint64, error) {
	if len(permuted) == 0 {
		return nil, nil
	}

	bitsPerEntry := c.AlleleBits*c.Ploidy + c.PhaseBits
	maxRun := c.MaxRun()

	var words []uint64
	var curTuple uint64
	var curBits uint64
	run := uint64(0)

	flush := func() {
		for run > 0 {
			chunk := run
			if chunk > maxRun {
				chunk = maxRun
			}
			words = append(words, curBits|(chunk<<uint(bitsPerEntry)))
			run -= chunk
		}
	}

	for i, g := range permuted {
		bits, err := tupleWord(c, g)
		if err != nil {
			return nil, err
		}

		if i == 0 {
			curTuple, curBits, run = bits, bits, 1
			continue
		}

		if bits == curTuple {
			run++
			continue
		}

		flush()
		curTuple, curBits, run = bits, bits, 1
	}
	flush()

	return words, nil
}

// DecodeVariant reverses EncodeVariant, expanding run-length words back to
// sampleCount per-sample genotypes in the same (permuted) order they were
// encoded.
func DecodeVariant(c Classification, words []uint64, sampleCount int) ([]Genotype, error) {
	bitsPerEntry := uint(c.AlleleBits*c.Ploidy + c.PhaseBits)
	runMask := uint64(1)<<uint(c.RunBits) - 1

	out := make([]Genotype, 0, sampleCount)
	for _, w := range words {
		run := (w >> bitsPerEntry) & runMask
		tupleBits := w & (uint64(1)<<bitsPerEntry - 1)
		g := untupleWord(c, tupleBits)

		for i := uint64(0); i < run; i++ {
			out = append(out, g)
		}
	}

	if len(out) != sampleCount {
		return nil, fmt.Errorf("%w: decoded %d genotypes, expected %d", errs.ErrPloidyMismatch, len(out), sampleCount)
	}

	return out, nil
}
