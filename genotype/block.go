package genotype

import "fmt"

// EncodedBlock is the full Step B+C output for one block's genotype matrix:
// the classification (written into the block's controller bits), the
// permutation (written to the dedicated permutation column, identity
// included), and one RLE word run per variant (written into the chosen
// 8/16/32/64-bit genotype column with each variant as one entry; the column
// is stored with a fixed stride when every variant has the same word count).
type EncodedBlock struct {
	Classification Classification
	Permutation    Permutation
	VariantWords   [][]uint64 // VariantWords[v] is variant v's RLE word run, in permuted sample order
}

// EncodeBlock runs the full write-side Genotype Codec pipeline (spec §4.5
// Steps A-C) over one block's genotype matrix. variants[v] must have length
// numSamples for every v; permute selects whether Step B runs (callers wire
// this to the archive's permute_genotypes option).
func EncodeBlock(numSamples int, variants [][]Genotype, permute bool) (EncodedBlock, error) {
	classification, err := Classify(variants)
	if err != nil {
		return EncodedBlock{}, err
	}

	perm := Identity(numSamples)
	if permute && numSamples > 1 {
		perm = BuildPermutation(numSamples, variants)
	}

	words := make([][]uint64, len(variants))
	for v, samples := range variants {
		permuted := Apply(perm, samples)

		w, err := EncodeVariant(classification, permuted)
		if err != nil {
			return EncodedBlock{}, fmt.Errorf("variant %d: %w", v, err)
		}
		words[v] = w
	}

	return EncodedBlock{Classification: classification, Permutation: perm, VariantWords: words}, nil
}

// DecodeBlock reverses EncodeBlock. When applyInverse is true, the result is
// restored to original sample order (spec §4.5 Step D: "apply its inverse
// only when a consumer requests original sample order; otherwise consumers
// see permuted order"); when false, callers receive samples in permuted
// order, which is cheaper when all downstream computation commutes with the
// permutation.
func DecodeBlock(c Classification, perm Permutation, variantWords [][]uint64, numSamples int, applyInverse bool) ([][]Genotype, error) {
	out := make([][]Genotype, len(variantWords))

	for v, words := range variantWords {
		permuted, err := DecodeVariant(c, words, numSamples)
		if err != nil {
			return nil, fmt.Errorf("variant %d: %w", v, err)
		}

		if applyInverse && !perm.IsIdentity() {
			out[v] = Unapply(perm, permuted)
		} else {
			out[v] = permuted
		}
	}

	return out, nil
}
