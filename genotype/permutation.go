package genotype

import (
	"fmt"
	"sort"

	"github.com/govariant/govariant/errs"
)

// Permutation is a bijection over [0, N) sample indices: Permutation[i] is
// the original sample index now placed at permuted position i.
type Permutation []uint32

// Identity returns the identity permutation over n samples.
func Identity(n int) Permutation {
	p := make(Permutation, n)
	for i := range p {
		p[i] = uint32(i)
	}

	return p
}

// IsIdentity reports whether p maps every position to itself. Supplemented
// from original_source/ (tachyon's yon_gt_ppa carries an identity fast path
// so blocks with no benefit from permutation skip the indirection).
func (p Permutation) IsIdentity() bool {
	for i, v := range p {
		if v != uint32(i) {
			return false
		}
	}

	return true
}

// Inverse returns the permutation q such that q[p[i]] == i for all i:
// applying q recovers original sample order from permuted order.
// Supplemented from original_source/'s yon_gt_ppa, which carries both the
// forward and reverse arrays rather than recomputing the inverse on demand.
func (p Permutation) Inverse() Permutation {
	q := make(Permutation, len(p))
	for i, v := range p {
		q[v] = uint32(i)
	}

	return q
}

// Validate confirms p is a bijection over [0, len(p)), per spec §3
// "Permutation Array" invariant.
func (p Permutation) Validate() error {
	seen := make([]bool, len(p))
	for _, v := range p {
		if int(v) >= len(p) || seen[v] {
			return fmt.Errorf("%w: permutation is not a bijection over %d samples", errs.ErrPloidyMismatch, len(p))
		}
		seen[v] = true
	}

	return nil
}

// sampleKey is one sample's allele tuple at one variant, reduced to a single
// comparable value for the radix pass. Phase is folded in as the lowest bit
// so phase differences still separate runs without a second comparison.
//
// Packs up to 4 allele slots into the 64-bit key (16 bits each); ploidy
// beyond 4 still sorts correctly on the low 4 slots, which is sufficient to
// group identical genotype strings for the vast majority of blocks (human
// autosomal diploid data never exceeds 2). Coarser grouping for exotic
// higher-ploidy blocks only affects compression ratio, never correctness —
// the RLE pass still emits a correct, if less compact, encoding for any
// ordering.
func sampleKey(g Genotype) uint64 {
	var key uint64
	for i, a := range g.Alleles {
		if i >= 4 {
			break
		}
		key = key<<16 | uint64(uint16(int16(a)))
	}

	key <<= 1
	if g.Phased {
		key |= 1
	}

	return key
}

// BuildPermutation computes the Step B adaptive sample permutation: an LSD
// radix sort of sample indices by their per-variant allele tuples, applied
// from the last variant to the first so that samples sharing the longest
// common genotype-string suffix end up contiguous (spec §4.5 Step B).
//
// variants[v] must have length numSamples for every v. When numSamples <= 1
// the identity permutation is returned, per spec's tie-break rule.
func BuildPermutation(numSamples int, variants [][]Genotype) Permutation {
	order := Identity(numSamples)
	if numSamples <= 1 || len(variants) == 0 {
		return order
	}

	for v := len(variants) - 1; v >= 0; v-- {
		keys := make([]uint64, numSamples)
		for s, g := range variants[v] {
			keys[s] = sampleKey(g)
		}

		sort.SliceStable(order, func(i, j int) bool {
			return keys[order[i]] < keys[order[j]]
		})
	}

	return order
}

// Apply reorders samples into permuted order: out[i] = genotypes[p[i]].
func Apply(p Permutation, genotypes []Genotype) []Genotype {
	out := make([]Genotype, len(p))
	for i, src := range p {
		out[i] = genotypes[src]
	}

	return out
}

// Unapply restores original sample order from permuted order:
// out[p[i]] == permuted[i].
func Unapply(p Permutation, permuted []Genotype) []Genotype {
	out := make([]Genotype, len(p))
	for i, dst := range p {
		out[dst] = permuted[i]
	}

	return out
}
