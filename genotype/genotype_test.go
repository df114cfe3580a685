package genotype_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/govariant/govariant/genotype"
)

func gt(a, b int32, phased bool) genotype.Genotype {
	return genotype.Genotype{Alleles: []int32{a, b}, Phased: phased}
}

// S1: single biallelic SNV, 4 samples, genotypes [0|0, 0|1, 1|1, 0|0].
func TestEncodeDecode_S1_SingleBiallelicSNV(t *testing.T) {
	variants := [][]genotype.Genotype{
		{gt(0, 0, false), gt(0, 1, false), gt(1, 1, false), gt(0, 0, false)},
	}

	enc, err := genotype.EncodeBlock(4, variants, false)
	require.NoError(t, err)
	require.Equal(t, genotype.StreamDiploidBiallelicRLE, enc.Classification.Stream)
	require.True(t, enc.Permutation.IsIdentity())

	words := enc.VariantWords[0]
	require.GreaterOrEqual(t, len(words), 3)
	require.LessOrEqual(t, len(words), 4)

	decoded, err := genotype.DecodeBlock(enc.Classification, enc.Permutation, enc.VariantWords, 4, true)
	require.NoError(t, err)
	require.Equal(t, variants, decoded)
}

// S2: two adjacent sites, no permutation benefit, 3 samples all 0|0 at both.
func TestEncodeDecode_S2_AllHomozygousRef(t *testing.T) {
	variants := [][]genotype.Genotype{
		{gt(0, 0, false), gt(0, 0, false), gt(0, 0, false)},
		{gt(0, 0, false), gt(0, 0, false), gt(0, 0, false)},
	}

	enc, err := genotype.EncodeBlock(3, variants, true)
	require.NoError(t, err)
	require.True(t, enc.Permutation.IsIdentity())

	for _, words := range enc.VariantWords {
		require.Len(t, words, 1)
	}

	decoded, err := genotype.DecodeBlock(enc.Classification, enc.Permutation, enc.VariantWords, 3, true)
	require.NoError(t, err)
	require.Equal(t, variants, decoded)
}

func TestPermutation_FaithfulInverse(t *testing.T) {
	variants := [][]genotype.Genotype{
		{gt(0, 0, false), gt(1, 1, false), gt(0, 1, true), gt(1, 1, false)},
		{gt(1, 1, false), gt(0, 0, false), gt(0, 1, true), gt(0, 0, false)},
	}

	perm := genotype.BuildPermutation(4, variants)
	require.NoError(t, perm.Validate())

	inv := perm.Inverse()
	for i := range perm {
		require.Equal(t, uint32(i), inv[perm[i]])
	}
}

func TestPermutation_DisabledForSingleSample(t *testing.T) {
	variants := [][]genotype.Genotype{{gt(0, 1, false)}}
	perm := genotype.BuildPermutation(1, variants)
	require.True(t, perm.IsIdentity())
}

func TestEncodeDecode_MissingAlleles(t *testing.T) {
	variants := [][]genotype.Genotype{
		{gt(0, 0, false), {Alleles: []int32{genotype.AlleleMissing, genotype.AlleleMissing}}, gt(1, 1, false)},
	}

	enc, err := genotype.EncodeBlock(3, variants, false)
	require.NoError(t, err)
	require.True(t, enc.Classification.AnyMissing)

	decoded, err := genotype.DecodeBlock(enc.Classification, enc.Permutation, enc.VariantWords, 3, true)
	require.NoError(t, err)
	require.Equal(t, variants, decoded)
}

func TestEncodeDecode_NAllelicStream(t *testing.T) {
	variants := [][]genotype.Genotype{
		{gt(0, 2, false), gt(1, 3, true), gt(2, 2, false), gt(0, 0, false)},
	}

	enc, err := genotype.EncodeBlock(4, variants, true)
	require.NoError(t, err)
	require.Equal(t, genotype.StreamNAllelicSimple, enc.Classification.Stream)

	decoded, err := genotype.DecodeBlock(enc.Classification, enc.Permutation, enc.VariantWords, 4, true)
	require.NoError(t, err)

	// DecodeBlock applied the inverse permutation, so samples are back in original order.
	require.Len(t, decoded[0], 4)
	for i := range variants[0] {
		require.Equal(t, variants[0][i], decoded[0][i])
	}
}

func TestRunLengthMonotonicity(t *testing.T) {
	variants := [][]genotype.Genotype{
		{gt(0, 0, false), gt(0, 1, false), gt(1, 1, false), gt(0, 1, false), gt(1, 1, false)},
	}

	enc, err := genotype.EncodeBlock(5, variants, true)
	require.NoError(t, err)
	require.LessOrEqual(t, len(enc.VariantWords[0]), 5)
}
