package varblock

// Controller is the block header's controller bitfield (spec §3 "Block
// header: ... controller (has-genotypes, has-permutation, any-encrypted)").
type Controller uint16

const (
	CtrlHasGenotypes Controller = 1 << iota
	CtrlHasPermutation
	CtrlAnyEncrypted
)

func (c Controller) Has(bit Controller) bool { return c&bit != 0 }

// RecordController is the per-record controller bitfield packed into the
// *controller bits* meta column (spec §6): presence/shape flags describing
// one variant's genotype and allele layout.
type RecordController uint16

const (
	RecGTAvailable RecordController = 1 << iota
	RecAnyMissing
	RecMixedPhase
	RecUniformPhase
	RecMixedPloidy
	RecBiallelic
	RecSimpleSNV
	RecDiploid
	RecAllelesPacked
	RecAllSNV
)

func (c RecordController) Has(bit RecordController) bool { return c&bit != 0 }
