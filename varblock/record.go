package varblock

import "github.com/govariant/govariant/genotype"

// FieldValue is one INFO annotation on a record, or one FORMAT annotation
// for one sample: a global field id plus its value(s) in the type the
// field's Schema entry declares. A scalar field supplies len(Values)==1;
// a multi-valued field (Schema.Stride == -1) supplies one value per element.
type FieldValue struct {
	ID     uint32
	Values []any
}

// Record is one variant site as presented to a Block, already parsed by the
// external caller (spec §1: parsing the exchange format is out of scope).
type Record struct {
	Contig  int32
	Pos     int32 // 0-based
	Quality float32
	Name    string
	Ref     string
	Alt     []string

	FilterIDs []uint32
	Info      []FieldValue
	// Format holds, per sample, the FORMAT field values for that sample in
	// the same order as Genotypes.
	Format [][]FieldValue

	Genotypes []genotype.Genotype // len == sample count; empty if no GT data
}

// isBiallelicSNV reports whether Ref and every Alt are single-character
// calls drawn from {A,T,G,C,N,.} or the symbolic "<NON_REF>" allele, per
// spec §6's ref/alt-packed byte contract.
func (r Record) isBiallelicSNV() bool {
	if len(r.Alt) != 1 {
		return false
	}

	return isSNVAllele(r.Ref) && isSNVAllele(r.Alt[0])
}

func isSNVAllele(a string) bool {
	if a == "<NON_REF>" {
		return true
	}
	if len(a) != 1 {
		return false
	}

	switch a[0] {
	case 'A', 'T', 'G', 'C', 'N', '.':
		return true
	default:
		return false
	}
}
