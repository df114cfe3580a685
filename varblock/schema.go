// Package varblock implements the Variant Block (spec component C6): the
// fixed 20-column meta schema, the INFO/FORMAT dynamic column dictionaries,
// the three pattern dictionaries, and the block header/footer wire format
// that ties a block's columns together with the Genotype Codec, Codec
// Layer, and Digest Manager.
package varblock

import "github.com/govariant/govariant/format"

// FieldSchema describes one INFO or FORMAT annotation field: its global id
// (stable across the whole archive, assigned by the caller-owned header
// metadata that spec §6 places out of this component's scope) and its
// primitive element type.
type FieldSchema struct {
	ID     uint32
	Type   format.PrimitiveType
	Stride int32 // -1 => variable (e.g. one value per sample for FORMAT)
}

// Schema is the set of INFO and FORMAT field descriptors a Block uses to
// type-check values routed to dynamic columns. It is supplied once by the
// writer/reader, mirroring the archive-level metadata block that spec §6
// describes as an external collaborator ("self-describing text/metadata
// block defining ... INFO/FORMAT/FILTER field descriptors").
type Schema struct {
	Info   map[uint32]FieldSchema
	Format map[uint32]FieldSchema

	// ContigLengths maps a contig id to its declared length in bases, used
	// to reject records via ContigRangeViolation (spec §4.6).
	ContigLengths map[int32]int64
}

// NewSchema creates an empty Schema.
func NewSchema() *Schema {
	return &Schema{
		Info:          make(map[uint32]FieldSchema),
		Format:        make(map[uint32]FieldSchema),
		ContigLengths: make(map[int32]int64),
	}
}
