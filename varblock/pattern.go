package varblock

import (
	"fmt"
	"sort"

	"github.com/govariant/govariant/errs"
	"github.com/govariant/govariant/internal/hash"
)

// PatternDict deduplicates ordered id-vectors (the set of INFO, FORMAT, or
// FILTER field ids that co-occur on one record) into 16-bit local pattern
// ids, per spec §3 "Pattern Dictionary". Pattern id 0 is always the empty
// pattern.
type PatternDict struct {
	idsByHash map[uint64]uint16
	patterns  [][]uint32 // patterns[id] is the ordered id-vector for that pattern id
}

// NewPatternDict creates a dictionary pre-seeded with the reserved empty
// pattern at id 0.
func NewPatternDict() *PatternDict {
	d := &PatternDict{
		idsByHash: make(map[uint64]uint16),
		patterns:  [][]uint32{{}},
	}
	d.idsByHash[hash.Pattern(nil)] = 0

	return d
}

// Intern returns the local pattern id for ids, assigning a new id the first
// time a distinct vector is seen. ids is copied; callers may reuse the
// slice. Returns errs.ErrPatternOverflow past 65,535 distinct patterns.
func (d *PatternDict) Intern(ids []uint32) (uint16, error) {
	sorted := append([]uint32(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	key := hash.Pattern(sorted)
	if id, ok := d.idsByHash[key]; ok {
		return id, nil
	}

	if len(d.patterns) >= 1<<16 {
		return 0, fmt.Errorf("%w: more than 65535 distinct patterns", errs.ErrPatternOverflow)
	}

	id := uint16(len(d.patterns))
	d.patterns = append(d.patterns, sorted)
	d.idsByHash[key] = id

	return id, nil
}

// Lookup returns the ordered id-vector for a local pattern id.
func (d *PatternDict) Lookup(id uint16) ([]uint32, error) {
	if int(id) >= len(d.patterns) {
		return nil, fmt.Errorf("%w: pattern id %d not present", errs.ErrSchemaMismatch, id)
	}

	return d.patterns[id], nil
}

// Len returns the number of distinct patterns, including the reserved empty
// pattern.
func (d *PatternDict) Len() int { return len(d.patterns) }

// Patterns returns every interned pattern, indexed by pattern id, for
// serialization into the block footer's pattern table.
func (d *PatternDict) Patterns() [][]uint32 { return d.patterns }
