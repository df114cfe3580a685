// Package vindex implements the Hierarchical Index (spec component C7): a
// per-contig quad-tree mapping genomic intervals to the block ids whose
// variants intersect them, plus a flat per-contig linear index for
// single-pass iteration without bin traversal.
//
// Per spec §9 DESIGN NOTES ("Pointer graphs of parent/child index nodes:
// replace with an arena of index-node records addressed by 32-bit slot
// ids"), the tree is a flat []bin arena; a node's children are slice
// indices, never pointers, so the whole tree occupies one contiguous array
// in memory.
package vindex

import "sort"

// maxLevels is the deepest a contig's quad-tree may go (spec §4.7: "up to
// seven levels").
const maxLevels = 7

// minLeafBases is the target minimum base-pair span of a leaf bin (spec
// §4.7: "widest leaf bin covers <=2500 bases worth of blocks on average").
const minLeafBases = 2500

// bin is one node in a contig's quad-tree arena.
type bin struct {
	start, end int64 // half-open base-pair range [start, end) this bin covers
	children   [4]int32
	blockIDs   []uint64
}

// Tree is one contig's complete quad-tree, numbered in depth-first preorder.
type Tree struct {
	arena []bin
	depth int
}

// NewTree builds an empty quad-tree sized for a contig of the given length,
// choosing a level count per spec §4.7's construction rule: the deepest
// level (up to maxLevels) whose leaf bins are still at least minLeafBases
// wide, falling back to a single level for very short contigs.
func NewTree(contigLength int64) *Tree {
	if contigLength < 1 {
		contigLength = 1
	}

	levels := chooseLevels(contigLength)
	t := &Tree{depth: levels}
	t.arena = append(t.arena, bin{})
	t.build(0, 0, contigLength, 0)

	return t
}

func chooseLevels(length int64) int {
	for l := maxLevels; l >= 1; l-- {
		if ceilDiv(length, pow4(l)) >= minLeafBases {
			return l
		}
	}

	return 1
}

func pow4(l int) int64 {
	v := int64(1)
	for i := 0; i < l; i++ {
		v *= 4
	}

	return v
}

func ceilDiv(a, b int64) int64 {
	if b == 0 {
		return a
	}

	return (a + b - 1) / b
}

// build recursively populates the arena in depth-first preorder, splitting
// [start,end) into four equal children until depth reaches the tree's
// chosen level count.
func (t *Tree) build(idx int32, start, end int64, depth int) {
	t.arena[idx].start = start
	t.arena[idx].end = end

	if depth >= t.depth {
		t.arena[idx].children = [4]int32{-1, -1, -1, -1}
		return
	}

	span := end - start
	quarter := ceilDiv(span, 4)

	for i := 0; i < 4; i++ {
		childStart := start + int64(i)*quarter
		childEnd := childStart + quarter
		if childEnd > end || i == 3 {
			childEnd = end
		}
		if childStart >= end {
			t.arena[idx].children[i] = -1
			continue
		}

		childIdx := int32(len(t.arena))
		t.arena = append(t.arena, bin{})
		t.arena[idx].children[i] = childIdx
		t.build(childIdx, childStart, childEnd, depth+1)
	}
}

// Add walks from the root while both posMin and posMax fall within the same
// child bin, selecting the deepest such bin, and records blockID there
// (deduplicated against the bin's last recorded id). It returns the
// selected bin's arena index. posMax is exclusive, matching bin ranges.
func (t *Tree) Add(blockID uint64, posMin, posMax int64) int32 {
	idx := int32(0)
	for {
		b := &t.arena[idx]

		next := int32(-1)
		for _, c := range b.children {
			if c < 0 {
				continue
			}
			cb := &t.arena[c]
			if posMin >= cb.start && posMax <= cb.end {
				next = c
				break
			}
		}

		if next < 0 {
			break
		}
		idx = next
	}

	b := &t.arena[idx]
	if len(b.blockIDs) == 0 || b.blockIDs[len(b.blockIDs)-1] != blockID {
		b.blockIDs = append(b.blockIDs, blockID)
	}

	return idx
}

// Query enumerates every bin intersecting [posMin,posMax] by traversing
// root to leaf, collecting block ids at every level along the way, then
// returns the merged, sorted, deduplicated set (spec §4.7 query / invariant
// "Index locality").
func (t *Tree) Query(posMin, posMax int64) []uint64 {
	var out []uint64
	t.query(0, posMin, posMax, &out)

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return dedupSorted(out)
}

func (t *Tree) query(idx int32, posMin, posMax int64, out *[]uint64) {
	if idx < 0 {
		return
	}
	b := &t.arena[idx]
	if posMax <= b.start || posMin >= b.end {
		return
	}

	*out = append(*out, b.blockIDs...)

	for _, c := range b.children {
		t.query(c, posMin, posMax, out)
	}
}

func dedupSorted(ids []uint64) []uint64 {
	if len(ids) == 0 {
		return ids
	}

	out := ids[:1]
	for _, id := range ids[1:] {
		if id != out[len(out)-1] {
			out = append(out, id)
		}
	}

	return out
}
