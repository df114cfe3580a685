package vindex

import "github.com/govariant/govariant/errs"

// ContigLengths supplies the per-contig lengths needed to size each
// contig's quad-tree the first time a block touches that contig.
type ContigLengths map[int32]int64

// Index combines one Tree plus one LinearIndex per contig — the full
// Hierarchical Index a Writer mutates during block flush. Index has no lock
// of its own; the Writer calls it only from its single sequencer goroutine.
type Index struct {
	lengths ContigLengths
	trees   map[int32]*Tree
	linear  *LinearIndex
}

// New creates an empty Index. lengths supplies each contig's declared
// length, used to size its quad-tree lazily on first use.
func New(lengths ContigLengths) *Index {
	return &Index{
		lengths: lengths,
		trees:   make(map[int32]*Tree),
		linear:  NewLinearIndex(),
	}
}

// AddBlock records one flushed block's interval in both the quad-tree and
// the linear index, per spec §4.6 step 7. minBin/maxBin are derived from
// the quad-tree insertion itself (spec describes min_bin/max_bin as part of
// the linear entry; since one block occupies exactly one bin per Add, they
// coincide here).
func (ix *Index) AddBlock(contig int32, blockID uint64, minPos, maxPos int32, byteOffset, byteLength uint64, variantCount uint32) error {
	tree, err := ix.treeFor(contig)
	if err != nil {
		return err
	}

	bin := tree.Add(blockID, int64(minPos), int64(maxPos)+1)

	ix.linear.Append(contig, LinearEntry{
		BlockID:      blockID,
		ByteOffset:   byteOffset,
		ByteLength:   byteLength,
		MinPos:       minPos,
		MaxPos:       maxPos,
		MinBin:       bin,
		MaxBin:       bin,
		VariantCount: variantCount,
	})

	return nil
}

func (ix *Index) treeFor(contig int32) (*Tree, error) {
	if t, ok := ix.trees[contig]; ok {
		return t, nil
	}

	length, ok := ix.lengths[contig]
	if !ok {
		return nil, errs.ErrNotFound
	}

	t := NewTree(length)
	ix.trees[contig] = t

	return t, nil
}

// Query returns the block ids whose quad-tree bins intersect
// [posMin,posMax] on contig, per spec §4.7 query. Callers must still
// exact-filter by position, since the result is a superset.
func (ix *Index) Query(contig int32, posMin, posMax int32) []uint64 {
	tree, ok := ix.trees[contig]
	if !ok {
		return nil
	}

	return tree.Query(int64(posMin), int64(posMax)+1)
}

// LinearEntries returns the ordered linear-index rows for one contig, for
// single-pass block iteration (spec §4.9 "iter_blocks").
func (ix *Index) LinearEntries(contig int32) []LinearEntry {
	return ix.linear.Entries(contig)
}

// Linear exposes the underlying LinearIndex, e.g. for archive-tail
// serialization.
func (ix *Index) Linear() *LinearIndex { return ix.linear }
