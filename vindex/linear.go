package vindex

import (
	"sort"

	"github.com/govariant/govariant/buffer"
	"github.com/govariant/govariant/endian"
)

// LinearEntry is one block's summary row in a contig's linear index (spec
// §4.7 "Linear index": "block id, byte offset, byte length, min/max
// position, min/max bin, variant count").
type LinearEntry struct {
	BlockID      uint64
	ByteOffset   uint64
	ByteLength   uint64
	MinPos       int32
	MaxPos       int32
	MinBin       int32
	MaxBin       int32
	VariantCount uint32
}

const linearEntrySize = 8 + 8 + 8 + 4 + 4 + 4 + 4 + 4

// LinearIndex is the per-contig, fixed-width-entry companion to Tree,
// supporting single-pass block iteration without bin traversal.
type LinearIndex struct {
	entries map[int32][]LinearEntry
	order   []int32 // contig ids in first-seen order, for deterministic Encode
}

// NewLinearIndex creates an empty LinearIndex.
func NewLinearIndex() *LinearIndex {
	return &LinearIndex{entries: make(map[int32][]LinearEntry)}
}

// Append records one block's summary under its contig.
func (li *LinearIndex) Append(contig int32, e LinearEntry) {
	if _, ok := li.entries[contig]; !ok {
		li.order = append(li.order, contig)
	}
	li.entries[contig] = append(li.entries[contig], e)
}

// Entries returns the ordered block entries for one contig.
func (li *LinearIndex) Entries(contig int32) []LinearEntry {
	return li.entries[contig]
}

// Contigs returns the contig ids present in the index, sorted ascending —
// the order a Reader's default iteration walks contigs in (spec §4.9
// "position-sorted default iteration"); within one contig, Entries is
// already position-ordered since blocks are flushed in non-decreasing
// position order.
func (li *LinearIndex) Contigs() []int32 {
	ids := make([]int32, 0, len(li.entries))
	for id := range li.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}

// Encode serializes the linear index as length-prefixed per-contig arrays
// of fixed-width entries, per spec §6 item 4.
func (li *LinearIndex) Encode(engine endian.EndianEngine) []byte {
	b := buffer.New(engine)
	b.AppendUint32(uint32(len(li.order)))

	for _, contig := range li.order {
		entries := li.entries[contig]
		b.AppendInt32(contig)
		b.AppendUint32(uint32(len(entries)))
		for _, e := range entries {
			b.AppendUint64(e.BlockID)
			b.AppendUint64(e.ByteOffset)
			b.AppendUint64(e.ByteLength)
			b.AppendInt32(e.MinPos)
			b.AppendInt32(e.MaxPos)
			b.AppendInt32(e.MinBin)
			b.AppendInt32(e.MaxBin)
			b.AppendUint32(e.VariantCount)
		}
	}

	return b.Bytes()
}

// DecodeLinearIndex parses a byte stream produced by Encode.
func DecodeLinearIndex(engine endian.EndianEngine, data []byte) (*LinearIndex, error) {
	b := buffer.FromBytes(engine, data)

	contigCount, err := b.Uint32At(0)
	if err != nil {
		return nil, err
	}

	li := NewLinearIndex()
	off := 4
	for i := uint32(0); i < contigCount; i++ {
		contig, err := b.Int32At(off)
		if err != nil {
			return nil, err
		}
		off += 4

		entryCount, err := b.Uint32At(off)
		if err != nil {
			return nil, err
		}
		off += 4

		for j := uint32(0); j < entryCount; j++ {
			var e LinearEntry

			blockID, err := b.Uint64At(off)
			if err != nil {
				return nil, err
			}
			e.BlockID = blockID
			off += 8

			byteOffset, err := b.Uint64At(off)
			if err != nil {
				return nil, err
			}
			e.ByteOffset = byteOffset
			off += 8

			byteLength, err := b.Uint64At(off)
			if err != nil {
				return nil, err
			}
			e.ByteLength = byteLength
			off += 8

			minPos, err := b.Int32At(off)
			if err != nil {
				return nil, err
			}
			e.MinPos = minPos
			off += 4

			maxPos, err := b.Int32At(off)
			if err != nil {
				return nil, err
			}
			e.MaxPos = maxPos
			off += 4

			minBin, err := b.Int32At(off)
			if err != nil {
				return nil, err
			}
			e.MinBin = minBin
			off += 4

			maxBin, err := b.Int32At(off)
			if err != nil {
				return nil, err
			}
			e.MaxBin = maxBin
			off += 4

			variantCount, err := b.Uint32At(off)
			if err != nil {
				return nil, err
			}
			e.VariantCount = variantCount
			off += 4

			li.Append(contig, e)
		}
	}

	return li, nil
}
