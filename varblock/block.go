package varblock

import (
	"fmt"

	"github.com/govariant/govariant/endian"
	"github.com/govariant/govariant/errs"
)

// Block accumulates records for one checkpoint's worth of variants before
// being transposed into columns and flushed, per spec §4.6.
type Block struct {
	schema *Schema
	engine endian.EndianEngine

	ID         uint64
	NumSamples int

	contig       int32
	contigSet    bool
	minPos       int32
	maxPos       int32
	records      []Record
	infoPatterns *PatternDict
	fmtPatterns  *PatternDict
	filtPatterns *PatternDict
}

// New creates an empty Block. schema and engine are shared across the
// archive; id is the block's position in the write-order sequence.
func New(schema *Schema, engine endian.EndianEngine, id uint64, numSamples int) *Block {
	return &Block{
		schema:       schema,
		engine:       engine,
		ID:           id,
		NumSamples:   numSamples,
		infoPatterns: NewPatternDict(),
		fmtPatterns:  NewPatternDict(),
		filtPatterns: NewPatternDict(),
	}
}

// Len returns the number of records accumulated so far.
func (b *Block) Len() int { return len(b.records) }

// Empty reports whether the block has no accumulated records.
func (b *Block) Empty() bool { return len(b.records) == 0 }

// NeedsFlushBefore reports whether rec must start a new block (contig
// change, variant-count checkpoint, or base-pair span checkpoint), per spec
// §4.6 "Flush conditions". It returns errs.ErrUnsortedInput if rec's
// position precedes the block's current maximum on the same contig,
// independent of whether a flush is also due.
func (b *Block) NeedsFlushBefore(rec Record, checkpointVariants int, checkpointBases int64) (bool, error) {
	if !b.contigSet || len(b.records) == 0 {
		return false, nil
	}

	if rec.Contig != b.contig {
		return true, nil
	}

	if rec.Pos < b.maxPos {
		return false, fmt.Errorf("%w: position %d precedes block maximum %d on contig %d", errs.ErrUnsortedInput, rec.Pos, b.maxPos, rec.Contig)
	}

	if len(b.records) >= checkpointVariants {
		return true, nil
	}

	if int64(rec.Pos-b.minPos) > checkpointBases {
		return true, nil
	}

	return false, nil
}

// Append buffers rec into the block. Callers must first call
// NeedsFlushBefore and flush if required; Append itself only validates the
// record against the declared contig length.
func (b *Block) Append(rec Record) error {
	if b.schema != nil {
		if length, ok := b.schema.ContigLengths[rec.Contig]; ok && int64(rec.Pos) >= length {
			return fmt.Errorf("%w: position %d exceeds contig %d length %d", errs.ErrContigRangeViolation, rec.Pos, rec.Contig, length)
		}
	}

	if !b.contigSet {
		b.contig = rec.Contig
		b.minPos = rec.Pos
		b.maxPos = rec.Pos
		b.contigSet = true
	} else {
		if rec.Pos < b.minPos {
			b.minPos = rec.Pos
		}
		if rec.Pos > b.maxPos {
			b.maxPos = rec.Pos
		}
	}

	b.records = append(b.records, rec)

	return nil
}

// Contig returns the block's contig id, valid once at least one record has
// been appended.
func (b *Block) Contig() int32 { return b.contig }

// MinPos and MaxPos return the block's position span.
func (b *Block) MinPos() int32 { return b.minPos }
func (b *Block) MaxPos() int32 { return b.maxPos }
