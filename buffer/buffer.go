// Package buffer implements the Byte Buffer primitive (spec component C1):
// a growable byte sequence with typed append/read helpers and fixed
// little-endian primitive serialization.
//
// The growth strategy mirrors the teacher's pooled byte buffer
// (github.com/arloliu/mebo internal/pool.ByteBuffer): small buffers double,
// larger ones grow by a fraction of their current capacity, and capacity is
// never shrunk implicitly within a block's lifetime.
package buffer

import (
	"fmt"
	"math"

	"github.com/govariant/govariant/endian"
	"github.com/govariant/govariant/errs"
)

const (
	// defaultGrowth is the smallest growth step, used while a buffer is
	// still smaller than defaultGrowth itself.
	defaultGrowth = 4096
	// growthThreshold is the capacity above which Grow switches from
	// doubling to proportional (25%) growth.
	growthThreshold = 4 * defaultGrowth
)

// Buffer is a growable byte sequence with typed append/read operations.
//
// Buffer is not safe for concurrent use; callers must not retain slices
// returned by Bytes or Slice across a subsequent Append call, since the
// backing array may be reallocated.
type Buffer struct {
	b      []byte
	engine endian.EndianEngine
}

// New creates an empty Buffer using the given byte order for all subsequent
// primitive (de)serialization.
func New(engine endian.EndianEngine) *Buffer {
	return &Buffer{engine: engine}
}

// NewWithCapacity creates an empty Buffer pre-sized to cap bytes.
func NewWithCapacity(engine endian.EndianEngine, cap int) *Buffer {
	return &Buffer{b: make([]byte, 0, cap), engine: engine}
}

// FromBytes wraps an existing byte slice for reading. The returned Buffer's
// logical length equals len(data); appends grow a fresh backing array rather
// than mutating the caller's slice in place once capacity is exceeded.
func FromBytes(engine endian.EndianEngine, data []byte) *Buffer {
	return &Buffer{b: data, engine: engine}
}

// Len returns the logical length of the buffer in bytes.
func (b *Buffer) Len() int { return len(b.b) }

// Cap returns the current capacity of the backing array.
func (b *Buffer) Cap() int { return cap(b.b) }

// Bytes returns the underlying byte slice. Callers must not retain it across
// a subsequent Append.
func (b *Buffer) Bytes() []byte { return b.b }

// Reset truncates the buffer to zero length, retaining the allocated
// capacity for reuse. Capacity is never shrunk by Reset.
func (b *Buffer) Reset() { b.b = b.b[:0] }

// Engine returns the byte order used for primitive (de)serialization.
func (b *Buffer) Engine() endian.EndianEngine { return b.engine }

// Grow ensures the buffer can accept at least n more bytes without a further
// reallocation. It never shrinks the existing capacity.
func (b *Buffer) Grow(n int) {
	avail := cap(b.b) - len(b.b)
	if avail >= n {
		return
	}

	growBy := cap(b.b)
	if growBy < defaultGrowth {
		growBy = defaultGrowth
	}
	if cap(b.b) > growthThreshold {
		growBy = cap(b.b) / 4
	}
	if growBy < n {
		growBy = n
	}

	next := make([]byte, len(b.b), cap(b.b)+growBy)
	copy(next, b.b)
	b.b = next
}

// AppendBytes appends raw bytes, growing the buffer as needed.
func (b *Buffer) AppendBytes(p []byte) {
	b.Grow(len(p))
	b.b = append(b.b, p...)
}

// AppendUint8 appends one byte.
func (b *Buffer) AppendUint8(v uint8) {
	b.Grow(1)
	b.b = append(b.b, v)
}

// AppendInt8 appends one signed byte.
func (b *Buffer) AppendInt8(v int8) { b.AppendUint8(uint8(v)) }

// AppendBool appends one byte: 1 for true, 0 for false.
func (b *Buffer) AppendBool(v bool) {
	if v {
		b.AppendUint8(1)
	} else {
		b.AppendUint8(0)
	}
}

// AppendUint16 appends a little/big-endian uint16 per the buffer's engine.
func (b *Buffer) AppendUint16(v uint16) {
	b.Grow(2)
	b.b = b.engine.AppendUint16(b.b, v)
}

// AppendInt16 appends a signed 16-bit integer.
func (b *Buffer) AppendInt16(v int16) { b.AppendUint16(uint16(v)) }

// AppendUint32 appends a uint32.
func (b *Buffer) AppendUint32(v uint32) {
	b.Grow(4)
	b.b = b.engine.AppendUint32(b.b, v)
}

// AppendInt32 appends a signed 32-bit integer.
func (b *Buffer) AppendInt32(v int32) { b.AppendUint32(uint32(v)) }

// AppendUint64 appends a uint64.
func (b *Buffer) AppendUint64(v uint64) {
	b.Grow(8)
	b.b = b.engine.AppendUint64(b.b, v)
}

// AppendInt64 appends a signed 64-bit integer.
func (b *Buffer) AppendInt64(v int64) { b.AppendUint64(uint64(v)) }

// AppendFloat32 appends an IEEE-754 single-precision float.
func (b *Buffer) AppendFloat32(v float32) { b.AppendUint32(math.Float32bits(v)) }

// AppendFloat64 appends an IEEE-754 double-precision float.
func (b *Buffer) AppendFloat64(v float64) { b.AppendUint64(math.Float64bits(v)) }

// AppendString appends a 4-byte unsigned length prefix followed by the raw
// string bytes, per the Byte Buffer contract.
func (b *Buffer) AppendString(s string) {
	b.AppendUint32(uint32(len(s)))
	b.AppendBytes([]byte(s))
}

// bounds returns errs.ErrBufferBounds if [off, off+n) falls outside the
// logical length.
func (b *Buffer) bounds(off, n int) error {
	if off < 0 || n < 0 || off+n > len(b.b) {
		return fmt.Errorf("%w: offset=%d len=%d size=%d", errs.ErrBufferBounds, off, n, len(b.b))
	}

	return nil
}

// Uint8At reads one byte at off.
func (b *Buffer) Uint8At(off int) (uint8, error) {
	if err := b.bounds(off, 1); err != nil {
		return 0, err
	}

	return b.b[off], nil
}

// Uint16At reads a uint16 at off.
func (b *Buffer) Uint16At(off int) (uint16, error) {
	if err := b.bounds(off, 2); err != nil {
		return 0, err
	}

	return b.engine.Uint16(b.b[off : off+2]), nil
}

// Uint32At reads a uint32 at off.
func (b *Buffer) Uint32At(off int) (uint32, error) {
	if err := b.bounds(off, 4); err != nil {
		return 0, err
	}

	return b.engine.Uint32(b.b[off : off+4]), nil
}

// Int32At reads a signed int32 at off.
func (b *Buffer) Int32At(off int) (int32, error) {
	v, err := b.Uint32At(off)
	return int32(v), err
}

// Uint64At reads a uint64 at off.
func (b *Buffer) Uint64At(off int) (uint64, error) {
	if err := b.bounds(off, 8); err != nil {
		return 0, err
	}

	return b.engine.Uint64(b.b[off : off+8]), nil
}

// Int64At reads a signed int64 at off.
func (b *Buffer) Int64At(off int) (int64, error) {
	v, err := b.Uint64At(off)
	return int64(v), err
}

// Float32At reads a float32 at off.
func (b *Buffer) Float32At(off int) (float32, error) {
	v, err := b.Uint32At(off)
	return math.Float32frombits(v), err
}

// Float64At reads a float64 at off.
func (b *Buffer) Float64At(off int) (float64, error) {
	v, err := b.Uint64At(off)
	return math.Float64frombits(v), err
}

// StringAt reads a length-prefixed string starting at off, returning the
// string and the offset immediately following it.
func (b *Buffer) StringAt(off int) (string, int, error) {
	n, err := b.Uint32At(off)
	if err != nil {
		return "", off, err
	}

	start := off + 4
	if err := b.bounds(start, int(n)); err != nil {
		return "", off, err
	}

	return string(b.b[start : start+int(n)]), start + int(n), nil
}

// Slice returns a sub-slice of the buffer's logical content. Both bounds
// must fall within [0, Len()].
func (b *Buffer) Slice(start, end int) ([]byte, error) {
	if start < 0 || end < start || end > len(b.b) {
		return nil, fmt.Errorf("%w: slice [%d:%d] size=%d", errs.ErrBufferBounds, start, end, len(b.b))
	}

	return b.b[start:end], nil
}
