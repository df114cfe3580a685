// Package container implements the Data Container (spec component C2): the
// smallest self-describing unit that holds one column's values for one
// block, as a contiguous run of same-typed, same-semantics primitives.
//
// A Container starts Empty, accepts values while Appending, computes its
// on-disk layout at Finalize (uniform-value collapse and integer
// type-narrowing), and moves through Compressed and optionally Encrypted
// before being Written. The read-side mirrors this in reverse: Decrypted,
// Decompressed, Verified, Exposed.
package container

import (
	"fmt"

	"github.com/govariant/govariant/buffer"
	"github.com/govariant/govariant/codec"
	"github.com/govariant/govariant/digest"
	"github.com/govariant/govariant/endian"
	"github.com/govariant/govariant/errs"
	"github.com/govariant/govariant/format"
)

// State enumerates the Data Container lifecycle from spec §4.2.
type State uint8

const (
	StateEmpty State = iota
	StateAppending
	StateFinalized
	StateCompressed
	StateEncrypted
	StateWritten
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateAppending:
		return "appending"
	case StateFinalized:
		return "finalized"
	case StateCompressed:
		return "compressed"
	case StateEncrypted:
		return "encrypted"
	case StateWritten:
		return "written"
	default:
		return "unknown"
	}
}

// Container accumulates one column's values for one block and carries them
// through finalize, compress, and optional encrypt.
type Container struct {
	engine endian.EndianEngine
	typ    format.PrimitiveType
	signed bool

	// raw holds one canonical uint64 pattern per appended element, in
	// append order, prior to finalize's width decision.
	raw []uint64

	// entryWidths[i] is the number of elements making up logical entry i.
	// A container that never calls AddStride has an implicit width of 1
	// per entry (entryWidths stays nil and EntryCount == len(raw)).
	entryWidths []int

	// entryByteOffsets lazily caches per-entry byte offsets for variable-
	// stride, non-uniform containers (see entryLayout in decode.go).
	entryByteOffsets []int

	header Header
	data   *buffer.Buffer // uncompressed data buffer, valid from Finalized on
	stride *buffer.Buffer // uncompressed stride buffer, valid if variable-stride

	dataCompressed   []byte
	strideCompressed []byte
	strideHeader     Header

	state State
}

// New creates an Empty container using engine for on-disk serialization.
func New(engine endian.EndianEngine) *Container {
	return &Container{engine: engine, state: StateEmpty}
}

// State returns the container's current lifecycle state.
func (c *Container) State() State { return c.state }

// Type returns the declared primitive type, valid once at least one value
// has been appended.
func (c *Container) Type() format.PrimitiveType { return c.typ }

// Append adds one primitive value. The first call fixes the container's
// type; subsequent calls must supply the same Go type or Append returns
// errs.ErrSchemaMismatch.
func (c *Container) Append(t format.PrimitiveType, v any) error {
	if c.state == StateEmpty {
		c.typ = t
		c.signed = t.IsSigned()
		c.state = StateAppending
	} else if c.state != StateAppending {
		return fmt.Errorf("%w: Append called in state %s", errs.ErrSchemaMismatch, c.state)
	} else if c.typ != t {
		return fmt.Errorf("%w: container declared as %s, got %s", errs.ErrSchemaMismatch, c.typ, t)
	}

	raw, err := asU64(t, v)
	if err != nil {
		return err
	}

	c.raw = append(c.raw, raw)

	return nil
}

// AddStride closes the current logical entry after n elements appended
// since the previous AddStride call (or since the container's start). Columns
// with a fixed one-element-per-record shape never need to call it.
func (c *Container) AddStride(n int) error {
	if c.state != StateAppending {
		return fmt.Errorf("%w: AddStride called in state %s", errs.ErrSchemaMismatch, c.state)
	}
	if n <= 0 {
		return fmt.Errorf("%w: stride must be positive, got %d", errs.ErrBufferBounds, n)
	}

	c.entryWidths = append(c.entryWidths, n)

	return nil
}

// Len returns the number of raw elements appended so far.
func (c *Container) Len() int { return len(c.raw) }

// entries splits raw into logical entries per entryWidths (or width 1 each
// if AddStride was never used).
func (c *Container) entries() [][]uint64 {
	if len(c.entryWidths) == 0 {
		out := make([][]uint64, len(c.raw))
		for i, v := range c.raw {
			out[i] = []uint64{v}
		}

		return out
	}

	out := make([][]uint64, 0, len(c.entryWidths))
	off := 0
	for _, w := range c.entryWidths {
		out = append(out, c.raw[off:off+w])
		off += w
	}

	return out
}

// entryBytes renders one logical entry's canonical byte representation at
// width bytes per element, for uniformity comparison and final serialization.
func entryBytes(entry []uint64, width int) []byte {
	out := make([]byte, 0, len(entry)*width)
	for _, v := range entry {
		switch width {
		case 1:
			out = append(out, byte(v))
		case 2:
			out = append(out, byte(v), byte(v>>8))
		case 4:
			out = append(out, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
		case 8:
			out = append(out, byte(v), byte(v>>8), byte(v>>16), byte(v>>24), byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
		}
	}

	return out
}

// Finalize computes the on-disk layout: detects whether every entry is
// byte-identical (uniform-value collapse) and, for integer containers that
// are not uniform, whether every value fits a narrower primitive type than
// the one declared at Append time. It must be called exactly once, after the
// last Append/AddStride and before Compress.
func (c *Container) Finalize() error {
	if c.state != StateAppending && c.state != StateEmpty {
		return fmt.Errorf("%w: Finalize called in state %s", errs.ErrSchemaMismatch, c.state)
	}

	entries := c.entries()
	variableStride := len(c.entryWidths) > 0
	fixedWidth := 1
	if variableStride {
		for i, w := range c.entryWidths {
			if i == 0 {
				fixedWidth = w
			} else if w != fixedWidth {
				fixedWidth = -1
				break
			}
		}
		if fixedWidth != -1 {
			variableStride = false
		}
	}

	// Uniformity is checked against the original, unnarrowed type first: a
	// uniform-value column forbids narrowing (both are ways of shrinking the
	// data buffer, and the format disallows setting both at once), so only
	// a non-uniform column ever attempts to narrow its on-disk type.
	uniform := len(entries) > 0
	origWidth := c.typ.Size()
	var first []byte
	for i, e := range entries {
		eb := entryBytes(e, origWidth)
		if i == 0 {
			first = eb
			continue
		}
		if string(eb) != string(first) {
			uniform = false
			break
		}
	}

	onDiskType := c.typ
	if !uniform {
		if c.typ.IsInteger() && !c.typ.IsSigned() {
			var hi uint64
			for _, v := range c.raw {
				if v > hi {
					hi = v
				}
			}
			onDiskType = narrowestUnsigned(hi, c.typ)
		} else if c.typ.IsInteger() {
			width := c.typ.Size()
			var lo, hi int64
			for i, v := range c.raw {
				sv := signExtend(v, width)
				if i == 0 || sv < lo {
					lo = sv
				}
				if i == 0 || sv > hi {
					hi = sv
				}
			}
			onDiskType = narrowestSigned(lo, hi, c.typ)
		}
	}

	width := onDiskType.Size()

	flags := uint8(0)
	if c.signed {
		flags |= FlagSigned
	}
	if variableStride {
		flags |= FlagVariableStride
	}
	if uniform {
		flags |= FlagUniformValue
	}

	c.data = buffer.New(c.engine)
	if uniform {
		c.data.AppendBytes(first)
	} else {
		for _, e := range entries {
			c.data.AppendBytes(entryBytes(e, width))
		}
	}

	stride := int32(fixedWidth)
	if variableStride {
		stride = -1
		c.stride = buffer.New(c.engine)
		for _, w := range c.entryWidths {
			c.stride.AppendUint32(uint32(w))
		}
	}

	c.typ = onDiskType
	c.header = Header{
		Type:            onDiskType,
		Stride:          stride,
		Flags:           flags,
		EntryCount:      uint32(len(entries)),
		UncompressedLen: uint32(c.data.Len()),
		UncompressedSHA: digest.Sum512(c.data.Bytes()),
	}
	if variableStride {
		c.strideHeader = Header{
			Type:            format.U32,
			Flags:           0,
			EntryCount:      uint32(len(c.entryWidths)),
			UncompressedLen: uint32(c.stride.Len()),
			UncompressedSHA: digest.Sum512(c.stride.Bytes()),
		}
	}

	c.state = StateFinalized

	return nil
}

// Compress applies codec to the finalized data buffer (and stride buffer, if
// variable-stride), recording the compressed digests in the headers.
func (c *Container) Compress(cdc codec.Codec, level int) error {
	if c.state != StateFinalized {
		return fmt.Errorf("%w: Compress called in state %s", errs.ErrSchemaMismatch, c.state)
	}

	compressed, err := cdc.Compress(c.data.Bytes(), level)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrCodecFailure, err)
	}

	c.dataCompressed = compressed
	c.header.CompressedLen = uint32(len(compressed))
	c.header.CompressedSHA = digest.Sum512(compressed)

	if c.header.IsVariableStride() {
		sc, err := cdc.Compress(c.stride.Bytes(), level)
		if err != nil {
			return fmt.Errorf("%w: stride buffer: %v", errs.ErrCodecFailure, err)
		}

		c.strideCompressed = sc
		c.strideHeader.CompressedLen = uint32(len(sc))
		c.strideHeader.CompressedSHA = digest.Sum512(sc)
	}

	c.state = StateCompressed

	return nil
}

// DataHeader returns the finalized data-buffer header.
func (c *Container) DataHeader() Header { return c.header }

// StrideHeader returns the finalized stride-buffer header. Only meaningful
// when DataHeader().IsVariableStride() is true.
func (c *Container) StrideHeader() Header { return c.strideHeader }

// CompressedData returns the compressed data buffer bytes, valid from
// StateCompressed on.
func (c *Container) CompressedData() []byte { return c.dataCompressed }

// CompressedStride returns the compressed stride buffer bytes, valid from
// StateCompressed on when variable-stride.
func (c *Container) CompressedStride() []byte { return c.strideCompressed }

// MarkEncrypted transitions StateCompressed -> StateEncrypted after the
// caller has replaced CompressedData/CompressedStride in place via SetSealed.
func (c *Container) MarkEncrypted() error {
	if c.state != StateCompressed {
		return fmt.Errorf("%w: MarkEncrypted called in state %s", errs.ErrSchemaMismatch, c.state)
	}

	c.state = StateEncrypted

	return nil
}

// SetSealed replaces the compressed data (and, if present, stride) bytes with
// their ciphertext, as produced by a codec.Cipher. Callers are responsible
// for persisting the returned tag(s) to the keychain.
func (c *Container) SetSealed(data []byte, stride []byte) {
	c.dataCompressed = data
	if stride != nil {
		c.strideCompressed = stride
	}
}

// MarkWritten transitions to StateWritten once the caller has persisted the
// container's bytes to the sink.
func (c *Container) MarkWritten() error {
	if c.state != StateCompressed && c.state != StateEncrypted {
		return fmt.Errorf("%w: MarkWritten called in state %s", errs.ErrSchemaMismatch, c.state)
	}

	c.state = StateWritten

	return nil
}
