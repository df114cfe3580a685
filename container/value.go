package container

import (
	"fmt"
	"math"

	"github.com/govariant/govariant/errs"
	"github.com/govariant/govariant/format"
)

// asU64 widens any supported Go scalar into a raw, zero/sign-agnostic 64-bit
// pattern suitable for uniform narrowing analysis. Floats are bit-cast, not
// numerically converted, since finalize never narrows float containers.
func asU64(t format.PrimitiveType, v any) (uint64, error) {
	switch t {
	case format.I8:
		x, ok := v.(int8)
		if !ok {
			return 0, typeErr(t, v)
		}
		return uint64(uint8(x)), nil
	case format.I16:
		x, ok := v.(int16)
		if !ok {
			return 0, typeErr(t, v)
		}
		return uint64(uint16(x)), nil
	case format.I32:
		x, ok := v.(int32)
		if !ok {
			return 0, typeErr(t, v)
		}
		return uint64(uint32(x)), nil
	case format.I64:
		x, ok := v.(int64)
		if !ok {
			return 0, typeErr(t, v)
		}
		return uint64(x), nil
	case format.U8:
		x, ok := v.(uint8)
		if !ok {
			return 0, typeErr(t, v)
		}
		return uint64(x), nil
	case format.U16:
		x, ok := v.(uint16)
		if !ok {
			return 0, typeErr(t, v)
		}
		return uint64(x), nil
	case format.U32:
		x, ok := v.(uint32)
		if !ok {
			return 0, typeErr(t, v)
		}
		return uint64(x), nil
	case format.U64:
		x, ok := v.(uint64)
		if !ok {
			return 0, typeErr(t, v)
		}
		return x, nil
	case format.F32:
		x, ok := v.(float32)
		if !ok {
			return 0, typeErr(t, v)
		}
		return uint64(math.Float32bits(x)), nil
	case format.F64:
		x, ok := v.(float64)
		if !ok {
			return 0, typeErr(t, v)
		}
		return math.Float64bits(x), nil
	case format.Bool:
		x, ok := v.(bool)
		if !ok {
			return 0, typeErr(t, v)
		}
		if x {
			return 1, nil
		}
		return 0, nil
	case format.Char:
		x, ok := v.(byte)
		if !ok {
			return 0, typeErr(t, v)
		}
		return uint64(x), nil
	default:
		return 0, fmt.Errorf("%w: unsupported primitive type %v", errs.ErrSchemaMismatch, t)
	}
}

// ValueAt converts a raw 64-bit word back into its typed Go scalar, the
// inverse of asU64. Used by callers reconstructing field values from a
// decoded container's entries.
func ValueAt(t format.PrimitiveType, raw uint64) any {
	switch t {
	case format.I8:
		return int8(raw)
	case format.I16:
		return int16(raw)
	case format.I32:
		return int32(raw)
	case format.I64:
		return int64(raw)
	case format.U8:
		return uint8(raw)
	case format.U16:
		return uint16(raw)
	case format.U32:
		return uint32(raw)
	case format.U64:
		return raw
	case format.F32:
		return math.Float32frombits(uint32(raw))
	case format.F64:
		return math.Float64frombits(raw)
	case format.Bool:
		return raw != 0
	case format.Char:
		return byte(raw)
	default:
		return nil
	}
}

func typeErr(t format.PrimitiveType, v any) error {
	return fmt.Errorf("%w: value %v (%T) does not match declared type %s", errs.ErrSchemaMismatch, v, v, t)
}

// signExtend interprets raw as a signed integer of width*8 bits and returns
// its value sign-extended into int64, for fitting-range narrowing checks.
func signExtend(raw uint64, width int) int64 {
	switch width {
	case 1:
		return int64(int8(raw))
	case 2:
		return int64(int16(raw))
	case 4:
		return int64(int32(raw))
	default:
		return int64(raw)
	}
}

// narrowestSigned returns the smallest signed primitive type that can
// represent every value in [lo, hi], no wider than maxType.
func narrowestSigned(lo, hi int64, maxType format.PrimitiveType) format.PrimitiveType {
	candidates := []format.PrimitiveType{format.I8, format.I16, format.I32, format.I64}
	for _, c := range candidates {
		if c.Size() > maxType.Size() {
			break
		}
		cmin, cmax := signedRange(c)
		if lo >= cmin && hi <= cmax {
			return c
		}
	}

	return maxType
}

// narrowestUnsigned returns the smallest unsigned primitive type that can
// represent every value in [0, hi], no wider than maxType.
func narrowestUnsigned(hi uint64, maxType format.PrimitiveType) format.PrimitiveType {
	candidates := []format.PrimitiveType{format.U8, format.U16, format.U32, format.U64}
	for _, c := range candidates {
		if c.Size() > maxType.Size() {
			break
		}
		if hi <= unsignedMax(c) {
			return c
		}
	}

	return maxType
}

func signedRange(t format.PrimitiveType) (int64, int64) {
	bits := uint(t.Size() * 8)
	max := int64(1)<<(bits-1) - 1
	min := -(int64(1) << (bits - 1))

	return min, max
}

func unsignedMax(t format.PrimitiveType) uint64 {
	bits := uint(t.Size() * 8)
	if bits >= 64 {
		return math.MaxUint64
	}

	return uint64(1)<<bits - 1
}
