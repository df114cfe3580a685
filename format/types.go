// Package format defines the small closed enumerations shared across the
// columnar storage engine: column primitive types, compression algorithms,
// and cipher choices. Keeping them in one leaf package with no dependents
// avoids scattering magic numbers across container, codec, and varblock.
package format

// PrimitiveType identifies the scalar element type stored in a Data Container.
type PrimitiveType uint8

const (
	I8 PrimitiveType = iota + 1
	I16
	I32
	I64
	U8
	U16
	U32
	U64
	F32
	F64
	Char
	Bool
)

// Size returns the on-disk byte width of one element, or 0 for variable-width
// types. Char and Bool are one byte per element; strings use a separate
// stride buffer rather than a variable Size here.
func (t PrimitiveType) Size() int {
	switch t {
	case I8, U8, Char, Bool:
		return 1
	case I16, U16:
		return 2
	case I32, U32, F32:
		return 4
	case I64, U64, F64:
		return 8
	default:
		return 0
	}
}

// IsInteger reports whether t is one of the signed or unsigned integer types.
func (t PrimitiveType) IsInteger() bool {
	switch t {
	case I8, I16, I32, I64, U8, U16, U32, U64:
		return true
	default:
		return false
	}
}

// IsSigned reports whether t is a signed integer type.
func (t PrimitiveType) IsSigned() bool {
	switch t {
	case I8, I16, I32, I64:
		return true
	default:
		return false
	}
}

func (t PrimitiveType) String() string {
	switch t {
	case I8:
		return "i8"
	case I16:
		return "i16"
	case I32:
		return "i32"
	case I64:
		return "i64"
	case U8:
		return "u8"
	case U16:
		return "u16"
	case U32:
		return "u32"
	case U64:
		return "u64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case Char:
		return "char"
	case Bool:
		return "bool"
	default:
		return "unknown"
	}
}

// CompressionType identifies the compression algorithm applied to a
// container's data and stride buffers. CompressionNone ("stored/identity")
// is reserved per the Codec Layer contract: every archive can fall back to
// it losslessly.
type CompressionType uint8

const (
	CompressionNone CompressionType = iota + 1
	CompressionZstd
	CompressionS2
	CompressionLZ4
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionS2:
		return "s2"
	case CompressionLZ4:
		return "lz4"
	default:
		return "unknown"
	}
}

// CipherType identifies the symmetric encryption applied after compression.
type CipherType uint8

const (
	CipherNone CipherType = iota + 1
	CipherAES256CTR
	CipherAES256GCM
)

func (c CipherType) String() string {
	switch c {
	case CipherNone:
		return "none"
	case CipherAES256CTR:
		return "aes-256-ctr"
	case CipherAES256GCM:
		return "aes-256-gcm"
	default:
		return "unknown"
	}
}

// IsAuthenticated reports whether the cipher produces a verifiable tag.
func (c CipherType) IsAuthenticated() bool {
	return c == CipherAES256GCM
}
