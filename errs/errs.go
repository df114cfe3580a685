// Package errs collects the sentinel errors returned by the storage engine.
//
// Callers should compare against these with errors.Is; errors that buffer,
// container, codec, digest, genotype, varblock, vindex, writer, and reader
// raise themselves wrap one of these sentinels with context via
// fmt.Errorf("...: %w"). Context cancellation errors and some errors from the
// underlying compression libraries are returned as they are.
package errs

import "errors"

var (
	// ErrIoError wraps an underlying read/write/seek failure.
	ErrIoError = errors.New("govariant: io error")

	// ErrTruncatedArchive indicates the footer, EOF marker, or a block body
	// is missing or shorter than declared.
	ErrTruncatedArchive = errors.New("govariant: truncated archive")

	// ErrChecksumMismatch indicates a header MD5 or content SHA-512 digest
	// disagreed with the value recorded on disk.
	ErrChecksumMismatch = errors.New("govariant: checksum mismatch")

	// ErrAuthFailure indicates an AEAD tag failed to verify.
	ErrAuthFailure = errors.New("govariant: authentication failure")

	// ErrCodecFailure indicates the compression or encryption codec itself
	// returned an error.
	ErrCodecFailure = errors.New("govariant: codec failure")

	// ErrSchemaMismatch indicates mixed primitive types were appended to one
	// container.
	ErrSchemaMismatch = errors.New("govariant: schema mismatch")

	// ErrBufferBounds indicates a read past the logical length of a buffer.
	ErrBufferBounds = errors.New("govariant: buffer bounds exceeded")

	// ErrUnsortedInput indicates the writer observed a record whose position
	// precedes the current block's maximum.
	ErrUnsortedInput = errors.New("govariant: unsorted input")

	// ErrContigRangeViolation indicates a record's position exceeds the
	// declared contig length.
	ErrContigRangeViolation = errors.New("govariant: position exceeds contig range")

	// ErrGtOverflow indicates an allele id exceeds the representable range
	// for the chosen genotype word width.
	ErrGtOverflow = errors.New("govariant: genotype allele overflow")

	// ErrPloidyMismatch indicates inconsistent ploidy within a
	// declared-uniform block.
	ErrPloidyMismatch = errors.New("govariant: ploidy mismatch")

	// ErrPatternOverflow indicates more than 65535 distinct patterns were
	// requested in one block's pattern dictionary.
	ErrPatternOverflow = errors.New("govariant: pattern dictionary overflow")

	// ErrVersionMismatch indicates the file magic or version is unrecognized.
	ErrVersionMismatch = errors.New("govariant: version mismatch")

	// ErrInvalidHeaderSize indicates a header byte slice was not the
	// expected fixed size.
	ErrInvalidHeaderSize = errors.New("govariant: invalid header size")

	// ErrInvalidHeaderFlags indicates a header's packed flag field failed
	// validation (bad magic number, encoding, or compression bits).
	ErrInvalidHeaderFlags = errors.New("govariant: invalid header flags")

	// ErrClosed indicates an operation was attempted on a writer or reader
	// that has already been closed.
	ErrClosed = errors.New("govariant: already closed")

	// ErrNotFound indicates a lookup (such as a contig's declared length)
	// found no match.
	ErrNotFound = errors.New("govariant: not found")
)
