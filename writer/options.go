package writer

import (
	"runtime"

	"github.com/govariant/govariant/codec"
	"github.com/govariant/govariant/format"
)

// Options configures a Writer, mirroring the archive-level configuration
// knobs spec §6 lists as external interface parameters: codec, compression
// level, cipher, genotype permutation, and the block flush checkpoints.
type Options struct {
	Codec              codec.Codec
	CompressionLevel   int
	Cipher             format.CipherType
	PermuteGenotypes   bool
	CheckpointVariants int
	CheckpointBases    int64
	Workers            int
	EnableDigests      bool
	EnableKeychain     bool
	EnableStats        bool
}

// Option mutates an Options value, following the teacher's functional-option
// convention (github.com/arloliu/mebo/blob.NumericEncoderOption).
type Option func(*Options)

// defaultOptions returns the archive's recommended defaults: S2 compression
// at level 6, no encryption, genotype permutation enabled, one worker per
// available core, and the digest, keychain and statistics sections enabled.
func defaultOptions() Options {
	return Options{
		Codec:              codec.S2Codec{},
		CompressionLevel:   6,
		Cipher:             format.CipherNone,
		PermuteGenotypes:   true,
		CheckpointVariants: 1_000,
		CheckpointBases:    5_000_000,
		Workers:            runtime.GOMAXPROCS(0),
		EnableDigests:      true,
		EnableKeychain:     true,
		EnableStats:        true,
	}
}

// WithCodec selects the compression algorithm applied to every column.
func WithCodec(c codec.Codec) Option {
	return func(o *Options) { o.Codec = c }
}

// WithCompressionLevel sets the codec's compression level (1-20 for Zstd;
// ignored by codecs that don't support levels).
func WithCompressionLevel(level int) Option {
	return func(o *Options) { o.CompressionLevel = level }
}

// WithCipher enables per-column encryption after compression.
func WithCipher(c format.CipherType) Option {
	return func(o *Options) { o.Cipher = c }
}

// WithPermuteGenotypes toggles the Genotype Codec's adaptive sample
// permutation (Step B).
func WithPermuteGenotypes(enabled bool) Option {
	return func(o *Options) { o.PermuteGenotypes = enabled }
}

// WithCheckpointVariants sets the variant-count flush checkpoint.
func WithCheckpointVariants(n int) Option {
	return func(o *Options) { o.CheckpointVariants = n }
}

// WithCheckpointBases sets the base-pair span flush checkpoint.
func WithCheckpointBases(n int64) Option {
	return func(o *Options) { o.CheckpointBases = n }
}

// WithWorkers sets the number of concurrent block-flush workers. Values
// below 1 are treated as 1.
func WithWorkers(n int) Option {
	return func(o *Options) {
		if n < 1 {
			n = 1
		}
		o.Workers = n
	}
}

// WithDigests toggles the aggregated digest table sibling artifact.
func WithDigests(enabled bool) Option {
	return func(o *Options) { o.EnableDigests = enabled }
}

// WithKeychain toggles the encryption keychain sibling artifact. Has no
// effect unless WithCipher selects a cipher other than format.CipherNone.
func WithKeychain(enabled bool) Option {
	return func(o *Options) { o.EnableKeychain = enabled }
}

// WithStats toggles the per-column uncompressed/compressed byte totals
// sibling artifact.
func WithStats(enabled bool) Option {
	return func(o *Options) { o.EnableStats = enabled }
}
