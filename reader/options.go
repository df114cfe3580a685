package reader

import "github.com/govariant/govariant/varblock"

// Options configures a Reader. Most archive-level facts (codec, cipher,
// sample count) are recovered from the archive itself; Options only carries
// knobs a Reader cannot infer from the bytes on disk.
type Options struct {
	Schema     *varblock.Schema
	NumSamples int
}

// Option mutates an Options value, mirroring the writer package's
// functional-option convention.
type Option func(*Options)

func defaultOptions() Options {
	return Options{}
}

// WithSchema supplies the INFO/FORMAT field schema needed to route dynamic
// columns and type-check values while reconstructing Records. Required if
// the archive carries any INFO or FORMAT annotations.
func WithSchema(s *varblock.Schema) Option {
	return func(o *Options) { o.Schema = s }
}

// WithNumSamples sets the archive-wide sample count, needed to decode the
// Genotype Codec's RLE words back into per-sample genotypes.
func WithNumSamples(n int) Option {
	return func(o *Options) { o.NumSamples = n }
}
