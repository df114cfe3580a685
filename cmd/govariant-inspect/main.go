// Command govariant-inspect is a smoke-test CLI for the archive format: it
// opens an archive written by this module and prints a summary of its
// contigs, block counts, and per-column statistics. It does not implement a
// filter-expression language; use the govariant package directly for
// programmatic interval queries.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/govariant/govariant/digest"
	"github.com/govariant/govariant/endian"
	"github.com/govariant/govariant/reader"
	"github.com/govariant/govariant/varblock"
)

func main() {
	path := flag.String("file", "", "path to a govariant archive")
	numSamples := flag.Int("samples", 0, "sample count the archive was written with")
	flag.Parse()

	if *path == "" {
		log.Fatal("govariant-inspect: -file is required")
	}

	if err := inspect(*path, *numSamples); err != nil {
		log.Fatalf("govariant-inspect: %v", err)
	}
}

func inspect(path string, numSamples int) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	engine := endian.GetLittleEndianEngine()
	r, err := reader.Open(f, info.Size(), engine,
		reader.WithSchema(varblock.NewSchema()),
		reader.WithNumSamples(numSamples))
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}

	fmt.Printf("metadata: %d bytes\n", len(r.Metadata()))
	fmt.Printf("blocks:   %d\n", r.BlockCount())
	fmt.Printf("variants: %d\n", r.VariantCount())

	for _, contig := range r.Contigs() {
		blocks := r.Blocks(contig)
		fmt.Printf("contig %d: %d block(s)\n", contig, len(blocks))
		for _, b := range blocks {
			fmt.Printf("  block %d: pos [%d,%d], %d variant(s), %d byte(s)\n",
				b.BlockID, b.MinPos, b.MaxPos, b.VariantCount, b.ByteLength)
		}
	}

	if d := r.Digests(); d != nil {
		fmt.Printf("digest columns: %d\n", len(d.Keys()))
	}

	if st := r.Stats(); st != nil {
		fmt.Println("column statistics:")
		for _, key := range st.Keys() {
			totals, ok := st.Lookup(key)
			if !ok {
				continue
			}
			fmt.Printf("  %s: %d -> %d byte(s) (ratio %.3f)\n",
				fieldKeyString(key), totals.UncompressedBytes, totals.CompressedBytes, st.CompressionRatio(key))
		}
	}

	return nil
}

func fieldKeyString(key digest.FieldKey) string {
	switch key.Kind {
	case digest.FieldMeta:
		return fmt.Sprintf("meta[%d]", key.ID)
	case digest.FieldInfo:
		return fmt.Sprintf("info[%d]", key.ID)
	case digest.FieldFormat:
		return fmt.Sprintf("format[%d]", key.ID)
	default:
		return fmt.Sprintf("unknown[%d]", key.ID)
	}
}
