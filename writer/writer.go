// Package writer implements the Writer Pipeline (spec component C8): the
// external contract "open(sink); set_header(h); for rec in src: += rec;
// close()", backed by a bounded worker pool that flushes blocks
// concurrently and a reorder buffer that serializes the out-of-order
// flush results back into the sink's required write order.
//
// The worker-pool / cooperative-cancellation shape is grounded on
// solidcoredata-dca/internal/start/start.go's errgroup.WithContext plus
// sync.Once pattern, generalized from "run N independent services" to
// "flush N blocks, commit results in sequence order".
package writer

import (
	"context"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/govariant/govariant/archive"
	"github.com/govariant/govariant/codec"
	"github.com/govariant/govariant/digest"
	"github.com/govariant/govariant/endian"
	"github.com/govariant/govariant/errs"
	"github.com/govariant/govariant/format"
	"github.com/govariant/govariant/keychain"
	"github.com/govariant/govariant/stats"
	"github.com/govariant/govariant/varblock"
	"github.com/govariant/govariant/vindex"
)

type flushJob struct {
	seq   uint64
	block *varblock.Block
}

type flushResult struct {
	seq    uint64
	data   []byte
	header varblock.Header
	err    error
}

// Writer implements the write side of the archive: it accumulates Records
// into Blocks, flushes full blocks through a worker pool, and commits their
// byte stream to the sink in block-sequence order regardless of which
// worker finishes first.
type Writer struct {
	sink   io.Writer
	engine endian.EndianEngine
	schema *varblock.Schema

	numSamples int
	opts       Options

	digests  *digest.Manager
	keychain *keychain.Keychain
	stats    *stats.Manager
	index    *vindex.Index

	mu      sync.Mutex
	current *varblock.Block
	nextID  uint64
	closed  bool

	byteOffset   uint64
	blockCount   uint64
	variantCount uint64

	jobs     chan flushJob
	results  chan flushResult
	group    *errgroup.Group
	ctx      context.Context
	cancel   context.CancelFunc
	seqDone  chan struct{}
	nextSeq  uint64
	seqErr   error
}

// Open begins a new archive write: writes the fixed file magic followed by
// the compressed header record carrying metadata (the caller-owned
// contig/sample/field descriptor block, spec §1's "out of scope" boundary —
// this package treats it as an opaque byte slice), and starts the
// block-flush worker pool. contigLengths sizes each contig's Hierarchical
// Index tree lazily on first use (spec §4.7).
func Open(sink io.Writer, engine endian.EndianEngine, schema *varblock.Schema, numSamples int, contigLengths vindex.ContigLengths, metadata []byte, opts ...Option) (*Writer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if _, err := sink.Write(archive.WriteMagic()); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrIoError, err)
	}

	headerRecord, err := archive.EncodeHeaderRecord(engine, codec.TypeOf(o.Codec), o.Codec, o.CompressionLevel, metadata)
	if err != nil {
		return nil, err
	}
	if _, err := sink.Write(headerRecord); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrIoError, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(ctx)

	w := &Writer{
		sink:       sink,
		engine:     engine,
		schema:     schema,
		numSamples: numSamples,
		opts:       o,
		index:      vindex.New(contigLengths),
		jobs:       make(chan flushJob, o.Workers*2),
		results:    make(chan flushResult, o.Workers*2),
		group:      group,
		ctx:        ctx,
		cancel:     cancel,
		seqDone:    make(chan struct{}),
		byteOffset: uint64(len(archive.WriteMagic()) + len(headerRecord)),
	}

	if o.EnableDigests {
		w.digests = digest.NewManager()
	}
	if o.EnableKeychain && o.Cipher != format.CipherNone {
		w.keychain = keychain.New()
	}
	if o.EnableStats {
		w.stats = stats.NewManager()
	}

	for i := 0; i < o.Workers; i++ {
		group.Go(func() error { return w.runWorker(gctx) })
	}

	go w.runSequencer()

	return w, nil
}

func (w *Writer) flushOptions() varblock.FlushOptions {
	return varblock.FlushOptions{
		Codec:            w.opts.Codec,
		CompressionLevel: w.opts.CompressionLevel,
		PermuteGenotypes: w.opts.PermuteGenotypes,
		Cipher:           w.opts.Cipher,
		Keychain:         w.keychain,
		Digests:          w.digests,
		Stats:            w.stats,
	}
}

func (w *Writer) runWorker(ctx context.Context) error {
	for {
		select {
		case job, ok := <-w.jobs:
			if !ok {
				return nil
			}
			data, header, err := job.block.Flush(w.flushOptions())
			select {
			case w.results <- flushResult{seq: job.seq, data: data, header: header, err: err}:
			case <-ctx.Done():
				return ctx.Err()
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *Writer) runSequencer() {
	defer close(w.seqDone)

	pending := make(map[uint64]flushResult)
	next := uint64(0)

	for res := range w.results {
		pending[res.seq] = res

		for {
			r, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++

			if r.err != nil {
				if w.seqErr == nil {
					w.seqErr = r.err
				}
				continue
			}
			if err := w.commit(r); err != nil && w.seqErr == nil {
				w.seqErr = err
			}
		}
	}
}

// commit writes one flushed block's bytes to the sink in order and records
// its interval in the Hierarchical Index, per spec §4.6 step 7. Only the
// sequencer goroutine ever calls commit, so no additional locking is needed
// here even though the index itself carries no internal lock.
func (w *Writer) commit(r flushResult) error {
	if _, err := w.sink.Write(r.data); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIoError, err)
	}

	length := uint64(len(r.data))
	if err := w.index.AddBlock(r.header.Contig, r.header.BlockID, r.header.MinPos, r.header.MaxPos, w.byteOffset, length, r.header.VariantCount); err != nil {
		return err
	}

	w.byteOffset += length
	w.blockCount++
	w.variantCount += uint64(r.header.VariantCount)

	return nil
}

// Append buffers rec into the current block, flushing it first if rec's
// contig, variant-count checkpoint, or base-pair span checkpoint requires
// it (spec §4.6 "Flush conditions"). This is the external "+=" operator.
func (w *Writer) Append(rec varblock.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errs.ErrClosed
	}

	if w.current == nil {
		w.current = varblock.New(w.schema, w.engine, w.nextID, w.numSamples)
		w.nextID++
	}

	needsFlush, err := w.current.NeedsFlushBefore(rec, w.opts.CheckpointVariants, w.opts.CheckpointBases)
	if err != nil {
		return err
	}

	if needsFlush {
		if err := w.submitLocked(w.current); err != nil {
			return err
		}
		w.current = varblock.New(w.schema, w.engine, w.nextID, w.numSamples)
		w.nextID++
	}

	return w.current.Append(rec)
}

func (w *Writer) submitLocked(b *varblock.Block) error {
	if b.Empty() {
		return nil
	}

	seq := w.nextSeq
	w.nextSeq++

	select {
	case w.jobs <- flushJob{seq: seq, block: b}:
		return nil
	case <-w.ctx.Done():
		return w.ctx.Err()
	}
}

// Close flushes the tail block (if non-empty), waits for every in-flight
// block to commit, then appends the linear index, the aggregated digest
// table, the statistics table, the keychain (empty when no encryption was
// used), and the archive footer
// (spec §4.8 "close() ... writes the footer, and finalizes the sink").
func (w *Writer) Close() error {
	return w.shutdown(true)
}

// Cancel performs the cooperative-cancel path (spec §4.8): already
// submitted blocks still drain and commit in order, but the current
// (not-yet-submitted) block is dropped and the sink is closed without a
// valid footer, so a subsequent Reader sees errs.ErrTruncatedArchive.
func (w *Writer) Cancel() error {
	return w.shutdown(false)
}

func (w *Writer) shutdown(writeFooter bool) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return errs.ErrClosed
	}
	w.closed = true

	var tailErr error
	if writeFooter && w.current != nil && !w.current.Empty() {
		tailErr = w.submitLocked(w.current)
	}
	w.current = nil
	w.mu.Unlock()

	close(w.jobs)
	workerErr := w.group.Wait()
	close(w.results)
	<-w.seqDone
	w.cancel()

	if tailErr != nil {
		return tailErr
	}
	if w.seqErr != nil {
		return w.seqErr
	}
	if workerErr != nil {
		return workerErr
	}

	if !writeFooter {
		return nil
	}

	return w.writeTail()
}

func (w *Writer) writeTail() error {
	endOfData := w.byteOffset

	linearSection := archive.EncodeSection(w.engine, w.index.Linear().Encode(w.engine))
	if _, err := w.sink.Write(linearSection); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIoError, err)
	}
	w.byteOffset += uint64(len(linearSection))

	digests := w.digests
	if digests == nil {
		digests = digest.NewManager()
	}
	digestSection := archive.EncodeSection(w.engine, digests.Encode(w.engine))
	if _, err := w.sink.Write(digestSection); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIoError, err)
	}
	w.byteOffset += uint64(len(digestSection))

	st := w.stats
	if st == nil {
		st = stats.NewManager()
	}
	statsSection := archive.EncodeSection(w.engine, st.Encode(w.engine))
	if _, err := w.sink.Write(statsSection); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIoError, err)
	}
	w.byteOffset += uint64(len(statsSection))

	kc := w.keychain
	if kc == nil {
		kc = keychain.New()
	}
	keychainSection := archive.EncodeSection(w.engine, kc.Encode(w.engine))
	if _, err := w.sink.Write(keychainSection); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIoError, err)
	}
	w.byteOffset += uint64(len(keychainSection))

	footer := archive.Footer{
		EndOfDataOffset: endOfData,
		BlockCount:      w.blockCount,
		VariantCount:    w.variantCount,
	}
	if w.opts.Cipher != format.CipherNone {
		footer.Controller |= 1
		footer.Controller |= uint16(w.opts.Cipher) << 1
	}

	if _, err := w.sink.Write(footer.Encode(w.engine)); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIoError, err)
	}

	return nil
}

// BlockCount and VariantCount report the archive's running totals, useful
// for progress reporting while writing.
func (w *Writer) BlockCount() uint64   { return w.blockCount }
func (w *Writer) VariantCount() uint64 { return w.variantCount }
