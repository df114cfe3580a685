package stats

import (
	"github.com/govariant/govariant/buffer"
	"github.com/govariant/govariant/digest"
	"github.com/govariant/govariant/endian"
)

// Encode serializes the aggregated statistics table as a length-prefixed
// list of (kind, id, uncompressed bytes, compressed bytes) records, sorted
// by (kind, id) for determinism, mirroring digest.Manager's wire shape
// (spec §6 "Statistics file: per-column uncompressed/compressed byte
// totals").
func (m *Manager) Encode(engine endian.EndianEngine) []byte {
	keys := m.Keys()

	b := buffer.New(engine)
	b.AppendUint32(uint32(len(keys)))
	for _, k := range keys {
		t, _ := m.Lookup(k)
		b.AppendUint8(uint8(k.Kind))
		b.AppendUint32(k.ID)
		b.AppendUint64(t.UncompressedBytes)
		b.AppendUint64(t.CompressedBytes)
	}

	return b.Bytes()
}

// Decode parses a byte stream produced by Encode into a fresh Manager.
func Decode(engine endian.EndianEngine, data []byte) (*Manager, error) {
	b := buffer.FromBytes(engine, data)

	count, err := b.Uint32At(0)
	if err != nil {
		return nil, err
	}

	m := NewManager()
	off := 4
	for i := uint32(0); i < count; i++ {
		kind, err := b.Uint8At(off)
		if err != nil {
			return nil, err
		}
		off++

		id, err := b.Uint32At(off)
		if err != nil {
			return nil, err
		}
		off += 4

		uBytes, err := b.Uint64At(off)
		if err != nil {
			return nil, err
		}
		off += 8

		cBytes, err := b.Uint64At(off)
		if err != nil {
			return nil, err
		}
		off += 8

		m.Update(digest.FieldKey{Kind: digest.FieldKind(kind), ID: id}, uBytes, cBytes)
	}

	return m, nil
}
