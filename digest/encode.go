package digest

import (
	"github.com/govariant/govariant/buffer"
	"github.com/govariant/govariant/endian"
)

// Encode serializes the aggregated digest table as a length-prefixed list
// of (kind, id, uncompressed SHA-512, compressed SHA-512) records, sorted
// by (kind, id) for determinism, per spec §6 item 5 "Aggregated digest
// table: one SHA-512 pair for each meta column, INFO field, and FORMAT
// field seen in the archive."
func (m *Manager) Encode(engine endian.EndianEngine) []byte {
	keys := m.Keys()

	b := buffer.New(engine)
	b.AppendUint32(uint32(len(keys)))
	for _, k := range keys {
		pair, _ := m.Lookup(k)
		b.AppendUint8(uint8(k.Kind))
		b.AppendUint32(k.ID)
		b.AppendBytes(pair.Uncompressed[:])
		b.AppendBytes(pair.Compressed[:])
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

		var pair Pair

		uBytes, err := b.Slice(off, off+len(pair.Uncompressed))
		if err != nil {
			return nil, err
		}
		copy(pair.Uncompressed[:], uBytes)
		off += len(pair.Uncompressed)

		cBytes, err := b.Slice(off, off+len(pair.Compressed))
		if err != nil {
			return nil, err
		}
		copy(pair.Compressed[:], cBytes)
		off += len(pair.Compressed)

		m.Update(FieldKey{Kind: FieldKind(kind), ID: id}, pair)
	}

	return m, nil
}
