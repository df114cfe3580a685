// Package keychain implements the append-only encryption keychain sink:
// (block id, column id) -> (key, nonce, tag), persisted alongside the
// archive (spec §4.3, §6 "Persisted sibling artifacts").
package keychain

import (
	"fmt"
	"sync"

	"github.com/govariant/govariant/buffer"
	"github.com/govariant/govariant/codec"
	"github.com/govariant/govariant/endian"
	"github.com/govariant/govariant/errs"
	"github.com/govariant/govariant/internal/hash"
)

// Entry is one (block, column) encryption record.
type Entry struct {
	BlockID   uint64
	ColID     uint32
	Key       []byte
	Nonce     []byte
	Tag       [codec.TagSize]byte // data buffer AEAD tag (zero for CTR/identity)
	StrideTag [codec.TagSize]byte // stride buffer AEAD tag, valid only if HasStride
	HasStride bool
}

// Keychain is an append-only, lock-guarded store of encryption material,
// per spec §5 "Shared-resource policy": "The keychain is an append-only
// structure guarded by a single lock."
type Keychain struct {
	mu      sync.Mutex
	entries []Entry
	byKey   map[uint64]int // internal/hash.KeychainKey(blockID, colID) -> index into entries
}

// New creates an empty Keychain.
func New() *Keychain {
	return &Keychain{byKey: make(map[uint64]int)}
}

// Put appends one encryption record. Keys and nonces are copied, so callers
// may reuse the backing arrays afterward.
func (k *Keychain) Put(blockID uint64, colID uint32, key, nonce []byte, tag [codec.TagSize]byte) error {
	return k.putEntry(Entry{
		BlockID: blockID,
		ColID:   colID,
		Key:     append([]byte(nil), key...),
		Nonce:   append([]byte(nil), nonce...),
		Tag:     tag,
	})
}

// PutWithStride is Put for a column that also has an encrypted variable-
// stride side buffer, recording that buffer's own AEAD tag alongside the
// data buffer's.
func (k *Keychain) PutWithStride(blockID uint64, colID uint32, key, nonce []byte, tag, strideTag [codec.TagSize]byte) error {
	return k.putEntry(Entry{
		BlockID:   blockID,
		ColID:     colID,
		Key:       append([]byte(nil), key...),
		Nonce:     append([]byte(nil), nonce...),
		Tag:       tag,
		StrideTag: strideTag,
		HasStride: true,
	})
}

func (k *Keychain) putEntry(entry Entry) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.byKey[hash.KeychainKey(entry.BlockID, entry.ColID)] = len(k.entries)
	k.entries = append(k.entries, entry)

	return nil
}

// Lookup returns the encryption record for (blockID, colID), if any.
func (k *Keychain) Lookup(blockID uint64, colID uint32) (Entry, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()

	idx, ok := k.byKey[hash.KeychainKey(blockID, colID)]
	if !ok {
		return Entry{}, false
	}

	return k.entries[idx], true
}

// Len returns the number of recorded entries.
func (k *Keychain) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()

	return len(k.entries)
}

// Encode serializes every entry as a flat, length-prefixed record stream,
// per spec §6 "Keychain file: append-only serialization of (block id,
// column id, key, nonce, tag) tuples."
func (k *Keychain) Encode(engine endian.EndianEngine) []byte {
	k.mu.Lock()
	defer k.mu.Unlock()

	b := buffer.New(engine)
	b.AppendUint32(uint32(len(k.entries)))
	for _, e := range k.entries {
		b.AppendUint64(e.BlockID)
		b.AppendUint32(e.ColID)
		b.AppendUint32(uint32(len(e.Key)))
		b.AppendBytes(e.Key)
		b.AppendUint32(uint32(len(e.Nonce)))
		b.AppendBytes(e.Nonce)
		b.AppendBytes(e.Tag[:])
		b.AppendBool(e.HasStride)
		b.AppendBytes(e.StrideTag[:])
	}

	return b.Bytes()
}

// Decode parses a byte stream produced by Encode into a fresh Keychain.
func Decode(engine endian.EndianEngine, data []byte) (*Keychain, error) {
	b := buffer.FromBytes(engine, data)

	count, err := b.Uint32At(0)
	if err != nil {
		return nil, err
	}

	k := New()
	off := 4
	for i := uint32(0); i < count; i++ {
		blockID, err := b.Uint64At(off)
		if err != nil {
			return nil, err
		}
		off += 8

		colID, err := b.Uint32At(off)
		if err != nil {
			return nil, err
		}
		off += 4

		keyLen, err := b.Uint32At(off)
		if err != nil {
			return nil, err
		}
		off += 4
		key, err := b.Slice(off, off+int(keyLen))
		if err != nil {
			return nil, err
		}
		off += int(keyLen)

		nonceLen, err := b.Uint32At(off)
		if err != nil {
			return nil, err
		}
		off += 4
		nonce, err := b.Slice(off, off+int(nonceLen))
		if err != nil {
			return nil, err
		}
		off += int(nonceLen)

		tagBytes, err := b.Slice(off, off+codec.TagSize)
		if err != nil {
			return nil, err
		}
		off += codec.TagSize

		var tag [codec.TagSize]byte
		copy(tag[:], tagBytes)

		hasStride, err := b.Uint8At(off)
		if err != nil {
			return nil, err
		}
		off++

		strideTagBytes, err := b.Slice(off, off+codec.TagSize)
		if err != nil {
			return nil, err
		}
		off += codec.TagSize

		var strideTag [codec.TagSize]byte
		copy(strideTag[:], strideTagBytes)

		var putErr error
		if hasStride != 0 {
			putErr = k.PutWithStride(blockID, colID, key, nonce, tag, strideTag)
		} else {
			putErr = k.Put(blockID, colID, key, nonce, tag)
		}
		if putErr != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrIoError, putErr)
		}
	}

	return k, nil
}
