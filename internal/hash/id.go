// Package hash provides the stable hashing primitives used to deduplicate
// pattern dictionaries and to key keychain entries.
package hash

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Pattern computes a stable 64-bit digest of an ordered id vector. Two calls
// with the same ids in the same order always produce the same hash; this is
// the basis for pattern-dictionary deduplication (spec: "deduplicated by
// stable hash").
func Pattern(ids []uint32) uint64 {
	if len(ids) == 0 {
		return 0
	}

	var buf [4]byte
	d := xxhash.New()
	for _, id := range ids {
		binary.LittleEndian.PutUint32(buf[:], id)
		_, _ = d.Write(buf[:])
	}

	return d.Sum64()
}

// KeychainKey computes the lookup key for a (block id, column id) pair in
// the encryption keychain.
func KeychainKey(blockID uint64, columnID uint32) uint64 {
	var buf [12]byte
	binary.LittleEndian.PutUint64(buf[0:8], blockID)
	binary.LittleEndian.PutUint32(buf[8:12], columnID)

	return xxhash.Sum64(buf[:])
}
