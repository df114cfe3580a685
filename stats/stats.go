// Package stats implements the per-column statistics sidecar (spec §6
// "Persisted sibling artifacts": "Statistics file: per-column uncompressed/
// compressed byte totals"). Unlike the Digest Manager's "last observed"
// aggregation, statistics accumulate across every block a field appears in,
// since the point is a running total, not a tamper check.
package stats

import (
	"sort"
	"sync"

	"github.com/govariant/govariant/digest"
)

// Totals holds one field's running uncompressed/compressed byte counts.
type Totals struct {
	UncompressedBytes uint64
	CompressedBytes   uint64
}

// Manager accumulates per-column byte totals across an archive's lifetime.
// Safe for concurrent Update calls from multiple block-flush workers;
// Finalize-free by design, since summing is commutative and associative
// regardless of block commit order.
type Manager struct {
	mu     sync.Mutex
	totals map[digest.FieldKey]Totals
}

// NewManager creates an empty statistics Manager.
func NewManager() *Manager {
	return &Manager{totals: make(map[digest.FieldKey]Totals)}
}

// Update adds one column's uncompressed/compressed byte counts for this
// block to the running total for key.
func (m *Manager) Update(key digest.FieldKey, uncompressed, compressed uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.totals[key]
	t.UncompressedBytes += uncompressed
	t.CompressedBytes += compressed
	m.totals[key] = t
}

// Lookup returns the running totals for a field, or false if no block has
// ever produced one.
func (m *Manager) Lookup(key digest.FieldKey) (Totals, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.totals[key]

	return t, ok
}

// Keys returns the set of field keys with recorded totals, sorted by
// (Kind, ID) for deterministic serialization.
func (m *Manager) Keys() []digest.FieldKey {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]digest.FieldKey, 0, len(m.totals))
	for k := range m.totals {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Kind != keys[j].Kind {
			return keys[i].Kind < keys[j].Kind
		}

		return keys[i].ID < keys[j].ID
	})

	return keys
}

// Len returns the number of distinct fields with recorded totals.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.totals)
}

// CompressionRatio returns key's compressed/uncompressed byte ratio, or 0
// if key has no recorded totals or no uncompressed bytes (an all-empty
// column, which compresses to itself).
func (m *Manager) CompressionRatio(key digest.FieldKey) float64 {
	t, ok := m.Lookup(key)
	if !ok || t.UncompressedBytes == 0 {
		return 0
	}

	return float64(t.CompressedBytes) / float64(t.UncompressedBytes)
}
