package collatz

import (
	"sync"

	"github.com/katalvlaran/collatz/u128"
)

// entry is one memoized value: its path length and the bit length of the
// largest value on its trajectory.
type entry struct {
	length   uint32
	peakBits uint8
}

// Memo maps resolved values to their path length.
//
// Each entry also keeps the peak bit width of the value's trajectory, so a
// query at a narrower width still reports ErrOverflow on a memo hit whose
// trajectory would not fit. One memo can therefore serve every width.
//
// Invariants:
//   - 1 always has length 1 and peak width 1, even in a zero-value Memo.
//   - Once recorded, an entry never changes (first write wins).
//
// A Memo is safe for concurrent use, so a single instance may back several
// queries running in parallel.
type Memo struct {
	mu      sync.RWMutex
	entries map[u128.Uint128]entry
}

// NewMemo returns a memo seeded with {1 → 1}.
func NewMemo() *Memo {
	m := &Memo{}
	m.Record(u128.One, 1, 1)
	return m
}

// Length returns the recorded path length of v.
func (m *Memo) Length(v u128.Uint128) (int, bool) {
	l, _, ok := m.Lookup(v)
	return l, ok
}

// Lookup returns the recorded path length of v and the bit length of the
// largest value on its trajectory.
func (m *Memo) Lookup(v u128.Uint128) (length, peakBits int, ok bool) {
	if v == u128.One {
		return 1, 1, true
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[v]
	return int(e.length), int(e.peakBits), ok
}

// Record stores length and peakBits for v unless v is already known.
// It reports whether a new entry was written.
func (m *Memo) Record(v u128.Uint128, length, peakBits int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.entries == nil {
		m.entries = make(map[u128.Uint128]entry)
	}
	if _, ok := m.entries[v]; ok {
		return false
	}
	m.entries[v] = entry{length: uint32(length), peakBits: uint8(peakBits)}
	return true
}

// Len returns the number of recorded entries.
func (m *Memo) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}

// Range calls fn for every entry in unspecified order until fn returns false.
// fn runs under the read lock and must not call Record.
func (m *Memo) Range(fn func(v u128.Uint128, length, peakBits int) bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for v, e := range m.entries {
		if !fn(v, int(e.length), int(e.peakBits)) {
			return
		}
	}
}
