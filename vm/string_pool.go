package vm

import (
	"math"
	"sync"
)

// ---------------------------------------------------------------------------
// StringPool: Interned string literals addressed by sentinel ids
// ---------------------------------------------------------------------------

// SentinelFloor is the smallest integer that can encode a string. Any slot
// value whose rounded integer is below the floor is a plain number.
const SentinelFloor = 20000

// StringPool maps sentinel ids to interned string literals.
// ids and literals are parallel: ids[i] is the sentinel for literals[i].
// The compiler populates the pool; after a program is published the pool
// is only read.
type StringPool struct {
	mu       sync.RWMutex
	ids      []int32
	literals []string
}

// NewStringPool creates an empty string pool.
func NewStringPool() *StringPool {
	return &StringPool{}
}

// Intern returns the sentinel id for a literal, assigning the next free id
// if the literal has not been seen. Ids are dense from SentinelFloor, so
// distinct literals never share one.
func (p *StringPool) Intern(literal string) int32 {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, s := range p.literals {
		if s == literal {
			return p.ids[i]
		}
	}

	id := int32(SentinelFloor + len(p.ids))
	p.ids = append(p.ids, id)
	p.literals = append(p.literals, literal)
	return id
}

// Resolve reports the string encoded by a raw slot value, if any.
// The value is rounded half-up before the floor test and the lookup; the
// mapping is scanned linearly because ids carry no ordering guarantee.
func (p *StringPool) Resolve(raw float32) (string, bool) {
	id, ok := sentinelID(raw)
	if !ok {
		return "", false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	for i, candidate := range p.ids {
		if candidate == id {
			return p.literals[i], true
		}
	}
	return "", false
}

// Len returns the number of interned literals.
func (p *StringPool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.ids)
}

// Entries returns a copy of the (id, literal) pairs in insertion order.
func (p *StringPool) Entries() []PoolEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]PoolEntry, len(p.ids))
	for i := range p.ids {
		out[i] = PoolEntry{ID: p.ids[i], Literal: p.literals[i]}
	}
	return out
}

// PoolEntry is one interned literal and its sentinel id.
type PoolEntry struct {
	ID      int32
	Literal string
}

// SentinelValue returns the float a program stores to refer to a string id.
func SentinelValue(id int32) float32 {
	return float32(id)
}

// sentinelID rounds raw half-up and reports whether it is in sentinel range.
// NaN and values outside int32 range never encode a string.
func sentinelID(raw float32) (int32, bool) {
	rounded := math.Floor(float64(raw) + 0.5)
	if math.IsNaN(rounded) || rounded < SentinelFloor || rounded > math.MaxInt32 {
		return 0, false
	}
	return int32(rounded), true
}
