package vm

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
)

// BlockSize is the number of slots in one variable block.
const BlockSize = 64

var (
	ErrSlotOutOfRange = errors.New("slot reference out of range")
	ErrSlotUnused     = errors.New("slot reference points at an unused slot")
	ErrEmptyName      = errors.New("variable name must not be empty")
)

// ---------------------------------------------------------------------------
// Cell: atomic float32 storage
// ---------------------------------------------------------------------------

// Cell holds one variable value as raw IEEE 754 bits so that loads and
// stores from the audio goroutine and the control goroutines are never torn.
type Cell struct {
	bits atomic.Uint32
}

// Load returns the current value.
func (c *Cell) Load() float32 {
	return math.Float32frombits(c.bits.Load())
}

// Store replaces the current value.
func (c *Cell) Store(v float32) {
	c.bits.Store(math.Float32bits(v))
}

// CompareAndSwap stores next only if the cell still holds exactly the bits
// of old.
func (c *Cell) CompareAndSwap(old, next float32) bool {
	return c.bits.CompareAndSwap(math.Float32bits(old), math.Float32bits(next))
}

// ---------------------------------------------------------------------------
// VarTable: block-structured named slots
// ---------------------------------------------------------------------------

// SlotRef addresses one slot. A ref obtained from a scan or from Declare
// stays valid for the lifetime of the table.
type SlotRef struct {
	Block int
	Index int
}

// Slot is an occupied slot as observed by a scan.
type Slot struct {
	Name string
	Raw  float32
	Ref  SlotRef
}

type varSlot struct {
	name  atomic.Pointer[string]
	value Cell
}

type varBlock [BlockSize]varSlot

// VarTable is the global variable storage of a compiled program.
//
// Slots live in fixed-size blocks; the block list only grows, and a new
// list is published atomically so scanners never observe a half-built
// block list. A slot's value is written before its name is published, so a
// scanner that sees a name always sees a valid value.
type VarTable struct {
	mu     sync.Mutex // serializes Declare/Append
	blocks atomic.Pointer[[]*varBlock]
	next   int                // guarded by mu
	index  map[string]SlotRef // first slot per name, guarded by mu
}

// NewVarTable creates an empty variable table.
func NewVarTable() *VarTable {
	t := &VarTable{index: make(map[string]SlotRef)}
	empty := make([]*varBlock, 0)
	t.blocks.Store(&empty)
	return t
}

// Declare returns the slot for name, allocating one if the name is new.
// This is the compiler's entry point; the bridge never calls it.
func (t *VarTable) Declare(name string) (SlotRef, error) {
	if name == "" {
		return SlotRef{}, ErrEmptyName
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if ref, ok := t.index[name]; ok {
		return ref, nil
	}
	return t.allocate(name), nil
}

// Append always allocates a fresh slot for name, even if the name already
// exists. Used when replaying a layout produced by another compiler.
func (t *VarTable) Append(name string) (SlotRef, error) {
	if name == "" {
		return SlotRef{}, ErrEmptyName
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.allocate(name), nil
}

// allocate must be called with t.mu held.
func (t *VarTable) allocate(name string) SlotRef {
	ref := SlotRef{Block: t.next / BlockSize, Index: t.next % BlockSize}

	blocks := *t.blocks.Load()
	if ref.Block == len(blocks) {
		grown := make([]*varBlock, len(blocks), len(blocks)+1)
		copy(grown, blocks)
		grown = append(grown, new(varBlock))
		t.blocks.Store(&grown)
		blocks = grown
	}

	slot := &blocks[ref.Block][ref.Index]
	slot.value.Store(0)
	n := name
	slot.name.Store(&n)

	if _, ok := t.index[name]; !ok {
		t.index[name] = ref
	}
	t.next++
	return ref
}

// ForEach visits every occupied slot in block-major, slot-minor order.
// The scan stops early if visit returns false. Each value read is atomic;
// the scan as a whole is not a transactional snapshot.
func (t *VarTable) ForEach(visit func(Slot) bool) {
	blocks := *t.blocks.Load()
	for bi, b := range blocks {
		for si := range b {
			slot := &b[si]
			name := slot.name.Load()
			if name == nil || *name == "" {
				continue
			}
			if !visit(Slot{Name: *name, Raw: slot.value.Load(), Ref: SlotRef{Block: bi, Index: si}}) {
				return
			}
		}
	}
}

// Get returns the raw value of an occupied slot.
func (t *VarTable) Get(ref SlotRef) (float32, error) {
	slot, err := t.slot(ref)
	if err != nil {
		return 0, err
	}
	return slot.value.Load(), nil
}

// Set overwrites the raw value of an occupied slot.
func (t *VarTable) Set(ref SlotRef, v float32) error {
	slot, err := t.slot(ref)
	if err != nil {
		return err
	}
	slot.value.Store(v)
	return nil
}

// Cell returns the atomic cell behind an occupied slot. Interpreters hold
// on to cells so they can read and write without going through the table.
func (t *VarTable) Cell(ref SlotRef) (*Cell, error) {
	slot, err := t.slot(ref)
	if err != nil {
		return nil, err
	}
	return &slot.value, nil
}

func (t *VarTable) slot(ref SlotRef) (*varSlot, error) {
	blocks := *t.blocks.Load()
	if ref.Block < 0 || ref.Block >= len(blocks) || ref.Index < 0 || ref.Index >= BlockSize {
		return nil, ErrSlotOutOfRange
	}
	slot := &blocks[ref.Block][ref.Index]
	if name := slot.name.Load(); name == nil || *name == "" {
		return nil, ErrSlotUnused
	}
	return slot, nil
}

// Len returns the number of occupied slots.
func (t *VarTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.next
}

// NumBlocks returns the number of allocated blocks.
func (t *VarTable) NumBlocks() int {
	return len(*t.blocks.Load())
}
