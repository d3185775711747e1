// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pool implements the VM's L1 object arena: a variable-size
// object store where each object has a stable identity and a byte
// payload with a parallel pointer-tag bitmap (spec §3, §4.1).
//
// A Pool is owned exclusively by one Context at a time (spec §3
// "Ownership summary"); it is not safe for concurrent use by multiple
// goroutines. The separate, globally-shared canonical table used by
// the parallel search for state deduplication lives in
// internal/heap.CanonTable, not here; the two "Pool" roles in spec.md
// are distinct Go types.
package pool

import (
	"errors"
	"fmt"

	"github.com/symvm/symvm/internal/pointer"
)

// ErrOOM is a host error (spec §7): the pool could not satisfy an
// allocation at all (distinct from a guest-visible simulated malloc
// failure, which is a runtime choice, not an error).
var ErrOOM = errors.New("pool: out of memory")

// Fault kinds that Pool operations can signal. These mirror
// vm.FaultKind's Memory case; pool does not import package vm (which
// depends on pool) so it defines its own sentinel and internal/vm
// translates it.
var (
	ErrInvalidPointer = errors.New("pool: invalid pointer")
	ErrOutOfBounds    = errors.New("pool: access out of bounds")
	ErrMisaligned     = errors.New("pool: misaligned access")
	ErrUseAfterFree   = errors.New("pool: use after free")
)

// Pool is the object arena backing one Context's heap.
type Pool struct {
	objects map[uint64]*object
	nextID  uint64
	maxObj  int64 // soft cap on live object count, 0 = unlimited
}

// New returns an empty Pool. maxObj, if non-zero, bounds the number of
// live objects Make will create before returning ErrOOM (used by tests
// exercising resource-exhaustion host errors).
func New(maxObj int64) *Pool {
	return &Pool{
		objects: make(map[uint64]*object),
		nextID:  1, // id 0 is reserved for the null pointer
		maxObj:  maxObj,
	}
}

// Clone deep-copies the pool, used when a Context forks a scratch copy
// to explore one successor (spec §4.4 step 1, "restore S into a
// scratch Context").
func (p *Pool) Clone() *Pool {
	c := &Pool{
		objects: make(map[uint64]*object, len(p.objects)),
		nextID:  p.nextID,
		maxObj:  p.maxObj,
	}
	for id, o := range p.objects {
		c.objects[id] = o.clone()
	}
	return c
}

// Make allocates a fresh, zero-filled object of the given byte size
// and returns a pointer to its start carrying the given tag.
func (p *Pool) Make(size int64, tag pointer.Tag) (pointer.Pointer, error) {
	if size < 0 {
		return pointer.Null, fmt.Errorf("pool: negative size %d", size)
	}
	if p.maxObj > 0 && int64(p.Len()) >= p.maxObj {
		return pointer.Null, ErrOOM
	}
	id := p.nextID
	p.nextID++
	p.objects[id] = newObject(size)
	return pointer.New(id, 0, tag), nil
}

// Free invalidates the object ptr refers to. Subsequent access faults
// with ErrUseAfterFree.
func (p *Pool) Free(ptr pointer.Pointer) error {
	o, err := p.lookup(ptr)
	if err != nil {
		return err
	}
	o.free = true
	return nil
}

// Valid reports whether ptr currently addresses a live object.
func (p *Pool) Valid(ptr pointer.Pointer) bool {
	o, ok := p.objects[ptr.ID()]
	return ok && !o.free
}

// Size returns the byte size of the object ptr addresses.
func (p *Pool) Size(ptr pointer.Pointer) (int64, error) {
	o, err := p.lookup(ptr)
	if err != nil {
		return 0, err
	}
	return o.size, nil
}

func (p *Pool) lookup(ptr pointer.Pointer) (*object, error) {
	o, ok := p.objects[ptr.ID()]
	if !ok {
		return nil, ErrInvalidPointer
	}
	if o.free {
		return nil, ErrUseAfterFree
	}
	return o, nil
}

// bounds checks that [offset, offset+width) lies within o. Alignment
// of guest-visible widths ({1,2,4,8}) is a VM-level contract enforced
// by internal/vm before calling Read/Write/ReadPointer/WritePointer
// for guest Load/Store instructions (spec §4.3); Pool itself is just a
// raw byte arena and also serves bulk, non-width-restricted writes
// (e.g. ExportHeap materialising a global's initial bytes), which must
// not be rejected as misaligned.
func (p *Pool) bounds(o *object, offset int64, width int64) error {
	if offset < 0 || width < 0 || offset+width > o.size {
		return ErrOutOfBounds
	}
	return nil
}

// CheckAlignment reports ErrMisaligned if offset is not a multiple of
// width (for width > 1). Used by internal/vm to enforce spec §4.1's
// "misaligned pointer access faults with Memory" for guest load/store.
func CheckAlignment(offset, width int64) error {
	if width > 1 && offset%width != 0 {
		return ErrMisaligned
	}
	return nil
}

// Read returns a copy of width bytes at ptr. Guest-facing callers
// (internal/vm) restrict width to {1,2,4,8} and check CheckAlignment
// themselves; Pool only bounds-checks.
func (p *Pool) Read(ptr pointer.Pointer, width int64) ([]byte, error) {
	o, err := p.lookup(ptr)
	if err != nil {
		return nil, err
	}
	off := ptr.Offset()
	if err := p.bounds(o, off, width); err != nil {
		return nil, err
	}
	buf := make([]byte, width)
	copy(buf, o.data[off:off+width])
	return buf, nil
}

// Write stores width bytes at ptr, clearing any pointer-bitmap bits
// the write overlaps (spec invariant I1: a write that overwrites a
// pointer with a non-pointer clears the bit).
func (p *Pool) Write(ptr pointer.Pointer, width int64, buf []byte) error {
	o, err := p.lookup(ptr)
	if err != nil {
		return err
	}
	off := ptr.Offset()
	if err := p.bounds(o, off, width); err != nil {
		return err
	}
	copy(o.data[off:off+width], buf)
	for s := o.slotIndex(off - off%slotWidth); s*slotWidth < off+width; s++ {
		o.setPtrSlot(s, false)
	}
	return nil
}

// ReadPointer reads a pointer.Pointer value at ptr, which must be
// slot-aligned and bitmap-tagged as holding a pointer. Reading a
// non-pointer slot as a pointer is a Memory fault at the vm layer, not
// here; Pool exposes IsPointerSlot for the caller to check first.
func (p *Pool) ReadPointer(ptr pointer.Pointer) (pointer.Pointer, error) {
	o, err := p.lookup(ptr)
	if err != nil {
		return pointer.Null, err
	}
	off := ptr.Offset()
	if err := p.bounds(o, off, 8); err != nil {
		return pointer.Null, err
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(o.data[off+int64(i)]) << (8 * i)
	}
	return pointer.Pointer(v), nil
}

// WritePointer stores a pointer value at ptr and sets the
// corresponding pointer-bitmap bit/tag atomically with the byte write
// (spec invariant I1).
func (p *Pool) WritePointer(ptr pointer.Pointer, v pointer.Pointer) error {
	o, err := p.lookup(ptr)
	if err != nil {
		return err
	}
	off := ptr.Offset()
	if err := p.bounds(o, off, 8); err != nil {
		return err
	}
	u := uint64(v)
	for i := 0; i < 8; i++ {
		o.data[off+int64(i)] = byte(u >> (8 * i))
	}
	slot := o.slotIndex(off)
	o.setPtrSlot(slot, true)
	o.tags[slot] = v.Tag()
	return nil
}

// IsPointerSlot reports whether the slot-aligned location ptr
// currently holds a pointer value per the bitmap.
func (p *Pool) IsPointerSlot(ptr pointer.Pointer) (bool, error) {
	o, err := p.lookup(ptr)
	if err != nil {
		return false, err
	}
	off := ptr.Offset()
	if off < 0 || off >= o.size {
		return false, ErrOutOfBounds
	}
	return o.isPtrSlot(o.slotIndex(off)), nil
}

// PeekTag returns the pointer.Tag recorded for the pointer-holding
// slot at ptr.
func (p *Pool) PeekTag(ptr pointer.Pointer) (pointer.Tag, error) {
	o, err := p.lookup(ptr)
	if err != nil {
		return 0, err
	}
	off := ptr.Offset()
	if off < 0 || off >= o.size {
		return 0, ErrOutOfBounds
	}
	return o.tags[o.slotIndex(off)], nil
}

// PokeTag overwrites the tag of the pointer stored at ptr in place,
// without changing its id/offset (used by instrumentation to, e.g.,
// mark a pointer Weak).
func (p *Pool) PokeTag(ptr pointer.Pointer, tag pointer.Tag) error {
	cur, err := p.ReadPointer(ptr)
	if err != nil {
		return err
	}
	return p.WritePointer(ptr, cur.WithTag(tag))
}

// Resize grows or shrinks the object ptr addresses in place,
// zero-filling any newly added bytes and truncating the pointer
// bitmap/tags to match.
func (p *Pool) Resize(ptr pointer.Pointer, newSize int64) error {
	o, err := p.lookup(ptr)
	if err != nil {
		return err
	}
	if newSize < 0 {
		return fmt.Errorf("pool: negative size %d", newSize)
	}
	nslots := (newSize + slotWidth - 1) / slotWidth
	data := make([]byte, newSize)
	copy(data, o.data)
	tags := make([]pointer.Tag, nslots)
	copy(tags, o.tags)
	bits := make([]uint64, (nslots+63)/64)
	copy(bits, o.bits)
	o.data, o.tags, o.bits, o.size = data, tags, bits, newSize
	return nil
}

// Ids returns the set of live object ids currently in the pool, in
// unspecified order.
func (p *Pool) Ids() []uint64 {
	ids := make([]uint64, 0, len(p.objects))
	for id, o := range p.objects {
		if !o.free {
			ids = append(ids, id)
		}
	}
	return ids
}

// objectByID returns the live internal object for a given id; View
// below is built on it, giving package heap the byte/bitmap access it
// needs to implement canonicalisation.
func (p *Pool) objectByID(id uint64) (*object, bool) {
	o, ok := p.objects[id]
	if !ok || o.free {
		return nil, false
	}
	return o, true
}

// Snapshot support: heap's canonicalisation needs read access to raw
// bytes, bitmap and tags per object. These are exposed through a narrow accessor type rather than exporting
// object, to keep the bitmap/bytes coherence invariant (I1) enforced
// only inside package pool.

// RawView is a read-only view of one object's bytes and pointer slots,
// used by canonicalisation to hash and traverse the heap.
type RawView struct {
	Size  int64
	Data  []byte
	Slots []SlotView
}

// SlotView describes one pointer-bitmap slot.
type SlotView struct {
	Offset  int64
	IsPtr   bool
	Pointer pointer.Pointer
	Tag     pointer.Tag
}

// View returns a RawView of the object with the given id, or false if
// it does not exist or has been freed.
func (p *Pool) View(id uint64) (RawView, bool) {
	o, ok := p.objectByID(id)
	if !ok {
		return RawView{}, false
	}
	v := RawView{Size: o.size, Data: append([]byte(nil), o.data...)}
	for s := int64(0); s < o.numSlots(); s++ {
		off := s * slotWidth
		sv := SlotView{Offset: off}
		if o.isPtrSlot(s) {
			var u uint64
			for i := int64(0); i < 8 && off+i < o.size; i++ {
				u |= uint64(o.data[off+i]) << (8 * i)
			}
			sv.IsPtr = true
			sv.Pointer = pointer.Pointer(u)
			sv.Tag = o.tags[s]
		}
		v.Slots = append(v.Slots, sv)
	}
	return v, true
}

// Renumber replaces the ids of all live objects according to the
// supplied mapping (old id -> new id). Every live id must appear in
// mapping exactly once; the mapping must be a bijection onto its
// range. Freed objects are dropped.
func (p *Pool) Renumber(mapping map[uint64]uint64) error {
	next := make(map[uint64]*object, len(p.objects))
	maxNew := uint64(0)
	for old, o := range p.objects {
		if o.free {
			continue
		}
		nid, ok := mapping[old]
		if !ok {
			return fmt.Errorf("pool: renumber missing mapping for id %d", old)
		}
		if _, dup := next[nid]; dup {
			return fmt.Errorf("pool: renumber mapping not injective at id %d", nid)
		}
		next[nid] = o
		if nid > maxNew {
			maxNew = nid
		}
	}
	p.objects = next
	p.nextID = maxNew + 1
	return nil
}

// Len reports the number of live objects.
func (p *Pool) Len() int {
	n := 0
	for _, o := range p.objects {
		if !o.free {
			n++
		}
	}
	return n
}

// SetMaxObjects changes the soft live-object cap (0 = unlimited),
// used after cloning a canonical snapshot into a Context's private
// heap so the Context's own resource limits apply going forward.
func (p *Pool) SetMaxObjects(maxObj int64) { p.maxObj = maxObj }
