// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package heap implements the VM's L1 content-addressed, copy-on-write
// heap (spec §3, §4.1): CowHeap wraps a pool.Pool with canonicalisation,
// snapshotting and restore. Canonical snapshots are shared by SnapId
// across the search front, the parent-pointer trace, and listeners
// (spec §3 "Ownership summary").
package heap

import (
	"github.com/symvm/symvm/internal/pointer"
	"github.com/symvm/symvm/internal/pool"
)

// Heap is a Context's exclusively-owned, mutable copy-on-write heap.
// The "copy-on-write" behaviour is provided by pool.Pool.Clone at
// Restore time: Restore never mutates the canonical table's entry, it
// clones it into the caller's private Pool — so forking a scratch
// Context from a snapshot is a full (but cheap, since pool.Pool uses
// plain Go slices/maps) copy, not a lazy per-object share. This keeps
// the ownership model in spec §3 exact (a live Context exclusively
// owns its current heap) without needing reference-counted object
// sharing between live heaps.
type Heap struct {
	pool  *pool.Pool
	table *CanonTable
}

// New returns an empty heap backed by the given shared canonical
// table. maxObj bounds live object count (0 = unlimited), used to
// simulate the "allocation failure is a runtime choice" policy from
// spec §4.1.
func New(table *CanonTable, maxObj int64) *Heap {
	return &Heap{pool: pool.New(maxObj), table: table}
}

// Table returns the shared canonical snapshot table this heap commits
// into.
func (h *Heap) Table() *CanonTable { return h.table }

func (h *Heap) Make(size int64, tag pointer.Tag) (pointer.Pointer, error) {
	return h.pool.Make(size, tag)
}
func (h *Heap) Free(ptr pointer.Pointer) error      { return h.pool.Free(ptr) }
func (h *Heap) Valid(ptr pointer.Pointer) bool      { return h.pool.Valid(ptr) }
func (h *Heap) Size(ptr pointer.Pointer) (int64, error) { return h.pool.Size(ptr) }
func (h *Heap) Resize(ptr pointer.Pointer, n int64) error { return h.pool.Resize(ptr, n) }

func (h *Heap) Read(ptr pointer.Pointer, width int64) ([]byte, error) {
	return h.pool.Read(ptr, width)
}
func (h *Heap) Write(ptr pointer.Pointer, width int64, buf []byte) error {
	return h.pool.Write(ptr, width, buf)
}
func (h *Heap) ReadPointer(ptr pointer.Pointer) (pointer.Pointer, error) {
	return h.pool.ReadPointer(ptr)
}
func (h *Heap) WritePointer(ptr pointer.Pointer, v pointer.Pointer) error {
	return h.pool.WritePointer(ptr, v)
}
func (h *Heap) IsPointerSlot(ptr pointer.Pointer) (bool, error) {
	return h.pool.IsPointerSlot(ptr)
}
func (h *Heap) PeekTag(ptr pointer.Pointer) (pointer.Tag, error) { return h.pool.PeekTag(ptr) }
func (h *Heap) PokeTag(ptr pointer.Pointer, tag pointer.Tag) error {
	return h.pool.PokeTag(ptr, tag)
}

// Snapshot canonicalises the heap with respect to the given root set
// (spec §4.1: "BFS from the root set… plus the current frame chain")
// and commits it into the shared canonical table, returning its SnapId
// and the root pointers rewritten into canonical-id space (callers
// restoring a root-relative pointer, such as a control register, use
// these rewritten values).
func (h *Heap) Snapshot(roots []pointer.Pointer) (SnapId, []pointer.Pointer, error) {
	canon, hash, newRoots, err := canonicalize(h.pool, roots)
	if err != nil {
		return 0, nil, err
	}
	id := SnapId(hash)
	h.table.getOrInsert(id, entry{pool: canon, roots: newRoots})
	return id, newRoots, nil
}

// Restore adopts the given snapshot as this heap's current content,
// via a clone of the canonical table's stored Pool (copy-on-write: the
// clone is independent of the table entry and of any other Context
// that has restored the same snapshot). It returns the snapshot's
// canonical root pointers.
func Restore(table *CanonTable, id SnapId, maxObj int64) (*Heap, []pointer.Pointer, bool) {
	e, ok := table.get(id)
	if !ok {
		return nil, nil, false
	}
	h := &Heap{pool: e.pool.Clone(), table: table}
	h.pool.SetMaxObjects(maxObj)
	return h, e.roots, true
}
