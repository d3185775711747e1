// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pool

import "github.com/symvm/symvm/internal/pointer"

// slotWidth is the granularity of the pointer bitmap, in bytes. Every
// slotWidth-byte slot of an object's data carries one bit in the
// bitmap indicating whether that slot currently holds a pointer value.
const slotWidth = 8

// object is the mutable storage for one heap object: its raw bytes,
// its pointer bitmap (one bit per slotWidth-byte slot, authoritative
// for reachability per spec invariant I1), and a parallel tag array
// recording the pointer.Tag of each pointer-holding slot.
//
// object is never shared directly between two live ids or two pools;
// Pool.Clone deep-copies every object, so object itself does not need
// to track a refcount.
type object struct {
	size int64
	data []byte
	bits []uint64   // pointer bitmap, ceil(size/slotWidth) bits
	tags []pointer.Tag // tag of slot i, meaningful only where bits[i] is set
	free bool
}

func newObject(size int64) *object {
	nslots := (size + slotWidth - 1) / slotWidth
	return &object{
		size: size,
		data: make([]byte, size),
		bits: make([]uint64, (nslots+63)/64),
		tags: make([]pointer.Tag, nslots),
	}
}

// clone returns a deep copy of o, used by Pool.Clone when a heap is
// restored from a snapshot.
func (o *object) clone() *object {
	c := &object{
		size: o.size,
		data: append([]byte(nil), o.data...),
		bits: append([]uint64(nil), o.bits...),
		tags: append([]pointer.Tag(nil), o.tags...),
		free: o.free,
	}
	return c
}

func (o *object) slotIndex(offset int64) int64 { return offset / slotWidth }

func (o *object) isPtrSlot(slot int64) bool {
	return o.bits[slot/64]&(1<<uint(slot%64)) != 0
}

func (o *object) setPtrSlot(slot int64, v bool) {
	w, b := slot/64, uint(slot%64)
	if v {
		o.bits[w] |= 1 << b
	} else {
		o.bits[w] &^= 1 << b
	}
}

// numSlots reports the number of pointer-bitmap slots in o.
func (o *object) numSlots() int64 { return int64(len(o.tags)) }
