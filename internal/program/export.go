// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package program

import "github.com/symvm/symvm/internal/pointer"

// TargetHeap is the minimal heap capability ExportHeap needs: make a
// fresh object and write raw bytes into it. internal/heap.Heap
// satisfies this; the interface is declared here (rather than
// importing internal/heap) to keep program heap-agnostic, matching
// spec §4.2's export_heap(CowHeap) signature as a capability the
// caller supplies.
type TargetHeap interface {
	Make(size int64, tag pointer.Tag) (pointer.Pointer, error)
	Write(ptr pointer.Pointer, width int64, buf []byte) error
}

// ExportHeap materialises the module's constant and global pools into
// target as two heap objects (spec §4.2: "export_heap(CowHeap) ->
// (constants, globals)") and returns Heap-tagged base pointers to
// each. The caller (explore.Boot) stores these in the Constants/Globals
// control registers before entering __boot; Operand{Kind: OperandGlobal} resolution at eval time adds
// Program.GlobalOffsets[i]/ConstOffsets[i] to the corresponding base.
func (p *Program) ExportHeap(target TargetHeap) (constants, globals pointer.Pointer, err error) {
	constants, err = materialise(target, p.Constants, p.ConstOffsets, p.ConstsSize)
	if err != nil {
		return pointer.Null, pointer.Null, err
	}
	globals, err = materialise(target, p.Globals, p.GlobalOffsets, p.GlobalsSize)
	if err != nil {
		return pointer.Null, pointer.Null, err
	}
	return constants, globals, nil
}

func materialise(target TargetHeap, entries []Global, offsets []int64, size int64) (pointer.Pointer, error) {
	base, err := target.Make(size, pointer.Heap)
	if err != nil {
		return pointer.Null, err
	}
	for i, g := range entries {
		if len(g.Init) == 0 {
			continue
		}
		if err := target.Write(base.WithOffset(offsets[i]), int64(len(g.Init)), g.Init); err != nil {
			return pointer.Null, err
		}
	}
	return base, nil
}
