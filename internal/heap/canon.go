// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package heap

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/symvm/symvm/internal/pointer"
	"github.com/symvm/symvm/internal/pool"
)

// canonicalize implements spec §4.1's canonicalisation algorithm: a BFS
// from roots over Heap-tagged pointers, renumbering objects 0,1,2,… in
// BFS order (id 0 reserved for null, so the canonical range here starts
// at 1, matching the pool's own reservation) and producing a streaming
// content hash of the result.
//
// Tie-break (spec §9 open question, resolved in SPEC_FULL.md §3):
// outgoing pointer slots of a visited object are processed in offset
// order (their natural storage order), and ties among same-rank
// targets cannot occur because each object has at most one slot per
// offset; newly discovered objects are assigned the next BFS rank in
// the order their owning slot is scanned.
//
// Dangling Heap pointers (freed/invalid targets) canonicalise to the
// null pointer, so the hash does not depend on a freed target's old id
// or on whatever bytes Free left behind (P1/P2). Weak
// pointers are left byte-for-byte unchanged: they are not traversed
// and not remapped (spec's Weak semantics, resolved in SPEC_FULL.md).
func canonicalize(src *pool.Pool, roots []pointer.Pointer) (dst *pool.Pool, hash uint64, newRoots []pointer.Pointer, err error) {
	order := make([]uint64, 0, src.Len())
	rank := make(map[uint64]int, src.Len())

	visit := func(p pointer.Pointer) {
		if p.IsNull() || p.Tag() != pointer.Heap {
			return
		}
		id := p.ID()
		if _, ok := rank[id]; ok {
			return
		}
		if _, ok := src.View(id); !ok {
			return // freed or invalid: not part of the reachable graph
		}
		rank[id] = len(order)
		order = append(order, id)
	}

	for _, r := range roots {
		visit(r)
	}
	for i := 0; i < len(order); i++ {
		id := order[i]
		v, _ := src.View(id)
		for _, s := range v.Slots {
			if s.IsPtr {
				visit(s.Pointer)
			}
		}
	}

	mapping := make(map[uint64]uint64, len(order))
	for i, id := range order {
		mapping[id] = uint64(i + 1) // new ids start at 1; 0 is null
	}

	dst = pool.New(0)
	h := xxhash.New()
	var scratch [8]byte

	writeUvarint := func(v uint64) {
		n := binary.PutUvarint(scratch[:], v)
		h.Write(scratch[:n])
	}

	for _, id := range order {
		v, _ := src.View(id)
		newPtr, merr := dst.Make(v.Size, pointer.Heap)
		if merr != nil {
			return nil, 0, nil, merr
		}

		writeUvarint(uint64(v.Size))
		data := append([]byte(nil), v.Data...)
		for _, s := range v.Slots {
			if s.IsPtr {
				for i := int64(0); i < 8 && s.Offset+i < v.Size; i++ {
					data[s.Offset+i] = 0
				}
			}
		}
		h.Write(data)
		if v.Size > 0 {
			if werr := dst.Write(newPtr, v.Size, data); werr != nil {
				return nil, 0, nil, werr
			}
		}

		for _, s := range v.Slots {
			writeUvarint(uint64(s.Offset))
			if !s.IsPtr {
				continue
			}
			h.Write([]byte{byte(s.Tag)})
			var out pointer.Pointer
			switch s.Tag {
			case pointer.Heap:
				if nid, ok := mapping[s.Pointer.ID()]; ok {
					out = pointer.New(nid, s.Pointer.Offset(), pointer.Heap)
				} else {
					out = pointer.Null
				}
			case pointer.Weak:
				out = s.Pointer // left byte-for-byte unchanged
			default:
				out = s.Pointer // Global/Constant/Code/Marked: stable outside the pool
			}
			writeUvarint(uint64(out))
			slotPtr := newPtr.WithOffset(s.Offset)
			if werr := dst.WritePointer(slotPtr, out); werr != nil {
				return nil, 0, nil, werr
			}
		}
	}

	newRoots = make([]pointer.Pointer, len(roots))
	for i, r := range roots {
		if r.IsNull() || r.Tag() != pointer.Heap {
			newRoots[i] = r
			continue
		}
		if nid, ok := mapping[r.ID()]; ok {
			newRoots[i] = pointer.New(nid, r.Offset(), pointer.Heap)
		} else {
			newRoots[i] = pointer.Null
		}
	}

	return dst, h.Sum64(), newRoots, nil
}
