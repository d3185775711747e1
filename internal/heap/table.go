// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package heap

import (
	"sync"

	"github.com/symvm/symvm/internal/pointer"
	"github.com/symvm/symvm/internal/pool"
)

// SnapId identifies a canonical, committed heap snapshot. It equals
// the snapshot's content hash (spec §3: "hashes of pointed-to objects
// are mixed in"; §8 P2 assumes no hash collisions within a run, so the
// hash doubles as the identity).
type SnapId uint64

type entry struct {
	pool  *pool.Pool
	roots []pointer.Pointer
}

const numBuckets = 256

// CanonTable is the globally-shared canonical snapshot table described
// in spec §5: "the Pool's insertion is an atomic get-or-create". It is
// the one piece of mutable state multiple search workers touch
// concurrently; each bucket has its own lock so unrelated snapshots
// never contend (spec: "fine-grained locks per bucket").
//
// This is a distinct type from pool.Pool, but plays exactly the sharing/locking role spec.md §4.1/§5 describe
// for "the Pool" in the context of cross-worker deduplication.
type CanonTable struct {
	buckets [numBuckets]struct {
		mu sync.Mutex
		m  map[SnapId]entry
	}
}

// NewCanonTable returns an empty, ready-to-use CanonTable.
func NewCanonTable() *CanonTable {
	t := &CanonTable{}
	for i := range t.buckets {
		t.buckets[i].m = make(map[SnapId]entry)
	}
	return t
}

func (t *CanonTable) bucket(id SnapId) int {
	return int(uint64(id) % numBuckets)
}

// getOrInsert returns the existing entry for id if present (isNew =
// false), or stores e and returns it (isNew = true). This is the
// "atomic get-or-create" of spec §5: the snapshot id returned to the
// caller tells it whether this is a newly discovered state.
func (t *CanonTable) getOrInsert(id SnapId, e entry) (entry, bool) {
	b := &t.buckets[t.bucket(id)]
	b.mu.Lock()
	defer b.mu.Unlock()
	if existing, ok := b.m[id]; ok {
		return existing, false
	}
	b.m[id] = e
	return e, true
}

func (t *CanonTable) get(id SnapId) (entry, bool) {
	b := &t.buckets[t.bucket(id)]
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.m[id]
	return e, ok
}

// Count returns the number of distinct canonical snapshots stored.
func (t *CanonTable) Count() int64 {
	var n int64
	for i := range t.buckets {
		t.buckets[i].mu.Lock()
		n += int64(len(t.buckets[i].m))
		t.buckets[i].mu.Unlock()
	}
	return n
}
