// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package search

import (
	"sync"

	"github.com/symvm/symvm/internal/heap"
)

const numShards = 256

// visitedSet is the search-global side table of already-discovered
// states (spec §5: "visited-state side tables, using atomic
// compare-and-swap to flip state bits"). It is sharded the same way
// heap.CanonTable shards its canonical pool entries, so contention
// stays low under N parallel workers without needing a single global
// lock.
type visitedSet struct {
	shards [numShards]struct {
		mu sync.Mutex
		m  map[heap.SnapId]bool
	}
}

func newVisitedSet() *visitedSet {
	v := &visitedSet{}
	for i := range v.shards {
		v.shards[i].m = make(map[heap.SnapId]bool)
	}
	return v
}

func (v *visitedSet) shard(id heap.SnapId) int {
	return int(uint64(id) % numShards)
}

// markIfNew atomically records id as visited and reports whether this
// call was the first to do so (the compare-and-swap semantics spec §5
// asks for, implemented with a per-shard mutex rather than a lock-free
// CAS loop — both give the same observable guarantee, first-writer-wins,
// and a mutex is the idiom the teacher's code reaches for throughout).
func (v *visitedSet) markIfNew(id heap.SnapId) bool {
	s := &v.shards[v.shard(id)]
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m[id] {
		return false
	}
	s.m[id] = true
	return true
}

// Count returns the number of distinct states recorded so far.
func (v *visitedSet) Count() int64 {
	var n int64
	for i := range v.shards {
		v.shards[i].mu.Lock()
		n += int64(len(v.shards[i].m))
		v.shards[i].mu.Unlock()
	}
	return n
}
