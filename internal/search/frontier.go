// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package search

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/symvm/symvm/internal/config"
	"github.com/symvm/symvm/internal/heap"
)

// frontier is the work queue workers pop states from (spec §5's "MPMC
// lock-free ring"). It is implemented as a mutex-protected deque
// rather than a literal lock-free ring — same externally-visible
// bounded-capacity, multi-producer/multi-consumer contract, simpler to
// get right — fronted by a weighted semaphore that blocks producers
// once the queue is at capacity, giving the same backpressure a
// bounded ring buffer would.
type frontier struct {
	mode config.Mode
	cap  *semaphore.Weighted

	mu      sync.Mutex
	cond    *sync.Cond
	items   []heap.SnapId
	pending int64 // items pushed but not yet marked done
	closed  bool
}

func newFrontier(mode config.Mode, capacity int64) *frontier {
	f := &frontier{mode: mode, cap: semaphore.NewWeighted(capacity)}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// push adds id to the frontier, blocking if the queue is at capacity.
func (f *frontier) push(ctx context.Context, id heap.SnapId, m *metrics) error {
	if err := f.cap.Acquire(ctx, 1); err != nil {
		return err
	}
	f.mu.Lock()
	f.items = append(f.items, id)
	f.pending++
	f.cond.Broadcast()
	f.mu.Unlock()
	m.queuePushed(ctx)
	return nil
}

// pop removes and returns the next state to explore. BFS mode pops
// from the front (FIFO); DFS mode pops from the back (LIFO), giving a
// single-worker run a depth-first order (internal/liveness runs its
// own nested DFS and does not use this frontier). It blocks until an item is available or the frontier is
// closed (all pending work accounted for, or stop was called), in
// which case ok is false.
func (f *frontier) pop(ctx context.Context, m *metrics) (heap.SnapId, bool) {
	f.mu.Lock()
	for len(f.items) == 0 && !f.closed {
		f.cond.Wait()
	}
	if len(f.items) == 0 {
		f.mu.Unlock()
		return 0, false
	}
	var id heap.SnapId
	if f.mode == config.ModeDFS {
		id = f.items[len(f.items)-1]
		f.items = f.items[:len(f.items)-1]
	} else {
		id = f.items[0]
		f.items = f.items[1:]
	}
	f.mu.Unlock()
	f.cap.Release(1)
	m.queuePopped(ctx)
	return id, true
}

// done marks one previously-popped item's processing (including any
// pushes of its successors) as finished. Once pending reaches zero the
// frontier is closed and all blocked poppers wake with ok=false —
// termination detection for "no more work will ever arrive" (spec §5
// "the join point at search end").
func (f *frontier) done() {
	f.mu.Lock()
	f.pending--
	if f.pending <= 0 {
		f.closed = true
		f.cond.Broadcast()
	}
	f.mu.Unlock()
}

// stop forces the frontier closed immediately (a Listener asked the
// search to terminate, or a worker hit an unrecoverable error).
func (f *frontier) stop() {
	f.mu.Lock()
	f.closed = true
	f.cond.Broadcast()
	f.mu.Unlock()
}
