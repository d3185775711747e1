// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package safety implements the VM's safety property listener (spec
// §4.6): it watches the search's edge stream for unabsorbed guest
// faults, and reconstructs a counterexample trace by walking the
// first-discovered parent of each visited state back to the root.
package safety

import (
	"sync"

	"github.com/symvm/symvm/internal/explore"
	"github.com/symvm/symvm/internal/heap"
	"github.com/symvm/symvm/internal/search"
	"github.com/symvm/symvm/internal/vm"
)

// Violation records one safety property failure: the state the fault
// was observed in transitioning into, and the fault itself.
type Violation struct {
	State heap.SnapId
	Fault *vm.Fault
}

// parentOf records, for one state, the first edge search discovered
// that reached it — enough to walk a counterexample back to the root
// (spec §4.6 "counterexample reconstruction").
type parentOf struct {
	from    heap.SnapId
	choices []vm.ChoiceEntry
}

// Listener is a search.Listener that records every state's first
// discovering parent and stops the search the first time an edge
// carries an unabsorbed fault (spec §8 scenario 3, "Assertion
// violation").
//
// StopOnFirst controls whether the first violation ends the search
// (Terminate) or the search keeps exploring to find every reachable
// violation (Continue); the default zero value stops on first, which
// is what a single counterexample-producing `verify` run wants.
type Listener struct {
	StopOnFirst bool

	mu         sync.Mutex
	root       heap.SnapId
	rootSet    bool
	parents    map[heap.SnapId]parentOf
	Violations []Violation
}

// New returns a Listener configured to stop at the first violation.
func New() *Listener {
	return &Listener{
		StopOnFirst: true,
		parents:     make(map[heap.SnapId]parentOf),
	}
}

// State records the first state reported as this run's root (spec
// §4.6: the root is search's initial boot state, the first id a
// Listener ever observes) so Replay has somewhere to stop.
func (l *Listener) State(id heap.SnapId) search.Action {
	l.mu.Lock()
	if !l.rootSet {
		l.root = id
		l.rootSet = true
	}
	l.mu.Unlock()
	return search.Continue
}

// Root returns the search's initial state, as recorded by the first
// State callback.
func (l *Listener) Root() heap.SnapId {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.root
}

func (l *Listener) Edge(e explore.Edge) search.Action {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.parents[e.To]; !ok {
		l.parents[e.To] = parentOf{from: e.From, choices: e.Choices}
	}
	if e.Fault == nil {
		return search.Continue
	}
	l.Violations = append(l.Violations, Violation{State: e.To, Fault: e.Fault})
	if l.StopOnFirst {
		return search.Terminate
	}
	return search.Continue
}

// Trace reconstructs the path of states from the search root to
// target, root first, by walking recorded parents backward.
func (l *Listener) Trace(root, target heap.SnapId) []heap.SnapId {
	l.mu.Lock()
	defer l.mu.Unlock()

	var rev []heap.SnapId
	cur := target
	for {
		rev = append(rev, cur)
		if cur == root {
			break
		}
		p, ok := l.parents[cur]
		if !ok {
			break
		}
		cur = p.from
	}
	trace := make([]heap.SnapId, len(rev))
	for i, id := range rev {
		trace[len(rev)-1-i] = id
	}
	return trace
}

// ReplayStep is one hop of a reconstructed counterexample, paired
// with the forced choice prefix search took the first time it
// discovered To from From. Feeding Prefix to vm.RestoreContext (mode
// ModeReplay) and running the scheduler once reproduces that hop
// deterministically (spec §4.6 "replay each step under
// 'replay-from-log'").
type ReplayStep struct {
	From   heap.SnapId
	To     heap.SnapId
	Prefix []int
}

// Replay reconstructs the same path as Trace, but returns it as a
// sequence of ReplaySteps a caller can feed to vm.RestoreContext +
// Context.Run, one hop at a time, to materialise the concrete frame
// contents of a counterexample (spec §4.6/P5).
func (l *Listener) Replay(root, target heap.SnapId) []ReplayStep {
	l.mu.Lock()
	defer l.mu.Unlock()

	var rev []ReplayStep
	cur := target
	for cur != root {
		p, ok := l.parents[cur]
		if !ok {
			break
		}
		prefix := make([]int, len(p.choices))
		for i, c := range p.choices {
			prefix[i] = c.Taken
		}
		rev = append(rev, ReplayStep{From: p.from, To: cur, Prefix: prefix})
		cur = p.from
	}
	steps := make([]ReplayStep, len(rev))
	for i, s := range rev {
		steps[len(rev)-1-i] = s
	}
	return steps
}
