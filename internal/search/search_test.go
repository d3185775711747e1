// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package search_test

import (
	"sync"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/symvm/symvm/internal/config"
	"github.com/symvm/symvm/internal/explore"
	"github.com/symvm/symvm/internal/fixtures"
	"github.com/symvm/symvm/internal/heap"
	"github.com/symvm/symvm/internal/search"
)

// countingListener tallies the distinct states and edges search.Run
// hands it; it never asks the search to stop early.
type countingListener struct {
	mu     sync.Mutex
	states map[heap.SnapId]bool
	edges  int
}

func newCountingListener() *countingListener {
	return &countingListener{states: make(map[heap.SnapId]bool)}
}

func (l *countingListener) State(id heap.SnapId) search.Action {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states[id] = true
	return search.Continue
}

func (l *countingListener) Edge(e explore.Edge) search.Action {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.edges++
	return search.Continue
}

// TestRunExploresForkJoinInterleavings drives a full parallel search
// over the uncapped two-counter fork/join fixture (spec §8 scenario 6)
// with four workers and checks that the run discovers states and edges
// and terminates once cfg.MaxStates is hit rather than running forever,
// reporting no more than MaxStates+1 states.
func TestRunExploresForkJoinInterleavings(t *testing.T) {
	prog, err := fixtures.ForkJoin()
	if err != nil {
		t.Fatalf("ForkJoin: %v", err)
	}
	table := heap.NewCanonTable()

	cfg := config.Default()
	cfg.Workers = 4
	cfg.MaxStates = 25
	meter := sdkmetric.NewMeterProvider().Meter("search_test")

	l := newCountingListener()
	if err := search.Run(prog, table, cfg, l, nil, meter); err != nil {
		t.Fatalf("Run: %v", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.states) == 0 {
		t.Fatalf("Run discovered no states")
	}
	if l.edges == 0 {
		t.Fatalf("Run emitted no edges")
	}
	if int64(len(l.states)) > cfg.MaxStates+1 {
		t.Fatalf("Run discovered %d states, want <= MaxStates+1 (%d)", len(l.states), cfg.MaxStates+1)
	}
}

// TestRunForkJoinWorkerCountIsDeterministic drives the bounded
// fork/join fixture to full exhaustion once with a single worker and
// once with four, and checks the two runs discover exactly the same
// number of states (spec §8 scenario 6: "parallel search with 4
// workers must find the same state count as with 1 worker" —
// canonicalisation, not worker scheduling order, is what decides state
// identity). MaxStates is set well above the fixture's true reachable
// count (9, a 3x3 grid) so the cap itself never triggers and can't
// introduce a worker-count-dependent cutoff race.
func TestRunForkJoinWorkerCountIsDeterministic(t *testing.T) {
	prog, err := fixtures.ForkJoinBounded(2)
	if err != nil {
		t.Fatalf("ForkJoinBounded: %v", err)
	}
	meter := sdkmetric.NewMeterProvider().Meter("search_test")

	cfg1 := config.Default()
	cfg1.Workers = 1
	cfg1.MaxStates = 1000
	l1 := newCountingListener()
	if err := search.Run(prog, heap.NewCanonTable(), cfg1, l1, nil, meter); err != nil {
		t.Fatalf("Run (1 worker): %v", err)
	}

	cfg4 := config.Default()
	cfg4.Workers = 4
	cfg4.MaxStates = 1000
	l4 := newCountingListener()
	if err := search.Run(prog, heap.NewCanonTable(), cfg4, l4, nil, meter); err != nil {
		t.Fatalf("Run (4 workers): %v", err)
	}

	l1.mu.Lock()
	n1 := len(l1.states)
	l1.mu.Unlock()
	l4.mu.Lock()
	n4 := len(l4.states)
	l4.mu.Unlock()

	if n1 != 9 {
		t.Fatalf("want exactly 9 reachable states (A,B in 0..2), got %d", n1)
	}
	if n1 != n4 {
		t.Fatalf("state count depends on worker count: 1 worker found %d, 4 workers found %d", n1, n4)
	}
}

// TestRunExhaustsCounterBeforeMaxStates exercises the simpler, genuinely
// finite Counter fixture (spec §8 scenario 1) end to end through
// search.Run, confirming it finds exactly the 5 states and 4 edges the
// scenario specifies (n=4, halting at zero) well before cfg.MaxStates.
func TestRunExhaustsCounterBeforeMaxStates(t *testing.T) {
	prog, err := fixtures.Counter(4)
	if err != nil {
		t.Fatalf("Counter: %v", err)
	}
	table := heap.NewCanonTable()

	cfg := config.Default()
	cfg.Workers = 2
	cfg.MaxStates = 50

	l := newCountingListener()
	meter := sdkmetric.NewMeterProvider().Meter("search_test")
	if err := search.Run(prog, table, cfg, l, nil, meter); err != nil {
		t.Fatalf("Run: %v", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.states) != 5 {
		t.Fatalf("Counter(4) should find exactly 5 states, got %d", len(l.states))
	}
	if l.edges != 4 {
		t.Fatalf("Counter(4) should find exactly 4 edges, got %d", l.edges)
	}
}
