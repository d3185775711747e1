// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package explore_test

import (
	"testing"

	"github.com/symvm/symvm/internal/explore"
	"github.com/symvm/symvm/internal/fixtures"
	"github.com/symvm/symvm/internal/heap"
)

func TestBootCounter(t *testing.T) {
	prog, err := fixtures.Counter(3)
	if err != nil {
		t.Fatalf("Counter: %v", err)
	}
	table := heap.NewCanonTable()
	id, err := explore.Boot(prog, table, 0)
	if err != nil {
		t.Fatalf("Boot: %v", err)
	}
	if id == 0 {
		t.Fatalf("Boot returned zero SnapId")
	}
}

func TestCounterReachesFixedPoint(t *testing.T) {
	prog, err := fixtures.Counter(2)
	if err != nil {
		t.Fatalf("Counter: %v", err)
	}
	table := heap.NewCanonTable()
	id, err := explore.Boot(prog, table, 0)
	if err != nil {
		t.Fatalf("Boot: %v", err)
	}

	seen := map[heap.SnapId]bool{id: true}
	frontier := []heap.SnapId{id}
	var edgeCount int
	var steps int
	for len(frontier) > 0 && steps < 10 {
		cur := frontier[0]
		frontier = frontier[1:]
		edges, err := explore.Successors(prog, table, 0, cur)
		if err != nil {
			t.Fatalf("Successors: %v", err)
		}
		edgeCount += len(edges)
		for _, e := range edges {
			if e.Fault != nil {
				t.Fatalf("unexpected fault: %v", e.Fault)
			}
			if !seen[e.To] {
				seen[e.To] = true
				frontier = append(frontier, e.To)
			}
		}
		steps++
	}
	// n=2 gives a 3-state chain 2 -> 1 -> 0, 0 being terminal (no
	// Scheduler installed, spec §8 scenario 1): exactly 3 states, 2 edges.
	if len(seen) != 3 {
		t.Fatalf("want exactly 3 states (2,1,0), got %d", len(seen))
	}
	if edgeCount != 2 {
		t.Fatalf("want exactly 2 edges (2->1, 1->0), got %d", edgeCount)
	}
}

func TestBranchForksOnChoice(t *testing.T) {
	prog, err := fixtures.Branch()
	if err != nil {
		t.Fatalf("Branch: %v", err)
	}
	table := heap.NewCanonTable()
	id, err := explore.Boot(prog, table, 0)
	if err != nil {
		t.Fatalf("Boot: %v", err)
	}
	edges, err := explore.Successors(prog, table, 0, id)
	if err != nil {
		t.Fatalf("Successors: %v", err)
	}
	if len(edges) != 2 {
		t.Fatalf("choose(2) branch should produce 2 successors, got %d", len(edges))
	}
	var faulted, clean int
	for _, e := range edges {
		if e.Fault != nil {
			faulted++
		} else {
			clean++
		}
	}
	if faulted != 1 || clean != 1 {
		t.Fatalf("want exactly one faulted and one clean successor, got faulted=%d clean=%d", faulted, clean)
	}
}

func TestNonDetCounterForksAndMerges(t *testing.T) {
	prog, err := fixtures.NonDetCounter(4)
	if err != nil {
		t.Fatalf("NonDetCounter: %v", err)
	}
	table := heap.NewCanonTable()
	id, err := explore.Boot(prog, table, 0)
	if err != nil {
		t.Fatalf("Boot: %v", err)
	}

	seen := map[heap.SnapId]bool{id: true}
	frontier := []heap.SnapId{id}
	var edgeCount int
	var steps int
	for len(frontier) > 0 && steps < 10 {
		cur := frontier[0]
		frontier = frontier[1:]
		edges, err := explore.Successors(prog, table, 0, cur)
		if err != nil {
			t.Fatalf("Successors: %v", err)
		}
		edgeCount += len(edges)
		for _, e := range edges {
			if e.Fault != nil {
				t.Fatalf("unexpected fault: %v", e.Fault)
			}
			if !seen[e.To] {
				seen[e.To] = true
				frontier = append(frontier, e.To)
			}
		}
		steps++
	}
	// spec §8 scenario 2: n=4 gives exactly 5 states ({4,3,2,1,0}, merging
	// by value regardless of which choice path reached them) and exactly
	// 9 edges (4 states each forking two ways, plus 0's single unforked
	// self-loop), all clean.
	if len(seen) != 5 {
		t.Fatalf("want exactly 5 states, got %d", len(seen))
	}
	if edgeCount != 9 {
		t.Fatalf("want exactly 9 edges, got %d", edgeCount)
	}
}

func TestCoopLoopBoundedByTestLoop(t *testing.T) {
	prog, err := fixtures.CoopLoop()
	if err != nil {
		t.Fatalf("CoopLoop: %v", err)
	}
	table := heap.NewCanonTable()
	id, err := explore.Boot(prog, table, 0)
	if err != nil {
		t.Fatalf("Boot: %v", err)
	}
	edges, err := explore.Successors(prog, table, 0, id)
	if err != nil {
		t.Fatalf("Successors: %v (test_loop should stop the spin, not hang)", err)
	}
	// spec §8 scenario 4: exactly 2 states (boot at n=0, terminal at
	// n=2) and 1 edge between them.
	if len(edges) != 1 {
		t.Fatalf("want 1 successor, got %d", len(edges))
	}
	if edges[0].Fault != nil {
		t.Fatalf("unexpected fault: %v", edges[0].Fault)
	}
	if edges[0].To == id {
		t.Fatalf("want the spin to land on a distinct n=2 state, not loop back to boot")
	}
}
