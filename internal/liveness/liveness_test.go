// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package liveness_test

import (
	"testing"

	"github.com/symvm/symvm/internal/explore"
	"github.com/symvm/symvm/internal/fixtures"
	"github.com/symvm/symvm/internal/heap"
	"github.com/symvm/symvm/internal/liveness"
)

func TestCheckFindsTogglingAcceptingCycle(t *testing.T) {
	prog, err := fixtures.LivenessAB()
	if err != nil {
		t.Fatalf("LivenessAB: %v", err)
	}
	table := heap.NewCanonTable()
	init, err := explore.Boot(prog, table, 0)
	if err != nil {
		t.Fatalf("Boot: %v", err)
	}

	accepting := fixtures.LivenessAccepting(table, 0)
	c := liveness.NewChecker(prog, table, 0, accepting)
	found, err := c.Check(init)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !found {
		t.Fatalf("want an accepting cycle to be found in an A,B,A,B,… toggle, found none")
	}
	// A two-state toggle's lasso is exactly the pair {accepting state,
	// the outer-stack state it closes back to} (spec §8 scenario 5:
	// "A prefix, B accepting loop" reported as A,B,A,B).
	lasso := c.Lasso()
	if len(lasso) != 2 {
		t.Fatalf("want a 2-state lasso witness, got %d: %v", len(lasso), lasso)
	}
}

// TestCheckFindsSelfLoopAcceptingCycle exercises B3, the degenerate
// length-1 accepting cycle: a state whose single successor is itself.
func TestCheckFindsSelfLoopAcceptingCycle(t *testing.T) {
	prog, err := fixtures.SelfLoop()
	if err != nil {
		t.Fatalf("SelfLoop: %v", err)
	}
	table := heap.NewCanonTable()
	init, err := explore.Boot(prog, table, 0)
	if err != nil {
		t.Fatalf("Boot: %v", err)
	}

	accepting := fixtures.SelfLoopAccepting(table, 0)
	c := liveness.NewChecker(prog, table, 0, accepting)
	found, err := c.Check(init)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !found {
		t.Fatalf("want the self-loop to be reported as an accepting cycle")
	}
	lasso := c.Lasso()
	if len(lasso) != 2 || lasso[0] != lasso[1] {
		t.Fatalf("want a self-loop lasso [s, s], got %v", lasso)
	}
}

func TestCheckNoAcceptingCycleOnFixedPoint(t *testing.T) {
	prog, err := fixtures.Counter(1)
	if err != nil {
		t.Fatalf("Counter: %v", err)
	}
	table := heap.NewCanonTable()
	init, err := explore.Boot(prog, table, 0)
	if err != nil {
		t.Fatalf("Boot: %v", err)
	}

	// A predicate that never accepts can never witness a cycle.
	never := func(heap.SnapId) bool { return false }
	c := liveness.NewChecker(prog, table, 0, never)
	found, err := c.Check(init)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if found {
		t.Fatalf("want no accepting cycle when accepting predicate never fires")
	}
}
