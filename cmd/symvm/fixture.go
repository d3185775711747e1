// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/symvm/symvm/internal/fixtures"
	"github.com/symvm/symvm/internal/heap"
	"github.com/symvm/symvm/internal/program"
)

// loadFixture resolves one of the repo's built-in example programs by
// name. There is no IR compiler front-end in this repository (out of
// scope, spec §1): internal/program.Loader is the seam a real one
// plugs into, and internal/program/builder.go's in-memory fixtures are
// the only Loader implementation shipped here.
func loadFixture(name string) (*program.Program, func(*heap.CanonTable, int64) func(heap.SnapId) bool, error) {
	switch name {
	case "counter":
		p, err := fixtures.Counter(5)
		return p, nil, err
	case "branch":
		p, err := fixtures.Branch()
		return p, nil, err
	case "assert":
		p, err := fixtures.Assert(4)
		return p, nil, err
	case "nondet":
		p, err := fixtures.NonDetCounter(4)
		return p, nil, err
	case "looper":
		p, err := fixtures.CoopLoop()
		return p, nil, err
	case "forkjoin":
		p, err := fixtures.ForkJoin()
		return p, nil, err
	case "liveness":
		p, err := fixtures.LivenessAB()
		return p, fixtures.LivenessAccepting, err
	case "selfloop":
		p, err := fixtures.SelfLoop()
		return p, fixtures.SelfLoopAccepting, err
	}
	return nil, nil, fmt.Errorf("unknown fixture %q (want one of: counter, branch, assert, nondet, looper, forkjoin, liveness, selfloop)", name)
}
