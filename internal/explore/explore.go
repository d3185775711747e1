// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package explore implements the VM's L3 one-step successor
// enumerator (spec §4.4): booting a program to its initial state, and
// stepping a known state forward by invoking the scheduler once,
// forking at every non-deterministic choice encountered along the way
// by snapshot-and-restore rather than by cloning a live Context.
package explore

import (
	"fmt"
	"strings"

	"github.com/symvm/symvm/internal/heap"
	"github.com/symvm/symvm/internal/program"
	"github.com/symvm/symvm/internal/vm"
)

// Edge is one discovered state transition: the scheduler ran from
// From, taking a specific sequence of non-deterministic choices, and
// settled (or faulted) into To.
type Edge struct {
	From    heap.SnapId
	To      heap.SnapId
	Label   string
	Choices []vm.ChoiceEntry
	Fault   *vm.Fault
}

// Boot constructs the initial state: exports the program's globals and
// constants into a fresh heap, runs __boot to completion, and commits
// the result as the first canonical snapshot (spec §4.4 "Initial
// state").
func Boot(prog *program.Program, table *heap.CanonTable, maxObj int64) (heap.SnapId, error) {
	ctx := vm.NewContext(prog, table, maxObj)
	constants, globals, err := prog.ExportHeap(ctx.Heap)
	if err != nil {
		return 0, fmt.Errorf("explore: export_heap: %w", err)
	}
	ctx.Regs.Constants = constants
	ctx.Regs.Globals = globals
	if err := ctx.EnterFunc(prog.BootFunc); err != nil {
		return 0, fmt.Errorf("explore: enter __boot: %w", err)
	}
	if _, err := ctx.Run(); err != nil {
		return 0, fmt.Errorf("explore: run __boot: %w", err)
	}
	id, err := ctx.Snapshot()
	if err != nil {
		return 0, fmt.Errorf("explore: snapshot boot state: %w", err)
	}
	return id, nil
}

// Successors enumerates every edge leaving `from`: one full scheduler
// invocation per distinct combination of non-deterministic choices
// made along the way (spec §4.4 step 4: "forking is implemented by
// snapshot-and-restore, not by thread cloning"). A run that calls
// choose(n) partway through is re-run from `from` once per remaining
// alternative, each time forcing the prior choices to the values
// already taken and the new one to the untried alternative, until the
// full tree of choices has been visited.
func Successors(prog *program.Program, table *heap.CanonTable, maxObj int64, from heap.SnapId) ([]Edge, error) {
	var edges []Edge
	worklist := [][]int{{}}
	visited := map[string]bool{}
	for len(worklist) > 0 {
		prefix := worklist[0]
		worklist = worklist[1:]
		key := fmt.Sprint(prefix)
		if visited[key] {
			continue
		}
		visited[key] = true

		ctx, res, ok, err := runOnce(prog, table, maxObj, from, prefix)
		if err != nil {
			return nil, err
		}
		if !ok {
			// No Scheduler registered on this snapshot: a terminal state
			// (spec §8 scenario 1 "halts at 0") contributes no edges.
			continue
		}

		for i := len(prefix); i < len(ctx.Choices); i++ {
			entry := ctx.Choices[i]
			for alt := 1; alt < entry.Total; alt++ {
				next := make([]int, i+1)
				copy(next, prefix)
				for j := len(prefix); j < i; j++ {
					next[j] = ctx.Choices[j].Taken
				}
				next[i] = alt
				worklist = append(worklist, next)
			}
		}

		id, err := ctx.Snapshot()
		if err != nil {
			return nil, fmt.Errorf("explore: snapshot successor of %d: %w", from, err)
		}
		edges = append(edges, Edge{
			From:    from,
			To:      id,
			Label:   strings.Join(ctx.Trace, "; "),
			Choices: ctx.Choices,
			Fault:   res.Fault,
		})
	}
	return edges, nil
}

// runOnce restores `from` and runs one scheduler invocation forcing
// prefix. Its bool result reports whether a scheduler was actually
// invoked: a snapshot committed with a null Scheduler register (spec
// §8 scenario 1 "halts at 0") has no further transitions, and runOnce
// reports that rather than trying to enter function id 0.
func runOnce(prog *program.Program, table *heap.CanonTable, maxObj int64, from heap.SnapId, prefix []int) (*vm.Context, vm.StepResult, bool, error) {
	ctx, ok := vm.RestoreContext(prog, table, from, maxObj, prefix)
	if !ok {
		return nil, vm.StepResult{}, false, fmt.Errorf("explore: unknown snapshot %d", from)
	}
	if ctx.Regs.Scheduler.IsNull() {
		return nil, vm.StepResult{}, false, nil
	}
	schedFn := int(ctx.Regs.Scheduler.ID())
	if err := ctx.EnterFunc(schedFn); err != nil {
		return nil, vm.StepResult{}, false, fmt.Errorf("explore: enter scheduler: %w", err)
	}
	res, err := ctx.Run()
	if err != nil {
		return nil, vm.StepResult{}, false, fmt.Errorf("explore: run scheduler: %w", err)
	}
	return ctx, res, true, nil
}
