// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vm_test

import (
	"testing"

	"github.com/symvm/symvm/internal/fixtures"
	"github.com/symvm/symvm/internal/heap"
	"github.com/symvm/symvm/internal/pointer"
	"github.com/symvm/symvm/internal/program"
	"github.com/symvm/symvm/internal/vm"
)

// TestChooseOneNeverForks exercises B1: choose(n<=1) never records a
// choice and always returns 0, so it can never fork the search. The
// program is a __boot that calls choose(1) once and returns.
func TestChooseOneNeverForks(t *testing.T) {
	b := program.NewBuilder()
	boot := b.Func("__boot")
	r := boot.Reg(program.W64, false)
	entry := boot.Block("entry")
	boot.Emit(entry, program.Instruction{Op: program.OpHypercall, Hyper: "choose", HyperInt: []int64{1}, Dst: r})
	boot.Emit(entry, program.Instruction{Op: program.OpRet, A: program.ImmInt(0), Dst: -1})
	b.SetBoot("__boot")
	prog, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	table := heap.NewCanonTable()
	ctx := vm.NewContext(prog, table, 0)
	constants, globals, err := prog.ExportHeap(ctx.Heap)
	if err != nil {
		t.Fatalf("ExportHeap: %v", err)
	}
	ctx.Regs.Constants = constants
	ctx.Regs.Globals = globals
	if err := ctx.EnterFunc(prog.BootFunc); err != nil {
		t.Fatalf("EnterFunc: %v", err)
	}
	if _, err := ctx.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(ctx.Choices) != 0 {
		t.Fatalf("choose(1) must not record a choice, got %d choice log entries", len(ctx.Choices))
	}
}

// TestFaultWithoutHandlerSetsError verifies that a fault raised with no
// FaultHandler installed sets Flags.Error rather than being absorbed.
func TestFaultWithoutHandlerSetsError(t *testing.T) {
	prog, err := fixtures.Branch()
	if err != nil {
		t.Fatalf("Branch: %v", err)
	}
	table := heap.NewCanonTable()

	// Drive the scheduler directly, forcing the choice that reaches the
	// fault branch, to exercise Step/Run's fault path without going
	// through internal/explore.
	ctx := vm.NewContext(prog, table, 0)
	constants, globals, err := prog.ExportHeap(ctx.Heap)
	if err != nil {
		t.Fatalf("ExportHeap: %v", err)
	}
	ctx.Regs.Constants = constants
	ctx.Regs.Globals = globals
	if err := ctx.EnterFunc(prog.BootFunc); err != nil {
		t.Fatalf("EnterFunc boot: %v", err)
	}
	if _, err := ctx.Run(); err != nil {
		t.Fatalf("Run boot: %v", err)
	}

	schedFn := int(ctx.Regs.Scheduler.ID())
	ctx.Mode = vm.ModeReplay
	ctx.Prefix = []int{1} // force the choose(2) to take the fault branch
	if err := ctx.EnterFunc(schedFn); err != nil {
		t.Fatalf("EnterFunc step: %v", err)
	}
	res, err := ctx.Run()
	if err != nil {
		t.Fatalf("Run step: %v", err)
	}
	if res.Kind != vm.Faulted {
		t.Fatalf("want Faulted, got %v", res.Kind)
	}
	if res.Fault == nil || res.Fault.Kind != vm.FaultAssert {
		t.Fatalf("want a FaultAssert, got %+v", res.Fault)
	}
	if ctx.Regs.Flags&vm.FlagError == 0 {
		t.Fatalf("want Flags.Error set after an unabsorbed fault")
	}
}

// TestObjMakeZeroFaultsOnDereference exercises B2 at the heap level
// that obj_make allocates through: making a zero-size object succeeds
// (there is nothing wrong with a zero-size object), but a 1-byte Read
// through the pointer it returns is out of bounds and fails.
func TestObjMakeZeroFaultsOnDereference(t *testing.T) {
	table := heap.NewCanonTable()
	ctx := vm.NewContext(nil, table, 0)

	p, err := ctx.Heap.Make(0, pointer.Heap)
	if err != nil {
		t.Fatalf("Make(0, ...): %v", err)
	}
	if _, err := ctx.Heap.Read(p, 1); err == nil {
		t.Fatalf("Read(1 byte) on a zero-size object succeeded, want a Memory fault")
	}
}

// TestReplayDeterminism exercises P3/L2: replaying the same choice
// prefix against the same boot snapshot always takes the same branch
// and produces the same StepResult, whether replayed once or many
// times.
func TestReplayDeterminism(t *testing.T) {
	prog, err := fixtures.Branch()
	if err != nil {
		t.Fatalf("Branch: %v", err)
	}
	table := heap.NewCanonTable()

	boot := vm.NewContext(prog, table, 0)
	constants, globals, err := prog.ExportHeap(boot.Heap)
	if err != nil {
		t.Fatalf("ExportHeap: %v", err)
	}
	boot.Regs.Constants = constants
	boot.Regs.Globals = globals
	if err := boot.EnterFunc(prog.BootFunc); err != nil {
		t.Fatalf("EnterFunc boot: %v", err)
	}
	if _, err := boot.Run(); err != nil {
		t.Fatalf("Run boot: %v", err)
	}
	init, _, err := boot.Heap.Snapshot(boot.Regs.Roots())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	schedFn := int(boot.Regs.Scheduler.ID())

	replay := func(prefix []int) (vm.StepResult, error) {
		ctx, ok := vm.RestoreContext(prog, table, init, 0, prefix)
		if !ok {
			t.Fatalf("RestoreContext(%d): snapshot not found", init)
		}
		if err := ctx.EnterFunc(schedFn); err != nil {
			return vm.StepResult{}, err
		}
		return ctx.Run()
	}

	for _, prefix := range [][]int{{0}, {1}} {
		want, err := replay(prefix)
		if err != nil {
			t.Fatalf("replay(%v): %v", prefix, err)
		}
		for i := 0; i < 3; i++ {
			got, err := replay(prefix)
			if err != nil {
				t.Fatalf("replay(%v) retry %d: %v", prefix, i, err)
			}
			if got.Kind != want.Kind {
				t.Fatalf("replay(%v) retry %d: Kind = %v, want %v", prefix, i, got.Kind, want.Kind)
			}
			gotFault, wantFault := got.Fault != nil, want.Fault != nil
			if gotFault != wantFault {
				t.Fatalf("replay(%v) retry %d: Fault presence = %v, want %v", prefix, i, gotFault, wantFault)
			}
			if gotFault && got.Fault.Kind != want.Fault.Kind {
				t.Fatalf("replay(%v) retry %d: Fault.Kind = %v, want %v", prefix, i, got.Fault.Kind, want.Fault.Kind)
			}
		}
	}
}
