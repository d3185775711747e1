// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fixtures builds small, fully self-contained programs via
// internal/program.Builder for the end-to-end scenarios of spec §8.
// Each one is real IR assembled by hand; there is no text syntax or
// front-end involved, since that is explicitly out of scope.
package fixtures

import (
	"github.com/symvm/symvm/internal/heap"
	"github.com/symvm/symvm/internal/program"
	"github.com/symvm/symvm/internal/vm"
)

// stateOffset is the byte offset within the State object every fixture
// below uses for its first tracked counter/value; LivenessAB's
// AcceptingFunc reads it directly.
const stateOffset = 0

// Counter builds the "counter to zero" scenario: __boot allocates a
// state object holding the value n, installs step as the scheduler,
// and step decrements the value by one per invocation; the invocation
// that stores zero (or finds the value already zero) clears the
// Scheduler register, so the zero state is a true terminal state with
// no outgoing edge (spec §8 scenario 1: n=4 gives 5 states, 4 edges).
func Counter(n int64) (*program.Program, error) {
	b := program.NewBuilder()

	boot := b.Func("__boot")
	bState := boot.Reg(program.W64, true)
	bOld := boot.Reg(program.W64, false)
	bEntry := boot.Block("entry")
	boot.Emit(bEntry, program.Instruction{Op: program.OpHypercall, Hyper: "obj_make", HyperInt: []int64{8}, Dst: bState})
	boot.Emit(bEntry, program.Instruction{Op: program.OpStore, A: program.Reg(bState), B: program.ImmInt(n), Width: program.W64, Dst: -1})
	boot.Emit(bEntry, program.Instruction{Op: program.OpHypercall, Hyper: "ctl_set", HyperInt: []int64{int64(vm.CRState)}, A: program.Reg(bState), Dst: bOld})
	boot.Emit(bEntry, program.Instruction{Op: program.OpHypercall, Hyper: "sched_set", Callee: "step", Dst: -1})
	boot.Emit(bEntry, program.Instruction{Op: program.OpRet, A: program.ImmInt(0), Dst: -1})
	b.SetBoot("__boot")

	step := b.Func("step")
	sState := step.Reg(program.W64, true)
	sVal := step.Reg(program.W64, false)
	sPositive := step.Reg(program.W64, false)
	sNewVal := step.Reg(program.W64, false)
	sEntry := step.Block("entry")
	sDec := step.Block("dec")
	sZero := step.Block("zero")
	sDone := step.Block("done")
	step.Emit(sEntry, program.Instruction{Op: program.OpHypercall, Hyper: "ctl_get", HyperInt: []int64{int64(vm.CRState)}, Dst: sState})
	step.Emit(sEntry, program.Instruction{Op: program.OpLoad, A: program.Reg(sState), Width: program.W64, Dst: sVal})
	step.Emit(sEntry, program.Instruction{Op: program.OpICmp, Pred: program.CmpGT, A: program.Reg(sVal), B: program.ImmInt(0), Dst: sPositive})
	step.Emit(sEntry, program.Instruction{Op: program.OpCondBr, A: program.Reg(sPositive), Targets: []int{sDec, sZero}, Dst: -1})
	step.Emit(sDec, program.Instruction{Op: program.OpISub, A: program.Reg(sVal), B: program.ImmInt(1), Dst: sNewVal})
	step.Emit(sDec, program.Instruction{Op: program.OpStore, A: program.Reg(sState), B: program.Reg(sNewVal), Width: program.W64, Dst: -1})
	step.Emit(sDec, program.Instruction{Op: program.OpICmp, Pred: program.CmpGT, A: program.Reg(sNewVal), B: program.ImmInt(0), Dst: sPositive})
	step.Emit(sDec, program.Instruction{Op: program.OpCondBr, A: program.Reg(sPositive), Targets: []int{sDone, sZero}, Dst: -1})
	step.Emit(sZero, program.Instruction{Op: program.OpHypercall, Hyper: "sched_set", Callee: "", Dst: -1})
	step.Emit(sZero, program.Instruction{Op: program.OpRet, A: program.ImmInt(0), Dst: -1})
	step.Emit(sDone, program.Instruction{Op: program.OpRet, A: program.ImmInt(0), Dst: -1})

	return b.Build()
}

// Branch builds a minimal choose(2) fork: one outcome returns
// normally, the other raises a guest Assert fault. Useful on its own
// for exercising a bare fork-with-a-fault-side; see Assert for the
// literal "decrement from 4, assert(x != 0) fails at zero" scenario
// (spec §8 scenario 3).
func Branch() (*program.Program, error) {
	b := program.NewBuilder()

	boot := b.Func("__boot")
	bState := boot.Reg(program.W64, true)
	bOld := boot.Reg(program.W64, false)
	bEntry := boot.Block("entry")
	boot.Emit(bEntry, program.Instruction{Op: program.OpHypercall, Hyper: "obj_make", HyperInt: []int64{8}, Dst: bState})
	boot.Emit(bEntry, program.Instruction{Op: program.OpStore, A: program.Reg(bState), B: program.ImmInt(0), Width: program.W64, Dst: -1})
	boot.Emit(bEntry, program.Instruction{Op: program.OpHypercall, Hyper: "ctl_set", HyperInt: []int64{int64(vm.CRState)}, A: program.Reg(bState), Dst: bOld})
	boot.Emit(bEntry, program.Instruction{Op: program.OpHypercall, Hyper: "sched_set", Callee: "step", Dst: -1})
	boot.Emit(bEntry, program.Instruction{Op: program.OpRet, A: program.ImmInt(0), Dst: -1})
	b.SetBoot("__boot")

	step := b.Func("step")
	sState := step.Reg(program.W64, true)
	sChoice := step.Reg(program.W64, false)
	sEntry := step.Block("entry")
	sBad := step.Block("bad")
	sGood := step.Block("good")
	step.Emit(sEntry, program.Instruction{Op: program.OpHypercall, Hyper: "ctl_get", HyperInt: []int64{int64(vm.CRState)}, Dst: sState})
	step.Emit(sEntry, program.Instruction{Op: program.OpHypercall, Hyper: "choose", HyperInt: []int64{2}, Dst: sChoice})
	step.Emit(sEntry, program.Instruction{Op: program.OpCondBr, A: program.Reg(sChoice), Targets: []int{sBad, sGood}, Dst: -1})
	step.Emit(sBad, program.Instruction{Op: program.OpHypercall, Hyper: "fault", HyperInt: []int64{int64(vm.FaultAssert)}, Debug: "assertion violation", Dst: -1})
	step.Emit(sGood, program.Instruction{Op: program.OpRet, A: program.ImmInt(0), Dst: -1})

	return b.Build()
}

// Assert builds the "assertion violation" scenario: step decrements
// the state value by one per invocation, same as Counter, but instead
// of clearing the Scheduler register on reaching zero it raises a
// guest Assert fault there (assert(x != 0) failing). Starting from
// n=4 the chain 4 -> 3 -> 2 -> 1 -> 0 is exactly 5 states long, the
// last edge carrying the fault (spec §8 scenario 3: trace length 5,
// fault message names the assertion).
func Assert(n int64) (*program.Program, error) {
	b := program.NewBuilder()

	boot := b.Func("__boot")
	bState := boot.Reg(program.W64, true)
	bOld := boot.Reg(program.W64, false)
	bEntry := boot.Block("entry")
	boot.Emit(bEntry, program.Instruction{Op: program.OpHypercall, Hyper: "obj_make", HyperInt: []int64{8}, Dst: bState})
	boot.Emit(bEntry, program.Instruction{Op: program.OpStore, A: program.Reg(bState), B: program.ImmInt(n), Width: program.W64, Dst: -1})
	boot.Emit(bEntry, program.Instruction{Op: program.OpHypercall, Hyper: "ctl_set", HyperInt: []int64{int64(vm.CRState)}, A: program.Reg(bState), Dst: bOld})
	boot.Emit(bEntry, program.Instruction{Op: program.OpHypercall, Hyper: "sched_set", Callee: "step", Dst: -1})
	boot.Emit(bEntry, program.Instruction{Op: program.OpRet, A: program.ImmInt(0), Dst: -1})
	b.SetBoot("__boot")

	step := b.Func("step")
	sState := step.Reg(program.W64, true)
	sVal := step.Reg(program.W64, false)
	sNewVal := step.Reg(program.W64, false)
	sZero := step.Reg(program.W64, false)
	sEntry := step.Block("entry")
	sCheck := step.Block("check")
	sBad := step.Block("bad")
	sGood := step.Block("good")
	step.Emit(sEntry, program.Instruction{Op: program.OpHypercall, Hyper: "ctl_get", HyperInt: []int64{int64(vm.CRState)}, Dst: sState})
	step.Emit(sEntry, program.Instruction{Op: program.OpLoad, A: program.Reg(sState), Width: program.W64, Dst: sVal})
	step.Emit(sEntry, program.Instruction{Op: program.OpISub, A: program.Reg(sVal), B: program.ImmInt(1), Dst: sNewVal})
	step.Emit(sEntry, program.Instruction{Op: program.OpStore, A: program.Reg(sState), B: program.Reg(sNewVal), Width: program.W64, Dst: -1})
	step.Emit(sEntry, program.Instruction{Op: program.OpBr, Targets: []int{sCheck}, Dst: -1})
	step.Emit(sCheck, program.Instruction{Op: program.OpICmp, Pred: program.CmpEQ, A: program.Reg(sNewVal), B: program.ImmInt(0), Dst: sZero})
	step.Emit(sCheck, program.Instruction{Op: program.OpCondBr, A: program.Reg(sZero), Targets: []int{sBad, sGood}, Dst: -1})
	step.Emit(sBad, program.Instruction{Op: program.OpHypercall, Hyper: "fault", HyperInt: []int64{int64(vm.FaultAssert)}, Debug: "assert(x != 0) failed", Dst: -1})
	step.Emit(sGood, program.Instruction{Op: program.OpRet, A: program.ImmInt(0), Dst: -1})

	return b.Build()
}

// NonDetCounter builds the "non-deterministic branching" scenario:
// step reads the value, and while it's positive forks on choose(2) to
// either leave it unchanged or decrement it by one; once it reaches
// zero, step leaves it alone unconditionally (no choose call, hence no
// fork) rather than forking two ways into the same unchanged value.
// Reachable values merge by content as the search proceeds regardless
// of which choice path produced them, so the distinct values {4,3,2,1,0}
// give exactly 5 states; each of 4,3,2,1 forks two ways and 0 is a
// single unforked self-loop, giving exactly 4*2+1 = 9 edges, all clean
// (spec §8 scenario 2: n=4 gives 5 states and 9 edges, Valid).
func NonDetCounter(n int64) (*program.Program, error) {
	b := program.NewBuilder()

	boot := b.Func("__boot")
	bState := boot.Reg(program.W64, true)
	bOld := boot.Reg(program.W64, false)
	bEntry := boot.Block("entry")
	boot.Emit(bEntry, program.Instruction{Op: program.OpHypercall, Hyper: "obj_make", HyperInt: []int64{8}, Dst: bState})
	boot.Emit(bEntry, program.Instruction{Op: program.OpStore, A: program.Reg(bState), B: program.ImmInt(n), Width: program.W64, Dst: -1})
	boot.Emit(bEntry, program.Instruction{Op: program.OpHypercall, Hyper: "ctl_set", HyperInt: []int64{int64(vm.CRState)}, A: program.Reg(bState), Dst: bOld})
	boot.Emit(bEntry, program.Instruction{Op: program.OpHypercall, Hyper: "sched_set", Callee: "step", Dst: -1})
	boot.Emit(bEntry, program.Instruction{Op: program.OpRet, A: program.ImmInt(0), Dst: -1})
	b.SetBoot("__boot")

	step := b.Func("step")
	sState := step.Reg(program.W64, true)
	sVal := step.Reg(program.W64, false)
	sPositive := step.Reg(program.W64, false)
	sChoice := step.Reg(program.W64, false)
	sNewVal := step.Reg(program.W64, false)
	sEntry := step.Block("entry")
	sChooseBlk := step.Block("choose")
	sDec := step.Block("dec")
	sZero := step.Block("zero")
	step.Emit(sEntry, program.Instruction{Op: program.OpHypercall, Hyper: "ctl_get", HyperInt: []int64{int64(vm.CRState)}, Dst: sState})
	step.Emit(sEntry, program.Instruction{Op: program.OpLoad, A: program.Reg(sState), Width: program.W64, Dst: sVal})
	step.Emit(sEntry, program.Instruction{Op: program.OpICmp, Pred: program.CmpGT, A: program.Reg(sVal), B: program.ImmInt(0), Dst: sPositive})
	step.Emit(sEntry, program.Instruction{Op: program.OpCondBr, A: program.Reg(sPositive), Targets: []int{sChooseBlk, sZero}, Dst: -1})
	step.Emit(sChooseBlk, program.Instruction{Op: program.OpHypercall, Hyper: "choose", HyperInt: []int64{2}, Dst: sChoice})
	step.Emit(sChooseBlk, program.Instruction{Op: program.OpCondBr, A: program.Reg(sChoice), Targets: []int{sDec, sZero}, Dst: -1})
	step.Emit(sDec, program.Instruction{Op: program.OpISub, A: program.Reg(sVal), B: program.ImmInt(1), Dst: sNewVal})
	step.Emit(sDec, program.Instruction{Op: program.OpStore, A: program.Reg(sState), B: program.Reg(sNewVal), Width: program.W64, Dst: -1})
	step.Emit(sDec, program.Instruction{Op: program.OpRet, A: program.ImmInt(0), Dst: -1})
	step.Emit(sZero, program.Instruction{Op: program.OpRet, A: program.ImmInt(0), Dst: -1})

	return b.Build()
}

// CoopLoop builds the "cooperative loop" scenario: spin increments a
// counter by one per iteration while it's below 2, then keeps looping
// without touching the heap further; test_loop's fingerprint repeats
// once the counter reaches 2, transferring control to the stop block,
// which clears the Scheduler register, instead of looping forever
// within one Step. Because all of this
// happens inside a single Run (a snapshot only commits once the
// scheduler returns), it produces exactly one edge from the n=0 boot
// state to the n=2 terminal state (spec §8 scenario 4: "increments to
// 2 then loops", 2 states, 1 edge).
func CoopLoop() (*program.Program, error) {
	b := program.NewBuilder()

	boot := b.Func("__boot")
	bState := boot.Reg(program.W64, true)
	bOld := boot.Reg(program.W64, false)
	bEntry := boot.Block("entry")
	boot.Emit(bEntry, program.Instruction{Op: program.OpHypercall, Hyper: "obj_make", HyperInt: []int64{8}, Dst: bState})
	boot.Emit(bEntry, program.Instruction{Op: program.OpStore, A: program.Reg(bState), B: program.ImmInt(0), Width: program.W64, Dst: -1})
	boot.Emit(bEntry, program.Instruction{Op: program.OpHypercall, Hyper: "ctl_set", HyperInt: []int64{int64(vm.CRState)}, A: program.Reg(bState), Dst: bOld})
	boot.Emit(bEntry, program.Instruction{Op: program.OpHypercall, Hyper: "sched_set", Callee: "spin", Dst: -1})
	boot.Emit(bEntry, program.Instruction{Op: program.OpRet, A: program.ImmInt(0), Dst: -1})
	b.SetBoot("__boot")

	spin := b.Func("spin")
	sState := spin.Reg(program.W64, true)
	sVal := spin.Reg(program.W64, false)
	sLess := spin.Reg(program.W64, false)
	sNewVal := spin.Reg(program.W64, false)
	loop := spin.Block("loop")
	incr := spin.Block("incr")
	check := spin.Block("check")
	stop := spin.Block("stop")
	spin.Emit(loop, program.Instruction{Op: program.OpHypercall, Hyper: "ctl_get", HyperInt: []int64{int64(vm.CRState)}, Dst: sState})
	spin.Emit(loop, program.Instruction{Op: program.OpLoad, A: program.Reg(sState), Width: program.W64, Dst: sVal})
	spin.Emit(loop, program.Instruction{Op: program.OpICmp, Pred: program.CmpLT, A: program.Reg(sVal), B: program.ImmInt(2), Dst: sLess})
	spin.Emit(loop, program.Instruction{Op: program.OpCondBr, A: program.Reg(sLess), Targets: []int{incr, check}, Dst: -1})
	spin.Emit(incr, program.Instruction{Op: program.OpIAdd, A: program.Reg(sVal), B: program.ImmInt(1), Dst: sNewVal})
	spin.Emit(incr, program.Instruction{Op: program.OpStore, A: program.Reg(sState), B: program.Reg(sNewVal), Width: program.W64, Dst: -1})
	spin.Emit(incr, program.Instruction{Op: program.OpBr, Targets: []int{check}, Dst: -1})
	spin.Emit(check, program.Instruction{Op: program.OpHypercall, Hyper: "test_loop", Callee: "spin", Targets: []int{stop}, Dst: -1})
	spin.Emit(check, program.Instruction{Op: program.OpBr, Targets: []int{loop}, Dst: -1})
	spin.Emit(stop, program.Instruction{Op: program.OpHypercall, Hyper: "sched_set", Callee: "", Dst: -1})
	spin.Emit(stop, program.Instruction{Op: program.OpRet, A: program.ImmInt(0), Dst: -1})

	return b.Build()
}

// ForkJoin builds the "fork join" scenario: step chooses one of two
// independent counters via choose(2) and increments it by one, so
// search's state-space exploration naturally produces every
// interleaving of the two counters' advancement (spec §8 scenario 6).
// The counters are uncapped; callers bound exploration with
// config.Config.MaxStates or by calling internal/explore.Successors a
// bounded number of times directly.
func ForkJoin() (*program.Program, error) {
	b := program.NewBuilder()

	boot := b.Func("__boot")
	bState := boot.Reg(program.W64, true)
	bOld := boot.Reg(program.W64, false)
	bEntry := boot.Block("entry")
	boot.Emit(bEntry, program.Instruction{Op: program.OpHypercall, Hyper: "obj_make", HyperInt: []int64{16}, Dst: bState})
	boot.Emit(bEntry, program.Instruction{Op: program.OpStore, A: program.Reg(bState), B: program.ImmInt(0), Width: program.W64, Dst: -1})
	boot.Emit(bEntry, program.Instruction{Op: program.OpGEP, A: program.Reg(bState), B: program.ImmInt(8), Dst: bState})
	boot.Emit(bEntry, program.Instruction{Op: program.OpStore, A: program.Reg(bState), B: program.ImmInt(0), Width: program.W64, Dst: -1})
	boot.Emit(bEntry, program.Instruction{Op: program.OpGEP, A: program.Reg(bState), B: program.ImmInt(-8), Dst: bState})
	boot.Emit(bEntry, program.Instruction{Op: program.OpHypercall, Hyper: "ctl_set", HyperInt: []int64{int64(vm.CRState)}, A: program.Reg(bState), Dst: bOld})
	boot.Emit(bEntry, program.Instruction{Op: program.OpHypercall, Hyper: "sched_set", Callee: "step", Dst: -1})
	boot.Emit(bEntry, program.Instruction{Op: program.OpRet, A: program.ImmInt(0), Dst: -1})
	b.SetBoot("__boot")

	step := b.Func("step")
	sState := step.Reg(program.W64, true)
	sChoice := step.Reg(program.W64, false)
	sAddr := step.Reg(program.W64, true)
	sVal := step.Reg(program.W64, false)
	sNewVal := step.Reg(program.W64, false)
	sEntry := step.Block("entry")
	sIncA := step.Block("incA")
	sIncB := step.Block("incB")
	step.Emit(sEntry, program.Instruction{Op: program.OpHypercall, Hyper: "ctl_get", HyperInt: []int64{int64(vm.CRState)}, Dst: sState})
	step.Emit(sEntry, program.Instruction{Op: program.OpHypercall, Hyper: "choose", HyperInt: []int64{2}, Dst: sChoice})
	step.Emit(sEntry, program.Instruction{Op: program.OpCondBr, A: program.Reg(sChoice), Targets: []int{sIncB, sIncA}, Dst: -1})
	step.Emit(sIncA, program.Instruction{Op: program.OpGEP, A: program.Reg(sState), B: program.ImmInt(0), Dst: sAddr})
	step.Emit(sIncA, program.Instruction{Op: program.OpLoad, A: program.Reg(sAddr), Width: program.W64, Dst: sVal})
	step.Emit(sIncA, program.Instruction{Op: program.OpIAdd, A: program.Reg(sVal), B: program.ImmInt(1), Dst: sNewVal})
	step.Emit(sIncA, program.Instruction{Op: program.OpStore, A: program.Reg(sAddr), B: program.Reg(sNewVal), Width: program.W64, Dst: -1})
	step.Emit(sIncA, program.Instruction{Op: program.OpRet, A: program.ImmInt(0), Dst: -1})
	step.Emit(sIncB, program.Instruction{Op: program.OpGEP, A: program.Reg(sState), B: program.ImmInt(8), Dst: sAddr})
	step.Emit(sIncB, program.Instruction{Op: program.OpLoad, A: program.Reg(sAddr), Width: program.W64, Dst: sVal})
	step.Emit(sIncB, program.Instruction{Op: program.OpIAdd, A: program.Reg(sVal), B: program.ImmInt(1), Dst: sNewVal})
	step.Emit(sIncB, program.Instruction{Op: program.OpStore, A: program.Reg(sAddr), B: program.Reg(sNewVal), Width: program.W64, Dst: -1})
	step.Emit(sIncB, program.Instruction{Op: program.OpRet, A: program.ImmInt(0), Dst: -1})

	return b.Build()
}

// ForkJoinBounded is ForkJoin with each counter capped at n: once a
// counter reaches n, choosing to increment it is a no-op self-loop
// instead of advancing further. This makes the reachable state space
// genuinely finite ((n+1)^2 distinct (A,B) pairs, merging by content
// regardless of which interleaving of increments produced them) rather
// than relying on config.Config.MaxStates to cut an unbounded space
// off mid-exploration — the shape a worker-count-independence check
// needs (spec §8 scenario 6), since a MaxStates cutoff can itself land
// on different state counts depending on how many workers raced past
// the threshold in the same instant.
func ForkJoinBounded(n int64) (*program.Program, error) {
	b := program.NewBuilder()

	boot := b.Func("__boot")
	bState := boot.Reg(program.W64, true)
	bOld := boot.Reg(program.W64, false)
	bEntry := boot.Block("entry")
	boot.Emit(bEntry, program.Instruction{Op: program.OpHypercall, Hyper: "obj_make", HyperInt: []int64{16}, Dst: bState})
	boot.Emit(bEntry, program.Instruction{Op: program.OpStore, A: program.Reg(bState), B: program.ImmInt(0), Width: program.W64, Dst: -1})
	boot.Emit(bEntry, program.Instruction{Op: program.OpGEP, A: program.Reg(bState), B: program.ImmInt(8), Dst: bState})
	boot.Emit(bEntry, program.Instruction{Op: program.OpStore, A: program.Reg(bState), B: program.ImmInt(0), Width: program.W64, Dst: -1})
	boot.Emit(bEntry, program.Instruction{Op: program.OpGEP, A: program.Reg(bState), B: program.ImmInt(-8), Dst: bState})
	boot.Emit(bEntry, program.Instruction{Op: program.OpHypercall, Hyper: "ctl_set", HyperInt: []int64{int64(vm.CRState)}, A: program.Reg(bState), Dst: bOld})
	boot.Emit(bEntry, program.Instruction{Op: program.OpHypercall, Hyper: "sched_set", Callee: "step", Dst: -1})
	boot.Emit(bEntry, program.Instruction{Op: program.OpRet, A: program.ImmInt(0), Dst: -1})
	b.SetBoot("__boot")

	step := b.Func("step")
	sState := step.Reg(program.W64, true)
	sChoice := step.Reg(program.W64, false)
	sAddr := step.Reg(program.W64, true)
	sVal := step.Reg(program.W64, false)
	sBelowCap := step.Reg(program.W64, false)
	sNewVal := step.Reg(program.W64, false)
	sEntry := step.Block("entry")
	sIncA := step.Block("incA")
	sIncB := step.Block("incB")
	sCheckA := step.Block("checkA")
	sCheckB := step.Block("checkB")
	sDone := step.Block("done")
	step.Emit(sEntry, program.Instruction{Op: program.OpHypercall, Hyper: "ctl_get", HyperInt: []int64{int64(vm.CRState)}, Dst: sState})
	step.Emit(sEntry, program.Instruction{Op: program.OpHypercall, Hyper: "choose", HyperInt: []int64{2}, Dst: sChoice})
	step.Emit(sEntry, program.Instruction{Op: program.OpCondBr, A: program.Reg(sChoice), Targets: []int{sCheckB, sCheckA}, Dst: -1})
	step.Emit(sCheckA, program.Instruction{Op: program.OpGEP, A: program.Reg(sState), B: program.ImmInt(0), Dst: sAddr})
	step.Emit(sCheckA, program.Instruction{Op: program.OpLoad, A: program.Reg(sAddr), Width: program.W64, Dst: sVal})
	step.Emit(sCheckA, program.Instruction{Op: program.OpICmp, Pred: program.CmpLT, A: program.Reg(sVal), B: program.ImmInt(n), Dst: sBelowCap})
	step.Emit(sCheckA, program.Instruction{Op: program.OpCondBr, A: program.Reg(sBelowCap), Targets: []int{sIncA, sDone}, Dst: -1})
	step.Emit(sIncA, program.Instruction{Op: program.OpIAdd, A: program.Reg(sVal), B: program.ImmInt(1), Dst: sNewVal})
	step.Emit(sIncA, program.Instruction{Op: program.OpStore, A: program.Reg(sAddr), B: program.Reg(sNewVal), Width: program.W64, Dst: -1})
	step.Emit(sIncA, program.Instruction{Op: program.OpRet, A: program.ImmInt(0), Dst: -1})
	step.Emit(sCheckB, program.Instruction{Op: program.OpGEP, A: program.Reg(sState), B: program.ImmInt(8), Dst: sAddr})
	step.Emit(sCheckB, program.Instruction{Op: program.OpLoad, A: program.Reg(sAddr), Width: program.W64, Dst: sVal})
	step.Emit(sCheckB, program.Instruction{Op: program.OpICmp, Pred: program.CmpLT, A: program.Reg(sVal), B: program.ImmInt(n), Dst: sBelowCap})
	step.Emit(sCheckB, program.Instruction{Op: program.OpCondBr, A: program.Reg(sBelowCap), Targets: []int{sIncB, sDone}, Dst: -1})
	step.Emit(sIncB, program.Instruction{Op: program.OpIAdd, A: program.Reg(sVal), B: program.ImmInt(1), Dst: sNewVal})
	step.Emit(sIncB, program.Instruction{Op: program.OpStore, A: program.Reg(sAddr), B: program.Reg(sNewVal), Width: program.W64, Dst: -1})
	step.Emit(sIncB, program.Instruction{Op: program.OpRet, A: program.ImmInt(0), Dst: -1})
	step.Emit(sDone, program.Instruction{Op: program.OpRet, A: program.ImmInt(0), Dst: -1})

	return b.Build()
}

// LivenessAB builds the "accepting cycle" scenario: toggle flips a
// single state value between 0 and 1 forever, giving a two-state cycle
// A,B,A,B,… that a Büchi product accepting B counts as a liveness
// violation (spec §8 scenario 5). This is a length-2 cycle, not a
// self-loop; see SelfLoop for B3.
func LivenessAB() (*program.Program, error) {
	b := program.NewBuilder()

	boot := b.Func("__boot")
	bState := boot.Reg(program.W64, true)
	bOld := boot.Reg(program.W64, false)
	bEntry := boot.Block("entry")
	boot.Emit(bEntry, program.Instruction{Op: program.OpHypercall, Hyper: "obj_make", HyperInt: []int64{8}, Dst: bState})
	boot.Emit(bEntry, program.Instruction{Op: program.OpStore, A: program.Reg(bState), B: program.ImmInt(0), Width: program.W64, Dst: -1})
	boot.Emit(bEntry, program.Instruction{Op: program.OpHypercall, Hyper: "ctl_set", HyperInt: []int64{int64(vm.CRState)}, A: program.Reg(bState), Dst: bOld})
	boot.Emit(bEntry, program.Instruction{Op: program.OpHypercall, Hyper: "sched_set", Callee: "toggle", Dst: -1})
	boot.Emit(bEntry, program.Instruction{Op: program.OpRet, A: program.ImmInt(0), Dst: -1})
	b.SetBoot("__boot")

	toggle := b.Func("toggle")
	tState := toggle.Reg(program.W64, true)
	tVal := toggle.Reg(program.W64, false)
	tNewVal := toggle.Reg(program.W64, false)
	tEntry := toggle.Block("entry")
	toggle.Emit(tEntry, program.Instruction{Op: program.OpHypercall, Hyper: "ctl_get", HyperInt: []int64{int64(vm.CRState)}, Dst: tState})
	toggle.Emit(tEntry, program.Instruction{Op: program.OpLoad, A: program.Reg(tState), Width: program.W64, Dst: tVal})
	toggle.Emit(tEntry, program.Instruction{Op: program.OpISub, A: program.ImmInt(1), B: program.Reg(tVal), Dst: tNewVal})
	toggle.Emit(tEntry, program.Instruction{Op: program.OpStore, A: program.Reg(tState), B: program.Reg(tNewVal), Width: program.W64, Dst: -1})
	toggle.Emit(tEntry, program.Instruction{Op: program.OpRet, A: program.ImmInt(0), Dst: -1})

	return b.Build()
}

// LivenessAccepting returns the AcceptingFunc for LivenessAB: a state
// is accepting when its State object's first word is 1.
func LivenessAccepting(table *heap.CanonTable, maxObj int64) func(heap.SnapId) bool {
	return func(id heap.SnapId) bool {
		h, roots, ok := heap.Restore(table, id, maxObj)
		if !ok {
			return false
		}
		state := roots[3] // Registers.Roots() order: Frame,Globals,Constants,State,...
		buf, err := h.Read(state.WithOffset(stateOffset), 8)
		if err != nil {
			return false
		}
		var v uint64
		for i := range buf {
			v |= uint64(buf[i]) << (8 * i)
		}
		return v == 1
	}
}

// SelfLoop builds a literal length-1 accepting cycle (spec §8 B3): the
// scheduler reads the State object and writes the same value straight
// back, so the heap never changes and canonicalisation assigns the
// successor state the same SnapId as its predecessor — a true
// self-loop edge rather than LivenessAB's length-2 toggle.
func SelfLoop() (*program.Program, error) {
	b := program.NewBuilder()

	boot := b.Func("__boot")
	bState := boot.Reg(program.W64, true)
	bOld := boot.Reg(program.W64, false)
	bEntry := boot.Block("entry")
	boot.Emit(bEntry, program.Instruction{Op: program.OpHypercall, Hyper: "obj_make", HyperInt: []int64{8}, Dst: bState})
	boot.Emit(bEntry, program.Instruction{Op: program.OpStore, A: program.Reg(bState), B: program.ImmInt(1), Width: program.W64, Dst: -1})
	boot.Emit(bEntry, program.Instruction{Op: program.OpHypercall, Hyper: "ctl_set", HyperInt: []int64{int64(vm.CRState)}, A: program.Reg(bState), Dst: bOld})
	boot.Emit(bEntry, program.Instruction{Op: program.OpHypercall, Hyper: "sched_set", Callee: "idle", Dst: -1})
	boot.Emit(bEntry, program.Instruction{Op: program.OpRet, A: program.ImmInt(0), Dst: -1})
	b.SetBoot("__boot")

	idle := b.Func("idle")
	iState := idle.Reg(program.W64, true)
	iVal := idle.Reg(program.W64, false)
	iEntry := idle.Block("entry")
	idle.Emit(iEntry, program.Instruction{Op: program.OpHypercall, Hyper: "ctl_get", HyperInt: []int64{int64(vm.CRState)}, Dst: iState})
	idle.Emit(iEntry, program.Instruction{Op: program.OpLoad, A: program.Reg(iState), Width: program.W64, Dst: iVal})
	idle.Emit(iEntry, program.Instruction{Op: program.OpStore, A: program.Reg(iState), B: program.Reg(iVal), Width: program.W64, Dst: -1})
	idle.Emit(iEntry, program.Instruction{Op: program.OpRet, A: program.ImmInt(0), Dst: -1})

	return b.Build()
}

// SelfLoopAccepting is the AcceptingFunc for SelfLoop: its one
// reachable state is always accepting, since the self-loop itself is
// the liveness violation under test.
func SelfLoopAccepting(*heap.CanonTable, int64) func(heap.SnapId) bool {
	return func(heap.SnapId) bool { return true }
}
