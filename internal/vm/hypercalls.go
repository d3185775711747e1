// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vm

import (
	"github.com/symvm/symvm/internal/pointer"
	"github.com/symvm/symvm/internal/program"
)

// execHypercall dispatches the fixed hypercall ABI (spec §6): object
// lifecycle (obj_make/obj_free/obj_resize), overlay access
// (peek/poke, spanning the data/tag/taint layers), control-register
// access (ctl_get/ctl_set/ctl_flag),
// non-determinism (choose), fault injection (fault), instrumentation
// (trace), scheduler-loop bounding (test_loop) and preemption hooks
// (interrupt_mem/interrupt_cfl).
//
// Each case reads its integer arguments from instr.HyperInt and its
// operand arguments from instr.A/instr.B, following the flat-struct
// instruction encoding (program.Instruction's doc comment).
func (ctx *Context) execHypercall(fn *program.Function, frame pointer.Pointer, pc program.PC, instr program.Instruction) (StepResult, error) {
	switch instr.Hyper {
	case "obj_make":
		return ctx.hcObjMake(fn, frame, pc, instr)
	case "obj_free":
		return ctx.hcObjFree(fn, frame, pc, instr)
	case "obj_resize":
		return ctx.hcObjResize(fn, frame, pc, instr)
	case "peek":
		return ctx.hcPeek(fn, frame, pc, instr)
	case "poke":
		return ctx.hcPoke(fn, frame, pc, instr)
	case "ctl_get":
		return ctx.hcCtlGet(fn, frame, pc, instr)
	case "ctl_set":
		return ctx.hcCtlSet(fn, frame, pc, instr)
	case "ctl_flag":
		return ctx.hcCtlFlag(fn, frame, pc, instr)
	case "choose":
		return ctx.hcChoose(fn, frame, pc, instr)
	case "fault":
		return ctx.hcFault(fn, frame, pc, instr)
	case "trace":
		ctx.Trace = append(ctx.Trace, instr.Debug)
		return ctx.advance(fn, frame, pc)
	case "test_loop":
		return ctx.hcTestLoop(fn, frame, pc, instr)
	case "interrupt_mem":
		return ctx.hcInterrupt(fn, frame, pc, instr, "mem")
	case "interrupt_cfl":
		return ctx.hcInterrupt(fn, frame, pc, instr, "cfl")
	case "sched_set":
		return ctx.hcSchedSet(fn, frame, pc, instr)
	case "fault_handler_set":
		return ctx.hcFaultHandlerSet(fn, frame, pc, instr)
	}
	return ctx.fault(FaultHypercall, pc, frame, "unknown hypercall %q", instr.Hyper)
}

// hcSchedSet and hcFaultHandlerSet resolve a function name (carried in
// instr.Callee, reusing the call-target field the way test_loop reuses
// it for a loop class) to a Code-tagged pointer and install it as the
// Scheduler/FaultHandler control register. These two hypercalls are
// not part of spec §6's ABI table; they exist because __boot must be
// able to install a Code pointer for a function whose numeric id is
// only assigned by the loader at Build time (program/builder.go sorts
// functions by name), so boot code cannot embed the id as a literal
// immediate the way it can for any other constant.
func (ctx *Context) hcSchedSet(fn *program.Function, frame pointer.Pointer, pc program.PC, instr program.Instruction) (StepResult, error) {
	if instr.Callee == "" {
		// A state committed with no Scheduler installed is terminal
		// (spec §8 scenario 1 "halts at 0"): internal/explore treats a
		// null Scheduler register as "zero successors" rather than
		// re-entering whatever entry point a stale snapshot happened to
		// carry.
		ctx.Regs.Scheduler = pointer.Null
		return ctx.advance(fn, frame, pc)
	}
	id := ctx.Prog.FunctionByName(instr.Callee)
	if id < 0 {
		return ctx.fault(FaultHypercall, pc, frame, "sched_set: unknown function %q", instr.Callee)
	}
	ctx.Regs.Scheduler = pointer.New(uint64(id), 0, pointer.Code)
	return ctx.advance(fn, frame, pc)
}

func (ctx *Context) hcFaultHandlerSet(fn *program.Function, frame pointer.Pointer, pc program.PC, instr program.Instruction) (StepResult, error) {
	id := ctx.Prog.FunctionByName(instr.Callee)
	if id < 0 {
		return ctx.fault(FaultHypercall, pc, frame, "fault_handler_set: unknown function %q", instr.Callee)
	}
	ctx.Regs.FaultHandler = pointer.New(uint64(id), 0, pointer.Code)
	return ctx.advance(fn, frame, pc)
}

func (ctx *Context) hcObjMake(fn *program.Function, frame pointer.Pointer, pc program.PC, instr program.Instruction) (StepResult, error) {
	size := int64(0)
	if len(instr.HyperInt) > 0 {
		size = instr.HyperInt[0]
	}
	tag := pointer.Heap
	if len(instr.HyperInt) > 1 {
		tag = pointer.Tag(instr.HyperInt[1])
	}
	p, err := ctx.Heap.Make(size, tag)
	if err != nil {
		return ctx.fault(FaultMemory, pc, frame, "obj_make: %v", err)
	}
	if err := ctx.storeRegRaw(fn, frame, instr.Dst, ptrVal(p)); err != nil {
		return StepResult{}, err
	}
	return ctx.advance(fn, frame, pc)
}

func (ctx *Context) hcObjFree(fn *program.Function, frame pointer.Pointer, pc program.PC, instr program.Instruction) (StepResult, error) {
	a, err := ctx.resolveOperand(fn, frame, instr.A)
	if err != nil {
		return StepResult{}, err
	}
	if err := ctx.Heap.Free(a.Pointer); err != nil {
		return ctx.fault(FaultMemory, pc, frame, "obj_free: %v", err)
	}
	return ctx.advance(fn, frame, pc)
}

func (ctx *Context) hcObjResize(fn *program.Function, frame pointer.Pointer, pc program.PC, instr program.Instruction) (StepResult, error) {
	a, err := ctx.resolveOperand(fn, frame, instr.A)
	if err != nil {
		return StepResult{}, err
	}
	newSize := int64(0)
	if len(instr.HyperInt) > 0 {
		newSize = instr.HyperInt[0]
	}
	if err := ctx.Heap.Resize(a.Pointer, newSize); err != nil {
		return ctx.fault(FaultMemory, pc, frame, "obj_resize: %v", err)
	}
	return ctx.advance(fn, frame, pc)
}

// Overlay layer selectors for peek/poke (spec §6 "read/write auxiliary
// overlay (e.g. pointer tags, taint bits)"). Layer 0 is the default
// and reads/writes raw heap bytes, the same as Load/Store; layers 1
// and 2 reach past the data plane into the pointer-tag and taint
// planes the internal/overlay package models.
const (
	layerData  = 0
	layerTag   = 1
	layerTaint = 2
)

func (ctx *Context) hcPeek(fn *program.Function, frame pointer.Pointer, pc program.PC, instr program.Instruction) (StepResult, error) {
	a, err := ctx.resolveOperand(fn, frame, instr.A)
	if err != nil {
		return StepResult{}, err
	}
	layer := int64(layerData)
	if len(instr.HyperInt) > 0 {
		layer = instr.HyperInt[0]
	}
	switch layer {
	case layerTag:
		tag, err := ctx.Heap.PeekTag(a.Pointer)
		if err != nil {
			return ctx.fault(FaultMemory, pc, frame, "peek(tag): %v", err)
		}
		return ctx.storeHypercallResult(fn, frame, pc, instr, intVal(int64(tag)))
	case layerTaint:
		tainted, formula := ctx.taintOf(a.Pointer)
		v := intVal(boolToInt(tainted))
		v.Tainted, v.Formula = tainted, formula
		return ctx.storeHypercallResult(fn, frame, pc, instr, v)
	}
	width := int64(8)
	if len(instr.HyperInt) > 1 {
		width = instr.HyperInt[1]
	}
	buf, err := ctx.Heap.Read(a.Pointer, width)
	if err != nil {
		return ctx.fault(FaultMemory, pc, frame, "peek: %v", err)
	}
	var v uint64
	for i := range buf {
		v |= uint64(buf[i]) << (8 * i)
	}
	return ctx.storeHypercallResult(fn, frame, pc, instr, regValue{Bits: v, Pointer: pointer.Pointer(v)})
}

func (ctx *Context) storeHypercallResult(fn *program.Function, frame pointer.Pointer, pc program.PC, instr program.Instruction, v regValue) (StepResult, error) {
	if err := ctx.storeRegRaw(fn, frame, instr.Dst, v); err != nil {
		return StepResult{}, err
	}
	return ctx.advance(fn, frame, pc)
}

func (ctx *Context) hcPoke(fn *program.Function, frame pointer.Pointer, pc program.PC, instr program.Instruction) (StepResult, error) {
	a, err := ctx.resolveOperand(fn, frame, instr.A)
	if err != nil {
		return StepResult{}, err
	}
	b, err := ctx.resolveOperand(fn, frame, instr.B)
	if err != nil {
		return StepResult{}, err
	}
	layer := int64(layerData)
	if len(instr.HyperInt) > 0 {
		layer = instr.HyperInt[0]
	}
	switch layer {
	case layerTag:
		if err := ctx.Heap.PokeTag(a.Pointer, pointer.Tag(b.asInt())); err != nil {
			return ctx.fault(FaultMemory, pc, frame, "poke(tag): %v", err)
		}
		return ctx.advance(fn, frame, pc)
	case layerTaint:
		id, off := a.Pointer.ID(), a.Pointer.Offset()
		if b.asInt() != 0 {
			formula := instr.Debug
			if formula == "" {
				formula = "poke(taint)"
			}
			ctx.Taint.MarkFormula(id, off, formula)
		} else {
			ctx.Taint.Clear(id, off)
		}
		return ctx.advance(fn, frame, pc)
	}
	width := int64(8)
	if len(instr.HyperInt) > 1 {
		width = instr.HyperInt[1]
	}
	buf := make([]byte, width)
	for i := range buf {
		buf[i] = byte(b.Bits >> (8 * i))
	}
	if err := ctx.Heap.Write(a.Pointer, width, buf); err != nil {
		return ctx.fault(FaultMemory, pc, frame, "poke: %v", err)
	}
	return ctx.advance(fn, frame, pc)
}

func (ctx *Context) hcCtlGet(fn *program.Function, frame pointer.Pointer, pc program.PC, instr program.Instruction) (StepResult, error) {
	cr := CR(instr.HyperInt[0])
	v := ctx.Regs.Get(cr)
	if err := ctx.storeRegRaw(fn, frame, instr.Dst, regValue{Bits: v, Pointer: pointer.Pointer(v)}); err != nil {
		return StepResult{}, err
	}
	return ctx.advance(fn, frame, pc)
}

func (ctx *Context) hcCtlSet(fn *program.Function, frame pointer.Pointer, pc program.PC, instr program.Instruction) (StepResult, error) {
	cr := CR(instr.HyperInt[0])
	a, err := ctx.resolveOperand(fn, frame, instr.A)
	if err != nil {
		return StepResult{}, err
	}
	v := a.Bits
	if a.IsPtr {
		v = uint64(a.Pointer)
	}
	old := ctx.Regs.Set(cr, v)
	if err := ctx.storeRegRaw(fn, frame, instr.Dst, regValue{Bits: old, Pointer: pointer.Pointer(old)}); err != nil {
		return StepResult{}, err
	}
	return ctx.advance(fn, frame, pc)
}

// hcCtlFlag atomically tests and sets/clears one bit of Flags, per
// spec §6's "ctl_flag(bit, value) -> old value" contract.
func (ctx *Context) hcCtlFlag(fn *program.Function, frame pointer.Pointer, pc program.PC, instr program.Instruction) (StepResult, error) {
	bit := uint64(1) << uint(instr.HyperInt[0])
	a, err := ctx.resolveOperand(fn, frame, instr.A)
	if err != nil {
		return StepResult{}, err
	}
	old := int64(0)
	if ctx.Regs.Flags&bit != 0 {
		old = 1
	}
	if a.asInt() != 0 {
		ctx.Regs.Flags |= bit
	} else {
		ctx.Regs.Flags &^= bit
	}
	if err := ctx.storeRegRaw(fn, frame, instr.Dst, intVal(old)); err != nil {
		return StepResult{}, err
	}
	return ctx.advance(fn, frame, pc)
}

func (ctx *Context) hcChoose(fn *program.Function, frame pointer.Pointer, pc program.PC, instr program.Instruction) (StepResult, error) {
	n := 2
	if len(instr.HyperInt) > 0 {
		n = int(instr.HyperInt[0])
	}
	if n <= 0 {
		return ctx.fault(FaultHypercall, pc, frame, "choose(%d): non-positive width", n)
	}
	taken := ctx.choose(n)
	if err := ctx.storeRegRaw(fn, frame, instr.Dst, intVal(int64(taken))); err != nil {
		return StepResult{}, err
	}
	return ctx.advance(fn, frame, pc)
}

func (ctx *Context) hcFault(fn *program.Function, frame pointer.Pointer, pc program.PC, instr program.Instruction) (StepResult, error) {
	kind := FaultAssert
	if len(instr.HyperInt) > 0 {
		kind = FaultKind(instr.HyperInt[0])
	}
	msg := instr.Debug
	if msg == "" {
		msg = "guest-raised fault"
	}
	return ctx.fault(kind, pc, frame, "%s", msg)
}

// hcTestLoop implements the scheduler-loop bounding hypercall (spec §6
// "test_loop(class, stop_fn)"): it snapshots the current reachable
// heap as a fingerprint of the context's observable state and, if that
// fingerprint has already been seen for this loop's class, branches to
// a stop block of the calling function instead of letting the caller
// loop again. instr.Callee names the loop class (reusing the
// call-target field, unused by this opcode); instr.Targets[0] is the
// stop block's index in the calling function.
func (ctx *Context) hcTestLoop(fn *program.Function, frame pointer.Pointer, pc program.PC, instr program.Instruction) (StepResult, error) {
	class := instr.Callee
	fp, err := ctx.loopFingerprint()
	if err != nil {
		return StepResult{}, err
	}
	seen := ctx.loopClasses[class]
	if seen == nil {
		seen = make(map[uint64]bool)
		ctx.loopClasses[class] = seen
	}
	if seen[uint64(fp)] && ctx.Regs.Flags&FlagIgnoreLoop == 0 {
		if len(instr.Targets) > 0 {
			return ctx.branch(fn, frame, pc, instr.Targets[0])
		}
		return ctx.fault(FaultControl, pc, frame, "test_loop %q: repeated state with no stop function", class)
	}
	seen[uint64(fp)] = true
	return ctx.advance(fn, frame, pc)
}

func (ctx *Context) loopFingerprint() (uint64, error) {
	id, _, err := ctx.Heap.Snapshot(ctx.Regs.Roots())
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// hcInterrupt implements interrupt_mem/interrupt_cfl: a checkpoint the
// guest scheduler calls between memory accesses or control-flow edges
// where the kernel's cooperative scheduler would be allowed to
// preempt. Unlike DIOS's thread-switching interrupts, this engine has
// no notion of multiple live guest stacks inside one Context — the
// kernel models threads itself, in heap data structures, and drives
// them by calling choose() to decide which one runs next (spec §4.3,
// §6). interrupt_mem/interrupt_cfl therefore only log the checkpoint
// and, when unmasked, flip Flags.Interrupted via a choose(2) so guest
// code can observe "an interrupt would have fired here" without the
// engine performing a non-local stack switch itself.
func (ctx *Context) hcInterrupt(fn *program.Function, frame pointer.Pointer, pc program.PC, instr program.Instruction, kind string) (StepResult, error) {
	ctx.Interrupts = append(ctx.Interrupts, InterruptEntry{Kind: kind, PC: pc, Addr: frame})
	if ctx.Regs.Flags&FlagMask == 0 {
		if ctx.choose(2) == 1 {
			ctx.Regs.Flags |= FlagInterrupted
		} else {
			ctx.Regs.Flags &^= FlagInterrupted
		}
	}
	return ctx.advance(fn, frame, pc)
}
