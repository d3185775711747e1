// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vm

import (
	"errors"
	"fmt"
	"math"

	"github.com/symvm/symvm/internal/overlay"
	"github.com/symvm/symvm/internal/pointer"
	"github.com/symvm/symvm/internal/pool"
	"github.com/symvm/symvm/internal/program"
)

// regValue is a decoded register/operand value: either a raw 64-bit
// word (reinterpreted as signed int or IEEE-754 float by the
// instruction's Width/Float fields) or a tagged pointer. Tainted and
// Formula carry the symbolic-overlay bit (spec §4.8): a value read
// from a byte range Taint.IsTainted marks it, and Formula is the
// opaque constraint text a subsequent branch on it contributes to
// Context.Path.
type regValue struct {
	Bits    uint64
	IsPtr   bool
	Pointer pointer.Pointer

	Tainted bool
	Formula string
}

func intVal(v int64) regValue   { return regValue{Bits: uint64(v)} }
func floatVal(f float64) regValue { return regValue{Bits: math.Float64bits(f)} }
func ptrVal(p pointer.Pointer) regValue { return regValue{IsPtr: true, Pointer: p} }

func (v regValue) asInt() int64     { return int64(v.Bits) }
func (v regValue) asFloat() float64 { return math.Float64frombits(v.Bits) }

// loadReg reads the current value of a function-local register out of
// its frame object.
func (ctx *Context) loadReg(fn *program.Function, frame pointer.Pointer, reg int) (regValue, error) {
	r := fn.Registers[reg]
	addr := frame.WithOffset(fn.RegisterOffset(reg))
	tainted, formula := ctx.taintOf(addr)
	if r.IsPointer {
		p, err := ctx.Heap.ReadPointer(addr)
		if err != nil {
			return regValue{}, err
		}
		v := ptrVal(p)
		v.Tainted, v.Formula = tainted, formula
		return v, nil
	}
	buf, err := ctx.Heap.Read(addr, int64(r.Width))
	if err != nil {
		return regValue{}, err
	}
	var v uint64
	for i := range buf {
		v |= uint64(buf[i]) << (8 * i)
	}
	return regValue{Bits: v, Tainted: tainted, Formula: formula}, nil
}

// taintOf reports whether the byte at addr is marked symbolic (spec
// §4.8) and, if so, the formula text recorded for it (best effort:
// only the most recent poke's formula for that byte is kept).
func (ctx *Context) taintOf(addr pointer.Pointer) (bool, string) {
	id, off := addr.ID(), addr.Offset()
	if !ctx.Taint.IsTainted(id, off) {
		return false, ""
	}
	formula, _ := ctx.Taint.Formula(id, off)
	return true, formula
}

func (ctx *Context) storeRegRaw(fn *program.Function, frame pointer.Pointer, reg int, v regValue) error {
	r := fn.Registers[reg]
	addr := frame.WithOffset(fn.RegisterOffset(reg))
	ctx.storeTaint(addr, v)
	if r.IsPointer || v.IsPtr {
		return ctx.Heap.WritePointer(addr, v.Pointer)
	}
	buf := make([]byte, r.Width)
	for i := range buf {
		buf[i] = byte(v.Bits >> (8 * i))
	}
	return ctx.Heap.Write(addr, int64(r.Width), buf)
}

// storeTaint mirrors a regValue's taint bit into Context.Taint at
// addr's base offset so a later loadReg from the same slot observes
// it (spec §4.8): storing a tainted value marks the byte, storing a
// concrete one clears any taint left over from a previous tenant of
// that register slot.
func (ctx *Context) storeTaint(addr pointer.Pointer, v regValue) {
	id, off := addr.ID(), addr.Offset()
	if v.Tainted {
		ctx.Taint.MarkFormula(id, off, v.Formula)
	} else {
		ctx.Taint.Clear(id, off)
	}
}

func (ctx *Context) globalAddr(name string) (regValue, error) {
	if p := ctx.Prog.GlobalAddr(name); !p.IsNull() {
		return ptrVal(ctx.Regs.Globals.WithOffset(ctx.Prog.GlobalOffsets[p.ID()])), nil
	}
	if p := ctx.Prog.ConstAddr(name); !p.IsNull() {
		return ptrVal(ctx.Regs.Constants.WithOffset(ctx.Prog.ConstOffsets[p.ID()])), nil
	}
	return regValue{}, fmt.Errorf("vm: unknown global/constant %q", name)
}

func (ctx *Context) resolveOperand(fn *program.Function, frame pointer.Pointer, op program.Operand) (regValue, error) {
	switch op.Kind {
	case program.OperandReg:
		return ctx.loadReg(fn, frame, op.Reg)
	case program.OperandImmInt:
		return intVal(op.Int), nil
	case program.OperandImmFloat:
		return floatVal(op.Float), nil
	case program.OperandGlobal:
		return ctx.globalAddr(op.Name)
	}
	return regValue{}, fmt.Errorf("vm: unknown operand kind %d", op.Kind)
}

// memFault maps a pool-level sentinel error into the guest Memory fault
// (spec §4.1: "dereferencing past an object's end… faults with Memory").
func memFault(err error) (FaultKind, bool) {
	switch err {
	case pool.ErrInvalidPointer, pool.ErrOutOfBounds, pool.ErrMisaligned, pool.ErrUseAfterFree:
		return FaultMemory, true
	case pool.ErrOOM:
		return FaultMemory, true
	}
	return 0, false
}

// Step executes exactly one IR instruction at the current Frame/pc and
// reports its outcome (spec §4.3). Step never panics on guest-caused
// conditions (bad pointer, divide by zero, …); those become a
// StepResult{Kind: Faulted}, absorbed by FaultHandler when one is
// installed and Flags.IgnoreFault is clear, otherwise setting
// Flags.Error and returning to the caller.
func (ctx *Context) Step() (StepResult, error) {
	if ctx.Regs.Frame.IsNull() {
		return StepResult{Kind: Halted}, nil
	}
	pc, err := ctx.readPC(ctx.Regs.Frame)
	if err != nil {
		return StepResult{}, err
	}
	fn, err := ctx.Prog.Function(pc.Func)
	if err != nil {
		return StepResult{}, err
	}
	instr := ctx.Prog.Instruction(pc)
	frame := ctx.Regs.Frame

	res, err := ctx.exec(fn, frame, pc, instr)
	if err != nil {
		return StepResult{}, err
	}
	ctx.InstrCount++
	return res, nil
}

// Run steps until Frame becomes null (Halted), an unabsorbed fault sets
// Flags.Error, or Flags.Stop/Cancel is set (search cutoff, spec §6
// ctl_flag).
func (ctx *Context) Run() (StepResult, error) {
	for {
		if ctx.Regs.Frame.IsNull() {
			return StepResult{Kind: Halted}, nil
		}
		if ctx.Regs.Flags&(FlagStop|FlagCancel) != 0 {
			return StepResult{Kind: Halted}, nil
		}
		res, err := ctx.Step()
		if err != nil {
			return StepResult{}, err
		}
		if res.Kind == Faulted && ctx.Regs.Flags&FlagError != 0 {
			return res, nil
		}
	}
}

func (ctx *Context) fault(kind FaultKind, pc program.PC, frame pointer.Pointer, format string, args ...interface{}) (StepResult, error) {
	f := &Fault{Kind: kind, PC: pc, Frame: frame, Msg: fmt.Sprintf(format, args...)}
	if ctx.Regs.Flags&FlagIgnoreFault == 0 && !ctx.Regs.FaultHandler.IsNull() {
		handlerID := int(ctx.Regs.FaultHandler.ID())
		hfn, err := ctx.Prog.Function(handlerID)
		if err != nil {
			return StepResult{}, err
		}
		newFrame, err := ctx.pushFrame(hfn, handlerID, []regValue{intVal(int64(kind))})
		if err != nil {
			return StepResult{}, err
		}
		ctx.Regs.Frame = newFrame
		return StepResult{Kind: Faulted, Fault: f}, nil
	}
	ctx.Regs.Flags |= FlagError | FlagCancel
	return StepResult{Kind: Faulted, Fault: f}, nil
}

func (ctx *Context) exec(fn *program.Function, frame pointer.Pointer, pc program.PC, instr program.Instruction) (StepResult, error) {
	switch instr.Op {
	case program.OpNop:
		return ctx.advance(fn, frame, pc)

	case program.OpIAdd, program.OpISub, program.OpIMul, program.OpIDiv, program.OpIMod,
		program.OpAnd, program.OpOr, program.OpXor, program.OpShl, program.OpShr:
		return ctx.execIntBinOp(fn, frame, pc, instr)

	case program.OpNot:
		a, err := ctx.resolveOperand(fn, frame, instr.A)
		if err != nil {
			return StepResult{}, err
		}
		if err := ctx.storeRegRaw(fn, frame, instr.Dst, intVal(^a.asInt())); err != nil {
			return StepResult{}, err
		}
		return ctx.advance(fn, frame, pc)

	case program.OpFAdd, program.OpFSub, program.OpFMul, program.OpFDiv:
		return ctx.execFloatBinOp(fn, frame, pc, instr)

	case program.OpICmp:
		return ctx.execICmp(fn, frame, pc, instr)

	case program.OpFCmp:
		return ctx.execFCmp(fn, frame, pc, instr)

	case program.OpAlloca:
		a, err := ctx.resolveOperand(fn, frame, instr.A)
		if err != nil {
			return StepResult{}, err
		}
		p, err := ctx.Heap.Make(a.asInt(), pointer.Heap)
		if err != nil {
			return ctx.fault(FaultMemory, pc, frame, "alloca: %v", err)
		}
		if err := ctx.storeRegRaw(fn, frame, instr.Dst, ptrVal(p)); err != nil {
			return StepResult{}, err
		}
		return ctx.advance(fn, frame, pc)

	case program.OpLoad:
		return ctx.execLoad(fn, frame, pc, instr)

	case program.OpStore:
		return ctx.execStore(fn, frame, pc, instr)

	case program.OpGEP:
		a, err := ctx.resolveOperand(fn, frame, instr.A)
		if err != nil {
			return StepResult{}, err
		}
		b, err := ctx.resolveOperand(fn, frame, instr.B)
		if err != nil {
			return StepResult{}, err
		}
		if err := ctx.storeRegRaw(fn, frame, instr.Dst, ptrVal(a.Pointer.WithOffset(b.asInt()))); err != nil {
			return StepResult{}, err
		}
		return ctx.advance(fn, frame, pc)

	case program.OpBr:
		return ctx.branch(fn, frame, pc, instr.Targets[0])

	case program.OpCondBr:
		a, err := ctx.resolveOperand(fn, frame, instr.A)
		if err != nil {
			return StepResult{}, err
		}
		if a.Tainted {
			return ctx.branchSymbolic(fn, frame, pc, instr, a)
		}
		if a.asInt() != 0 {
			return ctx.branch(fn, frame, pc, instr.Targets[0])
		}
		return ctx.branch(fn, frame, pc, instr.Targets[1])

	case program.OpSwitch:
		a, err := ctx.resolveOperand(fn, frame, instr.A)
		if err != nil {
			return StepResult{}, err
		}
		if blk, ok := instr.Cases[a.asInt()]; ok {
			return ctx.branch(fn, frame, pc, blk)
		}
		return ctx.branch(fn, frame, pc, instr.Default)

	case program.OpRet:
		return ctx.execRet(fn, frame, pc, instr)

	case program.OpCall:
		return ctx.execCall(fn, frame, pc, instr, -1)

	case program.OpInvoke:
		return ctx.execCall(fn, frame, pc, instr, instr.EHPad)

	case program.OpHypercall:
		return ctx.execHypercall(fn, frame, pc, instr)
	}
	return ctx.fault(FaultNotImplemented, pc, frame, "unhandled opcode %s", instr.Op)
}

func (ctx *Context) advance(fn *program.Function, frame pointer.Pointer, pc program.PC) (StepResult, error) {
	next, ok := ctx.Prog.NextPC(pc)
	if !ok {
		return StepResult{}, fmt.Errorf("vm: %s: fell off end of block %d with non-terminator instruction", fn.Name, pc.Block)
	}
	if err := ctx.writePC(frame, next); err != nil {
		return StepResult{}, err
	}
	return StepResult{Kind: Continued}, nil
}

func (ctx *Context) branch(fn *program.Function, frame pointer.Pointer, pc program.PC, block int) (StepResult, error) {
	if err := ctx.writePC(frame, ctx.Prog.Advance(pc.Func, block)); err != nil {
		return StepResult{}, err
	}
	return StepResult{Kind: Continued}, nil
}

// branchSymbolic implements spec §4.8's pruning discipline for a
// CondBr whose predicate is tainted: it queries the Oracle once for
// the true side and once for the false side of the comparison before
// committing to either. A side the Oracle reports infeasible is
// pruned — never explored, never offered as a choice. When both sides
// are feasible the branch forks exactly like a guest choose(2): it
// records a ChoiceEntry, so Explore's existing choice-prefix worklist
// enumerates both outcomes the same way it enumerates an explicit
// choose() call.
func (ctx *Context) branchSymbolic(fn *program.Function, frame pointer.Pointer, pc program.PC, instr program.Instruction, pred regValue) (StepResult, error) {
	trueOK, trueConstraint, err := ctx.feasible(pred.Formula, true)
	if err != nil {
		return StepResult{}, err
	}
	falseOK, falseConstraint, err := ctx.feasible(pred.Formula, false)
	if err != nil {
		return StepResult{}, err
	}
	switch {
	case trueOK && falseOK:
		if ctx.choose(2) == 0 {
			ctx.Path = append(ctx.Path, trueConstraint)
			return ctx.branch(fn, frame, pc, instr.Targets[0])
		}
		ctx.Path = append(ctx.Path, falseConstraint)
		return ctx.branch(fn, frame, pc, instr.Targets[1])
	case trueOK:
		ctx.Path = append(ctx.Path, trueConstraint)
		return ctx.branch(fn, frame, pc, instr.Targets[0])
	case falseOK:
		ctx.Path = append(ctx.Path, falseConstraint)
		return ctx.branch(fn, frame, pc, instr.Targets[1])
	default:
		return ctx.fault(FaultHypercall, pc, frame, "symbolic branch: both sides infeasible")
	}
}

// feasible asks Oracle whether Context.Path, extended with one more
// constraint for the given side of a tainted comparison, is
// satisfiable, returning that constraint for the caller to commit to
// Context.Path if it ends up taking this side. ErrSolverUnknown is
// treated as feasible per spec §4.8's pruning discipline: an oracle
// that cannot decide must never cause a reachable state to be pruned.
func (ctx *Context) feasible(formula string, side bool) (bool, overlay.Constraint, error) {
	c := overlay.Constraint{Formula: fmt.Sprintf("%s == %v", formula, side)}
	path := make([]overlay.Constraint, len(ctx.Path)+1)
	copy(path, ctx.Path)
	path[len(ctx.Path)] = c
	ok, err := ctx.Oracle.Feasible(path)
	if err != nil {
		if errors.Is(err, overlay.ErrSolverUnknown) {
			return true, c, nil
		}
		return false, c, err
	}
	return ok, c, nil
}

func (ctx *Context) execIntBinOp(fn *program.Function, frame pointer.Pointer, pc program.PC, instr program.Instruction) (StepResult, error) {
	a, err := ctx.resolveOperand(fn, frame, instr.A)
	if err != nil {
		return StepResult{}, err
	}
	b, err := ctx.resolveOperand(fn, frame, instr.B)
	if err != nil {
		return StepResult{}, err
	}
	x, y := a.asInt(), b.asInt()
	var r int64
	switch instr.Op {
	case program.OpIAdd:
		r = x + y
	case program.OpISub:
		r = x - y
	case program.OpIMul:
		r = x * y
	case program.OpIDiv:
		if y == 0 {
			return ctx.fault(FaultInteger, pc, frame, "division by zero")
		}
		r = x / y
	case program.OpIMod:
		if y == 0 {
			return ctx.fault(FaultInteger, pc, frame, "modulo by zero")
		}
		r = x % y
	case program.OpAnd:
		r = x & y
	case program.OpOr:
		r = x | y
	case program.OpXor:
		r = x ^ y
	case program.OpShl:
		r = x << uint64(y)
	case program.OpShr:
		r = x >> uint64(y)
	}
	if err := ctx.storeRegRaw(fn, frame, instr.Dst, intVal(r)); err != nil {
		return StepResult{}, err
	}
	return ctx.advance(fn, frame, pc)
}

func (ctx *Context) execFloatBinOp(fn *program.Function, frame pointer.Pointer, pc program.PC, instr program.Instruction) (StepResult, error) {
	a, err := ctx.resolveOperand(fn, frame, instr.A)
	if err != nil {
		return StepResult{}, err
	}
	b, err := ctx.resolveOperand(fn, frame, instr.B)
	if err != nil {
		return StepResult{}, err
	}
	x, y := a.asFloat(), b.asFloat()
	var r float64
	switch instr.Op {
	case program.OpFAdd:
		r = x + y
	case program.OpFSub:
		r = x - y
	case program.OpFMul:
		r = x * y
	case program.OpFDiv:
		r = x / y
	}
	if math.IsNaN(r) {
		return ctx.fault(FaultFloat, pc, frame, "operation produced NaN")
	}
	if err := ctx.storeRegRaw(fn, frame, instr.Dst, floatVal(r)); err != nil {
		return StepResult{}, err
	}
	return ctx.advance(fn, frame, pc)
}

func (ctx *Context) execICmp(fn *program.Function, frame pointer.Pointer, pc program.PC, instr program.Instruction) (StepResult, error) {
	a, err := ctx.resolveOperand(fn, frame, instr.A)
	if err != nil {
		return StepResult{}, err
	}
	b, err := ctx.resolveOperand(fn, frame, instr.B)
	if err != nil {
		return StepResult{}, err
	}
	x, y := a.asInt(), b.asInt()
	var r bool
	switch instr.Pred {
	case program.CmpEQ:
		r = x == y
	case program.CmpNE:
		r = x != y
	case program.CmpLT:
		r = x < y
	case program.CmpLE:
		r = x <= y
	case program.CmpGT:
		r = x > y
	case program.CmpGE:
		r = x >= y
	}
	result := intVal(boolToInt(r))
	if a.Tainted || b.Tainted {
		// Spec §4.8: a comparison over a tainted operand produces a
		// tainted result carrying the (opaque) formula text a later
		// branch needs to query the Oracle with.
		result.Tainted = true
		result.Formula = fmt.Sprintf("icmp pred=%d %d %d", instr.Pred, x, y)
	}
	if err := ctx.storeRegRaw(fn, frame, instr.Dst, result); err != nil {
		return StepResult{}, err
	}
	return ctx.advance(fn, frame, pc)
}

func (ctx *Context) execFCmp(fn *program.Function, frame pointer.Pointer, pc program.PC, instr program.Instruction) (StepResult, error) {
	a, err := ctx.resolveOperand(fn, frame, instr.A)
	if err != nil {
		return StepResult{}, err
	}
	b, err := ctx.resolveOperand(fn, frame, instr.B)
	if err != nil {
		return StepResult{}, err
	}
	x, y := a.asFloat(), b.asFloat()
	// NaN comparisons evaluate "unordered" (false for every predicate
	// except NE) rather than faulting.
	var r bool
	if math.IsNaN(x) || math.IsNaN(y) {
		r = instr.Pred == program.CmpNE
	} else {
		switch instr.Pred {
		case program.CmpEQ:
			r = x == y
		case program.CmpNE:
			r = x != y
		case program.CmpLT:
			r = x < y
		case program.CmpLE:
			r = x <= y
		case program.CmpGT:
			r = x > y
		case program.CmpGE:
			r = x >= y
		}
	}
	if err := ctx.storeRegRaw(fn, frame, instr.Dst, intVal(boolToInt(r))); err != nil {
		return StepResult{}, err
	}
	return ctx.advance(fn, frame, pc)
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (ctx *Context) execLoad(fn *program.Function, frame pointer.Pointer, pc program.PC, instr program.Instruction) (StepResult, error) {
	a, err := ctx.resolveOperand(fn, frame, instr.A)
	if err != nil {
		return StepResult{}, err
	}
	if err := pool.CheckAlignment(a.Pointer.Offset(), int64(instr.Width)); err != nil {
		return ctx.fault(FaultMemory, pc, frame, "misaligned load at %s", a.Pointer)
	}
	dst := fn.Registers[instr.Dst]
	if dst.IsPointer {
		p, err := ctx.Heap.ReadPointer(a.Pointer)
		if err != nil {
			if _, ok := memFault(err); ok {
				return ctx.fault(FaultMemory, pc, frame, "load %s: %v", a.Pointer, err)
			}
			return StepResult{}, err
		}
		if err := ctx.storeRegRaw(fn, frame, instr.Dst, ptrVal(p)); err != nil {
			return StepResult{}, err
		}
		return ctx.advance(fn, frame, pc)
	}
	buf, err := ctx.Heap.Read(a.Pointer, int64(instr.Width))
	if err != nil {
		if _, ok := memFault(err); ok {
			return ctx.fault(FaultMemory, pc, frame, "load %s: %v", a.Pointer, err)
		}
		return StepResult{}, err
	}
	var v uint64
	for i := range buf {
		v |= uint64(buf[i]) << (8 * i)
	}
	if err := ctx.storeRegRaw(fn, frame, instr.Dst, regValue{Bits: v}); err != nil {
		return StepResult{}, err
	}
	return ctx.advance(fn, frame, pc)
}

func (ctx *Context) execStore(fn *program.Function, frame pointer.Pointer, pc program.PC, instr program.Instruction) (StepResult, error) {
	a, err := ctx.resolveOperand(fn, frame, instr.A) // address
	if err != nil {
		return StepResult{}, err
	}
	b, err := ctx.resolveOperand(fn, frame, instr.B) // value
	if err != nil {
		return StepResult{}, err
	}
	if err := pool.CheckAlignment(a.Pointer.Offset(), int64(instr.Width)); err != nil {
		return ctx.fault(FaultMemory, pc, frame, "misaligned store at %s", a.Pointer)
	}
	if b.IsPtr {
		if err := ctx.Heap.WritePointer(a.Pointer, b.Pointer); err != nil {
			if _, ok := memFault(err); ok {
				return ctx.fault(FaultMemory, pc, frame, "store %s: %v", a.Pointer, err)
			}
			return StepResult{}, err
		}
		return ctx.advance(fn, frame, pc)
	}
	buf := make([]byte, instr.Width)
	for i := range buf {
		buf[i] = byte(b.Bits >> (8 * i))
	}
	if err := ctx.Heap.Write(a.Pointer, int64(instr.Width), buf); err != nil {
		if _, ok := memFault(err); ok {
			return ctx.fault(FaultMemory, pc, frame, "store %s: %v", a.Pointer, err)
		}
		return StepResult{}, err
	}
	return ctx.advance(fn, frame, pc)
}

// execRet implements Ret: the callee's return value (instr.A; ignored
// by void functions) is stored into the caller's call-site destination
// register, if any, and control resumes at the instruction following
// the call (spec §4.3 "Call/Ret").
func (ctx *Context) execRet(fn *program.Function, frame pointer.Pointer, pc program.PC, instr program.Instruction) (StepResult, error) {
	ret, err := ctx.resolveOperand(fn, frame, instr.A)
	if err != nil {
		return StepResult{}, err
	}
	parent, err := ctx.parentFrame(frame)
	if err != nil {
		return StepResult{}, err
	}
	ctx.Regs.Frame = parent
	if parent.IsNull() {
		return StepResult{Kind: Halted}, nil
	}
	parentPC, err := ctx.readPC(parent)
	if err != nil {
		return StepResult{}, err
	}
	parentFn, err := ctx.Prog.Function(parentPC.Func)
	if err != nil {
		return StepResult{}, err
	}
	callInstr := ctx.Prog.Instruction(parentPC)
	if callInstr.Dst >= 0 {
		if err := ctx.storeRegRaw(parentFn, parent, callInstr.Dst, ret); err != nil {
			return StepResult{}, err
		}
	}
	return ctx.advance(parentFn, parent, parentPC)
}

func (ctx *Context) execCall(fn *program.Function, frame pointer.Pointer, pc program.PC, instr program.Instruction, ehPad int) (StepResult, error) {
	calleeID := ctx.Prog.FunctionByName(instr.Callee)
	if calleeID < 0 {
		return ctx.fault(FaultControl, pc, frame, "call to unknown function %q", instr.Callee)
	}
	callee, err := ctx.Prog.Function(calleeID)
	if err != nil {
		return StepResult{}, err
	}
	args := make([]regValue, len(instr.Args))
	for i, op := range instr.Args {
		v, err := ctx.resolveOperand(fn, frame, op)
		if err != nil {
			return StepResult{}, err
		}
		args[i] = v
	}
	newFrame, err := ctx.pushFrame(callee, calleeID, args)
	if err != nil {
		if ehPad >= 0 {
			return ctx.branch(fn, frame, pc, ehPad)
		}
		return ctx.fault(FaultMemory, pc, frame, "call: %v", err)
	}
	ctx.Regs.Frame = newFrame
	return StepResult{Kind: Continued}, nil
}
