// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vm implements the VM's L2 Context and Eval: a deterministic
// interpreter for one IR instruction at a time, given a fixed set of
// non-deterministic choices (spec §4.3).
package vm

import (
	"github.com/symvm/symvm/internal/heap"
	"github.com/symvm/symvm/internal/overlay"
	"github.com/symvm/symvm/internal/pointer"
	"github.com/symvm/symvm/internal/program"
)

// ChoiceEntry records one non-deterministic pick (spec §3 "Choice
// log"): the value taken and the number of alternatives available.
type ChoiceEntry struct {
	Taken int
	Total int
}

// InterruptEntry records a point where a memory or control-flow
// interrupt hook fired during a step (spec §3 "Interrupt log").
type InterruptEntry struct {
	Kind string // "mem" or "cfl"
	PC   program.PC
	Addr pointer.Pointer
}

// Mode selects how Eval's choose hypercall behaves.
type Mode int

const (
	// ModeGenerate auto-selects index 0 at every undecided choose,
	// recording (0,n) to the choice log; used both for discovery runs
	// and as the tail behaviour beyond a forced prefix.
	ModeGenerate Mode = iota
	// ModeReplay consumes choose values strictly from Prefix; a
	// choose(n) beyond the end of Prefix falls back to ModeGenerate
	// behaviour (auto-select 0), so a prefix only needs to specify the
	// choices relevant to reaching a particular branch.
	ModeReplay
)

// Context is one VM execution context: control registers, heap,
// choice/interrupt logs, per-thread stash, and fault/instruction
// counters (spec §4.3). A Context is owned exclusively by the
// goroutine executing it (spec §3 "Ownership summary").
type Context struct {
	Prog *program.Program
	Heap *heap.Heap
	Regs Registers

	Mode   Mode
	Prefix []int // forced choice values used in ModeReplay

	Choices    []ChoiceEntry
	Interrupts []InterruptEntry
	Trace      []string // text events emitted by the trace hypercall

	// Stash holds per-thread overlay handles (spec §4.3 "a per-thread
	// stash slot used to pass abstract/symbolic overlays"), keyed by a
	// guest-chosen thread id.
	Stash map[uint64]pointer.Pointer

	// Taint, Oracle and Lifters implement the symbolic-overlay
	// collaborator boundary (spec §4.8): Taint marks which heap bytes
	// carry a symbolic value (set via poke's taint layer, spec §6),
	// Oracle is the pure feasible/equal SMT boundary consulted at
	// branches on a tainted value, and Lifters is where a real solver
	// front-end would register per-opcode constraint extraction. Both
	// default to the sound, solver-free behaviour (NullOracle, empty
	// Registry) so a guest program that never taints anything runs
	// exactly as before.
	Taint   *overlay.Taint
	Oracle  overlay.Oracle
	Lifters *overlay.Registry

	// Path accumulates the constraints contributed by tainted branches
	// taken so far on this Context's execution (spec §4.8 "feasible
	// once for the true side and once for the false side"); it is
	// per-run bookkeeping like Choices/Interrupts, not snapshotted.
	Path []overlay.Constraint

	loopClasses map[string]map[uint64]bool // test_loop fingerprint sets, per class

	InstrCount int64
	choiceIdx  int
}

// NewContext returns a Context ready to execute from an empty heap,
// used for booting (spec §4.4 "Initial state").
func NewContext(prog *program.Program, table *heap.CanonTable, maxObj int64) *Context {
	return &Context{
		Prog:        prog,
		Heap:        heap.New(table, maxObj),
		Stash:       make(map[uint64]pointer.Pointer),
		Taint:       overlay.NewTaint(),
		Oracle:      overlay.NullOracle{},
		Lifters:     overlay.NewRegistry(),
		loopClasses: make(map[string]map[uint64]bool),
	}
}

// RestoreContext restores snapshot id into a fresh scratch Context
// with the given forced choice prefix (spec §4.4 "Restore S into a
// scratch Context"); this is how Explore implements choose-forking by
// snapshot-and-restore rather than live context cloning.
func RestoreContext(prog *program.Program, table *heap.CanonTable, id heap.SnapId, maxObj int64, prefix []int) (*Context, bool) {
	h, roots, ok := heap.Restore(table, id, maxObj)
	if !ok {
		return nil, false
	}
	ctx := &Context{
		Prog:        prog,
		Heap:        h,
		Mode:        ModeReplay,
		Prefix:      prefix,
		Stash:       make(map[uint64]pointer.Pointer),
		Taint:       overlay.NewTaint(),
		Oracle:      overlay.NullOracle{},
		Lifters:     overlay.NewRegistry(),
		loopClasses: make(map[string]map[uint64]bool),
	}
	ctx.Regs.Frame = roots[0]
	ctx.Regs.Globals = roots[1]
	ctx.Regs.Constants = roots[2]
	ctx.Regs.State = roots[3]
	ctx.Regs.Scheduler = roots[4]
	ctx.Regs.FaultHandler = roots[5]
	ctx.Regs.IntFrame = roots[6]
	return ctx, true
}

// Snapshot canonicalises the current heap with respect to the current
// control registers and commits it, returning the new SnapId and
// rewriting ctx's own pointer-valued registers into canonical-id space
// (so a second Snapshot call on the same Context is idempotent, P1).
func (ctx *Context) Snapshot() (heap.SnapId, error) {
	roots := ctx.Regs.Roots()
	id, newRoots, err := ctx.Heap.Snapshot(roots)
	if err != nil {
		return 0, err
	}
	ctx.Regs.Frame = newRoots[0]
	ctx.Regs.Globals = newRoots[1]
	ctx.Regs.Constants = newRoots[2]
	ctx.Regs.State = newRoots[3]
	ctx.Regs.Scheduler = newRoots[4]
	ctx.Regs.FaultHandler = newRoots[5]
	ctx.Regs.IntFrame = newRoots[6]
	return id, nil
}

// choose implements the choose(n) hypercall contract (spec §4.3).
func (ctx *Context) choose(n int) int {
	if n <= 1 {
		// B1: choose(1) takes no decision; the engine does not fork.
		return 0
	}
	var taken int
	if ctx.Mode == ModeReplay && ctx.choiceIdx < len(ctx.Prefix) {
		taken = ctx.Prefix[ctx.choiceIdx]
	} else {
		taken = 0
	}
	ctx.Choices = append(ctx.Choices, ChoiceEntry{Taken: taken, Total: n})
	ctx.choiceIdx++
	return taken
}

// pushFrame allocates a new frame object, writes its header (pc,
// parent) and copies argument values into the callee's parameter
// registers (spec §4.3 "Call").
func (ctx *Context) pushFrame(fn *program.Function, fnID int, args []regValue) (pointer.Pointer, error) {
	frame, err := ctx.Heap.Make(fn.FrameSize, pointer.Heap)
	if err != nil {
		return pointer.Null, err
	}
	entry := program.PC{Func: fnID, Block: 0, Instr: 0}
	if err := ctx.writePC(frame, entry); err != nil {
		return pointer.Null, err
	}
	if err := ctx.Heap.WritePointer(frame.WithOffset(8), ctx.Regs.Frame); err != nil {
		return pointer.Null, err
	}
	for i, a := range args {
		if i >= fn.NumArgs {
			break
		}
		if err := ctx.storeRegRaw(fn, frame, i, a); err != nil {
			return pointer.Null, err
		}
	}
	return frame, nil
}

func (ctx *Context) writePC(frame pointer.Pointer, pc program.PC) error {
	var buf [8]byte
	v := pc.Encode()
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	return ctx.Heap.Write(frame, 8, buf[:])
}

func (ctx *Context) readPC(frame pointer.Pointer) (program.PC, error) {
	buf, err := ctx.Heap.Read(frame, 8)
	if err != nil {
		return program.PC{}, err
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(buf[i]) << (8 * i)
	}
	return program.DecodePC(v), nil
}

func (ctx *Context) parentFrame(frame pointer.Pointer) (pointer.Pointer, error) {
	return ctx.Heap.ReadPointer(frame.WithOffset(8))
}

// FrameInfo is one call frame's materialised contents (spec §4.6
// "frame contents, source locations, variable values"): the function
// it belongs to, the program counter it was suspended at, and the
// decoded value of each of its registers (pointer registers are
// encoded as their raw Pointer bits).
type FrameInfo struct {
	Func      string
	PC        program.PC
	Registers []uint64
}

// StackFrames walks the call chain rooted at frame (innermost first)
// back to the top-level caller (a null parent pointer), decoding each
// frame's suspended program counter and register file. Used by
// internal/safety to materialise a counterexample trace by replaying
// a search-discovered edge from its recorded choice prefix and then
// inspecting the resulting stack (spec §4.6 "replay-from-log").
func (ctx *Context) StackFrames(frame pointer.Pointer) ([]FrameInfo, error) {
	var frames []FrameInfo
	for !frame.IsNull() {
		pc, err := ctx.readPC(frame)
		if err != nil {
			return nil, err
		}
		fn, err := ctx.Prog.Function(pc.Func)
		if err != nil {
			return nil, err
		}
		regs := make([]uint64, len(fn.Registers))
		for i := range fn.Registers {
			v, err := ctx.loadReg(fn, frame, i)
			if err != nil {
				return nil, err
			}
			if v.IsPtr {
				regs[i] = uint64(v.Pointer)
			} else {
				regs[i] = v.Bits
			}
		}
		frames = append(frames, FrameInfo{Func: fn.Name, PC: pc, Registers: regs})
		parent, err := ctx.parentFrame(frame)
		if err != nil {
			return nil, err
		}
		frame = parent
	}
	return frames, nil
}

// EnterFunc pushes a fresh top-level frame for the function at id as
// the callee of the (null) current frame, making it the new current
// frame. Used by internal/explore to invoke __boot and the per-step
// Scheduler entry point, both of which run as top-level calls rather
// than being reached via an OpCall instruction.
func (ctx *Context) EnterFunc(id int, args ...int64) error {
	fn, err := ctx.Prog.Function(id)
	if err != nil {
		return err
	}
	rv := make([]regValue, len(args))
	for i, a := range args {
		rv[i] = intVal(a)
	}
	frame, err := ctx.pushFrame(fn, id, rv)
	if err != nil {
		return err
	}
	ctx.Regs.Frame = frame
	return nil
}
