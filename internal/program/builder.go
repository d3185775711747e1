// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package program

import "fmt"

// Builder is an in-memory Loader implementation used to construct
// Programs directly from Go code, without a real IR compiler
// front-end. It exists to build the end-to-end test fixtures of spec
// §8 and to give cmd/symvm something runnable without external
// tooling; it is not a parser.
type Builder struct {
	prog     *Program
	funcs    map[string]*FuncBuilder
	globals  map[string]int
	consts   map[string]int
	bootName string
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		prog:    &Program{},
		funcs:   make(map[string]*FuncBuilder),
		globals: make(map[string]int),
		consts:  make(map[string]int),
	}
}

// Global declares a module global with the given initial bytes.
func (b *Builder) Global(name string, init []byte) {
	idx := len(b.prog.Globals)
	b.prog.Globals = append(b.prog.Globals, Global{Name: name, Size: int64(len(init)), Init: init})
	b.globals[name] = idx
}

// Const declares a module constant with the given initial bytes.
func (b *Builder) Const(name string, init []byte) {
	idx := len(b.prog.Constants)
	b.prog.Constants = append(b.prog.Constants, Global{Name: name, Size: int64(len(init)), Init: init})
	b.consts[name] = idx
}

// Func begins (or resumes) building the named function, returning a
// FuncBuilder for adding registers, blocks and instructions.
func (b *Builder) Func(name string) *FuncBuilder {
	if fb, ok := b.funcs[name]; ok {
		return fb
	}
	fn := &Function{Name: name}
	fb := &FuncBuilder{fn: fn, blockIdx: make(map[string]int)}
	b.funcs[name] = fb
	return fb
}

// SetBoot designates the boot function (__boot) itself, the function
// run once to build the initial state.
func (b *Builder) SetBoot(name string) { b.bootName = name }

// Build finalises the module: assigns function indices in a stable
// order, computes register offsets, and validates the result.
func (b *Builder) Build() (*Program, error) {
	names := make([]string, 0, len(b.funcs))
	for name := range b.funcs {
		names = append(names, name)
	}
	// Deterministic order: functions are numbered in the order Func was
	// first called is not preserved by map iteration, so sort by name;
	// callers that need a specific order (e.g. __boot first) should not
	// rely on numeric function ids, only on FunctionByName/GlobalAddr.
	sortStrings(names)

	p := b.prog
	p.Functions = make([]*Function, len(names))
	p.funcByName = make(map[string]int, len(names))
	for i, name := range names {
		fb := b.funcs[name]
		fb.fn.layout()
		p.Functions[i] = fb.fn
		p.funcByName[name] = i
	}
	p.globalByName = b.globals
	p.constByName = b.consts
	p.GlobalOffsets, p.GlobalsSize = layoutArena(p.Globals)
	p.ConstOffsets, p.ConstsSize = layoutArena(p.Constants)
	if b.bootName != "" {
		idx, ok := p.funcByName[b.bootName]
		if !ok {
			return nil, fmt.Errorf("%w: unknown boot function %q", ErrInvalidIR, b.bootName)
		}
		p.BootFunc = idx
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Load implements Loader.
func (b *Builder) Load() (*Program, error) { return b.Build() }

// layoutArena lays globals/constants out back-to-back on 8-byte
// boundaries, bump-allocator style, and returns each entry's offset
// plus the arena's total size.
func layoutArena(entries []Global) ([]int64, int64) {
	offsets := make([]int64, len(entries))
	var off int64
	for i, g := range entries {
		offsets[i] = off
		off += g.Size
		if r := off % 8; r != 0 {
			off += 8 - r
		}
	}
	return offsets, off
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// FuncBuilder incrementally builds one Function.
type FuncBuilder struct {
	fn       *Function
	blockIdx map[string]int
}

// Reg allocates a new register of the given width, returning its
// index. isPointer marks the register as pointer-bearing so the VM
// keeps the heap's pointer bitmap coherent on stores through it.
func (fb *FuncBuilder) Reg(width Width, isPointer bool) int {
	idx := len(fb.fn.Registers)
	fb.fn.Registers = append(fb.fn.Registers, Register{Width: width, IsPointer: isPointer})
	return idx
}

// NumArgs marks the first n registers as the function's parameters.
func (fb *FuncBuilder) NumArgs(n int) { fb.fn.NumArgs = n }

// Block creates a new basic block and returns its index.
func (fb *FuncBuilder) Block(name string) int {
	if idx, ok := fb.blockIdx[name]; ok {
		return idx
	}
	idx := len(fb.fn.Blocks)
	fb.fn.Blocks = append(fb.fn.Blocks, Block{Name: name})
	fb.blockIdx[name] = idx
	return idx
}

// Emit appends instr to the named block.
func (fb *FuncBuilder) Emit(block int, instr Instruction) {
	fb.fn.Blocks[block].Instrs = append(fb.fn.Blocks[block].Instrs, instr)
}

// layout assigns byte offsets to registers in declaration order and
// computes FrameSize.
func (fn *Function) layout() {
	var off int64
	for i := range fn.Registers {
		fn.Registers[i].Offset = off
		off += int64(fn.Registers[i].Width)
	}
	fn.FrameSize = FrameHeaderSize + off
}
