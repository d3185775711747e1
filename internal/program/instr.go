// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package program

// Opcode enumerates instruction categories (spec §4.3). Eval dispatches
// on Opcode with a single switch per category — the REDESIGN FLAGS
// replacement for virtual-method instruction dispatch: one tagged
// variant, one step function.
type Opcode uint8

const (
	OpNop Opcode = iota

	// Arithmetic/logic.
	OpIAdd
	OpISub
	OpIMul
	OpIDiv
	OpIMod
	OpFAdd
	OpFSub
	OpFMul
	OpFDiv
	OpAnd
	OpOr
	OpXor
	OpNot
	OpShl
	OpShr
	OpICmp
	OpFCmp

	// Memory.
	OpAlloca
	OpLoad
	OpStore
	OpGEP

	// Control.
	OpBr
	OpCondBr
	OpSwitch
	OpRet
	OpInvoke

	// Call.
	OpCall

	// Intrinsics / hypercalls (spec §6).
	OpHypercall
)

func (o Opcode) String() string {
	names := [...]string{
		"Nop", "IAdd", "ISub", "IMul", "IDiv", "IMod", "FAdd", "FSub",
		"FMul", "FDiv", "And", "Or", "Xor", "Not", "Shl", "Shr", "ICmp",
		"FCmp", "Alloca", "Load", "Store", "GEP", "Br", "CondBr",
		"Switch", "Ret", "Invoke", "Call", "Hypercall",
	}
	if int(o) < len(names) {
		return names[o]
	}
	return "Opcode(?)"
}

// CmpPredicate is the comparison predicate for ICmp/CondBr-style
// comparisons.
type CmpPredicate uint8

const (
	CmpEQ CmpPredicate = iota
	CmpNE
	CmpLT
	CmpLE
	CmpGT
	CmpGE
)

// OperandKind distinguishes an Instruction operand's storage.
type OperandKind uint8

const (
	OperandReg OperandKind = iota
	OperandImmInt
	OperandImmFloat
	OperandGlobal
)

// Operand is one source operand of an Instruction: either a register
// reference, an immediate, or a named global/constant.
type Operand struct {
	Kind  OperandKind
	Reg   int
	Int   int64
	Float float64
	Name  string // valid when Kind == OperandGlobal
}

// Reg builds a register operand.
func Reg(i int) Operand { return Operand{Kind: OperandReg, Reg: i} }

// ImmInt builds an integer immediate operand.
func ImmInt(v int64) Operand { return Operand{Kind: OperandImmInt, Int: v} }

// ImmFloat builds a floating immediate operand.
func ImmFloat(v float64) Operand { return Operand{Kind: OperandImmFloat, Float: v} }

// GlobalRef builds a named global/constant reference operand.
func GlobalRef(name string) Operand { return Operand{Kind: OperandGlobal, Name: name} }

// Width is one of {1,2,4,8}, the supported memory access widths (spec
// §4.1).
type Width int64

const (
	W8  Width = 1
	W16 Width = 2
	W32 Width = 4
	W64 Width = 8
)

// Instruction is one IR instruction within a basic block. Only the
// fields relevant to Op are populated; unused fields are zero, the
// flat-struct idiom the pack's small bytecode VMs use (e.g. a single
// struct with a Kind tag rather than an interface hierarchy per
// opcode).
type Instruction struct {
	Op Opcode

	Dst   int // destination register index, -1 if none
	A, B  Operand
	Width Width
	Pred  CmpPredicate
	Float bool // arithmetic/cmp operates on floats rather than ints

	// Control flow.
	Targets []int // basic block indices; Br has 1, CondBr has 2 ([true,false])
	Cases   map[int64]int
	Default int

	// Call / Invoke / Hypercall.
	Callee   string
	Args     []Operand
	EHPad    int // landing pad block index, -1 if none (Invoke only)
	Hyper    string
	HyperInt []int64 // integer hypercall arguments, e.g. choose(n), obj_make(size,tag)

	Debug string // optional source-location/text annotation
}
