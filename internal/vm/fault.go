// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vm

import (
	"fmt"

	"github.com/symvm/symvm/internal/pointer"
	"github.com/symvm/symvm/internal/program"
)

// FaultKind enumerates the guest fault taxonomy (spec §3 "Fault").
type FaultKind int

const (
	FaultAssert FaultKind = iota
	FaultArithmetic
	FaultMemory
	FaultControl
	FaultLocking
	FaultHypercall
	FaultNotImplemented
	FaultFloat
	FaultInteger
	FaultLeak
)

func (k FaultKind) String() string {
	names := [...]string{
		"Assert", "Arithmetic", "Memory", "Control", "Locking",
		"Hypercall", "NotImplemented", "Float", "Integer", "Leak",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "FaultKind(?)"
}

// Fault is the VM's guest-fault record (spec §3).
type Fault struct {
	Kind  FaultKind
	PC    program.PC
	Frame pointer.Pointer
	Msg   string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s fault at %+v: %s", f.Kind, f.PC, f.Msg)
}

// StepKind is the outer shape of one Eval.Step call, replacing the
// source's exception/longjmp-based control transfer with an explicit
// sum type returned from every step (REDESIGN FLAGS).
type StepKind int

const (
	// Continued means the step executed normally and the frame/pc was
	// advanced (or replaced by a control-flow instruction).
	Continued StepKind = iota
	// Faulted means a guest fault was raised; Fault is always
	// populated. The fault may have been absorbed by FaultHandler (in
	// which case execution continues at the handler) or have set
	// Flags.Error/Flags.Cancel (in which case Run will stop).
	Faulted
	// Halted means Frame became null: control returned to the kernel
	// (or, for the outermost __boot call, to Explore).
	Halted
)

// StepResult is returned by every Eval.Step call.
type StepResult struct {
	Kind  StepKind
	Fault *Fault
}
