// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vm

import "github.com/symvm/symvm/internal/pointer"

// Flag bits of the Flags control register (spec §3).
const (
	FlagKernelMode uint64 = 1 << iota
	FlagMask                // interrupts off
	FlagInterrupted
	FlagCancel
	FlagError
	FlagStop
	FlagIgnoreLoop
	FlagIgnoreFault
)

// Registers holds the VM-global control registers (spec §3 "Control
// registers"). There is exactly one live Registers value per Context.
type Registers struct {
	Frame        pointer.Pointer // current call frame; null => kernel returns control
	Globals      pointer.Pointer
	Constants    pointer.Pointer
	State        pointer.Pointer // opaque handle to the user-visible program state
	Scheduler    pointer.Pointer // Code-tagged: function the scheduler hypercall enters
	FaultHandler pointer.Pointer // Code-tagged, or null
	Flags        uint64
	IntFrame     pointer.Pointer // frame pointer at which the next interrupt delivers
	ObjIdShuffle uint64          // deterministic permutation seed for canonicalisation
	User1        uint64
	User2        uint64
	User3        uint64
}

// CR names one control register, for the generic ctl_get/ctl_set
// hypercall ABI (spec §6).
type CR int

const (
	CRFrame CR = iota
	CRGlobals
	CRConstants
	CRState
	CRScheduler
	CRFaultHandler
	CRFlags
	CRIntFrame
	CRObjIdShuffle
	CRUser1
	CRUser2
	CRUser3
)

// Get reads a control register as a raw 64-bit word (pointers are
// reinterpreted via their uint64 encoding).
func (r *Registers) Get(cr CR) uint64 {
	switch cr {
	case CRFrame:
		return uint64(r.Frame)
	case CRGlobals:
		return uint64(r.Globals)
	case CRConstants:
		return uint64(r.Constants)
	case CRState:
		return uint64(r.State)
	case CRScheduler:
		return uint64(r.Scheduler)
	case CRFaultHandler:
		return uint64(r.FaultHandler)
	case CRFlags:
		return r.Flags
	case CRIntFrame:
		return uint64(r.IntFrame)
	case CRObjIdShuffle:
		return r.ObjIdShuffle
	case CRUser1:
		return r.User1
	case CRUser2:
		return r.User2
	case CRUser3:
		return r.User3
	default:
		return 0
	}
}

// Set writes a control register from a raw 64-bit word. Returns the
// previous value, matching the ctl_flag hypercall's "returns old
// value" contract for CRFlags and giving a uniform shape for the rest.
func (r *Registers) Set(cr CR, v uint64) uint64 {
	old := r.Get(cr)
	switch cr {
	case CRFrame:
		r.Frame = pointer.Pointer(v)
	case CRGlobals:
		r.Globals = pointer.Pointer(v)
	case CRConstants:
		r.Constants = pointer.Pointer(v)
	case CRState:
		r.State = pointer.Pointer(v)
	case CRScheduler:
		r.Scheduler = pointer.Pointer(v)
	case CRFaultHandler:
		r.FaultHandler = pointer.Pointer(v)
	case CRFlags:
		r.Flags = v
	case CRIntFrame:
		r.IntFrame = pointer.Pointer(v)
	case CRObjIdShuffle:
		r.ObjIdShuffle = v
	case CRUser1:
		r.User1 = v
	case CRUser2:
		r.User2 = v
	case CRUser3:
		r.User3 = v
	}
	return old
}

// Roots returns the pointer-valued control registers that participate
// in canonicalisation's reachability BFS (spec §4.1: "the root set…
// plus the current frame chain"). Frame is the first root; the rest of
// the frame chain is reached by the BFS through each frame's parent
// pointer.
func (r *Registers) Roots() []pointer.Pointer {
	return []pointer.Pointer{r.Frame, r.Globals, r.Constants, r.State, r.Scheduler, r.FaultHandler, r.IntFrame}
}
