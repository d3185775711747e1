// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package safety

import (
	"fmt"

	"github.com/symvm/symvm/internal/heap"
	"github.com/symvm/symvm/internal/program"
	"github.com/symvm/symvm/internal/vm"
)

// StepTrace is one materialised hop of a counterexample: the state
// reached, the fault (if any) the edge carried, and the live call
// stack at that point, innermost frame first (spec §4.6 "frame
// contents, source locations, variable values").
type StepTrace struct {
	To     heap.SnapId
	Fault  *vm.Fault
	Frames []vm.FrameInfo
}

// Materialize replays each hop produced by Listener.Replay from a
// fresh scratch Context, restoring From under the hop's recorded
// choice prefix and running the scheduler once — the same
// snapshot-and-restore replay internal/explore uses to discover
// successors in the first place, so re-running it reproduces the
// identical path (spec §4.6 "replay-from-log"). The resulting stack
// is read back out with Context.StackFrames to give a human-readable
// trace of frame/variable contents rather than bare snapshot ids.
func Materialize(prog *program.Program, table *heap.CanonTable, maxObj int64, steps []ReplayStep) ([]StepTrace, error) {
	trace := make([]StepTrace, 0, len(steps))
	for _, step := range steps {
		ctx, ok := vm.RestoreContext(prog, table, step.From, maxObj, step.Prefix)
		if !ok {
			return nil, fmt.Errorf("safety: unknown snapshot %d", step.From)
		}
		schedFn := int(ctx.Regs.Scheduler.ID())
		if err := ctx.EnterFunc(schedFn); err != nil {
			return nil, fmt.Errorf("safety: enter scheduler: %w", err)
		}
		res, err := ctx.Run()
		if err != nil {
			return nil, fmt.Errorf("safety: replay %d: %w", step.From, err)
		}
		top := ctx.Regs.Frame
		if res.Fault != nil {
			top = res.Fault.Frame
		}
		frames, err := ctx.StackFrames(top)
		if err != nil {
			return nil, fmt.Errorf("safety: stack at %d: %w", step.To, err)
		}
		trace = append(trace, StepTrace{To: step.To, Fault: res.Fault, Frames: frames})
	}
	return trace, nil
}
