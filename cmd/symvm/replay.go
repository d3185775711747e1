// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/symvm/symvm/internal/explore"
	"github.com/symvm/symvm/internal/heap"
	"github.com/symvm/symvm/internal/vm"
)

func parsePrefix(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	prefix := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("replay: invalid choice %q in prefix: %w", p, err)
		}
		prefix[i] = v
	}
	return prefix, nil
}

func newReplayCmd() *cobra.Command {
	var fixture string
	var prefixFlag string

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "deterministically re-run one scheduler invocation with a forced choice prefix",
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, _, err := loadFixture(fixture)
			if err != nil {
				return err
			}
			prefix, err := parsePrefix(prefixFlag)
			if err != nil {
				return err
			}

			table := heap.NewCanonTable()
			init, err := explore.Boot(prog, table, 0)
			if err != nil {
				return fmt.Errorf("replay: boot: %w", err)
			}

			ctx, ok := vm.RestoreContext(prog, table, init, 0, prefix)
			if !ok {
				return fmt.Errorf("replay: unknown snapshot %d", init)
			}
			schedFn := int(ctx.Regs.Scheduler.ID())
			if err := ctx.EnterFunc(schedFn); err != nil {
				return fmt.Errorf("replay: enter scheduler: %w", err)
			}
			res, err := ctx.Run()
			if err != nil {
				return fmt.Errorf("replay: run: %w", err)
			}

			fmt.Printf("outcome: %v\n", res.Kind)
			if res.Fault != nil {
				fmt.Printf("fault: %v\n", res.Fault)
			}
			fmt.Printf("choices taken: %v\n", ctx.Choices)
			if len(ctx.Trace) > 0 {
				fmt.Printf("trace: %s\n", strings.Join(ctx.Trace, "; "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&fixture, "fixture", "counter", "built-in program to replay (counter, branch, assert, nondet, looper, forkjoin, liveness, selfloop)")
	cmd.Flags().StringVar(&prefixFlag, "prefix", "", "comma-separated choose() values to force, in order (e.g. 0,1,0)")
	return cmd
}
