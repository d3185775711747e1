// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/symvm/symvm/internal/config"
	"github.com/symvm/symvm/internal/explore"
	"github.com/symvm/symvm/internal/heap"
	"github.com/symvm/symvm/internal/liveness"
	"github.com/symvm/symvm/internal/logging"
	"github.com/symvm/symvm/internal/safety"
	"github.com/symvm/symvm/internal/search"
)

func newVerifyCmd() *cobra.Command {
	var fixture string
	var checkLiveness bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "search the state space for safety (and optionally liveness) violations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			verbose, _ := cmd.Flags().GetBool("verbose")

			cfg := config.Default()
			if cfgPath != "" {
				var err error
				cfg, err = config.Load(cfgPath)
				if err != nil {
					return err
				}
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := logging.New(verbose)
			if err != nil {
				return err
			}
			defer logger.Sync()
			checkResourceLimits(cfg.Workers, logger)

			prog, acceptingFor, err := loadFixture(fixture)
			if err != nil {
				return err
			}
			table := heap.NewCanonTable()
			meter := sdkmetric.NewMeterProvider().Meter("symvm")

			l := safety.New()
			if err := search.Run(prog, table, cfg, l, logger, meter); err != nil {
				return fmt.Errorf("verify: %w", err)
			}
			if len(l.Violations) == 0 {
				fmt.Println("no safety violations found")
			} else {
				first := l.Violations[0]
				fmt.Printf("%d safety violation(s) found; first: %v\n", len(l.Violations), first.Fault)
				steps := l.Replay(l.Root(), first.State)
				trace, err := safety.Materialize(prog, table, cfg.MaxObjects, steps)
				if err != nil {
					return fmt.Errorf("verify: materialise trace: %w", err)
				}
				printTrace(trace)
			}

			if checkLiveness {
				if acceptingFor == nil {
					return fmt.Errorf("fixture %q has no accepting predicate; --liveness not supported", fixture)
				}
				init, err := explore.Boot(prog, table, cfg.MaxObjects)
				if err != nil {
					return err
				}
				c := liveness.NewChecker(prog, table, cfg.MaxObjects, acceptingFor(table, cfg.MaxObjects))
				found, err := c.Check(init)
				if err != nil {
					return fmt.Errorf("verify: liveness: %w", err)
				}
				if found {
					fmt.Printf("liveness violation found; lasso: %v\n", c.Lasso())
				} else {
					fmt.Println("no liveness violations found")
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&fixture, "fixture", "counter", "built-in program to verify (counter, branch, assert, nondet, looper, forkjoin, liveness, selfloop)")
	cmd.Flags().BoolVar(&checkLiveness, "liveness", false, "also run the nested-DFS liveness check")
	return cmd
}

// printTrace renders a materialised counterexample (spec §4.6 "frame
// contents, source locations, variable values"): a header line per hop,
// then one line per frame of that hop, innermost frame first, then the
// fault if the hop faulted.
func printTrace(trace []safety.StepTrace) {
	for i, step := range trace {
		fmt.Printf("  step %d -> state %d:\n", i, step.To)
		for _, f := range step.Frames {
			fmt.Printf("    %s at %+v regs=%v\n", f.Func, f.PC, f.Registers)
		}
		if step.Fault != nil {
			fmt.Printf("    fault: %v\n", step.Fault)
		}
	}
}
