// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/symvm/symvm/internal/explore"
	"github.com/symvm/symvm/internal/heap"
)

func newSimCmd() *cobra.Command {
	var fixture string

	cmd := &cobra.Command{
		Use:   "sim",
		Short: "interactively step through a program's reachable states",
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, _, err := loadFixture(fixture)
			if err != nil {
				return err
			}
			table := heap.NewCanonTable()
			cur, err := explore.Boot(prog, table, 0)
			if err != nil {
				return fmt.Errorf("sim: boot: %w", err)
			}

			rl, err := readline.New(fmt.Sprintf("symvm(%d)> ", cur))
			if err != nil {
				return fmt.Errorf("sim: readline: %w", err)
			}
			defer rl.Close()

			edges, err := explore.Successors(prog, table, 0, cur)
			if err != nil {
				return fmt.Errorf("sim: successors: %w", err)
			}
			printEdges(edges)

			for {
				line, err := rl.Readline()
				if err == io.EOF || err == readline.ErrInterrupt {
					return nil
				}
				if err != nil {
					return err
				}
				line = strings.TrimSpace(line)
				switch {
				case line == "quit" || line == "exit":
					return nil
				case line == "list":
					printEdges(edges)
				case line == "":
					// ignore blank lines
				default:
					idx, convErr := strconv.Atoi(line)
					if convErr != nil || idx < 0 || idx >= len(edges) {
						fmt.Printf("unknown command/choice %q (try a listed index, \"list\", or \"quit\")\n", line)
						continue
					}
					cur = edges[idx].To
					if edges[idx].Fault != nil {
						fmt.Printf("entered a faulted state: %v\n", edges[idx].Fault)
					}
					edges, err = explore.Successors(prog, table, 0, cur)
					if err != nil {
						return fmt.Errorf("sim: successors: %w", err)
					}
					rl.SetPrompt(fmt.Sprintf("symvm(%d)> ", cur))
					printEdges(edges)
				}
			}
		},
	}
	cmd.Flags().StringVar(&fixture, "fixture", "counter", "built-in program to step through (counter, branch, assert, nondet, looper, forkjoin, liveness, selfloop)")
	return cmd
}

func printEdges(edges []explore.Edge) {
	fmt.Printf("%d successor(s):\n", len(edges))
	for i, e := range edges {
		status := "ok"
		if e.Fault != nil {
			status = fmt.Sprintf("FAULT(%v)", e.Fault.Kind)
		}
		fmt.Printf("  [%d] -> state %d  choices=%v  %s\n", i, e.To, e.Choices, status)
	}
}
