// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The symvm tool drives the explicit-state model checker: verify runs
// a search to completion or first violation, replay re-executes a
// previously recorded choice prefix deterministically, and sim opens a
// readline REPL over a single run. Run "symvm help" for details.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func exitf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}

func main() {
	root := &cobra.Command{
		Use:   "symvm",
		Short: "explicit-state model checker for SSA-IR programs",
	}
	root.PersistentFlags().String("config", "", "path to a YAML config file (see internal/config)")
	root.PersistentFlags().Bool("verbose", false, "enable debug-level logging")

	root.AddCommand(newVerifyCmd())
	root.AddCommand(newReplayCmd())
	root.AddCommand(newSimCmd())

	if err := root.Execute(); err != nil {
		exitf("%v\n", err)
	}
}
