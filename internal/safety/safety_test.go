// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package safety_test

import (
	"strings"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/symvm/symvm/internal/config"
	"github.com/symvm/symvm/internal/fixtures"
	"github.com/symvm/symvm/internal/heap"
	"github.com/symvm/symvm/internal/safety"
	"github.com/symvm/symvm/internal/search"
)

// TestListenerStopsOnFirstViolation exercises the "assertion violation"
// scenario (spec §8 scenario 3): step decrements 4 -> 3 -> 2 -> 1 and
// faults on the assertion when it stores zero, so the counterexample
// trace from root to the violating state is exactly 5 states long and
// its fault message names the assertion.
func TestListenerStopsOnFirstViolation(t *testing.T) {
	prog, err := fixtures.Assert(4)
	if err != nil {
		t.Fatalf("Assert: %v", err)
	}
	table := heap.NewCanonTable()
	cfg := config.Default()
	cfg.Workers = 1
	cfg.MaxStates = 20
	meter := sdkmetric.NewMeterProvider().Meter("safety_test")

	l := safety.New()
	if err := search.Run(prog, table, cfg, l, nil, meter); err != nil {
		t.Fatalf("search.Run: %v", err)
	}
	if len(l.Violations) == 0 {
		t.Fatalf("want at least one recorded violation from the assertion-fault branch")
	}
	first := l.Violations[0]
	if first.Fault == nil {
		t.Fatalf("violation missing its Fault")
	}
	if !strings.Contains(first.Fault.Msg, "assert") {
		t.Fatalf("want fault message to mention the assertion, got %q", first.Fault.Msg)
	}
	trace := l.Trace(l.Root(), first.State)
	if len(trace) != 5 {
		t.Fatalf("want a 5-state trace (4, 3, 2, 1, violating state), got %d: %v", len(trace), trace)
	}
}

func TestListenerContinuesWhenNotStopOnFirst(t *testing.T) {
	prog, err := fixtures.Branch()
	if err != nil {
		t.Fatalf("Branch: %v", err)
	}
	table := heap.NewCanonTable()
	cfg := config.Default()
	cfg.Workers = 1
	cfg.MaxStates = 20
	meter := sdkmetric.NewMeterProvider().Meter("safety_test")

	l := safety.New()
	l.StopOnFirst = false
	if err := search.Run(prog, table, cfg, l, nil, meter); err != nil {
		t.Fatalf("search.Run: %v", err)
	}
	if len(l.Violations) == 0 {
		t.Fatalf("want at least one recorded violation")
	}
}
