// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package search implements the VM's L4 parallel search: N worker
// goroutines, each owning its own scratch Context, pop states from a
// bounded-capacity work queue, ask internal/explore for successors,
// and push newly-discovered states back, until the frontier is
// exhausted or a Listener asks the run to stop (spec §4.4 L4, §5).
package search

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/symvm/symvm/internal/config"
	"github.com/symvm/symvm/internal/explore"
	"github.com/symvm/symvm/internal/heap"
	"github.com/symvm/symvm/internal/program"
)

// Action is a Listener callback's verdict.
type Action int

const (
	Continue Action = iota
	Terminate
)

// Listener observes discovered states and edges as the search
// proceeds (spec §4.4/§4.6/§4.7: Safety and Liveness are both
// Listeners). Returning Terminate from either method sets the
// search-global stop flag; in-flight workers finish their current
// state and then exit (spec §5 "Cancellation and timeouts").
type Listener interface {
	State(id heap.SnapId) Action
	Edge(e explore.Edge) Action
}

// Run drives the parallel search from the program's initial state
// until the frontier is exhausted, cfg.MaxStates is reached, or a
// Listener requests termination.
func Run(prog *program.Program, table *heap.CanonTable, cfg config.Config, listener Listener, logger *zap.Logger, meter metric.Meter) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	m, err := newMetrics(meter)
	if err != nil {
		return fmt.Errorf("search: metrics: %w", err)
	}

	ctx := context.Background()
	init, err := explore.Boot(prog, table, cfg.MaxObjects)
	if err != nil {
		return fmt.Errorf("search: boot: %w", err)
	}

	visited := newVisitedSet()
	f := newFrontier(cfg.Mode, int64(cfg.Workers)*4+1)
	var stateCount int64
	var stopped int32

	visited.markIfNew(init)
	stateCount = 1
	m.stateDiscovered(ctx)
	if logger != nil {
		logger.Info("boot", zap.Uint64("snapshot", uint64(init)))
	}
	if listener.State(init) == Terminate {
		return nil
	}
	if err := f.push(ctx, init, m); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Workers; i++ {
		g.Go(func() error {
			return worker(gctx, prog, table, cfg, listener, logger, m, f, visited, &stateCount, &stopped)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if logger != nil {
		logger.Info("search complete", zap.Int64("states", visited.Count()))
	}
	return nil
}

func worker(
	ctx context.Context,
	prog *program.Program,
	table *heap.CanonTable,
	cfg config.Config,
	listener Listener,
	logger *zap.Logger,
	m *metrics,
	f *frontier,
	visited *visitedSet,
	stateCount *int64,
	stopped *int32,
) error {
	for {
		id, ok := f.pop(ctx, m)
		if !ok {
			return nil
		}
		if atomic.LoadInt32(stopped) != 0 {
			f.done()
			continue
		}
		edges, err := explore.Successors(prog, table, cfg.MaxObjects, id)
		if err != nil {
			atomic.StoreInt32(stopped, 1)
			f.stop()
			f.done()
			return fmt.Errorf("successors of %d: %w", id, err)
		}
		terminate := false
		for _, e := range edges {
			m.edgeEmitted(ctx)
			if logger != nil {
				logger.Debug("edge", zap.Uint64("from", uint64(e.From)), zap.Uint64("to", uint64(e.To)))
			}
			if listener.Edge(e) == Terminate {
				terminate = true
			}
			if visited.markIfNew(e.To) {
				m.stateDiscovered(ctx)
				n := atomic.AddInt64(stateCount, 1)
				if cfg.MaxStates > 0 && n > cfg.MaxStates {
					// Past the cap: neither reported nor explored.
					terminate = true
					continue
				}
				if cfg.MaxStates > 0 && n >= cfg.MaxStates {
					terminate = true
				}
				// A state entered through a faulting edge is reported
				// but not expanded.
				if listener.State(e.To) == Terminate {
					terminate = true
				} else if !terminate && e.Fault == nil {
					if err := f.push(ctx, e.To, m); err != nil {
						f.done()
						return err
					}
				}
			} else {
				m.duplicateHit(ctx)
			}
		}
		if terminate {
			atomic.StoreInt32(stopped, 1)
			f.stop()
		}
		f.done()
	}
}
