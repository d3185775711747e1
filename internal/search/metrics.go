// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package search

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

// metrics bundles the counters/gauges Search exports (spec §10):
// states discovered, edges emitted, current queue depth and duplicate
// (already-visited) hits.
type metrics struct {
	states    metric.Int64Counter
	edges     metric.Int64Counter
	duplicate metric.Int64Counter
	queue     metric.Int64UpDownCounter
}

// newMetrics registers the Search instruments against meter. Passing a
// no-op meter (noop.NewMeterProvider().Meter("") from
// go.opentelemetry.io/otel/metric/noop) disables all
// reporting at zero cost, so Search has no mandatory metrics backend.
func newMetrics(meter metric.Meter) (*metrics, error) {
	states, err := meter.Int64Counter("states_discovered")
	if err != nil {
		return nil, err
	}
	edges, err := meter.Int64Counter("edges_emitted")
	if err != nil {
		return nil, err
	}
	dup, err := meter.Int64Counter("duplicate_hits")
	if err != nil {
		return nil, err
	}
	queue, err := meter.Int64UpDownCounter("queue_depth")
	if err != nil {
		return nil, err
	}
	return &metrics{states: states, edges: edges, duplicate: dup, queue: queue}, nil
}

func (m *metrics) stateDiscovered(ctx context.Context) {
	if m == nil {
		return
	}
	m.states.Add(ctx, 1)
}

func (m *metrics) edgeEmitted(ctx context.Context) {
	if m == nil {
		return
	}
	m.edges.Add(ctx, 1)
}

func (m *metrics) duplicateHit(ctx context.Context) {
	if m == nil {
		return
	}
	m.duplicate.Add(ctx, 1)
}

func (m *metrics) queuePushed(ctx context.Context) {
	if m == nil {
		return
	}
	m.queue.Add(ctx, 1)
}

func (m *metrics) queuePopped(ctx context.Context) {
	if m == nil {
		return
	}
	m.queue.Add(ctx, -1)
}
