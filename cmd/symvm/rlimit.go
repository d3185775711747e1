// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// perWorkerBudget is a rough estimate of the bytes one search worker's
// scratch Context plus its share of the canonical snapshot table holds
// resident, used only to produce an early warning, never to reject a
// run outright.
const perWorkerBudget = 64 << 20 // 64MiB

// checkResourceLimits reads RLIMIT_AS (on platforms where it is
// meaningful) and logs a warning if cfg.Workers worth of search state
// looks unlikely to fit, then sets a soft Go memory limit at the
// address-space ceiling so the runtime GC reacts before the OS does.
// This never fails the run: resource sizing is advisory, not a
// correctness precondition (spec §5 "concurrency & resource model").
func checkResourceLimits(workers int, logger *zap.Logger) {
	var rlim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_AS, &rlim); err != nil {
		if logger != nil {
			logger.Debug("rlimit: RLIMIT_AS unavailable", zap.Error(err))
		}
		return
	}
	if rlim.Cur == unix.RLIM_INFINITY || rlim.Cur == 0 {
		return
	}
	want := uint64(workers) * perWorkerBudget
	if want > rlim.Cur {
		if logger != nil {
			logger.Warn("rlimit: worker count may exceed RLIMIT_AS",
				zap.Int("workers", workers),
				zap.Uint64("estimated_bytes", want),
				zap.Uint64("rlimit_as", rlim.Cur),
			)
		} else {
			fmt.Printf("warning: %d workers may exceed the RLIMIT_AS address-space limit (%d bytes)\n", workers, rlim.Cur)
		}
	}
	debug.SetMemoryLimit(int64(rlim.Cur))
}
