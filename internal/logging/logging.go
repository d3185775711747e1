// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package logging constructs the zap.Logger threaded from the CLI
// driver down into Search (spec §10), which logs structured fields at
// boot, at each edge and at search completion; Explore takes no
// logger.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production-style logger, or a development logger (full
// stack traces, console encoding) when verbose is set.
func New(verbose bool) (*zap.Logger, error) {
	if verbose {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		return cfg.Build()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	return cfg.Build()
}

// Search returns a snapshot-id and depth field pair for a Search-layer
// state/edge log line. internal/search builds its own fields and does
// not call it.
func Search(snapID uint64, depth int) []zap.Field {
	return []zap.Field{
		zap.Uint64("snapshot", snapID),
		zap.Int("depth", depth),
	}
}
