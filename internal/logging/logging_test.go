// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logging

import "testing"

func TestNewProduction(t *testing.T) {
	logger, err := New(false)
	if err != nil {
		t.Fatalf("New(false): %v", err)
	}
	if logger == nil {
		t.Fatalf("New(false) returned a nil logger")
	}
	defer logger.Sync()
	logger.Info("test message")
}

func TestNewVerbose(t *testing.T) {
	logger, err := New(true)
	if err != nil {
		t.Fatalf("New(true): %v", err)
	}
	if logger == nil {
		t.Fatalf("New(true) returned a nil logger")
	}
	defer logger.Sync()
	logger.Debug("test debug message")
}

func TestSearchFields(t *testing.T) {
	fields := Search(42, 3)
	if len(fields) != 2 {
		t.Fatalf("Search() returned %d fields, want 2", len(fields))
	}
}
