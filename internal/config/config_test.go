// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v, want nil", err)
	}
}

func TestValidateRejectsBadWorkers(t *testing.T) {
	cfg := Default()
	cfg.Workers = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("Validate() with Workers=0 = nil, want error")
	}
}

func TestValidateRejectsBadMode(t *testing.T) {
	cfg := Default()
	cfg.Mode = "random"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("Validate() with Mode=%q = nil, want error", cfg.Mode)
	}
}

func TestValidateRejectsNegativeSimFail(t *testing.T) {
	cfg := Default()
	cfg.SimFail.ObjMakeEveryN = -1
	if err := cfg.Validate(); err == nil {
		t.Fatalf("Validate() with negative ObjMakeEveryN = nil, want error")
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "symvm.yaml")
	doc := "workers: 4\nmode: dfs\nliveness: true\nmax_states: 1000\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
	if cfg.Mode != ModeDFS {
		t.Errorf("Mode = %q, want %q", cfg.Mode, ModeDFS)
	}
	if !cfg.Liveness {
		t.Errorf("Liveness = false, want true")
	}
	if cfg.MaxStates != 1000 {
		t.Errorf("MaxStates = %d, want 1000", cfg.MaxStates)
	}
	// Fields the document doesn't mention keep their Default() value.
	if cfg.MaxObjects != 0 {
		t.Errorf("MaxObjects = %d, want 0 (inherited from Default)", cfg.MaxObjects)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("loaded config Validate() = %v, want nil", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("Load(missing file) = nil error, want one")
	}
}
