// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads the search driver's YAML configuration (spec
// §10): worker count, search mode, liveness toggle, resource limits
// and fault-injection ("simfail") settings. There is no flag overlay:
// cmd/symvm uses a loaded Config as is, and its --liveness flag is
// separate from the Liveness field.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Mode selects the parallel search strategy (spec §5).
type Mode string

const (
	ModeBFS Mode = "bfs"
	ModeDFS Mode = "dfs"
)

// SimFail holds the allocation-failure injection settings (spec §4.1
// "allocation failure is a runtime choice, not an engine error").
// ObjMakeEveryN is loaded and checked by Validate (it must be >= 0),
// but the VM's obj_make hypercall does not consult it: no allocation
// is made to fail because of it.
type SimFail struct {
	ObjMakeEveryN int `yaml:"obj_make_every_n"`
}

// Config is the full set of tunables the driver reads before starting
// a search.
type Config struct {
	Workers    int           `yaml:"workers"`
	Mode       Mode          `yaml:"mode"`
	Liveness   bool          `yaml:"liveness"`
	MaxObjects int64         `yaml:"max_objects"`
	MaxStates  int64         `yaml:"max_states"`
	Timeout    string        `yaml:"timeout"` // loaded as text; no search or driver code reads it
	SimFail    SimFail       `yaml:"simfail"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		Workers:    1,
		Mode:       ModeBFS,
		Liveness:   false,
		MaxObjects: 0,
		MaxStates:  0,
	}
}

// Load reads and parses a YAML config file, starting from Default and
// overlaying whatever fields the document sets.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports a descriptive error for out-of-range settings
// before the driver starts a search.
func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("config: workers must be >= 1, got %d", c.Workers)
	}
	if c.Mode != ModeBFS && c.Mode != ModeDFS {
		return fmt.Errorf("config: mode must be %q or %q, got %q", ModeBFS, ModeDFS, c.Mode)
	}
	if c.SimFail.ObjMakeEveryN < 0 {
		return fmt.Errorf("config: simfail.obj_make_every_n must be >= 0, got %d", c.SimFail.ObjMakeEveryN)
	}
	return nil
}
