// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package projcfg loads work area config for fwdep.
//
// The config is a Starlark file, fwdep.star by default, that sets
// global variables:
//
//	srcdir = "src"                 # source root, relative to the config
//	toolset = "synth"              # "synth" or "sim"
//	top = "pkg:proj"               # default top-level component
//	depfile = "top.dep"            # default top-level dep file
//	variables = {"board": "kcu105", "ncores": 4}
//	reverse_extensions = [".d3"]   # dep files parsed in reverse order
//	max_depth = 64                 # include nesting limit
//
// All variables are optional.
package projcfg

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"go.chromium.org/infra/build/fwdep/depparser"
)

// DefaultFilename is the config filename in a work area.
const DefaultFilename = "fwdep.star"

// Toolsets are known toolsets.
var Toolsets = []string{"synth", "sim"}

// Config is a work area config.
type Config struct {
	// Path is the config file path, or "" for the default config.
	Path string

	// SrcDir is the source root.
	SrcDir string
	// Toolset is the toolset set in dep files as "toolset".
	Toolset string
	// Top is the default top-level "pkg:cmp".
	Top string
	// DepFile is the default top-level dep file.
	DepFile string
	// Variables are "name=value" defined before parsing dep files,
	// sorted by name.
	Variables []string
	// Order is the per-extension order of dep files.
	Order map[string]depparser.Order
	// MaxDepth limits include nesting.
	MaxDepth int
}

// Default returns the config used when there is no config file.
func Default() *Config {
	return &Config{
		SrcDir:   "src",
		Toolset:  "synth",
		DepFile:  "top.dep",
		Order:    maps.Clone(depparser.DefaultOrder),
		MaxDepth: depparser.DefaultMaxDepth,
	}
}

// Load loads the config file fname.
// If fname doesn't exist, it returns an error wrapping fs.ErrNotExist.
func Load(ctx context.Context, fname string) (*Config, error) {
	src, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	thread := &starlark.Thread{
		Name: "config",
		Print: func(thread *starlark.Thread, msg string) {
			log.Infof("thread:%s %s", thread.Name, msg)
		},
		Load: func(*starlark.Thread, string) (starlark.StringDict, error) {
			return nil, errors.New("load is not allowed in config")
		},
	}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			thread.Cancel(context.Cause(ctx).Error())
		case <-done:
		}
	}()
	globals, err := starlark.ExecFileOptions(&syntax.FileOptions{}, thread, fname, src, nil)
	if err != nil {
		log.Warnf("thread:%s failed to exec file %s: %v", thread.Name, fname, err)
		var eerr *starlark.EvalError
		if errors.As(err, &eerr) {
			log.Warnf("stacktrace:\n%s", eerr.Backtrace())
		}
		return nil, fmt.Errorf("failed to load %s: %w", fname, err)
	}
	cfg, err := fromGlobals(globals)
	if err != nil {
		return nil, fmt.Errorf("bad config %s: %w", fname, err)
	}
	cfg.Path = fname
	if !filepath.IsAbs(cfg.SrcDir) {
		cfg.SrcDir = filepath.Join(filepath.Dir(fname), cfg.SrcDir)
	}
	log.Debugf("config %s: %+v", fname, cfg)
	return cfg, nil
}

func fromGlobals(globals starlark.StringDict) (*Config, error) {
	cfg := Default()
	var err error
	for _, s := range []struct {
		name string
		v    *string
	}{
		{name: "srcdir", v: &cfg.SrcDir},
		{name: "toolset", v: &cfg.Toolset},
		{name: "top", v: &cfg.Top},
		{name: "depfile", v: &cfg.DepFile},
	} {
		v, ok := globals[s.name]
		if !ok {
			continue
		}
		str, ok := starlark.AsString(v)
		if !ok {
			return nil, fmt.Errorf("%s=%s, want string", s.name, v.Type())
		}
		*s.v = str
	}
	if !slices.Contains(Toolsets, cfg.Toolset) {
		return nil, fmt.Errorf("unknown toolset %q, want one of %q", cfg.Toolset, Toolsets)
	}
	if v, ok := globals["variables"]; ok {
		cfg.Variables, err = variables(v)
		if err != nil {
			return nil, err
		}
	}
	if v, ok := globals["reverse_extensions"]; ok {
		exts, ok := v.(starlark.Iterable)
		if !ok {
			return nil, fmt.Errorf("reverse_extensions=%s, want list", v.Type())
		}
		iter := exts.Iterate()
		defer iter.Done()
		var ext starlark.Value
		for iter.Next(&ext) {
			s, ok := starlark.AsString(ext)
			if !ok {
				return nil, fmt.Errorf("reverse_extensions: %s, want string", ext.Type())
			}
			cfg.Order[s] = depparser.Reverse
		}
	}
	if v, ok := globals["max_depth"]; ok {
		var n int
		err := starlark.AsInt(v, &n)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("max_depth=%s, want positive int", v)
		}
		cfg.MaxDepth = n
	}
	return cfg, nil
}

// variables converts a dict to "name=value" list.
func variables(v starlark.Value) ([]string, error) {
	d, ok := v.(*starlark.Dict)
	if !ok {
		return nil, fmt.Errorf("variables=%s, want dict", v.Type())
	}
	var vars []string
	for _, item := range d.Items() {
		name, ok := starlark.AsString(item[0])
		if !ok {
			return nil, fmt.Errorf("variables: key %s, want string", item[0].Type())
		}
		var value string
		switch x := item[1].(type) {
		case starlark.String:
			// quoted, so it stays a string.
			value = "'" + string(x) + "'"
		case starlark.Bool:
			value = strconv.FormatBool(bool(x))
		case starlark.Int:
			i, ok := x.Int64()
			if !ok {
				return nil, fmt.Errorf("variables: %s=%s overflows", name, x)
			}
			value = strconv.FormatInt(i, 10)
		case starlark.Float:
			value = strconv.FormatFloat(float64(x), 'g', -1, 64)
			if !strings.ContainsAny(value, ".eEnN") {
				value += ".0"
			}
		default:
			return nil, fmt.Errorf("variables: %s=%s, want string, bool, int or float", name, x.Type())
		}
		vars = append(vars, name+"="+value)
	}
	slices.Sort(vars)
	return vars, nil
}

// Options returns parser options. vars are defined before the
// variables of the config, and toolset overrides the config if not empty.
func (c *Config) Options(toolset string, vars []string) depparser.Options {
	if toolset == "" {
		toolset = c.Toolset
	}
	return depparser.Options{
		Toolset:   toolset,
		Variables: append(slices.Clone(vars), c.Variables...),
		Order:     c.Order,
		MaxDepth:  c.MaxDepth,
	}
}
