// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package depparser

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"go.chromium.org/infra/build/fwdep/toolsupport/shutil"
)

// Directive is a parsed directive line, before its files are resolved.
type Directive struct {
	Kind Kind
	// Files are file expressions. Empty means the default file name.
	Files []string

	// Package and Component given by -c. Empty if not given.
	Package   string
	Component string
	// Cd is a sub directory of the kind directory.
	Cd string

	Lib       string
	NoInclude bool
	Finalise  bool
	TopLevel  bool
	VHDL2008  bool
	// UseInSynth and UseInSim are set by -u. Both are true for src
	// without -u.
	UseInSynth bool
	UseInSim   bool
}

// ParseComponent parses pkg:cmp notation. It accepts "pkg:cmp", "pkg:",
// ":cmp" and "cmp"; an empty pkg means the current package.
func ParseComponent(s string) (pkg, cmp string, err error) {
	switch strings.Count(s, ":") {
	case 0:
		return "", s, nil
	case 1:
		pkg, cmp, _ = strings.Cut(s, ":")
		return pkg, cmp, nil
	}
	return "", "", fmt.Errorf("%w %q: expected <package>:<component>", ErrMalformedComponent, s)
}

// componentValue is a pflag.Value for -c.
type componentValue struct {
	d *Directive
}

func (v componentValue) String() string {
	if v.d == nil || (v.d.Package == "" && v.d.Component == "") {
		return ""
	}
	return v.d.Package + ":" + v.d.Component
}

func (v componentValue) Set(s string) error {
	pkg, cmp, err := ParseComponent(s)
	if err != nil {
		return err
	}
	v.d.Package, v.d.Component = pkg, cmp
	return nil
}

func (componentValue) Type() string { return "pkg:cmp" }

// useInValue is a pflag.Value for -u.
type useInValue struct {
	d *Directive
}

func (v useInValue) String() string {
	if v.d == nil {
		return ""
	}
	var s []string
	if v.d.UseInSynth {
		s = append(s, "synth")
	}
	if v.d.UseInSim {
		s = append(s, "sim")
	}
	return strings.Join(s, ",")
}

func (v useInValue) Set(s string) error {
	var synth, sim bool
	var invalid []string
	for _, t := range strings.Split(s, ",") {
		switch t {
		case "synth":
			synth = true
		case "sim":
			sim = true
		default:
			invalid = append(invalid, t)
		}
	}
	if len(invalid) > 0 {
		return fmt.Errorf("invalid source types %q: expected synth or sim", strings.Join(invalid, ","))
	}
	v.d.UseInSynth, v.d.UseInSim = synth, sim
	return nil
}

func (useInValue) Type() string { return "synth,sim" }

// ParseDirective parses a preprocessed dep file line.
func ParseDirective(line string) (*Directive, error) {
	args, err := shutil.Split(line)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCommand, err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: empty line", ErrCommand)
	}
	kind, err := ParseKind(args[0])
	if err != nil {
		return nil, fmt.Errorf("%w: unknown directive %q", ErrCommand, args[0])
	}
	d := &Directive{Kind: kind}
	fs := pflag.NewFlagSet(args[0], pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.VarP(componentValue{d: d}, "component", "c", "package and component")
	fs.StringVar(&d.Cd, "cd", "", "sub directory")
	switch kind {
	case KindSetup:
		fs.BoolVarP(&d.Finalise, "finalise", "f", false, "run the script last")
	case KindSrc:
		fs.StringVarP(&d.Lib, "lib", "l", "", "library")
		fs.BoolVarP(&d.NoInclude, "noinclude", "n", false, "exclude from projects")
		fs.BoolVar(&d.VHDL2008, "vhdl2008", false, "VHDL 2008 syntax")
		d.UseInSynth, d.UseInSim = true, true
		fs.VarP(useInValue{d: d}, "usein", "u", "use in synth and/or sim")
	case KindAddrtab:
		fs.BoolVarP(&d.TopLevel, "toplevel", "t", false, "top-level address table")
	}
	err = fs.Parse(args[1:])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCommand, kind, err)
	}
	if files := fs.Args(); len(files) > 0 {
		d.Files = files
	}
	if kind == KindSrc && len(d.Files) == 0 {
		return nil, fmt.Errorf("%w: src: missing file list", ErrCommand)
	}
	return d, nil
}
