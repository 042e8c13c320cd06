// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package depparser

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
)

// Order is the order of entries in a parsed dep file.
type Order int

const (
	// Forward keeps entries in line order.
	Forward Order = iota
	// Reverse reverses entries of the file after it is parsed.
	Reverse
)

func (o Order) String() string {
	if o == Reverse {
		return "reverse"
	}
	return "forward"
}

// DefaultOrder is the per-extension order table used when
// Options.Order is nil. Extensions not in the table are parsed forward.
var DefaultOrder = map[string]Order{
	".dep": Forward,
	".d3":  Reverse,
}

// DefaultMaxDepth is the include nesting limit used when
// Options.MaxDepth is zero.
const DefaultMaxDepth = 64

// Options are options of a Parser.
type Options struct {
	// Toolset is set as "toolset" variable, e.g. "synth", "sim".
	Toolset string

	// Variables are "name=value" overrides, defined before any dep file
	// is parsed. Values are parsed with ParseLiteral.
	Variables []string

	// Order is the per-extension order table. nil means DefaultOrder.
	Order map[string]Order

	// MaxDepth limits include nesting.
	MaxDepth int
}

// Parser resolves a tree of dep files.
// A Parser must not be used by concurrent Parse calls.
type Parser struct {
	pm   *Pathmaker
	opts Options

	// states for a Parse call.
	pp       preprocessor
	registry map[string]*DepFile
	files    []*DepFile
	// unresolved top-level dep file.
	topUnresolved []Unresolved
	depth         int
}

// New creates a Parser resolving paths with pm.
func New(pm *Pathmaker, opts Options) *Parser {
	if opts.Order == nil {
		opts.Order = DefaultOrder
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	return &Parser{
		pm:   pm,
		opts: opts,
	}
}

// Pathmaker returns the pathmaker used by the parser.
func (p *Parser) Pathmaker() *Pathmaker {
	return p.pm
}

func (p *Parser) reset() error {
	scope := NewScope()
	for _, arg := range p.opts.Variables {
		name, v, err := ParseOverride(arg)
		if err != nil {
			return err
		}
		if !scope.Define(name, v) {
			log.Warnf("variable %q is given more than once. %q is ignored", name, arg)
		}
	}
	if p.opts.Toolset != "" {
		if !scope.Define("toolset", String(p.opts.Toolset)) {
			log.Warnf("toolset %q is overridden by variables", p.opts.Toolset)
		}
	}
	p.pp = preprocessor{scope: scope}
	p.registry = make(map[string]*DepFile)
	p.files = nil
	p.topUnresolved = nil
	p.depth = 0
	return nil
}

// Parse parses the dep file name of pkg:cmp and the dep files it
// includes, and returns the aggregated result.
//
// Errors in lines and unresolved file expressions are recorded in the
// result. Parse returns an error only for a missing dep file
// (ErrDepFileNotFound), too deep include nesting (ErrMaxDepth), an
// invalid variable override, a read error or context cancellation.
// The result is also returned with ErrDepFileNotFound and ErrMaxDepth,
// so callers can report what was found so far.
func (p *Parser) Parse(ctx context.Context, pkg, cmp, name string) (*Result, error) {
	err := p.reset()
	if err != nil {
		return nil, err
	}
	fname, err := p.pm.Path(pkg, cmp, KindInclude, "", name)
	if err != nil {
		return nil, err
	}
	top, err := p.parseFile(ctx, nil, pkg, cmp, name, fname)
	if err != nil && !errors.Is(err, ErrDepFileNotFound) && !errors.Is(err, ErrMaxDepth) {
		return nil, err
	}
	return p.result(top), err
}

// parseFile parses the dep file at fname, or returns the registered
// DepFile for fname.
func (p *Parser) parseFile(ctx context.Context, parent *DepFile, pkg, cmp, name, fname string) (*DepFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if df, ok := p.registry[fname]; ok {
		if df.parsing {
			log.Debugf("%s is included while it is being parsed", fname)
		}
		return df, nil
	}
	if p.depth >= p.opts.MaxDepth {
		return nil, fmt.Errorf("%w: %s at depth %d", ErrMaxDepth, fname, p.depth)
	}
	buf, err := os.ReadFile(fname)
	if errors.Is(err, fs.ErrNotExist) {
		u := Unresolved{
			Expr:         fname,
			Kind:         KindInclude,
			Package:      pkg,
			Component:    cmp,
			DepPackage:   TopLevel,
			DepComponent: TopLevel,
			DepPath:      TopLevel,
		}
		if parent != nil {
			u.DepPackage, u.DepComponent, u.DepPath = parent.Package, parent.Component, parent.Path
			parent.Unresolved = append(parent.Unresolved, u)
		} else {
			p.topUnresolved = append(p.topUnresolved, u)
		}
		return nil, fmt.Errorf("%w: %s", ErrDepFileNotFound, fname)
	}
	if err != nil {
		return nil, err
	}
	df := &DepFile{
		Package:   pkg,
		Component: cmp,
		Name:      name,
		Path:      fname,
		Parent:    parent,
		parsing:   true,
	}
	p.registry[fname] = df
	p.files = append(p.files, df)
	p.depth++
	log.Debugf("%s parsing %s:%s %s", strings.Repeat(">", p.depth), pkg, cmp, name)
	defer func() {
		p.depth--
		df.parsing = false
	}()

	lineno := 0
	for line := range strings.Lines(string(buf)) {
		lineno++
		if err := ctx.Err(); err != nil {
			return df, err
		}
		text, warn, err := p.pp.process(line)
		if warn != nil {
			lerr := p.lineError(df, lineno, line, warn)
			log.Warn(lerr)
			df.Warnings = append(df.Warnings, lerr)
			continue
		}
		if err != nil {
			df.Errors = append(df.Errors, p.lineError(df, lineno, line, err))
			continue
		}
		if text == "" {
			continue
		}
		d, err := ParseDirective(text)
		if err != nil {
			df.Errors = append(df.Errors, p.lineError(df, lineno, text, err))
			continue
		}
		err = p.resolve(ctx, df, lineno, text, d)
		if err != nil {
			return df, err
		}
	}
	if p.order(fname) == Reverse {
		slices.Reverse(df.Entries)
	}
	df.Vars = p.pp.scope.Snapshot()
	log.Debugf("%s %s", strings.Repeat("<", p.depth), df)
	return df, nil
}

func (p *Parser) order(fname string) Order {
	o, ok := p.opts.Order[filepath.Ext(fname)]
	if !ok {
		return Forward
	}
	return o
}

func (p *Parser) lineError(df *DepFile, lineno int, text string, err error) *LineError {
	return &LineError{
		Package:   df.Package,
		Component: df.Component,
		DepName:   df.Name,
		DepPath:   df.Path,
		Line:      lineno,
		Text:      strings.TrimSpace(text),
		Err:       err,
	}
}

// target returns package and component of the directive in df.
func target(df *DepFile, d *Directive) (string, string) {
	pkg := d.Package
	if pkg == "" {
		pkg = df.Package
	}
	switch {
	case d.Component != "":
		return pkg, d.Component
	case pkg == df.Package:
		return pkg, df.Component
	}
	// "-c pkg:" refers to the package root.
	return pkg, ""
}

// resolve expands file expressions of d and adds entries to df.
// It returns an error only if parsing an included file failed fatally.
func (p *Parser) resolve(ctx context.Context, df *DepFile, lineno int, text string, d *Directive) error {
	pkg, cmp := target(df, d)
	exprs := d.Files
	var defaultName bool
	if len(exprs) == 0 {
		leaf := path.Base(path.Join(pkg, cmp))
		name, err := DefaultName(d.Kind, leaf)
		if err != nil {
			df.Errors = append(df.Errors, p.lineError(df, lineno, text, fmt.Errorf("%w: %s: missing file list: %w", ErrCommand, d.Kind, err)))
			return nil
		}
		exprs = []string{name}
		defaultName = true
	}
	for _, expr := range exprs {
		pathExpr, matches, err := p.pm.Glob(pkg, cmp, d.Kind, expr, d.Cd)
		if err != nil {
			df.Errors = append(df.Errors, p.lineError(df, lineno, text, fmt.Errorf("%w: %w", ErrCommand, err)))
			continue
		}
		if len(matches) == 0 || (defaultName && len(matches) != 1) {
			df.Unresolved = append(df.Unresolved, Unresolved{
				Expr:         pathExpr,
				Kind:         d.Kind,
				Package:      pkg,
				Component:    cmp,
				DepPackage:   df.Package,
				DepComponent: df.Component,
				DepPath:      df.Path,
			})
			continue
		}
		for _, m := range matches {
			if d.Kind != KindInclude {
				df.Entries = append(df.Entries, &FileCommand{
					Kind:       d.Kind,
					Path:       m.Abs,
					Package:    pkg,
					Component:  cmp,
					Lib:        d.Lib,
					Include:    !d.NoInclude,
					TopLevel:   d.TopLevel,
					VHDL2008:   d.VHDL2008,
					Finalise:   d.Finalise,
					UseInSynth: d.UseInSynth,
					UseInSim:   d.UseInSim,
				})
				continue
			}
			if fi, err := os.Stat(m.Abs); err == nil && fi.IsDir() {
				df.Errors = append(df.Errors, p.lineError(df, lineno, text, fmt.Errorf("%w: include: %s is a directory", ErrCommand, m.Rel)))
				continue
			}
			child, err := p.parseFile(ctx, df, pkg, cmp, m.Rel, m.Abs)
			if err != nil {
				return err
			}
			if child != df && !slices.Contains(df.Children, child) {
				df.Children = append(df.Children, child)
			}
			df.Entries = append(df.Entries, &IncludeCommand{
				Path:      child.Path,
				Package:   pkg,
				Component: cmp,
				DepFile:   child,
			})
		}
	}
	return nil
}
