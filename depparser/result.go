// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package depparser

import (
	"fmt"
	"maps"
	"slices"

	"go.chromium.org/luci/common/errors"
)

// PackageComponents is a package and the components referenced in it.
type PackageComponents struct {
	Package    string   `json:"package"`
	Components []string `json:"components"`
}

// Result is the aggregated result of Parser.Parse.
type Result struct {
	// Top is the top-level dep file. nil if it was not found.
	Top *DepFile `json:"-"`
	// Files are all parsed dep files, in the order they were opened.
	Files []*DepFile `json:"-"`

	// Commands are file commands per kind, in include order, without
	// duplicates. The first occurrence of a (path, lib) is kept.
	Commands map[Kind][]*FileCommand `json:"commands"`
	// Packages are referenced packages and their components, in the
	// order they were first referenced.
	Packages []PackageComponents `json:"packages"`
	// Libs are libraries of src commands, sorted.
	Libs []string `json:"libs"`

	Errors     []*LineError `json:"-"`
	Warnings   []*LineError `json:"-"`
	Unresolved []Unresolved `json:"unresolved"`

	// Vars are the variables after all files were parsed.
	Vars map[string]Value `json:"vars"`
}

func (p *Parser) result(top *DepFile) *Result {
	r := &Result{
		Top:        top,
		Files:      slices.Clone(p.files),
		Commands:   make(map[Kind][]*FileCommand),
		Unresolved: slices.Clone(p.topUnresolved),
		Vars:       p.pp.scope.Snapshot(),
	}
	if top != nil {
		pkgIndex := make(map[string]int)
		seen := make(map[Kind]map[fileKey]bool)
		libs := make(map[string]bool)
		for c := range top.Commands() {
			i, ok := pkgIndex[c.Package]
			if !ok {
				i = len(r.Packages)
				pkgIndex[c.Package] = i
				r.Packages = append(r.Packages, PackageComponents{Package: c.Package})
			}
			if !slices.Contains(r.Packages[i].Components, c.Component) {
				r.Packages[i].Components = append(r.Packages[i].Components, c.Component)
			}
			if c.Kind == KindSrc && c.Lib != "" {
				libs[c.Lib] = true
			}
			if seen[c.Kind] == nil {
				seen[c.Kind] = make(map[fileKey]bool)
			}
			k := fileKey{path: c.Path, lib: c.Lib}
			if seen[c.Kind][k] {
				continue
			}
			seen[c.Kind][k] = true
			r.Commands[c.Kind] = append(r.Commands[c.Kind], c)
		}
		r.Libs = slices.Sorted(maps.Keys(libs))
	}
	for _, f := range p.files {
		r.Errors = append(r.Errors, f.Errors...)
		r.Warnings = append(r.Warnings, f.Warnings...)
		r.Unresolved = append(r.Unresolved, f.Unresolved...)
	}
	return r
}

// fileKey is the identity of a FileCommand. See FileCommand.Equal.
type fileKey struct {
	path, lib string
}

// Components returns components of pkg referenced in r.
func (r *Result) Components(pkg string) []string {
	for _, pc := range r.Packages {
		if pc.Package == pkg {
			return pc.Components
		}
	}
	return nil
}

// UnresolvedPaths returns path expressions of unresolved entries, sorted.
func (r *Result) UnresolvedPaths() []string {
	paths := make(map[string]bool)
	for _, u := range r.Unresolved {
		paths[u.Expr] = true
	}
	return slices.Sorted(maps.Keys(paths))
}

// UnresolvedPackages returns packages of unresolved entries that don't
// exist in pm, sorted.
func (r *Result) UnresolvedPackages(pm *Pathmaker) []string {
	pkgs := make(map[string]bool)
	for _, u := range r.Unresolved {
		if pkgs[u.Package] || pm.PackageExists(u.Package) {
			continue
		}
		pkgs[u.Package] = true
	}
	return slices.Sorted(maps.Keys(pkgs))
}

// UnresolvedComponents returns components of unresolved entries that
// don't exist in pm, grouped by package. Components are sorted.
func (r *Result) UnresolvedComponents(pm *Pathmaker) map[string][]string {
	cmps := make(map[string][]string)
	for _, u := range r.Unresolved {
		if slices.Contains(cmps[u.Package], u.Component) || pm.ComponentExists(u.Package, u.Component) {
			continue
		}
		cmps[u.Package] = append(cmps[u.Package], u.Component)
	}
	for _, v := range cmps {
		slices.Sort(v)
	}
	return cmps
}

// UnresolvedFiles returns referencing dep file paths of unresolved path
// expressions, grouped by package, component and path expression.
// Dep file paths are sorted.
func (r *Result) UnresolvedFiles() map[string]map[string]map[string][]string {
	files := make(map[string]map[string]map[string][]string)
	for _, u := range r.Unresolved {
		cmps, ok := files[u.Package]
		if !ok {
			cmps = make(map[string]map[string][]string)
			files[u.Package] = cmps
		}
		exprs, ok := cmps[u.Component]
		if !ok {
			exprs = make(map[string][]string)
			cmps[u.Component] = exprs
		}
		if !slices.Contains(exprs[u.Expr], u.DepPath) {
			exprs[u.Expr] = append(exprs[u.Expr], u.DepPath)
			slices.Sort(exprs[u.Expr])
		}
	}
	return files
}

// ErrorsByLocation returns line errors grouped by "path:line".
func (r *Result) ErrorsByLocation() map[string][]error {
	errs := make(map[string][]error)
	for _, e := range r.Errors {
		loc := fmt.Sprintf("%s:%d", e.DepPath, e.Line)
		errs[loc] = append(errs[loc], e.Err)
	}
	return errs
}

// Err returns an errors.MultiError of line errors and unresolved
// entries, or nil if there is none.
func (r *Result) Err() error {
	var merr errors.MultiError
	for _, e := range r.Errors {
		merr = append(merr, e)
	}
	for _, u := range r.Unresolved {
		merr = append(merr, fmt.Errorf("unresolved %s", u))
	}
	if len(merr) == 0 {
		return nil
	}
	return merr
}
