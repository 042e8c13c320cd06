// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package depfmt formats depparser results as text reports.
package depfmt

import (
	"fmt"
	"maps"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/lipgloss/tree"

	"go.chromium.org/infra/build/fwdep/depparser"
	"go.chromium.org/infra/build/fwdep/ui"
)

// Fields are fields of a command that a Filter can match.
var Fields = []string{"path", "flags", "package", "component", "lib"}

// Filter selects commands whose field matches a regexp.
type Filter struct {
	Field string
	Re    *regexp.Regexp
}

// ParseFilter parses "field=regexp".
func ParseFilter(s string) (Filter, error) {
	field, expr, ok := strings.Cut(s, "=")
	if !ok {
		return Filter{}, fmt.Errorf("filter %q: want field=regexp", s)
	}
	if !slices.Contains(Fields, field) {
		return Filter{}, fmt.Errorf("filter %q: unknown field %q, want one of %q", s, field, Fields)
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return Filter{}, fmt.Errorf("filter %q: %w", s, err)
	}
	return Filter{Field: field, Re: re}, nil
}

func (f Filter) match(c *depparser.FileCommand) bool {
	var v string
	switch f.Field {
	case "path":
		v = c.Path
	case "flags":
		v = strings.Join(c.Flags(), ",")
	case "package":
		v = c.Package
	case "component":
		v = c.Component
	case "lib":
		v = c.Lib
	}
	return f.Re.MatchString(v)
}

// Formatter formats a result.
type Formatter struct {
	r  *depparser.Result
	pm *depparser.Pathmaker

	// Filters select commands shown by Commands. All filters must match.
	Filters []Filter
}

// New returns a formatter of r. Paths are shown relative to the root
// of pm.
func New(r *depparser.Result, pm *depparser.Pathmaker) *Formatter {
	return &Formatter{r: r, pm: pm}
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(ui.MutedStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return ui.HeaderStyle
			}
			return ui.CellStyle
		}).
		Headers(headers...)
}

// rel returns p relative to the source root.
func (f *Formatter) rel(p string) string {
	r, err := filepath.Rel(f.pm.Root(), p)
	if err != nil || strings.HasPrefix(r, "..") {
		return p
	}
	return filepath.ToSlash(r)
}

// Title formats a section title.
func Title(s string) string {
	return ui.TitleStyle.Render(s)
}

// Packages formats packages and their number of components.
func (f *Formatter) Packages() string {
	t := newTable("package", "components")
	for _, pc := range f.r.Packages {
		t.Row(pc.Package, strconv.Itoa(len(pc.Components)))
	}
	return t.String()
}

// ComponentTree formats packages and their components as a tree.
func (f *Formatter) ComponentTree() string {
	root := tree.New()
	for _, pc := range f.r.Packages {
		root.Child(componentTree(pc.Package, pc.Components))
	}
	return root.String()
}

// componentTree builds a tree of components sharing path prefixes.
func componentTree(name string, cmps []string) *tree.Tree {
	t := tree.Root(name)
	var children []string
	sub := make(map[string][]string)
	for _, c := range cmps {
		head, rest, _ := strings.Cut(c, "/")
		if _, ok := sub[head]; !ok {
			children = append(children, head)
			sub[head] = nil
		}
		if rest != "" {
			sub[head] = append(sub[head], rest)
		}
	}
	for _, c := range children {
		if c == "" {
			t.Child(ui.MutedStyle.Render("(package root)"))
			continue
		}
		if len(sub[c]) == 0 {
			t.Child(c)
			continue
		}
		t.Child(componentTree(c, sub[c]))
	}
	return t
}

// CommandsSummary formats the number of commands per kind.
func (f *Formatter) CommandsSummary() string {
	t := newTable("kind", "files")
	for _, k := range depparser.FileKinds {
		t.Row(k.String(), strconv.Itoa(len(f.r.Commands[k])))
	}
	return t.String()
}

// Selected returns commands of kind that match the filters.
func (f *Formatter) Selected(kind depparser.Kind) []*depparser.FileCommand {
	var cmds []*depparser.FileCommand
	for _, c := range f.r.Commands[kind] {
		if slices.ContainsFunc(f.Filters, func(flt Filter) bool { return !flt.match(c) }) {
			continue
		}
		cmds = append(cmds, c)
	}
	return cmds
}

// Commands formats commands of kind that match the filters.
func (f *Formatter) Commands(kind depparser.Kind) string {
	t := newTable("path", "flags", "package", "component", "lib")
	for _, c := range f.Selected(kind) {
		t.Row(f.rel(c.Path), strings.Join(c.Flags(), ","), c.Package, c.Component, c.Lib)
	}
	return t.String()
}

// UnresolvedSummary formats the number of unresolved packages,
// components and files.
func (f *Formatter) UnresolvedSummary() string {
	n := 0
	for _, cmps := range f.r.UnresolvedComponents(f.pm) {
		n += len(cmps)
	}
	t := newTable("unresolved", "count")
	t.Row("packages", strconv.Itoa(len(f.r.UnresolvedPackages(f.pm))))
	t.Row("components", strconv.Itoa(n))
	t.Row("files", strconv.Itoa(len(f.r.UnresolvedPaths())))
	return t.String()
}

// UnresolvedFiles formats unresolved path expressions and the dep files
// referencing them.
func (f *Formatter) UnresolvedFiles() string {
	t := newTable("package", "component", "path", "referenced by")
	files := f.r.UnresolvedFiles()
	for _, pkg := range slices.Sorted(maps.Keys(files)) {
		cmps := files[pkg]
		for _, cmp := range slices.Sorted(maps.Keys(cmps)) {
			exprs := cmps[cmp]
			for _, expr := range slices.Sorted(maps.Keys(exprs)) {
				var refs []string
				for _, dep := range exprs[expr] {
					refs = append(refs, f.rel(dep))
				}
				t.Row(pkg, cmp, f.rel(expr), strings.Join(refs, "\n"))
			}
		}
	}
	return t.String()
}

// Errors formats line errors.
func (f *Formatter) Errors() string {
	t := newTable("location", "line", "error")
	for _, e := range f.r.Errors {
		t.Row(fmt.Sprintf("%s:%d", f.rel(e.DepPath), e.Line), e.Text, ui.ErrorStyle.Render(e.Err.Error()))
	}
	return t.String()
}

// Variables formats variables.
func (f *Formatter) Variables() string {
	t := newTable("name", "type", "value")
	for _, name := range slices.Sorted(maps.Keys(f.r.Vars)) {
		v := f.r.Vars[name]
		t.Row(name, v.Type().String(), v.GoString())
	}
	return t.String()
}

// Report formats all sections.
func (f *Formatter) Report() string {
	var sb strings.Builder
	section := func(title, body string) {
		fmt.Fprintf(&sb, "%s\n%s\n\n", Title(title), body)
	}
	section("Variables", f.Variables())
	section("Packages", f.Packages())
	section("Components", f.ComponentTree())
	section("Commands", f.CommandsSummary())
	for _, k := range depparser.FileKinds {
		if len(f.Selected(k)) == 0 {
			continue
		}
		section(k.String(), f.Commands(k))
	}
	if len(f.r.Unresolved) > 0 {
		section("Unresolved", f.UnresolvedSummary())
		section("Unresolved files", f.UnresolvedFiles())
	}
	if len(f.r.Errors) > 0 {
		section("Errors", f.Errors())
	}
	return sb.String()
}
