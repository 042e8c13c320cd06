// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package depparser

import (
	"fmt"
	"iter"
)

// DepFile is a parsed dep file.
type DepFile struct {
	Package   string
	Component string
	// Name is the file name relative to the include directory.
	Name string
	// Path is the absolute path, and identifies the DepFile.
	Path string
	// Parent is the dep file that included this file first, or nil.
	Parent *DepFile

	// Entries are commands in line order, or reversed for files
	// parsed in reverse order.
	Entries    []Command
	Errors     []*LineError
	Unresolved []Unresolved
	Children   []*DepFile

	// Warnings are lines accepted with a warning, e.g. redefinition.
	Warnings []*LineError

	// Vars is the variables visible when parsing of the file finished.
	Vars map[string]Value

	// parsing is true while lines of the file are being read.
	parsing bool
}

func (f *DepFile) String() string {
	return fmt.Sprintf("depfile %s | %s:%s - entries %d, errors %d, unresolved %d",
		f.Path, f.Package, f.Component, len(f.Entries), len(f.Errors), len(f.Unresolved))
}

// Commands returns file commands of f, replacing each include with the
// commands of the included file in place.
// An include of a file that is already being iterated is skipped, so
// cyclic includes are visited once.
func (f *DepFile) Commands() iter.Seq[*FileCommand] {
	return func(yield func(*FileCommand) bool) {
		f.yieldCommands(make(map[*DepFile]bool), yield)
	}
}

func (f *DepFile) yieldCommands(active map[*DepFile]bool, yield func(*FileCommand) bool) bool {
	active[f] = true
	defer delete(active, f)
	for _, en := range f.Entries {
		switch en := en.(type) {
		case *IncludeCommand:
			if en.DepFile == nil || active[en.DepFile] {
				continue
			}
			if !en.DepFile.yieldCommands(active, yield) {
				return false
			}
		case *FileCommand:
			if !yield(en) {
				return false
			}
		}
	}
	return true
}

// Files returns f and the files it includes, directly or indirectly,
// depth first. Each file is returned once.
func (f *DepFile) Files() iter.Seq[*DepFile] {
	return func(yield func(*DepFile) bool) {
		f.yieldFiles(make(map[*DepFile]bool), yield)
	}
}

func (f *DepFile) yieldFiles(seen map[*DepFile]bool, yield func(*DepFile) bool) bool {
	if seen[f] {
		return true
	}
	seen[f] = true
	if !yield(f) {
		return false
	}
	for _, c := range f.Children {
		if !c.yieldFiles(seen, yield) {
			return false
		}
	}
	return true
}
