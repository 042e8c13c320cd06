// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package depparser

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// kindDirs is the directory of each kind, relative to a component.
var kindDirs = map[Kind]string{
	KindSrc:     "firmware/hdl",
	KindInclude: "firmware/cfg",
	KindSetup:   "firmware/cfg",
	KindUtil:    "firmware/cfg",
	KindAddrtab: "addr_table",
	KindIprepo:  "firmware/cgn",
}

// kindExts is the extension of a default file name for a kind.
var kindExts = map[Kind]string{
	KindSrc:     "vhd",
	KindInclude: "dep",
	KindAddrtab: "xml",
}

// Match is a file matched by a file expression.
type Match struct {
	// Rel is the path relative to the kind directory.
	Rel string
	// Abs is the absolute path.
	Abs string
}

// Pathmaker maps package, component and command kind to paths in
// a source root.
type Pathmaker struct {
	root string
}

// NewPathmaker returns a Pathmaker for the source root.
// root is made absolute.
func NewPathmaker(root string) (*Pathmaker, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &Pathmaker{root: abs}, nil
}

// Root returns the source root.
func (pm *Pathmaker) Root() string {
	return pm.root
}

// KindDir returns the directory of kind relative to a component.
func KindDir(kind Kind) (string, error) {
	dir, ok := kindDirs[kind]
	if !ok {
		return "", fmt.Errorf("%w: %v", ErrUnknownKind, kind)
	}
	return dir, nil
}

// PackagePath returns the path of the package.
func (pm *Pathmaker) PackagePath(pkg string) string {
	return filepath.Join(pm.root, filepath.FromSlash(pkg))
}

// ComponentPath returns the path of the component in the package.
func (pm *Pathmaker) ComponentPath(pkg, cmp string) string {
	return filepath.Join(pm.root, filepath.FromSlash(pkg), filepath.FromSlash(cmp))
}

// PackageExists reports whether the package exists.
func (pm *Pathmaker) PackageExists(pkg string) bool {
	_, err := os.Stat(pm.PackagePath(pkg))
	return err == nil
}

// ComponentExists reports whether the component exists in the package.
func (pm *Pathmaker) ComponentExists(pkg, cmp string) bool {
	_, err := os.Stat(pm.ComponentPath(pkg, cmp))
	return err == nil
}

// Path returns the path of name for kind in pkg:cmp, under cd if cd is
// not empty. name may be empty to get the directory.
func (pm *Pathmaker) Path(pkg, cmp string, kind Kind, cd, name string) (string, error) {
	dir, err := KindDir(kind)
	if err != nil {
		return "", err
	}
	p := path.Join(pkg, cmp, dir, cd, name)
	return filepath.Join(pm.root, filepath.FromSlash(p)), nil
}

// DefaultName returns the default file name of kind for the component
// leaf name, e.g. "foo.vhd" for src of ".../foo".
func DefaultName(kind Kind, leaf string) (string, error) {
	ext, ok := kindExts[kind]
	if !ok {
		return "", fmt.Errorf("%w: no default file name for %v", ErrUnknownKind, kind)
	}
	return leaf + "." + ext, nil
}

// Glob expands the file expression expr for kind in pkg:cmp.
// It returns the absolute path expression and the matched files,
// sorted by path. No match is not an error.
func (pm *Pathmaker) Glob(pkg, cmp string, kind Kind, expr, cd string) (string, []Match, error) {
	pathExpr, err := pm.Path(pkg, cmp, kind, cd, expr)
	if err != nil {
		return "", nil, err
	}
	kindPath, err := pm.Path(pkg, cmp, kind, cd, "")
	if err != nil {
		return "", nil, err
	}
	paths, err := filepath.Glob(pathExpr)
	if err != nil {
		return pathExpr, nil, fmt.Errorf("bad file expression %q: %w", expr, err)
	}
	if log.GetLevel() <= log.DebugLevel {
		log.Debugf("glob %s:%s %s %q -> %d", pkg, cmp, kind, pathExpr, len(paths))
	}
	matches := make([]Match, 0, len(paths))
	for _, p := range paths {
		rel, err := filepath.Rel(kindPath, p)
		if err != nil {
			rel = p
		}
		matches = append(matches, Match{Rel: filepath.ToSlash(rel), Abs: p})
	}
	return pathExpr, matches, nil
}
