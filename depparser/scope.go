// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package depparser

import (
	"fmt"
	"maps"
	"regexp"
	"strings"
)

// varNameRE matches a variable name, e.g. "a", "hls.cflags".
var varNameRE = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*(?:\.[a-zA-Z][a-zA-Z0-9_]*)*$`)

// Scope is a variable scope.
// One Scope is shared by all dep files in a tree, and a name is bound
// only once.
type Scope struct {
	vars  map[string]Value
	names []string
}

// NewScope creates an empty scope.
func NewScope() *Scope {
	return &Scope{vars: make(map[string]Value)}
}

// Lookup looks up a variable by name.
func (s *Scope) Lookup(name string) (Value, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// Define binds name to v. It returns false if name is already bound,
// in which case the scope is unchanged.
func (s *Scope) Define(name string, v Value) bool {
	if _, ok := s.vars[name]; ok {
		return false
	}
	s.vars[name] = v
	s.names = append(s.names, name)
	return true
}

// Names returns variable names in definition order.
func (s *Scope) Names() []string {
	return append([]string(nil), s.names...)
}

// Len returns number of variables.
func (s *Scope) Len() int {
	return len(s.names)
}

// Snapshot returns a copy of the variables.
func (s *Scope) Snapshot() map[string]Value {
	return maps.Clone(s.vars)
}

// ParseOverride parses a "name=value" override.
// value is parsed with ParseLiteral.
func ParseOverride(arg string) (string, Value, error) {
	name, value, ok := strings.Cut(arg, "=")
	if !ok {
		return "", Value{}, fmt.Errorf("override %q: want name=value", arg)
	}
	name = strings.TrimSpace(name)
	if !varNameRE.MatchString(name) {
		return "", Value{}, fmt.Errorf("override %q: invalid variable name %q", arg, name)
	}
	return name, ParseLiteral(value), nil
}
