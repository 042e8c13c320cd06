// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package depparser

import (
	"errors"
	"fmt"
)

var (
	// ErrDepFileNotFound is returned when an included dep file doesn't exist.
	ErrDepFileNotFound = errors.New("dep file not found")

	// ErrMaxDepth is returned when include nesting exceeds Options.MaxDepth.
	ErrMaxDepth = errors.New("include depth exceeded")

	// ErrUnknownKind is returned for a command kind not in the kind table.
	ErrUnknownKind = errors.New("unknown command kind")

	// ErrMalformedComponent is returned for a malformed pkg:cmp notation.
	ErrMalformedComponent = errors.New("malformed component")
)

// Line-level errors. They are recorded in DepFile.Errors wrapped in
// LineError, and never abort parsing of a file.
var (
	ErrAssignment   = errors.New("invalid assignment")
	ErrConditional  = errors.New("invalid conditional")
	ErrSubstitution = errors.New("variable substitution failed")
	ErrCommand      = errors.New("invalid command")
)

// LineError is an error found in a line of a dep file.
type LineError struct {
	Package   string
	Component string
	DepName   string
	DepPath   string
	// Line is 1-based line number.
	Line int
	// Text is the line as it was when the error was found.
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.DepPath, e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// TopLevel is used as the referencing dep file of the top-level dep file.
const TopLevel = "__top__"

// Unresolved is a file expression that matched no file.
type Unresolved struct {
	// Expr is the absolute path expression.
	Expr string
	Kind Kind
	// Package and Component the expression was resolved in.
	Package   string
	Component string
	// DepPackage, DepComponent and DepPath identify the referencing dep file.
	DepPackage   string
	DepComponent string
	DepPath      string
}

func (u Unresolved) String() string {
	return fmt.Sprintf("%s %s (%s:%s) referenced by %s", u.Kind, u.Expr, u.Package, u.Component, u.DepPath)
}
