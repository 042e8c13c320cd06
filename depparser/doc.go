// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package depparser resolves firmware dependency files (".dep" files)
// into ordered lists of build artifacts.
//
// A work area is a source root holding packages. A package is a top-level
// directory, a component is a slash-separated path inside a package, and
// each component keeps its artifacts under fixed per-kind directories
// (see Pathmaker).
//
// A dep file is line oriented:
//
//	# comment
//	@name = expression
//	?expression? directive ...
//	include [-c pkg:cmp] [--cd dir] [file...]
//	setup   [-c pkg:cmp] [--cd dir] [-f] [file...]
//	util    [-c pkg:cmp] [--cd dir] [file...]
//	src     [-c pkg:cmp] [--cd dir] [-l lib] [-n] [--vhdl2008] file...
//	addrtab [-c pkg:cmp] [--cd dir] [-t] [file...]
//	iprepo  [-c pkg:cmp] [--cd dir] [file...]
//
// `$name` and `${name}` are replaced with variable values before a
// directive is parsed. Variables live in a single scope shared by every
// file of the tree, and the first definition of a name wins.
//
// Parser.Parse walks the include tree depth first, parsing each physical
// file once, and returns a Result with per-kind command lists
// deduplicated by (path, library), the package/component index, the
// library set, and the per-line errors and unresolved file expressions
// collected from every file.
package depparser
