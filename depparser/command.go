// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package depparser

import (
	"fmt"
	"strings"
)

// Command is an entry of a dep file, either *FileCommand or *IncludeCommand.
type Command interface {
	// CommandKind returns the kind of the command.
	CommandKind() Kind
	// FilePath returns the absolute path of the command target.
	FilePath() string

	isCommand()
}

// FileCommand refers to a build artifact.
type FileCommand struct {
	Kind      Kind   `json:"kind"`
	Path      string `json:"path"`
	Package   string `json:"package"`
	Component string `json:"component"`
	// Lib is the library a src file is compiled into, or "".
	Lib string `json:"lib,omitempty"`
	// Include is false when the file must not be added to projects.
	Include bool `json:"include"`
	// TopLevel marks a top-level address table.
	TopLevel bool `json:"toplevel,omitempty"`
	// VHDL2008 enables VHDL 2008 syntax for a src file.
	VHDL2008 bool `json:"vhdl2008,omitempty"`
	// Finalise marks a setup script to be run last.
	Finalise bool `json:"finalise,omitempty"`
	// UseInSynth and UseInSim tell which flows use a src file.
	UseInSynth bool `json:"synth,omitempty"`
	UseInSim   bool `json:"sim,omitempty"`
}

func (*FileCommand) isCommand() {}

// CommandKind implements Command.
func (c *FileCommand) CommandKind() Kind { return c.Kind }

// FilePath implements Command.
func (c *FileCommand) FilePath() string { return c.Path }

// Equal reports whether c and o refer to the same file in the same library.
func (c *FileCommand) Equal(o *FileCommand) bool {
	return c.Path == o.Path && c.Lib == o.Lib
}

// Flags returns names of the flags set in c.
func (c *FileCommand) Flags() []string {
	var flags []string
	if !c.Include {
		flags = append(flags, "noinclude")
	}
	if c.TopLevel {
		flags = append(flags, "toplevel")
	}
	if c.VHDL2008 {
		flags = append(flags, "vhdl2008")
	}
	if c.UseInSynth {
		flags = append(flags, "synth")
	}
	if c.UseInSim {
		flags = append(flags, "sim")
	}
	if c.Finalise {
		flags = append(flags, "finalise")
	}
	return flags
}

func (c *FileCommand) String() string {
	flags := "none"
	if f := c.Flags(); len(f) > 0 {
		flags = strings.Join(f, ",")
	}
	s := fmt.Sprintf("{ %s %q, flags: %s, component: '%s:%s'", c.Kind, c.Path, flags, c.Package, c.Component)
	if c.Lib != "" {
		s += fmt.Sprintf(", lib: %s", c.Lib)
	}
	return s + " }"
}

// IncludeCommand refers to another dep file.
type IncludeCommand struct {
	Path      string
	Package   string
	Component string
	// DepFile is the parsed dep file, owned by the parser registry.
	DepFile *DepFile
}

func (*IncludeCommand) isCommand() {}

// CommandKind implements Command.
func (c *IncludeCommand) CommandKind() Kind { return KindInclude }

// FilePath implements Command.
func (c *IncludeCommand) FilePath() string { return c.Path }

func (c *IncludeCommand) String() string {
	return fmt.Sprintf("{ include %q, component: '%s:%s' }", c.Path, c.Package, c.Component)
}
