// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package help provides help subcommand.
package help

import (
	"flag"
	"fmt"
	"io"

	"github.com/maruel/subcommands"
)

// Layout describes the work area layout and the dep file syntax.
const Layout = `Work area layout:

  <dir>/fwdep.star                                   config (optional)
  <dir>/src/<pkg>/<cmp>/firmware/cfg/*.dep           dep files, setup and util
  <dir>/src/<pkg>/<cmp>/firmware/hdl/*               src
  <dir>/src/<pkg>/<cmp>/addr_table/*                 addrtab
  <dir>/src/<pkg>/<cmp>/firmware/cgn/*               iprepo

Dep file lines:

  # comment
  @name = <expr>                 define a variable. the first definition wins
  ?<expr>? <line>                use <line> only if <expr> is true
  <kind> [flags] [files...]      include, setup, util, src, addrtab or iprepo

  $name and ${name} in a line are replaced by the value of the variable.
  flags: -c <pkg>:<cmp>, --cd <dir>, and per kind -l <lib>, -n,
  --vhdl2008, -u synth,sim, -f, -t.
`

// Cmd returns the Command for the `help` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "help [<command>|-advanced|-layout]",
		ShortDesc: "prints help about a command",
		LongDesc:  "Prints commands and globally-available flags or help about a specific command.\nUse -advanced to display all commands.\nUse -layout to display the work area layout and dep file syntax.",
		CommandRun: func() subcommands.CommandRun {
			ret := &helpCmdRun{}
			ret.Flags.BoolVar(&ret.advanced, "advanced", false, "show advanced commands")
			ret.Flags.BoolVar(&ret.layout, "layout", false, "show work area layout and dep file syntax")
			return ret
		},
	}
}

type helpCmdRun struct {
	subcommands.CommandRunBase
	advanced bool
	layout   bool
}

func (h *helpCmdRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	if h.layout {
		fmt.Fprint(a.GetOut(), Layout)
		return 0
	}
	if len(args) == 0 {
		usage(a.GetOut(), a, h.advanced)
		return 0
	}
	return subcommands.CmdHelp.CommandRun().Run(a, args, env)
}

// usage prints subcommands, then global flags.
func usage(w io.Writer, a subcommands.Application, advanced bool) {
	subcommands.Usage(w, a, advanced)
	fmt.Fprintln(w, "Common flags accepted by all commands:")
	flag.CommandLine.SetOutput(w)
	flag.PrintDefaults()
	fmt.Fprintln(w, "\nRun 'fwdep help -layout' for the work area layout and dep file syntax.")
}
