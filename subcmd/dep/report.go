// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package dep

import (
	"context"
	"fmt"
	"os"

	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"
	"go.chromium.org/luci/common/flag/stringlistflag"

	"go.chromium.org/infra/build/fwdep/depparser/depfmt"
)

const reportUsage = `report resolved dep files

 $ fwdep dep report -C <dir> [-filter field=regexp]... [<pkg>:<cmp>]

prints variables, packages, components, commands, unresolved
files and errors of dep files of <pkg>:<cmp>, or config's top.
-filter selects commands shown. fields are path, flags,
package, component and lib.
`

// cmdReport returns the Command for the `report` subcommand provided by this package.
func cmdReport() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "report [-C <dir>] [<pkg>:<cmp>]",
		ShortDesc: "report resolved dep files",
		LongDesc:  reportUsage,
		CommandRun: func() subcommands.CommandRun {
			c := &reportRun{}
			c.init()
			return c
		},
	}
}

type reportRun struct {
	subcommands.CommandRunBase
	opts    options
	filters stringlistflag.Flag
}

func (c *reportRun) init() {
	c.opts.RegisterFlags(&c.Flags)
	c.Flags.Var(&c.filters, "filter", "field=regexp to select commands. can be repeated")
}

func (c *reportRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	return exitCode(c.run(ctx, args), reportUsage)
}

func (c *reportRun) run(ctx context.Context, args []string) error {
	var filters []depfmt.Filter
	for _, s := range c.filters {
		f, err := depfmt.ParseFilter(s)
		if err != nil {
			return err
		}
		filters = append(filters, f)
	}
	r, pm, err := c.opts.resolve(ctx, args)
	if err != nil {
		return err
	}
	f := depfmt.New(r, pm)
	f.Filters = filters
	fmt.Fprint(os.Stdout, f.Report())
	return nil
}
