// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package dep

import (
	"context"
	"fmt"
	"io"

	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"

	"go.chromium.org/infra/build/fwdep/depparser"
)

const componentsUsage = `list referenced components

 $ fwdep dep components -C <dir> [-o <file>] [<pkg>:<cmp>]

prints <pkg>:<cmp> of components referenced by dep files,
in the order they were first referenced.
`

// cmdComponents returns the Command for the `components` subcommand provided by this package.
func cmdComponents() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "components [-C <dir>] [<pkg>:<cmp>]",
		ShortDesc: "list referenced components",
		LongDesc:  componentsUsage,
		CommandRun: func() subcommands.CommandRun {
			c := &componentsRun{}
			c.init()
			return c
		},
	}
}

type componentsRun struct {
	subcommands.CommandRunBase
	opts   options
	output string
}

func (c *componentsRun) init() {
	c.opts.RegisterFlags(&c.Flags)
	c.Flags.StringVar(&c.output, "o", "", "output filename. default is stdout")
}

func (c *componentsRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	return exitCode(c.run(ctx, args), componentsUsage)
}

func (c *componentsRun) run(ctx context.Context, args []string) (err error) {
	r, _, err := c.opts.resolve(ctx, args)
	if err != nil {
		return err
	}
	w, err := output(c.output)
	if err != nil {
		return err
	}
	defer func() {
		cerr := w.Close()
		if err == nil {
			err = cerr
		}
	}()
	return writeComponents(w, r.Packages)
}

func writeComponents(w io.Writer, pkgs []depparser.PackageComponents) error {
	for _, pc := range pkgs {
		for _, cmp := range pc.Components {
			_, err := fmt.Fprintf(w, "%s:%s\n", pc.Package, cmp)
			if err != nil {
				return err
			}
		}
	}
	return nil
}
