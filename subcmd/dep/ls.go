// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package dep

import (
	"context"
	"flag"
	"fmt"
	"io"
	"path/filepath"

	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"

	"go.chromium.org/infra/build/fwdep/depparser"
)

const lsUsage = `list resolved files of a kind

 $ fwdep dep ls -C <dir> [-o <file>] <kind> [<pkg>:<cmp>]

prints paths of files of <kind> (setup, util, src, addrtab
or iprepo) in include order, one per line.
`

// cmdLs returns the Command for the `ls` subcommand provided by this package.
func cmdLs() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "ls [-C <dir>] <kind> [<pkg>:<cmp>]",
		ShortDesc: "list resolved files of a kind",
		LongDesc:  lsUsage,
		CommandRun: func() subcommands.CommandRun {
			c := &lsRun{}
			c.init()
			return c
		},
	}
}

type lsRun struct {
	subcommands.CommandRunBase
	opts   options
	output string
	rel    bool
}

func (c *lsRun) init() {
	c.opts.RegisterFlags(&c.Flags)
	c.Flags.StringVar(&c.output, "o", "", "output filename. default is stdout")
	c.Flags.BoolVar(&c.rel, "rel", false, "print paths relative to the source root")
}

func (c *lsRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	return exitCode(c.run(ctx, args), lsUsage)
}

func (c *lsRun) run(ctx context.Context, args []string) (err error) {
	if len(args) == 0 {
		return fmt.Errorf("missing kind: %w", flag.ErrHelp)
	}
	kind, err := depparser.ParseKind(args[0])
	if err != nil || kind == depparser.KindInclude {
		return fmt.Errorf("bad kind %q: %w", args[0], flag.ErrHelp)
	}
	r, pm, err := c.opts.resolve(ctx, args[1:])
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
	return writeFiles(w, r.Commands[kind], pm.Root(), c.rel)
}

func writeFiles(w io.Writer, cmds []*depparser.FileCommand, root string, rel bool) error {
	for _, cmd := range cmds {
		p := cmd.Path
		if rel {
			r, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			p = filepath.ToSlash(r)
		}
		_, err := fmt.Fprintln(w, p)
		if err != nil {
			return err
		}
	}
	return nil
}
