// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package dep

import (
	"context"
	"flag"
	"fmt"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"github.com/maruel/subcommands"
	"golang.org/x/sync/errgroup"

	"go.chromium.org/luci/common/cli"

	"go.chromium.org/infra/build/fwdep/depparser"
	"go.chromium.org/infra/build/fwdep/projcfg"
	"go.chromium.org/infra/build/fwdep/ui"
)

const checkUsage = `check dep files of targets

 $ fwdep dep check -C <dir> <pkg>:<cmp>...

resolves dep files of targets concurrently, and fails if
any target has errors or unresolved files.
`

// cmdCheck returns the Command for the `check` subcommand provided by this package.
func cmdCheck() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "check [-C <dir>] <pkg>:<cmp>...",
		ShortDesc: "check dep files of targets",
		LongDesc:  checkUsage,
		CommandRun: func() subcommands.CommandRun {
			c := &checkRun{}
			c.init()
			return c
		},
	}
}

type checkRun struct {
	subcommands.CommandRunBase
	opts options
	jobs int
}

func (c *checkRun) init() {
	c.opts.RegisterFlags(&c.Flags)
	c.Flags.IntVar(&c.jobs, "j", runtime.NumCPU(), "number of targets resolved in parallel")
}

func (c *checkRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	return exitCode(c.run(ctx, args), checkUsage)
}

// checkResult is a result of a target.
type checkResult struct {
	target target
	files  int
	err    error
	dur    time.Duration
}

func (c *checkRun) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no targets: %w", flag.ErrHelp)
	}
	cfg, err := c.opts.load(ctx)
	if err != nil {
		return err
	}
	var targets []target
	for _, arg := range args {
		t, err := c.opts.parseTarget(cfg, arg)
		if err != nil {
			return err
		}
		targets = append(targets, t)
	}
	results, err := c.check(ctx, cfg, targets)
	if err != nil {
		return err
	}
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			ui.Default.PrintLines(fmt.Sprintf("%s %s %s\n%v\n", ui.ErrorStyle.Render("FAIL"), r.target, ui.FormatDuration(r.dur), r.err))
			continue
		}
		ui.Default.PrintLines(fmt.Sprintf("%s %s %d files %s\n", ui.SuccessStyle.Render("ok"), r.target, r.files, ui.FormatDuration(r.dur)))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d targets failed", failed, len(results))
	}
	return nil
}

// check resolves targets concurrently. Each target has its own parser.
// Errors of targets are reported in results, and the returned error is
// only for cancellation.
func (c *checkRun) check(ctx context.Context, cfg *projcfg.Config, targets []target) ([]checkResult, error) {
	pm, err := depparser.NewPathmaker(cfg.SrcDir)
	if err != nil {
		return nil, err
	}
	opts := cfg.Options(c.opts.toolset, c.opts.vars)
	results := make([]checkResult, len(targets))
	eg, ctx := errgroup.WithContext(ctx)
	if c.jobs > 0 {
		eg.SetLimit(c.jobs)
	}
	for i, t := range targets {
		eg.Go(func() error {
			started := time.Now()
			p := depparser.New(pm, opts)
			r, err := p.Parse(ctx, t.pkg, t.cmp, t.name)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			results[i] = checkResult{
				target: t,
				err:    err,
				dur:    time.Since(started),
			}
			if r != nil {
				results[i].files = len(r.Files)
				if err == nil {
					results[i].err = r.Err()
				}
			}
			log.Debugf("check %s: %v", t, results[i].err)
			return nil
		})
	}
	err = eg.Wait()
	if err != nil {
		return nil, err
	}
	return results, nil
}
