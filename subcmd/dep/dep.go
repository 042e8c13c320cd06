// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package dep is dep subcommand to resolve dep files of a firmware project.
package dep

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"
	"go.chromium.org/luci/common/flag/stringlistflag"

	"go.chromium.org/infra/build/fwdep/depparser"
	"go.chromium.org/infra/build/fwdep/projcfg"
	"go.chromium.org/infra/build/fwdep/ui"
)

// Cmd returns the Command for the `dep` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "dep <subcommand> [-C <dir>] ...",
		ShortDesc: "resolve dep files",
		LongDesc:  "resolve dep files of a firmware project.",
		CommandRun: func() subcommands.CommandRun {
			c := &run{
				app: &cli.Application{
					Name:  "fwdep dep",
					Title: "tool to resolve dep files",
					Commands: []*subcommands.Command{
						cmdReport(),
						cmdLs(),
						cmdComponents(),
						cmdHash(),
						cmdArchive(),
						cmdDump(),
						cmdCheck(),
						subcommands.CmdHelp,
					},
				},
			}
			c.Flags.Usage = func() {
				subcommands.Usage(os.Stderr, c.app, true)
			}
			return c
		},
	}
}

type run struct {
	subcommands.CommandRunBase
	app *cli.Application
}

func (c *run) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	c.app.Context = func(context.Context) context.Context {
		return ctx
	}
	return subcommands.Run(c.app, args)
}

// options are flags shared by dep subcommands.
type options struct {
	dir     string
	config  string
	depfile string
	toolset string
	vars    stringlistflag.Flag
}

func (o *options) RegisterFlags(flagSet *flag.FlagSet) {
	flagSet.StringVar(&o.dir, "C", ".", "work area directory")
	flagSet.StringVar(&o.config, "config", projcfg.DefaultFilename, "config filename (relative to -C)")
	flagSet.StringVar(&o.depfile, "f", "", "top-level dep file. default is config's depfile")
	flagSet.StringVar(&o.toolset, "toolset", "", "toolset (synth or sim). default is config's toolset")
	flagSet.Var(&o.vars, "D", "define variable name=value before parsing dep files. can be repeated")
}

// load loads the config of the work area.
// It uses the default config if the config file doesn't exist.
func (o *options) load(ctx context.Context) (*projcfg.Config, error) {
	fname := o.config
	if !filepath.IsAbs(fname) {
		fname = filepath.Join(o.dir, fname)
	}
	cfg, err := projcfg.Load(ctx, fname)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debugf("no config %s, use default", fname)
		cfg = projcfg.Default()
		cfg.SrcDir = filepath.Join(o.dir, cfg.SrcDir)
		return cfg, nil
	}
	return cfg, err
}

// target is a top-level dep file to resolve.
type target struct {
	pkg, cmp, name string
}

func (t target) String() string {
	return fmt.Sprintf("%s:%s/%s", t.pkg, t.cmp, t.name)
}

// parseTarget parses "pkg:cmp" of arg. If arg is empty, it uses the
// config's top.
func (o *options) parseTarget(cfg *projcfg.Config, arg string) (target, error) {
	if arg == "" {
		arg = cfg.Top
	}
	if arg == "" {
		return target{}, fmt.Errorf("no target given and no top in config: %w", flag.ErrHelp)
	}
	pkg, cmp, err := depparser.ParseComponent(arg)
	if err != nil {
		return target{}, err
	}
	if pkg == "" {
		return target{}, fmt.Errorf("target %q: missing package: %w", arg, flag.ErrHelp)
	}
	name := o.depfile
	if name == "" {
		name = cfg.DepFile
	}
	return target{pkg: pkg, cmp: cmp, name: name}, nil
}

// resolve parses the target given in args.
// It returns the result even if there are errors in dep files.
func (o *options) resolve(ctx context.Context, args []string) (*depparser.Result, *depparser.Pathmaker, error) {
	if len(args) > 1 {
		return nil, nil, fmt.Errorf("too many targets %q: %w", args, flag.ErrHelp)
	}
	var arg string
	if len(args) == 1 {
		arg = args[0]
	}
	cfg, err := o.load(ctx)
	if err != nil {
		return nil, nil, err
	}
	t, err := o.parseTarget(cfg, arg)
	if err != nil {
		return nil, nil, err
	}
	pm, err := depparser.NewPathmaker(cfg.SrcDir)
	if err != nil {
		return nil, nil, err
	}
	p := depparser.New(pm, cfg.Options(o.toolset, o.vars))
	spin := ui.Default.NewSpinner()
	spin.Start("resolving %s", t)
	r, err := p.Parse(ctx, t.pkg, t.cmp, t.name)
	spin.Stop(err)
	if err != nil {
		return nil, nil, err
	}
	log.Infof("%s: %d files, %d packages, %d errors, %d unresolved", t, len(r.Files), len(r.Packages), len(r.Errors), len(r.Unresolved))
	return r, pm, nil
}

// exitCode prints err and returns the exit code.
func exitCode(err error, usage string) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		fmt.Fprintf(os.Stderr, "%v\n%s\n", err, usage)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return 1
}

// output returns a writer for fname, or stdout if fname is empty.
func output(fname string) (io.WriteCloser, error) {
	if fname == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(fname)
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
