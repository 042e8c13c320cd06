// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package dep

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/gzip"
	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"

	"go.chromium.org/infra/build/fwdep/depparser"
	"go.chromium.org/infra/build/fwdep/ui"
)

const archiveUsage = `archive resolved files

 $ fwdep dep archive -C <dir> [-o <file.tar.gz>] [<pkg>:<cmp>]

creates tar.gz of all resolved files, with paths relative to
the source root. default output is <component>_src.tar.gz.
`

// cmdArchive returns the Command for the `archive` subcommand provided by this package.
func cmdArchive() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "archive [-C <dir>] [-o <file.tar.gz>] [<pkg>:<cmp>]",
		ShortDesc: "archive resolved files",
		LongDesc:  archiveUsage,
		CommandRun: func() subcommands.CommandRun {
			c := &archiveRun{}
			c.init()
			return c
		},
	}
}

type archiveRun struct {
	subcommands.CommandRunBase
	opts   options
	output string
}

func (c *archiveRun) init() {
	c.opts.RegisterFlags(&c.Flags)
	c.Flags.StringVar(&c.output, "o", "", "output filename. default is <component>_src.tar.gz")
}

func (c *archiveRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	return exitCode(c.run(ctx, args), archiveUsage)
}

func (c *archiveRun) run(ctx context.Context, args []string) error {
	r, pm, err := c.opts.resolve(ctx, args)
	if err != nil {
		return err
	}
	fname := c.output
	if fname == "" {
		name := "project"
		if r.Top != nil && r.Top.Component != "" {
			name = path.Base(r.Top.Component)
		}
		fname = name + "_src.tar.gz"
	}
	n, err := archive(ctx, fname, pm.Root(), r.Commands)
	if err != nil {
		return err
	}
	ui.Default.PrintLines(fmt.Sprintf("archive file: %s (%d files)\n", fname, n))
	return nil
}

// archive writes resolved files of cmds to fname as tar.gz, and returns
// the number of archived files.
func archive(ctx context.Context, fname, root string, cmds map[depparser.Kind][]*depparser.FileCommand) (n int, err error) {
	f, err := os.Create(fname)
	if err != nil {
		return 0, err
	}
	defer func() {
		cerr := f.Close()
		if err == nil {
			err = cerr
		}
	}()
	gw := gzip.NewWriter(f)
	defer func() {
		cerr := gw.Close()
		if err == nil {
			err = cerr
		}
	}()
	tw := tar.NewWriter(gw)
	defer func() {
		cerr := tw.Close()
		if err == nil {
			err = cerr
		}
	}()

	seen := make(map[string]bool)
	add := func(p string) error {
		if seen[p] {
			return nil
		}
		seen[p] = true
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		log.Debugf("packing %s", rel)
		err = addFile(tw, p, filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		n++
		return nil
	}
	for _, kind := range depparser.FileKinds {
		for _, cmd := range cmds[kind] {
			if err := ctx.Err(); err != nil {
				return n, err
			}
			err := filepath.WalkDir(cmd.Path, func(p string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if d.IsDir() {
					return nil
				}
				return add(p)
			})
			if err != nil {
				return n, err
			}
		}
	}
	return n, tw.Flush()
}

func addFile(tw *tar.Writer, fname, name string) error {
	f, err := os.Open(fname)
	if err != nil {
		return err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return err
	}
	hdr, err := tar.FileInfoHeader(fi, "")
	if err != nil {
		return fmt.Errorf("failed to create header for %s: %w", fname, err)
	}
	hdr.Name = name
	err = tw.WriteHeader(hdr)
	if err != nil {
		return fmt.Errorf("failed to write header for %s: %w", fname, err)
	}
	_, err = io.Copy(tw, f)
	if err != nil {
		return fmt.Errorf("failed to write data of %s: %w", fname, err)
	}
	return nil
}
