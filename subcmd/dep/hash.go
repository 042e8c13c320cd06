// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package dep

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"

	"go.chromium.org/infra/build/fwdep/depparser"
)

const hashUsage = `hash resolved files

 $ fwdep dep hash -C <dir> [-o <file>] [-v] [<pkg>:<cmp>]

prints sha1 hash of contents of all resolved files.
with -v, also prints hash of each file and of each kind.
`

// cmdHash returns the Command for the `hash` subcommand provided by this package.
func cmdHash() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "hash [-C <dir>] [-v] [<pkg>:<cmp>]",
		ShortDesc: "hash resolved files",
		LongDesc:  hashUsage,
		CommandRun: func() subcommands.CommandRun {
			c := &hashRun{}
			c.init()
			return c
		},
	}
}

type hashRun struct {
	subcommands.CommandRunBase
	opts    options
	output  string
	verbose bool
}

func (c *hashRun) init() {
	c.opts.RegisterFlags(&c.Flags)
	c.Flags.StringVar(&c.output, "o", "", "output filename. default is stdout")
	c.Flags.BoolVar(&c.verbose, "v", false, "print hashes of files and kinds")
}

func (c *hashRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	return exitCode(c.run(ctx, args), hashUsage)
}

func (c *hashRun) run(ctx context.Context, args []string) (err error) {
	r, _, err := c.opts.resolve(ctx, args)
	if err != nil {
		return err
	}
	h, err := hashCommands(ctx, r.Commands)
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
	name := "project"
	if r.Top != nil {
		name = r.Top.Package + ":" + r.Top.Component
	}
	return h.write(w, name, c.verbose)
}

type digest struct {
	name string
	sum  string
}

// hashes are sha1 hashes of resolved files.
type hashes struct {
	files   map[depparser.Kind][]digest
	kinds   []digest
	project string
}

// hashCommands hashes files of cmds, in the order of kinds and commands.
// A directory is hashed by its files in lexical order.
func hashCommands(ctx context.Context, cmds map[depparser.Kind][]*depparser.FileCommand) (*hashes, error) {
	h := &hashes{
		files: make(map[depparser.Kind][]digest),
	}
	proj := sha1.New()
	for _, kind := range depparser.FileKinds {
		grp := sha1.New()
		for _, cmd := range cmds[kind] {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			f := sha1.New()
			err := hashPath(cmd.Path, io.MultiWriter(f, grp, proj))
			if err != nil {
				return nil, err
			}
			h.files[kind] = append(h.files[kind], digest{name: cmd.Path, sum: hexSum(f)})
		}
		h.kinds = append(h.kinds, digest{name: kind.String(), sum: hexSum(grp)})
	}
	h.project = hexSum(proj)
	return h, nil
}

func hexSum(h hash.Hash) string {
	return hex.EncodeToString(h.Sum(nil))
}

func hashPath(fname string, w io.Writer) error {
	fi, err := os.Stat(fname)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return copyFile(fname, w)
	}
	return filepath.WalkDir(fname, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		return copyFile(p, w)
	})
}

func copyFile(fname string, w io.Writer) error {
	f, err := os.Open(fname)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", fname, err)
	}
	return nil
}

func (h *hashes) write(w io.Writer, name string, verbose bool) error {
	if !verbose {
		_, err := fmt.Fprintln(w, h.project)
		return err
	}
	var sb strings.Builder
	rule := "#" + strings.Repeat("-", 79) + "\n"
	title := fmt.Sprintf("sha1 hashes for project %q", name)
	fmt.Fprintf(&sb, "# %s\n# %s\n# %s\n\n", strings.Repeat("=", len(title)), title, strings.Repeat("=", len(title)))
	for _, kind := range depparser.FileKinds {
		fmt.Fprintf(&sb, "%s# %s\n%s", rule, kind, rule)
		for _, d := range h.files[kind] {
			fmt.Fprintf(&sb, "%s %s\n", d.sum, d.name)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "%s# Per kind hashes\n%s", rule, rule)
	for _, d := range h.kinds {
		fmt.Fprintf(&sb, "%s %s\n", d.sum, d.name)
	}
	fmt.Fprintf(&sb, "\n%s# Global hash for project %q\n%s", rule, name, rule)
	fmt.Fprintf(&sb, "%s %s\n", h.project, name)
	_, err := io.WriteString(w, sb.String())
	return err
}
