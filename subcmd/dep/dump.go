// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package dep

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"

	"go.chromium.org/infra/build/fwdep/depparser"
)

const dumpUsage = `dump resolved dep files as json

 $ fwdep dep dump -C <dir> [-o <file.json[.zst]>] [<pkg>:<cmp>]

writes commands, packages, libs, variables, errors and
unresolved files as json. output is compressed with zstd
if the filename ends with .zst.
`

// cmdDump returns the Command for the `dump` subcommand provided by this package.
func cmdDump() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "dump [-C <dir>] [-o <file>] [<pkg>:<cmp>]",
		ShortDesc: "dump resolved dep files as json",
		LongDesc:  dumpUsage,
		Advanced:  true,
		CommandRun: func() subcommands.CommandRun {
			c := &dumpRun{}
			c.init()
			return c
		},
	}
}

type dumpRun struct {
	subcommands.CommandRunBase
	opts   options
	output string
}

func (c *dumpRun) init() {
	c.opts.RegisterFlags(&c.Flags)
	c.Flags.StringVar(&c.output, "o", "", "output filename. default is stdout")
}

func (c *dumpRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	return exitCode(c.run(ctx, args), dumpUsage)
}

// dumpError is a line error in a dump.
type dumpError struct {
	Path  string `json:"path"`
	Line  int    `json:"line"`
	Text  string `json:"text"`
	Error string `json:"error"`
}

// dumpRecord is the json format of a dump.
type dumpRecord struct {
	RunID  string    `json:"run_id"`
	Time   time.Time `json:"time"`
	SrcDir string    `json:"srcdir"`
	Top    string    `json:"top,omitempty"`

	*depparser.Result
	Errors   []dumpError `json:"errors"`
	Warnings []dumpError `json:"warnings"`
}

func newDumpRecord(r *depparser.Result, srcdir string) dumpRecord {
	d := dumpRecord{
		RunID:  uuid.New().String(),
		Time:   time.Now(),
		SrcDir: srcdir,
		Result: r,
	}
	if r.Top != nil {
		d.Top = r.Top.Path
	}
	conv := func(errs []*depparser.LineError) []dumpError {
		var ds []dumpError
		for _, e := range errs {
			ds = append(ds, dumpError{
				Path:  e.DepPath,
				Line:  e.Line,
				Text:  e.Text,
				Error: e.Err.Error(),
			})
		}
		return ds
	}
	d.Errors = conv(r.Errors)
	d.Warnings = conv(r.Warnings)
	return d
}

func (c *dumpRun) run(ctx context.Context, args []string) (err error) {
	r, pm, err := c.opts.resolve(ctx, args)
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
	return writeDump(w, newDumpRecord(r, pm.Root()), strings.HasSuffix(c.output, ".zst"))
}

func writeDump(w io.Writer, d dumpRecord, compress bool) (err error) {
	if compress {
		var zw *zstd.Encoder
		zw, err = zstd.NewWriter(w)
		if err != nil {
			return err
		}
		defer func() {
			cerr := zw.Close()
			if err == nil {
				err = cerr
			}
		}()
		w = zw
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	err = enc.Encode(d)
	if err != nil {
		return fmt.Errorf("failed to encode dump: %w", err)
	}
	return nil
}
