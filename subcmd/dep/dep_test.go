// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package dep

import (
	"archive/tar"
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"go.chromium.org/infra/build/fwdep/depparser"
)

func setupWorkArea(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for k, v := range files {
		fname := filepath.Join(dir, filepath.FromSlash(k))
		err := os.MkdirAll(filepath.Dir(fname), 0755)
		if err != nil {
			t.Fatal(err)
		}
		err = os.WriteFile(fname, []byte(v), 0644)
		if err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

var workArea = map[string]string{
	"fwdep.star": `
top = "boards:kc705"
variables = {"board": "kc705"}
`,
	"src/boards/kc705/firmware/cfg/top.dep":       "include -c ipbus:core\nsrc top_$board.vhd\naddrtab top.xml\n",
	"src/boards/kc705/firmware/cfg/broken.dep":    "src nosuch.vhd\n",
	"src/boards/kc705/firmware/hdl/top_kc705.vhd": "entity top",
	"src/boards/kc705/addr_table/top.xml":         "<node/>",
	"src/ipbus/core/firmware/cfg/core.dep":        "src ipbus_core.vhd -l ipbus\n",
	"src/ipbus/core/firmware/hdl/ipbus_core.vhd":  "entity ipbus_core",
}

func TestParseTarget(t *testing.T) {
	ctx := context.Background()
	dir := setupWorkArea(t, workArea)
	o := &options{dir: dir, config: "fwdep.star"}
	cfg, err := o.load(ctx)
	if err != nil {
		t.Fatalf("load=_, %v; want nil err", err)
	}
	for _, tc := range []struct {
		arg     string
		depfile string
		want    target
		wantErr bool
	}{
		{arg: "", want: target{pkg: "boards", cmp: "kc705", name: "top.dep"}},
		{arg: "ipbus:core", want: target{pkg: "ipbus", cmp: "core", name: "top.dep"}},
		{arg: "ipbus:core", depfile: "core.dep", want: target{pkg: "ipbus", cmp: "core", name: "core.dep"}},
		{arg: "ipbus:", want: target{pkg: "ipbus", name: "top.dep"}},
		{arg: "core", wantErr: true},
		{arg: "a:b:c", wantErr: true},
	} {
		o.depfile = tc.depfile
		got, err := o.parseTarget(cfg, tc.arg)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseTarget(%q)=%v, nil; want err", tc.arg, got)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("parseTarget(%q)=%v, %v; want %v, nil", tc.arg, got, err, tc.want)
		}
	}
}

func TestParseTargetNoTop(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	o := &options{dir: dir, config: "fwdep.star"}
	cfg, err := o.load(ctx)
	if err != nil {
		t.Fatalf("load=_, %v; want nil err", err)
	}
	if got, want := cfg.SrcDir, filepath.Join(dir, "src"); got != want {
		t.Errorf("cfg.SrcDir=%q; want %q", got, want)
	}
	_, err = o.parseTarget(cfg, "")
	if !errors.Is(err, flag.ErrHelp) {
		t.Errorf("parseTarget(\"\")=_, %v; want %v", err, flag.ErrHelp)
	}
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	dir := setupWorkArea(t, workArea)
	o := &options{dir: dir, config: "fwdep.star"}
	r, pm, err := o.resolve(ctx, nil)
	if err != nil {
		t.Fatalf("resolve=_, _, %v; want nil err", err)
	}

	var buf bytes.Buffer
	err = writeFiles(&buf, r.Commands[depparser.KindSrc], pm.Root(), true)
	if err != nil {
		t.Fatal(err)
	}
	want := "ipbus/core/firmware/hdl/ipbus_core.vhd\nboards/kc705/firmware/hdl/top_kc705.vhd\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("writeFiles diff -want +got:\n%s", diff)
	}

	buf.Reset()
	err = writeComponents(&buf, r.Packages)
	if err != nil {
		t.Fatal(err)
	}
	want = "ipbus:core\nboards:kc705\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("writeComponents diff -want +got:\n%s", diff)
	}

	_, _, err = o.resolve(ctx, []string{"a:b", "c:d"})
	if !errors.Is(err, flag.ErrHelp) {
		t.Errorf("resolve(two targets)=_, _, %v; want %v", err, flag.ErrHelp)
	}
}

func TestResolveVariableOverride(t *testing.T) {
	ctx := context.Background()
	files := maps.Clone(workArea)
	files["src/boards/kc705/firmware/hdl/top_kc707.vhd"] = ""
	dir := setupWorkArea(t, files)
	o := &options{dir: dir, config: "fwdep.star"}
	o.vars = append(o.vars, "board='kc707'")
	r, _, err := o.resolve(ctx, nil)
	if err != nil {
		t.Fatalf("resolve=_, _, %v; want nil err", err)
	}
	var got []string
	for _, c := range r.Commands[depparser.KindSrc] {
		got = append(got, filepath.Base(c.Path))
	}
	if want := []string{"ipbus_core.vhd", "top_kc707.vhd"}; !slices.Equal(got, want) {
		t.Errorf("src=%q; want %q", got, want)
	}
}

func sha1hex(s ...string) string {
	h := sha1.New()
	for _, x := range s {
		io.WriteString(h, x)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func TestHashCommands(t *testing.T) {
	ctx := context.Background()
	dir := setupWorkArea(t, workArea)
	o := &options{dir: dir, config: "fwdep.star"}
	r, _, err := o.resolve(ctx, nil)
	if err != nil {
		t.Fatalf("resolve=_, _, %v; want nil err", err)
	}
	h, err := hashCommands(ctx, r.Commands)
	if err != nil {
		t.Fatalf("hashCommands=_, %v; want nil err", err)
	}
	if got, want := h.project, sha1hex("entity ipbus_core", "entity top", "<node/>"); got != want {
		t.Errorf("project hash=%q; want %q", got, want)
	}
	wantKinds := []digest{
		{name: "setup", sum: sha1hex()},
		{name: "util", sum: sha1hex()},
		{name: "src", sum: sha1hex("entity ipbus_core", "entity top")},
		{name: "addrtab", sum: sha1hex("<node/>")},
		{name: "iprepo", sum: sha1hex()},
	}
	if diff := cmp.Diff(wantKinds, h.kinds, cmp.AllowUnexported(digest{})); diff != "" {
		t.Errorf("kind hashes diff -want +got:\n%s", diff)
	}

	var buf bytes.Buffer
	err = h.write(&buf, "boards:kc705", false)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), h.project+"\n"; got != want {
		t.Errorf("write=%q; want %q", got, want)
	}
	buf.Reset()
	err = h.write(&buf, "boards:kc705", true)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		sha1hex("entity top") + " " + filepath.Join(dir, "src/boards/kc705/firmware/hdl/top_kc705.vhd"),
		h.project + " boards:kc705",
	} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("write verbose=%q; want to contain %q", buf.String(), want)
		}
	}
}

func TestArchive(t *testing.T) {
	ctx := context.Background()
	dir := setupWorkArea(t, workArea)
	o := &options{dir: dir, config: "fwdep.star"}
	r, pm, err := o.resolve(ctx, nil)
	if err != nil {
		t.Fatalf("resolve=_, _, %v; want nil err", err)
	}
	fname := filepath.Join(t.TempDir(), "kc705_src.tar.gz")
	n, err := archive(ctx, fname, pm.Root(), r.Commands)
	if err != nil || n != 3 {
		t.Fatalf("archive=%d, %v; want 3, nil", n, err)
	}

	f, err := os.Open(fname)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	gr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatal(err)
	}
	tr := tar.NewReader(gr)
	got := make(map[string]string)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		buf, err := io.ReadAll(tr)
		if err != nil {
			t.Fatal(err)
		}
		got[hdr.Name] = string(buf)
	}
	want := map[string]string{
		"ipbus/core/firmware/hdl/ipbus_core.vhd":  "entity ipbus_core",
		"boards/kc705/firmware/hdl/top_kc705.vhd": "entity top",
		"boards/kc705/addr_table/top.xml":         "<node/>",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("archive diff -want +got:\n%s", diff)
	}
}

func TestWriteDump(t *testing.T) {
	ctx := context.Background()
	dir := setupWorkArea(t, workArea)
	o := &options{dir: dir, config: "fwdep.star", depfile: "broken.dep"}
	r, pm, err := o.resolve(ctx, nil)
	if err != nil {
		t.Fatalf("resolve=_, _, %v; want nil err", err)
	}
	for _, compress := range []bool{false, true} {
		var buf bytes.Buffer
		err = writeDump(&buf, newDumpRecord(r, pm.Root()), compress)
		if err != nil {
			t.Fatalf("writeDump(compress=%t)=%v; want nil err", compress, err)
		}
		var rd io.Reader = &buf
		if compress {
			zr, err := zstd.NewReader(&buf)
			if err != nil {
				t.Fatal(err)
			}
			defer zr.Close()
			rd = zr
		}
		var got struct {
			RunID      string           `json:"run_id"`
			SrcDir     string           `json:"srcdir"`
			Unresolved []map[string]any `json:"unresolved"`
			Vars       map[string]any   `json:"vars"`
		}
		err = json.NewDecoder(rd).Decode(&got)
		if err != nil {
			t.Fatalf("decode(compress=%t)=%v; want nil err", compress, err)
		}
		if got.RunID == "" {
			t.Errorf("run_id is empty")
		}
		if got.SrcDir != pm.Root() {
			t.Errorf("srcdir=%q; want %q", got.SrcDir, pm.Root())
		}
		if len(got.Unresolved) != 1 {
			t.Errorf("unresolved=%v; want 1 entry", got.Unresolved)
		}
		if got.Vars["board"] != "kc705" {
			t.Errorf("vars[board]=%v; want kc705", got.Vars["board"])
		}
	}
}

func TestCheck(t *testing.T) {
	ctx := context.Background()
	dir := setupWorkArea(t, workArea)
	c := &checkRun{opts: options{dir: dir, config: "fwdep.star"}, jobs: 2}
	cfg, err := c.opts.load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	targets := []target{
		{pkg: "boards", cmp: "kc705", name: "top.dep"},
		{pkg: "boards", cmp: "kc705", name: "broken.dep"},
		{pkg: "ipbus", cmp: "core", name: "core.dep"},
		{pkg: "nosuch", cmp: "proj", name: "top.dep"},
	}
	results, err := c.check(ctx, cfg, targets)
	if err != nil {
		t.Fatalf("check=_, %v; want nil err", err)
	}
	var failed []bool
	for i, r := range results {
		if r.target != targets[i] {
			t.Errorf("results[%d].target=%v; want %v", i, r.target, targets[i])
		}
		failed = append(failed, r.err != nil)
	}
	if diff := cmp.Diff([]bool{false, true, false, true}, failed); diff != "" {
		t.Errorf("failed diff -want +got:\n%s", diff)
	}
	if !errors.Is(results[3].err, depparser.ErrDepFileNotFound) {
		t.Errorf("results[3].err=%v; want %v", results[3].err, depparser.ErrDepFileNotFound)
	}

	err = c.run(ctx, []string{"boards:kc705", "ipbus:core"})
	if err == nil {
		t.Errorf("run(ipbus:core with top.dep)=nil; want err")
	}
}
