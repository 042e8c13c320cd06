// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package depparser

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// setupFiles creates files in dir. Keys are slash separated paths.
func setupFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
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
}

func TestPathmakerPath(t *testing.T) {
	dir := t.TempDir()
	pm, err := NewPathmaker(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, tc := range []struct {
		pkg, cmp string
		kind     Kind
		cd, name string
		want     string
	}{
		{pkg: "pkg", cmp: "proj", kind: KindSrc, name: "top.vhd", want: "pkg/proj/firmware/hdl/top.vhd"},
		{pkg: "pkg", cmp: "proj", kind: KindInclude, name: "top.dep", want: "pkg/proj/firmware/cfg/top.dep"},
		{pkg: "pkg", cmp: "a/b", kind: KindSetup, name: "s.tcl", want: "pkg/a/b/firmware/cfg/s.tcl"},
		{pkg: "pkg", cmp: "a", kind: KindUtil, want: "pkg/a/firmware/cfg"},
		{pkg: "pkg", cmp: "a", kind: KindAddrtab, name: "a.xml", want: "pkg/a/addr_table/a.xml"},
		{pkg: "pkg", cmp: "a", kind: KindIprepo, name: "repo", want: "pkg/a/firmware/cgn/repo"},
		{pkg: "pkg", kind: KindSrc, name: "x.vhd", want: "pkg/firmware/hdl/x.vhd"},
		{pkg: "pkg", cmp: "a", kind: KindSrc, cd: "../ucf", name: "x.ucf", want: "pkg/a/firmware/ucf/x.ucf"},
	} {
		got, err := pm.Path(tc.pkg, tc.cmp, tc.kind, tc.cd, tc.name)
		if err != nil {
			t.Errorf("Path(%q, %q, %v, %q, %q)=_, %v; want nil err", tc.pkg, tc.cmp, tc.kind, tc.cd, tc.name, err)
			continue
		}
		want := filepath.Join(dir, filepath.FromSlash(tc.want))
		if got != want {
			t.Errorf("Path(%q, %q, %v, %q, %q)=%q; want %q", tc.pkg, tc.cmp, tc.kind, tc.cd, tc.name, got, want)
		}
	}

	_, err = pm.Path("pkg", "a", Kind(42), "", "x")
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("Path(unknown kind)=_, %v; want %v", err, ErrUnknownKind)
	}
}

func TestDefaultName(t *testing.T) {
	for _, tc := range []struct {
		kind Kind
		want string
	}{
		{kind: KindSrc, want: "ipbus_ctrl.vhd"},
		{kind: KindInclude, want: "ipbus_ctrl.dep"},
		{kind: KindAddrtab, want: "ipbus_ctrl.xml"},
	} {
		got, err := DefaultName(tc.kind, "ipbus_ctrl")
		if err != nil || got != tc.want {
			t.Errorf("DefaultName(%v, ipbus_ctrl)=%q, %v; want %q, nil", tc.kind, got, err, tc.want)
		}
	}
	for _, kind := range []Kind{KindSetup, KindUtil, KindIprepo} {
		_, err := DefaultName(kind, "ipbus_ctrl")
		if !errors.Is(err, ErrUnknownKind) {
			t.Errorf("DefaultName(%v, ipbus_ctrl)=_, %v; want %v", kind, err, ErrUnknownKind)
		}
	}
}

func TestPathmakerGlob(t *testing.T) {
	dir := t.TempDir()
	setupFiles(t, dir, map[string]string{
		"pkg/proj/firmware/hdl/c.vhd":        "",
		"pkg/proj/firmware/hdl/a.vhd":        "",
		"pkg/proj/firmware/hdl/b.vhd":        "",
		"pkg/proj/firmware/hdl/b.v":          "",
		"pkg/proj/firmware/hdl/sub/d.vhd":    "",
		"pkg/proj/firmware/ucf/clocks.tcl":   "",
		"pkg/proj/firmware/ucf/pins.tcl":     "",
		"pkg/proj/addr_table/proj_regs.xml":  "",
		"pkg/other/firmware/hdl/unused.vhd":  "",
		"pkg/proj/firmware/cfg/settings.tcl": "",
	})
	pm, err := NewPathmaker(dir)
	if err != nil {
		t.Fatal(err)
	}
	abs := func(p string) string {
		return filepath.Join(dir, filepath.FromSlash(p))
	}

	wantExpr := abs("pkg/proj/firmware/hdl/*.vhd")
	want := []Match{
		{Rel: "a.vhd", Abs: abs("pkg/proj/firmware/hdl/a.vhd")},
		{Rel: "b.vhd", Abs: abs("pkg/proj/firmware/hdl/b.vhd")},
		{Rel: "c.vhd", Abs: abs("pkg/proj/firmware/hdl/c.vhd")},
	}
	for range 3 {
		gotExpr, got, err := pm.Glob("pkg", "proj", KindSrc, "*.vhd", "")
		if err != nil {
			t.Fatalf("Glob(*.vhd)=_, _, %v; want nil err", err)
		}
		if gotExpr != wantExpr {
			t.Errorf("Glob(*.vhd) expr=%q; want %q", gotExpr, wantExpr)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Glob(*.vhd) diff -want +got:\n%s", diff)
		}
	}

	_, got, err := pm.Glob("pkg", "proj", KindSrc, "sub/*.vhd", "")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]Match{{Rel: "sub/d.vhd", Abs: abs("pkg/proj/firmware/hdl/sub/d.vhd")}}, got); diff != "" {
		t.Errorf("Glob(sub/*.vhd) diff -want +got:\n%s", diff)
	}

	_, got, err = pm.Glob("pkg", "proj", KindSrc, "*.tcl", "../ucf")
	if err != nil {
		t.Fatal(err)
	}
	want = []Match{
		{Rel: "clocks.tcl", Abs: abs("pkg/proj/firmware/ucf/clocks.tcl")},
		{Rel: "pins.tcl", Abs: abs("pkg/proj/firmware/ucf/pins.tcl")},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Glob(--cd ../ucf *.tcl) diff -want +got:\n%s", diff)
	}

	gotExpr, got, err := pm.Glob("pkg", "proj", KindAddrtab, "missing.xml", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 || gotExpr != abs("pkg/proj/addr_table/missing.xml") {
		t.Errorf("Glob(missing.xml)=%q, %v; want %q, no match", gotExpr, got, abs("pkg/proj/addr_table/missing.xml"))
	}

	_, _, err = pm.Glob("pkg", "proj", KindSrc, "[", "")
	if err == nil {
		t.Errorf("Glob([)=_, _, nil; want err")
	}
}

func TestPathmakerExists(t *testing.T) {
	dir := t.TempDir()
	setupFiles(t, dir, map[string]string{
		"pkg/proj/firmware/cfg/top.dep": "",
	})
	pm, err := NewPathmaker(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !pm.PackageExists("pkg") || pm.PackageExists("nopkg") {
		t.Errorf("PackageExists(pkg)=%t PackageExists(nopkg)=%t; want true, false", pm.PackageExists("pkg"), pm.PackageExists("nopkg"))
	}
	if !pm.ComponentExists("pkg", "proj") || pm.ComponentExists("pkg", "nocmp") {
		t.Errorf("ComponentExists(pkg, proj)=%t ComponentExists(pkg, nocmp)=%t; want true, false", pm.ComponentExists("pkg", "proj"), pm.ComponentExists("pkg", "nocmp"))
	}
}
