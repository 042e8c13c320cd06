// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package projcfg

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"go.chromium.org/infra/build/fwdep/depparser"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	fname := filepath.Join(t.TempDir(), DefaultFilename)
	err := os.WriteFile(fname, []byte(content), 0644)
	if err != nil {
		t.Fatal(err)
	}
	return fname
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	fname := writeConfig(t, `
srcdir = "firmware_src"
toolset = "sim"
top = "pkg:" + "proj"
variables = {
    "board": "kcu105",
    "ncores": 4,
    "fast": True,
    "ratio": 2.0,
    "rev": "3",
}
reverse_extensions = [".d4"]
max_depth = 16
print("loaded")
`)
	got, err := Load(ctx, fname)
	if err != nil {
		t.Fatalf("Load(ctx, %q)=_, %v; want nil err", fname, err)
	}
	want := &Config{
		Path:    fname,
		SrcDir:  filepath.Join(filepath.Dir(fname), "firmware_src"),
		Toolset: "sim",
		Top:     "pkg:proj",
		DepFile: "top.dep",
		Variables: []string{
			"board='kcu105'",
			"fast=true",
			"ncores=4",
			"ratio=2.0",
			"rev='3'",
		},
		Order: map[string]depparser.Order{
			".dep": depparser.Forward,
			".d3":  depparser.Reverse,
			".d4":  depparser.Reverse,
		},
		MaxDepth: 16,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load(ctx, %q) diff -want +got:\n%s", fname, diff)
	}

	opts := got.Options("", []string{"board=vcu118"})
	wantVars := []string{"board=vcu118", "board='kcu105'", "fast=true", "ncores=4", "ratio=2.0", "rev='3'"}
	if diff := cmp.Diff(wantVars, opts.Variables); diff != "" {
		t.Errorf("Options().Variables diff -want +got:\n%s", diff)
	}
	if opts.Toolset != "sim" || opts.MaxDepth != 16 {
		t.Errorf("Options()=%+v; want toolset=sim max_depth=16", opts)
	}
	if opts := got.Options("synth", nil); opts.Toolset != "synth" {
		t.Errorf("Options(synth).Toolset=%q; want synth", opts.Toolset)
	}
}

func TestLoadTypedVariables(t *testing.T) {
	fname := writeConfig(t, `variables = {"rev": "3", "ncores": 4, "ratio": 2.0}`)
	cfg, err := Load(context.Background(), fname)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]depparser.Value{
		"rev":    depparser.String("3"),
		"ncores": depparser.Int(4),
		"ratio":  depparser.Float(2),
	}
	got := make(map[string]depparser.Value)
	for _, arg := range cfg.Variables {
		name, v, err := depparser.ParseOverride(arg)
		if err != nil {
			t.Fatalf("ParseOverride(%q)=_, _, %v; want nil err", arg, err)
		}
		got[name] = v
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("variables diff -want +got:\n%s", diff)
	}
}

func TestLoadDefault(t *testing.T) {
	fname := writeConfig(t, "")
	got, err := Load(context.Background(), fname)
	if err != nil {
		t.Fatal(err)
	}
	want := Default()
	want.Path = fname
	want.SrcDir = filepath.Join(filepath.Dir(fname), "src")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load(empty) diff -want +got:\n%s", diff)
	}
}

func TestLoadError(t *testing.T) {
	ctx := context.Background()
	_, err := Load(ctx, filepath.Join(t.TempDir(), DefaultFilename))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Load(missing)=_, %v; want %v", err, fs.ErrNotExist)
	}

	for _, content := range []string{
		`toolset = "impl"`,
		`top = 1`,
		`variables = ["a"]`,
		`variables = {"a": [1]}`,
		`reverse_extensions = ".d3"`,
		`max_depth = 0`,
		`load("other.star", "x")`,
		`srcdir = `,
		`fail("broken")`,
	} {
		fname := writeConfig(t, content)
		_, err := Load(ctx, fname)
		if err == nil {
			t.Errorf("Load(%q)=_, nil; want err", content)
		}
	}
}
