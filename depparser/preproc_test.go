// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package depparser

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPreprocess(t *testing.T) {
	for _, tc := range []struct {
		name string
		line string
		want string
	}{
		{name: "blank", line: "   \n", want: ""},
		{name: "comment", line: "  # src a.vhd", want: ""},
		{name: "plain", line: "src a.vhd\n", want: "src a.vhd"},
		{name: "assignment", line: "@z = 1", want: ""},
		{name: "cond_true", line: "?x? src a.vhd", want: "src a.vhd"},
		{name: "cond_false", line: "?y? src a.vhd", want: ""},
		{name: "cond_expr", line: "?toolset == 'synth'? setup s.tcl", want: "setup s.tcl"},
		{name: "cond_empty_rest", line: "?x?", want: ""},
		{name: "subst", line: "src $device_name.vhd", want: "src xcku040.vhd"},
		{name: "subst_braces", line: "src ${device_name}_top.vhd", want: "src xcku040_top.vhd"},
		{name: "subst_dotted", line: "util ${hls.cflags}", want: "util -O2"},
		{name: "subst_int", line: "src a$n.vhd", want: "src a3.vhd"},
		{name: "dollar", line: "util $$x", want: "util $x"},
		{name: "cond_subst", line: "?x? src ${toolset}.vhd", want: "src synth.vhd"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			pp := &preprocessor{scope: testScope(t)}
			got, warn, err := pp.process(tc.line)
			if err != nil || warn != nil {
				t.Fatalf("process(%q)=%q, %v, %v; want nil err", tc.line, got, warn, err)
			}
			if got != tc.want {
				t.Errorf("process(%q)=%q; want %q", tc.line, got, tc.want)
			}
		})
	}
}

func TestPreprocessError(t *testing.T) {
	for _, tc := range []struct {
		line string
		want error
	}{
		{line: "@z", want: ErrAssignment},
		{line: "@1z = 1", want: ErrAssignment},
		{line: "@ = 1", want: ErrAssignment},
		{line: "@z =", want: ErrAssignment},
		{line: "@z = undefined", want: ErrAssignment},
		{line: "@z = 1 +", want: ErrAssignment},
		{line: "?x src a.vhd", want: ErrConditional},
		{line: "?x?y? src a.vhd", want: ErrConditional},
		{line: "?n? src a.vhd", want: ErrConditional},
		{line: "?undefined? src a.vhd", want: ErrConditional},
		{line: "src $undefined.vhd", want: ErrSubstitution},
		{line: "src ${undefined}", want: ErrSubstitution},
		{line: "src ${device_name", want: ErrSubstitution},
		{line: "src ${1a}", want: ErrSubstitution},
		{line: "src a.vhd $", want: ErrSubstitution},
		{line: "src $-", want: ErrSubstitution},
	} {
		pp := &preprocessor{scope: testScope(t)}
		got, _, err := pp.process(tc.line)
		if !errors.Is(err, tc.want) {
			t.Errorf("process(%q)=%q, %v; want %v", tc.line, got, err, tc.want)
		}
	}
}

func TestPreprocessFirstDefinitionWins(t *testing.T) {
	pp := &preprocessor{scope: NewScope()}
	for _, line := range []string{"@a = 1", "@b = a + 1", "@c = 'x'"} {
		_, warn, err := pp.process(line)
		if warn != nil || err != nil {
			t.Fatalf("process(%q)=_, %v, %v; want nil, nil", line, warn, err)
		}
	}
	_, warn, err := pp.process("@a = 2")
	if err != nil {
		t.Errorf("process(redefinition)=_, _, %v; want nil err", err)
	}
	if warn == nil {
		t.Errorf("process(redefinition)=_, nil, _; want warning")
	}
	// redefinition is not evaluated.
	_, warn, err = pp.process("@b = undefined")
	if err != nil || warn == nil {
		t.Errorf("process(redefinition with bad expr)=_, %v, %v; want warning, nil", warn, err)
	}

	want := map[string]Value{
		"a": Int(1),
		"b": Int(2),
		"c": String("x"),
	}
	if diff := cmp.Diff(want, pp.scope.Snapshot()); diff != "" {
		t.Errorf("scope diff -want +got:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, pp.scope.Names()); diff != "" {
		t.Errorf("scope names diff -want +got:\n%s", diff)
	}
}
