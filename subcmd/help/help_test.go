// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package help

import (
	"bytes"
	"strings"
	"testing"

	"github.com/maruel/subcommands"
)

func TestUsage(t *testing.T) {
	app := &subcommands.DefaultApplication{
		Name:     "fwdep",
		Title:    "Dep file resolver for firmware projects",
		Commands: []*subcommands.Command{Cmd()},
	}
	var buf bytes.Buffer
	usage(&buf, app, false)
	got := buf.String()
	for _, want := range []string{
		"Dep file resolver for firmware projects",
		"prints help about a command",
		"Common flags accepted by all commands:",
		"fwdep help -layout",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("usage=%q; want to contain %q", got, want)
		}
	}
}
