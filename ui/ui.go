// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package ui provides user interface functionalities.
//
// Messages and progress go to stderr, so stdout is left for reports.
package ui

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// Spinner reports progress of a long operation.
type Spinner interface {
	// Start starts the spinner with the specified formatted string.
	Start(format string, args ...any)
	// Stop stops the spinner, outputting an error if provided.
	Stop(err error)
	// Done finishes the spinner with message.
	Done(format string, args ...any)
}

// UI is a user interface.
type UI interface {
	// PrintLines prints message lines.
	// If msgs starts with \n, it will print from the current line.
	// Otherwise, it will replace the last N lines, where N is len(msgs).
	PrintLines(msgs ...string)
	// NewSpinner returns a new spinner.
	NewSpinner() Spinner
	// Infof reports an informational message.
	Infof(format string, args ...any)
	// Warningf reports a warning.
	Warningf(format string, args ...any)
	// Errorf reports an error.
	Errorf(format string, args ...any)
}

// Default holds the default UI interface.
// Making changes to this variable after init is undefined behavior.
var Default UI

func init() {
	if term.IsTerminal(int(os.Stderr.Fd())) {
		termUI := &TermUI{}
		termUI.init()
		Default = termUI
	} else {
		Default = &LogUI{}
	}
}

// IsTerminal returns whether currently using a terminal UI.
func IsTerminal() bool {
	_, ok := Default.(*TermUI)
	return ok
}

// StripANSIEscapeCodes strips CSI escape sequences, e.g. colors, from s.
// An incomplete sequence at the end of s is dropped.
func StripANSIEscapeCodes(s string) string {
	if !strings.Contains(s, "\033") {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for {
		i := strings.IndexByte(s, '\033')
		if i < 0 {
			sb.WriteString(s)
			return sb.String()
		}
		sb.WriteString(s[:i])
		s = s[i+1:]
		if !strings.HasPrefix(s, "[") {
			// not a CSI. drop ESC only.
			continue
		}
		// a CSI ends with a letter.
		j := strings.IndexFunc(s[1:], func(r rune) bool {
			return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		})
		if j < 0 {
			return sb.String()
		}
		s = s[1+j+1:]
	}
}

// elideMiddle shortens msg to fit in width by replacing its middle with
// "...". Escape sequences are stripped from a shortened msg.
func elideMiddle(msg string, width int) string {
	const marker = "..."
	plain := StripANSIEscapeCodes(msg)
	if len(plain) < width {
		return msg
	}
	n := (width - len(marker) - 1) / 2
	if n <= 0 {
		return msg
	}
	return plain[:n] + marker + plain[len(plain)-n:]
}

// writeLines joins msgs with newlines, eliding single line messages that
// don't fit in width.
func writeLines(sb *strings.Builder, msgs []string, width int) {
	for i, msg := range msgs {
		if msg == "" {
			continue
		}
		if width > 4 && !strings.Contains(strings.TrimSuffix(msg, "\n"), "\n") {
			msg = elideMiddle(msg, width)
		}
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(msg)
	}
}
