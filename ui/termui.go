// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ui

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// DurationThreshold is the duration below which a finished spinner is
// cleared without a message.
const DurationThreshold = 500 * time.Millisecond

type termSpinner struct {
	quit, done chan struct{}
	started    time.Time
	msg        string
}

// Start starts the spinner.
func (s *termSpinner) Start(format string, args ...any) {
	s.started = time.Now()
	s.msg = fmt.Sprintf(format, args...)
	fmt.Fprintf(os.Stderr, "%s... ", s.msg)
	s.quit = make(chan struct{})
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		const chars = `/-\|`
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for n := 0; ; n = (n + 1) % len(chars) {
			select {
			case <-s.quit:
				return
			case <-ticker.C:
				fmt.Fprintf(os.Stderr, "\b%c", chars[n])
			}
		}
	}()
}

func (s *termSpinner) finish() time.Duration {
	close(s.quit)
	<-s.done
	return time.Since(s.started)
}

// Stop stops the spinner.
func (s *termSpinner) Stop(err error) {
	d := s.finish()
	if err != nil {
		fmt.Fprintf(os.Stderr, "\r\033[K%6s %s %s\n", FormatDuration(d), s.msg, ErrorStyle.Render(fmt.Sprintf("failed %v", err)))
		return
	}
	if d < DurationThreshold {
		fmt.Fprint(os.Stderr, "\r\033[K")
		return
	}
	fmt.Fprintf(os.Stderr, "\r\033[K%6s %s\n", FormatDuration(d), s.msg)
}

// Done finishes the spinner with message.
func (s *termSpinner) Done(format string, args ...any) {
	d := s.finish()
	fmt.Fprintf(os.Stderr, "\r\033[K%6s %s %s\n", FormatDuration(d), s.msg, SuccessStyle.Render(fmt.Sprintf(format, args...)))
}

// TermUI is a terminal-based UI.
type TermUI struct {
	width int

	mu sync.Mutex
}

func (t *TermUI) init() {
	t.width, _, _ = term.GetSize(int(os.Stderr.Fd()))
}

// PrintLines implements the UI interface.
// It overwrites the current line, and the lines above it if msgs has
// more than one message. A message that should stay on screen must end
// with "\n". If msgs[0] is "\n", nothing is overwritten.
func (t *TermUI) PrintLines(msgs ...string) {
	s := t.lines(msgs)
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprint(os.Stderr, s)
}

func (t *TermUI) lines(msgs []string) string {
	var sb strings.Builder
	if len(msgs) > 0 && msgs[0] == "\n" {
		msgs = msgs[1:]
	} else {
		for range len(msgs) - 1 {
			sb.WriteString("\r\033[K\033[A")
		}
		sb.WriteString("\r\033[K")
	}
	writeLines(&sb, msgs, t.width)
	return sb.String()
}

// NewSpinner returns a terminal-based spinner.
func (*TermUI) NewSpinner() Spinner {
	return &termSpinner{}
}

// Infof prints a message to stderr.
func (t *TermUI) Infof(format string, args ...any) {
	t.println(fmt.Sprintf(format, args...))
}

// Warningf prints a warning to stderr.
func (t *TermUI) Warningf(format string, args ...any) {
	t.println(WarningStyle.Render(fmt.Sprintf(format, args...)))
}

// Errorf prints an error to stderr.
func (t *TermUI) Errorf(format string, args ...any) {
	t.println(ErrorStyle.Render(fmt.Sprintf(format, args...)))
}

func (t *TermUI) println(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(os.Stderr, msg)
}
