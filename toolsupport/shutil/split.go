// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package shutil provides shell-like utilities for directive lines.
package shutil

import (
	"errors"
	"strings"
)

// Split splits a line into words, as a POSIX shell would without
// expansions: words are separated by spaces or tabs, '...' quotes
// literally, "..." quotes with backslash escapes, and a backslash
// escapes the next character outside quotes.
func Split(line string) ([]string, error) {
	var args []string
	var sb strings.Builder
	inword := false
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch ch {
		case ' ', '\t', '\r', '\n':
			if inword {
				args = append(args, sb.String())
				sb.Reset()
				inword = false
			}
		case '\\':
			i++
			if i >= len(line) {
				return nil, errors.New("failed to split: trailing backslash")
			}
			sb.WriteByte(line[i])
			inword = true
		case '\'':
			j := strings.IndexByte(line[i+1:], '\'')
			if j < 0 {
				return nil, errors.New("failed to split: unterminated single quote")
			}
			sb.WriteString(line[i+1 : i+1+j])
			i += j + 1
			inword = true
		case '"':
			i++
			closed := false
			for ; i < len(line); i++ {
				c := line[i]
				if c == '"' {
					closed = true
					break
				}
				if c == '\\' && i+1 < len(line) {
					switch line[i+1] {
					case '"', '\\', '$', '`':
						i++
						c = line[i]
					}
				}
				sb.WriteByte(c)
			}
			if !closed {
				return nil, errors.New("failed to split: unterminated double quote")
			}
			inword = true
		default:
			sb.WriteByte(ch)
			inword = true
		}
	}
	if inword {
		args = append(args, sb.String())
	}
	return args, nil
}
