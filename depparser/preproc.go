// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package depparser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// assignRE matches the body of an assignment directive.
// group 1: variable name
// group 2: invalid variable name
// group 3: expression
var assignRE = regexp.MustCompile(`^(?:([a-zA-Z][a-zA-Z0-9_]*(?:\.[a-zA-Z][a-zA-Z0-9_]*)*)|([^=\s]*))\s*=\s*(.*)$`)

// errRedefined is returned by assignment for a name already defined.
// It is reported as a warning.
var errRedefined = errors.New("variable already defined")

// preprocessor runs directives of a dep file line.
type preprocessor struct {
	scope *Scope
}

// process returns the line to be parsed as a command, or "" when the
// line has nothing more to parse.
// warn is non-nil when the line was accepted with a warning.
func (pp *preprocessor) process(line string) (out string, warn, err error) {
	line = dropComment(line)
	if line == "" {
		return "", nil, nil
	}
	line, err = pp.assignment(line)
	if errors.Is(err, errRedefined) {
		return "", err, nil
	}
	if err != nil || line == "" {
		return "", nil, err
	}
	line, err = pp.conditional(line)
	if err != nil || line == "" {
		return "", nil, err
	}
	line, err = pp.substitute(line)
	if err != nil {
		return "", nil, err
	}
	return line, nil, nil
}

// dropComment returns "" for blank lines and comments, or the trimmed line.
func dropComment(line string) string {
	line = strings.TrimSpace(line)
	if line == "" || line[0] == '#' {
		return ""
	}
	return line
}

// assignment processes "@name = expr".
// It returns "" if line is an assignment, or line as is.
func (pp *preprocessor) assignment(line string) (string, error) {
	if line[0] != '@' {
		return line, nil
	}
	body := strings.TrimSpace(line[1:])
	m := assignRE.FindStringSubmatchIndex(body)
	switch {
	case m == nil:
		return "", fmt.Errorf("%w: expression does not have the name = value form %q", ErrAssignment, body)
	case m[4] >= 0:
		return "", fmt.Errorf("%w: invalid variable name %q", ErrAssignment, body[m[4]:m[5]])
	case m[6] < 0 || strings.TrimSpace(body[m[6]:m[7]]) == "":
		return "", fmt.Errorf("%w: missing value in %q", ErrAssignment, body)
	}
	name := body[m[2]:m[3]]
	expr := strings.TrimSpace(body[m[6]:m[7]])
	if old, ok := pp.scope.Lookup(name); ok {
		return "", fmt.Errorf("%w: %q has value %#v. new value %s is not applied", errRedefined, name, old, expr)
	}
	v, err := Eval(expr, pp.scope)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrAssignment, name, err)
	}
	pp.scope.Define(name, v)
	return "", nil
}

// conditional processes "?expr? rest".
// It returns "" if expr is false, rest if expr is true, or line as is.
func (pp *preprocessor) conditional(line string) (string, error) {
	if line[0] != '?' {
		return line, nil
	}
	if n := strings.Count(line, "?"); n != 2 {
		return "", fmt.Errorf("%w: there must be precisely two '?' tokens per line. found %d", ErrConditional, n)
	}
	end := strings.IndexByte(line[1:], '?') + 1
	v, err := Eval(line[1:end], pp.scope)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrConditional, line[1:end], err)
	}
	b, ok := v.AsBool()
	if !ok {
		return "", fmt.Errorf("%w: %q evaluates to %s %#v, want bool", ErrConditional, line[1:end], v.Type(), v)
	}
	if !b {
		return "", nil
	}
	return strings.TrimSpace(line[end+1:]), nil
}

func isNameChar(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

// substitute replaces $name and ${name} with variable values.
// "$$" is replaced with "$".
func (pp *preprocessor) substitute(line string) (string, error) {
	if strings.IndexByte(line, '$') < 0 {
		return line, nil
	}
	var sb strings.Builder
	for i := 0; i < len(line); i++ {
		if line[i] != '$' {
			sb.WriteByte(line[i])
			continue
		}
		i++
		if i >= len(line) {
			return "", fmt.Errorf("%w: invalid placeholder at end of line", ErrSubstitution)
		}
		var name string
		switch ch := line[i]; {
		case ch == '$':
			sb.WriteByte('$')
			continue
		case ch == '{':
			j := strings.IndexByte(line[i+1:], '}')
			if j < 0 {
				return "", fmt.Errorf("%w: unclosed ${ in %q", ErrSubstitution, line)
			}
			name = line[i+1 : i+1+j]
			if !varNameRE.MatchString(name) {
				return "", fmt.Errorf("%w: invalid placeholder ${%s}", ErrSubstitution, name)
			}
			i += j + 1
		case isIdentStart(ch):
			j := i
			for j < len(line) && isNameChar(line[j]) {
				j++
			}
			name = line[i:j]
			i = j - 1
		default:
			return "", fmt.Errorf("%w: invalid placeholder at column %d in %q", ErrSubstitution, i, line)
		}
		v, ok := pp.scope.Lookup(name)
		if !ok {
			return "", fmt.Errorf("%w: %q is not defined", ErrSubstitution, name)
		}
		sb.WriteString(v.String())
	}
	return sb.String(), nil
}
