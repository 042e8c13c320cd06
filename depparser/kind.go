// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package depparser

import "fmt"

// Kind is a kind of dep command.
type Kind int

// Command kinds.
const (
	KindInclude Kind = iota
	KindSetup
	KindUtil
	KindSrc
	KindAddrtab
	KindIprepo
)

// Kinds lists all command kinds in report order.
var Kinds = []Kind{KindInclude, KindSetup, KindUtil, KindSrc, KindAddrtab, KindIprepo}

// FileKinds lists command kinds that produce FileCommands.
var FileKinds = []Kind{KindSetup, KindUtil, KindSrc, KindAddrtab, KindIprepo}

var kindNames = [...]string{
	KindInclude: "include",
	KindSetup:   "setup",
	KindUtil:    "util",
	KindSrc:     "src",
	KindAddrtab: "addrtab",
	KindIprepo:  "iprepo",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(kindNames) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
	return []byte(kindNames[k]), nil
}

// ParseKind returns the Kind named s.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}
