// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

//go:build !windows

package ui

// Init initializes the console. It is no-op on this platform.
func Init() {}

// Restore restores the console.
func Restore() {}
