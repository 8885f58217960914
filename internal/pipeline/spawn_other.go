// Copyright 2026 Marcelo Cantos
// SPDX-License-Identifier: Apache-2.0

//go:build unix && !linux

package pipeline

import "syscall"

// No parent-death signal outside Linux; DieWithParent is ignored.
func sysProcAttr(SpawnOptions) *syscall.SysProcAttr {
	return &syscall.SysProcAttr{}
}
