// Copyright 2026 Marcelo Cantos
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package pipeline

import "syscall"

func sysProcAttr(opts SpawnOptions) *syscall.SysProcAttr {
	attr := &syscall.SysProcAttr{}
	if opts.DieWithParent {
		attr.Pdeathsig = syscall.SIGKILL
	}
	return attr
}
