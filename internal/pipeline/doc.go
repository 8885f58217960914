// Copyright 2026 Marcelo Cantos
// SPDX-License-Identifier: Apache-2.0

// Package pipeline parses and executes shell pipelines: one operating-system
// process per command, stdout of each command piped into stdin of the next,
// with optional file redirection on the first command's stdin and the last
// command's stdout.
//
// Per-child setup (redirection, then exec) runs in a trampoline: the
// executor re-executes the current binary with a marker in the environment,
// and HandleChild, called first thing in main, takes over in that process.
// The package is Unix-only.
package pipeline
