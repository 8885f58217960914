// Copyright 2026 Marcelo Cantos
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"errors"
	"strconv"
	"strings"
)

// Operators recognised in pipeline syntax.
const (
	OpPipe        = "|" // pipe (stdout → stdin)
	OpRedirectIn  = "<" // redirect first command's stdin from file
	OpRedirectOut = ">" // redirect last command's stdout to file
)

// Command is a single program invocation. Argv[0] names the executable,
// either a bare name looked up on PATH or a path.
type Command struct {
	Argv []string
}

// Name returns argv[0].
func (c Command) Name() string {
	if len(c.Argv) == 0 {
		return ""
	}
	return c.Argv[0]
}

// Pipeline is an ordered chain of commands. Input applies only to the first
// command and Output only to the last.
type Pipeline struct {
	Commands []Command
	Input    string // file path for stdin redirect, empty if none
	Output   string // file path for stdout redirect, empty if none
}

var (
	errEmptyPipeline = errors.New("empty pipeline")
	errEmptyCommand  = errors.New("empty command")
)

// Validate checks the structural invariants the executor relies on.
func (p *Pipeline) Validate() error {
	if p == nil || len(p.Commands) == 0 {
		return errEmptyPipeline
	}
	for i, c := range p.Commands {
		if len(c.Argv) == 0 || c.Argv[0] == "" {
			return &commandError{index: i, err: errEmptyCommand}
		}
	}
	return nil
}

// Names returns argv[0] of every command, in order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.Commands))
	for i, c := range p.Commands {
		names[i] = c.Name()
	}
	return names
}

// String renders the pipeline in a form Parse accepts.
func (p *Pipeline) String() string {
	var b strings.Builder
	for i, c := range p.Commands {
		if i > 0 {
			b.WriteString(" " + OpPipe + " ")
		}
		for j, arg := range c.Argv {
			if j > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(quote(arg))
		}
	}
	if p.Input != "" {
		b.WriteString(" " + OpRedirectIn + " " + quote(p.Input))
	}
	if p.Output != "" {
		b.WriteString(" " + OpRedirectOut + " " + quote(p.Output))
	}
	return b.String()
}

// quote single-quotes s when it would not survive tokenizing as a bare word.
func quote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n\"'\\|<>$`#") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

type commandError struct {
	index int
	err   error
}

func (e *commandError) Error() string {
	return "command " + strconv.Itoa(e.index) + ": " + e.err.Error()
}

func (e *commandError) Unwrap() error { return e.err }
