// Copyright 2026 Marcelo Cantos
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"fmt"
	"os"
	"syscall"
)

// Outcome records how one command's process ended. A started process either
// exited with Code or was killed by Signal.
type Outcome struct {
	Pid     int
	Started bool
	Exited  bool
	Code    int
	Signal  syscall.Signal
}

// Signaled reports termination by a signal.
func (o Outcome) Signaled() bool { return o.Started && !o.Exited }

// Crashed reports termination by a memory-access violation.
func (o Outcome) Crashed() bool { return o.Signaled() && o.Signal == syscall.SIGSEGV }

// Status returns the shell-style status: the exit code, 128+signal for a
// signalled process, and 1 for a process that never started.
func (o Outcome) Status() int {
	switch {
	case !o.Started:
		return 1
	case o.Exited:
		return o.Code
	default:
		return 128 + int(o.Signal)
	}
}

func (o Outcome) String() string {
	switch {
	case !o.Started:
		return "not started"
	case o.Exited:
		return fmt.Sprintf("exit %d", o.Code)
	default:
		return "signal: " + o.Signal.String()
	}
}

// reap blocks until proc terminates and reports how it ended. It must be
// called exactly once per process.
func reap(proc *os.Process) (Outcome, error) {
	o := Outcome{Pid: proc.Pid, Started: true}
	state, err := proc.Wait()
	if err != nil {
		return o, fmt.Errorf("wait %d: %w", proc.Pid, err)
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		o.Signal = ws.Signal()
		return o, nil
	}
	o.Exited = true
	o.Code = state.ExitCode()
	return o, nil
}

// classify turns an outcome into the error the user should see, if any.
// Trampoline sentinels are only trusted for redirects that were requested.
func classify(o Outcome, cmd Command, redir redirection) error {
	switch {
	case o.Crashed():
		return &CrashError{Name: cmd.Name(), Pid: o.Pid}
	case !o.Exited:
		return nil
	case o.Code == ExitCommandNotFound:
		return &CommandNotFoundError{Name: cmd.Name()}
	case o.Code == ExitInputRedirect && redir.input != "":
		return &RedirectionError{Path: redir.input, Direction: DirInput}
	case o.Code == ExitOutputRedirect && redir.output != "":
		return &RedirectionError{Path: redir.output, Direction: DirOutput}
	}
	return nil
}
