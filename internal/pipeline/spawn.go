// Copyright 2026 Marcelo Cantos
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"fmt"
	"os"
)

// SpawnOptions configures every child process of a run.
type SpawnOptions struct {
	// DieWithParent asks the kernel to SIGKILL the child if the shell dies
	// first, so an aborted shell leaves no orphaned pipeline behind.
	// Supported on Linux; ignored elsewhere.
	DieWithParent bool

	// Env is the environment for the executed programs. Nil means the
	// shell's own environment.
	Env []string
}

// redirection holds the endpoint redirects that apply to one position.
type redirection struct {
	input, output string
}

// endpointRedirection returns the redirects for command i: input only for
// the first command, output only for the last.
func endpointRedirection(p *Pipeline, i int) redirection {
	var r redirection
	if i == 0 {
		r.input = p.Input
	}
	if i == len(p.Commands)-1 {
		r.output = p.Output
	}
	return r
}

// spawn starts cmd through the trampoline with stdin and stdout as its
// standard streams. Only descriptors 0, 1 and 2 cross into the child; the
// trampoline applies redir and then execs argv unchanged.
func (e *Executor) spawn(cmd Command, stdin, stdout *os.File, redir redirection) (*os.Process, error) {
	env := e.Options.Env
	if env == nil {
		env = os.Environ()
	}

	argv := make([]string, 0, len(cmd.Argv)+1)
	argv = append(argv, childArg0)
	argv = append(argv, cmd.Argv...)

	proc, err := os.StartProcess(e.Self, argv, &os.ProcAttr{
		Env:   childEnv(env, redir),
		Files: []*os.File{stdin, stdout, e.stderr()},
		Sys:   sysProcAttr(e.Options),
	})
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", cmd.Name(), err)
	}
	return proc, nil
}
