// Copyright 2026 Marcelo Cantos
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// Executor runs pipelines as chains of operating-system processes.
type Executor struct {
	// Self is the executable re-run as the child trampoline. It must call
	// HandleChild on startup.
	Self string

	// Standard streams the pipeline's endpoints inherit.
	Stdin, Stdout, Stderr *os.File

	Options SpawnOptions
	Logger  *zap.Logger
}

// NewExecutor returns an executor wired to the process's own standard
// streams, using the running binary as trampoline.
func NewExecutor(opts SpawnOptions, logger *zap.Logger) (*Executor, error) {
	self, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locate executable: %w", err)
	}
	return &Executor{
		Self:    self,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Options: opts,
		Logger:  logger,
	}, nil
}

// Result describes one completed run. Outcomes and Errors are indexed like
// the pipeline's commands.
type Result struct {
	Outcomes []Outcome
	Errors   []error
}

// Err joins the per-command errors, one line each, or returns nil.
func (r *Result) Err() error {
	return errors.Join(r.Errors...)
}

// ExitCode is the pipeline's status: that of its last command, with 127 for
// a missing executable and 1 for a failed redirect or start.
func (r *Result) ExitCode() int {
	last := len(r.Outcomes) - 1
	if last < 0 {
		return 0
	}
	var notFound *CommandNotFoundError
	var redirErr *RedirectionError
	switch err := r.Errors[last]; {
	case errors.As(err, &notFound):
		return ExitCommandNotFound
	case errors.As(err, &redirErr):
		return 1
	}
	return r.Outcomes[last].Status()
}

// Run spawns every command of p left to right, wiring stdout of each into
// stdin of the next, then reaps them all in the same order. A command that
// fails does not stop the others; every started process is reaped before
// Run returns. The returned error joins the per-command failures, or
// reports a failure to set the pipeline up, in which case nothing ran.
func (e *Executor) Run(p *Pipeline) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	n := len(p.Commands)
	ch, err := newChain(n)
	if err != nil {
		return nil, err
	}
	defer ch.close()

	log := e.logger()
	res := &Result{
		Outcomes: make([]Outcome, n),
		Errors:   make([]error, n),
	}

	procs := make([]*os.Process, n)
	for i, cmd := range p.Commands {
		in, out := ch.streams(i, e.Stdin, e.Stdout)
		proc, err := e.spawn(cmd, in, out, endpointRedirection(p, i))
		// The child holds its own copies now; keep the parent's and a
		// downstream reader would never see EOF.
		ch.release(i)
		if err != nil {
			log.Warn("spawn failed", zap.Int("index", i), zap.Strings("argv", cmd.Argv), zap.Error(err))
			res.Errors[i] = err
			continue
		}
		log.Debug("spawned", zap.Int("index", i), zap.Strings("argv", cmd.Argv), zap.Int("pid", proc.Pid))
		procs[i] = proc
	}

	for i, proc := range procs {
		if proc == nil {
			continue
		}
		o, err := reap(proc)
		res.Outcomes[i] = o
		if err != nil {
			log.Warn("wait failed", zap.Int("pid", proc.Pid), zap.Error(err))
			res.Errors[i] = err
			continue
		}
		log.Debug("reaped", zap.Int("index", i), zap.Int("pid", o.Pid), zap.Stringer("outcome", o))
		res.Errors[i] = classify(o, p.Commands[i], endpointRedirection(p, i))
	}

	return res, res.Err()
}

func (e *Executor) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

func (e *Executor) stderr() *os.File {
	if e.Stderr == nil {
		return os.Stderr
	}
	return e.Stderr
}
