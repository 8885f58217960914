// Copyright 2026 Marcelo Cantos
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"errors"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Environment variables that carry the trampoline's instructions. They are
// removed before the target program is executed.
const (
	envChild  = "STSH_PIPELINE_CHILD"
	envInput  = "STSH_PIPELINE_INPUT"
	envOutput = "STSH_PIPELINE_OUTPUT"

	childArg0 = "stsh-child"
)

// Exit statuses with which the trampoline reports failures to the parent.
// A program that exits with one of these on its own is indistinguishable
// from a trampoline failure.
const (
	ExitCommandNotFound = 127
	ExitInputRedirect   = 121
	ExitOutputRedirect  = 122
	exitTrampolineUsage = 120
)

// HandleChild turns the current process into a pipeline child if it was
// started as one, and never returns in that case. Otherwise it returns
// immediately. Binaries that run pipelines must call it before doing
// anything else.
func HandleChild() {
	if os.Getenv(envChild) != "1" {
		return
	}
	os.Exit(runChild(os.Args[1:], os.Environ()))
}

// runChild applies redirection and replaces the process image. It only
// returns on failure, with the exit status the process should end with.
func runChild(argv, environ []string) int {
	if len(argv) == 0 {
		return exitTrampolineUsage
	}
	env, input, output := splitChildEnv(environ)

	if err := applyInputRedirection(input); err != nil {
		return ExitInputRedirect
	}
	if err := applyOutputRedirection(output); err != nil {
		return ExitOutputRedirect
	}

	closeInherited()

	path, err := exec.LookPath(argv[0])
	if err != nil && !errors.Is(err, exec.ErrDot) {
		return ExitCommandNotFound
	}
	// Exec only returns on failure: not found, not executable, bad format.
	_ = unix.Exec(path, argv, env)
	return ExitCommandNotFound
}

// splitChildEnv separates the trampoline's control variables from the
// environment handed to the target program.
func splitChildEnv(environ []string) (env []string, input, output string) {
	env = make([]string, 0, len(environ))
	for _, kv := range environ {
		k, v, _ := strings.Cut(kv, "=")
		switch k {
		case envChild:
		case envInput:
			input = v
		case envOutput:
			output = v
		default:
			env = append(env, kv)
		}
	}
	return env, input, output
}

// childEnv appends the trampoline's control variables to environ, dropping
// any stale copies inherited from an enclosing pipeline.
func childEnv(environ []string, redir redirection) []string {
	env, _, _ := splitChildEnv(environ)
	return append(env,
		envChild+"=1",
		envInput+"="+redir.input,
		envOutput+"="+redir.output,
	)
}

// applyInputRedirection rebinds stdin to path, opened read-only. Empty path
// is a no-op.
func applyInputRedirection(path string) error {
	return redirect(path, unix.O_RDONLY, unix.Stdin)
}

// applyOutputRedirection rebinds stdout to path, created if absent and
// truncated if present. Empty path is a no-op.
func applyOutputRedirection(path string) error {
	return redirect(path, unix.O_WRONLY|unix.O_CREAT|unix.O_TRUNC, unix.Stdout)
}

func redirect(path string, flags, target int) error {
	if path == "" {
		return nil
	}
	fd, err := unix.Open(path, flags|unix.O_CLOEXEC, 0o644)
	if err != nil {
		return err
	}
	// dup2 clears close-on-exec on the target descriptor only.
	if err := unix.Dup2(fd, target); err != nil {
		unix.Close(fd)
		return err
	}
	return unix.Close(fd)
}

// closeInherited marks every descriptor above stderr close-on-exec, so the
// target program starts with exactly its three standard streams even if the
// shell itself inherited stray descriptors.
func closeInherited() {
	dir, err := os.Open("/dev/fd")
	if err != nil {
		return
	}
	names, _ := dir.Readdirnames(-1)
	dir.Close()
	for _, name := range names {
		fd, err := strconv.Atoi(name)
		if err != nil || fd <= unix.Stderr {
			continue
		}
		unix.CloseOnExec(fd)
	}
}
