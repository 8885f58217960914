// Copyright 2026 Marcelo Cantos
// SPDX-License-Identifier: Apache-2.0

package pipeline

import "fmt"

// Direction says which standard stream a redirection rebinds.
type Direction int

const (
	DirInput  Direction = iota // stdin from file
	DirOutput                  // stdout to file
)

func (d Direction) String() string {
	switch d {
	case DirInput:
		return "input"
	case DirOutput:
		return "output"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// RedirectionError reports a redirect target the child could not open.
type RedirectionError struct {
	Path      string
	Direction Direction
}

func (e *RedirectionError) Error() string {
	if e.Direction == DirInput {
		return `Could not open "` + e.Path + `".`
	}
	return fmt.Sprintf("Could not open %s.", e.Path)
}

// CommandNotFoundError reports an executable that was missing or could not
// be executed.
type CommandNotFoundError struct {
	Name string
}

func (e *CommandNotFoundError) Error() string {
	return e.Name + ": Command not found."
}

// CrashError reports a child killed by a memory-access violation.
type CrashError struct {
	Name string
	Pid  int
}

func (e *CrashError) Error() string {
	return "Segmentation fault"
}
