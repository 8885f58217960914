package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/abiosoft/readline"
	"go.uber.org/zap"
)

// Shell is the interactive read-run loop.
type Shell struct {
	Runner      *Runner
	Prompt      string
	HistoryFile string // empty disables history
	Logger      *zap.Logger

	// Stdin, Stdout and Stderr default to the process's own streams.
	Stdin          io.Reader
	Stdout, Stderr io.Writer
}

// lineSource yields input lines without their newline.
type lineSource interface {
	Readline() (string, error)
	Close() error
}

// Run reads lines until quit, exit or end of input, running each as a
// pipeline. It returns the status of the last pipeline run.
//
// A terminal gets line editing and history. Any other input is read one
// byte at a time, so whatever follows the current line is left for the
// commands that line starts.
func (s *Shell) Run() (int, error) {
	src, err := s.open()
	if err != nil {
		return 1, err
	}
	defer src.Close()

	// Ctrl-C while a pipeline runs goes to the foreground children; the
	// shell notes it and carries on. Catching rather than ignoring SIGINT
	// leaves the children's disposition at its default across exec.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	status := 0
	for {
		line, err := src.Readline()
		switch {
		case errors.Is(err, io.EOF):
			return status, nil

		case errors.Is(err, readline.ErrInterrupt):
			continue // discard the partial line

		case err != nil:
			return status, fmt.Errorf("read input: %w", err)
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "quit", "exit":
			return status, nil
		}

		status = s.Runner.RunLine(line)
		drain(interrupts)
	}
}

func (s *Shell) open() (lineSource, error) {
	in := s.Stdin
	if in == nil {
		in = os.Stdin
	}
	if f, ok := in.(*os.File); !ok || !isTerminal(f) {
		return &byteLineReader{r: in}, nil
	}

	if s.HistoryFile != "" {
		if err := os.MkdirAll(filepath.Dir(s.HistoryFile), 0o700); err != nil {
			s.logger().Warn("history disabled", zap.Error(err))
			s.HistoryFile = ""
		}
	}
	cfg := &readline.Config{
		Prompt:          s.Prompt,
		HistoryFile:     s.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	}
	if s.Stdout != nil {
		cfg.Stdout = s.Stdout
	}
	if s.Stderr != nil {
		cfg.Stderr = s.Stderr
	}
	if err := cfg.Init(); err != nil {
		return nil, fmt.Errorf("readline: %w", err)
	}
	rl, err := readline.NewEx(cfg)
	if err != nil {
		return nil, fmt.Errorf("readline: %w", err)
	}
	return rl, nil
}

// byteLineReader reads lines with single-byte reads and no buffering.
type byteLineReader struct {
	r io.Reader
}

func (b *byteLineReader) Readline() (string, error) {
	var line []byte
	buf := make([]byte, 1)
	for {
		n, err := b.r.Read(buf)
		if n == 1 {
			if buf[0] == '\n' {
				return string(line), nil
			}
			line = append(line, buf[0])
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) && len(line) > 0 {
				return string(line), nil
			}
			return "", err
		}
	}
}

func (b *byteLineReader) Close() error { return nil }

func (s *Shell) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func drain(ch <-chan os.Signal) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}
