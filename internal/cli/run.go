package cli

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/marcelocantos/stsh/internal/audit"
	"github.com/marcelocantos/stsh/internal/pipeline"
)

// ExitSyntax is the status of a line that failed to parse.
const ExitSyntax = 2

// Runner executes input lines as pipelines and reports their diagnostics.
type Runner struct {
	Exec  *pipeline.Executor
	Audit *audit.Logger // nil disables audit logging

	// Stderr receives one diagnostic line per failed command.
	Stderr io.Writer

	diag *color.Color
}

// NewRunner returns a runner whose diagnostics are coloured only when
// stderr is a terminal.
func NewRunner(exec *pipeline.Executor, logger *audit.Logger, stderr io.Writer) *Runner {
	r := &Runner{Exec: exec, Audit: logger, Stderr: stderr}
	r.diag = color.New(color.FgRed)
	if isTerminal(stderr) {
		r.diag.EnableColor()
	} else {
		r.diag.DisableColor()
	}
	return r
}

// RunLine parses and runs one line, returning its exit status. Blank lines
// succeed without running anything.
func (r *Runner) RunLine(line string) int {
	p, err := pipeline.Parse(line)
	if err != nil {
		r.report("stsh: %v", err)
		return ExitSyntax
	}
	if p == nil {
		return 0
	}

	start := time.Now()
	res, err := r.Exec.Run(p)
	duration := time.Since(start)

	exitCode, errMsg := r.resolve(res, err)
	r.logAudit(p, res, exitCode, errMsg, duration)
	return exitCode
}

// resolve prints the run's diagnostics and picks its status. A run that
// never started any command reports the setup failure with status 1.
func (r *Runner) resolve(res *pipeline.Result, err error) (exitCode int, errMsg string) {
	if res == nil {
		if err == nil {
			return 0, ""
		}
		r.report("stsh: %v", err)
		return 1, err.Error()
	}
	for _, e := range res.Errors {
		if e != nil {
			r.report("%v", e)
		}
	}
	if err != nil {
		errMsg = err.Error()
	}
	return res.ExitCode(), errMsg
}

func (r *Runner) report(format string, args ...any) {
	r.diag.Fprintf(r.stderr(), format+"\n", args...)
}

func (r *Runner) logAudit(p *pipeline.Pipeline, res *pipeline.Result, exitCode int, errMsg string, duration time.Duration) {
	if r.Audit == nil {
		return
	}
	cwd, _ := os.Getwd()
	// Best-effort: a broken audit log never fails the command.
	_ = r.Audit.Log(audit.Record{
		Pipeline: p.String(),
		Commands: auditCommands(p, res),
		ExitCode: exitCode,
		Error:    errMsg,
		Duration: duration,
		Cwd:      cwd,
	})
}

// auditCommands turns a run's outcomes into typed audit records. Without a
// result only the command names are known.
func auditCommands(p *pipeline.Pipeline, res *pipeline.Result) []audit.Command {
	cmds := make([]audit.Command, len(p.Commands))
	for i, c := range p.Commands {
		cmds[i].Name = c.Name()
		if res == nil {
			continue
		}
		o := res.Outcomes[i]
		cmds[i].Pid = o.Pid
		cmds[i].Status = o.Status()
		if o.Signaled() {
			cmds[i].Signal = o.Signal.String()
		}
		cmds[i].Failure = failureOf(o, res.Errors[i])
	}
	return cmds
}

func failureOf(o pipeline.Outcome, err error) audit.Failure {
	var (
		notFound *pipeline.CommandNotFoundError
		redirect *pipeline.RedirectionError
		crash    *pipeline.CrashError
	)
	switch {
	case errors.As(err, &notFound):
		return audit.FailureNotFound
	case errors.As(err, &redirect):
		return audit.FailureRedirect
	case errors.As(err, &crash):
		return audit.FailureCrash
	case !o.Started:
		return audit.FailureStart
	default:
		return ""
	}
}

func (r *Runner) stderr() io.Writer {
	if r.Stderr == nil {
		return os.Stderr
	}
	return r.Stderr
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
