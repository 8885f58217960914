package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/marcelocantos/stsh/internal/audit"
	"github.com/marcelocantos/stsh/internal/pipeline"
)

func newTestRunner(t *testing.T, logger *audit.Logger) (*Runner, *bytes.Buffer) {
	t.Helper()
	self, err := os.Executable()
	require.NoError(t, err)

	devnull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	require.NoError(t, err)
	t.Cleanup(func() { devnull.Close() })

	exec := &pipeline.Executor{
		Self:   self,
		Stdin:  devnull,
		Stdout: devnull,
		Stderr: devnull,
		Logger: zaptest.NewLogger(t),
	}
	var stderr bytes.Buffer
	return NewRunner(exec, logger, &stderr), &stderr
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRunLine(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")

	r, stderr := newTestRunner(t, nil)
	status := r.RunLine(`printf 'a\nb\nc\n' | wc -l > ` + out)

	assert.Equal(t, 0, status)
	assert.Equal(t, "3", strings.TrimSpace(readFile(t, out)))
	assert.Empty(t, stderr.String())
}

func TestRunLineBlank(t *testing.T) {
	r, stderr := newTestRunner(t, nil)
	assert.Equal(t, 0, r.RunLine("   "))
	assert.Empty(t, stderr.String())
}

func TestRunLineSyntaxError(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"ls |", "stsh: empty command after |\n"},
		{"| ls", "stsh: empty command before |\n"},
		{"cat <", "stsh: < requires a file path\n"},
		{"echo 'unterminated", "stsh: syntax error: "},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			r, stderr := newTestRunner(t, nil)
			assert.Equal(t, ExitSyntax, r.RunLine(tt.line))
			assert.True(t, strings.HasPrefix(stderr.String(), tt.want), "got %q", stderr.String())
		})
	}
}

func TestRunLineDiagnostics(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.txt")

	r, stderr := newTestRunner(t, nil)
	status := r.RunLine("cat < " + missing + " | stsh-no-such-command | wc -l")

	assert.Equal(t, 0, status, "status is the last command's")
	assert.Equal(t,
		`Could not open "`+missing+`".`+"\n"+
			"stsh-no-such-command: Command not found.\n",
		stderr.String())
}

func TestRunLineNotFoundStatus(t *testing.T) {
	r, stderr := newTestRunner(t, nil)
	assert.Equal(t, pipeline.ExitCommandNotFound, r.RunLine("stsh-no-such-command"))
	assert.Equal(t, "stsh-no-such-command: Command not found.\n", stderr.String())
}

func TestRunLineNoColourOffTerminal(t *testing.T) {
	r, stderr := newTestRunner(t, nil)
	r.RunLine("stsh-no-such-command")
	assert.NotContains(t, stderr.String(), "\x1b[")
}

func TestRunLineAudits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	logger, err := audit.NewLogger(path)
	require.NoError(t, err)

	r, _ := newTestRunner(t, logger)
	r.RunLine("true | false")
	r.RunLine("stsh-no-such-command")
	r.RunLine("ls |") // parse failures are not audited

	require.NoError(t, audit.Verify(path))
	entries, err := audit.Tail(path, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "true | false", entries[0].Pipeline)
	require.Len(t, entries[0].Commands, 2)
	for i, want := range []struct {
		name   string
		status int
	}{{"true", 0}, {"false", 1}} {
		got := entries[0].Commands[i]
		assert.Equal(t, want.name, got.Name)
		assert.Equal(t, want.status, got.Status)
		assert.NotZero(t, got.Pid)
		assert.Empty(t, got.Failure)
	}
	assert.Equal(t, 1, entries[0].ExitCode)
	assert.Empty(t, entries[0].Error)

	assert.Equal(t, 127, entries[1].ExitCode)
	assert.Equal(t, "stsh-no-such-command: Command not found.", entries[1].Error)
	require.Len(t, entries[1].Commands, 1)
	assert.Equal(t, audit.FailureNotFound, entries[1].Commands[0].Failure)
	assert.Equal(t, 127, entries[1].Commands[0].Status)
}

func TestRunLineAuditsTypedFailures(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.jsonl")
	logger, err := audit.NewLogger(path)
	require.NoError(t, err)

	r, stderr := newTestRunner(t, logger)
	r.RunLine(`sh -c 'kill -SEGV $$' | cat`)
	r.RunLine("cat < " + filepath.Join(dir, "absent"))
	assert.Contains(t, stderr.String(), "Segmentation fault")

	entries, err := audit.Tail(path, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	crashed := entries[0].Commands
	require.Len(t, crashed, 2)
	assert.Equal(t, audit.FailureCrash, crashed[0].Failure)
	assert.Equal(t, "segmentation fault", crashed[0].Signal)
	assert.Equal(t, 128+11, crashed[0].Status)
	assert.Empty(t, crashed[1].Failure)
	assert.Empty(t, crashed[1].Signal)

	redirected := entries[1].Commands
	require.Len(t, redirected, 1)
	assert.Equal(t, audit.FailureRedirect, redirected[0].Failure)
}
