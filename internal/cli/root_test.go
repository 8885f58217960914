package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelocantos/stsh/internal/audit"
)

const testConfig = "/etc/stsh.yaml"

// newTestApp returns an app whose config lives in a memory filesystem and
// whose audit log lives in a temporary directory.
func newTestApp(t *testing.T, extra string) (*app, string) {
	t.Helper()
	auditPath := filepath.Join(t.TempDir(), "audit.jsonl")
	fs := afero.NewMemMapFs()
	yaml := "shell:\n  history_file: \"\"\naudit:\n  path: " + auditPath + "\n" + extra
	require.NoError(t, afero.WriteFile(fs, testConfig, []byte(yaml), 0o644))
	return &app{version: "test", fs: fs}, auditPath
}

func runApp(t *testing.T, a *app, stdin string, args ...string) (status int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	a.stdin = strings.NewReader(stdin)
	a.stdout = &out
	a.stderr = &errOut
	status = a.execute(append([]string{"--config", testConfig}, args...))
	return status, out.String(), errOut.String()
}

func TestOneShot(t *testing.T) {
	a, auditPath := newTestApp(t, "")
	out := filepath.Join(t.TempDir(), "out.txt")

	status, _, stderr := runApp(t, a, "", "-c", "printf hello > "+out)
	assert.Equal(t, 0, status)
	assert.Empty(t, stderr)
	assert.Equal(t, "hello", readFile(t, out))

	entries, err := audit.Tail(auditPath, 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "printf hello > "+out, entries[0].Pipeline)
}

func TestOneShotStatus(t *testing.T) {
	a, _ := newTestApp(t, "")
	status, _, stderr := runApp(t, a, "", "-c", "sh -c 'exit 7'")
	assert.Equal(t, 7, status)
	assert.Empty(t, stderr)

	a, _ = newTestApp(t, "")
	status, _, stderr = runApp(t, a, "", "-c", "ls |")
	assert.Equal(t, ExitSyntax, status)
	assert.Equal(t, "stsh: empty command after |\n", stderr)
}

func TestAuditDisabled(t *testing.T) {
	a, auditPath := newTestApp(t, "")
	require.NoError(t, afero.WriteFile(a.fs, testConfig, []byte("audit:\n  enabled: false\n  path: "+auditPath+"\n"), 0o644))

	status, _, _ := runApp(t, a, "", "-c", "true")
	assert.Equal(t, 0, status)
	assert.NoFileExists(t, auditPath)
}

func TestInvalidConfig(t *testing.T) {
	a, _ := newTestApp(t, "log:\n  level: chatty\n")
	status, _, stderr := runApp(t, a, "", "-c", "true")
	assert.Equal(t, 1, status)
	assert.Contains(t, stderr, "stsh: invalid config: config.log.level")
}

func TestInteractive(t *testing.T) {
	a, auditPath := newTestApp(t, "")
	dir := t.TempDir()
	first := filepath.Join(dir, "first.txt")
	second := filepath.Join(dir, "second.txt")

	input := "printf one > " + first + "\n" +
		"\n" +
		"cat < " + first + " | tr a-z A-Z > " + second + "\n" +
		"exit\n" +
		"printf never > " + first + "\n"
	status, _, _ := runApp(t, a, input)

	assert.Equal(t, 0, status)
	assert.Equal(t, "one", readFile(t, first))
	assert.Equal(t, "ONE", readFile(t, second))

	entries, err := audit.Tail(auditPath, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestInteractiveEOF(t *testing.T) {
	a, _ := newTestApp(t, "")
	status, _, _ := runApp(t, a, "sh -c 'exit 3'\n")
	assert.Equal(t, 3, status)
}

func TestVersion(t *testing.T) {
	a, _ := newTestApp(t, "")
	status, stdout, _ := runApp(t, a, "", "version")
	assert.Equal(t, 0, status)
	assert.Equal(t, "stsh test\n", stdout)
}

func TestAuditCommands(t *testing.T) {
	a, auditPath := newTestApp(t, "")
	for i := 0; i < 3; i++ {
		status, _, _ := runApp(t, a, "", "-c", "true")
		require.Equal(t, 0, status)
	}

	status, stdout, _ := runApp(t, a, "", "audit", "verify")
	assert.Equal(t, 0, status)
	assert.Equal(t, "audit log integrity verified\n", stdout)

	status, stdout, _ = runApp(t, a, "", "audit", "tail", "-n", "2")
	assert.Equal(t, 0, status)
	assert.Equal(t, 2, strings.Count(stdout, `"pipeline": "true"`))
	assert.Contains(t, stdout, `"seq": 3`)
	assert.NotContains(t, stdout, `"seq": 1,`)

	status, _, stderr := runApp(t, a, "", "audit", "show", "-n", "0")
	assert.Equal(t, 1, status)
	assert.Contains(t, stderr, "-n must be positive")

	entries, err := audit.Tail(auditPath, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestAuditVerifyMissingLog(t *testing.T) {
	a, _ := newTestApp(t, "")
	status, _, stderr := runApp(t, a, "", "audit", "verify")
	assert.Equal(t, 1, status)
	assert.Contains(t, stderr, "audit verification FAILED")
}

func TestHelpDescribesOperators(t *testing.T) {
	a, _ := newTestApp(t, "")
	status, stdout, _ := runApp(t, a, "", "help")
	assert.Equal(t, 0, status)
	assert.Contains(t, stdout, "pipeline operators:")
	assert.Contains(t, stdout, "exit, quit")
}

func TestInteractiveHasNoHelpBuiltin(t *testing.T) {
	a, _ := newTestApp(t, "")
	status, _, stderr := runApp(t, a, "help\n")
	assert.Equal(t, 127, status, "help is looked up on PATH like any command")
	assert.Equal(t, "help: Command not found.\n", stderr)
}

func TestUnwritableLogOutputFallsBackToNop(t *testing.T) {
	a, _ := newTestApp(t, "log:\n  output_paths: [/nonexistent-dir/stsh.log]\n")
	status, _, stderr := runApp(t, a, "", "-c", "true")
	assert.Equal(t, 0, status)
	assert.Empty(t, stderr)
}
