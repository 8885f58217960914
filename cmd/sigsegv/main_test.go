package main

import (
	"errors"
	"os"
	"runtime"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/marcelocantos/stsh/internal/pipeline"
)

// envHelper makes the test binary behave as the sigsegv command.
const envHelper = "STSH_TEST_SIGSEGV_HELPER"

func TestMain(m *testing.M) {
	pipeline.HandleChild()
	if os.Getenv(envHelper) == "1" {
		os.Exit(run(os.Args))
	}
	os.Exit(m.Run())
}

func TestRunUsage(t *testing.T) {
	tests := [][]string{
		{"sigsegv"},
		{"sigsegv", "1", "2"},
		{"sigsegv", "soon"},
		{"sigsegv", "-1"},
	}
	for _, args := range tests {
		assert.Equal(t, exitUsage, run(args), "%v", args)
	}
}

func TestCrashIsReportedByExecutor(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("SIG_DFL is restored with a raw Linux syscall")
	}
	self, err := os.Executable()
	require.NoError(t, err)

	devnull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	require.NoError(t, err)
	defer devnull.Close()

	x := &pipeline.Executor{
		Self:   self,
		Stdin:  devnull,
		Stdout: devnull,
		Stderr: devnull,
		Options: pipeline.SpawnOptions{
			Env: append(os.Environ(), envHelper+"=1"),
		},
		Logger: zaptest.NewLogger(t),
	}
	res, err := x.Run(&pipeline.Pipeline{Commands: []pipeline.Command{
		{Argv: []string{self, "0"}},
		{Argv: []string{"cat"}},
	}})

	require.Error(t, err)
	assert.Equal(t, "Segmentation fault", err.Error())
	var crash *pipeline.CrashError
	require.True(t, errors.As(err, &crash))

	require.Len(t, res.Outcomes, 2)
	assert.True(t, res.Outcomes[0].Crashed(), "outcome: %s", res.Outcomes[0])
	assert.Equal(t, syscall.SIGSEGV, res.Outcomes[0].Signal)
	assert.True(t, res.Outcomes[1].Exited)
}
