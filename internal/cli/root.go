package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marcelocantos/stsh/internal/audit"
	"github.com/marcelocantos/stsh/internal/config"
	"github.com/marcelocantos/stsh/internal/logging"
	"github.com/marcelocantos/stsh/internal/pipeline"
)

// Execute runs the stsh command line in args and returns the process exit
// status.
func Execute(version string, args []string) int {
	a := &app{version: version, fs: afero.NewOsFs()}
	return a.execute(args)
}

type app struct {
	version string
	fs      afero.Fs

	// Overrides for the command's standard streams, for tests.
	stdin          io.Reader
	stdout, stderr io.Writer

	cfgPath string
	line    string
	status  int
}

func (a *app) execute(args []string) int {
	a.status = 0
	root := a.rootCommand()
	if a.stdin != nil {
		root.SetIn(a.stdin)
	}
	if a.stdout != nil {
		root.SetOut(a.stdout)
	}
	if a.stderr != nil {
		root.SetErr(a.stderr)
	}
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(root.ErrOrStderr(), "stsh: %v\n", err)
		if a.status == 0 {
			return 1
		}
	}
	return a.status
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "stsh",
		Short: "A small shell that runs commands joined by pipes.",
		Long: `stsh reads command lines and runs each as a pipeline of processes.

  cmd [args...] [| cmd [args...]]...   run a pipeline
  exit, quit                          leave the shell

pipeline operators:
  |  pipe (stdout → stdin)
  >  redirect the last command's stdout to a file
  <  redirect the first command's stdin from a file

Arguments follow POSIX quoting. Operators count only when unquoted and
must stand alone, except that a redirect may be attached to its file
(>out.txt).`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return a.runShell(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file (default ~/.config/stsh/config.yaml)")
	root.Flags().StringVarP(&a.line, "command", "c", "", "run one line and exit with its status")

	root.AddCommand(newAuditCommand(func() (string, error) {
		cfg, err := a.loadConfig()
		if err != nil {
			return "", err
		}
		return cfg.Audit.Path, nil
	}))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the stsh version.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "stsh %s\n", a.version)
		},
	})
	return root
}

func (a *app) loadConfig() (*config.Config, error) {
	path := a.cfgPath
	if path == "" {
		path = config.ConfigPath()
	}
	return config.LoadFrom(a.fs, path)
}

func (a *app) runShell(cmd *cobra.Command) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	logger := logging.NewOrNop(cfg.LoggingConfig())
	defer logger.Sync() //nolint:errcheck

	executor, err := pipeline.NewExecutor(cfg.SpawnOptions(), logger.Named("pipeline"))
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	var auditLog *audit.Logger
	if cfg.Audit.Enabled {
		auditLog, err = audit.NewLogger(cfg.Audit.Path)
		if err != nil {
			// Continue without audit logging.
			fmt.Fprintf(stderr, "stsh: audit: %v\n", err)
			auditLog = nil
		}
	}

	runner := NewRunner(executor, auditLog, stderr)

	if cmd.Flags().Changed("command") {
		a.status = runner.RunLine(a.line)
		return nil
	}

	logger.Debug("interactive shell", zap.Bool("die_with_parent", cfg.Spawn.DieWithParent))
	sh := &Shell{
		Runner:      runner,
		Prompt:      cfg.Shell.Prompt,
		HistoryFile: cfg.Shell.HistoryFile,
		Logger:      logger,
	}
	if in := cmd.InOrStdin(); in != io.Reader(os.Stdin) {
		sh.Stdin = in
	}
	if out := cmd.OutOrStdout(); out != io.Writer(os.Stdout) {
		sh.Stdout = out
	}
	if stderr != io.Writer(os.Stderr) {
		sh.Stderr = stderr
	}
	a.status, err = sh.Run()
	return err
}
