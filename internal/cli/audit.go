package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/marcelocantos/stsh/internal/audit"
)

// newAuditCommand builds "stsh audit". logPath is resolved lazily so the
// --config flag has been applied by the time a subcommand runs.
func newAuditCommand(logPath func() (string, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the hash-chained audit log.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "verify",
		Short: "Check the integrity of the audit log's hash chain.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			path, err := logPath()
			if err != nil {
				return err
			}
			return RunAuditVerify(cmd.OutOrStdout(), path)
		},
	})

	for _, name := range []string{"show", "tail"} {
		var n int
		sub := &cobra.Command{
			Use:   name,
			Short: "Print the most recent audit entries.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cmd.SilenceUsage = true
				path, err := logPath()
				if err != nil {
					return err
				}
				return RunAuditTail(cmd.OutOrStdout(), path, n)
			},
		}
		sub.Flags().IntVarP(&n, "lines", "n", 20, "number of entries to print")
		cmd.AddCommand(sub)
	}
	return cmd
}

// RunAuditVerify checks the hash chain at logPath.
func RunAuditVerify(w io.Writer, logPath string) error {
	if err := audit.Verify(logPath); err != nil {
		return fmt.Errorf("audit verification FAILED: %w", err)
	}
	fmt.Fprintln(w, "audit log integrity verified")
	return nil
}

// RunAuditTail prints the last n entries at logPath as indented JSON.
func RunAuditTail(w io.Writer, logPath string, n int) error {
	if n < 1 {
		return fmt.Errorf("-n must be positive, got %d", n)
	}
	entries, err := audit.Tail(logPath, n)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "no audit entries")
		return nil
	}
	for _, e := range entries {
		data, _ := json.MarshalIndent(e, "", "  ")
		fmt.Fprintf(w, "%s\n", data)
	}
	return nil
}
