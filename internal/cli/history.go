package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lnconform/lnconform/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Scenario string
	RunID    string
}

// NewHistoryCommand creates the history command, which reads the run
// database populated by "run --db".
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect persisted run history",
		Long: `Inspect the run history database.

Without --run, lists runs newest first. With --run, prints one run's
per-path verdicts and traces.

Example:
  lnconform history --db ./runs.db
  lnconform history --db ./runs.db --scenario feerate-variants
  lnconform history --db ./runs.db --run 6b3f...`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run history database (required)")
	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "filter runs by scenario name")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show one run in full")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func showHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.RunID != "" {
		rec, err := st.ReadRun(cmd.Context(), opts.RunID)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read run", err)
		}
		if formatter.Format == "json" {
			return formatter.Success(rec)
		}
		fmt.Fprintf(formatter.Writer, "run %s: %s at %s\n",
			rec.ID, rec.Result.Name, rec.StartedAt.Format(time.RFC3339))
		return printResult(formatter, &rec.Result)
	}

	runs, err := st.ListRuns(cmd.Context(), opts.Scenario)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}
	if formatter.Format == "json" {
		return formatter.Success(runs)
	}
	for _, r := range runs {
		status := "PASS"
		if !r.Pass {
			status = "FAIL"
		}
		fmt.Fprintf(formatter.Writer, "%s  %s  %s  %s\n",
			r.ID, r.StartedAt.Format(time.RFC3339), status, r.Scenario)
	}
	return nil
}
