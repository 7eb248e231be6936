package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lnconform/lnconform/internal/engine"
	"github.com/lnconform/lnconform/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Runner   string
	Database string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario against a node",
		Long: `Run a protocol scenario against a node.

The scenario is compiled into its event sequence, every branch-point
variation is enumerated as a separate path, and the paths execute in
order of decreasing length. A failing path stops the run.

Example:
  lnconform run scenario.yaml
  lnconform run --runner dummy --db ./runs.db scenario.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Runner, "runner", "dummy", "runner backend to test against")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run history database (optional)")

	return cmd
}

func runScenario(opts *RunOptions, path string, cmd *cobra.Command) error {
	logLevel := slog.LevelWarn
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	}))
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	compiled, err := loadCompiled(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	formatter.VerboseLog("compiled %s: %d events", compiled.Name, len(compiled.Events))

	runner, err := newRunner(opts.Runner)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build runner", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exec := engine.New(runner,
		engine.WithNamespace(compiled.Namespace),
		engine.WithLogger(logger),
	)
	result, err := exec.Run(ctx, compiled.Name, compiled.Events)
	if err != nil {
		return WrapExitError(ExitCommandError, "run aborted", err)
	}

	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()
		runID, err := st.WriteRun(ctx, result)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to persist run", err)
		}
		formatter.VerboseLog("run persisted as %s", runID)
	}

	if err := printResult(formatter, result); err != nil {
		return err
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", result.Name))
	}
	return nil
}

// printResult renders a run result in the configured format.
func printResult(f *OutputFormatter, result *engine.Result) error {
	if f.Format == "json" {
		return f.Success(result)
	}

	for _, pr := range result.Paths {
		status := "PASS"
		if !pr.Pass {
			status = "FAIL"
		}
		fmt.Fprintf(f.Writer, "path %d/%d: %s (%d events)\n",
			pr.Index+1, result.Enumerated, status, pr.EventCount)
		if !pr.Pass {
			fmt.Fprintf(f.Writer, "  failed at %s: %s\n", pr.FailedEvent, pr.Error)
		}
		if f.Verbose {
			for _, te := range pr.Trace {
				fmt.Fprintf(f.Writer, "  %3d %s\n", te.Seq, te.Event)
			}
		}
	}

	if result.Pass {
		fmt.Fprintf(f.Writer, "%s: %d/%d paths passed\n", result.Name, len(result.Paths), result.Enumerated)
	} else {
		fmt.Fprintf(f.Writer, "%s: FAILED after %d of %d paths\n", result.Name, len(result.Paths), result.Enumerated)
	}
	return nil
}
