package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewValidateCommand creates the validate command. It loads and compiles
// scenarios without executing them, so scenario files can be checked in
// CI without a node.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario.yaml>...",
		Short: "Check scenario files without running them",
		Long: `Validate scenario files.

Each file is loaded and compiled: YAML structure, step kinds, step
parameters, and any referenced namespace file are all checked. Nothing
is executed.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateScenarios(rootOpts, args, cmd)
		},
	}

	return cmd
}

// validationOutcome is one file's validation verdict.
type validationOutcome struct {
	File   string `json:"file"`
	Valid  bool   `json:"valid"`
	Events int    `json:"events,omitempty"`
	Error  string `json:"error,omitempty"`
}

func validateScenarios(opts *RootOptions, files []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	outcomes := make([]validationOutcome, 0, len(files))
	failed := 0
	for _, file := range files {
		outcome := validationOutcome{File: file, Valid: true}
		compiled, err := loadCompiled(file)
		if err != nil {
			outcome.Valid = false
			outcome.Error = err.Error()
			failed++
		} else {
			outcome.Events = len(compiled.Events)
		}
		outcomes = append(outcomes, outcome)
	}

	if formatter.Format == "json" {
		if err := formatter.Success(outcomes); err != nil {
			return err
		}
	} else {
		for _, o := range outcomes {
			if o.Valid {
				fmt.Fprintf(formatter.Writer, "%s: ok (%d events)\n", o.File, o.Events)
				continue
			}
			if err := formatter.Error("invalid_scenario", fmt.Sprintf("%s: %s", o.File, o.Error), nil); err != nil {
				return err
			}
		}
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenario files invalid", failed, len(files)))
	}
	return nil
}
