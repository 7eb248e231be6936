package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lnconform/lnconform/internal/engine"
)

// NewPathsCommand creates the paths command. It enumerates a scenario's
// paths without executing anything, for inspecting what a run will do.
func NewPathsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paths <scenario.yaml>",
		Short: "Enumerate a scenario's paths without running them",
		Long: `Enumerate every path a scenario expands to.

Each try_all branch point multiplies the path count; this command shows
the full expansion, longest path first, in the exact order a run would
execute them.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showPaths(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

// pathListing is the JSON payload for the paths command.
type pathListing struct {
	Scenario string     `json:"scenario"`
	Count    int        `json:"count"`
	Paths    [][]string `json:"paths"`
}

func showPaths(opts *RootOptions, path string, cmd *cobra.Command) error {
	compiled, err := loadCompiled(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	paths := engine.Enumerate(compiled.Events)
	listing := pathListing{
		Scenario: compiled.Name,
		Count:    len(paths),
		Paths:    make([][]string, 0, len(paths)),
	}
	for _, p := range paths {
		listing.Paths = append(listing.Paths, p.Names())
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if formatter.Format == "json" {
		return formatter.Success(listing)
	}

	fmt.Fprintf(formatter.Writer, "%s: %d paths\n", listing.Scenario, listing.Count)
	for i, names := range listing.Paths {
		fmt.Fprintf(formatter.Writer, "path %d (%d events):\n", i+1, len(names))
		for _, name := range names {
			fmt.Fprintf(formatter.Writer, "  %s\n", name)
		}
	}
	return nil
}
