package cli

import (
	"io"

	"github.com/spf13/cobra"

	mio "github.com/matzehuels/nativemerge/pkg/io"
)

// mergeCommand creates the merge command.
func (c *CLI) mergeCommand() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Compute the library each target is merged into",
		Long: `Compute the target to library mapping of every selected platform.

The mapping document lists, per platform, the merged library of every target.
Targets that are kept as their own library map to null.`,
		Example: `  nativemerge merge -c merge.yaml -g graph.json
  nativemerge merge -c merge.toml -g graph.json -p android-arm64 -o mapping.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.run(cmd.Context(), &flags)
			if err != nil {
				return err
			}
			err = mio.ExportFile(flags.output, func(w io.Writer) error {
				return mio.WriteMapping(w, res.Reports)
			})
			if err != nil {
				return err
			}

			printSummary(res)
			if !toStdout(flags.output) {
				printSuccess("Wrote mapping for %d platform(s)", len(res.Reports))
				printFile(flags.output)
			}
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Write per-target merge diagnostics",
		Long: `Write the diagnostic document of every selected platform: the computed
attributes of each target (module, merge group, split group, layer, reentry
counts), the libraries with their members and dependencies, and the split
groups.`,
		Example: `  nativemerge inspect -c merge.yaml -g graph.json -o inspect.json`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.run(cmd.Context(), &flags)
			if err != nil {
				return err
			}
			err = mio.ExportFile(flags.output, func(w io.Writer) error {
				return mio.WriteInspection(w, res.Reports)
			})
			if err != nil {
				return err
			}
			if !toStdout(flags.output) {
				printSuccess("Wrote diagnostics for %d platform(s)", len(res.Reports))
				printFile(flags.output)
			}
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}
