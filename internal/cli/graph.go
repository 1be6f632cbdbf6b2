package cli

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nativemerge/pkg/errors"
	mio "github.com/matzehuels/nativemerge/pkg/io"
	"github.com/matzehuels/nativemerge/pkg/pipeline"
)

// graphCommand creates the graph command.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		flags  runFlags
		format string
		render pipeline.RenderOptions
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Draw the final-library graph of one platform",
		Long: `Draw the dependency graph between the output libraries of one platform as
Graphviz DOT or SVG. Excluded libraries are drawn dashed.`,
		Example: `  nativemerge graph -c merge.yaml -g graph.json -p android-arm64 --reduce
  nativemerge graph -c merge.yaml -g graph.json --format svg -o libs.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.run(cmd.Context(), &flags)
			if err != nil {
				return err
			}
			if len(res.Reports) != 1 {
				names := make([]string, len(res.Reports))
				for i, rep := range res.Reports {
					names[i] = rep.Platform
				}
				return errors.New(errors.ErrCodeInvalidInput,
					"graph draws one platform, select one of %s with --platform", strings.Join(names, ", "))
			}

			render.Formats = []string{format}
			artifacts, err := pipeline.Render(cmd.Context(), res.Reports[0], render)
			if err != nil {
				return err
			}
			err = mio.ExportFile(flags.output, func(w io.Writer) error {
				_, err := w.Write(artifacts[format])
				return err
			})
			if err != nil {
				return err
			}
			if !toStdout(flags.output) {
				printSuccess("Rendered %s graph of %s", format, res.Reports[0].Platform)
				printFile(flags.output)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", pipeline.FormatDOT, "output format: dot or svg")
	cmd.Flags().BoolVar(&render.Reduce, "reduce", false, "remove transitive edges")
	cmd.Flags().BoolVar(&render.Detailed, "detailed", false, "show library metadata in labels")
	cmd.Flags().BoolVar(&render.ClusterModules, "cluster", false, "group libraries by module")
	_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{pipeline.FormatDOT, pipeline.FormatSVG}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}
