package cmd

import (
	"github.com/spf13/cobra"

	"github.com/flowviz/flowgate/internal/gating"
	"github.com/flowviz/flowgate/internal/output"
)

// dividersCmd represents the dividers command
var dividersCmd = &cobra.Command{
	Use:   "dividers <workspace.wsp>",
	Short: "Resolve quadrant divider positions at a gate path",
	Long: `Resolve the vertical and horizontal divider positions of the quadrant at --path,
in raw units. Tiers are tried in order and the first that succeeds wins:

  direct    dividers stored on a gate at the path or its parent
  document  Q1-Q4 region bounds re-read from the workspace XML
  regions   Q1-Q4 region bounds from the gating tree

Run with --verbose to see each tier attempt.`,
	Example: `  flowgate dividers plate.wsp --x B1-A --y R2-A --path root/Cells/Singlets`,
	Args:    cobra.ExactArgs(1),
	RunE:    runDividers,
}

var (
	dividersX      string
	dividersY      string
	dividersPath   string
	dividersSample string
	dividersFilter string
)

func init() {
	rootCmd.AddCommand(dividersCmd)
	dividersCmd.Flags().StringVar(&dividersX, "x", "", "X channel")
	dividersCmd.Flags().StringVar(&dividersY, "y", "", "Y channel")
	dividersCmd.Flags().StringVar(&dividersPath, "path", "", "Gate path holding the quadrant")
	dividersCmd.Flags().StringVar(&dividersSample, "sample", "", "Only this sample id")
	dividersCmd.Flags().StringVar(&dividersFilter, "filter", "", "Only samples with keyword key=value")
	dividersCmd.MarkFlagRequired("x")
	dividersCmd.MarkFlagRequired("y")
	dividersCmd.MarkFlagRequired("path")
}

func runDividers(cmd *cobra.Command, args []string) error {
	a, err := openApp(args[0])
	if err != nil {
		return err
	}
	samples, err := a.samples(dividersSample, dividersFilter)
	if err != nil {
		return err
	}

	path := gating.ParsePath(dividersPath)
	out := output.DividersOutput{Workspace: a.ws.Path(), Path: path.String(), X: dividersX, Y: dividersY}
	for _, s := range samples {
		res := output.SampleDividers{Sample: ref(s)}
		if r, ok := a.engine.Resolve(s.ID, path, dividersX, dividersY); ok {
			res.Resolution = &r
		} else {
			a.logger.Warn("no dividers resolved", "sample", s.ID, "path", path.String())
		}
		if t, ok := a.engine.Thresholds(s.ID, path, dividersX, dividersY); ok {
			res.Thresholds = &t
		}
		out.Samples = append(out.Samples, res)
	}
	return a.write(cmd, out)
}
