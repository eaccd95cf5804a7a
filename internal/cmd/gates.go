package cmd

import (
	"github.com/spf13/cobra"

	"github.com/flowviz/flowgate/internal/output"
)

// gatesCmd represents the gates command
var gatesCmd = &cobra.Command{
	Use:   "gates <workspace.wsp>",
	Short: "List each sample's gates grouped by path",
	Long: `List the gating tree of each sample as (name, path) pairs grouped by path.
The synthetic Ungated node is always listed first under root.`,
	Example: `  flowgate gates plate.wsp
  flowgate gates plate.wsp --sample 3 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runGates,
}

var (
	gatesSample string
	gatesFilter string
)

func init() {
	rootCmd.AddCommand(gatesCmd)
	gatesCmd.Flags().StringVar(&gatesSample, "sample", "", "Only this sample id")
	gatesCmd.Flags().StringVar(&gatesFilter, "filter", "", "Only samples with keyword key=value")
}

func runGates(cmd *cobra.Command, args []string) error {
	a, err := openApp(args[0])
	if err != nil {
		return err
	}
	samples, err := a.samples(gatesSample, gatesFilter)
	if err != nil {
		return err
	}

	out := output.GatesOutput{Workspace: a.ws.Path()}
	for _, s := range samples {
		groups, err := a.nav.GatesByPath(s.ID)
		if err != nil {
			return err
		}
		out.Samples = append(out.Samples, output.SampleGates{Sample: ref(s), Groups: groups})
	}
	return a.write(cmd, out)
}
