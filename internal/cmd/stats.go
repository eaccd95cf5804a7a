package cmd

import (
	"github.com/spf13/cobra"

	"github.com/flowviz/flowgate/internal/output"
	"github.com/flowviz/flowgate/internal/population"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats <workspace.wsp>",
	Short: "Count, median and mean of a channel within a gate",
	Long: `Compute the event count, median and mean of --channel within the gate's
population for each sample. Values below events.min_value (default 10) are
left out of the median and mean.

--channel matches the FCS parameter name exactly, or as a substring of a
parameter name or label ("RL1-A" matches "RL1-A pHrodo").`,
	Example: `  flowgate stats plate.wsp --channel RL1-A --gate Singlets --path root/Cells
  flowgate stats plate.wsp --channel B1-A --filter "Time Point=24h" --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runStats,
}

var (
	statsChannel string
	statsGate    string
	statsPath    string
	statsMode    string
	statsFCSDir  string
	statsFilter  string
)

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVar(&statsChannel, "channel", "", "Channel to summarize")
	statsCmd.Flags().StringVar(&statsGate, "gate", "", "Gate (default: Ungated)")
	statsCmd.Flags().StringVar(&statsPath, "path", "", "Path of --gate, e.g. root/Cells")
	statsCmd.Flags().StringVar(&statsMode, "mode", "self", "Population (self|parent)")
	statsCmd.Flags().StringVar(&statsFCSDir, "fcs-dir", "", "Directory holding the FCS files")
	statsCmd.Flags().StringVar(&statsFilter, "filter", "", "Only samples with keyword key=value")
	statsCmd.MarkFlagRequired("channel")
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := openApp(args[0])
	if err != nil {
		return err
	}
	mode, err := parseMode(statsMode)
	if err != nil {
		return err
	}
	src, err := a.wellSource(cmd, a.cfg.Wells.Source, a.cfg.Wells.Keyword)
	if err != nil {
		return err
	}
	samples, err := a.samples("", statsFilter)
	if err != nil {
		return err
	}

	l := a.layout(samples, src)
	wells := make(map[string]string)
	for _, p := range l.Placements() {
		wells[p.SampleID] = p.Label()
	}

	loader := a.loader(statsFCSDir)
	id := gateFlag(statsGate, statsPath)
	out := output.StatsOutput{Workspace: a.ws.Path(), Gate: id, Channel: statsChannel}
	for _, s := range samples {
		res := output.SampleStats{Sample: ref(s), Well: wells[s.ID]}
		pop, err := loader.Load(s.ID, id, mode)
		if err == nil {
			var vals []float64
			if vals, err = pop.Values(statsChannel); err == nil {
				res.Summary = population.Summarize(statsChannel, vals, a.cfg.Events.MinValue)
			}
		}
		if err != nil {
			a.logger.Warn("no statistics", "sample", s.ID, "err", err)
			res.Error = err.Error()
		}
		out.Samples = append(out.Samples, res)
	}
	return a.write(cmd, out)
}
