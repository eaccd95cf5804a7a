package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flowviz/flowgate/internal/gating"
	"github.com/flowviz/flowgate/internal/output"
	"github.com/flowviz/flowgate/internal/population"
	"github.com/flowviz/flowgate/internal/render"
	"github.com/flowviz/flowgate/internal/workspace"
)

// plateCmd represents the plate command
var plateCmd = &cobra.Command{
	Use:   "plate <workspace.wsp>",
	Short: "Render a plate grid of scatter plots with the gate drawn over each well",
	Long: `Render one scatter plot per well, tiled as the plate, to an SVG file.

Events come from each sample's FCS file in --fcs-dir (default: the workspace's
directory). With --mode parent (default) each plot shows the population the
gate was applied to, with the gate's outline or quadrant dividers on top; with
--mode self it shows the gate's own events. Samples without a well are drawn in
overflow rows below the plate.`,
	Example: `  flowgate plate plate.wsp --x B1-A --y R2-A --gate "Q2: B1-A+ , R2-A+" --path root/Cells/Singlets --svg plate.svg
  flowgate plate plate.wsp --x FSC-A --y SSC-A --gate Cells --path root --fcs-dir ./fcs`,
	Args: cobra.ExactArgs(1),
	RunE: runPlate,
}

var (
	plateX       string
	plateY       string
	plateGate    string
	platePath    string
	plateMode    string
	plateFCSDir  string
	plateSVG     string
	plateFilter  string
	plateSource  string
	plateKeyword string
)

func init() {
	rootCmd.AddCommand(plateCmd)
	plateCmd.Flags().StringVar(&plateX, "x", "", "X channel")
	plateCmd.Flags().StringVar(&plateY, "y", "", "Y channel")
	plateCmd.Flags().StringVar(&plateGate, "gate", "", "Gate to draw (default: Ungated)")
	plateCmd.Flags().StringVar(&platePath, "path", "", "Path of --gate, e.g. root/Cells")
	plateCmd.Flags().StringVar(&plateMode, "mode", "parent", "Population to plot (parent|self)")
	plateCmd.Flags().StringVar(&plateFCSDir, "fcs-dir", "", "Directory holding the FCS files")
	plateCmd.Flags().StringVar(&plateSVG, "svg", "plate.svg", "Output SVG file")
	plateCmd.Flags().StringVar(&plateFilter, "filter", "", "Only samples with keyword key=value")
	plateCmd.Flags().StringVar(&plateSource, "source", "auto", "Well source (auto|keyword|filename)")
	plateCmd.Flags().StringVar(&plateKeyword, "keyword", "", "Keyword name for --source keyword")
	plateCmd.MarkFlagRequired("x")
	plateCmd.MarkFlagRequired("y")
}

func gateFlag(name, path string) gating.GateID {
	if name == "" || name == gating.UngatedName {
		return gating.Ungated()
	}
	return gating.GateID{Name: name, Path: gating.ParsePath(path)}
}

func runPlate(cmd *cobra.Command, args []string) error {
	a, err := openApp(args[0])
	if err != nil {
		return err
	}
	mode, err := parseMode(plateMode)
	if err != nil {
		return err
	}
	src, err := a.wellSource(cmd, plateSource, plateKeyword)
	if err != nil {
		return err
	}
	samples, err := a.samples("", plateFilter)
	if err != nil {
		return err
	}

	l := a.layout(samples, src)
	loader := a.loader(plateFCSDir)
	id := gateFlag(plateGate, platePath)

	panels := make(map[string]*render.Panel, len(samples))
	for _, s := range samples {
		panels[s.ID] = a.panel(loader, s, id, mode, plateX, plateY)
	}

	grid := make([][]*render.Panel, l.TotalRows())
	for r := range grid {
		grid[r] = make([]*render.Panel, l.Columns)
		for c := range grid[r] {
			p, ok := l.At(r, c)
			if !ok {
				continue
			}
			panel := panels[p.SampleID]
			panel.Title = fmt.Sprintf("%s %s", p.Label(), panel.Title)
			grid[r][c] = panel
		}
	}

	f, err := os.Create(plateSVG)
	if err != nil {
		return fmt.Errorf("create %s: %w", plateSVG, err)
	}
	defer f.Close()
	opt := render.Options{MaxPoints: a.cfg.Events.MaxPoints, Seed: a.cfg.Events.Seed}
	if err := render.Grid(f, grid, opt); err != nil {
		return fmt.Errorf("render plate: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	return a.write(cmd, output.WellsOutput{
		Workspace:  a.ws.Path(),
		Source:     src.Kind.String(),
		Placements: l.Placements(),
		SVG:        plateSVG,
	})
}

// panel loads one sample's events and gate overlay. Failures are logged
// and leave the panel empty so the rest of the plate still renders.
func (a *app) panel(loader *population.Loader, s *workspace.Sample, id gating.GateID, mode population.Mode, x, y string) *render.Panel {
	log := a.logger.With("sample", s.ID, "gate", id.String())
	panel := &render.Panel{XLabel: x, YLabel: y}

	if !id.IsUngated() {
		node, err := a.extractor.Selected(s.ID, id, x, y)
		if err != nil {
			log.Warn("no gate overlay", "err", err)
		} else {
			panel.Gates = []gating.GateNode{node}
		}
	}

	pop, err := loader.Load(s.ID, id, mode)
	if err != nil {
		log.Warn("no events", "err", err)
		panel.Title = "(no data)"
		return panel
	}
	xs, err := pop.Values(x)
	if err != nil {
		log.Warn("no events", "err", err)
		panel.Title = "(no data)"
		return panel
	}
	ys, err := pop.Values(y)
	if err != nil {
		log.Warn("no events", "err", err)
		panel.Title = "(no data)"
		return panel
	}
	panel.Points = make([]gating.Point, len(xs))
	for i := range xs {
		panel.Points[i] = gating.Point{X: xs[i], Y: ys[i]}
	}
	panel.Title = fmt.Sprintf("n=%d", pop.Count())
	return panel
}
