package cmd

import (
	"github.com/spf13/cobra"

	"github.com/flowviz/flowgate/internal/gating"
	"github.com/flowviz/flowgate/internal/output"
	"github.com/flowviz/flowgate/internal/plate"
	"github.com/flowviz/flowgate/internal/well"
	"github.com/flowviz/flowgate/internal/workspace"
)

// wellsCmd represents the wells command
var wellsCmd = &cobra.Command{
	Use:   "wells <workspace.wsp>",
	Short: "Resolve each sample's plate well",
	Long: `Resolve each sample's well position (A01-H12) and lay samples out on the plate.

Sources:
  auto      first well-id keyword ($WELLID, WELL ID, ...), then the file name
  keyword   the keyword named by --keyword, matched exactly, then loosely
  filename  a row letter and column number in the FCS file name

Samples with no resolvable well are placed in overflow rows below the plate
with method "fallback (sample index)"; they are never given a guessed well.`,
	Example: `  flowgate wells plate.wsp
  flowgate wells plate.wsp --source keyword --keyword "Well ID"`,
	Args: cobra.ExactArgs(1),
	RunE: runWells,
}

var (
	wellsSource  string
	wellsKeyword string
	wellsFilter  string
)

func init() {
	rootCmd.AddCommand(wellsCmd)
	wellsCmd.Flags().StringVar(&wellsSource, "source", "auto", "Well source (auto|keyword|filename)")
	wellsCmd.Flags().StringVar(&wellsKeyword, "keyword", "", "Keyword name for --source keyword")
	wellsCmd.Flags().StringVar(&wellsFilter, "filter", "", "Only samples with keyword key=value")
}

// layout places samples on a plate of the configured size.
func (a *app) layout(samples []*workspace.Sample, src well.Source) *plate.Layout {
	l := plate.New(a.cfg.Wells.Rows, a.cfg.Wells.Columns)
	for _, s := range samples {
		res, ok := well.Resolve(s.WellSample(), src)
		p := l.Place(s.ID, res, ok)
		switch {
		case !ok:
			a.logger.Warn("sample placed outside the plate", "sample", s.ID, "position", p.Label(), "err", gating.ErrWellIDUnresolvable)
		case p.Fallback:
			a.logger.Warn("sample placed outside the plate", "sample", s.ID, "position", p.Label(), "method", p.Method)
		}
	}
	return l
}

func runWells(cmd *cobra.Command, args []string) error {
	a, err := openApp(args[0])
	if err != nil {
		return err
	}
	src, err := a.wellSource(cmd, wellsSource, wellsKeyword)
	if err != nil {
		return err
	}
	samples, err := a.samples("", wellsFilter)
	if err != nil {
		return err
	}

	l := a.layout(samples, src)
	return a.write(cmd, output.WellsOutput{
		Workspace:  a.ws.Path(),
		Source:     src.Kind.String(),
		Placements: l.Placements(),
	})
}
