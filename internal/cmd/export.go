package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flowviz/flowgate/internal/output"
	"github.com/flowviz/flowgate/internal/store"
	"github.com/flowviz/flowgate/internal/well"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <workspace.wsp>",
	Short: "Export samples and gate geometry to a SQLite database",
	Long: `Write every sample (with its resolved well and keywords) and the gate geometry
extracted on --x/--y to a SQLite database. Re-exporting replaces the rows of
the exported samples.

Tables: samples, keywords, gates, vertices, dividers. Coordinates are raw units.`,
	Example: `  flowgate export plate.wsp --x B1-A --y R2-A --db gates.db
  sqlite3 gates.db "SELECT sample_id, value FROM dividers WHERE orientation = 'vertical'"`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var (
	exportX      string
	exportY      string
	exportDB     string
	exportFilter string
)

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportX, "x", "", "X channel")
	exportCmd.Flags().StringVar(&exportY, "y", "", "Y channel")
	exportCmd.Flags().StringVar(&exportDB, "db", "flowgate.db", "Database file")
	exportCmd.Flags().StringVar(&exportFilter, "filter", "", "Only samples with keyword key=value")
	exportCmd.MarkFlagRequired("x")
	exportCmd.MarkFlagRequired("y")
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := openApp(args[0])
	if err != nil {
		return err
	}
	src, err := a.wellSource(cmd, a.cfg.Wells.Source, a.cfg.Wells.Keyword)
	if err != nil {
		return err
	}
	samples, err := a.samples("", exportFilter)
	if err != nil {
		return err
	}

	db, err := store.Open(exportDB)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, s := range samples {
		row := store.Sample{ID: s.ID, Name: s.Name, Filename: s.Filename, Keywords: s.Keywords}
		if res, ok := well.Resolve(s.WellSample(), src); ok {
			row.Well = res.Position.String()
			row.WellMethod = res.Method
		}
		if err := db.SaveSample(row); err != nil {
			return err
		}
		nodes, err := a.extractor.Gates(s.ID, exportX, exportY)
		if err != nil {
			return fmt.Errorf("sample %s: %w", s.ID, err)
		}
		if err := db.SaveGates(s.ID, nodes); err != nil {
			return err
		}
		a.logger.Debug("sample exported", "sample", s.ID, "gates", len(nodes))
	}

	stats, err := db.GetStats()
	if err != nil {
		return err
	}
	return a.write(cmd, output.ExportOutput{Workspace: a.ws.Path(), Database: db.Path(), Stats: *stats})
}
