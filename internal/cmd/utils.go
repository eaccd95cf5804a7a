package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/flowviz/flowgate/internal/config"
	"github.com/flowviz/flowgate/internal/extract"
	"github.com/flowviz/flowgate/internal/keyword"
	"github.com/flowviz/flowgate/internal/output"
	"github.com/flowviz/flowgate/internal/population"
	"github.com/flowviz/flowgate/internal/quadrant"
	"github.com/flowviz/flowgate/internal/transform"
	"github.com/flowviz/flowgate/internal/tree"
	"github.com/flowviz/flowgate/internal/well"
	"github.com/flowviz/flowgate/internal/workspace"
)

// app is one loaded workspace with the components every command uses.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	ws        *workspace.Workspace
	mapper    transform.Mapper
	nav       *tree.Navigator
	engine    *quadrant.Engine
	extractor *extract.Extractor
}

// loadConfig reads --config if given, else .flowgate/config.yaml found from
// the working directory, else defaults.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromPath(configPath)
	}
	return config.Load(".")
}

// openApp loads config and the workspace at wsPath and wires the core
// components over it.
func openApp(wsPath string) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger()

	ws, err := workspace.Open(wsPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("workspace loaded", "path", wsPath, "samples", len(ws.Samples()))

	mapper := transform.New(cfg.Display.LogMin, cfg.Display.LogMax)
	engine := quadrant.New(ws,
		quadrant.WithDocument(ws.Document()),
		quadrant.WithMapper(mapper),
		quadrant.WithMinRegions(cfg.Quadrant.MinRegions),
		quadrant.WithTolerance(cfg.Quadrant.AgreementTolerance),
		quadrant.WithLogger(logger),
	)
	return &app{
		cfg:       cfg,
		logger:    logger,
		ws:        ws,
		mapper:    mapper,
		nav:       tree.New(ws),
		engine:    engine,
		extractor: extract.New(ws, engine, logger),
	}, nil
}

// format returns --format when given on the command line, else the
// configured format.
func (a *app) format(cmd *cobra.Command) (output.Format, error) {
	if cmd.Flags().Changed("format") {
		return output.ParseFormat(outputFormat)
	}
	return output.ParseFormat(a.cfg.Output.Format)
}

// write renders v to the command's stdout.
func (a *app) write(cmd *cobra.Command, v any) error {
	f, err := a.format(cmd)
	if err != nil {
		return err
	}
	formatter, err := output.GetFormatter(f)
	if err != nil {
		return err
	}
	return formatter.FormatToWriter(cmd.OutOrStdout(), v)
}

// samples returns the sample with id, or every sample passing filter when
// id is empty. filter is "key=value" or empty.
func (a *app) samples(id, filter string) ([]*workspace.Sample, error) {
	if id != "" {
		s, err := a.ws.Sample(id)
		if err != nil {
			return nil, err
		}
		return []*workspace.Sample{s}, nil
	}
	all := a.ws.Samples()
	if filter == "" {
		return all, nil
	}
	f, ok := keyword.ParseFilter(filter)
	if !ok {
		return nil, fmt.Errorf("invalid filter %q (expected key=value)", filter)
	}
	var out []*workspace.Sample
	for _, s := range all {
		if f.Matches(s.Keywords) {
			out = append(out, s)
		}
	}
	a.logger.Debug("samples filtered", "filter", filter, "kept", len(out), "of", len(all))
	return out, nil
}

// wellSource returns the well source from flags, falling back to config.
func (a *app) wellSource(cmd *cobra.Command, source, name string) (well.Source, error) {
	if !cmd.Flags().Changed("source") {
		source = a.cfg.Wells.Source
	}
	if !cmd.Flags().Changed("keyword") {
		name = a.cfg.Wells.Keyword
	}
	return well.ParseSource(source, name)
}

// loader returns a population loader reading FCS files from dir, or from
// the workspace's directory when dir is empty.
func (a *app) loader(dir string) *population.Loader {
	if dir == "" {
		dir = filepath.Dir(a.ws.Path())
	}
	src := population.FileSource{
		Dir: dir,
		Filename: func(id string) (string, error) {
			s, err := a.ws.Sample(id)
			if err != nil {
				return "", err
			}
			return s.Filename, nil
		},
	}
	return population.NewLoader(a.ws, a.extractor, a.mapper, src)
}

func ref(s *workspace.Sample) output.SampleRef {
	return output.SampleRef{ID: s.ID, Name: s.Name}
}

func parseMode(s string) (population.Mode, error) {
	switch s {
	case "", "self":
		return population.Self, nil
	case "parent":
		return population.Parent, nil
	}
	return 0, fmt.Errorf("invalid mode %q (expected self or parent)", s)
}
