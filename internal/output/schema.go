package output

import (
	"github.com/flowviz/flowgate/internal/gating"
	"github.com/flowviz/flowgate/internal/plate"
	"github.com/flowviz/flowgate/internal/population"
	"github.com/flowviz/flowgate/internal/quadrant"
	"github.com/flowviz/flowgate/internal/store"
	"github.com/flowviz/flowgate/internal/tree"
)

// SampleRef names a sample in results.
type SampleRef struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
}

// GatesOutput is the gate tree of each listed sample.
type GatesOutput struct {
	Workspace string        `yaml:"workspace" json:"workspace"`
	Samples   []SampleGates `yaml:"samples" json:"samples"`
}

// SampleGates is one sample's gates grouped by path.
type SampleGates struct {
	Sample SampleRef    `yaml:"sample" json:"sample"`
	Groups []tree.Group `yaml:"groups" json:"groups"`
}

// ExtractOutput is gate geometry on one channel pair, in raw units.
type ExtractOutput struct {
	Workspace string          `yaml:"workspace" json:"workspace"`
	X         string          `yaml:"x" json:"x"`
	Y         string          `yaml:"y" json:"y"`
	Samples   []SampleExtract `yaml:"samples" json:"samples"`
}

// SampleExtract is the extracted gates of one sample.
type SampleExtract struct {
	Sample SampleRef         `yaml:"sample" json:"sample"`
	Gates  []gating.GateNode `yaml:"gates" json:"gates"`
	Error  string            `yaml:"error,omitempty" json:"error,omitempty"`
}

// DividersOutput is the divider resolution for one gate path.
type DividersOutput struct {
	Workspace string           `yaml:"workspace" json:"workspace"`
	Path      string           `yaml:"path" json:"path"`
	X         string           `yaml:"x" json:"x"`
	Y         string           `yaml:"y" json:"y"`
	Samples   []SampleDividers `yaml:"samples" json:"samples"`
}

// SampleDividers is one sample's divider lookup. Resolution is nil when
// every tier failed.
type SampleDividers struct {
	Sample     SampleRef            `yaml:"sample" json:"sample"`
	Resolution *quadrant.Resolution `yaml:"resolution,omitempty" json:"resolution,omitempty"`
	Thresholds *quadrant.Thresholds `yaml:"thresholds,omitempty" json:"thresholds,omitempty"`
}

// WellsOutput is where each sample sits on the plate.
type WellsOutput struct {
	Workspace  string            `yaml:"workspace" json:"workspace"`
	Source     string            `yaml:"source" json:"source"`
	Placements []plate.Placement `yaml:"placements" json:"placements"`
	SVG        string            `yaml:"svg,omitempty" json:"svg,omitempty"`
}

// StatsOutput is per-sample statistics of one gate population.
type StatsOutput struct {
	Workspace string        `yaml:"workspace" json:"workspace"`
	Gate      gating.GateID `yaml:"gate" json:"gate"`
	Channel   string        `yaml:"channel" json:"channel"`
	Samples   []SampleStats `yaml:"samples" json:"samples"`
}

// SampleStats is one sample's population summary.
type SampleStats struct {
	Sample  SampleRef          `yaml:"sample" json:"sample"`
	Well    string             `yaml:"well,omitempty" json:"well,omitempty"`
	Summary population.Summary `yaml:"summary" json:"summary"`
	Error   string             `yaml:"error,omitempty" json:"error,omitempty"`
}

// ExportOutput summarizes an export run.
type ExportOutput struct {
	Workspace string      `yaml:"workspace" json:"workspace"`
	Database  string      `yaml:"database" json:"database"`
	Stats     store.Stats `yaml:"stats" json:"stats"`
}
