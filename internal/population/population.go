// Package population applies a gate path to a sample's events.
package population

import (
	"fmt"
	"path/filepath"

	"github.com/flowviz/flowgate/internal/extract"
	"github.com/flowviz/flowgate/internal/fcs"
	"github.com/flowviz/flowgate/internal/gating"
	"github.com/flowviz/flowgate/internal/transform"
	"github.com/flowviz/flowgate/internal/tree"
)

// Mode selects which population of a gate is loaded.
type Mode int

const (
	// Self loads the events inside the gate.
	Self Mode = iota
	// Parent loads the events the gate was applied to, so the gate's own
	// boundary can be drawn over them.
	Parent
)

func (m Mode) String() string {
	if m == Parent {
		return "parent"
	}
	return "self"
}

// Source supplies raw event data per sample.
type Source interface {
	Events(sampleID string) (*fcs.Sample, error)
}

// FileSource reads FCS files from a directory.
type FileSource struct {
	Dir string
	// Filename maps a sample id to its FCS file name.
	Filename func(sampleID string) (string, error)
}

// Events implements Source.
func (s FileSource) Events(sampleID string) (*fcs.Sample, error) {
	name, err := s.Filename(sampleID)
	if err != nil {
		return nil, err
	}
	return fcs.ReadFile(filepath.Join(s.Dir, name))
}

// Population is a subset of a sample's events.
type Population struct {
	Sample *fcs.Sample
	// Index lists the selected rows of Sample.Events.
	Index []int
}

// Count is the number of selected events.
func (p *Population) Count() int {
	return len(p.Index)
}

// Values returns the selected events' values on the channel best matching
// name.
func (p *Population) Values(name string) ([]float64, error) {
	j, ok := p.Sample.Channel(name)
	if !ok {
		return nil, fmt.Errorf("channel %q not found in %v", name, p.Sample.Channels)
	}
	out := make([]float64, len(p.Index))
	for k, i := range p.Index {
		out[k] = p.Sample.Events[i][j]
	}
	return out, nil
}

// Loader resolves gate paths to event subsets.
type Loader struct {
	provider  gating.Provider
	nav       *tree.Navigator
	extractor *extract.Extractor
	mapper    transform.Mapper
	source    Source
}

// NewLoader returns a loader. ex supplies gate geometry and must wrap p.
func NewLoader(p gating.Provider, ex *extract.Extractor, mapper transform.Mapper, src Source) *Loader {
	return &Loader{provider: p, nav: tree.New(p), extractor: ex, mapper: mapper, source: src}
}

// Load returns the population of gate id. Ungated, and the parent of a
// root-level gate, are all events.
func (l *Loader) Load(sampleID string, id gating.GateID, mode Mode) (*Population, error) {
	s, err := l.source.Events(sampleID)
	if err != nil {
		return nil, err
	}
	pop := &Population{Sample: s, Index: make([]int, len(s.Events))}
	for i := range pop.Index {
		pop.Index[i] = i
	}
	if id.IsUngated() {
		return pop, nil
	}

	chain, err := l.nav.Ancestors(sampleID, id.Path)
	if err != nil {
		return nil, err
	}
	if mode == Self {
		g, err := l.provider.Gate(sampleID, id)
		if err != nil {
			return nil, err
		}
		chain = append(chain, g)
	}
	for _, g := range chain {
		keep, err := l.membership(sampleID, g, s)
		if err != nil {
			return nil, fmt.Errorf("applying gate %s: %w", g.ID(), err)
		}
		pop.Index = filter(pop.Index, keep)
	}
	return pop, nil
}

func filter(index []int, keep func(int) bool) []int {
	out := index[:0:0]
	for _, i := range index {
		if keep(i) {
			out = append(out, i)
		}
	}
	return out
}

// membership returns a predicate over event rows for gate g.
func (l *Loader) membership(sampleID string, g *gating.Gate, s *fcs.Sample) (func(int) bool, error) {
	cols := make([]int, len(g.Dimensions))
	for k, d := range g.Dimensions {
		j, ok := s.Channel(d)
		if !ok {
			return nil, fmt.Errorf("channel %q not found", d)
		}
		cols[k] = j
	}

	if len(cols) == 1 {
		r, ok := g.Bounds[g.Dimensions[0]]
		if !ok {
			return nil, gating.ErrGeometryUnavailable
		}
		r = l.mapper.ToRawRange(r)
		return func(i int) bool { return r.Contains(s.Events[i][cols[0]]) }, nil
	}
	if len(cols) != 2 {
		return nil, fmt.Errorf("%w: %d-dimensional gate", gating.ErrGeometryUnavailable, len(cols))
	}

	node, err := l.extractor.Selected(sampleID, g.ID(), g.Dimensions[0], g.Dimensions[1])
	if err != nil {
		return nil, err
	}
	point := func(i int) gating.Point {
		return gating.Point{X: s.Events[i][cols[0]], Y: s.Events[i][cols[1]]}
	}

	switch node.Kind {
	case gating.KindRectangle:
		// The overlay closes open sides at the axis ends; events past them
		// still belong to the gate.
		rx := l.mapper.ToRawRange(g.Bounds[g.Dimensions[0]])
		ry := l.mapper.ToRawRange(g.Bounds[g.Dimensions[1]])
		return func(i int) bool {
			return rx.Contains(s.Events[i][cols[0]]) && ry.Contains(s.Events[i][cols[1]])
		}, nil
	case gating.KindPolygon:
		return func(i int) bool { return node.Contains(point(i)) }, nil
	}
	idx, isRegion := gating.RegionIndex(g.Name)
	if !isRegion {
		return func(int) bool { return true }, nil
	}
	v, okX := node.Divider(gating.Vertical)
	h, okY := node.Divider(gating.Horizontal)
	if !okX || !okY {
		return nil, gating.ErrDividerResolutionFailed
	}
	return func(i int) bool { return gating.QuadrantIndex(point(i), v.Value, h.Value) == idx }, nil
}
