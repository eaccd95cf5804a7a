// Package extract builds raw-space overlay geometry for the gates of a
// sample that lie on a given channel pair.
package extract

import (
	"fmt"
	"log/slog"

	"github.com/flowviz/flowgate/internal/gating"
	"github.com/flowviz/flowgate/internal/quadrant"
	"github.com/flowviz/flowgate/internal/transform"
)

// QuadrantsName names the synthetic quadrant node for region gates that sit
// directly at the tree root.
const QuadrantsName = "Quadrants"

// Extractor turns provider gates into GateNodes. It never modifies the
// provider's gates and keeps no state between calls.
type Extractor struct {
	provider gating.Provider
	engine   *quadrant.Engine
	mapper   transform.Mapper
	logger   *slog.Logger
}

// New returns an extractor. A nil engine gets a default one over p without
// the document tier; a nil logger uses slog.Default().
func New(p gating.Provider, engine *quadrant.Engine, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if engine == nil {
		engine = quadrant.New(p, quadrant.WithLogger(logger))
	}
	return &Extractor{
		provider: p,
		engine:   engine,
		mapper:   engine.Mapper(),
		logger:   logger,
	}
}

// Gates returns overlay geometry for every gate of the sample defined on
// {x, y} in either order. Gates that cannot be turned into geometry are
// logged and skipped. Only a failure to list the sample's gates is
// returned as an error.
func (e *Extractor) Gates(sampleID, x, y string) ([]gating.GateNode, error) {
	ids, err := e.provider.GateIDs(sampleID)
	if err != nil {
		return nil, fmt.Errorf("listing gates of %s: %w", sampleID, err)
	}

	var nodes []gating.GateNode
	quadrants := make(map[string]bool)
	var regionPaths []gating.Path
	seenRegionPath := make(map[string]bool)

	for _, id := range ids {
		g, err := e.provider.Gate(sampleID, id)
		if err != nil {
			e.skip(sampleID, id, err)
			continue
		}
		if !g.OnChannels(x, y) {
			continue
		}
		if gating.IsRegionName(g.Name) && !g.HasGeometry() {
			key := gating.GateID{Path: g.Path}.Key()
			if !seenRegionPath[key] {
				seenRegionPath[key] = true
				regionPaths = append(regionPaths, g.Path)
			}
			continue
		}
		node, err := e.node(sampleID, g, x, y)
		if err != nil {
			e.skip(sampleID, id, err)
			continue
		}
		if node.Kind == gating.KindQuadrant {
			quadrants[node.ID().Key()] = true
		}
		nodes = append(nodes, node)
	}

	for _, p := range regionPaths {
		id := e.owner(sampleID, p, x, y)
		if quadrants[id.Key()] {
			continue
		}
		node, err := e.fromRegions(sampleID, p, x, y)
		if err != nil {
			e.skip(sampleID, id, err)
			continue
		}
		quadrants[id.Key()] = true
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// Selected returns the geometry of one gate on {x, y}.
func (e *Extractor) Selected(sampleID string, id gating.GateID, x, y string) (gating.GateNode, error) {
	if id.IsUngated() {
		return gating.GateNode{}, fmt.Errorf("%w: %s has no boundary", gating.ErrGeometryUnavailable, gating.UngatedName)
	}
	g, err := e.provider.Gate(sampleID, id)
	if err != nil {
		return gating.GateNode{}, err
	}
	if !g.OnChannels(x, y) {
		return gating.GateNode{}, fmt.Errorf("%w: %s is defined on %v, not %s/%s",
			gating.ErrGeometryUnavailable, id, g.Dimensions, x, y)
	}
	if gating.IsRegionName(g.Name) && !g.HasGeometry() {
		return e.fromRegions(sampleID, g.Path, x, y)
	}
	return e.node(sampleID, g, x, y)
}

func (e *Extractor) skip(sampleID string, id gating.GateID, err error) {
	e.logger.Warn("skipping gate", "sample", sampleID, "gate", id.Name, "path", id.Path.String(), "err", err)
}

// owner is the gate region leaves at path p belong to: a quadrant gate on
// {x, y} sitting beside them at p, else the gate p names.
func (e *Extractor) owner(sampleID string, p gating.Path, x, y string) gating.GateID {
	ids, err := e.provider.GateIDs(sampleID)
	if err != nil {
		return regionOwner(p)
	}
	for _, id := range ids {
		if !id.Path.Equal(p) || gating.IsRegionName(id.Name) {
			continue
		}
		g, err := e.provider.Gate(sampleID, id)
		if err == nil && g.IsQuadrant() && g.OnChannels(x, y) {
			return g.ID()
		}
	}
	return regionOwner(p)
}

// regionOwner is the gate p names.
func regionOwner(p gating.Path) gating.GateID {
	parent, name, ok := p.Split()
	if !ok {
		return gating.GateID{Name: QuadrantsName}
	}
	return gating.GateID{Name: name, Path: parent}
}

func (e *Extractor) fromRegions(sampleID string, p gating.Path, x, y string) (gating.GateNode, error) {
	id := e.owner(sampleID, p, x, y)
	res, ok := e.engine.Resolve(sampleID, p, x, y)
	if !ok {
		return gating.GateNode{}, gating.ErrDividerResolutionFailed
	}
	return gating.GateNode{
		Name:       id.Name,
		Path:       id.Path,
		Kind:       gating.KindQuadrant,
		Dimensions: [2]string{x, y},
		Dividers:   res.Dividers,
		Source:     string(res.Tier),
	}, nil
}

// node classifies g. Quadrant metadata wins over any vertex or bound
// payload the gate also carries.
func (e *Extractor) node(sampleID string, g *gating.Gate, x, y string) (gating.GateNode, error) {
	n := gating.GateNode{
		Name:       g.Name,
		Path:       append(gating.Path(nil), g.Path...),
		Dimensions: [2]string{x, y},
	}
	switch {
	case g.IsQuadrant():
		res, ok := e.engine.ForGate(sampleID, g, x, y)
		if !ok {
			return gating.GateNode{}, gating.ErrDividerResolutionFailed
		}
		n.Kind = gating.KindQuadrant
		n.Dividers = res.Dividers
		n.Source = string(res.Tier)
	case len(g.Vertices) > 0:
		if len(g.Vertices) < 3 {
			return gating.GateNode{}, fmt.Errorf("%w: polygon with %d vertices", gating.ErrGeometryUnavailable, len(g.Vertices))
		}
		pts := g.Vertices
		if g.Swapped(x, y) {
			pts = swap(pts)
		}
		n.Kind = gating.KindPolygon
		n.Vertices = gating.Close(e.mapper.ToRawVertices(pts))
	case len(g.Bounds) > 0:
		bx, okX := g.Bounds[x]
		by, okY := g.Bounds[y]
		if !okX || !okY {
			return gating.GateNode{}, fmt.Errorf("%w: rectangle not bounded on both channels", gating.ErrGeometryUnavailable)
		}
		x0, x1 := e.extent(bx)
		y0, y1 := e.extent(by)
		n.Kind = gating.KindRectangle
		n.Vertices = []gating.Point{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0}}
	default:
		return gating.GateNode{}, fmt.Errorf("%w: no vertices, bounds or dividers", gating.ErrGeometryUnavailable)
	}
	return n, nil
}

// extent maps a rectangle side to raw space. An open side extends to the
// end of the display axis.
func (e *Extractor) extent(r gating.Range) (lo, hi float64) {
	lo, hi = e.mapper.ToRaw(0), e.mapper.ToRaw(1)
	if r.Min != nil {
		lo = e.mapper.ToRaw(*r.Min)
	}
	if r.Max != nil {
		hi = e.mapper.ToRaw(*r.Max)
	}
	return lo, hi
}

func swap(pts []gating.Point) []gating.Point {
	out := make([]gating.Point, len(pts))
	for i, p := range pts {
		out[i] = gating.Point{X: p.Y, Y: p.X}
	}
	return out
}
