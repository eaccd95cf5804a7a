// Package quadrant resolves the divider positions of quadrant gates.
//
// Dividers are read from the gate when the gate library exposes them.
// Otherwise they are inferred from the bounds of the Q1-Q4 region gates,
// first as recorded in the workspace document and then as exposed by the
// gate library's object model.
package quadrant

import (
	"log/slog"

	"github.com/flowviz/flowgate/internal/gating"
	"github.com/flowviz/flowgate/internal/transform"
	"github.com/flowviz/flowgate/internal/tree"
)

// Tier names the strategy that produced a resolution.
type Tier string

const (
	TierDirect   Tier = "direct"
	TierDocument Tier = "document"
	TierRegions  Tier = "regions"
)

const (
	DefaultMinRegions = 2
	DefaultTolerance  = 0.05
)

// Resolution is a successful divider lookup, in raw space.
type Resolution struct {
	Dividers []gating.Divider `yaml:"dividers" json:"dividers"`
	Tier     Tier             `yaml:"tier" json:"tier"`
}

// Divider returns the divider with orientation o.
func (r Resolution) Divider(o gating.Orientation) (gating.Divider, bool) {
	for _, d := range r.Dividers {
		if d.Orientation == o {
			return d, true
		}
	}
	return gating.Divider{}, false
}

// Thresholds is the divider pair needed to draw a quadrant overlay.
type Thresholds struct {
	X float64 `yaml:"x_threshold" json:"x_threshold"`
	Y float64 `yaml:"y_threshold" json:"y_threshold"`
}

// Engine resolves dividers. It keeps no state between calls.
type Engine struct {
	nav        *tree.Navigator
	document   gating.Document
	mapper     transform.Mapper
	minRegions int
	tolerance  float64
	logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithDocument enables the document tier.
func WithDocument(d gating.Document) Option {
	return func(e *Engine) { e.document = d }
}

// WithMapper sets the display-to-raw mapper.
func WithMapper(m transform.Mapper) Option {
	return func(e *Engine) { e.mapper = m }
}

// WithMinRegions sets how many regions must carry bounds before inference
// is attempted.
func WithMinRegions(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.minRegions = n
		}
	}
}

// WithTolerance sets the relative gap between region boundaries above
// which an inferred divider is logged as low confidence.
func WithTolerance(f float64) Option {
	return func(e *Engine) { e.tolerance = f }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New returns an engine over p.
func New(p gating.Provider, opts ...Option) *Engine {
	e := &Engine{
		nav:        tree.New(p),
		mapper:     transform.Default(),
		minRegions: DefaultMinRegions,
		tolerance:  DefaultTolerance,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Mapper returns the engine's display-to-raw mapper.
func (e *Engine) Mapper() transform.Mapper {
	return e.mapper
}

type strategy struct {
	tier Tier
	run  func() []gating.Divider
}

// tryInOrder returns the first strategy result with at least one divider.
func tryInOrder(strategies ...strategy) (Resolution, bool) {
	for _, s := range strategies {
		if d := s.run(); len(d) > 0 {
			return Resolution{Dividers: d, Tier: s.tier}, true
		}
	}
	return Resolution{}, false
}

// Resolve finds the dividers of the quadrant whose region gates live at
// path. ok is false when no tier produced a divider.
func (e *Engine) Resolve(sampleID string, path gating.Path, x, y string) (Resolution, bool) {
	log := e.logger.With("sample", sampleID, "path", path.String())

	var regions []*gating.Gate
	loaded := false
	regionGates := func() []*gating.Gate {
		if !loaded {
			loaded = true
			regions = e.regionGates(sampleID, path, x, y)
		}
		return regions
	}

	res, ok := tryInOrder(
		strategy{TierDirect, func() []gating.Divider { return e.direct(sampleID, path, x, y) }},
		strategy{TierDocument, func() []gating.Divider { return e.fromDocument(log, regionGates(), x, y) }},
		strategy{TierRegions, func() []gating.Divider { return e.fromRegions(log, regionGates(), x, y) }},
	)
	if !ok {
		log.Debug("no quadrant dividers", "err", gating.ErrDividerResolutionFailed)
		return Resolution{}, false
	}
	log.Debug("quadrant dividers resolved", "tier", res.Tier, "count", len(res.Dividers))
	return res, true
}

// ForGate resolves the dividers of quadrant gate g: its own divider
// metadata first, then regions below it, then regions beside it.
func (e *Engine) ForGate(sampleID string, g *gating.Gate, x, y string) (Resolution, bool) {
	if g.OnChannels(x, y) {
		if d := e.dividersOf(g, x, y); len(d) > 0 {
			return Resolution{Dividers: d, Tier: TierDirect}, true
		}
	}
	if res, ok := e.Resolve(sampleID, g.Path.Child(g.Name), x, y); ok {
		return res, true
	}
	return e.Resolve(sampleID, g.Path, x, y)
}

// Thresholds returns both dividers of the quadrant at path. ok is false
// unless both a vertical and a horizontal divider were resolved.
func (e *Engine) Thresholds(sampleID string, path gating.Path, x, y string) (Thresholds, bool) {
	res, ok := e.Resolve(sampleID, path, x, y)
	if !ok {
		return Thresholds{}, false
	}
	v, okX := res.Divider(gating.Vertical)
	h, okY := res.Divider(gating.Horizontal)
	if !okX || !okY {
		return Thresholds{}, false
	}
	return Thresholds{X: v.Value, Y: h.Value}, true
}

// direct reads divider metadata from a gate at path or its parent path.
func (e *Engine) direct(sampleID string, path gating.Path, x, y string) []gating.Divider {
	candidates, err := e.nav.Siblings(sampleID, path)
	if err != nil {
		e.logger.Debug("direct divider lookup failed", "sample", sampleID, "err", err)
		return nil
	}
	if parent, _, ok := path.Split(); ok {
		more, err := e.nav.Siblings(sampleID, parent)
		if err == nil {
			candidates = append(candidates, more...)
		}
	}
	for _, g := range candidates {
		if len(g.Dividers) == 0 || !g.OnChannels(x, y) {
			continue
		}
		if d := e.dividersOf(g, x, y); len(d) > 0 {
			return d
		}
	}
	return nil
}

// dividersOf maps a gate's own divider attributes to raw-space dividers on
// the requested axes. Dividers on other channels are dropped.
func (e *Engine) dividersOf(g *gating.Gate, x, y string) []gating.Divider {
	var out []gating.Divider
	seen := map[gating.Orientation]bool{}
	for _, a := range g.Dividers {
		var o gating.Orientation
		switch a.Dimension {
		case x:
			o = gating.Vertical
		case y:
			o = gating.Horizontal
		default:
			continue
		}
		if seen[o] {
			continue
		}
		seen[o] = true
		out = append(out, gating.Divider{Dimension: a.Dimension, Value: e.mapper.ToRaw(a.Value), Orientation: o})
	}
	return out
}

// regionGates returns the Q1-Q4 gates at path defined on x and y.
func (e *Engine) regionGates(sampleID string, path gating.Path, x, y string) []*gating.Gate {
	gates, err := e.nav.Regions(sampleID, path)
	if err != nil {
		e.logger.Debug("region lookup failed", "sample", sampleID, "path", path.String(), "err", err)
		return nil
	}
	var out []*gating.Gate
	for _, g := range gates {
		idx, _ := gating.RegionIndex(g.Name)
		if idx < 1 || idx > 4 {
			continue
		}
		if len(g.Dimensions) > 0 && !g.OnChannels(x, y) {
			continue
		}
		out = append(out, g)
	}
	return out
}

// fromDocument reads region bounds from the workspace document. Document
// values are raw already.
func (e *Engine) fromDocument(log *slog.Logger, gates []*gating.Gate, x, y string) []gating.Divider {
	if e.document == nil || len(gates) < e.minRegions {
		return nil
	}
	names := make([]string, len(gates))
	for i, g := range gates {
		names[i] = g.Name
	}
	found, err := e.document.RegionBounds(names, x, y)
	if err != nil {
		log.Debug("document tier unavailable", "err", err)
		return nil
	}
	var regions []gating.QuadrantRegion
	for _, g := range gates {
		if b, ok := found[g.Name]; ok {
			idx, _ := gating.RegionIndex(g.Name)
			regions = append(regions, gating.QuadrantRegion{Name: g.Name, Index: idx, Bounds: b})
		}
	}
	return e.infer(log, TierDocument, regions, x, y)
}

// fromRegions reads region bounds from the gate model and maps them to raw
// space.
func (e *Engine) fromRegions(log *slog.Logger, gates []*gating.Gate, x, y string) []gating.Divider {
	var regions []gating.QuadrantRegion
	for _, g := range gates {
		b := g.RegionBounds(x, y)
		if len(b) == 0 {
			continue
		}
		raw := make(gating.Bounds, len(b))
		for ch, r := range b {
			raw[ch] = e.mapper.ToRawRange(r)
		}
		idx, _ := gating.RegionIndex(g.Name)
		regions = append(regions, gating.QuadrantRegion{Name: g.Name, Index: idx, Bounds: raw})
	}
	return e.infer(log, TierRegions, regions, x, y)
}

func (e *Engine) infer(log *slog.Logger, tier Tier, regions []gating.QuadrantRegion, x, y string) []gating.Divider {
	if n := usable(regions, x, y); n < e.minRegions {
		log.Debug("too few bounded regions", "tier", tier, "regions", n)
		return nil
	}
	for _, s := range sides(regions, x, y) {
		gap, ok := s.gap()
		if !ok {
			continue
		}
		if gap < 0 || gap > e.tolerance {
			log.Warn("quadrant regions disagree on divider position; check Q1-Q4 numbering",
				"tier", tier, "channel", s.channel, "orientation", s.orientation, "relative_gap", gap)
		}
	}
	return InferDividers(regions, x, y)
}
