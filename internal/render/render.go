// Package render draws event scatter plots with gate overlays, singly or
// tiled as a plate grid, to SVG.
package render

import (
	"fmt"
	"image/color"
	"io"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgsvg"

	"github.com/flowviz/flowgate/internal/gating"
)

// Axis limits in raw units. Log axes need a positive minimum.
const (
	AxisMin = 1.0
	AxisMax = 1e5
)

// Options controls point sampling.
type Options struct {
	MaxPoints int
	Seed      uint64
}

// DefaultOptions caps scatter plots at 10000 points with a fixed seed, so
// repeated renders of the same data are identical.
func DefaultOptions() Options {
	return Options{MaxPoints: 10000, Seed: 42}
}

var (
	eventColor = color.RGBA{R: 30, G: 60, B: 150, A: 90}
	gateColor  = color.RGBA{R: 220, G: 30, B: 30, A: 255}
)

// Panel is one scatter plot: events in raw units plus the gates to draw
// over them, already oriented to XLabel/YLabel.
type Panel struct {
	Title  string
	XLabel string
	YLabel string
	Points []gating.Point
	Gates  []gating.GateNode
}

// Sample returns at most max points, chosen with a seeded generator and
// kept in their original order. max <= 0 keeps everything.
func Sample(pts []gating.Point, max int, seed uint64) []gating.Point {
	if max <= 0 || len(pts) <= max {
		return pts
	}
	r := rand.New(rand.NewPCG(seed, seed))
	idx := r.Perm(len(pts))[:max]
	sort.Ints(idx)
	out := make([]gating.Point, max)
	for k, i := range idx {
		out[k] = pts[i]
	}
	return out
}

func clamp(v float64) float64 {
	switch {
	case v < AxisMin:
		return AxisMin
	case v > AxisMax:
		return AxisMax
	}
	return v
}

func xys(pts []gating.Point) plotter.XYs {
	out := make(plotter.XYs, len(pts))
	for i, p := range pts {
		out[i].X = clamp(p.X)
		out[i].Y = clamp(p.Y)
	}
	return out
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.X.Scale = plot.LogScale{}
	p.Y.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	return p
}

// fixAxes pins both axes to the display range. Add widens them to the data,
// so this runs after every plotter is added.
func fixAxes(p *plot.Plot) {
	p.X.Min, p.X.Max = AxisMin, AxisMax
	p.Y.Min, p.Y.Max = AxisMin, AxisMax
}

// Scatter builds the plot for one panel.
func Scatter(panel Panel, opt Options) (*plot.Plot, error) {
	p := newPlot(panel.Title, panel.XLabel, panel.YLabel)
	if pts := Sample(panel.Points, opt.MaxPoints, opt.Seed); len(pts) > 0 {
		s, err := plotter.NewScatter(xys(pts))
		if err != nil {
			return nil, fmt.Errorf("scatter: %w", err)
		}
		s.GlyphStyle.Color = eventColor
		s.GlyphStyle.Radius = vg.Points(0.8)
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(s)
	}
	for _, g := range panel.Gates {
		if err := overlay(p, g); err != nil {
			return nil, fmt.Errorf("gate %s: %w", g.ID(), err)
		}
	}
	fixAxes(p)
	return p, nil
}

func overlay(p *plot.Plot, g gating.GateNode) error {
	var lines []plotter.XYs
	if g.Kind == gating.KindQuadrant {
		if d, ok := g.Divider(gating.Vertical); ok {
			lines = append(lines, plotter.XYs{{X: clamp(d.Value), Y: AxisMin}, {X: clamp(d.Value), Y: AxisMax}})
		}
		if d, ok := g.Divider(gating.Horizontal); ok {
			lines = append(lines, plotter.XYs{{X: AxisMin, Y: clamp(d.Value)}, {X: AxisMax, Y: clamp(d.Value)}})
		}
	} else if len(g.Vertices) > 0 {
		lines = append(lines, xys(gating.Close(g.Vertices)))
	}
	for _, xy := range lines {
		l, err := plotter.NewLine(xy)
		if err != nil {
			return err
		}
		l.LineStyle.Color = gateColor
		l.LineStyle.Width = vg.Points(1.2)
		if g.Kind == gating.KindQuadrant {
			l.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		}
		p.Add(l)
	}
	return nil
}

// WriteSVG renders a single plot.
func WriteSVG(w io.Writer, p *plot.Plot, width, height vg.Length) error {
	wt, err := p.WriterTo(width, height, "svg")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// CellSize is the edge of one plate cell.
var CellSize = 2 * vg.Inch

// Grid tiles panels row-major into one SVG. Nil panels are drawn as empty
// axes so the plate keeps its shape.
func Grid(w io.Writer, panels [][]*Panel, opt Options) error {
	rows := len(panels)
	if rows == 0 {
		return fmt.Errorf("empty grid")
	}
	cols := 0
	for _, r := range panels {
		cols = max(cols, len(r))
	}

	plots := make([][]*plot.Plot, rows)
	for j := range plots {
		plots[j] = make([]*plot.Plot, cols)
		for i := range plots[j] {
			var panel *Panel
			if i < len(panels[j]) {
				panel = panels[j][i]
			}
			if panel == nil {
				p := newPlot("", "", "")
				fixAxes(p)
				plots[j][i] = p
				continue
			}
			p, err := Scatter(*panel, opt)
			if err != nil {
				return fmt.Errorf("%s: %w", panel.Title, err)
			}
			plots[j][i] = p
		}
	}

	img := vgsvg.New(vg.Length(cols)*CellSize, vg.Length(rows)*CellSize)
	dc := draw.New(img)
	t := draw.Tiles{
		Rows: rows,
		Cols: cols,
		PadX: vg.Millimeter,
		PadY: vg.Millimeter,
	}
	canvases := plot.Align(plots, t, dc)
	for j := range plots {
		for i := range plots[j] {
			plots[j][i].Draw(canvases[j][i])
		}
	}
	_, err := img.WriteTo(w)
	return err
}
