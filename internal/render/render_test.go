package render

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"gonum.org/v1/plot/vg"

	"github.com/flowviz/flowgate/internal/gating"
)

func points(n int) []gating.Point {
	out := make([]gating.Point, n)
	for i := range out {
		out[i] = gating.Point{X: float64(i + 1), Y: float64(2 * (i + 1))}
	}
	return out
}

func TestSample(t *testing.T) {
	pts := points(100)

	if got := Sample(pts, 0, 42); len(got) != 100 {
		t.Errorf("Sample(max=0) kept %d points, want 100", len(got))
	}
	if got := Sample(pts, 200, 42); len(got) != 100 {
		t.Errorf("Sample(max>len) kept %d points, want 100", len(got))
	}

	a := Sample(pts, 10, 42)
	b := Sample(pts, 10, 42)
	if len(a) != 10 {
		t.Fatalf("Sample() kept %d points, want 10", len(a))
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("Sample() with the same seed differs between calls")
	}
	for i := 1; i < len(a); i++ {
		if a[i].X <= a[i-1].X {
			t.Fatalf("Sample() did not keep input order: %v", a)
		}
	}
}

func TestClamp(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{-5, AxisMin},
		{0, AxisMin},
		{500, 500},
		{1e7, AxisMax},
	}
	for _, tt := range tests {
		if got := clamp(tt.in); got != tt.want {
			t.Errorf("clamp(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func testGates() []gating.GateNode {
	return []gating.GateNode{
		{
			Name: "Cells", Kind: gating.KindPolygon, Dimensions: [2]string{"FSC-A", "SSC-A"},
			Vertices: []gating.Point{{X: 10, Y: 10}, {X: 1000, Y: 10}, {X: 500, Y: 1000}},
		},
		{
			Name: "Quad", Kind: gating.KindQuadrant, Dimensions: [2]string{"FSC-A", "SSC-A"},
			Dividers: []gating.Divider{
				{Dimension: "FSC-A", Value: 1000, Orientation: gating.Vertical},
				{Dimension: "SSC-A", Value: 0, Orientation: gating.Horizontal},
			},
		},
	}
}

func TestScatter(t *testing.T) {
	panel := Panel{Title: "A01", XLabel: "FSC-A", YLabel: "SSC-A", Points: points(50), Gates: testGates()}
	p, err := Scatter(panel, Options{MaxPoints: 20, Seed: 1})
	if err != nil {
		t.Fatalf("Scatter() error = %v", err)
	}
	if p.X.Min != AxisMin || p.X.Max != AxisMax || p.Y.Min != AxisMin || p.Y.Max != AxisMax {
		t.Errorf("axes = x[%v,%v] y[%v,%v], want fixed display range", p.X.Min, p.X.Max, p.Y.Min, p.Y.Max)
	}

	var buf bytes.Buffer
	if err := WriteSVG(&buf, p, 4*vg.Inch, 4*vg.Inch); err != nil {
		t.Fatalf("WriteSVG() error = %v", err)
	}
	if !strings.Contains(buf.String(), "<svg") {
		t.Error("WriteSVG() output is not SVG")
	}
}

func TestScatter_NoEvents(t *testing.T) {
	p, err := Scatter(Panel{Title: "empty"}, DefaultOptions())
	if err != nil {
		t.Fatalf("Scatter() error = %v", err)
	}
	var buf bytes.Buffer
	if err := WriteSVG(&buf, p, 2*vg.Inch, 2*vg.Inch); err != nil {
		t.Fatalf("WriteSVG() error = %v", err)
	}
}

func TestGrid(t *testing.T) {
	panels := [][]*Panel{
		{{Title: "A01", Points: points(10), Gates: testGates()}, nil},
		{nil, {Title: "B02", Points: points(3)}},
	}
	var buf bytes.Buffer
	if err := Grid(&buf, panels, DefaultOptions()); err != nil {
		t.Fatalf("Grid() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "<svg") || !strings.Contains(out, "B02") {
		t.Error("Grid() output missing svg root or panel title")
	}

	if err := Grid(&buf, nil, DefaultOptions()); err == nil {
		t.Error("Grid(nil) expected error")
	}
}
