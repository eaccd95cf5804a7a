// Package workspace reads FlowJo .wsp workspaces. A Workspace is a
// gating.Provider over its samples' gate trees, and Document gives direct
// access to the underlying Gating-ML for region bounds the gate model does
// not expose.
package workspace

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/ianaindex"

	"github.com/flowviz/flowgate/internal/gating"
	"github.com/flowviz/flowgate/internal/keyword"
	"github.com/flowviz/flowgate/internal/well"
)

// RootName is the first element of every gate path.
const RootName = "root"

// Sample is one sample of the workspace.
type Sample struct {
	ID       string       `yaml:"id" json:"id"`
	Name     string       `yaml:"name" json:"name"`
	URI      string       `yaml:"uri,omitempty" json:"uri,omitempty"`
	Filename string       `yaml:"filename" json:"filename"`
	Keywords keyword.List `yaml:"keywords,omitempty" json:"keywords,omitempty"`

	gates []*gating.Gate
}

// WellSample returns what the well resolver needs from s.
func (s *Sample) WellSample() well.Sample {
	return well.Sample{Filename: s.Filename, Keywords: s.Keywords}
}

// Workspace is a parsed .wsp file.
type Workspace struct {
	path    string
	samples []*Sample
	byID    map[string]*Sample
}

// Open reads and parses the workspace at path.
func Open(path string) (*Workspace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	defer f.Close()
	return parse(f, path)
}

// Parse reads a workspace from r. The result has no Document.
func Parse(r io.Reader) (*Workspace, error) {
	return parse(r, "")
}

func newDecoder(r io.Reader) *xml.Decoder {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		enc, err := ianaindex.IANA.Encoding(label)
		if err != nil {
			return nil, err
		}
		if enc == nil {
			return nil, fmt.Errorf("unsupported charset %q", label)
		}
		return enc.NewDecoder().Reader(input), nil
	}
	return dec
}

func parse(r io.Reader, filePath string) (*Workspace, error) {
	var doc xmlWorkspace
	if err := newDecoder(r).Decode(&doc); err != nil {
		return nil, &ParseError{Path: filePath, Err: err}
	}

	w := &Workspace{path: filePath, byID: make(map[string]*Sample)}
	for i, xs := range doc.Samples {
		s := &Sample{
			ID:   firstNonEmpty(xs.Node.SampleID, xs.DataSet.SampleID, strconv.Itoa(i+1)),
			Name: xs.Node.Name,
			URI:  xs.DataSet.URI,
		}
		s.Filename = filenameFromURI(xs.DataSet.URI)
		if s.Name == "" {
			s.Name = s.Filename
		}
		for _, k := range xs.Keywords {
			s.Keywords = append(s.Keywords, keyword.Entry{Key: k.Name, Value: k.Value})
		}
		if _, dup := w.byID[s.ID]; dup {
			return nil, &ParseError{Path: filePath, Err: fmt.Errorf("duplicate sample id %q", s.ID)}
		}
		s.gates = flatten(xs.Node.Populations, gating.Path{RootName}, nil)
		w.samples = append(w.samples, s)
		w.byID[s.ID] = s
	}
	return w, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func filenameFromURI(uri string) string {
	if uri == "" {
		return ""
	}
	p := uri
	if u, err := url.Parse(uri); err == nil && u.Path != "" {
		p = u.Path
	} else if u, err := url.PathUnescape(uri); err == nil {
		p = u
	}
	p = strings.ReplaceAll(p, "\\", "/")
	return path.Base(p)
}

// flatten walks the population tree depth first, parents before children.
func flatten(pops []xmlPopulation, p gating.Path, out []*gating.Gate) []*gating.Gate {
	for _, pop := range pops {
		out = append(out, toGate(pop, p))
		out = flatten(pop.Populations, p.Child(pop.Name), out)
	}
	return out
}

func toGate(pop xmlPopulation, p gating.Path) *gating.Gate {
	g := &gating.Gate{Name: pop.Name, Path: p}
	switch {
	case pop.Gate.Quadrant != nil:
		q := pop.Gate.Quadrant
		for _, attrs := range q.dividerAttrs() {
			if d, ok := gating.NormalizeDivider(attrs); ok {
				g.Dividers = append(g.Dividers, d)
				if !contains(g.Dimensions, d.Dimension) {
					g.Dimensions = append(g.Dimensions, d.Dimension)
				}
			}
		}
		for i, quad := range q.Quadrants {
			g.Quadrants = append(g.Quadrants, firstNonEmpty(quad.ID, fmt.Sprintf("Q%d", i+1)))
		}
	case pop.Gate.Polygon != nil:
		poly := pop.Gate.Polygon
		g.Dimensions = dimensionNames(poly.Dimensions)
		if len(g.Dimensions) == 2 {
			g.Vertices = vertices(poly.Vertices)
		}
	case pop.Gate.Rectangle != nil:
		rect := pop.Gate.Rectangle
		g.Dimensions = dimensionNames(rect.Dimensions)
		// Quadrant region rectangles are exposed without their bounds; the
		// bounds are only reachable through Document.
		if !gating.IsRegionName(pop.Name) {
			g.Bounds = bounds(rect.Dimensions)
		}
	}
	return g
}

func contains(xs []string, v string) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func dimensionNames(dims []xmlDimension) []string {
	out := make([]string, 0, len(dims))
	for _, d := range dims {
		out = append(out, d.FCS.Name)
	}
	return out
}

// vertices returns nil when any coordinate is missing or malformed.
func vertices(xv []xmlVertex) []gating.Point {
	out := make([]gating.Point, 0, len(xv))
	for _, v := range xv {
		if len(v.Coordinates) != 2 {
			return nil
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(v.Coordinates[0].Value), 64)
		if err != nil {
			return nil
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(v.Coordinates[1].Value), 64)
		if err != nil {
			return nil
		}
		out = append(out, gating.Point{X: x, Y: y})
	}
	return out
}

func bounds(dims []xmlDimension) gating.Bounds {
	out := gating.Bounds{}
	for _, d := range dims {
		if d.FCS.Name != "" {
			out[d.FCS.Name] = d.rangeOf()
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// rangeOf parses the dimension's min and max. Missing or malformed bounds
// are left open.
func (d xmlDimension) rangeOf() gating.Range {
	var r gating.Range
	if v, err := strconv.ParseFloat(strings.TrimSpace(d.Min), 64); err == nil {
		r.Min = &v
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(d.Max), 64); err == nil {
		r.Max = &v
	}
	return r
}

// Path returns the file the workspace was read from, or "".
func (w *Workspace) Path() string {
	return w.path
}

// Samples returns the samples in document order.
func (w *Workspace) Samples() []*Sample {
	return append([]*Sample(nil), w.samples...)
}

// SampleIDs returns the sample ids in document order.
func (w *Workspace) SampleIDs() []string {
	ids := make([]string, len(w.samples))
	for i, s := range w.samples {
		ids[i] = s.ID
	}
	return ids
}

// Sample returns one sample by id.
func (w *Workspace) Sample(id string) (*Sample, error) {
	s, ok := w.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", gating.ErrSampleNotFound, id)
	}
	return s, nil
}

// GateIDs implements gating.Provider.
func (w *Workspace) GateIDs(sampleID string) ([]gating.GateID, error) {
	s, err := w.Sample(sampleID)
	if err != nil {
		return nil, err
	}
	ids := make([]gating.GateID, len(s.gates))
	for i, g := range s.gates {
		ids[i] = g.ID()
	}
	return ids, nil
}

// Gate implements gating.Provider. The returned gate is a copy.
func (w *Workspace) Gate(sampleID string, id gating.GateID) (*gating.Gate, error) {
	s, err := w.Sample(sampleID)
	if err != nil {
		return nil, err
	}
	for _, g := range s.gates {
		if g.Name == id.Name && g.Path.Equal(id.Path) {
			return g.Clone(), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", gating.ErrGateNotFound, id)
}

// Document returns direct access to the workspace file, or nil when the
// workspace was not read from a file.
func (w *Workspace) Document() gating.Document {
	if w.path == "" {
		return nil
	}
	return NewDocument(w.path)
}
