package workspace

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/flowviz/flowgate/internal/gating"
)

// Document reads region bounds straight from a workspace file. Every call
// rereads the file; callers that need many lookups should cache results.
type Document struct {
	path string
}

// NewDocument returns a Document over the workspace file at path.
func NewDocument(path string) *Document {
	return &Document{path: path}
}

// RegionBounds implements gating.Document. The first population with each
// name wins. Errors wrap gating.ErrDocumentParse.
func (d *Document) RegionBounds(names []string, x, y string) (map[string]gating.Bounds, error) {
	f, err := os.Open(d.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", gating.ErrDocumentParse, err)
	}
	defer f.Close()
	return RegionBounds(f, names, x, y)
}

type docPopulation struct {
	Gate struct {
		Rectangle *xmlRectangleGate `xml:"http://www.isac-net.org/std/Gating-ML/v2.0/gating RectangleGate"`
	} `xml:"Gate"`
}

// RegionBounds scans a Gating-ML document for the populations named in
// names and returns the rectangle min/max they record on channels x and y.
func RegionBounds(r io.Reader, names []string, x, y string) (map[string]gating.Bounds, error) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	out := make(map[string]gating.Bounds)
	sawGating := false

	dec := newDecoder(r)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", gating.ErrDocumentParse, err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if se.Name.Space == GatingNS {
			sawGating = true
		}
		if se.Name.Local != "Population" {
			continue
		}
		name := attr(se, "name")
		if !want[name] {
			continue
		}
		if _, done := out[name]; done {
			continue
		}
		var pop docPopulation
		if err := dec.DecodeElement(&pop, &se); err != nil {
			return nil, fmt.Errorf("%w: population %q: %w", gating.ErrDocumentParse, name, err)
		}
		if pop.Gate.Rectangle == nil {
			continue
		}
		sawGating = true
		if b := channelBounds(pop.Gate.Rectangle.Dimensions, x, y); len(b) > 0 {
			out[name] = b
		}
	}
	if !sawGating {
		return nil, fmt.Errorf("%w: no elements in namespace %s", gating.ErrDocumentParse, GatingNS)
	}
	return out, nil
}

func attr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func channelBounds(dims []xmlDimension, x, y string) gating.Bounds {
	out := gating.Bounds{}
	for _, d := range dims {
		if d.FCS.Name != x && d.FCS.Name != y {
			continue
		}
		r := d.rangeOf()
		if !r.Empty() {
			out[d.FCS.Name] = r
		}
	}
	return out
}
