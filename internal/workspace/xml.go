package workspace

import "encoding/xml"

// Gating-ML 2.0 namespaces used by FlowJo workspaces.
const (
	GatingNS   = "http://www.isac-net.org/std/Gating-ML/v2.0/gating"
	DataTypeNS = "http://www.isac-net.org/std/Gating-ML/v2.0/datatypes"
)

type xmlWorkspace struct {
	XMLName xml.Name    `xml:"Workspace"`
	Samples []xmlSample `xml:"SampleList>Sample"`
}

type xmlSample struct {
	DataSet  xmlDataSet   `xml:"DataSet"`
	Keywords []xmlKeyword `xml:"Keywords>Keyword"`
	Node     xmlNode      `xml:"SampleNode"`
}

type xmlDataSet struct {
	URI      string `xml:"uri,attr"`
	SampleID string `xml:"sampleID,attr"`
}

type xmlKeyword struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type xmlNode struct {
	Name        string          `xml:"name,attr"`
	SampleID    string          `xml:"sampleID,attr"`
	Populations []xmlPopulation `xml:"Subpopulations>Population"`
}

type xmlPopulation struct {
	Name        string          `xml:"name,attr"`
	Gate        xmlGate         `xml:"Gate"`
	Populations []xmlPopulation `xml:"Subpopulations>Population"`
}

type xmlGate struct {
	Polygon   *xmlPolygonGate   `xml:"http://www.isac-net.org/std/Gating-ML/v2.0/gating PolygonGate"`
	Rectangle *xmlRectangleGate `xml:"http://www.isac-net.org/std/Gating-ML/v2.0/gating RectangleGate"`
	Quadrant  *xmlQuadrantGate  `xml:"http://www.isac-net.org/std/Gating-ML/v2.0/gating QuadrantGate"`
}

type xmlFCSDimension struct {
	Name string `xml:"http://www.isac-net.org/std/Gating-ML/v2.0/datatypes name,attr"`
}

type xmlDimension struct {
	Min string          `xml:"http://www.isac-net.org/std/Gating-ML/v2.0/gating min,attr"`
	Max string          `xml:"http://www.isac-net.org/std/Gating-ML/v2.0/gating max,attr"`
	FCS xmlFCSDimension `xml:"http://www.isac-net.org/std/Gating-ML/v2.0/datatypes fcs-dimension"`
}

type xmlCoordinate struct {
	Value string `xml:"http://www.isac-net.org/std/Gating-ML/v2.0/datatypes value,attr"`
}

type xmlVertex struct {
	Coordinates []xmlCoordinate `xml:"http://www.isac-net.org/std/Gating-ML/v2.0/gating coordinate"`
}

type xmlPolygonGate struct {
	Dimensions []xmlDimension `xml:"http://www.isac-net.org/std/Gating-ML/v2.0/gating dimension"`
	Vertices   []xmlVertex    `xml:"http://www.isac-net.org/std/Gating-ML/v2.0/gating vertex"`
}

type xmlRectangleGate struct {
	Dimensions []xmlDimension `xml:"http://www.isac-net.org/std/Gating-ML/v2.0/gating dimension"`
}

type xmlDivider struct {
	Attrs  []xml.Attr       `xml:",any,attr"`
	FCS    *xmlFCSDimension `xml:"http://www.isac-net.org/std/Gating-ML/v2.0/datatypes fcs-dimension"`
	Values []string         `xml:"http://www.isac-net.org/std/Gating-ML/v2.0/gating value"`
}

type xmlQuadrant struct {
	ID string `xml:"http://www.isac-net.org/std/Gating-ML/v2.0/gating id,attr"`
}

type xmlQuadrantGate struct {
	Dividers  []xmlDivider  `xml:"http://www.isac-net.org/std/Gating-ML/v2.0/gating divider"`
	Quadrants []xmlQuadrant `xml:"http://www.isac-net.org/std/Gating-ML/v2.0/gating Quadrant"`
}

func (g *xmlQuadrantGate) dividerAttrs() []map[string]string {
	out := make([]map[string]string, 0, len(g.Dividers))
	for _, d := range g.Dividers {
		attrs := make(map[string]string, len(d.Attrs)+2)
		for _, a := range d.Attrs {
			attrs[a.Name.Local] = a.Value
		}
		if d.FCS != nil && d.FCS.Name != "" {
			if _, ok := attrs["dimension"]; !ok {
				attrs["dimension"] = d.FCS.Name
			}
		}
		if len(d.Values) > 0 {
			if _, ok := attrs["value"]; !ok {
				attrs["value"] = d.Values[0]
			}
		}
		out = append(out, attrs)
	}
	return out
}
