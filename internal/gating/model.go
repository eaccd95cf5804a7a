package gating

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// UngatedName is the synthetic gate name meaning "no gate applied".
const UngatedName = "Ungated"

// PathSeparator joins path elements for display.
const PathSeparator = " → "

// Path is the ordered list of ancestor names from the tree root, excluding
// the gate's own name. An empty path denotes a root-level gate.
type Path []string

// ParsePath splits a user supplied path on "/" or the display separator.
// Empty elements are dropped.
func ParsePath(s string) Path {
	s = strings.ReplaceAll(s, strings.TrimSpace(PathSeparator), "/")
	var p Path
	for _, part := range strings.Split(s, "/") {
		part = strings.TrimSpace(part)
		if part != "" {
			p = append(p, part)
		}
	}
	return p
}

// String renders the path the way gate listings group it.
func (p Path) String() string {
	if len(p) == 0 {
		return "root"
	}
	return strings.Join(p, PathSeparator)
}

// Equal reports whether two paths have the same elements.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// Child returns a new path with name appended. The receiver is not modified.
func (p Path) Child(name string) Path {
	c := make(Path, len(p), len(p)+1)
	copy(c, p)
	return append(c, name)
}

// Split returns the parent path and the last element.
// ok is false for an empty path.
func (p Path) Split() (parent Path, last string, ok bool) {
	if len(p) == 0 {
		return nil, "", false
	}
	parent = make(Path, len(p)-1)
	copy(parent, p[:len(p)-1])
	return parent, p[len(p)-1], true
}

// GateID identifies a gate within one sample's tree.
type GateID struct {
	Name string `yaml:"name" json:"name"`
	Path Path   `yaml:"path" json:"path"`
}

// Ungated returns the identity of the synthetic "no gate" node.
func Ungated() GateID {
	return GateID{Name: UngatedName}
}

// IsUngated reports whether id is the synthetic "no gate" node.
func (id GateID) IsUngated() bool {
	return id.Name == UngatedName && len(id.Path) == 0
}

// Key is a stable string form of the identity, suitable as a map key.
func (id GateID) Key() string {
	return strings.Join(id.Path.Child(id.Name), "\x00")
}

func (id GateID) String() string {
	return fmt.Sprintf("%s [%s]", id.Name, id.Path)
}

// Kind classifies extracted gate geometry.
type Kind string

const (
	KindPolygon   Kind = "polygon"
	KindRectangle Kind = "rectangle"
	KindQuadrant  Kind = "quadrant"
)

// Orientation of a divider line.
type Orientation string

const (
	// Vertical dividers are lines of constant x.
	Vertical Orientation = "vertical"
	// Horizontal dividers are lines of constant y.
	Horizontal Orientation = "horizontal"
)

// Point is one vertex.
type Point struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Divider is one boundary line of a quadrant gate, in raw space.
type Divider struct {
	Dimension   string      `yaml:"dimension" json:"dimension"`
	Value       float64     `yaml:"value" json:"value"`
	Orientation Orientation `yaml:"orientation" json:"orientation"`
}

// GateNode is extracted, raw-space geometry for one gate on a channel pair.
// Dimensions are always ordered (x, y) as requested by the caller, and
// vertex coordinates follow that order.
type GateNode struct {
	Name       string    `yaml:"name" json:"name"`
	Path       Path      `yaml:"path" json:"path"`
	Kind       Kind      `yaml:"kind" json:"kind"`
	Dimensions [2]string `yaml:"dimensions" json:"dimensions"`
	Vertices   []Point   `yaml:"vertices,omitempty" json:"vertices,omitempty"`
	Dividers   []Divider `yaml:"dividers,omitempty" json:"dividers,omitempty"`
	// Source names the divider resolution tier for quadrant nodes.
	Source string `yaml:"source,omitempty" json:"source,omitempty"`
}

// ID returns the node's gate identity.
func (n GateNode) ID() GateID {
	return GateID{Name: n.Name, Path: n.Path}
}

// Divider returns the divider with the given orientation.
func (n GateNode) Divider(o Orientation) (Divider, bool) {
	for _, d := range n.Dividers {
		if d.Orientation == o {
			return d, true
		}
	}
	return Divider{}, false
}

// Close returns pts with the first vertex repeated at the end, unless the
// ring is already closed. The input is not modified.
func Close(pts []Point) []Point {
	if len(pts) == 0 {
		return nil
	}
	out := make([]Point, len(pts), len(pts)+1)
	copy(out, pts)
	if out[0] != out[len(out)-1] {
		out = append(out, out[0])
	}
	return out
}

// Range is a (min, max) pair where either bound may be absent.
type Range struct {
	Min *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max *float64 `yaml:"max,omitempty" json:"max,omitempty"`
}

// NewRange builds a closed range.
func NewRange(min, max float64) Range {
	return Range{Min: &min, Max: &max}
}

// Empty reports whether neither bound is set.
func (r Range) Empty() bool {
	return r.Min == nil && r.Max == nil
}

// Contains reports whether min <= v < max. An absent bound is unbounded.
func (r Range) Contains(v float64) bool {
	return (r.Min == nil || v >= *r.Min) && (r.Max == nil || v < *r.Max)
}

// Map applies f to each present bound.
func (r Range) Map(f func(float64) float64) Range {
	var out Range
	if r.Min != nil {
		v := f(*r.Min)
		out.Min = &v
	}
	if r.Max != nil {
		v := f(*r.Max)
		out.Max = &v
	}
	return out
}

// Bounds maps a channel identifier to its range.
type Bounds map[string]Range

// QuadrantRegion is one Q1-Q4 region gate with its boundaries, used only
// for divider inference.
type QuadrantRegion struct {
	Name   string `yaml:"name" json:"name"`
	Index  int    `yaml:"index" json:"index"`
	Bounds Bounds `yaml:"bounds" json:"bounds"`
}

var regionPattern = regexp.MustCompile(`^Q(\d+):`)

// RegionIndex extracts n from a region gate name of the form "Q<n>:...".
func RegionIndex(name string) (int, bool) {
	m := regionPattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsRegionName reports whether name follows the quadrant region convention.
func IsRegionName(name string) bool {
	_, ok := RegionIndex(name)
	return ok
}
