// Package transform maps gate coordinates from the normalized display space
// gates are authored in to raw instrument units.
//
// Display values d in [0,1] lie on a log10 axis spanning
// [10^LogMin, 10^LogMax]. The default axis is 10^0 to 10^5.
package transform

import (
	"math"

	"github.com/flowviz/flowgate/internal/gating"
)

const (
	DefaultLogMin = 0.0
	DefaultLogMax = 5.0
)

// Mapper converts display-space values to raw space.
type Mapper struct {
	LogMin float64
	LogMax float64
}

// Default returns the 10^0 to 10^5 mapper.
func Default() Mapper {
	return Mapper{LogMin: DefaultLogMin, LogMax: DefaultLogMax}
}

// New returns a mapper over [10^logMin, 10^logMax].
func New(logMin, logMax float64) Mapper {
	return Mapper{LogMin: logMin, LogMax: logMax}
}

// InDisplayRange reports whether v would be treated as a display value.
func InDisplayRange(v float64) bool {
	return v >= 0 && v <= 1
}

// ToRaw maps a display value to raw space. Values outside [0,1] are assumed
// to be raw already and are returned unchanged, so a raw value that happens
// to fall inside [0,1] is misread as display space.
func (m Mapper) ToRaw(d float64) float64 {
	if !InDisplayRange(d) {
		return d
	}
	return math.Pow(10, m.LogMin+d*(m.LogMax-m.LogMin))
}

// ToDisplay is the forward mapping, raw to display. Non-positive values
// have no display position and map to 0.
func (m Mapper) ToDisplay(r float64) float64 {
	if r <= 0 {
		return 0
	}
	return (math.Log10(r) - m.LogMin) / (m.LogMax - m.LogMin)
}

// ToRawPoint maps both coordinates independently.
func (m Mapper) ToRawPoint(p gating.Point) gating.Point {
	return gating.Point{X: m.ToRaw(p.X), Y: m.ToRaw(p.Y)}
}

// ToRawVertices maps every vertex. The input is not modified.
func (m Mapper) ToRawVertices(pts []gating.Point) []gating.Point {
	if pts == nil {
		return nil
	}
	out := make([]gating.Point, len(pts))
	for i, p := range pts {
		out[i] = m.ToRawPoint(p)
	}
	return out
}

// ToRawRange maps both bounds of r.
func (m Mapper) ToRawRange(r gating.Range) gating.Range {
	return r.Map(m.ToRaw)
}

// ToRaw maps d with the default mapper.
func ToRaw(d float64) float64 {
	return Default().ToRaw(d)
}

// Space tags which coordinate space a Value is in.
type Space int

const (
	// Unknown values go through the magnitude guard.
	Unknown Space = iota
	Display
	Raw
)

// Value is a scalar whose coordinate space may be known.
type Value struct {
	V     float64
	Space Space
}

// Resolve returns v in raw space. Values of known space are converted
// without consulting the magnitude guard.
func (m Mapper) Resolve(v Value) float64 {
	switch v.Space {
	case Raw:
		return v.V
	case Display:
		return math.Pow(10, m.LogMin+v.V*(m.LogMax-m.LogMin))
	default:
		return m.ToRaw(v.V)
	}
}
