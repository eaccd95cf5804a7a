package quadrant

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/flowviz/flowgate/internal/gating"
)

// Region indices on the negative and positive side of each divider under
// the canonical Q1-Q4 labeling.
var (
	negativeX = []int{1, 4}
	positiveX = []int{2, 3}
	negativeY = []int{3, 4}
	positiveY = []int{1, 2}
)

// side collects the boundary extremes facing one divider.
type side struct {
	channel     string
	orientation gating.Orientation
	// neg holds the upper bounds of the negative-side regions, pos the
	// lower bounds of the positive-side regions.
	neg, pos []float64
}

func collect(regions []gating.QuadrantRegion, channel string, o gating.Orientation, negIdx, posIdx []int) side {
	s := side{channel: channel, orientation: o}
	for _, r := range regions {
		b, ok := r.Bounds[channel]
		if !ok {
			continue
		}
		if contains(negIdx, r.Index) && b.Max != nil {
			s.neg = append(s.neg, *b.Max)
		}
		if contains(posIdx, r.Index) && b.Min != nil {
			s.pos = append(s.pos, *b.Min)
		}
	}
	return s
}

func contains(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

// value is the midpoint between the negative side's largest upper bound and
// the positive side's smallest lower bound, or whichever one exists.
func (s side) value() (float64, bool) {
	switch {
	case len(s.neg) > 0 && len(s.pos) > 0:
		return (floats.Max(s.neg) + floats.Min(s.pos)) / 2, true
	case len(s.neg) > 0:
		return floats.Max(s.neg), true
	case len(s.pos) > 0:
		return floats.Min(s.pos), true
	}
	return 0, false
}

// gap is the relative distance between the two sides, negative when the
// sides are reversed. ok is false unless both sides are present.
func (s side) gap() (float64, bool) {
	if len(s.neg) == 0 || len(s.pos) == 0 {
		return 0, false
	}
	lo, hi := floats.Max(s.neg), floats.Min(s.pos)
	scale := math.Max(math.Abs(lo), math.Abs(hi))
	if scale == 0 {
		return 0, true
	}
	return (hi - lo) / scale, true
}

func sides(regions []gating.QuadrantRegion, x, y string) []side {
	return []side{
		collect(regions, x, gating.Vertical, negativeX, positiveX),
		collect(regions, y, gating.Horizontal, negativeY, positiveY),
	}
}

// InferDividers computes the vertical and horizontal dividers implied by
// region bounds. Either divider may be missing when no region bounds it.
func InferDividers(regions []gating.QuadrantRegion, x, y string) []gating.Divider {
	var out []gating.Divider
	for _, s := range sides(regions, x, y) {
		if v, ok := s.value(); ok {
			out = append(out, gating.Divider{Dimension: s.channel, Value: v, Orientation: s.orientation})
		}
	}
	return out
}

// usable counts regions bounding x or y in any direction.
func usable(regions []gating.QuadrantRegion, x, y string) int {
	n := 0
	for _, r := range regions {
		if !r.Bounds[x].Empty() || !r.Bounds[y].Empty() {
			n++
		}
	}
	return n
}
