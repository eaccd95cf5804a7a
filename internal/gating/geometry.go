package gating

func boundingBox(pts []Point) (lo, hi Point) {
	lo, hi = pts[0], pts[0]
	for _, p := range pts[1:] {
		if p.X < lo.X {
			lo.X = p.X
		}
		if p.X > hi.X {
			hi.X = p.X
		}
		if p.Y < lo.Y {
			lo.Y = p.Y
		}
		if p.Y > hi.Y {
			hi.Y = p.Y
		}
	}
	return lo, hi
}

// PointInPolygon reports whether p lies inside the ring using ray casting.
// The ring may be open or closed.
func PointInPolygon(p Point, ring []Point) bool {
	if len(ring) < 3 {
		return false
	}
	inside := false
	n := len(ring)
	for i := 0; i < n; i++ {
		a, b := ring[i], ring[(i+1)%n]
		if (a.Y > p.Y) != (b.Y > p.Y) &&
			p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			inside = !inside
		}
	}
	return inside
}

// QuadrantIndex returns the region index of p under the canonical
// labeling: Q1 upper left, Q2 upper right, Q3 lower right, Q4 lower left.
func QuadrantIndex(p Point, xDivider, yDivider float64) int {
	right := p.X >= xDivider
	upper := p.Y >= yDivider
	switch {
	case upper && !right:
		return 1
	case upper && right:
		return 2
	case right:
		return 3
	default:
		return 4
	}
}

// Contains reports whether p, given in the node's (x, y) order, lies inside
// the node's boundary. Quadrant nodes contain every point.
func (n GateNode) Contains(p Point) bool {
	if n.Kind == KindQuadrant {
		return true
	}
	return PointInPolygon(p, n.Vertices)
}
