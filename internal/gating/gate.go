package gating

// Gate is a provider's gate after attribute names have been normalized.
// Exactly which payload fields are set depends on the gate kind; a Gate may
// carry none of them (a region marker or an unsupported gate type).
type Gate struct {
	Name       string
	Path       Path
	Dimensions []string

	// Vertices are in the order of Dimensions and in the library's native
	// coordinate space.
	Vertices []Point

	// Bounds holds per-dimension min/max for rectangle gates.
	Bounds Bounds

	// Dividers are the normalized divider attributes of a quadrant gate.
	Dividers []DividerAttr

	// Quadrants lists the region names a quadrant gate defines.
	Quadrants []string
}

// ID returns the gate identity.
func (g *Gate) ID() GateID {
	return GateID{Name: g.Name, Path: g.Path}
}

// HasGeometry reports whether the gate carries any boundary payload.
func (g *Gate) HasGeometry() bool {
	return len(g.Vertices) > 0 || len(g.Bounds) > 0 || len(g.Dividers) > 0 || len(g.Quadrants) > 0
}

// IsQuadrant reports whether the gate exposes divider or quadrant metadata.
func (g *Gate) IsQuadrant() bool {
	return len(g.Dividers) > 0 || len(g.Quadrants) > 0
}

// OnChannels reports whether the gate is two-dimensional over {x, y} in
// either order.
func (g *Gate) OnChannels(x, y string) bool {
	if len(g.Dimensions) != 2 {
		return false
	}
	a, b := g.Dimensions[0], g.Dimensions[1]
	return (a == x && b == y) || (a == y && b == x)
}

// Swapped reports whether the gate's dimension order is (y, x).
func (g *Gate) Swapped(x, y string) bool {
	return len(g.Dimensions) == 2 && g.Dimensions[0] == y && g.Dimensions[1] == x && x != y
}

// RegionBounds returns the gate's per-channel extents for x and y, taken
// from explicit bounds or else from the vertex bounding box. Channels with
// no information are absent.
func (g *Gate) RegionBounds(x, y string) Bounds {
	out := Bounds{}
	for _, ch := range []string{x, y} {
		if r, ok := g.Bounds[ch]; ok && !r.Empty() {
			out[ch] = r
		}
	}
	if len(out) > 0 || len(g.Vertices) == 0 || len(g.Dimensions) != 2 {
		return out
	}
	lo, hi := boundingBox(g.Vertices)
	out[g.Dimensions[0]] = NewRange(lo.X, hi.X)
	out[g.Dimensions[1]] = NewRange(lo.Y, hi.Y)
	for ch := range out {
		if ch != x && ch != y {
			delete(out, ch)
		}
	}
	return out
}

// Clone returns a deep copy.
func (g *Gate) Clone() *Gate {
	c := &Gate{
		Name:       g.Name,
		Path:       append(Path(nil), g.Path...),
		Dimensions: append([]string(nil), g.Dimensions...),
		Vertices:   append([]Point(nil), g.Vertices...),
		Dividers:   append([]DividerAttr(nil), g.Dividers...),
		Quadrants:  append([]string(nil), g.Quadrants...),
	}
	if g.Bounds != nil {
		c.Bounds = make(Bounds, len(g.Bounds))
		for k, r := range g.Bounds {
			c.Bounds[k] = r.Map(func(v float64) float64 { return v })
		}
	}
	return c
}
