package grid

import "math"

// Point is a position in the dataset's coordinate units.
type Point [3]float64

// Box is an axis-aligned bounding box. Min is inclusive, Max exclusive.
type Box struct {
	Min, Max Point
}

// Contains reports whether p lies in the half-open box.
func (b Box) Contains(p Point) bool {
	for i := 0; i < 3; i++ {
		if !(p[i] >= b.Min[i] && p[i] < b.Max[i]) {
			return false
		}
	}
	return true
}

// Union returns the smallest box enclosing b and o.
func (b Box) Union(o Box) Box {
	for i := 0; i < 3; i++ {
		b.Min[i] = math.Min(b.Min[i], o.Min[i])
		b.Max[i] = math.Max(b.Max[i], o.Max[i])
	}
	return b
}

// Overlaps reports whether the interiors of b and o intersect.
func (b Box) Overlaps(o Box) bool {
	for i := 0; i < 3; i++ {
		if math.Max(b.Min[i], o.Min[i]) >= math.Min(b.Max[i], o.Max[i]) {
			return false
		}
	}
	return true
}

// Size returns the extent of the box along each axis.
func (b Box) Size() Point {
	return Point{b.Max[0] - b.Min[0], b.Max[1] - b.Min[1], b.Max[2] - b.Min[2]}
}
