package coord

// BBox is an inclusive axis-aligned 3d integer box, analogous in spirit to
// dvid.Extents but bounded (Extents tracks the unbounded growth of a whole
// dataset, BBox is a fixed region passed into fill/clip operations).
type BBox struct {
	Min, Max Coord
}

// NewBBox constructs a BBox from two corners, regardless of their ordering.
func NewBBox(a, b Coord) BBox {
	return BBox{Min: a.Min(b), Max: a.Max(b)}
}

// Empty reports whether the box contains no voxels.
func (b BBox) Empty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Contains reports whether c lies within the box (inclusive).
func (b BBox) Contains(c Coord) bool {
	return c[0] >= b.Min[0] && c[0] <= b.Max[0] &&
		c[1] >= b.Min[1] && c[1] <= b.Max[1] &&
		c[2] >= b.Min[2] && c[2] <= b.Max[2]
}

// ContainsBBox reports whether o is entirely contained within b.
func (b BBox) ContainsBBox(o BBox) bool {
	return b.Contains(o.Min) && b.Contains(o.Max)
}

// Intersects reports whether b and o share any voxel.
func (b BBox) Intersects(o BBox) bool {
	return !b.Intersect(o).Empty()
}

// Intersect returns the overlapping region of b and o; Empty() is true if
// they do not overlap.
func (b BBox) Intersect(o BBox) BBox {
	return BBox{
		Min: b.Min.Max(o.Min),
		Max: b.Max.Min(o.Max),
	}
}

// Clip returns b clipped to the bounds of o.
func (b BBox) Clip(o BBox) BBox {
	return b.Intersect(o)
}

// NumVoxels returns the number of integer lattice points within the box.
func (b BBox) NumVoxels() int64 {
	if b.Empty() {
		return 0
	}
	dx := int64(b.Max[0]) - int64(b.Min[0]) + 1
	dy := int64(b.Max[1]) - int64(b.Min[1]) + 1
	dz := int64(b.Max[2]) - int64(b.Min[2]) + 1
	return dx * dy * dz
}

// Extend grows the box (in place semantics via return value) to include c.
func (b BBox) Extend(c Coord) BBox {
	if b.Empty() {
		return BBox{Min: c, Max: c}
	}
	return BBox{Min: b.Min.Min(c), Max: b.Max.Max(c)}
}

// Union returns the smallest box containing both b and o.
func (b BBox) Union(o BBox) BBox {
	if b.Empty() {
		return o
	}
	if o.Empty() {
		return b
	}
	return BBox{Min: b.Min.Min(o.Min), Max: b.Max.Max(o.Max)}
}

// NodeBBox returns the inclusive box covering the cube of the given side
// length rooted at origin, i.e. [origin, origin+side-1].
func NodeBBox(origin Coord, side int32) BBox {
	return BBox{
		Min: origin,
		Max: Coord{origin[0] + side - 1, origin[1] + side - 1, origin[2] + side - 1},
	}
}

func (b BBox) String() string {
	return b.Min.String() + "-" + b.Max.String()
}
