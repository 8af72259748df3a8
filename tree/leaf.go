package tree

import (
	"github.com/janelia-flyem/vxtree/coord"
	"github.com/janelia-flyem/vxtree/mask"
)

// LeafNode is the finest-resolution node: a dense cube of 1<<(3*N) values
// plus an active-state mask.
type LeafNode[T any] struct {
	origin    coord.Coord
	logDim    uint
	values    []T
	valueMask *mask.Mask
}

// newLeafNode allocates a leaf at origin (which must already be aligned to
// 1<<logDim), filled with fillValue and all voxels set to active=on.
func newLeafNode[T any](origin coord.Coord, logDim uint, fillValue T, on bool) *LeafNode[T] {
	n := 1 << (3 * logDim)
	values := make([]T, n)
	for i := range values {
		values[i] = fillValue
	}
	m := mask.New(logDim)
	if on {
		m.FillOn()
	}
	return &LeafNode[T]{origin: origin, logDim: logDim, values: values, valueMask: m}
}

// Origin returns the leaf's minimum-corner coordinate.
func (l *LeafNode[T]) Origin() coord.Coord { return l.origin }

// Dim returns the leaf's side length in voxels.
func (l *LeafNode[T]) Dim() int32 { return 1 << l.logDim }

// BBox returns the inclusive box this leaf covers.
func (l *LeafNode[T]) BBox() coord.BBox {
	return coord.NodeBBox(l.origin, l.Dim())
}

func (l *LeafNode[T]) localIndex(xyz coord.Coord) int {
	local := xyz.Offset(l.Dim())
	return voxelIndex(local, l.logDim)
}

// Value returns the value at linear offset i.
func (l *LeafNode[T]) Value(i int) T { return l.values[i] }

// ValueAt returns the value stored at world coordinate xyz, which must lie
// within this leaf's cube.
func (l *LeafNode[T]) ValueAt(xyz coord.Coord) T {
	return l.values[l.localIndex(xyz)]
}

// IsValueOn reports whether linear offset i is active.
func (l *LeafNode[T]) IsValueOn(i int) bool { return l.valueMask.Test(i) }

// IsValueOnAt reports whether the voxel at xyz is active.
func (l *LeafNode[T]) IsValueOnAt(xyz coord.Coord) bool {
	return l.valueMask.Test(l.localIndex(xyz))
}

// SetValueOn sets voxel i's value and marks it active.
func (l *LeafNode[T]) SetValueOn(i int, v T) {
	l.values[i] = v
	l.valueMask.Set(i)
}

// SetValueOnAt sets the voxel at xyz active with value v.
func (l *LeafNode[T]) SetValueOnAt(xyz coord.Coord, v T) {
	l.SetValueOn(l.localIndex(xyz), v)
}

// SetValueOff sets voxel i's value and marks it inactive.
func (l *LeafNode[T]) SetValueOff(i int, v T) {
	l.values[i] = v
	l.valueMask.Clear(i)
}

// SetValueOffAt sets the voxel at xyz to v and marks it inactive.
func (l *LeafNode[T]) SetValueOffAt(xyz coord.Coord, v T) {
	l.SetValueOff(l.localIndex(xyz), v)
}

// SetValueOnly overwrites voxel i's value while preserving its active state.
func (l *LeafNode[T]) SetValueOnly(i int, v T) {
	l.values[i] = v
}

// SetActiveState sets voxel i's active bit without touching its value.
func (l *LeafNode[T]) SetActiveState(i int, on bool) {
	l.valueMask.SetTo(i, on)
}

// GetValueMask returns the leaf's active-state mask.
func (l *LeafNode[T]) GetValueMask() *mask.Mask { return l.valueMask }

// SetValueMask replaces the leaf's active-state mask wholesale; m must have
// the same log2 dimension as this leaf.
func (l *LeafNode[T]) SetValueMask(m *mask.Mask) {
	if m.LogDim() != l.logDim {
		panic("tree: value mask shape does not match leaf")
	}
	l.valueMask = m
}

// TouchLeaf is the identity operation when xyz lies within this leaf's
// cube — leaves have no children to create, so touching one just confirms
// residency.
func (l *LeafNode[T]) TouchLeaf(xyz coord.Coord) *LeafNode[T] {
	if !l.BBox().Contains(xyz) {
		panic("tree: TouchLeaf coordinate outside this leaf")
	}
	return l
}

// Fill clips bbox to this leaf's cube and assigns every voxel within the
// clipped region to (value, active).
func (l *LeafNode[T]) Fill(bbox coord.BBox, value T, active bool) {
	clipped := bbox.Clip(l.BBox())
	if clipped.Empty() {
		return
	}
	for x := clipped.Min[0]; x <= clipped.Max[0]; x++ {
		for y := clipped.Min[1]; y <= clipped.Max[1]; y++ {
			for z := clipped.Min[2]; z <= clipped.Max[2]; z++ {
				i := l.localIndex(coord.Coord{x, y, z})
				l.values[i] = value
				l.valueMask.SetTo(i, active)
			}
		}
	}
}

// Prune reports whether every voxel shares the same active state and a
// value equal (within tolerance) to the first voxel's; if so it returns
// that representative (value, active) pair for the caller to install as a
// replacement tile.
func (l *LeafNode[T]) Prune(tolerance T, ops Ops[T]) (value T, active bool, ok bool) {
	if len(l.values) == 0 {
		return ops.Zero, false, true
	}
	value = l.values[0]
	active = l.valueMask.Test(0)
	for i := 1; i < len(l.values); i++ {
		if l.valueMask.Test(i) != active {
			return value, active, false
		}
		if !ops.ApproxEqual(l.values[i], value, tolerance) {
			return value, active, false
		}
	}
	return value, active, true
}

// ActiveVoxelCount returns the number of active voxels in this leaf.
func (l *LeafNode[T]) ActiveVoxelCount() int {
	return l.valueMask.CountOn()
}

// NumVoxels returns 1<<(3*logDim), the total voxel count.
func (l *LeafNode[T]) NumVoxels() int {
	return len(l.values)
}

// voxelCoord converts a linear offset back to its world coordinate.
func (l *LeafNode[T]) voxelCoord(i int) coord.Coord {
	m := int32(1<<l.logDim) - 1
	x := int32(i>>(2*l.logDim)) & m
	y := int32(i>>l.logDim) & m
	z := int32(i) & m
	return coord.Coord{l.origin[0] + x, l.origin[1] + y, l.origin[2] + z}
}

// allInactive reports whether every voxel in the leaf is inactive, used by
// level-set pruning to decide whether an all-inactive leaf may collapse to
// a signed background tile.
func (l *LeafNode[T]) allInactive() bool {
	return l.valueMask.IsOff()
}

// PruneLevelSet reports whether every voxel in the leaf is inactive and
// shares the same value sign relative to zero; if so it returns the signed
// background value (+background or -background, matching that sign) the
// caller should install as this leaf's replacement tile.
func (l *LeafNode[T]) PruneLevelSet(background T, ops Ops[T]) (value T, ok bool) {
	if !l.allInactive() {
		return ops.Zero, false
	}
	if len(l.values) == 0 {
		return background, true
	}
	negative := ops.Less(l.values[0], ops.Zero)
	for i := 1; i < len(l.values); i++ {
		if ops.Less(l.values[i], ops.Zero) != negative {
			return ops.Zero, false
		}
	}
	if negative {
		return ops.Negate(background), true
	}
	return background, true
}

// Clone returns a deep copy of the leaf.
func (l *LeafNode[T]) Clone() *LeafNode[T] {
	values := make([]T, len(l.values))
	copy(values, l.values)
	return &LeafNode[T]{
		origin:    l.origin,
		logDim:    l.logDim,
		values:    values,
		valueMask: l.valueMask.Clone(),
	}
}

// maskWords returns a word-level copy of the active mask; loadMaskWords
// writes such a copy back.
func (l *LeafNode[T]) maskWords() []uint64 {
	words := make([]uint64, l.valueMask.NumWords())
	for i := range words {
		words[i] = l.valueMask.WordAt(i)
	}
	return words
}

func (l *LeafNode[T]) loadMaskWords(words []uint64) {
	for i, w := range words {
		l.valueMask.SetWordAt(i, w)
	}
}
