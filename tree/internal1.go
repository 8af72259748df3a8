package tree

import (
	"github.com/janelia-flyem/vxtree/coord"
	"github.com/janelia-flyem/vxtree/mask"
)

// InternalNode1 is the internal level whose slots address LeafNode
// children. Each slot is either a child leaf or a tile (a single
// value+active flag covering the whole leaf-sized subcube); childMask
// records which.
type InternalNode1[T any] struct {
	origin      coord.Coord
	logDim      uint  // N1
	childLogDim uint  // leaf's log2 dim, needed to address children
	childDim    int32 // leaf side length

	children   []*LeafNode[T]
	tileValues []T
	// tileActive holds the active bit for tile slots; for child slots its
	// bit is unused by readers and is kept false by convention. Active
	// state for a child-holding slot is decided by descending into the
	// child rather than by consulting this bit.
	tileActive *mask.Mask
	childMask  *mask.Mask
}

func newInternalNode1[T any](origin coord.Coord, logDim, childLogDim uint, fillValue T, active bool) *InternalNode1[T] {
	n := 1 << (3 * logDim)
	tileValues := make([]T, n)
	for i := range tileValues {
		tileValues[i] = fillValue
	}
	tileActive := mask.New(logDim)
	if active {
		tileActive.FillOn()
	}
	return &InternalNode1[T]{
		origin:      origin,
		logDim:      logDim,
		childLogDim: childLogDim,
		childDim:    1 << childLogDim,
		children:    make([]*LeafNode[T], n),
		tileValues:  tileValues,
		tileActive:  tileActive,
		childMask:   mask.New(logDim),
	}
}

func (n *InternalNode1[T]) Origin() coord.Coord { return n.origin }
func (n *InternalNode1[T]) Dim() int32          { return n.childDim << n.logDim }
func (n *InternalNode1[T]) BBox() coord.BBox    { return coord.NodeBBox(n.origin, n.Dim()) }

func (n *InternalNode1[T]) slotIndex(xyz coord.Coord) (idx int, childOrigin coord.Coord) {
	local := xyz.Offset(n.Dim())
	slotCoord := coord.Coord{local[0] / n.childDim, local[1] / n.childDim, local[2] / n.childDim}
	idx = voxelIndex(slotCoord, n.logDim)
	childOrigin = coord.Coord{
		n.origin[0] + slotCoord[0]*n.childDim,
		n.origin[1] + slotCoord[1]*n.childDim,
		n.origin[2] + slotCoord[2]*n.childDim,
	}
	return
}

// GetValue returns the value at xyz: the child leaf's voxel if the slot
// holds a child, otherwise the tile value.
func (n *InternalNode1[T]) GetValue(xyz coord.Coord) T {
	idx, _ := n.slotIndex(xyz)
	if n.childMask.Test(idx) {
		return n.children[idx].ValueAt(xyz)
	}
	return n.tileValues[idx]
}

// IsValueOn reports the active state at xyz.
func (n *InternalNode1[T]) IsValueOn(xyz coord.Coord) bool {
	idx, _ := n.slotIndex(xyz)
	if n.childMask.Test(idx) {
		return n.children[idx].IsValueOnAt(xyz)
	}
	return n.tileActive.Test(idx)
}

// ProbeValue writes the value at xyz into *v and returns its active state.
func (n *InternalNode1[T]) ProbeValue(xyz coord.Coord, v *T) bool {
	idx, _ := n.slotIndex(xyz)
	if n.childMask.Test(idx) {
		c := n.children[idx]
		i := c.localIndex(xyz)
		*v = c.Value(i)
		return c.IsValueOn(i)
	}
	*v = n.tileValues[idx]
	return n.tileActive.Test(idx)
}

// ValueDepth returns the number of additional levels descended to resolve
// xyz: 0 if this node holds a tile at xyz, 1+child's result otherwise.
func (n *InternalNode1[T]) ValueDepth(xyz coord.Coord) int {
	idx, _ := n.slotIndex(xyz)
	if n.childMask.Test(idx) {
		return 1 // leaf voxel is one level below this node
	}
	return 0
}

// refineSlot materializes a child leaf at idx/childOrigin, initialized from
// the tile value+active previously stored there so that refining a tile to
// a child never changes the values a reader observes.
func (n *InternalNode1[T]) refineSlot(idx int, childOrigin coord.Coord) *LeafNode[T] {
	value := n.tileValues[idx]
	active := n.tileActive.Test(idx)
	child := newLeafNode[T](childOrigin, n.childLogDim, value, active)
	n.children[idx] = child
	n.childMask.Set(idx)
	n.tileActive.Clear(idx)
	return child
}

// SetValueOn sets xyz active with value v, refining a tile slot to a child
// if necessary.
func (n *InternalNode1[T]) SetValueOn(xyz coord.Coord, v T) {
	idx, childOrigin := n.slotIndex(xyz)
	var child *LeafNode[T]
	if n.childMask.Test(idx) {
		child = n.children[idx]
	} else {
		child = n.refineSlot(idx, childOrigin)
	}
	child.SetValueOnAt(xyz, v)
}

// SetValueOff sets xyz's value and marks it inactive.
func (n *InternalNode1[T]) SetValueOff(xyz coord.Coord, v T) {
	idx, childOrigin := n.slotIndex(xyz)
	var child *LeafNode[T]
	if n.childMask.Test(idx) {
		child = n.children[idx]
	} else {
		child = n.refineSlot(idx, childOrigin)
	}
	child.SetValueOffAt(xyz, v)
}

// SetValueOnly overwrites xyz's value while preserving its active state.
func (n *InternalNode1[T]) SetValueOnly(xyz coord.Coord, v T) {
	idx, childOrigin := n.slotIndex(xyz)
	if n.childMask.Test(idx) {
		c := n.children[idx]
		c.SetValueOnly(c.localIndex(xyz), v)
		return
	}
	if n.tileActive.Test(idx) {
		child := n.refineSlot(idx, childOrigin)
		child.SetValueOnAt(xyz, v)
		return
	}
	n.tileValues[idx] = v
}

// SetActiveState sets xyz's active bit without touching its value.
func (n *InternalNode1[T]) SetActiveState(xyz coord.Coord, on bool) {
	idx, childOrigin := n.slotIndex(xyz)
	if n.childMask.Test(idx) {
		c := n.children[idx]
		c.SetActiveState(c.localIndex(xyz), on)
		return
	}
	if on == n.tileActive.Test(idx) {
		return
	}
	child := n.refineSlot(idx, childOrigin)
	i := child.localIndex(xyz)
	child.SetActiveState(i, on)
}

// applyCombine sets xyz active to combine(existing value, v), refining a
// tile slot to a child leaf if necessary.
func (n *InternalNode1[T]) applyCombine(xyz coord.Coord, v T, ops Ops[T], combine func(a, b T) T) {
	idx, childOrigin := n.slotIndex(xyz)
	var child *LeafNode[T]
	if n.childMask.Test(idx) {
		child = n.children[idx]
	} else {
		child = n.refineSlot(idx, childOrigin)
	}
	i := child.localIndex(xyz)
	child.SetValueOn(i, combine(child.Value(i), v))
}

// TouchLeaf ensures a leaf exists at xyz (refining a tile if needed) and
// returns it.
func (n *InternalNode1[T]) TouchLeaf(xyz coord.Coord) *LeafNode[T] {
	idx, childOrigin := n.slotIndex(xyz)
	if n.childMask.Test(idx) {
		return n.children[idx]
	}
	return n.refineSlot(idx, childOrigin)
}

// ProbeLeaf returns the leaf at xyz if the slot holds a child, else nil.
func (n *InternalNode1[T]) ProbeLeaf(xyz coord.Coord) *LeafNode[T] {
	idx, _ := n.slotIndex(xyz)
	if n.childMask.Test(idx) {
		return n.children[idx]
	}
	return nil
}

// ProbeConstLeaf is ProbeLeaf's read-only-caller twin: Go has no
// const-qualified pointers, so it exists to name the same non-mutating
// descent the original library exposes as a separate, const-overloaded
// entry point.
func (n *InternalNode1[T]) ProbeConstLeaf(xyz coord.Coord) *LeafNode[T] {
	return n.ProbeLeaf(xyz)
}

// Fill clips bbox to this node's cube; fully-covered slots become tiles,
// partially-covered slots are refined (if absent) and recursed into.
func (n *InternalNode1[T]) Fill(bbox coord.BBox, value T, active bool) {
	clipped := bbox.Clip(n.BBox())
	if clipped.Empty() {
		return
	}
	minSlot := clipped.Min.Sub(n.origin)
	maxSlot := clipped.Max.Sub(n.origin)
	sx0, sx1 := minSlot[0]/n.childDim, maxSlot[0]/n.childDim
	sy0, sy1 := minSlot[1]/n.childDim, maxSlot[1]/n.childDim
	sz0, sz1 := minSlot[2]/n.childDim, maxSlot[2]/n.childDim

	for sx := sx0; sx <= sx1; sx++ {
		for sy := sy0; sy <= sy1; sy++ {
			for sz := sz0; sz <= sz1; sz++ {
				slotCoord := coord.Coord{sx, sy, sz}
				idx := voxelIndex(slotCoord, n.logDim)
				childOrigin := coord.Coord{
					n.origin[0] + sx*n.childDim,
					n.origin[1] + sy*n.childDim,
					n.origin[2] + sz*n.childDim,
				}
				childBBox := coord.NodeBBox(childOrigin, n.childDim)
				if clipped.ContainsBBox(childBBox) {
					// Fully covered: collapse/replace with a tile,
					// discarding any existing child.
					n.children[idx] = nil
					n.childMask.Clear(idx)
					n.tileValues[idx] = value
					n.tileActive.SetTo(idx, active)
					continue
				}
				var child *LeafNode[T]
				if n.childMask.Test(idx) {
					child = n.children[idx]
				} else {
					child = n.refineSlot(idx, childOrigin)
				}
				child.Fill(clipped, value, active)
			}
		}
	}
}

// Prune recursively prunes children, then reports whether every slot (tile
// or newly-collapsed child) now shares a common (value,active), signalling
// the caller to collapse this node to a tile.
func (n *InternalNode1[T]) Prune(tolerance T, ops Ops[T]) (value T, active bool, ok bool) {
	numSlots := len(n.tileValues)
	for idx := 0; idx < numSlots; idx++ {
		if !n.childMask.Test(idx) {
			continue
		}
		child := n.children[idx]
		if v, a, collapse := child.Prune(tolerance, ops); collapse {
			n.children[idx] = nil
			n.childMask.Clear(idx)
			n.tileValues[idx] = v
			n.tileActive.SetTo(idx, a)
		}
	}
	// Any remaining child slot blocks collapse of this node.
	if n.childMask.CountOn() > 0 {
		return ops.Zero, false, false
	}
	value = n.tileValues[0]
	active = n.tileActive.Test(0)
	for idx := 1; idx < numSlots; idx++ {
		if n.tileActive.Test(idx) != active {
			return value, active, false
		}
		if !ops.ApproxEqual(n.tileValues[idx], value, tolerance) {
			return value, active, false
		}
	}
	return value, active, true
}

// VoxelizeActiveTiles replaces every active tile slot with a freshly
// allocated, fully-active child leaf, then recurses (trivially, since
// leaves have no further children).
func (n *InternalNode1[T]) VoxelizeActiveTiles() {
	for idx := 0; idx < len(n.tileValues); idx++ {
		if n.childMask.Test(idx) || !n.tileActive.Test(idx) {
			continue
		}
		childOrigin := n.childOriginOf(idx)
		n.refineSlot(idx, childOrigin)
	}
}

func (n *InternalNode1[T]) childOriginOf(idx int) coord.Coord {
	m := int32(1<<n.logDim) - 1
	sx := int32(idx>>(2*n.logDim)) & m
	sy := int32(idx>>n.logDim) & m
	sz := int32(idx) & m
	return coord.Coord{
		n.origin[0] + sx*n.childDim,
		n.origin[1] + sy*n.childDim,
		n.origin[2] + sz*n.childDim,
	}
}

// ActiveVoxelCount sums active voxels across child leaves plus the child
// cube's voxel count for each active tile.
func (n *InternalNode1[T]) ActiveVoxelCount() int64 {
	var total int64
	childVoxels := int64(n.childDim) * int64(n.childDim) * int64(n.childDim)
	for idx := 0; idx < len(n.tileValues); idx++ {
		if n.childMask.Test(idx) {
			total += int64(n.children[idx].ActiveVoxelCount())
		} else if n.tileActive.Test(idx) {
			total += childVoxels
		}
	}
	return total
}

// LeafCount returns the number of leaves reachable from this node.
func (n *InternalNode1[T]) LeafCount() int {
	return n.childMask.CountOn()
}

// ForEachLeaf invokes fn for every leaf child, in slot order, used by
// LeafManager to build its flat snapshot deterministically.
func (n *InternalNode1[T]) ForEachLeaf(fn func(*LeafNode[T])) {
	for idx := 0; idx < len(n.children); idx++ {
		if n.childMask.Test(idx) {
			fn(n.children[idx])
		}
	}
}

// PruneLevelSet collapses any child leaf whose voxels are all inactive and
// share a common value sign into an inactive ±background tile, preserving
// that sign; leaves that don't qualify are left untouched.
func (n *InternalNode1[T]) PruneLevelSet(background T, ops Ops[T]) {
	for idx := 0; idx < len(n.children); idx++ {
		if !n.childMask.Test(idx) {
			continue
		}
		if value, ok := n.children[idx].PruneLevelSet(background, ops); ok {
			n.children[idx] = nil
			n.childMask.Clear(idx)
			n.tileValues[idx] = value
			n.tileActive.Clear(idx)
		}
	}
}

// hasActiveTiles reports whether this node holds any active tile slot.
func (n *InternalNode1[T]) hasActiveTiles() bool {
	for idx := 0; idx < len(n.tileValues); idx++ {
		if !n.childMask.Test(idx) && n.tileActive.Test(idx) {
			return true
		}
	}
	return false
}
