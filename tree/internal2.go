package tree

import (
	"github.com/janelia-flyem/vxtree/coord"
	"github.com/janelia-flyem/vxtree/mask"
)

// InternalNode2 is the internal level whose slots address InternalNode1
// children — the node directly under the root. Structurally identical to
// InternalNode1 except for its child type; both instantiate what would be a
// single InternalNode(Child,N) template in the original library, expressed
// here as two concrete Go types rather than one recursively-parametrized one
// (see the package doc comment in ops.go).
type InternalNode2[T any] struct {
	origin      coord.Coord
	logDim      uint // N2
	childLogDim uint // InternalNode1's own logDim, not used directly but kept for clarity/debug
	childDim    int32

	children   []*InternalNode1[T]
	tileValues []T
	tileActive *mask.Mask
	childMask  *mask.Mask

	// leafLogDim/internal1LogDim are threaded down so newly-refined
	// InternalNode1 children know the leaf shape beneath them.
	leafLogDim      uint
	internal1LogDim uint
}

func newInternalNode2[T any](origin coord.Coord, shape Shape, fillValue T, active bool) *InternalNode2[T] {
	logDim := shape.Internal2Log2Dim
	n := 1 << (3 * logDim)
	tileValues := make([]T, n)
	for i := range tileValues {
		tileValues[i] = fillValue
	}
	tileActive := mask.New(logDim)
	if active {
		tileActive.FillOn()
	}
	return &InternalNode2[T]{
		origin:          origin,
		logDim:          logDim,
		childLogDim:     shape.Internal1Log2Dim,
		childDim:        shape.Internal1Dim(),
		children:        make([]*InternalNode1[T], n),
		tileValues:      tileValues,
		tileActive:      tileActive,
		childMask:       mask.New(logDim),
		leafLogDim:      shape.LeafLog2Dim,
		internal1LogDim: shape.Internal1Log2Dim,
	}
}

func (n *InternalNode2[T]) Origin() coord.Coord { return n.origin }
func (n *InternalNode2[T]) Dim() int32          { return n.childDim << n.logDim }
func (n *InternalNode2[T]) BBox() coord.BBox    { return coord.NodeBBox(n.origin, n.Dim()) }

func (n *InternalNode2[T]) slotIndex(xyz coord.Coord) (idx int, childOrigin coord.Coord) {
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

func (n *InternalNode2[T]) GetValue(xyz coord.Coord) T {
	idx, _ := n.slotIndex(xyz)
	if n.childMask.Test(idx) {
		return n.children[idx].GetValue(xyz)
	}
	return n.tileValues[idx]
}

func (n *InternalNode2[T]) IsValueOn(xyz coord.Coord) bool {
	idx, _ := n.slotIndex(xyz)
	if n.childMask.Test(idx) {
		return n.children[idx].IsValueOn(xyz)
	}
	return n.tileActive.Test(idx)
}

func (n *InternalNode2[T]) ProbeValue(xyz coord.Coord, v *T) bool {
	idx, _ := n.slotIndex(xyz)
	if n.childMask.Test(idx) {
		return n.children[idx].ProbeValue(xyz, v)
	}
	*v = n.tileValues[idx]
	return n.tileActive.Test(idx)
}

// ValueDepth returns the number of additional levels descended past this
// node to resolve xyz.
func (n *InternalNode2[T]) ValueDepth(xyz coord.Coord) int {
	idx, _ := n.slotIndex(xyz)
	if n.childMask.Test(idx) {
		return 1 + n.children[idx].ValueDepth(xyz)
	}
	return 0
}

func (n *InternalNode2[T]) refineSlot(idx int, childOrigin coord.Coord) *InternalNode1[T] {
	value := n.tileValues[idx]
	active := n.tileActive.Test(idx)
	child := newInternalNode1[T](childOrigin, n.internal1LogDim, n.leafLogDim, value, active)
	n.children[idx] = child
	n.childMask.Set(idx)
	n.tileActive.Clear(idx)
	return child
}

func (n *InternalNode2[T]) SetValueOn(xyz coord.Coord, v T) {
	idx, childOrigin := n.slotIndex(xyz)
	var child *InternalNode1[T]
	if n.childMask.Test(idx) {
		child = n.children[idx]
	} else {
		child = n.refineSlot(idx, childOrigin)
	}
	child.SetValueOn(xyz, v)
}

func (n *InternalNode2[T]) SetValueOff(xyz coord.Coord, v T) {
	idx, childOrigin := n.slotIndex(xyz)
	var child *InternalNode1[T]
	if n.childMask.Test(idx) {
		child = n.children[idx]
	} else {
		child = n.refineSlot(idx, childOrigin)
	}
	child.SetValueOff(xyz, v)
}

func (n *InternalNode2[T]) SetValueOnly(xyz coord.Coord, v T) {
	idx, childOrigin := n.slotIndex(xyz)
	if n.childMask.Test(idx) {
		n.children[idx].SetValueOnly(xyz, v)
		return
	}
	if n.tileActive.Test(idx) {
		child := n.refineSlot(idx, childOrigin)
		child.SetValueOnly(xyz, v)
		return
	}
	n.tileValues[idx] = v
}

func (n *InternalNode2[T]) SetActiveState(xyz coord.Coord, on bool) {
	idx, childOrigin := n.slotIndex(xyz)
	if n.childMask.Test(idx) {
		n.children[idx].SetActiveState(xyz, on)
		return
	}
	if on == n.tileActive.Test(idx) {
		return
	}
	child := n.refineSlot(idx, childOrigin)
	child.SetActiveState(xyz, on)
}

func (n *InternalNode2[T]) applyCombine(xyz coord.Coord, v T, ops Ops[T], combine func(a, b T) T) {
	idx, childOrigin := n.slotIndex(xyz)
	var child *InternalNode1[T]
	if n.childMask.Test(idx) {
		child = n.children[idx]
	} else {
		child = n.refineSlot(idx, childOrigin)
	}
	child.applyCombine(xyz, v, ops, combine)
}

func (n *InternalNode2[T]) TouchLeaf(xyz coord.Coord) *LeafNode[T] {
	idx, childOrigin := n.slotIndex(xyz)
	var child *InternalNode1[T]
	if n.childMask.Test(idx) {
		child = n.children[idx]
	} else {
		child = n.refineSlot(idx, childOrigin)
	}
	return child.TouchLeaf(xyz)
}

func (n *InternalNode2[T]) ProbeLeaf(xyz coord.Coord) *LeafNode[T] {
	idx, _ := n.slotIndex(xyz)
	if !n.childMask.Test(idx) {
		return nil
	}
	return n.children[idx].ProbeLeaf(xyz)
}

// ProbeConstLeaf is ProbeLeaf's read-only-caller twin: Go has no
// const-qualified pointers, so it exists to name the same non-mutating
// descent the original library exposes as a separate, const-overloaded
// entry point.
func (n *InternalNode2[T]) ProbeConstLeaf(xyz coord.Coord) *LeafNode[T] {
	return n.ProbeLeaf(xyz)
}

func (n *InternalNode2[T]) Fill(bbox coord.BBox, value T, active bool) {
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
					n.children[idx] = nil
					n.childMask.Clear(idx)
					n.tileValues[idx] = value
					n.tileActive.SetTo(idx, active)
					continue
				}
				var child *InternalNode1[T]
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

func (n *InternalNode2[T]) Prune(tolerance T, ops Ops[T]) (value T, active bool, ok bool) {
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

func (n *InternalNode2[T]) VoxelizeActiveTiles() {
	for idx := 0; idx < len(n.tileValues); idx++ {
		if n.childMask.Test(idx) {
			n.children[idx].VoxelizeActiveTiles()
			continue
		}
		if !n.tileActive.Test(idx) {
			continue
		}
		childOrigin := n.childOriginOf(idx)
		child := n.refineSlot(idx, childOrigin)
		child.VoxelizeActiveTiles()
	}
}

func (n *InternalNode2[T]) childOriginOf(idx int) coord.Coord {
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

func (n *InternalNode2[T]) ActiveVoxelCount() int64 {
	var total int64
	childVoxels := int64(n.childDim) * int64(n.childDim) * int64(n.childDim)
	for idx := 0; idx < len(n.tileValues); idx++ {
		if n.childMask.Test(idx) {
			total += n.children[idx].ActiveVoxelCount()
		} else if n.tileActive.Test(idx) {
			total += childVoxels
		}
	}
	return total
}

func (n *InternalNode2[T]) LeafCount() int {
	total := 0
	for idx := 0; idx < len(n.children); idx++ {
		if n.childMask.Test(idx) {
			total += n.children[idx].LeafCount()
		}
	}
	return total
}

func (n *InternalNode2[T]) NodeCount() (internal1, leaves int) {
	for idx := 0; idx < len(n.children); idx++ {
		if n.childMask.Test(idx) {
			internal1++
			leaves += n.children[idx].LeafCount()
		}
	}
	return
}

func (n *InternalNode2[T]) ForEachLeaf(fn func(*LeafNode[T])) {
	for idx := 0; idx < len(n.children); idx++ {
		if n.childMask.Test(idx) {
			n.children[idx].ForEachLeaf(fn)
		}
	}
}

// PruneLevelSet recurses into every child, collapsing any leaf whose
// voxels are all inactive and share a common value sign into an inactive
// ±background tile.
func (n *InternalNode2[T]) PruneLevelSet(background T, ops Ops[T]) {
	for idx := 0; idx < len(n.children); idx++ {
		if n.childMask.Test(idx) {
			n.children[idx].PruneLevelSet(background, ops)
		}
	}
}

// hasActiveTiles reports whether this node or any descendant internal node
// holds an active tile slot.
func (n *InternalNode2[T]) hasActiveTiles() bool {
	for idx := 0; idx < len(n.tileValues); idx++ {
		if n.childMask.Test(idx) {
			if n.children[idx].hasActiveTiles() {
				return true
			}
			continue
		}
		if n.tileActive.Test(idx) {
			return true
		}
	}
	return false
}
