package tree

import (
	"sort"

	"github.com/janelia-flyem/vxtree/coord"
)

// SignedFloodFill infers the sign of the background on either side of a
// narrow band of explicit voxel/tile data, the way a level set's implicit
// surface is normally reconstructed after only the voxels near the zero
// crossing have been written. It only scans the gaps between existing
// children (at the root, the z-steps between two child keys sharing (x,y);
// inside an internal node, the tile slots of one z-row between two child
// slots), and for each gap whose two bounding values (the last value of the
// child just before the gap, the first value of the child just after it)
// are both negative, it sets every z-step or slot in the gap to an inactive
// insideValue tile, replacing any tile already there. Tiles outside such a
// gap are left as they are. Background itself becomes
// outsideValue; callers that want the usual convention pass the tree's
// current background as outsideValue so untouched tiles (which still carry
// that value) read correctly without being rewritten.
func (t *Tree[T]) SignedFloodFill(outsideValue, insideValue T) {
	t.root.signedFloodFill(outsideValue, insideValue, t.ops)
}

func (r *RootNode[T]) signedFloodFill(outsideValue, insideValue T, ops Ops[T]) {
	r.background = outsideValue

	// Only child entries participate in the gap scan — a root tile is, by
	// definition, already a resolved single value and carries no internal
	// boundary to compare against.
	keys := make([]coord.Coord, 0, len(r.entries))
	for key, e := range r.entries {
		if e.child == nil {
			continue
		}
		e.child.signedFloodFill(insideValue, ops)
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	dim := r.shape.Internal2Dim()
	for i := 0; i+1 < len(keys); i++ {
		a, b := keys[i], keys[i+1]
		if a[0] != b[0] || a[1] != b[1] || b[2] == a[2]+dim {
			continue // different column, or adjacent with no gap at all
		}
		childA := r.entries[a].child
		childB := r.entries[b].child
		if !ops.Less(childA.getLastValue(), ops.Zero) || !ops.Less(childB.getFirstValue(), ops.Zero) {
			continue
		}
		for z := a[2] + dim; z != b[2]; z += dim {
			gapKey := coord.New(a[0], a[1], z)
			r.entries[gapKey] = &rootEntry[T]{value: insideValue, active: false}
		}
	}
}

// getLastValue returns the value stored at this node's final slot,
// recursing into a child node if that slot holds one — the subtree's
// highest-indexed voxel, used by signedFloodFill as one side of a boundary
// comparison.
func (n *InternalNode2[T]) getLastValue() T {
	last := len(n.tileValues) - 1
	if n.childMask.Test(last) {
		return n.children[last].getLastValue()
	}
	return n.tileValues[last]
}

// getFirstValue returns the value stored at this node's first slot,
// recursing into a child node if that slot holds one.
func (n *InternalNode2[T]) getFirstValue() T {
	if n.childMask.Test(0) {
		return n.children[0].getFirstValue()
	}
	return n.tileValues[0]
}

func (n *InternalNode2[T]) signedFloodFill(insideValue T, ops Ops[T]) {
	for idx := 0; idx < len(n.children); idx++ {
		if n.childMask.Test(idx) {
			n.children[idx].signedFloodFill(insideValue, ops)
		}
	}
	fillChildBoundedGaps(n.childMask, n.tileValues, n.tileActive, int(n.logDim), insideValue, ops,
		func(idx int) T { return n.children[idx].getLastValue() },
		func(idx int) T { return n.children[idx].getFirstValue() },
	)
}

func (n *InternalNode1[T]) getLastValue() T {
	last := len(n.tileValues) - 1
	if n.childMask.Test(last) {
		return n.children[last].getLastValue()
	}
	return n.tileValues[last]
}

func (n *InternalNode1[T]) getFirstValue() T {
	if n.childMask.Test(0) {
		return n.children[0].getFirstValue()
	}
	return n.tileValues[0]
}

func (n *InternalNode1[T]) signedFloodFill(insideValue T, ops Ops[T]) {
	// Leaves are dense and fully explicit; there is nothing beneath them
	// for signed flood fill to resolve.
	fillChildBoundedGaps(n.childMask, n.tileValues, n.tileActive, int(n.logDim), insideValue, ops,
		func(idx int) T { return n.children[idx].getLastValue() },
		func(idx int) T { return n.children[idx].getFirstValue() },
	)
}

func (l *LeafNode[T]) getLastValue() T { return l.values[len(l.values)-1] }

func (l *LeafNode[T]) getFirstValue() T { return l.values[0] }

// fillChildBoundedGaps scans each z-row of a dense internal-node slot array
// for runs of non-child (tile) slots strictly bounded, on both ends, by a
// child slot. A run only qualifies for fill when the left boundary's
// getLastValue and the right boundary's getFirstValue are both negative;
// tiles in a run that doesn't qualify, and any run open at a row edge, are
// left exactly as they were.
func fillChildBoundedGaps[T any](childMask interface {
	Test(int) bool
}, tileValues []T, tileActive interface {
	Clear(int)
}, logDim int, insideValue T, ops Ops[T], lastValueOf, firstValueOf func(int) T) {
	rowLen := 1 << logDim
	numRows := len(tileValues) / rowLen
	for row := 0; row < numRows; row++ {
		base := row * rowLen
		prevChild := -1
		for z := 0; z < rowLen; z++ {
			idx := base + z
			if !childMask.Test(idx) {
				continue
			}
			if prevChild >= 0 && z-prevChild > 1 {
				leftIdx := base + prevChild
				if ops.Less(lastValueOf(leftIdx), ops.Zero) && ops.Less(firstValueOf(idx), ops.Zero) {
					for g := leftIdx + 1; g < idx; g++ {
						tileValues[g] = insideValue
						tileActive.Clear(g)
					}
				}
			}
			prevChild = z
		}
	}
}
