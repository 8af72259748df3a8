package tree

import "github.com/janelia-flyem/vxtree/coord"

// ForEachRegion invokes fn once per maximal uniform region in the tree:
// once per tile at any level, and once per voxel within any leaf. Regions
// are disjoint and together cover every non-default coordinate the tree
// has ever touched.
func (t *Tree[T]) ForEachRegion(fn func(bbox coord.BBox, value T, active bool)) {
	t.root.ForEachRegion(fn)
}

func (r *RootNode[T]) ForEachRegion(fn func(coord.BBox, T, bool)) {
	dim := r.shape.Internal2Dim()
	for _, key := range r.sortedKeys() {
		e := r.entries[key]
		if e.child != nil {
			e.child.ForEachRegion(fn)
			continue
		}
		fn(coord.NodeBBox(key, dim), e.value, e.active)
	}
}

func (n *InternalNode2[T]) ForEachRegion(fn func(coord.BBox, T, bool)) {
	for idx := 0; idx < len(n.tileValues); idx++ {
		if n.childMask.Test(idx) {
			n.children[idx].ForEachRegion(fn)
			continue
		}
		bbox := coord.NodeBBox(n.childOriginOf(idx), n.childDim)
		fn(bbox, n.tileValues[idx], n.tileActive.Test(idx))
	}
}

func (n *InternalNode1[T]) ForEachRegion(fn func(coord.BBox, T, bool)) {
	for idx := 0; idx < len(n.tileValues); idx++ {
		if n.childMask.Test(idx) {
			n.children[idx].ForEachRegion(fn)
			continue
		}
		bbox := coord.NodeBBox(n.childOriginOf(idx), n.childDim)
		fn(bbox, n.tileValues[idx], n.tileActive.Test(idx))
	}
}

func (l *LeafNode[T]) ForEachRegion(fn func(coord.BBox, T, bool)) {
	for i := 0; i < len(l.values); i++ {
		xyz := l.voxelCoord(i)
		fn(coord.NewBBox(xyz, xyz), l.values[i], l.valueMask.Test(i))
	}
}

// ActivateAll marks every voxel/tile this leaf covers as active without
// changing any value, used by TopologyUnion to widen an existing subtree
// to match a wholly-active region in the other tree.
func (l *LeafNode[T]) ActivateAll() { l.valueMask.FillOn() }

// ActivateAll marks every slot (recursively) as active without changing
// values.
func (n *InternalNode1[T]) ActivateAll() {
	n.tileActive.FillOn()
	for idx := 0; idx < len(n.children); idx++ {
		if n.childMask.Test(idx) {
			n.tileActive.Clear(idx)
			n.children[idx].ActivateAll()
		}
	}
}

// ActivateAll marks every slot (recursively) as active without changing
// values.
func (n *InternalNode2[T]) ActivateAll() {
	n.tileActive.FillOn()
	for idx := 0; idx < len(n.children); idx++ {
		if n.childMask.Test(idx) {
			n.tileActive.Clear(idx)
			n.children[idx].ActivateAll()
		}
	}
}

// TopologyUnion widens t's active region to include every voxel that is
// active in src, without altering any value already present in t. Newly
// activated tiles and voxels keep whatever value t already stored there
// (its background, if the region was previously untouched). Both trees
// must share the same Shape.
func (t *Tree[T]) TopologyUnion(src *Tree[T]) error {
	if !t.shape.Equal(src.shape) {
		return ErrShapeMismatch
	}
	t.bumpGeneration()
	for key, se := range src.root.entries {
		de, ok := t.root.entries[key]
		if !ok {
			de = &rootEntry[T]{value: t.root.background, active: false}
			t.root.entries[key] = de
		}
		if se.child == nil {
			if !se.active {
				continue
			}
			if de.child != nil {
				de.child.ActivateAll()
			} else {
				de.active = true
			}
			continue
		}
		if de.child == nil {
			de.child = newInternalNode2[T](key, t.shape, de.value, de.active)
		}
		unionInternal2(de.child, se.child)
	}
	return nil
}

func unionInternal2[T any](dst, src *InternalNode2[T]) {
	for idx := 0; idx < len(src.tileValues); idx++ {
		if src.childMask.Test(idx) {
			if !dst.childMask.Test(idx) {
				dst.refineSlot(idx, dst.childOriginOf(idx))
			}
			unionInternal1(dst.children[idx], src.children[idx])
			continue
		}
		if !src.tileActive.Test(idx) {
			continue
		}
		if dst.childMask.Test(idx) {
			dst.children[idx].ActivateAll()
		} else {
			dst.tileActive.Set(idx)
		}
	}
}

func unionInternal1[T any](dst, src *InternalNode1[T]) {
	for idx := 0; idx < len(src.tileValues); idx++ {
		if src.childMask.Test(idx) {
			if !dst.childMask.Test(idx) {
				dst.refineSlot(idx, dst.childOriginOf(idx))
			}
			dst.children[idx].valueMask.Or(src.children[idx].valueMask)
			continue
		}
		if !src.tileActive.Test(idx) {
			continue
		}
		if dst.childMask.Test(idx) {
			dst.children[idx].ActivateAll()
		} else {
			dst.tileActive.Set(idx)
		}
	}
}

// Merge moves every node and tile present in src but absent in t into t,
// leaving everything t already had untouched. This is the tree's single
// merge policy: t always wins on conflicts. Moved children are taken by
// reference rather than copied, and src is left empty afterwards. Both
// trees must share the same Shape.
func (t *Tree[T]) Merge(src *Tree[T]) error {
	if !t.shape.Equal(src.shape) {
		return ErrShapeMismatch
	}
	t.bumpGeneration()
	defer src.Clear()
	for key, se := range src.root.entries {
		de, ok := t.root.entries[key]
		if !ok {
			t.root.entries[key] = se
			continue
		}
		if de.child == nil {
			// dst holds a tile here, active or not: a tile has no nodes of
			// its own to keep, so a src child is stolen over it outright.
			// A src tile never overwrites an existing dst tile's value.
			if se.child != nil {
				de.child = se.child
			}
			continue
		}
		if se.child != nil {
			mergeInternal2(de.child, se.child)
		}
	}
	return nil
}

func mergeInternal2[T any](dst, src *InternalNode2[T]) {
	for idx := 0; idx < len(src.tileValues); idx++ {
		if dst.childMask.Test(idx) {
			if src.childMask.Test(idx) {
				mergeInternal1(dst.children[idx], src.children[idx])
			}
			continue
		}
		if src.childMask.Test(idx) {
			dst.children[idx] = src.children[idx]
			dst.childMask.Set(idx)
			continue
		}
		// dst already holds a tile here, active or not; merge never
		// overwrites existing dst content, only fills in an absent child.
	}
}

func mergeInternal1[T any](dst, src *InternalNode1[T]) {
	for idx := 0; idx < len(src.tileValues); idx++ {
		if dst.childMask.Test(idx) {
			// Both hold leaves: dst's voxel data wins outright under the
			// single merge policy, no per-voxel reconciliation.
			continue
		}
		if src.childMask.Test(idx) {
			dst.children[idx] = src.children[idx]
			dst.childMask.Set(idx)
			continue
		}
		// dst already holds a tile here, active or not; leave it alone.
	}
}

// Combine rewrites every region src has ever touched in place on t. fn
// receives both sides' value and active state and decides both the
// combined value and the combined active state itself — this is what lets
// a caller express sign/activity-aware CSG on level sets (union takes
// whichever side is active and has the lesser/greater value, intersection
// requires both sides active, and so on), rather than being forced into a
// single fixed active-state policy. Both trees must share the same Shape.
func (t *Tree[T]) Combine(src *Tree[T], fn func(dstValue T, dstActive bool, srcValue T, srcActive bool) (T, bool)) error {
	if !t.shape.Equal(src.shape) {
		return ErrShapeMismatch
	}
	src.ForEachRegion(func(bbox coord.BBox, srcValue T, srcActive bool) {
		dstValue := t.GetValue(bbox.Min)
		dstActive := t.IsValueOn(bbox.Min)
		value, active := fn(dstValue, dstActive, srcValue, srcActive)
		t.Fill(bbox, value, active)
	})
	return nil
}

// Combine2 writes fn(a, b) into out over the union of every region a and b
// have touched, without modifying a or b. fn receives both sides' value and
// active state and returns the combined value and active state, the same
// functor contract as Combine. Where a and b disagree on granularity within
// the same footprint (one holds a tile where the other holds finer leaf
// data), b's pass runs last and its structure wins in the overlap;
// combining trees built over matching topology avoids this case entirely.
// Both trees must share the same Shape.
func Combine2[T any](out, a, b *Tree[T], fn func(aValue T, aActive bool, bValue T, bActive bool) (T, bool)) error {
	if !a.shape.Equal(b.shape) {
		return ErrShapeMismatch
	}
	out.Clear()
	a.ForEachRegion(func(bbox coord.BBox, aValue T, aActive bool) {
		bValue := b.GetValue(bbox.Min)
		bActive := b.IsValueOn(bbox.Min)
		value, active := fn(aValue, aActive, bValue, bActive)
		out.Fill(bbox, value, active)
	})
	b.ForEachRegion(func(bbox coord.BBox, bValue T, bActive bool) {
		aValue := a.GetValue(bbox.Min)
		aActive := a.IsValueOn(bbox.Min)
		value, active := fn(aValue, aActive, bValue, bActive)
		out.Fill(bbox, value, active)
	})
	return nil
}
