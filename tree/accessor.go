package tree

import "github.com/janelia-flyem/vxtree/coord"

// ValueAccessor caches the node path from a tree's root down to the last
// leaf/tile visited, turning the common case of repeated nearby accesses
// (raster scans, flood fills) from a full four-level descent into a
// constant-time bounds check against the cached leaf and internal node
// bounding boxes. It is not safe for concurrent use; each goroutine should
// own its own accessor over a shared Tree.
type ValueAccessor[T any] struct {
	tree *Tree[T]

	// generation is the tree's mutation counter as of this accessor's last
	// descent. A mismatch against the tree's current generation means some
	// write — through this accessor, the tree directly, or another
	// accessor — may have detached the cached path below, so every cached
	// level must be treated as stale and the next lookup must re-descend
	// from the root.
	generation uint64

	leafBBox      coord.BBox
	leaf          *LeafNode[T]
	internal1BBox coord.BBox
	internal1     *InternalNode1[T]
	internal2BBox coord.BBox
	internal2     *InternalNode2[T]
}

// NewValueAccessor returns an accessor over tree with an empty cache.
func NewValueAccessor[T any](tree *Tree[T]) *ValueAccessor[T] {
	return &ValueAccessor[T]{tree: tree}
}

// Clear invalidates the cache, forcing the next access to descend from the
// root again. Call this after any structural mutation made outside the
// accessor (e.g. directly against the tree or another accessor).
func (a *ValueAccessor[T]) Clear() {
	a.leaf = nil
	a.internal1 = nil
	a.internal2 = nil
}

func (a *ValueAccessor[T]) isCacheHit(xyz coord.Coord) bool {
	return a.leaf != nil && a.generation == a.tree.generation && a.leafBBox.Contains(xyz)
}

// GetValue returns the value at xyz, using and refreshing the cache.
func (a *ValueAccessor[T]) GetValue(xyz coord.Coord) T {
	if a.isCacheHit(xyz) {
		return a.leaf.ValueAt(xyz)
	}
	if leaf := a.descendToLeaf(xyz); leaf != nil {
		return leaf.ValueAt(xyz)
	}
	return a.tree.GetValue(xyz)
}

// IsValueOn reports whether xyz is active, using and refreshing the cache.
func (a *ValueAccessor[T]) IsValueOn(xyz coord.Coord) bool {
	if a.isCacheHit(xyz) {
		return a.leaf.IsValueOnAt(xyz)
	}
	if leaf := a.descendToLeaf(xyz); leaf != nil {
		return leaf.IsValueOnAt(xyz)
	}
	return a.tree.IsValueOn(xyz)
}

// SetValueOn sets xyz active with value v, creating a leaf if needed and
// caching it.
func (a *ValueAccessor[T]) SetValueOn(xyz coord.Coord, v T) {
	leaf := a.touchLeaf(xyz)
	leaf.SetValueOnAt(xyz, v)
}

// SetValueOff sets xyz's value and marks it inactive, refreshing the cache.
func (a *ValueAccessor[T]) SetValueOff(xyz coord.Coord, v T) {
	leaf := a.touchLeaf(xyz)
	leaf.SetValueOffAt(xyz, v)
}

// SetValueOnly overwrites xyz's value while preserving its active state,
// creating a leaf if needed and refreshing the cache.
func (a *ValueAccessor[T]) SetValueOnly(xyz coord.Coord, v T) {
	leaf := a.touchLeaf(xyz)
	leaf.SetValueOnly(leaf.localIndex(xyz), v)
}

// SetActiveState sets xyz's active bit without touching its value, creating
// a leaf if needed and refreshing the cache.
func (a *ValueAccessor[T]) SetActiveState(xyz coord.Coord, on bool) {
	leaf := a.touchLeaf(xyz)
	leaf.SetActiveState(leaf.localIndex(xyz), on)
}

// ProbeValue writes xyz's value into *v and returns its active state, using
// and refreshing the cache.
func (a *ValueAccessor[T]) ProbeValue(xyz coord.Coord, v *T) bool {
	if a.isCacheHit(xyz) {
		*v = a.leaf.ValueAt(xyz)
		return a.leaf.IsValueOnAt(xyz)
	}
	if leaf := a.descendToLeaf(xyz); leaf != nil {
		*v = leaf.ValueAt(xyz)
		return leaf.IsValueOnAt(xyz)
	}
	return a.tree.ProbeValue(xyz, v)
}

// TouchLeaf ensures a leaf exists at xyz, creating intermediate nodes as
// needed, and returns it, caching the descent.
func (a *ValueAccessor[T]) TouchLeaf(xyz coord.Coord) *LeafNode[T] {
	return a.touchLeaf(xyz)
}

// ProbeLeaf returns the leaf at xyz without creating one, or nil if that
// region is a tile at any level, using and refreshing the cache.
func (a *ValueAccessor[T]) ProbeLeaf(xyz coord.Coord) *LeafNode[T] {
	if a.isCacheHit(xyz) {
		return a.leaf
	}
	return a.descendToLeaf(xyz)
}

// touchLeaf returns a cache hit if possible, else descends through
// internal2/internal1, refining tiles along the way, caching every level
// reached.
func (a *ValueAccessor[T]) touchLeaf(xyz coord.Coord) *LeafNode[T] {
	if a.isCacheHit(xyz) {
		return a.leaf
	}
	if a.generation != a.tree.generation {
		a.internal1 = nil
		a.internal2 = nil
	}
	leaf := a.tree.TouchLeaf(xyz)
	a.generation = a.tree.generation
	a.leaf = leaf
	a.leafBBox = leaf.BBox()
	return leaf
}

// descendToLeaf walks root->internal2->internal1->leaf without creating
// anything, caching internal nodes it passes through but only caching a
// leaf (and returning non-nil) if one already exists at xyz. If the tree's
// generation has advanced since this accessor last descended, every cached
// level is treated as potentially detached and discarded before the walk
// begins.
func (a *ValueAccessor[T]) descendToLeaf(xyz coord.Coord) *LeafNode[T] {
	a.leaf = nil
	if a.generation != a.tree.generation {
		a.internal1 = nil
		a.internal2 = nil
		a.generation = a.tree.generation
	}

	if a.internal2 != nil && a.internal2BBox.Contains(xyz) {
		// fall through, already have the right internal2
	} else {
		e, ok := a.tree.root.entries[a.tree.root.keyOf(xyz)]
		if !ok || e.child == nil {
			a.internal2 = nil
			a.internal1 = nil
			return nil
		}
		a.internal2 = e.child
		a.internal2BBox = e.child.BBox()
		a.internal1 = nil
	}

	if a.internal1 == nil || !a.internal1BBox.Contains(xyz) {
		idx, _ := a.internal2.slotIndex(xyz)
		if !a.internal2.childMask.Test(idx) {
			a.internal1 = nil
			return nil
		}
		a.internal1 = a.internal2.children[idx]
		a.internal1BBox = a.internal1.BBox()
	}

	leaf := a.internal1.ProbeLeaf(xyz)
	if leaf == nil {
		return nil
	}
	a.leaf = leaf
	a.leafBBox = leaf.BBox()
	return leaf
}
