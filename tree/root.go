package tree

import (
	"sort"

	"github.com/janelia-flyem/vxtree/coord"
)

// rootEntry is the value half of the root's sparse map: an origin maps to
// either a child InternalNode2 or a background-relative tile, never both.
type rootEntry[T any] struct {
	child  *InternalNode2[T]
	value  T
	active bool
}

// RootNode holds the top level of the tree: a sparse map from
// Internal2Dim-aligned origins to either a child InternalNode2 or a tile.
// Any origin absent from the map is implicitly a background tile. The map
// is unordered in Go, so operations that need a deterministic origin
// ordering (signed flood-fill's z-scan, iteration for streaming) sort the
// keys on demand rather than keeping an auxiliary ordered index; this
// trades iteration speed for a much simpler structure, acceptable because
// root-level fan-out is small relative to leaf count.
type RootNode[T any] struct {
	shape      Shape
	background T
	entries    map[coord.Coord]*rootEntry[T]
}

// NewRootNode returns an empty root with the given shape and background
// value; the background is the implicit value/active=false for every
// coordinate not covered by an entry.
func NewRootNode[T any](shape Shape, background T) *RootNode[T] {
	return &RootNode[T]{
		shape:      shape,
		background: background,
		entries:    make(map[coord.Coord]*rootEntry[T]),
	}
}

// Shape returns the tree's fixed per-level log2 dimensions.
func (r *RootNode[T]) Shape() Shape { return r.shape }

// Background returns the current background value.
func (r *RootNode[T]) Background() T { return r.background }

func (r *RootNode[T]) keyOf(xyz coord.Coord) coord.Coord {
	return xyz.ParentOrigin(r.shape.Internal2Dim())
}

// sortedKeys returns the root's entry origins in ascending (x,y,z)
// lexicographic order.
func (r *RootNode[T]) sortedKeys() []coord.Coord {
	keys := make([]coord.Coord, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// GetValue returns the value stored at xyz, or the background value if xyz
// falls outside every entry.
func (r *RootNode[T]) GetValue(xyz coord.Coord) T {
	e, ok := r.entries[r.keyOf(xyz)]
	if !ok {
		return r.background
	}
	if e.child != nil {
		return e.child.GetValue(xyz)
	}
	return e.value
}

// IsValueOn reports whether xyz is active.
func (r *RootNode[T]) IsValueOn(xyz coord.Coord) bool {
	e, ok := r.entries[r.keyOf(xyz)]
	if !ok {
		return false
	}
	if e.child != nil {
		return e.child.IsValueOn(xyz)
	}
	return e.active
}

// ProbeValue writes xyz's value into *v and returns its active state.
func (r *RootNode[T]) ProbeValue(xyz coord.Coord, v *T) bool {
	e, ok := r.entries[r.keyOf(xyz)]
	if !ok {
		*v = r.background
		return false
	}
	if e.child != nil {
		return e.child.ProbeValue(xyz, v)
	}
	*v = e.value
	return e.active
}

// ValueDepth returns the descent depth to resolve xyz: -1 if xyz is a
// background tile (no entry at all), 0 if a root-level tile, or the
// child's depth plus one otherwise.
func (r *RootNode[T]) ValueDepth(xyz coord.Coord) int {
	e, ok := r.entries[r.keyOf(xyz)]
	if !ok {
		return -1
	}
	if e.child != nil {
		return 1 + e.child.ValueDepth(xyz)
	}
	return 0
}

func (r *RootNode[T]) touch(xyz coord.Coord) *InternalNode2[T] {
	key := r.keyOf(xyz)
	e, ok := r.entries[key]
	if !ok {
		e = &rootEntry[T]{value: r.background, active: false}
		r.entries[key] = e
	}
	if e.child == nil {
		e.child = newInternalNode2[T](key, r.shape, e.value, e.active)
	}
	return e.child
}

// SetValueOn sets xyz active with value v, creating intermediate nodes as
// needed.
func (r *RootNode[T]) SetValueOn(xyz coord.Coord, v T) {
	r.touch(xyz).SetValueOn(xyz, v)
}

// SetValueOff sets xyz's value and marks it inactive.
func (r *RootNode[T]) SetValueOff(xyz coord.Coord, v T) {
	r.touch(xyz).SetValueOff(xyz, v)
}

// SetValueOnly overwrites xyz's value while preserving its active state.
func (r *RootNode[T]) SetValueOnly(xyz coord.Coord, v T) {
	r.touch(xyz).SetValueOnly(xyz, v)
}

// SetActiveState sets xyz's active bit without touching its value.
func (r *RootNode[T]) SetActiveState(xyz coord.Coord, on bool) {
	key := r.keyOf(xyz)
	e, ok := r.entries[key]
	if !ok {
		if !on {
			return
		}
		e = &rootEntry[T]{value: r.background, active: false}
		r.entries[key] = e
	}
	if e.child != nil {
		e.child.SetActiveState(xyz, on)
		return
	}
	if on == e.active {
		return
	}
	r.touch(xyz).SetActiveState(xyz, on)
}

// SetValueOnMin sets xyz active to the lesser of its current value and v
// under ops.Less.
func (r *RootNode[T]) SetValueOnMin(xyz coord.Coord, v T, ops Ops[T]) {
	r.touch(xyz).applyCombine(xyz, v, ops, ops.Min)
}

// SetValueOnMax sets xyz active to the greater of its current value and v
// under ops.Less.
func (r *RootNode[T]) SetValueOnMax(xyz coord.Coord, v T, ops Ops[T]) {
	r.touch(xyz).applyCombine(xyz, v, ops, ops.Max)
}

// SetValueOnSum sets xyz active to the sum of its current value and v.
func (r *RootNode[T]) SetValueOnSum(xyz coord.Coord, v T, ops Ops[T]) {
	r.touch(xyz).applyCombine(xyz, v, ops, ops.Add)
}

// TouchLeaf ensures a leaf exists at xyz and returns it.
func (r *RootNode[T]) TouchLeaf(xyz coord.Coord) *LeafNode[T] {
	return r.touch(xyz).TouchLeaf(xyz)
}

// ProbeLeaf returns the leaf at xyz, or nil if that region is a tile at any
// level.
func (r *RootNode[T]) ProbeLeaf(xyz coord.Coord) *LeafNode[T] {
	e, ok := r.entries[r.keyOf(xyz)]
	if !ok || e.child == nil {
		return nil
	}
	return e.child.ProbeLeaf(xyz)
}

// ProbeConstLeaf is ProbeLeaf's read-only-caller twin: Go has no
// const-qualified pointers, so it exists to name the same non-mutating
// descent the original library exposes as a separate, const-overloaded
// entry point.
func (r *RootNode[T]) ProbeConstLeaf(xyz coord.Coord) *LeafNode[T] {
	return r.ProbeLeaf(xyz)
}

// Fill assigns every voxel in bbox to (value, active), creating and
// refining nodes as needed and collapsing fully-covered subtrees to tiles.
func (r *RootNode[T]) Fill(bbox coord.BBox, value T, active bool) {
	if bbox.Empty() {
		return
	}
	dim := r.shape.Internal2Dim()
	minKey := bbox.Min.ParentOrigin(dim)
	maxKey := bbox.Max.ParentOrigin(dim)

	for x := minKey[0]; x <= maxKey[0]; x += dim {
		for y := minKey[1]; y <= maxKey[1]; y += dim {
			for z := minKey[2]; z <= maxKey[2]; z += dim {
				key := coord.New(x, y, z)
				nodeBBox := coord.NodeBBox(key, dim)
				if bbox.ContainsBBox(nodeBBox) {
					r.entries[key] = &rootEntry[T]{value: value, active: active}
					continue
				}
				e, ok := r.entries[key]
				if !ok {
					e = &rootEntry[T]{value: r.background, active: false}
					r.entries[key] = e
				}
				if e.child == nil {
					e.child = newInternalNode2[T](key, r.shape, e.value, e.active)
				}
				e.child.Fill(bbox, value, active)
			}
		}
	}
}

// EraseBackgroundTiles removes every root entry that is a tile exactly
// equal to the background value and inactive, shrinking the map back to
// its minimal representation.
func (r *RootNode[T]) EraseBackgroundTiles(ops Ops[T]) {
	for key, e := range r.entries {
		if e.child == nil && !e.active && ops.Equal(e.value, r.background) {
			delete(r.entries, key)
		}
	}
}

// Prune recursively prunes every child subtree, collapsing any that reduce
// to a single uniform (value, active) pair into a root-level tile, then
// erases tiles equal to background.
func (r *RootNode[T]) Prune(tolerance T, ops Ops[T]) {
	for _, e := range r.entries {
		if e.child == nil {
			continue
		}
		if v, a, collapse := e.child.Prune(tolerance, ops); collapse {
			e.child = nil
			e.value = v
			e.active = a
		}
	}
	r.EraseBackgroundTiles(ops)
}

// PruneInactive prunes with zero tolerance, then deletes every inactive
// root-level tile regardless of its value. A child subtree whose voxels are
// all inactive but do not share one value is not collapsed by that prune
// and stays in place.
func (r *RootNode[T]) PruneInactive(ops Ops[T]) {
	zeroTol := ops.Zero
	r.Prune(zeroTol, ops)
	for key, e := range r.entries {
		if e.child == nil && !e.active {
			delete(r.entries, key)
		}
	}
}

// SetBackground replaces the background value. If updateChildren is true,
// every inactive root-level tile exactly equal to the old background is
// rewritten to the new one. Tiles and voxels inside child subtrees keep
// their stored values, values equal to the negated old background are not
// rewritten, and active entries are never touched.
func (r *RootNode[T]) SetBackground(newBackground T, updateChildren bool, ops Ops[T]) {
	old := r.background
	r.background = newBackground
	if !updateChildren {
		return
	}
	for _, e := range r.entries {
		if e.child != nil {
			continue
		}
		if !e.active && ops.Equal(e.value, old) {
			e.value = newBackground
		}
	}
}

// PruneLevelSet descends into every child subtree, collapsing any leaf
// whose voxels are all inactive and share a common value sign into an
// inactive ±background tile. Root-level entries themselves are tiles or
// whole subtrees, never leaves, so this never touches the root map
// directly; it only ever reaches down into leaves below it.
func (r *RootNode[T]) PruneLevelSet(ops Ops[T]) {
	for _, e := range r.entries {
		if e.child != nil {
			e.child.PruneLevelSet(r.background, ops)
		}
	}
}

// VoxelizeActiveTiles descends into every child, replacing active tiles
// with explicit leaves all the way down.
func (r *RootNode[T]) VoxelizeActiveTiles() {
	for _, e := range r.entries {
		if e.child != nil {
			e.child.VoxelizeActiveTiles()
		}
	}
}

// ActiveVoxelCount sums active voxels across the whole tree, counting root
// tiles at the upper internal node's voxel extent.
func (r *RootNode[T]) ActiveVoxelCount() int64 {
	var total int64
	dim := int64(r.shape.Internal2Dim())
	tileVoxels := dim * dim * dim
	for _, e := range r.entries {
		if e.child != nil {
			total += e.child.ActiveVoxelCount()
		} else if e.active {
			total += tileVoxels
		}
	}
	return total
}

// LeafCount returns the number of leaves reachable from the root.
func (r *RootNode[T]) LeafCount() int {
	total := 0
	for _, e := range r.entries {
		if e.child != nil {
			total += e.child.LeafCount()
		}
	}
	return total
}

// NodeCount returns the number of nodes at each of the four levels:
// [roots, internal2, internal1, leaves].
func (r *RootNode[T]) NodeCount() [4]int {
	var counts [4]int
	counts[0] = len(r.entries)
	for _, e := range r.entries {
		if e.child == nil {
			continue
		}
		counts[1]++
		i1, leaves := e.child.NodeCount()
		counts[2] += i1
		counts[3] += leaves
	}
	return counts
}

// ActiveBoundingBox returns the tightest box enclosing every active voxel
// or active tile in the tree, plus false if the tree has no active
// content at all. Walking regions rather than individual voxels means an
// active tile at any level (root, internal2 or internal1) contributes its
// whole footprint without needing to be voxelized first.
func (r *RootNode[T]) ActiveBoundingBox() (coord.BBox, bool) {
	var bbox coord.BBox
	found := false
	r.ForEachRegion(func(region coord.BBox, _ T, active bool) {
		if !active {
			return
		}
		if !found {
			bbox = region
			found = true
		} else {
			bbox = bbox.Union(region)
		}
	})
	return bbox, found
}

// HasActiveTiles reports whether any root, internal2 or internal1 entry is
// an active tile rather than a voxel-level leaf value.
func (r *RootNode[T]) HasActiveTiles() bool {
	for _, e := range r.entries {
		if e.child == nil {
			if e.active {
				return true
			}
			continue
		}
		if e.child.hasActiveTiles() {
			return true
		}
	}
	return false
}

// ForEachLeaf invokes fn for every leaf in the tree, in ascending root-key
// order (then slot order within each child), giving LeafManager a
// deterministic snapshot order.
func (r *RootNode[T]) ForEachLeaf(fn func(*LeafNode[T])) {
	for _, key := range r.sortedKeys() {
		e := r.entries[key]
		if e.child != nil {
			e.child.ForEachLeaf(fn)
		}
	}
}

// Clear removes every entry, leaving only the background value.
func (r *RootNode[T]) Clear() {
	r.entries = make(map[coord.Coord]*rootEntry[T])
}
