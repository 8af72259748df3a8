package tree

import (
	"github.com/DmitriyVTitov/size"

	"github.com/janelia-flyem/vxtree/coord"
)

// Tree is the top-level handle applications hold: a fixed Shape, a
// background value, and a RootNode. It exposes the full read/write/
// maintenance surface; ValueAccessor and LeafManager wrap a Tree to add
// caching and bulk leaf traversal respectively.
type Tree[T any] struct {
	shape Shape
	root  *RootNode[T]
	ops   Ops[T]

	// generation counts structural mutations (any call that can create,
	// delete, or refine a node anywhere in the tree). ValueAccessor
	// stamps its cache with the generation in effect when it last
	// descended; a mismatch means some write — through this Tree, another
	// accessor, or a direct root/node call — may have detached the
	// accessor's cached path, so it must re-descend from the root.
	generation uint64
}

// New returns an empty tree with the given shape, background value and
// value-type operations.
func New[T any](shape Shape, background T, ops Ops[T]) *Tree[T] {
	return &Tree[T]{
		shape: shape,
		root:  NewRootNode[T](shape, background),
		ops:   ops,
	}
}

// Generation returns the tree's current mutation counter, used by
// ValueAccessor to detect that its cached descent path may be stale.
func (t *Tree[T]) Generation() uint64 { return t.generation }

func (t *Tree[T]) bumpGeneration() { t.generation++ }

// Shape returns the tree's fixed per-level log2 dimensions.
func (t *Tree[T]) Shape() Shape { return t.shape }

// Ops returns the value-type operations this tree was constructed with.
func (t *Tree[T]) Ops() Ops[T] { return t.ops }

// Background returns the tree's background value.
func (t *Tree[T]) Background() T { return t.root.Background() }

// Root returns the tree's root node for callers that need direct access
// (ValueAccessor, LeafManager, combiners).
func (t *Tree[T]) Root() *RootNode[T] { return t.root }

// GetValue returns the value at xyz, or the background value if unset.
func (t *Tree[T]) GetValue(xyz coord.Coord) T { return t.root.GetValue(xyz) }

// IsValueOn reports whether xyz is active.
func (t *Tree[T]) IsValueOn(xyz coord.Coord) bool { return t.root.IsValueOn(xyz) }

// ProbeValue writes xyz's value into *v and returns its active state.
func (t *Tree[T]) ProbeValue(xyz coord.Coord, v *T) bool { return t.root.ProbeValue(xyz, v) }

// ValueDepth returns the descent depth needed to resolve xyz: -1 for a
// background voxel, 0..3 otherwise.
func (t *Tree[T]) ValueDepth(xyz coord.Coord) int { return t.root.ValueDepth(xyz) }

// SetValueOn sets xyz active with value v.
func (t *Tree[T]) SetValueOn(xyz coord.Coord, v T) {
	t.bumpGeneration()
	t.root.SetValueOn(xyz, v)
}

// SetValueOff sets xyz's value and marks it inactive.
func (t *Tree[T]) SetValueOff(xyz coord.Coord, v T) {
	t.bumpGeneration()
	t.root.SetValueOff(xyz, v)
}

// SetValueOnly overwrites xyz's value while preserving its active state.
func (t *Tree[T]) SetValueOnly(xyz coord.Coord, v T) {
	t.bumpGeneration()
	t.root.SetValueOnly(xyz, v)
}

// SetActiveState sets xyz's active bit without touching its value.
func (t *Tree[T]) SetActiveState(xyz coord.Coord, on bool) {
	t.bumpGeneration()
	t.root.SetActiveState(xyz, on)
}

// SetValueOnMin sets xyz active to the lesser of its current value and v.
func (t *Tree[T]) SetValueOnMin(xyz coord.Coord, v T) {
	t.bumpGeneration()
	t.root.SetValueOnMin(xyz, v, t.ops)
}

// SetValueOnMax sets xyz active to the greater of its current value and v.
func (t *Tree[T]) SetValueOnMax(xyz coord.Coord, v T) {
	t.bumpGeneration()
	t.root.SetValueOnMax(xyz, v, t.ops)
}

// SetValueOnSum sets xyz active to the sum of its current value and v.
func (t *Tree[T]) SetValueOnSum(xyz coord.Coord, v T) {
	t.bumpGeneration()
	t.root.SetValueOnSum(xyz, v, t.ops)
}

// Fill assigns every voxel in bbox to (value, active).
func (t *Tree[T]) Fill(bbox coord.BBox, value T, active bool) {
	t.bumpGeneration()
	t.root.Fill(bbox, value, active)
}

// TouchLeaf ensures a leaf exists at xyz and returns it.
func (t *Tree[T]) TouchLeaf(xyz coord.Coord) *LeafNode[T] {
	t.bumpGeneration()
	return t.root.TouchLeaf(xyz)
}

// ProbeLeaf returns the leaf at xyz, or nil if xyz is covered by a tile.
func (t *Tree[T]) ProbeLeaf(xyz coord.Coord) *LeafNode[T] { return t.root.ProbeLeaf(xyz) }

// ProbeConstLeaf is ProbeLeaf's read-only-caller twin: Go has no
// const-qualified pointers, so it exists to name the same non-mutating
// descent the original library exposes as a separate, const-overloaded
// entry point. Morphology uses it for neighbor-leaf lookups it must never
// refine into existence.
func (t *Tree[T]) ProbeConstLeaf(xyz coord.Coord) *LeafNode[T] { return t.root.ProbeConstLeaf(xyz) }

// Prune collapses uniform subtrees to tiles within tolerance and erases
// background-equal tiles.
func (t *Tree[T]) Prune(tolerance T) {
	t.bumpGeneration()
	t.root.Prune(tolerance, t.ops)
}

// PruneInactive prunes with zero tolerance and removes every inactive
// root-level tile; see RootNode.PruneInactive.
func (t *Tree[T]) PruneInactive() {
	t.bumpGeneration()
	t.root.PruneInactive(t.ops)
}

// EraseBackgroundTiles removes root tiles exactly equal to the background.
func (t *Tree[T]) EraseBackgroundTiles() {
	t.bumpGeneration()
	t.root.EraseBackgroundTiles(t.ops)
}

// PruneLevelSet collapses any leaf whose voxels are all inactive and share
// a common value sign into an inactive ±background tile, preserving sign.
func (t *Tree[T]) PruneLevelSet() {
	t.bumpGeneration()
	t.root.PruneLevelSet(t.ops)
}

// SetBackground replaces the background value, optionally rewriting
// inactive root-level tiles currently equal to the old one; see
// RootNode.SetBackground.
func (t *Tree[T]) SetBackground(newBackground T, updateChildren bool) {
	t.bumpGeneration()
	t.root.SetBackground(newBackground, updateChildren, t.ops)
}

// VoxelizeActiveTiles replaces every active tile, at any level, with
// explicit leaves.
func (t *Tree[T]) VoxelizeActiveTiles() {
	t.bumpGeneration()
	t.root.VoxelizeActiveTiles()
}

// Clear empties the tree back to an all-background state.
func (t *Tree[T]) Clear() {
	t.bumpGeneration()
	t.root.Clear()
}

// ActiveVoxelCount returns the total number of active voxels in the tree.
func (t *Tree[T]) ActiveVoxelCount() int64 { return t.root.ActiveVoxelCount() }

// LeafCount returns the number of leaves in the tree.
func (t *Tree[T]) LeafCount() int { return t.root.LeafCount() }

// NodeCount returns node counts per level: [roots, internal2, internal1,
// leaves].
func (t *Tree[T]) NodeCount() [4]int { return t.root.NodeCount() }

// ActiveBoundingBox returns the tightest box enclosing every active voxel,
// and false if the tree has no active voxels.
func (t *Tree[T]) ActiveBoundingBox() (coord.BBox, bool) { return t.root.ActiveBoundingBox() }

// HasActiveTiles reports whether any tile above the leaf level is active.
func (t *Tree[T]) HasActiveTiles() bool { return t.root.HasActiveTiles() }

// ForEachLeaf invokes fn for every leaf in ascending root-key order.
func (t *Tree[T]) ForEachLeaf(fn func(*LeafNode[T])) { t.root.ForEachLeaf(fn) }

// MemoryUsage estimates the tree's resident memory footprint in bytes via
// deep reflective sizing, useful for reporting and capacity planning
// without plumbing an exact accounting scheme through every node type.
func (t *Tree[T]) MemoryUsage() int {
	return size.Of(t.root)
}
