package tree

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// LeafManager snapshots a tree's leaves into a flat slice and optionally
// pairs each with a shadow ("auxiliary") buffer, giving algorithms like
// Morphology a stable, randomly-indexable, parallelizable
// view over otherwise scattered leaf pointers. The snapshot is a point-in-
// time copy of leaf pointers, not values: mutations through the leaves
// remain visible, but structural changes to the tree (leaves added or
// removed) are not reflected until RebuildLeafArray runs again.
type LeafManager[T any] struct {
	tree   *Tree[T]
	leaves []*LeafNode[T]
	aux    [][]T
}

// NewLeafManager builds a LeafManager by snapshotting every leaf currently
// in tree, in ascending root-key / slot order.
func NewLeafManager[T any](tree *Tree[T]) *LeafManager[T] {
	lm := &LeafManager[T]{tree: tree}
	lm.RebuildLeafArray()
	return lm
}

// RebuildLeafArray re-snapshots the leaf slice from the tree's current
// topology, discarding any auxiliary buffers (their size no longer matches
// the new leaf count in general).
func (lm *LeafManager[T]) RebuildLeafArray() {
	lm.leaves = lm.leaves[:0]
	lm.tree.ForEachLeaf(func(leaf *LeafNode[T]) {
		lm.leaves = append(lm.leaves, leaf)
	})
	lm.aux = nil
}

// LeafCount returns the number of leaves in the snapshot.
func (lm *LeafManager[T]) LeafCount() int { return len(lm.leaves) }

// Leaf returns the i'th leaf in snapshot order.
func (lm *LeafManager[T]) Leaf(i int) *LeafNode[T] { return lm.leaves[i] }

// RebuildAuxBuffers allocates n shadow buffers, each a flat copy of every
// leaf's current voxel values concatenated in snapshot order, indexed
// [bufferIndex][leafVoxelOffset].
func (lm *LeafManager[T]) RebuildAuxBuffers(n int) {
	total := 0
	for _, leaf := range lm.leaves {
		total += leaf.NumVoxels()
	}
	lm.aux = make([][]T, n)
	for b := 0; b < n; b++ {
		buf := make([]T, 0, total)
		for _, leaf := range lm.leaves {
			for i := 0; i < leaf.NumVoxels(); i++ {
				buf = append(buf, leaf.Value(i))
			}
		}
		lm.aux[b] = buf
	}
}

// SyncAuxBuffer copies shadow buffer b's values back into their owning
// leaves, leaving active-state masks untouched.
func (lm *LeafManager[T]) SyncAuxBuffer(b int) {
	buf := lm.aux[b]
	offset := 0
	for _, leaf := range lm.leaves {
		n := leaf.NumVoxels()
		for i := 0; i < n; i++ {
			leaf.SetValueOnly(i, buf[offset+i])
		}
		offset += n
	}
}

// SyncAllBuffers calls SyncAuxBuffer for every shadow buffer in order.
func (lm *LeafManager[T]) SyncAllBuffers() {
	for b := range lm.aux {
		lm.SyncAuxBuffer(b)
	}
}

// GetBuffer returns the value at voxel offset voxelIndex within leaf
// leafIndex's live buffer if bufferIndex is negative, or within shadow
// buffer bufferIndex otherwise — letting a caller read either the tree's
// current values or one of the snapshotted shadow copies through a single
// indexing scheme.
func (lm *LeafManager[T]) GetBuffer(leafIndex, bufferIndex, voxelIndex int) T {
	if bufferIndex < 0 {
		return lm.leaves[leafIndex].Value(voxelIndex)
	}
	return lm.aux[bufferIndex][lm.auxOffset(leafIndex)+voxelIndex]
}

// SwapLeafBuffer exchanges shadow buffer b's contents with the live voxel
// values of every leaf in the snapshot, leaf by leaf.
func (lm *LeafManager[T]) SwapLeafBuffer(b int) {
	for i, leaf := range lm.leaves {
		n := leaf.NumVoxels()
		offset := lm.auxOffset(i)
		for v := 0; v < n; v++ {
			old := leaf.Value(v)
			leaf.SetValueOnly(v, lm.aux[b][offset+v])
			lm.aux[b][offset+v] = old
		}
	}
}

func (lm *LeafManager[T]) auxOffset(i int) int {
	offset := 0
	for j := 0; j < i; j++ {
		offset += lm.leaves[j].NumVoxels()
	}
	return offset
}

// ParallelFor invokes fn(leafIndex) once per leaf, fanning out across an
// errgroup-managed worker pool. It blocks until every call returns, and
// propagates the first non-nil error after cancelling outstanding work via
// the group's derived context.
func (lm *LeafManager[T]) ParallelFor(ctx context.Context, fn func(ctx context.Context, leafIndex int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range lm.leaves {
		i := i
		g.Go(func() error {
			return fn(gctx, i)
		})
	}
	return g.Wait()
}
