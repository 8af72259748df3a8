package tree

import (
	"context"
	"sync"

	"github.com/janelia-flyem/vxtree/coord"
)

// Neighbor selects which voxels count as adjacent to a given voxel for
// Dilate and Erode, mirroring the three connectivity levels a cube has:
// sharing a face, sharing a face or edge, or sharing a face, edge or
// vertex.
type Neighbor int

const (
	NeighborFace Neighbor = iota
	NeighborFaceEdge
	NeighborFaceEdgeVertex
)

var faceOffsets = [][3]int32{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

var edgeOffsets = [][3]int32{
	{1, 1, 0}, {1, -1, 0}, {-1, 1, 0}, {-1, -1, 0},
	{1, 0, 1}, {1, 0, -1}, {-1, 0, 1}, {-1, 0, -1},
	{0, 1, 1}, {0, 1, -1}, {0, -1, 1}, {0, -1, -1},
}

var vertexOffsets = [][3]int32{
	{1, 1, 1}, {1, 1, -1}, {1, -1, 1}, {1, -1, -1},
	{-1, 1, 1}, {-1, 1, -1}, {-1, -1, 1}, {-1, -1, -1},
}

func (n Neighbor) offsets() [][3]int32 {
	switch n {
	case NeighborFace:
		return faceOffsets
	case NeighborFaceEdge:
		offs := make([][3]int32, 0, len(faceOffsets)+len(edgeOffsets))
		offs = append(offs, faceOffsets...)
		offs = append(offs, edgeOffsets...)
		return offs
	default:
		offs := make([][3]int32, 0, len(faceOffsets)+len(edgeOffsets)+len(vertexOffsets))
		offs = append(offs, faceOffsets...)
		offs = append(offs, edgeOffsets...)
		offs = append(offs, vertexOffsets...)
		return offs
	}
}

type activation[T any] struct {
	xyz   coord.Coord
	value T
}

// Dilate grows the tree's active region by iterations voxels under the
// given connectivity. Each iteration is computed against a fixed snapshot
// of the active topology taken at the start of that iteration: a voxel
// activated partway through an iteration never itself becomes a source
// for further activation within the same iteration, matching the
// breadth-first growth a single morphological dilation step implies. A
// newly activated voxel inherits the value of whichever already-active
// neighbor caused its activation (ties broken by neighbor scan order).
func Dilate[T any](t *Tree[T], iterations int, conn Neighbor) {
	offsets := conn.offsets()
	for iter := 0; iter < iterations; iter++ {
		lm := NewLeafManager(t)
		var toActivate []activation[T]
		seen := make(map[coord.Coord]bool)
		for i := 0; i < lm.LeafCount(); i++ {
			leaf := lm.Leaf(i)
			for v := 0; v < leaf.NumVoxels(); v++ {
				if !leaf.IsValueOn(v) {
					continue
				}
				origin := leaf.voxelCoord(v)
				value := leaf.Value(v)
				for _, off := range offsets {
					n := coord.Coord{origin[0] + off[0], origin[1] + off[1], origin[2] + off[2]}
					if seen[n] || t.IsValueOn(n) {
						continue
					}
					seen[n] = true
					toActivate = append(toActivate, activation[T]{n, value})
				}
			}
		}
		for _, a := range toActivate {
			t.SetValueOn(a.xyz, a.value)
		}
	}
}

// DilateParallel behaves like Dilate but computes each iteration's
// candidate set concurrently across leaves, one goroutine per leaf via
// LeafManager.ParallelFor. The collection phase only reads the tree, so
// it is safe to run concurrently; activation is applied sequentially
// afterward.
func DilateParallel[T any](ctx context.Context, t *Tree[T], iterations int, conn Neighbor) error {
	offsets := conn.offsets()
	for iter := 0; iter < iterations; iter++ {
		lm := NewLeafManager(t)
		var mu sync.Mutex
		seen := make(map[coord.Coord]bool)
		var toActivate []activation[T]

		err := lm.ParallelFor(ctx, func(_ context.Context, leafIndex int) error {
			leaf := lm.Leaf(leafIndex)
			var local []activation[T]
			for v := 0; v < leaf.NumVoxels(); v++ {
				if !leaf.IsValueOn(v) {
					continue
				}
				origin := leaf.voxelCoord(v)
				value := leaf.Value(v)
				for _, off := range offsets {
					n := coord.Coord{origin[0] + off[0], origin[1] + off[1], origin[2] + off[2]}
					if t.IsValueOn(n) {
						continue
					}
					local = append(local, activation[T]{n, value})
				}
			}
			if len(local) == 0 {
				return nil
			}
			mu.Lock()
			for _, a := range local {
				if !seen[a.xyz] {
					seen[a.xyz] = true
					toActivate = append(toActivate, a)
				}
			}
			mu.Unlock()
			return nil
		})
		if err != nil {
			return err
		}
		for _, a := range toActivate {
			t.SetValueOn(a.xyz, a.value)
		}
	}
	return nil
}

// neighborActive reports whether xyz is active without ever refining a tile
// into a leaf just to answer the question: it probes for a resident leaf
// first (a read-only descent) and only falls back to the tile-aware
// IsValueOn when no leaf is resident there.
func neighborActive[T any](t *Tree[T], xyz coord.Coord) bool {
	if leaf := t.ProbeConstLeaf(xyz); leaf != nil {
		return leaf.IsValueOnAt(xyz)
	}
	return t.IsValueOn(xyz)
}

// Erode shrinks the tree's active region by iterations voxels under the
// given connectivity: a voxel is deactivated if any neighbor under conn is
// inactive in the snapshot taken at the start of the current iteration.
// Deactivated voxels keep their stored value; only the active bit changes.
// After each iteration, PruneLevelSet collapses any leaf left wholly
// inactive with a uniform value sign back into a signed background tile.
func Erode[T any](t *Tree[T], iterations int, conn Neighbor) {
	offsets := conn.offsets()
	for iter := 0; iter < iterations; iter++ {
		lm := NewLeafManager(t)
		var toDeactivate []coord.Coord
		for i := 0; i < lm.LeafCount(); i++ {
			leaf := lm.Leaf(i)
			for v := 0; v < leaf.NumVoxels(); v++ {
				if !leaf.IsValueOn(v) {
					continue
				}
				origin := leaf.voxelCoord(v)
				for _, off := range offsets {
					n := coord.Coord{origin[0] + off[0], origin[1] + off[1], origin[2] + off[2]}
					if !neighborActive(t, n) {
						toDeactivate = append(toDeactivate, origin)
						break
					}
				}
			}
		}
		for _, xyz := range toDeactivate {
			t.SetValueOff(xyz, t.GetValue(xyz))
		}
		t.PruneLevelSet()
	}
}
