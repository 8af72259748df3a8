package tree

import (
	"testing"

	"github.com/janelia-flyem/vxtree/coord"
)

func TestInternal1RefinesTileOnWrite(t *testing.T) {
	n := newInternalNode1[float64](coord.Coord{0, 0, 0}, 2, 2, 0, false)
	p := coord.Coord{1, 1, 1}
	if n.LeafCount() != 0 {
		t.Fatalf("expected no leaves before any write, got %d", n.LeafCount())
	}
	n.SetValueOn(p, 5)
	if n.LeafCount() != 1 {
		t.Fatalf("expected exactly one leaf after a single write, got %d", n.LeafCount())
	}
	if got := n.GetValue(p); got != 5 {
		t.Fatalf("GetValue = %v, want 5", got)
	}
}

func TestInternal1TileFillDoesNotCreateLeaves(t *testing.T) {
	n := newInternalNode1[float64](coord.Coord{0, 0, 0}, 2, 2, 0, false)
	bbox := n.BBox()
	n.Fill(bbox, 3, true)
	if n.LeafCount() != 0 {
		t.Fatalf("expected a fully-covering fill to stay a tile, leaves=%d", n.LeafCount())
	}
	if got := n.GetValue(coord.Coord{1, 1, 1}); got != 3 {
		t.Fatalf("GetValue = %v, want 3", got)
	}
}

func TestInternal1VoxelizeActiveTiles(t *testing.T) {
	n := newInternalNode1[float64](coord.Coord{0, 0, 0}, 2, 2, 0, false)
	n.Fill(n.BBox(), 4, true)
	n.VoxelizeActiveTiles()
	if n.LeafCount() == 0 {
		t.Fatal("expected VoxelizeActiveTiles to materialize leaves")
	}
	if got := n.GetValue(coord.Coord{2, 2, 2}); got != 4 {
		t.Fatalf("GetValue after voxelize = %v, want 4", got)
	}
}

func TestInternal2DelegatesToInternal1(t *testing.T) {
	shape := Shape{LeafLog2Dim: 2, Internal1Log2Dim: 2, Internal2Log2Dim: 2}
	n := newInternalNode2[float64](coord.Coord{0, 0, 0}, shape, 0, false)
	p := coord.Coord{3, 3, 3}
	n.SetValueOn(p, 11)
	if depth := n.ValueDepth(p); depth != 2 {
		t.Fatalf("ValueDepth = %d, want 2 (internal1 + leaf)", depth)
	}
	leaf := n.ProbeLeaf(p)
	if leaf == nil {
		t.Fatal("expected a leaf to exist at a written coordinate")
	}
}

func TestInternal2PruneCollapsesChildren(t *testing.T) {
	shape := Shape{LeafLog2Dim: 2, Internal1Log2Dim: 2, Internal2Log2Dim: 2}
	n := newInternalNode2[float64](coord.Coord{0, 0, 0}, shape, 0, false)
	n.Fill(n.BBox(), 6, true)
	n.VoxelizeActiveTiles()
	value, active, ok := n.Prune(0, Float64Ops())
	if !ok {
		t.Fatal("expected a uniformly-voxelized-then-pruned node to collapse")
	}
	if value != 6 || !active {
		t.Fatalf("Prune result = (%v,%v), want (6,true)", value, active)
	}
}
