package tree

import (
	"testing"

	"github.com/janelia-flyem/vxtree/coord"
)

func smallShape() Shape {
	return Shape{LeafLog2Dim: 2, Internal1Log2Dim: 2, Internal2Log2Dim: 2}
}

func TestSetGetRoundTrip(t *testing.T) {
	tr := New[float64](smallShape(), 0, Float64Ops())
	pts := []coord.Coord{
		{0, 0, 0}, {1, 2, 3}, {-5, 10, -10}, {100, -100, 50},
	}
	for i, p := range pts {
		tr.SetValueOn(p, float64(i+1))
	}
	for i, p := range pts {
		if got := tr.GetValue(p); got != float64(i+1) {
			t.Fatalf("GetValue(%v) = %v, want %v", p, got, i+1)
		}
		if !tr.IsValueOn(p) {
			t.Fatalf("IsValueOn(%v) = false, want true", p)
		}
	}
	if v := tr.GetValue(coord.Coord{9999, 9999, 9999}); v != 0 {
		t.Fatalf("background read = %v, want 0", v)
	}
}

func TestSetValueOffLeavesValueButInactive(t *testing.T) {
	tr := New[float64](smallShape(), 0, Float64Ops())
	p := coord.Coord{5, 5, 5}
	tr.SetValueOff(p, 3.14)
	if tr.IsValueOn(p) {
		t.Fatal("expected voxel to be inactive")
	}
	if got := tr.GetValue(p); got != 3.14 {
		t.Fatalf("GetValue = %v, want 3.14", got)
	}
}

func TestFillCollapsesToTileWhenFullyCovered(t *testing.T) {
	tr := New[float64](smallShape(), 0, Float64Ops())
	dim := tr.Shape().Internal2Dim()
	bbox := coord.NodeBBox(coord.Coord{0, 0, 0}, dim)
	tr.Fill(bbox, 7, true)

	counts := tr.NodeCount()
	if counts[1] != 0 {
		t.Fatalf("expected no internal2 child after full-coverage fill, got %d", counts[1])
	}
	if got := tr.GetValue(coord.Coord{dim / 2, dim / 2, dim / 2}); got != 7 {
		t.Fatalf("GetValue inside filled tile = %v, want 7", got)
	}
	if want := int64(dim) * int64(dim) * int64(dim); tr.ActiveVoxelCount() != want {
		t.Fatalf("ActiveVoxelCount = %d, want %d", tr.ActiveVoxelCount(), want)
	}
}

func TestPartialFillCreatesLeaves(t *testing.T) {
	tr := New[float64](smallShape(), 0, Float64Ops())
	bbox := coord.NewBBox(coord.Coord{0, 0, 0}, coord.Coord{1, 1, 1})
	tr.Fill(bbox, 2, true)
	if tr.LeafCount() == 0 {
		t.Fatal("expected a partial fill to materialize at least one leaf")
	}
	if got := tr.GetValue(coord.Coord{0, 0, 0}); got != 2 {
		t.Fatalf("GetValue = %v, want 2", got)
	}
	if tr.IsValueOn(coord.Coord{100, 100, 100}) {
		t.Fatal("expected untouched voxel to remain inactive")
	}
}

func TestPruneCollapsesUniformSubtree(t *testing.T) {
	tr := New[float64](smallShape(), 0, Float64Ops())
	dim := tr.Shape().Internal1Dim()
	bbox := coord.NodeBBox(coord.Coord{0, 0, 0}, dim)
	// Touch voxels individually, then give every voxel the same value. Fill
	// collapses the fully covered node to a tile, so voxelize it back into
	// leaves before pruning.
	for x := int32(0); x < dim; x++ {
		tr.SetValueOn(coord.Coord{x, 0, 0}, 9)
	}
	tr.Fill(bbox, 9, true)
	tr.VoxelizeActiveTiles()
	tr.Prune(0)
	if tr.LeafCount() != 0 {
		t.Fatalf("expected prune to collapse uniform region, leaves=%d", tr.LeafCount())
	}
}

func TestNodeCountAndLeafCount(t *testing.T) {
	tr := New[float64](smallShape(), 0, Float64Ops())
	tr.SetValueOn(coord.Coord{0, 0, 0}, 1)
	tr.SetValueOn(coord.Coord{1000, 1000, 1000}, 2)
	counts := tr.NodeCount()
	if counts[3] != tr.LeafCount() {
		t.Fatalf("NodeCount leaves=%d != LeafCount()=%d", counts[3], tr.LeafCount())
	}
	if counts[3] < 2 {
		t.Fatalf("expected at least 2 distinct leaves, got %d", counts[3])
	}
}

func TestActiveBoundingBox(t *testing.T) {
	tr := New[float64](smallShape(), 0, Float64Ops())
	if _, ok := tr.ActiveBoundingBox(); ok {
		t.Fatal("expected no active bounding box on empty tree")
	}
	tr.SetValueOn(coord.Coord{2, 3, 4}, 1)
	tr.SetValueOn(coord.Coord{-2, 10, 1}, 1)
	bbox, ok := tr.ActiveBoundingBox()
	if !ok {
		t.Fatal("expected an active bounding box")
	}
	if !bbox.Contains(coord.Coord{2, 3, 4}) || !bbox.Contains(coord.Coord{-2, 10, 1}) {
		t.Fatalf("bbox %v does not contain both active voxels", bbox)
	}
}

func TestSetValueOnMinMaxSum(t *testing.T) {
	tr := New[float64](smallShape(), 0, Float64Ops())
	p := coord.Coord{1, 1, 1}
	tr.SetValueOn(p, 5)
	tr.SetValueOnMin(p, 3)
	if got := tr.GetValue(p); got != 3 {
		t.Fatalf("after Min(5,3): got %v, want 3", got)
	}
	tr.SetValueOnMax(p, 10)
	if got := tr.GetValue(p); got != 10 {
		t.Fatalf("after Max(3,10): got %v, want 10", got)
	}
	tr.SetValueOnSum(p, 1)
	if got := tr.GetValue(p); got != 11 {
		t.Fatalf("after Sum(10,1): got %v, want 11", got)
	}
}

func TestSetBackgroundUpdatesUntouchedRegion(t *testing.T) {
	tr := New[float64](smallShape(), 0, Float64Ops())
	tr.SetValueOff(coord.Coord{0, 0, 0}, 0)
	tr.SetBackground(-1, true)
	if got := tr.Background(); got != -1 {
		t.Fatalf("Background() = %v, want -1", got)
	}
	if got := tr.GetValue(coord.Coord{5000, 5000, 5000}); got != -1 {
		t.Fatalf("untouched region = %v, want new background -1", got)
	}
}
