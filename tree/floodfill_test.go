package tree

import (
	"testing"

	"github.com/janelia-flyem/vxtree/coord"
)

func TestSignedFloodFillFillsSignedGapWithinInternalNode(t *testing.T) {
	shape := Shape{LeafLog2Dim: 2, Internal1Log2Dim: 2, Internal2Log2Dim: 2}
	tr := New[float64](shape, 3, Float64Ops())

	// Two leaf children land in the same Internal1 row, three slots apart:
	// the left leaf's last voxel (its far corner, local (3,3,3)) and the
	// right leaf's first voxel (its origin) are the exact positions the
	// boundary test consults, so setting only those two voxels negative is
	// enough to qualify the gap between them.
	tr.SetValueOn(coord.Coord{3, 3, 3}, -1)
	tr.SetValueOn(coord.Coord{0, 0, 12}, -1)

	tr.SignedFloodFill(3, -3)

	for z := int32(4); z < 12; z++ {
		gap := coord.Coord{0, 0, z}
		if got := tr.GetValue(gap); got != -3 {
			t.Fatalf("value inside signed gap at z=%d = %v, want -3 (inside)", z, got)
		}
		if tr.IsValueOn(gap) {
			t.Fatalf("flood-filled gap tile at z=%d must stay inactive", z)
		}
	}
	if got := tr.GetValue(coord.Coord{3, 3, 3}); got != -1 {
		t.Fatalf("explicitly set boundary voxel must be untouched, got %v", got)
	}
	if tr.Background() != 3 {
		t.Fatalf("background after flood fill = %v, want outside value 3", tr.Background())
	}
}

func TestSignedFloodFillLeavesUnboundedRunsUntouched(t *testing.T) {
	shape := Shape{LeafLog2Dim: 2, Internal1Log2Dim: 2, Internal2Log2Dim: 2}
	tr := New[float64](shape, 3, Float64Ops())

	// A single child slot has no partner to pair with in the row scan, so
	// the background on either side of it must be left exactly as it was.
	tr.SetValueOn(coord.Coord{0, 0, 4}, -1)

	tr.SignedFloodFill(3, -3)

	if got := tr.GetValue(coord.Coord{0, 0, 0}); got != 3 {
		t.Fatalf("unbounded run before the only crossing = %v, want unchanged background 3", got)
	}
	if got := tr.GetValue(coord.Coord{0, 0, 12}); got != 3 {
		t.Fatalf("unbounded run after the only crossing = %v, want unchanged background 3", got)
	}
}

func TestSignedFloodFillFillsBackgroundGapBetweenRootEntries(t *testing.T) {
	shape := Shape{LeafLog2Dim: 2, Internal1Log2Dim: 2, Internal2Log2Dim: 2}
	tr := New[float64](shape, 3, Float64Ops())
	dim := tr.Shape().Internal2Dim()

	// Two root-level child entries, three root-entry widths apart along z.
	// Each is touched only at the corner nearest the gap — the maximal
	// corner of a whose coordinate descent always lands on the last slot at
	// every level, and the minimal corner of b which always lands on the
	// first slot — so that entry.getLastValue()/getFirstValue() resolve to
	// exactly the values this test controls.
	aCorner := coord.Coord{dim - 1, dim - 1, dim - 1}
	bOrigin := coord.Coord{0, 0, 3 * dim}
	tr.SetValueOn(aCorner, -1)
	tr.SetValueOn(bOrigin, -1)

	tr.SignedFloodFill(3, -3)

	gap := coord.Coord{0, 0, dim + dim/2}
	if got := tr.GetValue(gap); got != -3 {
		t.Fatalf("value inside the root-level gap = %v, want -3 (inside)", got)
	}
	if tr.IsValueOn(gap) {
		t.Fatal("a flood-filled gap tile must stay inactive")
	}
	if tr.ValueDepth(gap) != 0 {
		t.Fatalf("expected the gap to be backed by an explicit root tile, depth = %d", tr.ValueDepth(gap))
	}
}

func TestSignedFloodFillSkipsAdjacentRootEntriesWithNoGap(t *testing.T) {
	shape := Shape{LeafLog2Dim: 2, Internal1Log2Dim: 2, Internal2Log2Dim: 2}
	tr := New[float64](shape, 3, Float64Ops())
	dim := tr.Shape().Internal2Dim()

	// Adjacent root entries (one root-entry width apart) have no gap
	// between them at all; nothing should be inserted.
	tr.SetValueOn(coord.Coord{dim - 1, dim - 1, dim - 1}, -1)
	tr.SetValueOn(coord.Coord{0, 0, dim}, -1)

	before := tr.NodeCount()
	tr.SignedFloodFill(3, -3)
	after := tr.NodeCount()

	if after[0] != before[0] {
		t.Fatalf("root entry count changed from %d to %d, want unchanged (no gap to fill)", before[0], after[0])
	}
}
