package coord

import "testing"

func TestBBoxContains(t *testing.T) {
	b := NewBBox(Coord{0, 0, 0}, Coord{15, 15, 15})
	if !b.Contains(Coord{8, 8, 8}) {
		t.Fatal("expected box to contain (8,8,8)")
	}
	if b.Contains(Coord{16, 0, 0}) {
		t.Fatal("box should not contain (16,0,0)")
	}
}

func TestBBoxNumVoxels(t *testing.T) {
	b := NewBBox(Coord{0, 0, 0}, Coord{15, 15, 15})
	if got, want := b.NumVoxels(), int64(16*16*16); got != want {
		t.Fatalf("NumVoxels() = %d, want %d", got, want)
	}
}

func TestBBoxIntersect(t *testing.T) {
	a := NewBBox(Coord{0, 0, 0}, Coord{7, 7, 7})
	b := NewBBox(Coord{4, 4, 4}, Coord{11, 11, 11})
	got := a.Intersect(b)
	want := NewBBox(Coord{4, 4, 4}, Coord{7, 7, 7})
	if got != want {
		t.Fatalf("Intersect() = %v, want %v", got, want)
	}

	c := NewBBox(Coord{100, 100, 100}, Coord{107, 107, 107})
	if a.Intersects(c) {
		t.Fatal("disjoint boxes should not intersect")
	}
}

func TestNodeBBox(t *testing.T) {
	got := NodeBBox(Coord{8, 8, 8}, 8)
	want := NewBBox(Coord{8, 8, 8}, Coord{15, 15, 15})
	if got != want {
		t.Fatalf("NodeBBox() = %v, want %v", got, want)
	}
}

func TestBBoxContainsBBox(t *testing.T) {
	outer := NewBBox(Coord{0, 0, 0}, Coord{31, 31, 31})
	inner := NewBBox(Coord{8, 8, 8}, Coord{15, 15, 15})
	if !outer.ContainsBBox(inner) {
		t.Fatal("outer should contain inner")
	}
	if inner.ContainsBBox(outer) {
		t.Fatal("inner should not contain outer")
	}
}
