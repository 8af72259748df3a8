package tree

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/janelia-flyem/vxtree/coord"
)

func TestLeafManagerSnapshotsExistingLeaves(t *testing.T) {
	tr := New[float64](smallShape(), 0, Float64Ops())
	tr.SetValueOn(coord.Coord{0, 0, 0}, 1)
	tr.SetValueOn(coord.Coord{100, 100, 100}, 2)

	lm := NewLeafManager(tr)
	if lm.LeafCount() != tr.LeafCount() {
		t.Fatalf("LeafManager snapshot count = %d, want %d", lm.LeafCount(), tr.LeafCount())
	}
}

func TestLeafManagerRebuildPicksUpNewLeaves(t *testing.T) {
	tr := New[float64](smallShape(), 0, Float64Ops())
	tr.SetValueOn(coord.Coord{0, 0, 0}, 1)

	lm := NewLeafManager(tr)
	before := lm.LeafCount()

	tr.SetValueOn(coord.Coord{1000, 1000, 1000}, 2)
	if lm.LeafCount() != before {
		t.Fatal("expected stale snapshot to not see the new leaf until rebuilt")
	}

	lm.RebuildLeafArray()
	if lm.LeafCount() != before+1 {
		t.Fatalf("after rebuild, LeafCount = %d, want %d", lm.LeafCount(), before+1)
	}
}

func TestAuxBufferRoundTripsVoxelValues(t *testing.T) {
	tr := New[float64](smallShape(), 0, Float64Ops())
	tr.SetValueOn(coord.Coord{0, 0, 0}, 5)

	lm := NewLeafManager(tr)
	lm.RebuildAuxBuffers(1)
	lm.SyncAllBuffers()

	if got := lm.Leaf(0).ValueAt(coord.Coord{0, 0, 0}); got != 5 {
		t.Fatalf("value after aux buffer round trip = %v, want 5", got)
	}
}

func TestSwapLeafBufferExchangesValues(t *testing.T) {
	tr := New[float64](smallShape(), 0, Float64Ops())
	tr.SetValueOn(coord.Coord{0, 0, 0}, 1)

	lm := NewLeafManager(tr)
	lm.RebuildAuxBuffers(1)
	for i := range lm.aux[0] {
		lm.aux[0][i] = 42
	}
	lm.SwapLeafBuffer(0)

	if got := lm.Leaf(0).ValueAt(coord.Coord{0, 0, 0}); got != 42 {
		t.Fatalf("value after swap = %v, want 42", got)
	}
	if lm.aux[0][lm.Leaf(0).localIndex(coord.Coord{0, 0, 0})] != 1 {
		t.Fatal("expected swap to move the old leaf value into the aux buffer")
	}
	if got := lm.GetBuffer(0, -1, lm.Leaf(0).localIndex(coord.Coord{0, 0, 0})); got != 42 {
		t.Fatalf("GetBuffer(-1) live read = %v, want 42", got)
	}
	if got := lm.GetBuffer(0, 0, lm.Leaf(0).localIndex(coord.Coord{0, 0, 0})); got != 1 {
		t.Fatalf("GetBuffer(0) shadow read = %v, want 1", got)
	}
}

func TestParallelForVisitsEveryLeaf(t *testing.T) {
	tr := New[float64](smallShape(), 0, Float64Ops())
	for i := 0; i < 8; i++ {
		tr.SetValueOn(coord.Coord{int32(i * 100), 0, 0}, float64(i))
	}
	lm := NewLeafManager(tr)

	visited := make([]bool, lm.LeafCount())
	var mu sync.Mutex
	err := lm.ParallelFor(context.Background(), func(_ context.Context, leafIndex int) error {
		mu.Lock()
		visited[leafIndex] = true
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("ParallelFor returned error: %v", err)
	}
	for i, v := range visited {
		if !v {
			t.Fatalf("leaf index %d was never visited", i)
		}
	}
}

func TestParallelForPropagatesError(t *testing.T) {
	tr := New[float64](smallShape(), 0, Float64Ops())
	tr.SetValueOn(coord.Coord{0, 0, 0}, 1)
	lm := NewLeafManager(tr)

	wantErr := errors.New("boom")
	err := lm.ParallelFor(context.Background(), func(_ context.Context, _ int) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("ParallelFor error = %v, want %v", err, wantErr)
	}
}
