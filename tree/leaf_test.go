package tree

import (
	"testing"

	. "github.com/janelia-flyem/go/gocheck"

	"github.com/janelia-flyem/vxtree/coord"
)

func TestLeaf(t *testing.T) { TestingT(t) }

type LeafSuite struct{}

var _ = Suite(&LeafSuite{})

func (s *LeafSuite) TestValueAndActiveState(c *C) {
	origin := coord.Coord{0, 0, 0}
	l := newLeafNode[float64](origin, 3, 0, false)
	c.Assert(l.NumVoxels(), Equals, 1<<(3*3))

	p := coord.Coord{1, 2, 3}
	l.SetValueOnAt(p, 42)
	c.Assert(l.ValueAt(p), Equals, 42.0)
	c.Assert(l.IsValueOnAt(p), Equals, true)

	l.SetValueOffAt(p, 7)
	c.Assert(l.ValueAt(p), Equals, 7.0)
	c.Assert(l.IsValueOnAt(p), Equals, false)
}

func (s *LeafSuite) TestFillClipsToLeafBounds(c *C) {
	origin := coord.Coord{0, 0, 0}
	l := newLeafNode[float64](origin, 3, 0, false)
	outOfRange := coord.NewBBox(coord.Coord{-5, -5, -5}, coord.Coord{100, 100, 100})
	l.Fill(outOfRange, 1, true)
	for i := 0; i < l.NumVoxels(); i++ {
		c.Assert(l.Value(i), Equals, 1.0)
		c.Assert(l.IsValueOn(i), Equals, true)
	}
}

func (s *LeafSuite) TestPruneDetectsUniformity(c *C) {
	l := newLeafNode[float64](coord.Coord{0, 0, 0}, 3, 5, true)
	value, active, ok := l.Prune(0, Float64Ops())
	c.Assert(ok, Equals, true)
	c.Assert(value, Equals, 5.0)
	c.Assert(active, Equals, true)

	l.SetValueOn(0, 99)
	_, _, ok = l.Prune(0, Float64Ops())
	c.Assert(ok, Equals, false)
}

func (s *LeafSuite) TestCloneIsIndependent(c *C) {
	l := newLeafNode[float64](coord.Coord{0, 0, 0}, 3, 1, true)
	clone := l.Clone()
	clone.SetValueOn(0, 77)
	c.Assert(l.Value(0), Not(Equals), 77.0)
}

func (s *LeafSuite) TestVoxelCoordRoundTrip(c *C) {
	origin := coord.Coord{16, 32, 48}
	l := newLeafNode[float64](origin, 3, 0, false)
	for i := 0; i < l.NumVoxels(); i++ {
		xyz := l.voxelCoord(i)
		c.Assert(l.localIndex(xyz), Equals, i)
	}
}
