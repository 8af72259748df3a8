package coord

import (
	"testing"

	. "github.com/janelia-flyem/go/gocheck"
)

// Hook up gocheck into the "go test" runner, following dvid/point_test.go.
func Test(t *testing.T) { TestingT(t) }

type CoordSuite struct{}

var _ = Suite(&CoordSuite{})

func (s *CoordSuite) TestArithmetic(c *C) {
	a := Coord{10, 21, 837821}
	b := Coord{78312, -200, 40123}

	c.Assert(a.Add(b), Equals, Coord{a[0] + b[0], a[1] + b[1], a[2] + b[2]})
	c.Assert(a.Sub(b), Equals, Coord{a[0] - b[0], a[1] - b[1], a[2] - b[2]})
	c.Assert(a.String(), Equals, "(10,21,837821)")
	c.Assert(a.AddScalar(10), Equals, Coord{20, 31, 837831})

	max := a.Max(b)
	c.Assert(max, Equals, Coord{78312, 21, 837821})
	min := a.Min(b)
	c.Assert(min, Equals, Coord{10, -200, 40123})
}

func (s *CoordSuite) TestAlignment(c *C) {
	tests := []struct {
		in       Coord
		size     int32
		expected Coord
	}{
		{Coord{5, 10, 20}, 8, Coord{0, 8, 16}},
		{Coord{-1, -8, -9}, 8, Coord{-8, -8, -16}},
		{Coord{0, 0, 0}, 8, Coord{0, 0, 0}},
		{Coord{8, 16, 24}, 8, Coord{8, 16, 24}},
	}
	for _, t := range tests {
		got := t.in.ParentOrigin(t.size)
		c.Assert(got, Equals, t.expected)
	}
}

func (s *CoordSuite) TestIsAligned(c *C) {
	c.Assert(Coord{0, 8, 16}.IsAligned(8), Equals, true)
	c.Assert(Coord{1, 8, 16}.IsAligned(8), Equals, false)
	c.Assert(Coord{-8, -8, -8}.IsAligned(8), Equals, true)
}

func (s *CoordSuite) TestOffset(c *C) {
	c.Assert(Coord{5, 10, 20}.Offset(8), Equals, Coord{5, 2, 4})
	c.Assert(Coord{-1, -1, -1}.Offset(8), Equals, Coord{7, 7, 7})
}

func (s *CoordSuite) TestOrdering(c *C) {
	a := Coord{0, 0, 0}
	b := Coord{0, 0, 1}
	c.Assert(a.Less(b), Equals, true)
	c.Assert(b.Less(a), Equals, false)
	c.Assert(a.Compare(a), Equals, 0)
}

func (s *CoordSuite) TestBytesRoundTrip(c *C) {
	pts := []Coord{
		{0, 0, 0},
		{5, 10, 20},
		{-5, -10, -20},
		{2147483647, -2147483648, 1},
	}
	for _, pt := range pts {
		b := pt.Bytes()
		got, err := CoordFromBytes(b)
		c.Assert(err, IsNil)
		c.Assert(got, Equals, pt)
	}
}

func (s *CoordSuite) TestByteOrderingMatchesNumericOrdering(c *C) {
	a := Coord{-5, 0, 0}
	b := Coord{5, 0, 0}
	c.Assert(a.Less(b), Equals, true)
	// Big-endian byte comparison of the encoded forms should agree with Less.
	ab, bb := a.Bytes(), b.Bytes()
	less := false
	for i := range ab {
		if ab[i] != bb[i] {
			less = ab[i] < bb[i]
			break
		}
	}
	c.Assert(less, Equals, true)
}
