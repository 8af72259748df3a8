// Package tree implements a four-level sparse hierarchical tree: a RootNode
// mapping aligned origins to either a child InternalNode2 or a tile,
// InternalNode2 whose slots hold InternalNode1 or tiles, InternalNode1 whose
// slots hold LeafNode or tiles, and LeafNode, a bit-packed dense cube of
// voxels.
//
// Each level is its own concrete generic type rather than a single
// recursively-parametrized InternalNode[Child], because the tree's depth is
// fixed at four levels, not an arbitrary recursive structure; fixed concrete
// levels is the simplest translation that needs no interface dispatch at all
// in place of the original library's C++ template nesting.
package tree

import "github.com/janelia-flyem/vxtree/coord"

// Ops supplies the value-type operations required of T: zero, approximate
// equality, negation (for signed flood-fill), and a total ordering (for
// SetValueOnMin/Max). Vector types provide componentwise semantics; boolean
// types use OR/AND in place of Min/Max. This replaces dvid's runtime
// DataValues descriptor (itself a pre-generics stand-in for type parameters)
// with an explicit strategy struct, using type parameters instead of virtual
// dispatch.
type Ops[T any] struct {
	// Zero is the additive identity / default value for T.
	Zero T

	// Equal reports exact equality, used by background-tile detection
	// (EraseBackgroundTiles, SetBackground) and by IsZero.
	Equal func(a, b T) bool

	// ApproxEqual reports whether a and b are equal within tolerance.
	ApproxEqual func(a, b, tolerance T) bool

	// Less provides T's total ordering, used by SetValueOnMin/Max and by
	// signed flood-fill's "< zero" test.
	Less func(a, b T) bool

	// Negate returns -a, used by signed flood-fill to flip an outside
	// value into an inside one (and vice versa).
	Negate func(a T) T

	// Add returns a+b, used by SetValueOnSum.
	Add func(a, b T) T
}

// IsZero reports whether v equals ops.Zero exactly.
func (ops Ops[T]) IsZero(v T) bool {
	return ops.Equal(v, ops.Zero)
}

// Min returns the lesser of a and b under ops.Less.
func (ops Ops[T]) Min(a, b T) T {
	if ops.Less(b, a) {
		return b
	}
	return a
}

// Max returns the greater of a and b under ops.Less.
func (ops Ops[T]) Max(a, b T) T {
	if ops.Less(a, b) {
		return b
	}
	return a
}

// Float64Ops returns Ops for plain float64 scalar fields such as
// signed-distance values, the prototypical payload for a narrow-band level
// set.
func Float64Ops() Ops[float64] {
	return Ops[float64]{
		Zero: 0,
		Equal: func(a, b float64) bool {
			return a == b
		},
		ApproxEqual: func(a, b, tolerance float64) bool {
			d := a - b
			if d < 0 {
				d = -d
			}
			return d <= tolerance
		},
		Less: func(a, b float64) bool {
			return a < b
		},
		Negate: func(a float64) float64 {
			return -a
		},
		Add: func(a, b float64) float64 {
			return a + b
		},
	}
}

// Int32Ops returns Ops for signed 32-bit integer fields (e.g. label or
// distance fields quantized to integers).
func Int32Ops() Ops[int32] {
	return Ops[int32]{
		Zero: 0,
		Equal: func(a, b int32) bool {
			return a == b
		},
		ApproxEqual: func(a, b, tolerance int32) bool {
			d := a - b
			if d < 0 {
				d = -d
			}
			return d <= tolerance
		},
		Less: func(a, b int32) bool {
			return a < b
		},
		Negate: func(a int32) int32 {
			return -a
		},
		Add: func(a, b int32) int32 {
			return a + b
		},
	}
}

// BoolOps returns Ops for boolean occupancy/mask fields, where Min/Max
// degrade to AND/OR; Negate is logical NOT and Add saturates like OR since
// there is no natural sum.
func BoolOps() Ops[bool] {
	return Ops[bool]{
		Zero: false,
		Equal: func(a, b bool) bool {
			return a == b
		},
		ApproxEqual: func(a, b, _ bool) bool {
			return a == b
		},
		Less: func(a, b bool) bool {
			return !a && b
		},
		Negate: func(a bool) bool {
			return !a
		},
		Add: func(a, b bool) bool {
			return a || b
		},
	}
}

// Vec3fOps returns Ops for componentwise 3-vector fields (e.g. gradient or
// displacement fields carried alongside a level set).
func Vec3fOps() Ops[[3]float64] {
	approx := func(a, b, tol float64) bool {
		d := a - b
		if d < 0 {
			d = -d
		}
		return d <= tol
	}
	return Ops[[3]float64]{
		Zero: [3]float64{0, 0, 0},
		Equal: func(a, b [3]float64) bool {
			return a == b
		},
		ApproxEqual: func(a, b, tolerance [3]float64) bool {
			return approx(a[0], b[0], tolerance[0]) &&
				approx(a[1], b[1], tolerance[1]) &&
				approx(a[2], b[2], tolerance[2])
		},
		Less: func(a, b [3]float64) bool {
			// Lexicographic ordering; vectors have no natural total
			// order but SetValueOnMin/Max still need a deterministic one.
			if a[0] != b[0] {
				return a[0] < b[0]
			}
			if a[1] != b[1] {
				return a[1] < b[1]
			}
			return a[2] < b[2]
		},
		Negate: func(a [3]float64) [3]float64 {
			return [3]float64{-a[0], -a[1], -a[2]}
		},
		Add: func(a, b [3]float64) [3]float64 {
			return [3]float64{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
		},
	}
}

// Shape is the type-level configuration of a tree:
// (LeafLog2Dim, Internal1Log2Dim, Internal2Log2Dim). It is fixed for the
// lifetime of a Tree at construction and never mutated afterward — Go has
// no const generic parameters, so this is the idiomatic stand-in for the
// original's compile-time template arguments, enforced by convention
// (Tree exposes no setter) rather than by the type system. Changing it
// breaks topology-stream compatibility with trees written under a
// different shape.
type Shape struct {
	LeafLog2Dim      uint
	Internal1Log2Dim uint
	Internal2Log2Dim uint
}

// DefaultShape mirrors OpenVDB's canonical (5,4,3) tree configuration:
// an 8^3 leaf, a 16^3 lower internal node (cube side 128), and a 32^3
// upper internal node (cube side 4096).
func DefaultShape() Shape {
	return Shape{LeafLog2Dim: 3, Internal1Log2Dim: 4, Internal2Log2Dim: 5}
}

// LeafDim returns the leaf's side length in voxels.
func (s Shape) LeafDim() int32 { return 1 << s.LeafLog2Dim }

// Internal1Dim returns InternalNode1's side length in voxels
// (LeafDim << Internal1Log2Dim).
func (s Shape) Internal1Dim() int32 { return s.LeafDim() << s.Internal1Log2Dim }

// Internal2Dim returns InternalNode2's side length in voxels
// (Internal1Dim << Internal2Log2Dim). Root keys are aligned to this value.
func (s Shape) Internal2Dim() int32 { return s.Internal1Dim() << s.Internal2Log2Dim }

// Equal reports whether two shapes describe identical dimensions; used to
// detect the ShapeMismatch error before a structural combine begins.
func (s Shape) Equal(o Shape) bool {
	return s.LeafLog2Dim == o.LeafLog2Dim &&
		s.Internal1Log2Dim == o.Internal1Log2Dim &&
		s.Internal2Log2Dim == o.Internal2Log2Dim
}

func validateLocal(local coord.Coord, dim int32) {
	if local[0] < 0 || local[0] >= dim || local[1] < 0 || local[1] >= dim || local[2] < 0 || local[2] >= dim {
		panic("tree: coordinate outside node bounds")
	}
}

// voxelIndex implements the node's linear index formula:
// i = ((x&mask)<<2N)|((y&mask)<<N)|(z&mask), with local already relative to
// the node's origin.
func voxelIndex(local coord.Coord, logDim uint) int {
	m := int32(1<<logDim) - 1
	x := local[0] & m
	y := local[1] & m
	z := local[2] & m
	return int(x)<<(2*logDim) | int(y)<<logDim | int(z)
}

// rowStart returns the index of the first bit (z=0) of the z-row containing
// local, addressed as (x<<N)|y.
func rowStart(local coord.Coord, logDim uint) int {
	m := int32(1<<logDim) - 1
	x := local[0] & m
	y := local[1] & m
	return int(x)<<(2*logDim) | int(y)<<logDim
}
