package tree

import "errors"

// Sentinel errors for the tree package. They follow a house style of plain
// fmt.Errorf-wrapped messages rather than a custom error type hierarchy;
// callers use errors.Is against these sentinels to distinguish the classes.
var (
	// ErrShapeMismatch is returned when two trees combined via
	// TopologyUnion or Combine2 have different per-level log2 dimensions.
	// Fatal to the operation; the receiver is left unmodified.
	ErrShapeMismatch = errors.New("tree: shape mismatch between combined trees")

	// ErrDecode indicates a topology stream was truncated or its counts
	// exceed the bytes available. Fatal to the read.
	ErrDecode = errors.New("tree: malformed topology stream")
)
