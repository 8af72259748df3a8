package streamio

import (
	"fmt"

	"github.com/blang/semver"
	"github.com/tinylib/msgp/msgp"

	"github.com/janelia-flyem/vxtree/tree"
)

// FormatVersion is the wire format version this build writes. Readers
// accept any stream whose major version matches; a minor/patch bump may
// add optional fields but must stay backward compatible within a major
// version.
var FormatVersion = semver.MustParse("1.0.0")

// Header precedes every topology/buffer stream: the format version, the
// tree's fixed Shape, its background value (caller-encoded), and the body
// codec. It is hand-encoded against the msgp wire format rather than
// generated by msgp's code generator, since the header's shape is small
// and fixed.
type Header struct {
	Version    semver.Version
	Shape      tree.Shape
	Background []byte
	Codec      Codec
}

// MarshalMsg appends the msgp encoding of h to b.
func (h Header) MarshalMsg(b []byte) ([]byte, error) {
	b = msgp.AppendArrayHeader(b, 6)
	b = msgp.AppendString(b, h.Version.String())
	b = msgp.AppendUint64(b, uint64(h.Shape.LeafLog2Dim))
	b = msgp.AppendUint64(b, uint64(h.Shape.Internal1Log2Dim))
	b = msgp.AppendUint64(b, uint64(h.Shape.Internal2Log2Dim))
	b = msgp.AppendBytes(b, h.Background)
	b = msgp.AppendUint64(b, uint64(h.Codec))
	return b, nil
}

// UnmarshalMsg decodes a Header from the front of b and returns the
// remaining bytes.
func (h *Header) UnmarshalMsg(b []byte) ([]byte, error) {
	arrLen, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return b, fmt.Errorf("streamio: decoding header: %w", err)
	}
	if arrLen != 6 {
		return b, fmt.Errorf("streamio: header has %d fields, want 6", arrLen)
	}

	versionStr, b, err := msgp.ReadStringBytes(b)
	if err != nil {
		return b, fmt.Errorf("streamio: decoding header version: %w", err)
	}
	version, err := semver.Parse(versionStr)
	if err != nil {
		return b, fmt.Errorf("streamio: malformed header version %q: %w", versionStr, err)
	}
	if version.Major != FormatVersion.Major {
		return b, fmt.Errorf("streamio: stream version %s is incompatible with reader version %s", version, FormatVersion)
	}
	h.Version = version

	leafDim, b, err := msgp.ReadUint64Bytes(b)
	if err != nil {
		return b, err
	}
	i1Dim, b, err := msgp.ReadUint64Bytes(b)
	if err != nil {
		return b, err
	}
	i2Dim, b, err := msgp.ReadUint64Bytes(b)
	if err != nil {
		return b, err
	}
	h.Shape = tree.Shape{
		LeafLog2Dim:      uint(leafDim),
		Internal1Log2Dim: uint(i1Dim),
		Internal2Log2Dim: uint(i2Dim),
	}

	background, b, err := msgp.ReadBytesBytes(b, nil)
	if err != nil {
		return b, err
	}
	h.Background = background

	codec, b, err := msgp.ReadUint64Bytes(b)
	if err != nil {
		return b, err
	}
	h.Codec = Codec(codec)

	return b, nil
}
