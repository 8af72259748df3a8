package streamio

import (
	"bytes"
	"testing"

	"github.com/janelia-flyem/vxtree/coord"
	"github.com/janelia-flyem/vxtree/tree"
)

func smallShape() tree.Shape {
	return tree.Shape{LeafLog2Dim: 2, Internal1Log2Dim: 2, Internal2Log2Dim: 2}
}

func TestWriteReadTreeRoundTripsFloat64(t *testing.T) {
	src := tree.New[float64](smallShape(), 0, tree.Float64Ops())
	src.SetValueOn(coord.Coord{1, 2, 3}, 5)
	src.SetValueOn(coord.Coord{10, 10, 10}, -2.5)
	src.SetValueOff(coord.Coord{20, 20, 20}, 9)

	for _, codec := range []Codec{CodecNone, CodecSnappy, CodecZstd} {
		encode, decode := Float64Codec()
		var buf bytes.Buffer
		if err := WriteTree(&buf, src, codec, encode); err != nil {
			t.Fatalf("WriteTree(%s) returned error: %v", codec, err)
		}

		got, err := ReadTree[float64](&buf, tree.Float64Ops(), decode)
		if err != nil {
			t.Fatalf("ReadTree(%s) returned error: %v", codec, err)
		}

		if v := got.GetValue(coord.Coord{1, 2, 3}); v != 5 {
			t.Fatalf("[%s] GetValue(1,2,3) = %v, want 5", codec, v)
		}
		if v := got.GetValue(coord.Coord{10, 10, 10}); v != -2.5 {
			t.Fatalf("[%s] GetValue(10,10,10) = %v, want -2.5", codec, v)
		}
		if got.IsValueOn(coord.Coord{20, 20, 20}) {
			t.Fatalf("[%s] expected voxel to remain inactive after round trip", codec)
		}
		if v := got.GetValue(coord.Coord{20, 20, 20}); v != 9 {
			t.Fatalf("[%s] GetValue(20,20,20) = %v, want 9", codec, v)
		}
	}
}

func TestReadTreeRejectsChecksumMismatch(t *testing.T) {
	src := tree.New[float64](smallShape(), 0, tree.Float64Ops())
	src.SetValueOn(coord.Coord{0, 0, 0}, 1)

	encode, decode := Float64Codec()
	var buf bytes.Buffer
	if err := WriteTree(&buf, src, CodecNone, encode); err != nil {
		t.Fatalf("WriteTree returned error: %v", err)
	}

	corrupted := buf.Bytes()
	// Flip a byte well inside the body frame, past header and checksum
	// frames, to trigger a checksum mismatch rather than a parse failure.
	corrupted[len(corrupted)-1] ^= 0xFF

	if _, err := ReadTree[float64](bytes.NewReader(corrupted), tree.Float64Ops(), decode); err == nil {
		t.Fatal("expected checksum mismatch error, got nil")
	}
}

func TestHeaderRejectsIncompatibleMajorVersion(t *testing.T) {
	hdr := Header{
		Version:    FormatVersion,
		Shape:      smallShape(),
		Background: []byte{0},
		Codec:      CodecNone,
	}
	hdr.Version.Major++
	b, err := hdr.MarshalMsg(nil)
	if err != nil {
		t.Fatalf("MarshalMsg returned error: %v", err)
	}

	var decoded Header
	if _, err := decoded.UnmarshalMsg(b); err == nil {
		t.Fatal("expected an error decoding a header from an incompatible major version")
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	hdr := Header{
		Version:    FormatVersion,
		Shape:      smallShape(),
		Background: []byte{1, 2, 3, 4},
		Codec:      CodecZstd,
	}
	b, err := hdr.MarshalMsg(nil)
	if err != nil {
		t.Fatalf("MarshalMsg returned error: %v", err)
	}

	var decoded Header
	if _, err := decoded.UnmarshalMsg(b); err != nil {
		t.Fatalf("UnmarshalMsg returned error: %v", err)
	}
	if !decoded.Shape.Equal(hdr.Shape) {
		t.Fatalf("decoded shape = %+v, want %+v", decoded.Shape, hdr.Shape)
	}
	if decoded.Codec != CodecZstd {
		t.Fatalf("decoded codec = %v, want %v", decoded.Codec, CodecZstd)
	}
	if !bytes.Equal(decoded.Background, hdr.Background) {
		t.Fatalf("decoded background = %v, want %v", decoded.Background, hdr.Background)
	}
}
