// Package streamio implements the wire format vxtree uses to persist or
// transmit a tree's topology and values: a small msgp-encoded Header
// followed by a checksummed, optionally compressed body listing every
// region (tile or leaf voxel) the tree has touched.
package streamio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/janelia-flyem/vxtree/coord"
	"github.com/janelia-flyem/vxtree/tree"
)

// EncodeValue converts a tree value to its wire bytes.
type EncodeValue[T any] func(v T) []byte

// DecodeValue parses a tree value back out of wire bytes.
type DecodeValue[T any] func(b []byte) (T, error)

// WriteTree encodes t to w under the given codec, using encodeValue to
// serialize T. The body lists every region from t.ForEachRegion in
// whatever order iteration produces; order does not matter for
// correctness since each region's origin is self-describing.
func WriteTree[T any](w io.Writer, t *tree.Tree[T], codec Codec, encodeValue EncodeValue[T]) error {
	hdr := Header{
		Version:    FormatVersion,
		Shape:      t.Shape(),
		Background: encodeValue(t.Background()),
		Codec:      codec,
	}
	hdrBytes, err := hdr.MarshalMsg(nil)
	if err != nil {
		return fmt.Errorf("streamio: encoding header: %w", err)
	}
	if err := writeFrame(w, hdrBytes); err != nil {
		return fmt.Errorf("streamio: writing header: %w", err)
	}

	var body bytes.Buffer
	var regionErr error
	t.ForEachRegion(func(bbox coord.BBox, value T, active bool) {
		if regionErr != nil {
			return
		}
		side := bbox.Max[0] - bbox.Min[0] + 1
		body.Write(bbox.Min.Bytes())
		var sideBuf [4]byte
		binary.BigEndian.PutUint32(sideBuf[:], uint32(side))
		body.Write(sideBuf[:])
		valBytes := encodeValue(value)
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(valBytes)))
		body.Write(lenBuf[:])
		body.Write(valBytes)
		if active {
			body.WriteByte(1)
		} else {
			body.WriteByte(0)
		}
	})
	if regionErr != nil {
		return regionErr
	}

	compressed, err := compress(codec, body.Bytes())
	if err != nil {
		return fmt.Errorf("streamio: compressing body: %w", err)
	}
	checksum := crc32.ChecksumIEEE(compressed)
	var checksumBuf [4]byte
	binary.BigEndian.PutUint32(checksumBuf[:], checksum)
	if err := writeFrame(w, checksumBuf[:]); err != nil {
		return fmt.Errorf("streamio: writing checksum: %w", err)
	}
	return writeFrame(w, compressed)
}

// ReadTree decodes a stream previously written by WriteTree into a new
// tree built with ops and decodeValue.
func ReadTree[T any](r io.Reader, ops tree.Ops[T], decodeValue DecodeValue[T]) (*tree.Tree[T], error) {
	hdrBytes, err := readFrame(r)
	if err != nil {
		return nil, fmt.Errorf("streamio: reading header: %w", err)
	}
	var hdr Header
	if _, err := hdr.UnmarshalMsg(hdrBytes); err != nil {
		return nil, fmt.Errorf("streamio: decoding header: %w", err)
	}
	background, err := decodeValue(hdr.Background)
	if err != nil {
		return nil, fmt.Errorf("streamio: decoding background: %w", err)
	}

	checksumBytes, err := readFrame(r)
	if err != nil {
		return nil, fmt.Errorf("streamio: reading checksum: %w", err)
	}
	if len(checksumBytes) != 4 {
		return nil, tree.ErrDecode
	}
	wantChecksum := binary.BigEndian.Uint32(checksumBytes)

	compressed, err := readFrame(r)
	if err != nil {
		return nil, fmt.Errorf("streamio: reading body: %w", err)
	}
	if crc32.ChecksumIEEE(compressed) != wantChecksum {
		return nil, fmt.Errorf("streamio: checksum mismatch: %w", tree.ErrDecode)
	}

	body, err := decompress(hdr.Codec, compressed)
	if err != nil {
		return nil, fmt.Errorf("streamio: decompressing body: %w", err)
	}

	t := tree.New[T](hdr.Shape, background, ops)
	buf := body
	for len(buf) > 0 {
		if len(buf) < 20 {
			return nil, tree.ErrDecode
		}
		origin, err := coord.CoordFromBytes(buf[:12])
		if err != nil {
			return nil, fmt.Errorf("streamio: decoding region origin: %w", err)
		}
		buf = buf[12:]
		side := int32(binary.BigEndian.Uint32(buf[:4]))
		buf = buf[4:]
		valLen := binary.BigEndian.Uint32(buf[:4])
		buf = buf[4:]
		if uint32(len(buf)) < valLen+1 {
			return nil, tree.ErrDecode
		}
		value, err := decodeValue(buf[:valLen])
		if err != nil {
			return nil, fmt.Errorf("streamio: decoding region value: %w", err)
		}
		buf = buf[valLen:]
		active := buf[0] == 1
		buf = buf[1:]

		bbox := coord.NodeBBox(origin, side)
		t.Fill(bbox, value, active)
	}
	return t, nil
}

func writeFrame(w io.Writer, payload []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func readFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, tree.ErrDecode
		}
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("frame declares %d bytes: %w", n, tree.ErrDecode)
		}
		return nil, err
	}
	return buf, nil
}
