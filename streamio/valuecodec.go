package streamio

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Float64Codec returns the wire codec for plain float64 trees.
func Float64Codec() (EncodeValue[float64], DecodeValue[float64]) {
	enc := func(v float64) []byte {
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
		return b[:]
	}
	dec := func(b []byte) (float64, error) {
		if len(b) != 8 {
			return 0, fmt.Errorf("streamio: float64 value must be 8 bytes, got %d", len(b))
		}
		return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
	}
	return enc, dec
}

// Int32Codec returns the wire codec for int32 trees.
func Int32Codec() (EncodeValue[int32], DecodeValue[int32]) {
	enc := func(v int32) []byte {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(v))
		return b[:]
	}
	dec := func(b []byte) (int32, error) {
		if len(b) != 4 {
			return 0, fmt.Errorf("streamio: int32 value must be 4 bytes, got %d", len(b))
		}
		return int32(binary.BigEndian.Uint32(b)), nil
	}
	return enc, dec
}

// BoolCodec returns the wire codec for bool (occupancy mask) trees.
func BoolCodec() (EncodeValue[bool], DecodeValue[bool]) {
	enc := func(v bool) []byte {
		if v {
			return []byte{1}
		}
		return []byte{0}
	}
	dec := func(b []byte) (bool, error) {
		if len(b) != 1 {
			return false, fmt.Errorf("streamio: bool value must be 1 byte, got %d", len(b))
		}
		return b[0] != 0, nil
	}
	return enc, dec
}
