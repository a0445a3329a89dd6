package sample

import (
	"encoding/binary"
	"fmt"
	"math"
)

// pointsMagic prefixes every encoded point snapshot so decode can reject
// foreign or corrupt blobs up front.
const pointsMagic = "TSP1"

// EncodePoints encodes points into a BLOB representation suitable for storage
// in SQLite: a 4-byte magic, a uint32 count, then per point the little-endian
// IEEE 754 float64 values lon, lat, raw, score.
func EncodePoints(points []Point) ([]byte, error) {
	out := make([]byte, 0, 8+len(points)*32)
	out = append(out, pointsMagic...)
	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], uint32(len(points)))
	out = append(out, u32[:]...)
	var f64 [8]byte
	putF64 := func(v float64) {
		binary.LittleEndian.PutUint64(f64[:], math.Float64bits(v))
		out = append(out, f64[:]...)
	}
	for _, p := range points {
		putF64(p.Lon)
		putF64(p.Lat)
		putF64(p.Raw)
		putF64(p.Score)
	}
	return out, nil
}

// DecodePoints decodes a BLOB produced by EncodePoints back into points.
func DecodePoints(b []byte) ([]Point, error) {
	if len(b) < 8 {
		return nil, fmt.Errorf("sample: point blob too short (%d bytes)", len(b))
	}
	if string(b[:4]) != pointsMagic {
		return nil, fmt.Errorf("sample: point blob has unknown magic %q", b[:4])
	}
	n := int(binary.LittleEndian.Uint32(b[4:8]))
	if want := 8 + n*32; len(b) != want {
		return nil, fmt.Errorf("sample: point blob length %d, want %d for %d points", len(b), want, n)
	}
	off := 8
	getF64 := func() float64 {
		v := math.Float64frombits(binary.LittleEndian.Uint64(b[off:]))
		off += 8
		return v
	}
	points := make([]Point, n)
	for i := 0; i < n; i++ {
		points[i] = Point{Lon: getF64(), Lat: getF64(), Raw: getF64(), Score: getF64()}
	}
	return points, nil
}
