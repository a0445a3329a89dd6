package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"

	"github.com/snowspace/trafficscore/sample"
)

// Fingerprint returns a deterministic digest of the raw sample set, used as
// the cache key: any change to a coordinate or measured value invalidates
// prior snapshots. The digest is stable across processes and platforms
// (little-endian IEEE 754 encoding, insertion order preserved).
func Fingerprint(measurements []sample.Measurement) string {
	h := sha256.New()
	var buf [8]byte
	write := func(v float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	for _, m := range measurements {
		write(m.Lon)
		write(m.Lat)
		write(m.Value)
	}
	return hex.EncodeToString(h.Sum(nil))
}
