// Package similarity holds the vector math shared by the brute-force stores.
package similarity

import (
	"encoding/binary"
	"errors"
	"math"
	"sort"
)

// ErrDimensionMismatch indicates vectors of different lengths.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Cosine returns the cosine similarity of a and b as a retrieval score in
// [0,1]: anti-correlated vectors score 0, as do zero vectors.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return Clamp(dot / (math.Sqrt(na) * math.Sqrt(nb))), nil
}

// Clamp bounds a similarity score to [0,1].
func Clamp(score float64) float64 {
	return math.Max(0, math.Min(1, score))
}

// Scored pairs an index into a candidate list with its score.
type Scored struct {
	Index int
	Score float64
}

// TopK sorts by descending score, keeping input order for ties,
// and truncates to k (k <= 0 keeps everything).
func TopK(scored []Scored, k int) []Scored {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if k > 0 && len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

// Encode packs a vector as little-endian float32s.
func Encode(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

// Decode unpacks a little-endian float32 blob.
func Decode(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, errors.New("vector blob length not a multiple of 4")
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}
