// Package vecmath holds the brute-force similarity search shared by the
// embedded vector stores.
package vecmath

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/viant/vec/search"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Cosine returns the cosine similarity of a and b in [-1, 1].
// Vectors of different length or with zero magnitude score 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 {
		return 0
	}
	return cosineWithMagnitude(a, b, search.Float32s(a).Magnitude())
}

// cosineWithMagnitude scores b against a whose magnitude is already known.
// CosineDistance is the only viant/vec distance exported on every GOARCH.
func cosineWithMagnitude(a, b []float32, ma float32) float64 {
	if len(a) != len(b) || len(a) == 0 || ma == 0 {
		return 0
	}
	if search.Float32s(b).Magnitude() == 0 {
		return 0
	}
	sim := 1 - float64(search.Float32s(a).CosineDistance(b))
	return math.Max(-1, math.Min(1, sim))
}

// Encode converts a []float32 to a little-endian byte slice for storage.
func Encode(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Decode converts a byte slice produced by Encode back to []float32.
func Decode(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("vecmath: blob length %d is not a multiple of 4", len(data))
	}
	if len(data) == 0 {
		return nil, nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats, nil
}

// Candidate is a stored point considered by TopK.
type Candidate struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// TopK scores candidates against query and returns the best limit hits in
// descending score order. Equal scores keep candidate order.
func TopK(query []float32, candidates []Candidate, limit int, withPayload bool) []driven.VectorHit {
	qm := search.Float32s(query).Magnitude()
	hits := make([]driven.VectorHit, 0, len(candidates))
	for _, c := range candidates {
		hit := driven.VectorHit{ID: c.ID, Score: cosineWithMagnitude(query, c.Vector, qm)}
		if withPayload {
			hit.Payload = c.Payload
		}
		hits = append(hits, hit)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if limit >= 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}
