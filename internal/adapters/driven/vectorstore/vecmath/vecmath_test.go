package vecmath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"length mismatch", []float32{1}, []float32{1, 2}, 0},
		{"empty", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Cosine(tt.a, tt.b), 1e-6)
		})
	}
}

func TestEncodeDecode(t *testing.T) {
	in := []float32{0, 1.5, -2.25, math.MaxFloat32}

	out, err := Decode(Encode(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)

	assert.Nil(t, Encode(nil))

	empty, err := Decode(nil)
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = Decode([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestTopK(t *testing.T) {
	candidates := []Candidate{
		{ID: "far", Vector: []float32{0, 1}, Payload: map[string]any{"n": 1}},
		{ID: "near", Vector: []float32{1, 0.1}, Payload: map[string]any{"n": 2}},
		{ID: "tie-a", Vector: []float32{0, 0}},
		{ID: "tie-b", Vector: []float32{0, 0}},
	}

	hits := TopK([]float32{1, 0}, candidates, 3, true)
	require.Len(t, hits, 3)
	assert.Equal(t, "near", hits[0].ID)
	assert.Equal(t, map[string]any{"n": 2}, hits[0].Payload)
	assert.Equal(t, "far", hits[1].ID)
	assert.Equal(t, "tie-a", hits[2].ID)

	noPayload := TopK([]float32{1, 0}, candidates, 1, false)
	require.Len(t, noPayload, 1)
	assert.Nil(t, noPayload[0].Payload)
}

func TestCosine_UnnormalisedVectors(t *testing.T) {
	assert.InDelta(t, 1, Cosine([]float32{3, 4}, []float32{6, 8}), 1e-6)
	assert.InDelta(t, 32/math.Sqrt(14*77), Cosine([]float32{1, 2, 3}, []float32{4, 5, 6}), 1e-5)
	assert.InDelta(t, 0, Cosine([]float32{1, 1}, []float32{0, 0}), 1e-6)
}

func TestTopK_ZeroQuery(t *testing.T) {
	candidates := []Candidate{
		{ID: "a", Vector: []float32{1, 0}},
		{ID: "b", Vector: []float32{0, 1}},
	}

	hits := TopK([]float32{0, 0}, candidates, -1, false)
	require.Len(t, hits, 2)
	assert.Equal(t, []string{"a", "b"}, []string{hits[0].ID, hits[1].ID})
	assert.Zero(t, hits[0].Score)
	assert.Zero(t, hits[1].Score)
}
