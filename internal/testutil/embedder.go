package testutil

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// FakeEmbedder produces deterministic unit vectors derived from the
// input text, so integration tests can exercise pgvector storage and
// similarity search without a Gemini API key. Identical texts always
// embed identically; different texts almost always differ.
type FakeEmbedder struct {
	// Dimension of the produced vectors. Must match the schema's
	// vector column (768).
	Dimension int

	// Calls counts Embed invocations, for asserting on indexing behavior.
	Calls int
}

// NewFakeEmbedder returns a FakeEmbedder producing 768-dimensional vectors.
func NewFakeEmbedder() *FakeEmbedder {
	return &FakeEmbedder{Dimension: 768}
}

// Embed hashes the text into a pseudo-random but deterministic unit
// vector.
func (f *FakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.Calls++

	vec := make([]float32, f.Dimension)
	seed := sha256.Sum256([]byte(text))

	// Stretch the 32-byte digest across the full dimension by
	// re-hashing with a counter.
	var norm float64
	for i := 0; i < f.Dimension; i += 8 {
		var buf [40]byte
		copy(buf[:32], seed[:])
		binary.LittleEndian.PutUint64(buf[32:], uint64(i))
		block := sha256.Sum256(buf[:])

		for j := 0; j < 8 && i+j < f.Dimension; j++ {
			bits := binary.LittleEndian.Uint32(block[j*4 : j*4+4])
			// Map to [-1, 1)
			v := float64(bits)/float64(math.MaxUint32)*2 - 1
			vec[i+j] = float32(v)
			norm += v * v
		}
	}

	// Normalize so cosine distance behaves like the real embedder's output.
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}
