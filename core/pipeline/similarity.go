package pipeline

import "github.com/viterin/vek/vek32"

// CosineSimilarity computes the cosine similarity between two embeddings.
// The result is symmetric and bounded in [-1, 1]. Mismatched or empty
// vectors yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	return float64(vek32.CosineSimilarity(a, b))
}
