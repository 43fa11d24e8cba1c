package embedding

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// cosineSimilarity computes the cosine similarity between two vectors
// Returns a value between -1 and 1, where 1 means identical direction
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 0
	}

	return floats.Dot(a, b) / (normA * normB)
}

// normalized returns a unit-length copy of v; zero vectors are returned as zeros.
func normalized(v []float64) []float64 {
	out := append([]float64(nil), v...)
	if n := floats.Norm(out, 2); n > 0 {
		floats.Scale(1/n, out)
	}
	return out
}

// euclideanCost returns the matrix of Euclidean distances between rows of x and rows of y.
func euclideanCost(x, y [][]float64) [][]float64 {
	c := make([][]float64, len(x))
	for i := range x {
		c[i] = make([]float64, len(y))
		for j := range y {
			if len(x[i]) != len(y[j]) {
				c[i][j] = math.Inf(1)
				continue
			}
			c[i][j] = floats.Distance(x[i], y[j], 2)
		}
	}
	return c
}

// normalizeWeights scales w to sum to one, falling back to uniform weights when the sum is zero.
func normalizeWeights(w []float64) []float64 {
	out := append([]float64(nil), w...)
	sum := floats.Sum(out)
	if sum <= 0 {
		for i := range out {
			out[i] = 1 / float64(len(out))
		}
		return out
	}
	floats.Scale(1/sum, out)
	return out
}
