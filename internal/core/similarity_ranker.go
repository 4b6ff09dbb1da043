// ABOUTME: Cosine-similarity ranking over an in-memory embedding matrix
// ABOUTME: Linear scan with a stable sort so ties keep catalog load order
package core

import (
	"math"
	"sort"
)

// Hit is one ranked row of a vector matrix
type Hit struct {
	Index int
	Score float64
}

// CosineSimilarity returns dot(a,b)/(|a|*|b|).
// Zero-norm or length-mismatched vectors score 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp float drift so identical vectors never exceed 1
	return math.Max(-1, math.Min(1, score))
}

// Rank scores every vector against query and returns the topK best.
// topK above len(vectors) returns everything; topK below 1 returns nothing.
func Rank(query []float64, vectors [][]float64, topK int) []Hit {
	if topK < 1 || len(vectors) == 0 {
		return []Hit{}
	}

	hits := make([]Hit, len(vectors))
	for i, v := range vectors {
		hits[i] = Hit{Index: i, Score: CosineSimilarity(query, v)}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if topK < len(hits) {
		hits = hits[:topK]
	}
	return hits
}
