package hnsw

import "math"

// CosineSimilarity returns the cosine of the angle between a and b,
// in [-1,1]. Vectors do not need to be pre-normalized. A zero vector
// yields 0.
func CosineSimilarity(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// cosineDistance is the metric the graph is built on: 1 - cosine similarity,
// in [0,2]. Smaller is closer. Fixed corpus-wide.
func cosineDistance(a, b []float32) float32 {
	return 1 - CosineSimilarity(a, b)
}

// SimilarityFromDistance converts a stored cosine distance back into the
// score surfaced to callers. Scores are clamped into [0,1]; a negative
// cosine means the vectors point away from each other and is floored at 0.
func SimilarityFromDistance(dist float32) float32 {
	score := 1 - dist
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
