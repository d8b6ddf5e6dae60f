package store

import (
	"math"

	"docrag/internal/domain"
)

// nearZeroNorm is the magnitude below which an embedding is flagged as
// degenerate. Such vectors pass validation but carry no direction.
const nearZeroNorm = 1e-6

// Norm returns the Euclidean norm of the vector.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Cosine computes cosine similarity using precomputed norms:
// dot(a, b) / (normA * normB). Zero-norm vectors score 0.
func Cosine(a, b []float32, normA, normB float64) float64 {
	if len(a) != len(b) || normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB)
}

// CosineSim computes cosine similarity without precomputed norms.
func CosineSim(a, b []float32) float64 {
	return Cosine(a, b, Norm(a), Norm(b))
}

// ValidateVector checks a vector received from an embedding provider.
// A wrong dimension or a NaN/Inf component is an error; a near-zero
// magnitude is flagged as degenerate but accepted.
func ValidateVector(v []float32, dimension int) (degenerate bool, err error) {
	if len(v) != dimension {
		return false, &domain.DimensionMismatchError{Want: dimension, Got: len(v)}
	}
	for _, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false, &domain.EmbeddingValidationError{Reason: "vector contains NaN or Inf component"}
		}
	}
	return Norm(v) < nearZeroNorm, nil
}
