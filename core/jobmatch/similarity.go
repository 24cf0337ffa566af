package jobmatch

import (
	"fmt"
	"math"
	"sort"

	"github.com/trezcool/mentora/core"
)

// CosineSimilarity returns dot(a, b) / (|a| * |b|), or 0 when either vector has zero magnitude.
// Vectors of different lengths are rejected.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, core.NewValidationError(fmt.Errorf("vectors must be of same length: %d != %d", len(a), len(b)))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// Rank scores every job against `query` and returns the `k` most similar, most similar first.
// Ties keep the pool order.
func Rank(query []float32, jobs []Job, k int) ([]Match, error) {
	matches := make([]Match, 0, len(jobs))
	for _, job := range jobs {
		sim, err := CosineSimilarity(query, job.Embedding)
		if err != nil {
			return nil, err
		}
		matches = append(matches, Match{Job: job, Similarity: sim})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Similarity > matches[j].Similarity })
	if k >= 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}
