// Package reranker re-orders retrieval candidates for result quality.
//
// Plain top-K by similarity tends to return near-duplicates: the same
// paragraph retrieved from overlapping chunks, or the same fact stated
// in several documents. Maximal marginal relevance (MMR) trades raw
// relevance against novelty so the selected set covers more ground.
package reranker

import (
	"math"
)

// DefaultLambda balances relevance and diversity evenly enough for
// document retrieval. 1 reduces MMR to plain top-K; 0 ignores the
// query entirely.
const DefaultLambda = 0.5

// Candidate is one retrieval hit considered for selection.
type Candidate struct {
	ID     string
	Score  float32
	Meta   map[string]string
	Vector []float32
}

// SelectMMR picks up to topK candidates by maximal marginal relevance.
// Each step takes the candidate maximizing
//
//	lambda*relevance - (1-lambda)*maxSimilarityToSelected
//
// where relevance is the candidate's retrieval score and similarity is
// cosine over the candidate vectors. The first pick is always the
// highest-scored candidate. Input order is not modified.
func SelectMMR(cands []Candidate, topK int, lambda float64) []Candidate {
	if len(cands) == 0 || topK <= 0 {
		return nil
	}
	if lambda < 0 {
		lambda = 0
	}
	if lambda > 1 {
		lambda = 1
	}
	if topK > len(cands) {
		topK = len(cands)
	}

	normed := make([][]float32, len(cands))
	for i, c := range cands {
		normed[i] = unit(c.Vector)
	}

	// Seed with the most relevant candidate.
	best := 0
	for i := 1; i < len(cands); i++ {
		if cands[i].Score > cands[best].Score {
			best = i
		}
	}

	selected := []Candidate{cands[best]}
	selectedVecs := [][]float32{normed[best]}
	used := make([]bool, len(cands))
	used[best] = true

	for len(selected) < topK {
		bestIdx := -1
		bestVal := math.Inf(-1)
		for i := range cands {
			if used[i] {
				continue
			}
			maxSim := 0.0
			for _, sv := range selectedVecs {
				if sim := float64(dot(normed[i], sv)); sim > maxSim {
					maxSim = sim
				}
			}
			val := lambda*float64(cands[i].Score) - (1-lambda)*maxSim
			if val > bestVal {
				bestVal = val
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}
		used[bestIdx] = true
		selected = append(selected, cands[bestIdx])
		selectedVecs = append(selectedVecs, normed[bestIdx])
	}
	return selected
}

func unit(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		out := make([]float32, len(v))
		copy(out, v)
		return out
	}
	inv := float32(1 / math.Sqrt(sum))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x * inv
	}
	return out
}

func dot(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return float32(sum)
}
