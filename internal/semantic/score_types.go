package semantic

import (
	"fmt"
	"math"
	"sort"
)

// Algorithm names a similarity algorithm or a result label
type Algorithm string

const (
	AlgorithmExact       Algorithm = "exact"
	AlgorithmLevenshtein Algorithm = "levenshtein"
	AlgorithmJaroWinkler Algorithm = "jaroWinkler"
	AlgorithmCosine      Algorithm = "cosine"
	AlgorithmNgram       Algorithm = "ngram"
	AlgorithmSemantic    Algorithm = "semantic"

	// Result labels that are not scoring algorithms
	AlgorithmHybrid   Algorithm = "hybrid"
	AlgorithmNone     Algorithm = "none"
	AlgorithmFallback Algorithm = "fallback"
	AlgorithmError    Algorithm = "error"
)

// AlgorithmOrder is the fixed enumeration order; dominant-algorithm ties
// resolve to the earliest entry.
var AlgorithmOrder = []Algorithm{
	AlgorithmExact,
	AlgorithmLevenshtein,
	AlgorithmJaroWinkler,
	AlgorithmCosine,
	AlgorithmNgram,
	AlgorithmSemantic,
}

// ScoringAlgorithms are the algorithms the ensemble computes per candidate
var ScoringAlgorithms = AlgorithmOrder[1:]

// UnknownWeight applies to algorithm names missing from a weight table
const UnknownWeight = 0.1

// Weights holds relative, non-negative per-algorithm weights.
// They need not sum to 1.
type Weights map[Algorithm]float64

// DefaultWeights favors the character-level algorithms, which carry typo
// tolerance for the short phrases a canned-response corpus holds.
func DefaultWeights() Weights {
	return Weights{
		AlgorithmExact:       1.0,
		AlgorithmLevenshtein: 0.3,
		AlgorithmJaroWinkler: 0.3,
		AlgorithmNgram:       0.2,
		AlgorithmCosine:      0.1,
		AlgorithmSemantic:    0.1,
	}
}

// For returns the weight for alg, or UnknownWeight when unlisted
func (w Weights) For(alg Algorithm) float64 {
	if v, ok := w[alg]; ok {
		return v
	}
	return UnknownWeight
}

// Validate rejects negative or non-finite weights
func (w Weights) Validate() error {
	for alg, v := range w {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("weight for %s must be a non-negative number, got %v", alg, v)
		}
	}
	return nil
}

// IsKnownAlgorithm reports whether alg is one of the scoring algorithms or exact
func IsKnownAlgorithm(alg Algorithm) bool {
	for _, a := range AlgorithmOrder {
		if a == alg {
			return true
		}
	}
	return false
}

// LengthPenalty is sqrt(min/max) of the two lengths, 1 when both are 0.
func LengthPenalty(queryLen, candidateLen int) float64 {
	lo, hi := min(queryLen, candidateLen), max(queryLen, candidateLen)
	if hi <= 0 {
		return 1.0
	}
	if lo <= 0 {
		return 0
	}
	return math.Sqrt(float64(lo) / float64(hi))
}

// Aggregate combines per-algorithm scores into one confidence: the weighted
// mean over the computed algorithms times the length penalty. The dominant
// algorithm is the largest weighted contribution in AlgorithmOrder, then any
// unlisted names in sorted order; hybrid when nothing contributed.
func Aggregate(scores map[Algorithm]float64, w Weights, queryLen, candidateLen int) (float64, Algorithm) {
	var sum, total float64
	dominant := AlgorithmHybrid
	best := 0.0

	consider := func(alg Algorithm) {
		score, ok := scores[alg]
		if !ok {
			return
		}
		weight := w.For(alg)
		contribution := clamp01(score) * weight
		sum += contribution
		total += weight
		if contribution > best {
			best = contribution
			dominant = alg
		}
	}

	for _, alg := range AlgorithmOrder {
		consider(alg)
	}
	var extra []Algorithm
	for alg := range scores {
		if !IsKnownAlgorithm(alg) {
			extra = append(extra, alg)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	for _, alg := range extra {
		consider(alg)
	}

	if total == 0 {
		return 0, AlgorithmHybrid
	}
	return clamp01(sum / total * LengthPenalty(queryLen, candidateLen)), dominant
}

// ScoredCandidate is one corpus key scored against a query
type ScoredCandidate struct {
	Key        string
	Scores     map[Algorithm]float64
	Confidence float64
	Dominant   Algorithm
}

// String returns a human-readable representation of a ScoredCandidate
func (c ScoredCandidate) String() string {
	return fmt.Sprintf("ScoredCandidate{Key: %q, Confidence: %.3f, Dominant: %s}",
		c.Key, c.Confidence, c.Dominant)
}

// IsValidScore checks the confidence is within bounds
func (c ScoredCandidate) IsValidScore() bool {
	return c.Confidence >= 0.0 && c.Confidence <= 1.0
}

// SortCandidates orders by confidence descending, then key ascending
func SortCandidates(cs []ScoredCandidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Confidence != cs[j].Confidence {
			return cs[i].Confidence > cs[j].Confidence
		}
		return cs[i].Key < cs[j].Key
	})
}
