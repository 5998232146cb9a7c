package semantic

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightsFor(t *testing.T) {
	w := DefaultWeights()

	assert.Equal(t, 0.3, w.For(AlgorithmLevenshtein))
	assert.Equal(t, 1.0, w.For(AlgorithmExact))
	assert.Equal(t, UnknownWeight, w.For(Algorithm("soundex")))
	require.NoError(t, w.Validate())

	assert.Error(t, Weights{AlgorithmCosine: -1}.Validate())
	assert.Error(t, Weights{AlgorithmCosine: math.NaN()}.Validate())
}

func TestLengthPenalty(t *testing.T) {
	assert.Equal(t, 1.0, LengthPenalty(0, 0))
	assert.Equal(t, 1.0, LengthPenalty(3, 3))
	assert.Equal(t, 0.0, LengthPenalty(0, 3))
	assert.InDelta(t, 0.5, LengthPenalty(1, 4), epsilon)
	assert.InDelta(t, 0.5, LengthPenalty(4, 1), epsilon)
}

func TestAggregate(t *testing.T) {
	scores := map[Algorithm]float64{
		AlgorithmLevenshtein: 0.8,
		AlgorithmJaroWinkler: 0.9533333333,
		AlgorithmNgram:       5.0 / 6.0,
		AlgorithmCosine:      0,
		AlgorithmSemantic:    0,
	}

	confidence, dominant := Aggregate(scores, DefaultWeights(), 1, 1)

	expected := (0.8*0.3 + 0.9533333333*0.3 + 5.0/6.0*0.2) / 0.9
	assert.InDelta(t, expected, confidence, 1e-9)
	assert.Equal(t, AlgorithmJaroWinkler, dominant)
}

func TestAggregateHybridWhenNothingContributes(t *testing.T) {
	scores := map[Algorithm]float64{AlgorithmLevenshtein: 0, AlgorithmCosine: 0}

	confidence, dominant := Aggregate(scores, DefaultWeights(), 2, 3)
	assert.Equal(t, 0.0, confidence)
	assert.Equal(t, AlgorithmHybrid, dominant)

	confidence, dominant = Aggregate(nil, DefaultWeights(), 1, 1)
	assert.Equal(t, 0.0, confidence)
	assert.Equal(t, AlgorithmHybrid, dominant)
}

func TestAggregateTiesResolveInEnumerationOrder(t *testing.T) {
	scores := map[Algorithm]float64{
		AlgorithmSemantic:    1,
		AlgorithmCosine:      1,
		AlgorithmLevenshtein: 1,
	}
	w := Weights{AlgorithmSemantic: 0.5, AlgorithmCosine: 0.5, AlgorithmLevenshtein: 0.5}

	_, dominant := Aggregate(scores, w, 1, 1)
	assert.Equal(t, AlgorithmLevenshtein, dominant)
}

func TestAggregateUnknownAlgorithmWeight(t *testing.T) {
	scores := map[Algorithm]float64{Algorithm("soundex"): 1, AlgorithmCosine: 0}

	confidence, dominant := Aggregate(scores, Weights{AlgorithmCosine: 0.1}, 1, 1)
	assert.InDelta(t, 0.5, confidence, epsilon)
	assert.Equal(t, Algorithm("soundex"), dominant)
}

func TestAggregateMonotonicInLengthRatio(t *testing.T) {
	scores := map[Algorithm]float64{
		AlgorithmLevenshtein: 0.7,
		AlgorithmJaroWinkler: 0.85,
		AlgorithmNgram:       0.5,
		AlgorithmCosine:      0.4,
		AlgorithmSemantic:    1,
	}

	prev := math.Inf(1)
	for candidateLen := 4; candidateLen <= 40; candidateLen++ {
		confidence, _ := Aggregate(scores, DefaultWeights(), 4, candidateLen)
		assert.LessOrEqual(t, confidence, prev, "candidate length %d", candidateLen)
		assert.True(t, confidence >= 0 && confidence <= 1)
		prev = confidence
	}
}

func TestSortCandidates(t *testing.T) {
	cs := []ScoredCandidate{
		{Key: "b", Confidence: 0.5},
		{Key: "c", Confidence: 0.9},
		{Key: "a", Confidence: 0.5},
	}
	SortCandidates(cs)

	assert.Equal(t, []string{"c", "a", "b"}, []string{cs[0].Key, cs[1].Key, cs[2].Key})
	assert.True(t, cs[0].IsValidScore())
	assert.Contains(t, cs[0].String(), `"c"`)
}
