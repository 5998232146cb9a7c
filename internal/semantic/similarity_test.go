package semantic

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const epsilon = 1e-9

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b     string
		expected float64
	}{
		{"", "", 1.0},
		{"hello", "", 0.0},
		{"hello", "hello", 1.0},
		{"helo", "hello", 0.8},
		{"kitten", "sitting", 1 - 3.0/7.0},
		{"abc", "xyz", 0.0},
		{"café", "cafe", 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Levenshtein(tt.a, tt.b, DefaultEditMaxLength), epsilon)
		})
	}
}

func TestLevenshteinLongInputFallsBack(t *testing.T) {
	a := strings.Repeat("ab", 10)
	b := strings.Repeat("ab", 9) + "ax"

	assert.InDelta(t, JaroWinkler(a, b, DefaultJaroWinklerScale), Levenshtein(a, b, 10), epsilon)
	assert.InDelta(t, 0.95, Levenshtein(a, b, 100), epsilon)
}

func TestLevenshteinLongInputUsesGivenScale(t *testing.T) {
	a := strings.Repeat("ab", 10)
	b := strings.Repeat("ab", 9) + "ax"

	assert.InDelta(t, JaroWinkler(a, b, 0.2), LevenshteinWithScale(a, b, 10, 0.2), epsilon)
	assert.InDelta(t, JaroWinkler(a, b, 0), LevenshteinWithScale(a, b, 10, 0), epsilon)
	assert.Less(t, LevenshteinWithScale(a, b, 10, 0), LevenshteinWithScale(a, b, 10, 0.2))
}

func TestJaroWinkler(t *testing.T) {
	tests := []struct {
		a, b     string
		expected float64
	}{
		{"martha", "marhta", 0.9611111111},
		{"helo", "hello", 0.9533333333},
		{"dwayne", "duane", 0.84},
		{"abc", "abc", 1.0},
		{"abc", "xyz", 0.0},
		{"", "abc", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.InDelta(t, tt.expected, JaroWinkler(tt.a, tt.b, DefaultJaroWinklerScale), 1e-6)
		})
	}
}

func TestJaroWinklerPrefixScale(t *testing.T) {
	plain := JaroWinkler("martha", "marhta", 0)
	boosted := JaroWinkler("martha", "marhta", 0.2)

	assert.InDelta(t, 0.9444444444, plain, 1e-6)
	assert.Greater(t, boosted, plain)
	assert.LessOrEqual(t, boosted, 1.0)
}

func TestNgramJaccard(t *testing.T) {
	assert.Equal(t, 1.0, NgramJaccard("", "", 2))
	assert.Equal(t, 0.0, NgramJaccard("abc", "", 2))
	assert.Equal(t, 0.0, NgramJaccard("", "abc", 2))
	assert.InDelta(t, 5.0/6.0, NgramJaccard("helo", "hello", 2), epsilon)
	assert.Equal(t, 1.0, NgramJaccard("a", "a", 3))
	assert.Equal(t, 0.0, NgramJaccard("ab", "cd", 2))
	// zero n falls back to bigrams
	assert.Equal(t, NgramJaccard("helo", "hello", 2), NgramJaccard("helo", "hello", 0))
}

func TestCosine(t *testing.T) {
	assert.Equal(t, 0.0, Cosine(nil, []string{"a"}))
	assert.Equal(t, 0.0, Cosine([]string{"a"}, []string{"b"}))
	assert.Equal(t, 1.0, Cosine([]string{"tell", "joke"}, []string{"joke", "tell"}))
	assert.InDelta(t, 2/math.Sqrt(5), Cosine([]string{"a", "a", "b"}, []string{"a"}), epsilon)
}

func TestConceptSimilarity(t *testing.T) {
	assert.Equal(t, 0.0, ConceptSimilarity([]string{"hello"}, []string{"weather"}))
	assert.Equal(t, 1.0, ConceptSimilarity([]string{"hi"}, []string{"hello"}))
	assert.Equal(t, 0.5, ConceptSimilarity([]string{"hello"}, []string{"hi", "hey"}))
	assert.Equal(t, 1.0, ConceptSimilarity([]string{"who", "made"}, []string{"creator"}))
	assert.Equal(t, 0.0, ConceptSimilarity(nil, nil))
}

func TestSimilarityBoundsAndReflexivity(t *testing.T) {
	samples := []string{
		"hello", "helo", "who are you", "tell me a joke", "x", "ünïcödé",
		"what can you do", strings.Repeat("long input ", 200), "12345", "a-b c'd",
	}
	sim := NewSimilarityEngine(DefaultSimilarityOptions())

	for _, a := range samples {
		ta := strings.Fields(a)
		assert.InDelta(t, 1.0, Levenshtein(a, a, DefaultEditMaxLength), epsilon, "levenshtein reflexive %q", a)
		assert.InDelta(t, 1.0, JaroWinkler(a, a, DefaultJaroWinklerScale), epsilon, "jaroWinkler reflexive %q", a)
		assert.InDelta(t, 1.0, NgramJaccard(a, a, DefaultCharGramSize), epsilon, "ngram reflexive %q", a)
		assert.InDelta(t, 1.0, Cosine(ta, ta), epsilon, "cosine reflexive %q", a)

		for _, b := range samples {
			tb := strings.Fields(b)
			scores := map[Algorithm]float64{
				AlgorithmLevenshtein: Levenshtein(a, b, DefaultEditMaxLength),
				AlgorithmJaroWinkler: JaroWinkler(a, b, DefaultJaroWinklerScale),
				AlgorithmNgram:       NgramJaccard(a, b, DefaultCharGramSize),
				AlgorithmCosine:      Cosine(ta, tb),
				AlgorithmSemantic:    ConceptSimilarity(ta, tb),
			}
			for alg, v := range scores {
				assert.GreaterOrEqual(t, v, 0.0, "%s(%q, %q)", alg, a, b)
				assert.LessOrEqual(t, v, 1.0, "%s(%q, %q)", alg, a, b)
			}

			form := func(s string, toks []string) NormalizedForm {
				return NormalizedForm{Original: s, Normalized: s, Tokens: toks, StemmedTokens: toks}
			}
			for alg, v := range sim.Score(form(a, ta), form(b, tb), ScoringAlgorithms) {
				assert.True(t, v >= 0 && v <= 1, "engine %s(%q, %q) = %v", alg, a, b, v)
			}
		}
	}
}

func TestSimilarityEngineScore(t *testing.T) {
	n := NewNormalizer(DefaultNormalizerOptions())
	sim := NewSimilarityEngine(SimilarityOptions{JaroWinklerScale: DefaultJaroWinklerScale})

	assert.Equal(t, DefaultSimilarityOptions(), sim.Options())

	scores := sim.Score(n.Normalize("helo"), n.Normalize("hello"), ScoringAlgorithms)
	assert.Len(t, scores, len(ScoringAlgorithms))
	assert.InDelta(t, 0.8, scores[AlgorithmLevenshtein], epsilon)
	assert.InDelta(t, 0.9533333333, scores[AlgorithmJaroWinkler], 1e-6)
	assert.InDelta(t, 5.0/6.0, scores[AlgorithmNgram], epsilon)
	assert.Equal(t, 0.0, scores[AlgorithmCosine])
	assert.Equal(t, 0.0, scores[AlgorithmSemantic])

	only := sim.Score(n.Normalize("helo"), n.Normalize("hello"), []Algorithm{AlgorithmCosine, AlgorithmExact})
	assert.Len(t, only, 1)
	assert.Contains(t, only, AlgorithmCosine)
}

func TestSimilarityEngineZeroScaleDisablesPrefixBoost(t *testing.T) {
	sim := NewSimilarityEngine(SimilarityOptions{JaroWinklerScale: 0})
	assert.Equal(t, 0.0, sim.Options().JaroWinklerScale)
	assert.Equal(t, DefaultCharGramSize, sim.Options().CharGramSize)
	assert.Equal(t, DefaultEditMaxLength, sim.Options().EditMaxLength)

	q := NormalizedForm{Normalized: "helo"}
	c := NormalizedForm{Normalized: "hello"}
	scores := sim.Score(q, c, []Algorithm{AlgorithmJaroWinkler})
	assert.InDelta(t, JaroWinkler("helo", "hello", 0), scores[AlgorithmJaroWinkler], 1e-9)
	assert.Less(t, scores[AlgorithmJaroWinkler], JaroWinkler("helo", "hello", DefaultJaroWinklerScale))

	negative := NewSimilarityEngine(SimilarityOptions{JaroWinklerScale: -1})
	assert.Equal(t, DefaultJaroWinklerScale, negative.Options().JaroWinklerScale)
}

func TestSimilarityEngineLongInputUsesConfiguredScale(t *testing.T) {
	sim := NewSimilarityEngine(SimilarityOptions{JaroWinklerScale: 0.2, EditMaxLength: 10})
	a := strings.Repeat("ab", 10)
	b := strings.Repeat("ab", 9) + "ax"

	scores := sim.Score(NormalizedForm{Normalized: a}, NormalizedForm{Normalized: b}, []Algorithm{AlgorithmLevenshtein})
	assert.InDelta(t, JaroWinkler(a, b, 0.2), scores[AlgorithmLevenshtein], epsilon)
}
