package semantic

import (
	"math"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// Similarity defaults
const (
	DefaultCharGramSize     = 2
	DefaultJaroWinklerScale = 0.1
	DefaultEditMaxLength    = 1000

	// jaroPrefixLimit caps the common prefix the Winkler boost rewards
	jaroPrefixLimit = 4
	// gramPad marks string boundaries in padded character n-grams
	gramPad = '\x00'
)

// Levenshtein returns 1 - distance/max(len) over runes. Two empty strings
// are identical. Inputs longer than maxLen runes are scored with
// Jaro-Winkler instead of filling the full distance matrix.
func Levenshtein(a, b string, maxLen int) float64 {
	return LevenshteinWithScale(a, b, maxLen, DefaultJaroWinklerScale)
}

// LevenshteinWithScale is Levenshtein with the prefix scale used by the
// Jaro-Winkler fallback for long inputs
func LevenshteinWithScale(a, b string, maxLen int, scale float64) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := max(la, lb)
	if longest == 0 {
		return 1.0
	}
	if maxLen > 0 && longest > maxLen {
		return JaroWinkler(a, b, scale)
	}
	if a == b {
		return 1.0
	}

	distance := edlib.LevenshteinDistance(a, b)
	return clamp01(1.0 - float64(distance)/float64(longest))
}

// JaroWinkler returns the Jaro similarity with the Winkler common-prefix
// boost. The prefix is capped at four runes; scale must stay at or below
// 0.25 for the result to remain in [0,1].
func JaroWinkler(a, b string, scale float64) float64 {
	if a == b {
		return 1.0
	}
	ra, rb := []rune(a), []rune(b)
	j := jaro(ra, rb)
	if j == 0 {
		return 0
	}

	prefix := 0
	for prefix < len(ra) && prefix < len(rb) && prefix < jaroPrefixLimit && ra[prefix] == rb[prefix] {
		prefix++
	}

	return clamp01(j + float64(prefix)*scale*(1-j))
}

func jaro(a, b []rune) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	window := max(len(a), len(b))/2 - 1
	if window < 0 {
		window = 0
	}

	matchedA := make([]bool, len(a))
	matchedB := make([]bool, len(b))
	matches := 0
	for i := range a {
		lo := max(0, i-window)
		hi := min(len(b), i+window+1)
		for k := lo; k < hi; k++ {
			if matchedB[k] || a[i] != b[k] {
				continue
			}
			matchedA[i], matchedB[k] = true, true
			matches++
			break
		}
	}
	if matches == 0 {
		return 0
	}

	transpositions := 0
	k := 0
	for i := range a {
		if !matchedA[i] {
			continue
		}
		for !matchedB[k] {
			k++
		}
		if a[i] != b[k] {
			transpositions++
		}
		k++
	}

	m := float64(matches)
	return (m/float64(len(a)) + m/float64(len(b)) + (m-float64(transpositions)/2)/m) / 3
}

// NgramJaccard compares the character n-gram sets of a and b. Each string
// is padded with n-1 boundary markers on both ends so short strings still
// produce grams. Two empty strings score 1; exactly one empty scores 0.
func NgramJaccard(a, b string, n int) float64 {
	if n < 1 {
		n = DefaultCharGramSize
	}
	if a == "" && b == "" {
		return 1.0
	}
	if a == "" || b == "" {
		return 0
	}

	ga, gb := charGrams(a, n), charGrams(b, n)
	intersection := 0
	for g := range ga {
		if gb[g] {
			intersection++
		}
	}
	union := len(ga) + len(gb) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func charGrams(s string, n int) map[string]bool {
	runes := make([]rune, 0, utf8.RuneCountInString(s)+2*(n-1))
	for i := 0; i < n-1; i++ {
		runes = append(runes, gramPad)
	}
	for _, r := range s {
		runes = append(runes, r)
	}
	for i := 0; i < n-1; i++ {
		runes = append(runes, gramPad)
	}

	grams := make(map[string]bool, len(runes))
	for i := 0; i+n <= len(runes); i++ {
		grams[string(runes[i:i+n])] = true
	}
	return grams
}

// Cosine returns the cosine of the term-frequency vectors of two token
// sequences. Either side having no tokens scores 0.
func Cosine(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	tfA := termFrequencies(a)
	tfB := termFrequencies(b)

	var dot, magA, magB float64
	for term, fa := range tfA {
		magA += fa * fa
		dot += fa * tfB[term]
	}
	for _, fb := range tfB {
		magB += fb * fb
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	// one sqrt keeps identical vectors at exactly 1
	return clamp01(dot / math.Sqrt(magA*magB))
}

func termFrequencies(tokens []string) map[string]float64 {
	tf := make(map[string]float64, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}
	return tf
}

// ConceptSimilarity scores how strongly two token sequences hit the same
// concept cluster: per cluster min/max of the hit counts when both sides
// hit, maximum over clusters.
func ConceptSimilarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	best := 0.0
	for _, c := range Concepts {
		ca, cb := conceptHits(c, a), conceptHits(c, b)
		if ca == 0 || cb == 0 {
			continue
		}
		if s := float64(min(ca, cb)) / float64(max(ca, cb)); s > best {
			best = s
		}
	}
	return best
}

func conceptHits(c Concept, tokens []string) int {
	hits := 0
	for _, t := range tokens {
		if c.Words[t] {
			hits++
		}
	}
	return hits
}

// SimilarityOptions tunes the individual algorithms
type SimilarityOptions struct {
	CharGramSize     int
	JaroWinklerScale float64
	EditMaxLength    int
}

// DefaultSimilarityOptions returns the stock tuning
func DefaultSimilarityOptions() SimilarityOptions {
	return SimilarityOptions{
		CharGramSize:     DefaultCharGramSize,
		JaroWinklerScale: DefaultJaroWinklerScale,
		EditMaxLength:    DefaultEditMaxLength,
	}
}

// SimilarityEngine computes every enabled algorithm for a query/candidate pair
type SimilarityEngine struct {
	opts SimilarityOptions
}

// NewSimilarityEngine creates an engine, filling unset options with
// defaults. A zero JaroWinklerScale is kept and disables the prefix boost.
func NewSimilarityEngine(opts SimilarityOptions) *SimilarityEngine {
	def := DefaultSimilarityOptions()
	if opts.CharGramSize <= 0 {
		opts.CharGramSize = def.CharGramSize
	}
	if opts.JaroWinklerScale < 0 {
		opts.JaroWinklerScale = def.JaroWinklerScale
	}
	if opts.EditMaxLength <= 0 {
		opts.EditMaxLength = def.EditMaxLength
	}
	return &SimilarityEngine{opts: opts}
}

// Options returns the effective options
func (e *SimilarityEngine) Options() SimilarityOptions {
	return e.opts
}

// Score runs each enabled algorithm. String algorithms compare the
// normalized forms; token algorithms compare the stemmed tokens, except
// concept grouping which looks at the un-stemmed tokens the clusters list.
// Exact is never scored here; it is a short circuit in the engine.
func (e *SimilarityEngine) Score(q, c NormalizedForm, enabled []Algorithm) map[Algorithm]float64 {
	scores := make(map[Algorithm]float64, len(enabled))
	for _, alg := range enabled {
		switch alg {
		case AlgorithmLevenshtein:
			scores[alg] = LevenshteinWithScale(q.Normalized, c.Normalized, e.opts.EditMaxLength, e.opts.JaroWinklerScale)
		case AlgorithmJaroWinkler:
			scores[alg] = JaroWinkler(q.Normalized, c.Normalized, e.opts.JaroWinklerScale)
		case AlgorithmNgram:
			scores[alg] = NgramJaccard(q.Normalized, c.Normalized, e.opts.CharGramSize)
		case AlgorithmCosine:
			scores[alg] = Cosine(q.StemmedTokens, c.StemmedTokens)
		case AlgorithmSemantic:
			scores[alg] = ConceptSimilarity(q.Tokens, c.Tokens)
		}
	}
	return scores
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
