package semantic

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/surgebase/porter2"
)

// Stemming algorithms
const (
	StemAlgorithmRules   = "rules"
	StemAlgorithmPorter2 = "porter2"
	StemAlgorithmNone    = "none"
)

// MinStemLength is the shortest word any algorithm will touch
const MinStemLength = 3

// maxStemPasses bounds the fixed-point loop for algorithms that are not
// guaranteed to shorten on every pass.
const maxStemPasses = 8

// Stemmer reduces words to a root form so "jokes" and "joke" compare equal.
// Stems are applied to a fixed point: Stem(Stem(w)) == Stem(w).
type Stemmer struct {
	enabled    bool
	algorithm  string
	minLength  int
	exclusions map[string]bool // Words to never stem
	rules      []StemRule
}

// NewStemmer creates a new stemmer with configuration
func NewStemmer(enabled bool, algorithm string, minLength int, exclusions map[string]bool) *Stemmer {
	if algorithm == "" {
		algorithm = StemAlgorithmRules
	}

	if minLength < MinStemLength {
		minLength = MinStemLength
	}

	if exclusions == nil {
		exclusions = make(map[string]bool)
	}

	return &Stemmer{
		enabled:    enabled,
		algorithm:  algorithm,
		minLength:  minLength,
		exclusions: exclusions,
		rules:      DefaultStemRules,
	}
}

// IsEnabled checks if stemming is enabled
func (s *Stemmer) IsEnabled() bool {
	return s.enabled
}

// GetAlgorithm returns the configured algorithm
func (s *Stemmer) GetAlgorithm() string {
	return s.algorithm
}

// GetMinLength returns the minimum word length for stemming
func (s *Stemmer) GetMinLength() int {
	return s.minLength
}

// IsExcluded checks if a word is in the exclusion list
func (s *Stemmer) IsExcluded(word string) bool {
	return s.exclusions[word]
}

// Stem returns the stem of a word, or the original word if stemming is disabled/excluded
func (s *Stemmer) Stem(word string) string {
	if !s.enabled || s.exclusions[word] {
		return word
	}
	// o'clock, rock'n'roll: stripping a suffix could expose a contraction
	if strings.ContainsRune(word, '\'') {
		return word
	}

	for pass := 0; pass < maxStemPasses; pass++ {
		next := s.stemOnce(word)
		// "re-ed" must not become "re-": tokenizing again would trim the hyphen
		if next == word || strings.HasSuffix(next, "-") {
			return word
		}
		word = next
	}
	return word
}

func (s *Stemmer) stemOnce(word string) string {
	if utf8.RuneCountInString(word) < s.minLength {
		return word
	}

	switch s.algorithm {
	case StemAlgorithmPorter2:
		stem := porter2.Stem(word)
		if utf8.RuneCountInString(stem) < MinStemLength-1 {
			return word
		}
		return stem
	case StemAlgorithmNone:
		return word
	default:
		return s.applyRules(word)
	}
}

// applyRules applies the first matching suffix rule
func (s *Stemmer) applyRules(word string) string {
	n := utf8.RuneCountInString(word)
	for _, rule := range s.rules {
		if !strings.HasSuffix(word, rule.Suffix) {
			continue
		}
		if n < rule.MinLength {
			continue
		}
		return strings.TrimSuffix(word, rule.Suffix) + rule.Replacement
	}
	return word
}

// StemAll applies stemming to multiple words
func (s *Stemmer) StemAll(words []string) []string {
	result := make([]string, 0, len(words))
	for _, word := range words {
		result = append(result, s.Stem(word))
	}
	return result
}

// ValidateConfig validates the stemmer configuration
func (s *Stemmer) ValidateConfig() error {
	validAlgorithms := map[string]bool{
		StemAlgorithmRules:   true,
		StemAlgorithmPorter2: true,
		StemAlgorithmNone:    true,
	}

	if !validAlgorithms[s.algorithm] {
		return fmt.Errorf("invalid algorithm: %s (must be rules, porter2 or none)", s.algorithm)
	}

	return nil
}
