package semantic

import (
	"strings"
)

// NormalizedForm is the cleaned, tokenized view of a piece of text.
// Normalized is a pure function of Original and the normalizer options.
type NormalizedForm struct {
	Original      string
	Normalized    string
	Tokens        []string // after stop-word removal, before stemming
	StemmedTokens []string
}

// IsEmpty reports whether normalization left no tokens
func (f NormalizedForm) IsEmpty() bool {
	return len(f.StemmedTokens) == 0
}

// NormalizerOptions controls the optional pipeline stages
type NormalizerOptions struct {
	RemoveStopWords bool
	Stemming        bool
	StemAlgorithm   string
}

// DefaultNormalizerOptions enables every stage with the rule-based stemmer
func DefaultNormalizerOptions() NormalizerOptions {
	return NormalizerOptions{
		RemoveStopWords: true,
		Stemming:        true,
		StemAlgorithm:   StemAlgorithmRules,
	}
}

// Normalizer runs the text cleanup and tokenization pipeline.
// It holds no mutable state and is safe for concurrent use.
type Normalizer struct {
	opts    NormalizerOptions
	stemmer *Stemmer
	stops   map[string]bool
}

// NewNormalizer creates a normalizer for the given options
func NewNormalizer(opts NormalizerOptions) *Normalizer {
	stemmer := NewStemmer(opts.Stemming, opts.StemAlgorithm, MinStemLength, nil)

	// The stop set is closed under stemming so a stemmed stop word is still
	// a stop word on a second pass.
	stops := make(map[string]bool, len(stopWords)*2)
	for w := range stopWords {
		stops[w] = true
		stops[stemmer.Stem(w)] = true
	}

	return &Normalizer{
		opts:    opts,
		stemmer: stemmer,
		stops:   stops,
	}
}

// Options returns the options the normalizer was built with
func (n *Normalizer) Options() NormalizerOptions {
	return n.opts
}

// Stemmer exposes the stemmer used for the stemming stage
func (n *Normalizer) Stemmer() *Stemmer {
	return n.stemmer
}

// Normalize runs the full pipeline over text
func (n *Normalizer) Normalize(text string) NormalizedForm {
	cleaned := Clean(text)
	raw := Tokenize(cleaned)

	tokens := raw
	if n.opts.RemoveStopWords {
		tokens = n.removeStopWords(raw)
	}

	stemmed := tokens
	if n.opts.Stemming {
		stemmed = n.stemmer.StemAll(tokens)
	}

	return NormalizedForm{
		Original:      text,
		Normalized:    strings.Join(stemmed, " "),
		Tokens:        tokens,
		StemmedTokens: stemmed,
	}
}

// removeStopWords drops stop words, checking both the token and its stem so
// a second normalization pass cannot drop anything new. When every token is
// a stop word the input is kept whole; "who are you" style keys must not
// normalize to nothing.
func (n *Normalizer) removeStopWords(tokens []string) []string {
	kept := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if n.stops[tok] || n.stops[n.stemmer.Stem(tok)] {
			continue
		}
		kept = append(kept, tok)
	}
	if len(kept) == 0 {
		return tokens
	}
	return kept
}

// Clean case-folds text, expands contractions, and strips punctuation.
// Whitespace is collapsed and the result trimmed.
func Clean(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.NewReplacer("’", "'", "‘", "'", "ʼ", "'").Replace(s)

	for _, c := range contractions {
		s = c.pattern.ReplaceAllLiteralString(s, c.replacement)
	}

	s = nonWordChars.ReplaceAllLiteralString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// Tokenize splits cleaned text on whitespace. Leading and trailing
// apostrophes and hyphens are trimmed from each token; empty tokens are dropped.
func Tokenize(cleaned string) []string {
	fields := strings.Fields(cleaned)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if tok := strings.Trim(f, "'-"); tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}
