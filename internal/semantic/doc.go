// Package semantic provides the text side of reply matching: normalization
// and the pairwise similarity algorithms the match engine combines.
//
// # Normalization
//
// Normalizer turns free text into a NormalizedForm:
//
//  1. Case-fold and trim
//  2. Expand contractions ("won't" → "will not")
//  3. Strip punctuation, collapse whitespace
//  4. Tokenize
//  5. Drop stop words and filler ("please", "hey")
//  6. Stem (rule table or porter2), applied to a fixed point
//
// Normalization is idempotent on the Normalized field.
//
// # Similarity
//
// Every algorithm returns a score in [0,1]:
//
//   - Levenshtein: 1 - edit distance / longer length (go-edlib)
//   - JaroWinkler: Jaro with a common-prefix boost
//   - NgramJaccard: padded character n-gram set overlap
//   - Cosine: term-frequency vectors over the stemmed tokens
//   - ConceptSimilarity: shared hits in fixed concept clusters
//
// Aggregate folds the per-algorithm scores into a single confidence using
// relative Weights and a sqrt length penalty, and reports which algorithm
// contributed most.
//
// # Usage Example
//
//	n := semantic.NewNormalizer(semantic.DefaultNormalizerOptions())
//	sim := semantic.NewSimilarityEngine(semantic.DefaultSimilarityOptions())
//
//	q, c := n.Normalize("helo"), n.Normalize("hello")
//	scores := sim.Score(q, c, semantic.ScoringAlgorithms)
//	confidence, dominant := semantic.Aggregate(scores, semantic.DefaultWeights(),
//		len(q.StemmedTokens), len(c.StemmedTokens))
//
// # Performance Considerations
//
// FormCache keeps recently normalized queries so repeated input skips the
// regex pipeline. The match engine owns one per configuration snapshot.
package semantic
