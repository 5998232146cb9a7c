package index

import (
	"fmt"
	"strings"

	"github.com/standardbeagle/quickreply/internal/semantic"
)

// Index defaults
const (
	DefaultMinN = 1
	DefaultMaxN = 3

	// overlapTrigger: tier 2 runs when tier 1 found fewer candidates
	overlapTrigger = 3
	// exhaustiveTrigger: tier 3 runs when tiers 1-2 found fewer candidates
	exhaustiveTrigger = 2
	// ExhaustiveLimit is the corpus size below which tier 3 may return every key
	ExhaustiveLimit = 20
)

// Tier identifies which retrieval strategy produced candidates
type Tier int

const (
	TierNone Tier = iota
	TierNgram
	TierOverlap
	TierExhaustive
)

// String returns the tier name used in debug output
func (t Tier) String() string {
	switch t {
	case TierNgram:
		return "ngram"
	case TierOverlap:
		return "overlap"
	case TierExhaustive:
		return "exhaustive"
	default:
		return "none"
	}
}

// Entry is one indexed corpus key with its normalized form
type Entry struct {
	Key  string
	Form semantic.NormalizedForm
}

// Options bounds the word n-gram sizes stored in the index
type Options struct {
	MinN int
	MaxN int
}

// DefaultOptions returns unigrams through trigrams
func DefaultOptions() Options {
	return Options{MinN: DefaultMinN, MaxN: DefaultMaxN}
}

// Validate checks 1 <= MinN <= MaxN
func (o Options) Validate() error {
	if o.MinN < 1 {
		return fmt.Errorf("min n-gram size must be at least 1, got %d", o.MinN)
	}
	if o.MaxN < o.MinN {
		return fmt.Errorf("max n-gram size %d is smaller than min %d", o.MaxN, o.MinN)
	}
	return nil
}

// NgramIndex maps word n-grams of the corpus forms to posting lists of
// entry ids. It is built once and never mutated, so concurrent readers
// need no locking.
type NgramIndex struct {
	opts      Options
	entries   []Entry
	postings  map[string][]int
	tokenSets []map[string]struct{}
}

// Retrieval is the outcome of one candidate lookup
type Retrieval struct {
	// IDs are entry ids in corpus order
	IDs []int

	// Per-tier contributions
	NgramHits      int
	OverlapHits    int
	ExhaustiveHits int

	// Deepest tier that ran
	Tier Tier
}

// Len returns the number of candidates
func (r Retrieval) Len() int {
	return len(r.IDs)
}

// New builds the index over entries in the given order
func New(entries []Entry, opts Options) (*NgramIndex, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	ix := &NgramIndex{
		opts:      opts,
		entries:   entries,
		postings:  make(map[string][]int),
		tokenSets: make([]map[string]struct{}, len(entries)),
	}

	for id, e := range entries {
		set := make(map[string]struct{}, len(e.Form.StemmedTokens))
		for _, tok := range e.Form.StemmedTokens {
			set[tok] = struct{}{}
		}
		ix.tokenSets[id] = set

		seen := make(map[string]bool)
		for n := opts.MinN; n <= opts.MaxN; n++ {
			for _, gram := range Ngrams(e.Form.StemmedTokens, n) {
				if seen[gram] {
					continue
				}
				seen[gram] = true
				ix.postings[gram] = append(ix.postings[gram], id)
			}
		}
	}

	return ix, nil
}

// Ngrams returns the contiguous n-token sequences of tokens, space-joined
func Ngrams(tokens []string, n int) []string {
	if n < 1 || len(tokens) < n {
		return nil
	}
	grams := make([]string, 0, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		grams = append(grams, strings.Join(tokens[i:i+n], " "))
	}
	return grams
}

// Len returns the number of indexed entries
func (ix *NgramIndex) Len() int {
	return len(ix.entries)
}

// NgramCount returns the number of distinct n-grams in the index
func (ix *NgramIndex) NgramCount() int {
	return len(ix.postings)
}

// Options returns the options the index was built with
func (ix *NgramIndex) Options() Options {
	return ix.opts
}

// Entry returns the entry for id
func (ix *NgramIndex) Entry(id int) Entry {
	return ix.entries[id]
}

// Entries returns all entries in corpus order. The slice must not be modified.
func (ix *NgramIndex) Entries() []Entry {
	return ix.entries
}

// Postings returns the entry ids containing gram
func (ix *NgramIndex) Postings(gram string) []int {
	return ix.postings[gram]
}

// Candidates runs the three retrieval tiers, accumulating into one set:
//
//  1. union of posting lists for the query's MinN-grams
//  2. below 3 candidates: keys sharing enough stemmed tokens with the query
//  3. below 2 candidates and a corpus under 20 keys: every key
func (ix *NgramIndex) Candidates(q semantic.NormalizedForm) Retrieval {
	var r Retrieval
	selected := make([]bool, len(ix.entries))
	count := 0
	add := func(id int) bool {
		if selected[id] {
			return false
		}
		selected[id] = true
		count++
		return true
	}

	for _, gram := range Ngrams(q.StemmedTokens, ix.opts.MinN) {
		for _, id := range ix.postings[gram] {
			if add(id) {
				r.NgramHits++
			}
		}
	}
	if count > 0 {
		r.Tier = TierNgram
	}

	if count < overlapTrigger {
		r.Tier = max(r.Tier, TierOverlap)
		qset := make(map[string]struct{}, len(q.StemmedTokens))
		for _, tok := range q.StemmedTokens {
			qset[tok] = struct{}{}
		}
		for id, kset := range ix.tokenSets {
			if selected[id] {
				continue
			}
			if overlap(qset, kset) >= overlapThreshold(len(qset), len(kset)) && add(id) {
				r.OverlapHits++
			}
		}
	}

	if count < exhaustiveTrigger && len(ix.entries) < ExhaustiveLimit {
		r.Tier = TierExhaustive
		for id := range ix.entries {
			if add(id) {
				r.ExhaustiveHits++
			}
		}
	}

	r.IDs = make([]int, 0, count)
	for id, ok := range selected {
		if ok {
			r.IDs = append(r.IDs, id)
		}
	}
	return r
}

// overlapThreshold is min(2, floor(min(|q|,|k|)/2)), raised to 1 so a key
// sharing nothing with the query never qualifies.
func overlapThreshold(qLen, kLen int) int {
	return max(1, min(2, min(qLen, kLen)/2))
}

func overlap(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			n++
		}
	}
	return n
}
