package semantic

import "regexp"

// contraction is a single expansion rule. Rules are applied in table order
// so overlapping forms ("won't" before "n't") resolve deterministically.
type contraction struct {
	pattern     *regexp.Regexp
	replacement string
}

func wholeWord(form, replacement string) contraction {
	return contraction{pattern: regexp.MustCompile(`\b` + regexp.QuoteMeta(form) + `\b`), replacement: replacement}
}

func suffix(form, replacement string) contraction {
	return contraction{pattern: regexp.MustCompile(regexp.QuoteMeta(form) + `\b`), replacement: replacement}
}

var contractions = []contraction{
	wholeWord("won't", "will not"),
	wholeWord("can't", "cannot"),
	wholeWord("shan't", "shall not"),
	wholeWord("ain't", "is not"),
	wholeWord("let's", "let us"),
	wholeWord("it's", "it is"),
	wholeWord("that's", "that is"),
	wholeWord("what's", "what is"),
	wholeWord("who's", "who is"),
	wholeWord("how's", "how is"),
	wholeWord("where's", "where is"),
	wholeWord("there's", "there is"),
	wholeWord("here's", "here is"),
	wholeWord("he's", "he is"),
	wholeWord("she's", "she is"),
	suffix("n't", " not"),
	suffix("'re", " are"),
	suffix("'ve", " have"),
	suffix("'ll", " will"),
	suffix("'d", " would"),
	suffix("'m", " am"),
}

// nonWordChars matches everything except letters, marks, digits, underscore,
// whitespace, apostrophe and hyphen.
var nonWordChars = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\s'-]+`)

// stopWords holds function words and conversational filler
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true,
	"is": true, "am": true, "are": true, "was": true, "were": true,
	"be": true, "been": true, "being": true,
	"to": true, "of": true, "in": true, "on": true, "at": true, "by": true,
	"for": true, "with": true, "from": true, "into": true, "about": true,
	"and": true, "or": true, "but": true, "so": true, "if": true, "then": true, "than": true,
	"it": true, "its": true, "this": true, "that": true, "these": true, "those": true,
	"i": true, "me": true, "my": true, "mine": true, "we": true, "us": true, "our": true,
	"there": true, "here": true, "very": true, "really": true, "just": true,
	// filler
	"please": true, "pls": true, "kindly": true, "hey": true, "um": true, "uh": true,
	"umm": true, "oh": true, "ah": true, "hmm": true, "yo": true,
}

// IsStopWord reports whether word is in the fixed stop-word set
func IsStopWord(word string) bool {
	return stopWords[word]
}

// StemRule strips Suffix and appends Replacement when the word is at least
// MinLength runes long. A rule whose Replacement equals its Suffix is a
// guard: it matches and stops further rules from firing.
type StemRule struct {
	Suffix      string
	Replacement string
	MinLength   int
}

// DefaultStemRules is the ordered suffix rule list; first match wins.
var DefaultStemRules = []StemRule{
	{Suffix: "ies", Replacement: "y", MinLength: 5},
	{Suffix: "sses", Replacement: "ss", MinLength: 6},
	{Suffix: "ness", Replacement: "", MinLength: 7},
	{Suffix: "ss", Replacement: "ss", MinLength: 0},
	{Suffix: "us", Replacement: "us", MinLength: 0},
	{Suffix: "is", Replacement: "is", MinLength: 0},
	{Suffix: "ing", Replacement: "", MinLength: 6},
	{Suffix: "tion", Replacement: "", MinLength: 7},
	{Suffix: "ment", Replacement: "", MinLength: 7},
	{Suffix: "ful", Replacement: "", MinLength: 6},
	{Suffix: "ed", Replacement: "", MinLength: 5},
	{Suffix: "ly", Replacement: "", MinLength: 5},
	{Suffix: "es", Replacement: "", MinLength: 6},
	{Suffix: "s", Replacement: "", MinLength: 4},
}

// Concept is a named cluster of representative words
type Concept struct {
	Name  string
	Words map[string]bool
}

func concept(name string, words ...string) Concept {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return Concept{Name: name, Words: set}
}

// Concepts is the fixed vocabulary used by ConceptSimilarity, in evaluation order
var Concepts = []Concept{
	concept("greeting", "hello", "hi", "hey", "hiya", "howdy", "greetings", "morning", "afternoon", "evening", "sup", "yo"),
	concept("identity", "who", "name", "called", "yourself", "identity", "introduce", "you"),
	concept("creation", "create", "created", "creator", "made", "make", "maker", "built", "build", "developed", "developer", "author", "founder"),
	concept("capability", "can", "able", "capable", "capabilities", "features", "help", "do", "abilities", "skills"),
	concept("status", "how", "doing", "going", "status", "fine", "okay", "today", "feeling"),
	concept("humor", "joke", "jokes", "funny", "laugh", "humor", "humour", "hilarious", "pun"),
	concept("gratitude", "thanks", "thank", "thx", "appreciate", "grateful", "cheers", "ty"),
	concept("farewell", "bye", "goodbye", "farewell", "later", "cya", "night", "goodnight", "see"),
}
