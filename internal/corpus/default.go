package corpus

// DefaultSource labels entries from the built-in corpus
const DefaultSource = "default"

// defaultResponses is the built-in conversational corpus
var defaultResponses = map[string]string{
	"hello":               "Hi there! How can I help you today?",
	"good morning":        "Good morning! What can I do for you?",
	"who are you":         "I'm QuickReply, a small assistant that answers common questions instantly.",
	"what is your name":   "My name is QuickReply.",
	"who created you":     "I was built by a small team of developers who like fast answers.",
	"what can you do":     "I can answer common questions, greet you, and tell the occasional joke.",
	"how are you":         "I'm doing great, thanks for asking! How about you?",
	"tell me a joke":      "Why do programmers prefer dark mode? Because light attracts bugs.",
	"thank you":           "You're welcome!",
	"goodbye":             "Goodbye! Have a great day.",
	"help":                "Ask me anything. If I don't know the answer, I'll hand you over to someone who does.",
	"what time is it":     "I don't have a clock, but your device surely does!",
	"are you a robot":     "I'm a program, not a robot, but I try to be helpful all the same.",
	"what is the weather": "I can't check the weather, but a weather app can.",
	"talk to a human":     "I'll let a teammate know you'd like to talk to a person.",
}

// Default returns the built-in corpus
func Default() *Corpus {
	b := NewBuilder()
	b.AddAll(DefaultSource, defaultResponses)
	c, err := b.Build()
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultResponses returns a copy of the built-in entries
func DefaultResponses() map[string]string {
	out := make(map[string]string, len(defaultResponses))
	for k, v := range defaultResponses {
		out[k] = v
	}
	return out
}
