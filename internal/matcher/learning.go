package matcher

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// LearningPattern tracks repeated inputs the engine could not confidently match
type LearningPattern struct {
	InputText         string    `json:"inputText"`
	Frequency         int       `json:"frequency"`
	FirstSeenAt       time.Time `json:"firstSeenAt"`
	LastSeenAt        time.Time `json:"lastSeenAt"`
	SuggestedKey      string    `json:"suggestedKey,omitempty"`
	SuggestedResponse string    `json:"suggestedResponse,omitempty"`
}

// LearningLog is an in-memory record of missed and below-threshold inputs.
// It grows until Clear is called.
type LearningLog struct {
	mu       sync.Mutex
	patterns map[string]*LearningPattern
	now      func() time.Time
}

// NewLearningLog creates an empty log
func NewLearningLog() *LearningLog {
	return &LearningLog{
		patterns: make(map[string]*LearningPattern),
		now:      time.Now,
	}
}

// patternKey case-folds and trims; it does not stem
func patternKey(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

// Record notes one sighting of input. suggestedKey and suggestedResponse
// are the best candidate when there was one; the latest sighting wins.
func (l *LearningLog) Record(input, suggestedKey, suggestedResponse string) {
	key := patternKey(input)
	if key == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	p, ok := l.patterns[key]
	if !ok {
		p = &LearningPattern{InputText: key, FirstSeenAt: now}
		l.patterns[key] = p
	}
	p.Frequency++
	p.LastSeenAt = now
	p.SuggestedKey = suggestedKey
	p.SuggestedResponse = suggestedResponse
}

// Get returns a copy of the pattern recorded for input
func (l *LearningLog) Get(input string) (LearningPattern, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.patterns[patternKey(input)]
	if !ok {
		return LearningPattern{}, false
	}
	return *p, true
}

// Patterns returns copies ordered by frequency, most frequent first.
// Ties go to the most recent, then to input text.
func (l *LearningLog) Patterns() []LearningPattern {
	l.mu.Lock()
	out := make([]LearningPattern, 0, len(l.patterns))
	for _, p := range l.patterns {
		out = append(out, *p)
	}
	l.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		if !out[i].LastSeenAt.Equal(out[j].LastSeenAt) {
			return out[i].LastSeenAt.After(out[j].LastSeenAt)
		}
		return out[i].InputText < out[j].InputText
	})
	return out
}

// Len returns the number of distinct patterns
func (l *LearningLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.patterns)
}

// Clear drops every pattern and returns how many were removed
func (l *LearningLog) Clear() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(l.patterns)
	l.patterns = make(map[string]*LearningPattern)
	return n
}
