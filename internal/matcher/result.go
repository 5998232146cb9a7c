package matcher

import (
	"fmt"
	"time"

	"github.com/standardbeagle/quickreply/internal/semantic"
)

// FailureKind classifies a degraded result. Empty means the pipeline ran normally.
type FailureKind string

const (
	FailureNone         FailureKind = ""
	FailureTimeout      FailureKind = "timeout"
	FailureCircuitOpen  FailureKind = "circuit_open"
	FailureInternal     FailureKind = "internal"
	FailureInvalidInput FailureKind = "invalid_input"
)

// User-facing messages for degraded results
const (
	MessageTimeout     = "Matching took too long; showing a quick best guess."
	MessageCircuitOpen = "Matching is temporarily unavailable; showing a quick best guess."
)

// MatchResult is the sole artifact a match call returns
type MatchResult struct {
	// Match is the accepted corpus key; empty when nothing reached the threshold
	Match             string             `json:"match,omitempty"`
	Confidence        float64            `json:"confidence"`
	SuggestedResponse string             `json:"suggestedResponse,omitempty"`
	AlgorithmUsed     semantic.Algorithm `json:"algorithmUsed"`
	ProcessingTime    time.Duration      `json:"-"`
	ProcessingTimeMs  float64            `json:"processingTimeMs"`
	Error             string             `json:"error,omitempty"`
	Failure           FailureKind        `json:"failure,omitempty"`
	Debug             *DebugInfo         `json:"debugInfo,omitempty"`
}

// Matched reports whether a key was accepted
func (r MatchResult) Matched() bool {
	return r.Match != ""
}

// Degraded reports whether the result came from a failure path
func (r MatchResult) Degraded() bool {
	return r.Failure != FailureNone
}

// String returns a compact human-readable summary
func (r MatchResult) String() string {
	match := r.Match
	if match == "" {
		match = "<none>"
	}
	s := fmt.Sprintf("%s (confidence %.3f, %s, %.2fms)", match, r.Confidence, r.AlgorithmUsed, r.ProcessingTimeMs)
	if r.Failure != FailureNone {
		s += fmt.Sprintf(" [%s]", r.Failure)
	}
	return s
}

func (r *MatchResult) finish(start time.Time) {
	r.ProcessingTime = time.Since(start)
	r.ProcessingTimeMs = float64(r.ProcessingTime.Microseconds()) / 1000
}

// DebugInfo explains how a result was reached
type DebugInfo struct {
	Normalized     string           `json:"normalized"`
	Tier           string           `json:"tier"`
	NgramHits      int              `json:"ngramHits"`
	OverlapHits    int              `json:"overlapHits"`
	ExhaustiveHits int              `json:"exhaustiveHits"`
	Candidates     []CandidateDebug `json:"candidates,omitempty"`
}

// CandidateDebug is one scored candidate in debug output
type CandidateDebug struct {
	Key        string                         `json:"key"`
	Confidence float64                        `json:"confidence"`
	Dominant   semantic.Algorithm             `json:"dominant"`
	Scores     map[semantic.Algorithm]float64 `json:"scores"`
}

// maxDebugCandidates caps the candidates listed in DebugInfo
const maxDebugCandidates = 5
