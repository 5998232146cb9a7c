package matcher

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/standardbeagle/quickreply/internal/config"
	"github.com/standardbeagle/quickreply/internal/corpus"
	qrerrors "github.com/standardbeagle/quickreply/internal/errors"
	"github.com/standardbeagle/quickreply/internal/index"
	"github.com/standardbeagle/quickreply/internal/logging"
	"github.com/standardbeagle/quickreply/internal/semantic"
)

// FallbackConfidence is the fixed confidence of a containment fallback hit
const FallbackConfidence = 0.5

// snapshot is everything a match call reads. It is immutable once published;
// corpus and configuration changes build a new one.
type snapshot struct {
	cfg    *config.Config
	corpus *corpus.Corpus

	keys         []string
	foldedKeys   []string
	byKey        map[string]int
	byFolded     map[string]int
	byNormalized map[string]int

	index      *index.NgramIndex
	normalizer *semantic.Normalizer
	similarity *semantic.SimilarityEngine
	queryCache *semantic.FormCache
}

func buildSnapshot(cfg *config.Config, c *corpus.Corpus) (*snapshot, error) {
	normalizer := semantic.NewNormalizer(cfg.NormalizerOptions())

	keys := c.Keys()
	s := &snapshot{
		cfg:          cfg,
		corpus:       c,
		keys:         keys,
		foldedKeys:   make([]string, len(keys)),
		byKey:        make(map[string]int, len(keys)),
		byFolded:     make(map[string]int, len(keys)),
		byNormalized: make(map[string]int, len(keys)),
		normalizer:   normalizer,
		similarity:   semantic.NewSimilarityEngine(cfg.SimilarityOptions()),
		queryCache:   semantic.NewFormCache(cfg.Limits.QueryCacheSize),
	}

	entries := make([]index.Entry, len(keys))
	for id, key := range keys {
		form := normalizer.Normalize(key)
		entries[id] = index.Entry{Key: key, Form: form}

		folded := strings.ToLower(key)
		s.foldedKeys[id] = folded
		s.byKey[key] = id
		if _, ok := s.byFolded[folded]; !ok {
			s.byFolded[folded] = id
		}
		if form.Normalized != "" {
			if _, ok := s.byNormalized[form.Normalized]; !ok {
				s.byNormalized[form.Normalized] = id
			}
		}
	}

	ix, err := index.New(entries, cfg.IndexOptions())
	if err != nil {
		return nil, qrerrors.NewConfigError("index", "", err)
	}
	s.index = ix
	return s, nil
}

// exact finds a key equal to the input verbatim, then case-folded, then by
// normalized form
func (s *snapshot) exact(trimmed string, form semantic.NormalizedForm) (int, bool) {
	if id, ok := s.byKey[trimmed]; ok {
		return id, true
	}
	if id, ok := s.byFolded[strings.ToLower(trimmed)]; ok {
		return id, true
	}
	if form.Normalized == "" {
		return 0, false
	}
	id, ok := s.byNormalized[form.Normalized]
	return id, ok
}

func (s *snapshot) response(id int) string {
	r, _ := s.corpus.Response(s.keys[id])
	return r
}

// validate checks input before any normalization. The hard ceiling is
// checked first so oversized input is classified by the stricter limit.
func (s *snapshot) validate(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", qrerrors.NewValidationError(qrerrors.ErrEmptyInput, 0, 0)
	}

	n := utf8.RuneCountInString(trimmed)
	if ceiling := s.cfg.Limits.HardCeiling; ceiling > 0 && n > ceiling {
		return "", qrerrors.NewValidationError(qrerrors.ErrInputExceedsCeiling, n, ceiling)
	}
	if limit := s.cfg.EffectiveMaxInputLength(); limit > 0 && n > limit {
		return "", qrerrors.NewValidationError(qrerrors.ErrInputTooLong, n, limit)
	}
	return trimmed, nil
}

// Engine matches free-text input against a response corpus.
// Safe for concurrent use; Reload and Configure swap state between calls.
type Engine struct {
	state    atomic.Pointer[snapshot]
	updateMu sync.Mutex
	learning *LearningLog
	logger   *zap.Logger
}

// New creates an engine. A nil cfg uses config.Default(); a nil corpus uses
// the built-in default corpus.
func New(cfg *config.Config, c *corpus.Corpus, logger *zap.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	} else {
		cfg = cfg.Clone()
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if c == nil {
		c = corpus.Default()
	}

	snap, err := buildSnapshot(cfg, c)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		learning: NewLearningLog(),
		logger:   logging.OrNop(logger).With(zap.String(logging.FieldComponent, "matcher")),
	}
	e.state.Store(snap)
	return e, nil
}

// Validate applies the input checks Match performs first
func (e *Engine) Validate(input string) error {
	_, err := e.state.Load().validate(input)
	return err
}

// Match routes input to the best corpus key. Validation failures are
// returned as errors alongside an invalid_input result; every other
// failure is reported on the result. A cancelled ctx stops scoring early
// and returns ctx.Err().
func (e *Engine) Match(ctx context.Context, input string) (result MatchResult, err error) {
	start := time.Now()
	snap := e.state.Load()

	trimmed, verr := snap.validate(input)
	if verr != nil {
		result = invalidResult(verr)
		result.finish(start)
		return result, verr
	}

	defer func() {
		if r := recover(); r != nil {
			ierr := qrerrors.NewInternalError("match", fmt.Errorf("panic: %v", r))
			e.logger.Error("match pipeline failed",
				zap.Error(ierr),
				zap.String(logging.FieldInput, trimmed),
				zap.Any(logging.FieldPanic, r),
				zap.Stack("stack"),
			)
			result = internalResult()
			result.finish(start)
			err = nil
		}
	}()

	result, err = e.run(ctx, snap, trimmed)
	result.finish(start)

	if budget := snap.cfg.Limits.ProcessingBudget; budget > 0 && result.ProcessingTime > budget {
		e.logger.Warn("match exceeded processing budget",
			zap.String(logging.FieldInput, trimmed),
			zap.Float64(logging.FieldDurationMS, result.ProcessingTimeMs),
			zap.Int64(logging.FieldBudgetMS, budget.Milliseconds()),
		)
	}
	return result, err
}

func (e *Engine) run(ctx context.Context, snap *snapshot, trimmed string) (MatchResult, error) {
	form := snap.queryCache.Normalize(snap.normalizer, trimmed)

	if id, ok := snap.exact(trimmed, form); ok {
		return MatchResult{
			Match:             snap.keys[id],
			Confidence:        1.0,
			SuggestedResponse: snap.response(id),
			AlgorithmUsed:     semantic.AlgorithmExact,
		}, nil
	}

	retrieval := snap.index.Candidates(form)
	var debug *DebugInfo
	if snap.cfg.Matching.Debug {
		debug = &DebugInfo{
			Normalized:     form.Normalized,
			Tier:           retrieval.Tier.String(),
			NgramHits:      retrieval.NgramHits,
			OverlapHits:    retrieval.OverlapHits,
			ExhaustiveHits: retrieval.ExhaustiveHits,
		}
	}

	if retrieval.Len() == 0 {
		e.learning.Record(trimmed, "", "")
		return MatchResult{AlgorithmUsed: semantic.AlgorithmNone, Debug: debug}, nil
	}

	candidates := make([]semantic.ScoredCandidate, 0, retrieval.Len())
	for _, id := range retrieval.IDs {
		if err := ctx.Err(); err != nil {
			return MatchResult{AlgorithmUsed: semantic.AlgorithmNone, Failure: FailureTimeout}, err
		}
		entry := snap.index.Entry(id)
		scores := snap.similarity.Score(form, entry.Form, snap.cfg.Matching.Algorithms)
		confidence, dominant := semantic.Aggregate(scores, snap.cfg.Matching.Weights,
			len(form.StemmedTokens), len(entry.Form.StemmedTokens))
		candidates = append(candidates, semantic.ScoredCandidate{
			Key:        entry.Key,
			Scores:     scores,
			Confidence: confidence,
			Dominant:   dominant,
		})
	}
	semantic.SortCandidates(candidates)
	if err := ctx.Err(); err != nil {
		return MatchResult{AlgorithmUsed: semantic.AlgorithmNone, Failure: FailureTimeout}, err
	}

	if debug != nil {
		for _, c := range candidates[:min(len(candidates), maxDebugCandidates)] {
			debug.Candidates = append(debug.Candidates, CandidateDebug{
				Key:        c.Key,
				Confidence: c.Confidence,
				Dominant:   c.Dominant,
				Scores:     c.Scores,
			})
		}
	}

	best := candidates[0]
	bestResponse, _ := snap.corpus.Response(best.Key)
	result := MatchResult{Confidence: best.Confidence, Debug: debug}

	if best.Confidence >= snap.cfg.Matching.Threshold {
		result.Match = best.Key
		result.SuggestedResponse = bestResponse
		result.AlgorithmUsed = best.Dominant
		return result, nil
	}

	e.learning.Record(trimmed, best.Key, bestResponse)
	result.AlgorithmUsed = best.Dominant
	if best.Confidence == 0 {
		result.AlgorithmUsed = semantic.AlgorithmNone
	}
	e.logger.Debug("match below threshold",
		zap.String(logging.FieldInput, trimmed),
		zap.String(logging.FieldKey, best.Key),
		zap.Float64(logging.FieldConfidence, best.Confidence),
		zap.Float64(logging.FieldThreshold, snap.cfg.Matching.Threshold),
	)
	return result, nil
}

// Fallback is the cheap degraded-mode match: the first key, in sorted
// order, that contains or is contained by the case-folded input. It never
// touches the learning log.
func (e *Engine) Fallback(input string) MatchResult {
	start := time.Now()
	snap := e.state.Load()
	result := MatchResult{AlgorithmUsed: semantic.AlgorithmFallback}

	q := strings.ToLower(strings.TrimSpace(input))
	if q != "" {
		for id, folded := range snap.foldedKeys {
			if strings.Contains(folded, q) || strings.Contains(q, folded) {
				result.Match = snap.keys[id]
				result.Confidence = FallbackConfidence
				result.SuggestedResponse = snap.response(id)
				break
			}
		}
	}

	result.finish(start)
	return result
}

// Reload swaps in a new corpus. It reports false without rebuilding when
// the corpus content is unchanged.
func (e *Engine) Reload(c *corpus.Corpus) (bool, error) {
	if c == nil {
		return false, qrerrors.NewCorpusError("reload", fmt.Errorf("corpus is nil"))
	}

	e.updateMu.Lock()
	defer e.updateMu.Unlock()

	current := e.state.Load()
	if current.corpus.Fingerprint() == c.Fingerprint() {
		e.logger.Debug("corpus unchanged, skipping reload", zap.Uint64(logging.FieldFingerprint, c.Fingerprint()))
		return false, nil
	}

	snap, err := buildSnapshot(current.cfg, c)
	if err != nil {
		return false, err
	}
	e.state.Store(snap)

	e.logger.Info("corpus reloaded",
		zap.Int(logging.FieldCount, c.Len()),
		zap.Uint64(logging.FieldFingerprint, c.Fingerprint()),
	)
	return true, nil
}

// Configure validates cfg and rebuilds every derived structure before the
// next call. The caller's cfg is copied.
func (e *Engine) Configure(cfg *config.Config) error {
	if cfg == nil {
		return qrerrors.NewConfigError("config", "", fmt.Errorf("config is nil"))
	}
	cfg = cfg.Clone()
	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}

	e.updateMu.Lock()
	defer e.updateMu.Unlock()

	snap, err := buildSnapshot(cfg, e.state.Load().corpus)
	if err != nil {
		return err
	}
	e.state.Store(snap)

	e.logger.Info("configuration applied",
		zap.Float64(logging.FieldThreshold, cfg.Matching.Threshold),
		zap.Int(logging.FieldCount, len(cfg.Matching.Algorithms)),
	)
	return nil
}

// Config returns a copy of the active configuration
func (e *Engine) Config() *config.Config {
	return e.state.Load().cfg.Clone()
}

// Corpus returns the active corpus
func (e *Engine) Corpus() *corpus.Corpus {
	return e.state.Load().corpus
}

// Learning returns the engine's learning log
func (e *Engine) Learning() *LearningLog {
	return e.learning
}

// Stats summarizes the engine's current state
type Stats struct {
	CorpusSize        int     `json:"corpusSize"`
	NgramCount        int     `json:"ngramCount"`
	LearningPatterns  int     `json:"learningPatterns"`
	Fingerprint       string  `json:"fingerprint"`
	Threshold         float64 `json:"threshold"`
	QueryCacheSize    int     `json:"queryCacheSize"`
	QueryCacheHitRate float64 `json:"queryCacheHitRate"`
}

// Stats returns a snapshot of engine statistics
func (e *Engine) Stats() Stats {
	snap := e.state.Load()
	return Stats{
		CorpusSize:        snap.corpus.Len(),
		NgramCount:        snap.index.NgramCount(),
		LearningPatterns:  e.learning.Len(),
		Fingerprint:       fmt.Sprintf("%016x", snap.corpus.Fingerprint()),
		Threshold:         snap.cfg.Matching.Threshold,
		QueryCacheSize:    snap.queryCache.Size(),
		QueryCacheHitRate: snap.queryCache.HitRate(),
	}
}

func invalidResult(err error) MatchResult {
	return MatchResult{
		AlgorithmUsed: semantic.AlgorithmError,
		Failure:       FailureInvalidInput,
		Error:         err.Error(),
	}
}

func internalResult() MatchResult {
	return MatchResult{
		AlgorithmUsed: semantic.AlgorithmError,
		Failure:       FailureInternal,
		Error:         qrerrors.PublicInternalMessage,
	}
}
