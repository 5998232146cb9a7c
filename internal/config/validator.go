package config

import (
	"errors"
	"fmt"
	"strconv"

	qrerrors "github.com/standardbeagle/quickreply/internal/errors"
	"github.com/standardbeagle/quickreply/internal/semantic"
)

// Validator validates configuration and sets smart defaults
type Validator struct{}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates configuration and applies smart defaults
// Returns an error if validation fails
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	v.setSmartDefaults(cfg)

	if err := v.validateMatchingConfig(&cfg.Matching); err != nil {
		return err
	}

	if err := v.validateNormalizeConfig(&cfg.Normalize); err != nil {
		return qrerrors.NewConfigError("normalize.stem_algorithm", cfg.Normalize.StemAlgorithm, err)
	}

	if err := v.validateSimilarityConfig(&cfg.Similarity); err != nil {
		return qrerrors.NewConfigError("similarity", "", err)
	}

	if err := cfg.IndexOptions().Validate(); err != nil {
		return qrerrors.NewConfigError("index", "", err)
	}

	if err := v.validateLimitsConfig(&cfg.Limits); err != nil {
		return qrerrors.NewConfigError("limits", "", err)
	}

	if err := v.validateResilienceConfig(&cfg.Resilience); err != nil {
		return qrerrors.NewConfigError("resilience", "", err)
	}

	if err := v.validateCorpusConfig(&cfg.Corpus); err != nil {
		return qrerrors.NewConfigError("corpus", "", err)
	}

	return nil
}

// validateMatchingConfig validates threshold, algorithm names and weights
func (v *Validator) validateMatchingConfig(m *Matching) error {
	if m.Threshold < 0 || m.Threshold > 1 {
		return qrerrors.NewConfigError("matching.threshold", strconv.FormatFloat(m.Threshold, 'g', -1, 64),
			errors.New("must be between 0 and 1"))
	}

	if len(m.Algorithms) == 0 {
		return qrerrors.NewConfigError("matching.algorithms", "", errors.New("at least one algorithm must be enabled"))
	}
	for _, alg := range m.Algorithms {
		if !semantic.IsKnownAlgorithm(alg) || alg == semantic.AlgorithmExact {
			return qrerrors.NewConfigError("matching.algorithms", string(alg),
				fmt.Errorf("unknown scoring algorithm (valid: %v)", semantic.ScoringAlgorithms))
		}
	}

	if err := m.Weights.Validate(); err != nil {
		return qrerrors.NewConfigError("matching.weights", "", err)
	}

	return nil
}

// validateNormalizeConfig validates the stemming algorithm
func (v *Validator) validateNormalizeConfig(n *Normalize) error {
	return semantic.NewStemmer(n.Stemming, n.StemAlgorithm, semantic.MinStemLength, nil).ValidateConfig()
}

// validateSimilarityConfig validates algorithm tuning
func (v *Validator) validateSimilarityConfig(s *Similarity) error {
	if s.CharGramSize < 1 || s.CharGramSize > 5 {
		return fmt.Errorf("char_gram_size must be between 1 and 5, got %d", s.CharGramSize)
	}

	if s.JaroWinklerScale < 0 || s.JaroWinklerScale > 0.25 {
		return fmt.Errorf("jaro_winkler_scale must be between 0 and 0.25, got %v", s.JaroWinklerScale)
	}

	if s.EditMaxLength <= 0 {
		return fmt.Errorf("edit_max_length must be positive, got %d", s.EditMaxLength)
	}

	return nil
}

// validateLimitsConfig validates input and time limits
func (v *Validator) validateLimitsConfig(l *Limits) error {
	if l.MaxInputLength <= 0 {
		return fmt.Errorf("max_input_length must be positive, got %d", l.MaxInputLength)
	}

	if l.HardCeiling < l.MaxInputLength {
		return fmt.Errorf("hard_ceiling %d must not be below max_input_length %d", l.HardCeiling, l.MaxInputLength)
	}

	if l.ProcessingBudget < 0 {
		return fmt.Errorf("processing_budget cannot be negative, got %v", l.ProcessingBudget)
	}

	if l.QueryCacheSize < 0 {
		return fmt.Errorf("query_cache_size cannot be negative, got %d", l.QueryCacheSize)
	}

	return nil
}

// validateResilienceConfig validates breaker and timeout settings
func (v *Validator) validateResilienceConfig(r *Resilience) error {
	if r.FailureThreshold < 1 {
		return fmt.Errorf("failure_threshold must be at least 1, got %d", r.FailureThreshold)
	}

	if r.ResetTimeout <= 0 {
		return fmt.Errorf("reset_timeout must be positive, got %v", r.ResetTimeout)
	}

	if r.CallTimeout <= 0 {
		return fmt.Errorf("call_timeout must be positive, got %v", r.CallTimeout)
	}

	return nil
}

// validateCorpusConfig validates corpus sources
func (v *Validator) validateCorpusConfig(c *Corpus) error {
	if c.DebounceMs < 0 {
		return fmt.Errorf("debounce_ms cannot be negative, got %d", c.DebounceMs)
	}

	for key := range c.Inline {
		if key == "" {
			return errors.New("inline response key cannot be empty")
		}
	}

	return nil
}

// setSmartDefaults fills zero values left by partial configs
func (v *Validator) setSmartDefaults(cfg *Config) {
	if cfg.Matching.Weights == nil {
		cfg.Matching.Weights = semantic.DefaultWeights()
	}

	if cfg.Normalize.StemAlgorithm == "" {
		cfg.Normalize.StemAlgorithm = semantic.StemAlgorithmRules
	}

	if cfg.Limits.HardCeiling == 0 {
		cfg.Limits.HardCeiling = DefaultHardCeiling
	}

	if cfg.Limits.QueryCacheSize == 0 {
		cfg.Limits.QueryCacheSize = DefaultQueryCacheSize
	}

	if cfg.Corpus.DebounceMs == 0 {
		cfg.Corpus.DebounceMs = DefaultWatchDebounceMs
	}

	if cfg.Corpus.Inline == nil {
		cfg.Corpus.Inline = map[string]string{}
	}
}

// ValidateConfig is a convenience function for quick validation
func ValidateConfig(cfg *Config) error {
	validator := NewValidator()
	return validator.ValidateAndSetDefaults(cfg)
}
