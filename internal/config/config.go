package config

import (
	"os"
	"time"

	"github.com/standardbeagle/quickreply/internal/index"
	"github.com/standardbeagle/quickreply/internal/semantic"
)

// ConfigFileName is looked up in the home directory and the project directory
const ConfigFileName = ".quickreply.kdl"

// Matching defaults
const (
	DefaultThreshold        = 0.6
	DefaultMaxInputLength   = 1000
	DefaultHardCeiling      = 10000
	DefaultProcessingBudget = 50 * time.Millisecond
	DefaultQueryCacheSize   = 512

	DefaultFailureThreshold = 5
	DefaultResetTimeout     = 30 * time.Second
	DefaultCallTimeout      = 10 * time.Millisecond

	DefaultWatchDebounceMs = 300
)

type Config struct {
	Version    int
	Matching   Matching
	Normalize  Normalize
	Similarity Similarity
	Index      Index
	Limits     Limits
	Resilience Resilience
	Corpus     Corpus
}

type Matching struct {
	Threshold  float64              // Minimum confidence for a match to be accepted
	Algorithms []semantic.Algorithm // Scoring algorithms computed per candidate
	Weights    semantic.Weights     // Relative algorithm weights
	Debug      bool                 // Attach candidate details to results
}

type Normalize struct {
	RemoveStopWords bool
	Stemming        bool
	StemAlgorithm   string // "rules", "porter2" or "none"
}

type Similarity struct {
	CharGramSize     int     // Character n-gram size for Jaccard
	JaroWinklerScale float64 // Prefix boost scale, at most 0.25
	EditMaxLength    int     // Inputs longer than this skip edit distance
}

type Index struct {
	MinN int // Smallest word n-gram; also the probe size for retrieval
	MaxN int
}

type Limits struct {
	MaxInputLength   int           // Configured maximum input length in runes
	HardCeiling      int           // Absolute safety ceiling regardless of MaxInputLength
	ProcessingBudget time.Duration // Soft budget; overruns are logged, not enforced
	QueryCacheSize   int           // Normalized query forms kept per configuration
}

type Resilience struct {
	Enabled          bool
	FailureThreshold int           // Consecutive failures before the breaker opens
	ResetTimeout     time.Duration // Open time before a half-open trial
	CallTimeout      time.Duration // Per-call race timeout
}

type Corpus struct {
	Root       string            // Directory corpus file patterns are relative to
	Include    []string          // Doublestar patterns for .kdl and .toml corpus files
	Inline     map[string]string // Responses declared directly in the config
	UseDefault bool              // Seed the corpus with the built-in responses
	Watch      bool              // Reload when corpus files change
	DebounceMs int               // Debounce time for corpus file events
}

// Default returns the built-in configuration
func Default() *Config {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	return &Config{
		Version: 1,
		Matching: Matching{
			Threshold:  DefaultThreshold,
			Algorithms: append([]semantic.Algorithm(nil), semantic.ScoringAlgorithms...),
			Weights:    semantic.DefaultWeights(),
		},
		Normalize: Normalize{
			RemoveStopWords: true,
			Stemming:        true,
			StemAlgorithm:   semantic.StemAlgorithmRules,
		},
		Similarity: Similarity{
			CharGramSize:     semantic.DefaultCharGramSize,
			JaroWinklerScale: semantic.DefaultJaroWinklerScale,
			EditMaxLength:    semantic.DefaultEditMaxLength,
		},
		Index: Index{
			MinN: index.DefaultMinN,
			MaxN: index.DefaultMaxN,
		},
		Limits: Limits{
			MaxInputLength:   DefaultMaxInputLength,
			HardCeiling:      DefaultHardCeiling,
			ProcessingBudget: DefaultProcessingBudget,
			QueryCacheSize:   DefaultQueryCacheSize,
		},
		Resilience: Resilience{
			Enabled:          true,
			FailureThreshold: DefaultFailureThreshold,
			ResetTimeout:     DefaultResetTimeout,
			CallTimeout:      DefaultCallTimeout,
		},
		Corpus: Corpus{
			Root:       cwd,
			Include:    []string{},
			Inline:     map[string]string{},
			UseDefault: true,
			DebounceMs: DefaultWatchDebounceMs,
		},
	}
}

// Clone returns a deep copy so runtime updates never alias a live config
func (c *Config) Clone() *Config {
	out := *c
	out.Matching.Algorithms = append([]semantic.Algorithm(nil), c.Matching.Algorithms...)
	out.Matching.Weights = make(semantic.Weights, len(c.Matching.Weights))
	for k, v := range c.Matching.Weights {
		out.Matching.Weights[k] = v
	}
	out.Corpus.Include = append([]string(nil), c.Corpus.Include...)
	out.Corpus.Inline = make(map[string]string, len(c.Corpus.Inline))
	for k, v := range c.Corpus.Inline {
		out.Corpus.Inline[k] = v
	}
	return &out
}

// NormalizerOptions maps the normalize section onto the normalizer
func (c *Config) NormalizerOptions() semantic.NormalizerOptions {
	return semantic.NormalizerOptions{
		RemoveStopWords: c.Normalize.RemoveStopWords,
		Stemming:        c.Normalize.Stemming && c.Normalize.StemAlgorithm != semantic.StemAlgorithmNone,
		StemAlgorithm:   c.Normalize.StemAlgorithm,
	}
}

// SimilarityOptions maps the similarity section onto the similarity engine
func (c *Config) SimilarityOptions() semantic.SimilarityOptions {
	return semantic.SimilarityOptions{
		CharGramSize:     c.Similarity.CharGramSize,
		JaroWinklerScale: c.Similarity.JaroWinklerScale,
		EditMaxLength:    c.Similarity.EditMaxLength,
	}
}

// IndexOptions maps the index section onto the n-gram index
func (c *Config) IndexOptions() index.Options {
	return index.Options{MinN: c.Index.MinN, MaxN: c.Index.MaxN}
}

// EffectiveMaxInputLength is the configured maximum, never above the hard ceiling
func (c *Config) EffectiveMaxInputLength() int {
	if c.Limits.HardCeiling > 0 && (c.Limits.MaxInputLength <= 0 || c.Limits.MaxInputLength > c.Limits.HardCeiling) {
		return c.Limits.HardCeiling
	}
	return c.Limits.MaxInputLength
}

func Load(path string) (*Config, error) {
	return LoadWithRoot(path, "")
}

// LoadWithRoot layers ~/.quickreply.kdl under the project's .quickreply.kdl.
// path, when set, names an explicit config file and replaces the project lookup.
func LoadWithRoot(path string, rootDir string) (*Config, error) {
	searchDir := "."
	if rootDir != "" {
		searchDir = rootDir
	}

	// Step 1: global base config
	var baseConfig *Config
	if homeDir, err := os.UserHomeDir(); err == nil {
		if globalCfg, err := LoadKDL(homeDir); err == nil && globalCfg != nil {
			baseConfig = globalCfg
		}
	}

	// Step 2: project or explicit config
	var projectConfig *Config
	var err error
	if path != "" {
		projectConfig, err = LoadKDLFile(path)
	} else {
		projectConfig, err = LoadKDL(searchDir)
	}
	if err != nil {
		return nil, err
	}

	// Step 3: merge, project wins
	var cfg *Config
	switch {
	case baseConfig != nil && projectConfig != nil:
		cfg = mergeConfigs(baseConfig, projectConfig)
	case projectConfig != nil:
		cfg = projectConfig
	case baseConfig != nil:
		baseConfig.Corpus.Root = searchDir
		cfg = baseConfig
	default:
		cfg = Default()
		if rootDir != "" {
			cfg.Corpus.Root = rootDir
		}
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeConfigs merges a base config with a project config.
// Project settings win; corpus include patterns and inline responses are combined.
func mergeConfigs(base, project *Config) *Config {
	merged := project.Clone()

	if len(base.Corpus.Include) > 0 {
		merged.Corpus.Include = DeduplicatePatterns(append(append([]string{}, base.Corpus.Include...), project.Corpus.Include...))
	}

	for k, v := range base.Corpus.Inline {
		if _, ok := merged.Corpus.Inline[k]; !ok {
			merged.Corpus.Inline[k] = v
		}
	}

	return merged
}

// DeduplicatePatterns removes duplicate patterns keeping first occurrence order
func DeduplicatePatterns(patterns []string) []string {
	seen := make(map[string]bool, len(patterns))
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
