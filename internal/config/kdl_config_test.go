package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/quickreply/internal/semantic"
)

func TestParseKDL_Defaults(t *testing.T) {
	cfg, err := parseKDL("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, DefaultThreshold, cfg.Matching.Threshold)
	assert.Equal(t, semantic.ScoringAlgorithms, cfg.Matching.Algorithms)
	assert.Equal(t, semantic.DefaultWeights(), cfg.Matching.Weights)
	assert.True(t, cfg.Normalize.RemoveStopWords)
	assert.True(t, cfg.Normalize.Stemming)
	assert.Equal(t, 2, cfg.Similarity.CharGramSize)
	assert.Equal(t, 1, cfg.Index.MinN)
	assert.Equal(t, 3, cfg.Index.MaxN)
	assert.Equal(t, 1000, cfg.Limits.MaxInputLength)
	assert.Equal(t, 10*time.Millisecond, cfg.Resilience.CallTimeout)
	assert.True(t, cfg.Corpus.UseDefault)
}

func TestParseKDL_FullConfig(t *testing.T) {
	kdlContent := `
matching {
    threshold 0.75
    algorithms "levenshtein" "jaroWinkler"
    weights {
        levenshtein 0.5
        jaroWinkler 0.25
    }
    debug true
}
normalize {
    stop_words false
    stemming true
    stem_algorithm "porter2"
}
similarity {
    char_gram_size 3
    jaro_winkler_scale 0.2
    edit_max_length 500
}
index {
    min_n 2
    max_n 4
}
limits {
    max_input_length 200
    hard_ceiling 5000
    processing_budget "20ms"
    query_cache_size 64
}
resilience {
    enabled false
    failure_threshold 3
    reset_timeout "1m"
    call_timeout 25
}
corpus {
    root "replies"
    include "**/*.kdl" "**/*.toml"
    defaults false
    watch true
    debounce_ms 150
    response "hello" "Hi there!"
    response "bye" "See you!"
}
`
	cfg, err := parseKDL(kdlContent)
	require.NoError(t, err)

	assert.Equal(t, 0.75, cfg.Matching.Threshold)
	assert.Equal(t, []semantic.Algorithm{semantic.AlgorithmLevenshtein, semantic.AlgorithmJaroWinkler}, cfg.Matching.Algorithms)
	assert.Equal(t, 0.5, cfg.Matching.Weights[semantic.AlgorithmLevenshtein])
	assert.Equal(t, 0.25, cfg.Matching.Weights[semantic.AlgorithmJaroWinkler])
	// untouched weights keep defaults
	assert.Equal(t, 0.2, cfg.Matching.Weights[semantic.AlgorithmNgram])
	assert.True(t, cfg.Matching.Debug)

	assert.False(t, cfg.Normalize.RemoveStopWords)
	assert.Equal(t, "porter2", cfg.Normalize.StemAlgorithm)

	assert.Equal(t, 3, cfg.Similarity.CharGramSize)
	assert.Equal(t, 0.2, cfg.Similarity.JaroWinklerScale)
	assert.Equal(t, 500, cfg.Similarity.EditMaxLength)

	assert.Equal(t, 2, cfg.Index.MinN)
	assert.Equal(t, 4, cfg.Index.MaxN)

	assert.Equal(t, 200, cfg.Limits.MaxInputLength)
	assert.Equal(t, 5000, cfg.Limits.HardCeiling)
	assert.Equal(t, 20*time.Millisecond, cfg.Limits.ProcessingBudget)
	assert.Equal(t, 64, cfg.Limits.QueryCacheSize)

	assert.False(t, cfg.Resilience.Enabled)
	assert.Equal(t, 3, cfg.Resilience.FailureThreshold)
	assert.Equal(t, time.Minute, cfg.Resilience.ResetTimeout)
	assert.Equal(t, 25*time.Millisecond, cfg.Resilience.CallTimeout)

	assert.Equal(t, "replies", cfg.Corpus.Root)
	assert.Equal(t, []string{"**/*.kdl", "**/*.toml"}, cfg.Corpus.Include)
	assert.False(t, cfg.Corpus.UseDefault)
	assert.True(t, cfg.Corpus.Watch)
	assert.Equal(t, 150, cfg.Corpus.DebounceMs)
	assert.Equal(t, map[string]string{"hello": "Hi there!", "bye": "See you!"}, cfg.Corpus.Inline)

	require.NoError(t, ValidateConfig(cfg))
}

func TestParseKDL_InvalidDurationKeepsDefault(t *testing.T) {
	cfg, err := parseKDL(`
resilience {
    call_timeout "soon"
}
`)
	require.NoError(t, err)
	assert.Equal(t, DefaultCallTimeout, cfg.Resilience.CallTimeout)
}

func TestParseKDL_SyntaxError(t *testing.T) {
	_, err := parseKDL(`matching {`)
	assert.Error(t, err)
}

func TestLoadKDL_ResolvesRelativeRoot(t *testing.T) {
	dir := t.TempDir()
	content := `
corpus {
    root "replies"
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644))

	cfg, err := LoadKDL(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, filepath.Join(dir, "replies"), cfg.Corpus.Root)
}

func TestLoadKDL_Missing(t *testing.T) {
	cfg, err := LoadKDL(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestLoadKDLFile_RootDefaultsToFileDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.kdl")
	require.NoError(t, os.WriteFile(path, []byte(`matching { threshold 0.5; }`), 0o644))

	cfg, err := LoadKDLFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Matching.Threshold)

	abs, _ := filepath.Abs(dir)
	assert.Equal(t, abs, cfg.Corpus.Root)
}
