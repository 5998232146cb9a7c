package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/quickreply/internal/semantic"
)

func TestMergeConfigs_CorpusMerge(t *testing.T) {
	base := Default()
	base.Corpus.Include = []string{"global/*.kdl", "shared/*.toml"}
	base.Corpus.Inline = map[string]string{"hello": "Hello from home", "bye": "Later"}

	project := Default()
	project.Matching.Threshold = 0.8
	project.Corpus.Include = []string{"shared/*.toml", "local/*.kdl"}
	project.Corpus.Inline = map[string]string{"hello": "Hello from project"}

	merged := mergeConfigs(base, project)

	assert.Equal(t, []string{"global/*.kdl", "shared/*.toml", "local/*.kdl"}, merged.Corpus.Include)
	assert.Equal(t, "Hello from project", merged.Corpus.Inline["hello"])
	assert.Equal(t, "Later", merged.Corpus.Inline["bye"])
	assert.Equal(t, 0.8, merged.Matching.Threshold)

	// merge never aliases the project config
	merged.Corpus.Inline["new"] = "x"
	assert.NotContains(t, project.Corpus.Inline, "new")
}

func TestClone(t *testing.T) {
	cfg := Default()
	clone := cfg.Clone()

	clone.Matching.Weights[semantic.AlgorithmCosine] = 0.9
	clone.Matching.Algorithms[0] = semantic.AlgorithmSemantic
	clone.Corpus.Include = append(clone.Corpus.Include, "x")

	assert.Equal(t, 0.1, cfg.Matching.Weights[semantic.AlgorithmCosine])
	assert.Equal(t, semantic.AlgorithmLevenshtein, cfg.Matching.Algorithms[0])
	assert.Empty(t, cfg.Corpus.Include)
}

func TestEffectiveMaxInputLength(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1000, cfg.EffectiveMaxInputLength())

	cfg.Limits.MaxInputLength = 50000
	assert.Equal(t, DefaultHardCeiling, cfg.EffectiveMaxInputLength())
}

func TestOptionMapping(t *testing.T) {
	cfg := Default()
	cfg.Normalize.StemAlgorithm = semantic.StemAlgorithmNone

	assert.False(t, cfg.NormalizerOptions().Stemming)
	assert.Equal(t, semantic.DefaultSimilarityOptions(), cfg.SimilarityOptions())
	assert.Equal(t, 1, cfg.IndexOptions().MinN)
}

func TestLoadWithRoot_ProjectFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(`
matching {
    threshold 0.7
}
`), 0o644))

	cfg, err := LoadWithRoot("", dir)
	require.NoError(t, err)
	assert.Equal(t, 0.7, cfg.Matching.Threshold)
}

func TestLoadWithRoot_DefaultWhenMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()

	cfg, err := LoadWithRoot("", dir)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Corpus.Root)
	assert.Equal(t, DefaultThreshold, cfg.Matching.Threshold)
}

func TestLoadWithRoot_InvalidConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.kdl")
	require.NoError(t, os.WriteFile(path, []byte(`matching { threshold 2.0; }`), 0o644))

	_, err := LoadWithRoot(path, dir)
	assert.Error(t, err)
}
