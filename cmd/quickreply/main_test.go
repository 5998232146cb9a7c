package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// runApp runs the CLI in-process with stdin and captures its output
func runApp(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer

	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	app.Reader = strings.NewReader(stdin)
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.Run(append([]string{"quickreply"}, args...))
	return out.String(), err
}

// testRoot returns a project directory whose config relaxes the call
// timeout so slow test machines do not trip the fallback
func testRoot(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := "resilience {\n    call_timeout \"2s\"\n}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".quickreply.kdl"), []byte(cfg), 0o644))
	return dir
}

// setupCorpusDir writes a small KDL corpus and returns its directory
func setupCorpusDir(t *testing.T) string {
	t.Helper()
	dir := testRoot(t)
	content := `response "ping" "pong"
response "opening hours" {
    reply "We are open 9 to 5."
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "replies.kdl"), []byte(content), 0o644))
	return dir
}

func TestMatchCommandExact(t *testing.T) {
	out, err := runApp(t, "", "--root", testRoot(t), "match", "hello")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.Equal(t, "Hi there! How can I help you today?", lines[0])
	assert.Contains(t, lines[1], "hello (confidence 1.000, exact")
}

func TestMatchCommandJSON(t *testing.T) {
	out, err := runApp(t, "", "--root", testRoot(t), "match", "--json", "thank", "you")
	require.NoError(t, err)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "thank you", result["match"])
	assert.Equal(t, "exact", result["algorithmUsed"])
}

func TestMatchCommandRequiresMessage(t *testing.T) {
	_, err := runApp(t, "", "match")
	require.Error(t, err)

	var exitErr cli.ExitCoder
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.ExitCode())
}

func TestMatchCommandFromCorpusFiles(t *testing.T) {
	dir := setupCorpusDir(t)
	out, err := runApp(t, "", "--root", dir, "--include", "*.kdl", "--no-defaults", "match", "opening hours")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "We are open 9 to 5.\n"), out)
}

func TestMatchCommandMiss(t *testing.T) {
	out, err := runApp(t, "", "--root", testRoot(t), "match", "xyzzy plugh")
	require.NoError(t, err)
	assert.Contains(t, out, "<none>")
}

func TestBatchCommand(t *testing.T) {
	stdin := "hello\n\ngoodbye\nxyzzy plugh\n"
	out, err := runApp(t, stdin, "--root", testRoot(t), "batch")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "hello\thello\t1.000", lines[0])
	assert.Equal(t, "goodbye\tgoodbye\t1.000", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "xyzzy plugh\t-\t"), lines[2])
}

func TestBatchCommandFromFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inputs.txt")
	require.NoError(t, os.WriteFile(path, []byte("help\nhow are you\n"), 0o644))

	out, err := runApp(t, "", "--root", testRoot(t), "batch", "--json", path)
	require.NoError(t, err)

	dec := json.NewDecoder(strings.NewReader(out))
	var keys []string
	for dec.More() {
		var r map[string]interface{}
		require.NoError(t, dec.Decode(&r))
		keys = append(keys, r["match"].(string))
	}
	assert.Equal(t, []string{"help", "how are you"}, keys)
}

func TestBatchCommandEmptyInput(t *testing.T) {
	_, err := runApp(t, "\n  \n", "--root", testRoot(t), "batch")
	assert.Error(t, err)
}

func TestChatCommand(t *testing.T) {
	stdin := "hello\nqqq zzz\n:patterns\n:stats\n:bogus\n:quit\nhello\n"
	out, err := runApp(t, stdin, "--root", testRoot(t), "chat")
	require.NoError(t, err)

	assert.Contains(t, out, "responses loaded")
	assert.Contains(t, out, "Hi there! How can I help you today?")
	assert.Contains(t, out, "qqq zzz")
	assert.Contains(t, out, "breaker=closed")
	assert.Contains(t, out, "unknown command :bogus")
	assert.Equal(t, 1, strings.Count(out, "Hi there! How can I help you today?"))
}

func TestChatCommandEOF(t *testing.T) {
	out, err := runApp(t, "", "--root", testRoot(t), "chat")
	require.NoError(t, err)
	assert.Contains(t, out, "> ")
}

func TestCorpusCommand(t *testing.T) {
	dir := setupCorpusDir(t)
	out, err := runApp(t, "", "--root", dir, "--include", "*.kdl", "--no-defaults", "corpus", "--json")
	require.NoError(t, err)

	var entries []corpusEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "opening hours", entries[0].Key)
	assert.Equal(t, "ping", entries[1].Key)
	assert.Equal(t, "pong", entries[1].Response)
}

func TestCorpusCommandTable(t *testing.T) {
	out, err := runApp(t, "", "--root", testRoot(t), "corpus")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "KEY"), out)
	assert.Contains(t, out, "tell me a joke")
	assert.Contains(t, out, "15 responses")
}

func TestThresholdOverrideValidated(t *testing.T) {
	_, err := runApp(t, "", "--root", testRoot(t), "--threshold", "1.5", "match", "hello")
	assert.Error(t, err)
}

func TestReadLines(t *testing.T) {
	lines, err := readLines(strings.NewReader("  a \n\nb\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, lines)
}

func TestCorpusCommandShowsRelativeSources(t *testing.T) {
	dir := setupCorpusDir(t)
	out, err := runApp(t, "", "--root", dir, "--include", "*.kdl", "--no-defaults", "corpus", "--json")
	require.NoError(t, err)

	var entries []corpusEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	for _, e := range entries {
		assert.Equal(t, "replies.kdl", e.Source)
	}
}
