package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/quickreply/internal/config"
	"github.com/standardbeagle/quickreply/internal/corpus"
	"github.com/standardbeagle/quickreply/internal/matcher"
)

func newTestServer(t *testing.T, reload ReloadFunc) (*Server, *matcher.Engine) {
	t.Helper()
	cfg := config.Default()
	cfg.Resilience.CallTimeout = time.Second

	engine, err := matcher.New(cfg, corpus.Default(), nil)
	require.NoError(t, err)
	guard := matcher.NewGuard(engine, cfg.Resilience, nil)

	s, err := NewServer(engine, guard, Options{Version: "test", Reload: reload})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, engine
}

func callTool(t *testing.T, s *Server, name string, args string) *mcp.CallToolResult {
	t.Helper()
	handler := s.GetHandlerForTesting(name)
	require.NotNil(t, handler, "handler for %s", name)

	req := &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{
			Name:      name,
			Arguments: json.RawMessage(args),
		},
	}
	result, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func TestNewServerRequiresEngine(t *testing.T) {
	_, err := NewServer(nil, nil, Options{})
	assert.Error(t, err)
}

func TestAllToolsRegistered(t *testing.T) {
	s, _ := newTestServer(t, nil)
	for _, name := range []string{ToolInfo, ToolMatch, ToolMatchBatch, ToolPatterns, ToolClearPatterns, ToolReload, ToolStats, ToolConfigure} {
		assert.NotNil(t, s.GetHandlerForTesting(name), name)
	}
	assert.Nil(t, s.GetHandlerForTesting("search"))
}

func TestHandleInfo(t *testing.T) {
	s, _ := newTestServer(t, nil)
	data := decodeResult(t, callTool(t, s, ToolInfo, `{}`))
	assert.Equal(t, ServerName, data["name"])
	tools := data["tools"].(map[string]interface{})
	assert.Contains(t, tools, ToolMatch)
}

func TestHandleMatchExact(t *testing.T) {
	s, _ := newTestServer(t, nil)
	result := callTool(t, s, ToolMatch, `{"input": "Hello"}`)
	assert.False(t, result.IsError)

	data := decodeResult(t, result)
	assert.Equal(t, "Hello", data["input"])
	assert.Equal(t, "hello", data["match"])
	assert.Equal(t, 1.0, data["confidence"])
	assert.Equal(t, "exact", data["algorithmUsed"])
	assert.Equal(t, "Hi there! How can I help you today?", data["suggestedResponse"])
	assert.NotContains(t, data, "warnings")
}

func TestHandleMatchWithUnknownField(t *testing.T) {
	s, _ := newTestServer(t, nil)
	data := decodeResult(t, callTool(t, s, ToolMatch, `{"message": "thank you", "locale": "en"}`))
	assert.Equal(t, "thank you", data["match"])
	assert.Equal(t, []interface{}{"unknown parameter 'locale' was ignored"}, data["warnings"])
}

func TestHandleMatchEmptyInputIsToolError(t *testing.T) {
	s, _ := newTestServer(t, nil)
	result := callTool(t, s, ToolMatch, `{"input": "   "}`)
	assert.True(t, result.IsError)

	data := decodeResult(t, result)
	assert.Contains(t, data["error"], "input is empty")
	assert.NotEmpty(t, data["suggestions"])
	assert.Equal(t, map[string]interface{}{"failure": "invalid_input"}, data["context"])
}

func TestHandleMatchMalformedArguments(t *testing.T) {
	s, _ := newTestServer(t, nil)
	result := callTool(t, s, ToolMatch, `{"input": ["not", "a", "string"]}`)
	assert.True(t, result.IsError)
}

func TestHandleMatchMissRecordsPattern(t *testing.T) {
	s, engine := newTestServer(t, nil)
	data := decodeResult(t, callTool(t, s, ToolMatch, `{"input": "xyzzy plugh"}`))
	assert.NotContains(t, data, "match")
	assert.Equal(t, 1, engine.Learning().Len())

	patterns := decodeResult(t, callTool(t, s, ToolPatterns, `{}`))
	assert.Equal(t, float64(1), patterns["total"])
	list := patterns["patterns"].([]interface{})
	require.Len(t, list, 1)
	assert.Equal(t, "xyzzy plugh", list[0].(map[string]interface{})["inputText"])

	cleared := decodeResult(t, callTool(t, s, ToolClearPatterns, `{}`))
	assert.Equal(t, float64(1), cleared["cleared"])
	assert.Equal(t, 0, engine.Learning().Len())
}

func TestHandlePatternsLimit(t *testing.T) {
	s, engine := newTestServer(t, nil)
	for _, in := range []string{"qqq one", "qqq two", "qqq three"} {
		engine.Learning().Record(in, "", "")
	}

	data := decodeResult(t, callTool(t, s, ToolPatterns, `{"limit": 2}`))
	assert.Equal(t, float64(3), data["total"])
	assert.Len(t, data["patterns"], 2)
}

func TestHandleMatchBatch(t *testing.T) {
	s, _ := newTestServer(t, nil)
	data := decodeResult(t, callTool(t, s, ToolMatchBatch, `{"inputs": ["hello", "goodbye", "xyzzy plugh"]}`))

	assert.Equal(t, float64(3), data["count"])
	assert.Equal(t, float64(2), data["matched"])
	results := data["results"].([]interface{})
	require.Len(t, results, 3)
	assert.Equal(t, "hello", results[0].(map[string]interface{})["match"])
	assert.Equal(t, "goodbye", results[1].(map[string]interface{})["match"])
	assert.Equal(t, "xyzzy plugh", results[2].(map[string]interface{})["input"])
}

func TestHandleMatchBatchLimits(t *testing.T) {
	s, _ := newTestServer(t, nil)
	assert.True(t, callTool(t, s, ToolMatchBatch, `{"inputs": []}`).IsError)

	inputs := make([]string, BatchMaxInputs+1)
	for i := range inputs {
		inputs[i] = "hello"
	}
	args, err := json.Marshal(map[string]interface{}{"inputs": inputs})
	require.NoError(t, err)
	assert.True(t, callTool(t, s, ToolMatchBatch, string(args)).IsError)
}

func TestHandleReload(t *testing.T) {
	next := corpus.MustNew(map[string]string{"ping": "pong"})
	s, engine := newTestServer(t, func() (*corpus.Corpus, error) { return next, nil })

	data := decodeResult(t, callTool(t, s, ToolReload, `{}`))
	assert.Equal(t, true, data["changed"])
	assert.Equal(t, float64(1), data["corpusSize"])
	assert.Equal(t, 1, engine.Corpus().Len())

	data = decodeResult(t, callTool(t, s, ToolReload, `{}`))
	assert.Equal(t, false, data["changed"])

	match := decodeResult(t, callTool(t, s, ToolMatch, `{"input": "ping"}`))
	assert.Equal(t, "pong", match["suggestedResponse"])
}

func TestHandleReloadFailureKeepsCorpus(t *testing.T) {
	s, engine := newTestServer(t, func() (*corpus.Corpus, error) {
		return nil, errors.New("replies.kdl: parse error")
	})
	before := engine.Corpus().Len()

	result := callTool(t, s, ToolReload, `{}`)
	assert.True(t, result.IsError)
	assert.Equal(t, before, engine.Corpus().Len())
}

func TestHandleReloadWithoutSources(t *testing.T) {
	s, _ := newTestServer(t, nil)
	assert.True(t, callTool(t, s, ToolReload, `{}`).IsError)
}

func TestHandleStats(t *testing.T) {
	s, engine := newTestServer(t, nil)
	data := decodeResult(t, callTool(t, s, ToolStats, `{}`))

	eng := data["engine"].(map[string]interface{})
	assert.Equal(t, float64(engine.Corpus().Len()), eng["corpusSize"])
	assert.Equal(t, config.DefaultThreshold, eng["threshold"])
	assert.Equal(t, true, data["resilienceEnabled"])
	assert.Equal(t, float64(1000), data["callTimeoutMs"])

	breaker := data["breaker"].(map[string]interface{})
	assert.Equal(t, "closed", breaker["phase"])
	assert.Len(t, data["algorithms"], 5)
}

func TestHandleConfigure(t *testing.T) {
	s, engine := newTestServer(t, nil)
	args := `{"threshold": 0.9, "algorithms": ["levenshtein"], "weights": {"levenshtein": 0.8, "bogus": 1}, "call_timeout_ms": 250, "resilience": false}`
	result := callTool(t, s, ToolConfigure, args)
	require.False(t, result.IsError)

	data := decodeResult(t, result)
	assert.Equal(t, false, data["resilienceEnabled"])
	assert.Equal(t, float64(250), data["callTimeoutMs"])
	assert.Equal(t, []interface{}{"unknown parameter 'weights.bogus' was ignored"}, data["warnings"])

	cfg := engine.Config()
	assert.Equal(t, 0.9, cfg.Matching.Threshold)
	assert.Len(t, cfg.Matching.Algorithms, 1)
	assert.Equal(t, 0.8, cfg.Matching.Weights.For("levenshtein"))
	_, hasBogus := cfg.Matching.Weights["bogus"]
	assert.False(t, hasBogus)
	assert.Equal(t, 250*time.Millisecond, s.guard.Options().CallTimeout)
}

func TestHandleConfigureInvalidKeepsSettings(t *testing.T) {
	s, engine := newTestServer(t, nil)
	result := callTool(t, s, ToolConfigure, `{"threshold": 2}`)
	assert.True(t, result.IsError)
	assert.Equal(t, config.DefaultThreshold, engine.Config().Matching.Threshold)
}

func TestHandleConfigureProcessingBudget(t *testing.T) {
	s, engine := newTestServer(t, nil)
	assert.Equal(t, config.DefaultProcessingBudget, engine.Config().Limits.ProcessingBudget)

	data := decodeResult(t, callTool(t, s, ToolConfigure, `{"processing_budget_ms": 120}`))
	assert.Equal(t, float64(120), data["processingBudgetMs"])
	assert.Equal(t, 120*time.Millisecond, engine.Config().Limits.ProcessingBudget)

	data = decodeResult(t, callTool(t, s, ToolConfigure, `{"processingBudgetMs": 0}`))
	assert.Equal(t, float64(0), data["processingBudgetMs"])
	assert.Equal(t, time.Duration(0), engine.Config().Limits.ProcessingBudget)

	result := callTool(t, s, ToolConfigure, `{"processing_budget_ms": -5}`)
	assert.True(t, result.IsError)
	assert.Equal(t, time.Duration(0), engine.Config().Limits.ProcessingBudget)
}

func TestRecoverFromPanic(t *testing.T) {
	s, _ := newTestServer(t, nil)
	handler := s.recoverFromPanic("explode", func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		panic("kaboom")
	})

	result, err := handler(context.Background(), &mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, decodeResult(t, result)["error"], "internal error in explode")
}

func TestServerWithoutGuard(t *testing.T) {
	engine, err := matcher.New(nil, nil, nil)
	require.NoError(t, err)
	s, err := NewServer(engine, nil, Options{})
	require.NoError(t, err)
	defer s.Close()

	data := decodeResult(t, callTool(t, s, ToolMatch, `{"input": "help"}`))
	assert.Equal(t, "help", data["match"])

	stats := decodeResult(t, callTool(t, s, ToolStats, `{}`))
	assert.NotContains(t, stats, "breaker")
}
