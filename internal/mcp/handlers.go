package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/standardbeagle/quickreply/internal/logging"
	"github.com/standardbeagle/quickreply/internal/matcher"
	"github.com/standardbeagle/quickreply/internal/resilience"
	"github.com/standardbeagle/quickreply/internal/semantic"
	"github.com/standardbeagle/quickreply/internal/version"
)

type matchResponse struct {
	Input string `json:"input"`
	matcher.MatchResult
}

type batchResponse struct {
	Count   int             `json:"count"`
	Matched int             `json:"matched"`
	Results []matchResponse `json:"results"`
}

type patternsResponse struct {
	Total    int                       `json:"total"`
	Patterns []matcher.LearningPattern `json:"patterns"`
}

type statsResponse struct {
	Version            string             `json:"version"`
	BuildID            string             `json:"buildId"`
	Engine             matcher.Stats      `json:"engine"`
	Breaker            *resilience.State  `json:"breaker,omitempty"`
	Resilience         bool               `json:"resilienceEnabled"`
	Algorithms         []string           `json:"algorithms"`
	Weights            map[string]float64 `json:"weights"`
	Debug              bool               `json:"debug"`
	CallTimeoutMs      int64              `json:"callTimeoutMs"`
	ProcessingBudgetMs int64              `json:"processingBudgetMs"`
}

func decodeArgs(req *mcp.CallToolRequest, v interface{}) error {
	if req == nil || req.Params == nil || len(req.Params.Arguments) == 0 {
		return json.Unmarshal([]byte("{}"), v)
	}
	if err := json.Unmarshal(req.Params.Arguments, v); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return nil
}

func (s *Server) match(ctx context.Context, input string) (matcher.MatchResult, error) {
	if s.guard != nil {
		return s.guard.Match(ctx, input)
	}
	return s.engine.Match(ctx, input)
}

func (s *Server) handleInfo(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tools := make(map[string]string)
	for _, name := range []string{ToolMatch, ToolMatchBatch, ToolPatterns, ToolClearPatterns, ToolReload, ToolStats, ToolConfigure} {
		tools[name] = getOperationHelp(name)
	}
	return createJSONResponse(map[string]interface{}{
		"name":    ServerName,
		"version": version.Version,
		"tools":   tools,
		"usage":   "Call match with the user's message. Use suggestedResponse when match is set; otherwise answer normally. Degraded results carry a failure field.",
	})
}

func (s *Server) handleMatch(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params MatchParams
	if err := decodeArgs(req, &params); err != nil {
		return createErrorResponse(ToolMatch, err)
	}

	result, err := s.match(ctx, params.Input)
	if err != nil {
		return createSmartErrorResponse(ToolMatch, err, map[string]interface{}{
			"failure": result.Failure,
		})
	}

	s.logger.Debug("match served",
		zap.String(logging.FieldKey, result.Match),
		zap.Float64(logging.FieldConfidence, result.Confidence),
		zap.String(logging.FieldAlgorithm, string(result.AlgorithmUsed)),
	)
	return createResponseWithWarnings(matchResponse{Input: params.Input, MatchResult: result}, warningStrings(params.Warnings))
}

func (s *Server) handleMatchBatch(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params MatchBatchParams
	if err := decodeArgs(req, &params); err != nil {
		return createErrorResponse(ToolMatchBatch, err)
	}
	if len(params.Inputs) == 0 {
		return createErrorResponse(ToolMatchBatch, fmt.Errorf("inputs must contain at least one message"))
	}
	if len(params.Inputs) > BatchMaxInputs {
		return createSmartErrorResponse(ToolMatchBatch,
			fmt.Errorf("too many inputs: %d (max %d)", len(params.Inputs), BatchMaxInputs),
			map[string]interface{}{"count": len(params.Inputs)})
	}

	var (
		results []matcher.MatchResult
		err     error
	)
	if s.guard != nil {
		results, err = s.guard.MatchBatch(ctx, params.Inputs)
	} else {
		results, err = s.engine.MatchBatch(ctx, params.Inputs)
	}
	if err != nil {
		return createErrorResponse(ToolMatchBatch, err)
	}

	resp := batchResponse{Count: len(results), Results: make([]matchResponse, len(results))}
	for i, r := range results {
		resp.Results[i] = matchResponse{Input: params.Inputs[i], MatchResult: r}
		if r.Matched() {
			resp.Matched++
		}
	}
	return createResponseWithWarnings(resp, warningStrings(params.Warnings))
}

func (s *Server) handlePatterns(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params PatternsParams
	if err := decodeArgs(req, &params); err != nil {
		return createErrorResponse(ToolPatterns, err)
	}

	limit := params.Limit
	switch {
	case limit <= 0:
		limit = PatternsDefaultLimit
	case limit > PatternsMaxLimit:
		limit = PatternsMaxLimit
	}

	patterns := s.engine.Learning().Patterns()
	resp := patternsResponse{Total: len(patterns), Patterns: patterns}
	if len(patterns) > limit {
		resp.Patterns = patterns[:limit]
	}
	return createResponseWithWarnings(resp, warningStrings(params.Warnings))
}

func (s *Server) handleClearPatterns(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cleared := s.engine.Learning().Clear()
	s.logger.Info("learning patterns cleared", zap.Int(logging.FieldCount, cleared))
	return createJSONResponse(map[string]interface{}{
		"success": true,
		"cleared": cleared,
	})
}

func (s *Server) handleReload(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.reload == nil {
		return createErrorResponse(ToolReload, fmt.Errorf("this server was started without reloadable corpus sources"))
	}

	start := time.Now()
	c, err := s.reload()
	if err != nil {
		s.logger.Warn("corpus reload failed; keeping current corpus", zap.Error(err))
		return createSmartErrorResponse(ToolReload, err, map[string]interface{}{
			"keptCorpusSize": s.engine.Corpus().Len(),
		})
	}

	changed, err := s.engine.Reload(c)
	if err != nil {
		return createErrorResponse(ToolReload, err)
	}

	return createJSONResponse(map[string]interface{}{
		"success":    true,
		"changed":    changed,
		"corpusSize": c.Len(),
		"durationMs": float64(time.Since(start).Microseconds()) / 1000,
	})
}

func (s *Server) handleStats(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := s.engine.Config()

	resp := statsResponse{
		Version:    version.Version,
		BuildID:    version.BuildID(),
		Engine:     s.engine.Stats(),
		Algorithms: make([]string, 0, len(cfg.Matching.Algorithms)),
		Weights:    make(map[string]float64, len(cfg.Matching.Weights)),
		Debug:      cfg.Matching.Debug,

		ProcessingBudgetMs: cfg.Limits.ProcessingBudget.Milliseconds(),
	}
	for _, alg := range cfg.Matching.Algorithms {
		resp.Algorithms = append(resp.Algorithms, string(alg))
	}
	for alg, w := range cfg.Matching.Weights {
		resp.Weights[string(alg)] = w
	}
	if s.guard != nil {
		state := s.guard.State()
		opts := s.guard.Options()
		resp.Breaker = &state
		resp.Resilience = opts.Enabled
		resp.CallTimeoutMs = opts.CallTimeout.Milliseconds()
	}
	return createJSONResponse(resp)
}

func (s *Server) handleConfigure(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params ConfigureParams
	if err := decodeArgs(req, &params); err != nil {
		return createErrorResponse(ToolConfigure, err)
	}

	cfg := s.engine.Config()
	if params.Threshold != nil {
		cfg.Matching.Threshold = *params.Threshold
	}
	if params.Algorithms != nil {
		cfg.Matching.Algorithms = params.Algorithms
	}
	for alg, w := range params.Weights {
		if semantic.IsKnownAlgorithm(alg) {
			cfg.Matching.Weights[alg] = w
		}
	}
	if params.Debug != nil {
		cfg.Matching.Debug = *params.Debug
	}
	if s.guard != nil {
		cfg.Resilience = s.guard.Options()
	}
	if params.CallTimeoutMs != nil {
		cfg.Resilience.CallTimeout = time.Duration(*params.CallTimeoutMs) * time.Millisecond
	}
	if params.Resilience != nil {
		cfg.Resilience.Enabled = *params.Resilience
	}
	if params.ProcessingBudgetMs != nil {
		cfg.Limits.ProcessingBudget = time.Duration(*params.ProcessingBudgetMs) * time.Millisecond
	}

	if err := s.engine.Configure(cfg); err != nil {
		return createSmartErrorResponse(ToolConfigure, err, nil)
	}
	if s.guard != nil {
		s.guard.Configure(cfg.Resilience)
	}

	return s.handleStatsWithWarnings(ctx, req, warningStrings(params.Warnings))
}

func (s *Server) handleStatsWithWarnings(ctx context.Context, req *mcp.CallToolRequest, warnings []string) (*mcp.CallToolResult, error) {
	result, err := s.handleStats(ctx, req)
	if err != nil {
		return nil, err
	}
	addWarningsToResponse(result, warnings)
	return result, nil
}
