package mcp

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/standardbeagle/quickreply/internal/corpus"
	"github.com/standardbeagle/quickreply/internal/logging"
	"github.com/standardbeagle/quickreply/internal/matcher"
	"github.com/standardbeagle/quickreply/internal/version"
)

type toolHandler = func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error)

// ReloadFunc rebuilds the corpus from its configured sources
type ReloadFunc func() (*corpus.Corpus, error)

// Options configures the MCP server
type Options struct {
	Version string
	Reload  ReloadFunc
	Logger  *zap.Logger
}

// Server exposes the matcher as MCP tools over stdio
type Server struct {
	engine *matcher.Engine
	guard  *matcher.Guard
	reload ReloadFunc
	logger *zap.Logger
	server *mcp.Server

	handlers map[string]toolHandler

	closeOnce sync.Once
	cancel    context.CancelFunc
	mu        sync.Mutex
}

// NewServer creates an MCP server around engine and guard. guard may be
// nil, in which case match calls go straight to the engine.
func NewServer(engine *matcher.Engine, guard *matcher.Guard, opts Options) (*Server, error) {
	if engine == nil {
		return nil, fmt.Errorf("mcp server requires a matcher engine")
	}
	if opts.Version == "" {
		opts.Version = version.Version
	}

	s := &Server{
		engine:   engine,
		guard:    guard,
		reload:   opts.Reload,
		logger:   logging.OrNop(opts.Logger).With(zap.String(logging.FieldComponent, "mcp")),
		handlers: make(map[string]toolHandler),
	}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: opts.Version,
	}, nil)

	s.registerTools()
	return s, nil
}

// addTool registers a tool and keeps its wrapped handler for tests
func (s *Server) addTool(tool *mcp.Tool, handler toolHandler) {
	wrapped := s.recoverFromPanic(tool.Name, handler)
	s.handlers[tool.Name] = wrapped
	s.server.AddTool(tool, wrapped)
}

func (s *Server) registerTools() {
	s.addTool(&mcp.Tool{
		Name:        ToolInfo,
		Description: "Describe the quickreply tools and how to use them.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, s.handleInfo)

	s.addTool(&mcp.Tool{
		Name:        ToolMatch,
		Description: "Match a user message to the closest canned response. Returns the matched key, a confidence in [0,1] and the suggested reply. Degrades to a substring fallback when the matcher is slow or unavailable.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"input": {Type: "string", Description: "The user's message"},
			},
			Required: []string{"input"},
		},
	}, s.handleMatch)

	s.addTool(&mcp.Tool{
		Name:        ToolMatchBatch,
		Description: "Match several user messages. Results are returned in input order.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"inputs": {
					Type:        "array",
					Description: fmt.Sprintf("User messages to match (at most %d)", BatchMaxInputs),
					Items:       &jsonschema.Schema{Type: "string"},
				},
			},
			Required: []string{"inputs"},
		},
	}, s.handleMatchBatch)

	s.addTool(&mcp.Tool{
		Name:        ToolPatterns,
		Description: "List messages that missed or matched below threshold, most frequent first. Use these to grow the corpus.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"limit": {Type: "integer", Description: fmt.Sprintf("Maximum patterns to return (default %d)", PatternsDefaultLimit)},
			},
		},
	}, s.handlePatterns)

	s.addTool(&mcp.Tool{
		Name:        ToolClearPatterns,
		Description: "Forget all recorded learning patterns.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, s.handleClearPatterns)

	s.addTool(&mcp.Tool{
		Name:        ToolReload,
		Description: "Reload the response corpus from its configured files.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, s.handleReload)

	s.addTool(&mcp.Tool{
		Name:        ToolStats,
		Description: "Show corpus, index, cache and circuit breaker statistics.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, s.handleStats)

	s.addTool(&mcp.Tool{
		Name:        ToolConfigure,
		Description: "Change matching settings at runtime. Omitted fields keep their value.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"threshold":       {Type: "number", Description: "Minimum confidence for a match, 0 to 1"},
				"algorithms":      {Type: "array", Items: &jsonschema.Schema{Type: "string"}, Description: "Scoring algorithms: levenshtein, jaroWinkler, ngram, cosine, semantic"},
				"weights":         {Type: "object", Description: "Relative weight per algorithm name"},
				"debug":           {Type: "boolean", Description: "Attach candidate details to results"},
				"call_timeout_ms": {Type: "integer", Description: "Per-call timeout before the fallback answers"},
				"resilience":      {Type: "boolean", Description: "Enable the circuit breaker and timeout"},

				"processing_budget_ms": {Type: "integer", Description: "Soft per-query budget; overruns are logged, 0 disables"},
			},
		},
	}, s.handleConfigure)
}

// recoverFromPanic turns a handler panic into an error result so one bad
// call cannot take down the stdio session
func (s *Server) recoverFromPanic(operation string, handler toolHandler) toolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("tool handler panicked",
					zap.String(logging.FieldOperation, operation),
					zap.Any(logging.FieldPanic, r),
					zap.ByteString("stack", debug.Stack()),
				)
				result, err = createErrorResponse(operation, fmt.Errorf("internal error in %s", operation))
			}
		}()
		return handler(ctx, req)
	}
}

// Start serves MCP over stdio until ctx is cancelled or the client disconnects
func (s *Server) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	s.logger.Info("mcp server starting",
		zap.String("version", version.Version),
		zap.Int(logging.FieldCount, s.engine.Corpus().Len()),
	)
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Shutdown stops a running Start
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}

// Close releases server resources
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		_ = s.Shutdown(context.Background())
		_ = s.logger.Sync()
	})
	return nil
}

// GetHandlerForTesting returns the registered handler for toolName
func (s *Server) GetHandlerForTesting(toolName string) toolHandler {
	return s.handlers[toolName]
}
