package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	qrerrors "github.com/standardbeagle/quickreply/internal/errors"
)

// createJSONResponse creates a standardized JSON response for MCP tools
func createJSONResponse(data interface{}) (*mcp.CallToolResult, error) {
	content, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response data: %v", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(content)},
		},
	}, nil
}

// createErrorResponse creates a standardized error response for MCP tools
func createErrorResponse(operation string, err error) (*mcp.CallToolResult, error) {
	return createSmartErrorResponse(operation, err, nil)
}

// createSmartErrorResponse creates an error response with context-aware suggestions
func createSmartErrorResponse(operation string, err error, context map[string]interface{}) (*mcp.CallToolResult, error) {
	errorData := map[string]interface{}{
		"success":   false,
		"error":     err.Error(),
		"operation": operation,
	}

	if suggestions := generateErrorSuggestions(operation, err); len(suggestions) > 0 {
		errorData["suggestions"] = suggestions
	}
	if help := getOperationHelp(operation); help != "" {
		errorData["help"] = help
	}
	if related := getRelatedOperations(operation); len(related) > 0 {
		errorData["related_operations"] = related
	}
	if len(context) > 0 {
		errorData["context"] = context
	}

	response, marshalErr := createJSONResponse(errorData)
	if marshalErr != nil {
		return nil, marshalErr
	}

	// Tool errors are reported in the result with IsError set, not as
	// protocol errors, so the client model can see them and self-correct.
	response.IsError = true

	return response, nil
}

// generateErrorSuggestions generates suggestions for common mistakes
func generateErrorSuggestions(operation string, err error) []string {
	var suggestions []string

	switch {
	case errors.Is(err, qrerrors.ErrEmptyInput):
		suggestions = append(suggestions, "Provide the user's message: {\"input\": \"hello there\"}")
	case errors.Is(err, qrerrors.ErrInputTooLong), errors.Is(err, qrerrors.ErrInputExceedsCeiling):
		suggestions = append(suggestions, "Send only the user's latest message, not the whole conversation")
	}

	var cfgErr *qrerrors.ConfigError
	if errors.As(err, &cfgErr) {
		suggestions = append(suggestions, fmt.Sprintf("Check the '%s' setting; run stats to see the active configuration", cfgErr.Field))
	}

	var corpusErr *qrerrors.CorpusError
	if errors.As(err, &corpusErr) {
		suggestions = append(suggestions, "Fix the corpus file named in the error and run reload again")
	}

	if operation == ToolMatchBatch && len(suggestions) == 0 {
		suggestions = append(suggestions, fmt.Sprintf("Send between 1 and %d inputs: {\"inputs\": [\"hi\", \"bye\"]}", BatchMaxInputs))
	}

	return suggestions
}

// getOperationHelp provides helpful information about each operation
func getOperationHelp(operation string) string {
	helpMap := map[string]string{
		ToolMatch:         "Match one user message against the response corpus. Returns the key, confidence and suggested reply.",
		ToolMatchBatch:    "Match many user messages at once. Results are returned in input order.",
		ToolPatterns:      "List inputs that missed or matched below threshold, most frequent first.",
		ToolClearPatterns: "Forget every recorded learning pattern.",
		ToolReload:        "Reload the response corpus from its configured sources.",
		ToolStats:         "Show corpus size, index size, breaker state and the active configuration.",
		ToolConfigure:     "Change threshold, algorithms, weights or the call timeout at runtime.",
	}
	return helpMap[operation]
}

// getRelatedOperations suggests related operations that might be helpful
func getRelatedOperations(operation string) []string {
	relatedMap := map[string][]string{
		ToolMatch:      {ToolMatchBatch, ToolPatterns},
		ToolMatchBatch: {ToolMatch},
		ToolPatterns:   {ToolClearPatterns, ToolReload},
		ToolReload:     {ToolStats},
		ToolConfigure:  {ToolStats, ToolMatch},
	}
	return relatedMap[operation]
}
