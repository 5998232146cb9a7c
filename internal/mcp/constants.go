package mcp

// Server identity
const (
	ServerName = "quickreply-mcp-server"
)

// Tool limits
const (
	// BatchMaxInputs caps a single match_batch call
	BatchMaxInputs = 256

	// PatternsDefaultLimit is how many learning patterns are listed by default
	PatternsDefaultLimit = 50

	// PatternsMaxLimit bounds the patterns tool's limit parameter
	PatternsMaxLimit = 1000
)

// Tool names
const (
	ToolInfo          = "info"
	ToolMatch         = "match"
	ToolMatchBatch    = "match_batch"
	ToolPatterns      = "patterns"
	ToolClearPatterns = "clear_patterns"
	ToolReload        = "reload"
	ToolStats         = "stats"
	ToolConfigure     = "configure"
)
