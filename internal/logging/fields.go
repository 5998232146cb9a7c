package logging

// Standard field names for structured logging.
// Use these constants instead of raw strings.
const (
	// Components
	FieldComponent = "component"
	FieldOperation = "operation"

	// Matching
	FieldInput      = "input"
	FieldKey        = "key"
	FieldConfidence = "confidence"
	FieldAlgorithm  = "algorithm"
	FieldThreshold  = "threshold"
	FieldTier       = "tier"
	FieldCandidates = "candidates"
	FieldFailure    = "failure"

	// Timing
	FieldDurationMS = "duration_ms"
	FieldBudgetMS   = "budget_ms"
	FieldTimeoutMS  = "timeout_ms"

	// Errors
	FieldError = "error"
	FieldStage = "stage"
	FieldPanic = "panic"

	// Counts and state
	FieldCount       = "count"
	FieldState       = "state"
	FieldFailures    = "failures"
	FieldFingerprint = "fingerprint"

	// Files
	FieldFile   = "file"
	FieldSource = "source"
)
