package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Pipeline errors
const (
	// ErrCodeComposition indicates adjacent units have incompatible types.
	// With the typed builder this cannot happen at run time.
	ErrCodeComposition ErrorCode = "COMPOSITION_ERROR"
	// ErrCodeProvider indicates a model or backend call failed.
	ErrCodeProvider ErrorCode = "PROVIDER_ERROR"
	// ErrCodeCombination indicates a fan-in combination function failed.
	ErrCodeCombination ErrorCode = "COMBINATION_ERROR"
	// ErrCodeEmptyResponse indicates a model returned no usable content.
	ErrCodeEmptyResponse ErrorCode = "EMPTY_RESPONSE"
	// ErrCodeSerialization indicates malformed structured data at a boundary.
	ErrCodeSerialization ErrorCode = "SERIALIZATION_ERROR"
	// ErrCodeUnsupportedContent indicates a content block the caller cannot handle.
	ErrCodeUnsupportedContent ErrorCode = "UNSUPPORTED_CONTENT"
	// ErrCodeTemplate indicates prompt template rendering failed.
	ErrCodeTemplate ErrorCode = "TEMPLATE_ERROR"
)

// Tool errors. The agent loop reports these back to the model instead of
// failing the pipeline.
const (
	// ErrCodeToolNotFound indicates no tool is registered under the name.
	ErrCodeToolNotFound ErrorCode = "TOOL_NOT_FOUND"
	// ErrCodeToolExecution indicates a tool callable failed.
	ErrCodeToolExecution ErrorCode = "TOOL_EXECUTION_ERROR"
)

// Availability errors (retryable)
const (
	// ErrCodeServiceUnavailable indicates a dependency is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeTimeout indicates the call exceeded its deadline.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeRateLimited indicates the caller is rate limited.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
)

// General errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeNotFound indicates a named resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeConflict indicates the operation conflicts with current state.
	ErrCodeConflict ErrorCode = "CONFLICT"
	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeProvider:           true,
	ErrCodeServiceUnavailable: true,
	ErrCodeTimeout:            true,
	ErrCodeRateLimited:        true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
