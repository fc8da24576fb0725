package errors

import (
	"context"
	stderrors "errors"
	"fmt"
)

// AppError is the unified error type returned by chainkit units.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// --- Pipeline error constructors ---

// Composition creates an error for adjacent units whose types do not line up.
func Composition(step int, from, to string) *AppError {
	return &AppError{
		Code:    ErrCodeComposition,
		Message: fmt.Sprintf("step %d expects %s but previous step produces %s", step, to, from),
		Details: map[string]any{"step": step, "output": from, "input": to},
	}
}

// Provider creates an error for a failed call to a model backend.
func Provider(backend string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeProvider, Message: fmt.Sprintf("model backend %s failed", backend),
		Retryable: true, Details: map[string]any{"backend": backend}, Cause: cause,
	}
}

// Combination creates an error for a failed fan-in combination function.
func Combination(unit string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeCombination, Message: fmt.Sprintf("combining outputs of %s failed", unit),
		Details: map[string]any{"unit": unit}, Cause: cause,
	}
}

// EmptyResponse creates an error for a model response without usable content.
func EmptyResponse(model string) *AppError {
	return &AppError{
		Code: ErrCodeEmptyResponse, Message: "model returned no content",
		Details: map[string]any{"model": model},
	}
}

// Serialization creates an error for malformed structured data.
func Serialization(what string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeSerialization, Message: fmt.Sprintf("malformed %s", what), Cause: cause,
	}
}

// UnsupportedContent creates an error for a content block variant the caller cannot process.
func UnsupportedContent(kind string) *AppError {
	return &AppError{
		Code: ErrCodeUnsupportedContent, Message: fmt.Sprintf("unsupported content block %q", kind),
		Details: map[string]any{"kind": kind},
	}
}

// Template creates an error for a prompt template that failed to render.
func Template(name string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeTemplate, Message: fmt.Sprintf("rendering template %s failed", name),
		Details: map[string]any{"template": name}, Cause: cause,
	}
}

// ToolNotFound creates an error for an unregistered tool.
func ToolNotFound(name string) *AppError {
	return &AppError{
		Code: ErrCodeToolNotFound, Message: fmt.Sprintf("tool %s not found", name),
		Details: map[string]any{"tool": name},
	}
}

// SchemaNotFound creates an error for a schema lookup of an unregistered tool.
func SchemaNotFound(name string) *AppError {
	return &AppError{
		Code: ErrCodeToolNotFound, Message: fmt.Sprintf("schema for tool %s not found", name),
		Details: map[string]any{"tool": name},
	}
}

// ToolExecution creates an error for a failed tool callable.
func ToolExecution(name string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeToolExecution, Message: fmt.Sprintf("tool %s failed", name),
		Details: map[string]any{"tool": name}, Cause: cause,
	}
}

// --- General constructors ---

// ServiceUnavailable creates an error for a dependency that is temporarily unavailable.
func ServiceUnavailable(service string) *AppError {
	return &AppError{
		Code: ErrCodeServiceUnavailable, Message: fmt.Sprintf("%s is temporarily unavailable", service),
		Retryable: true, Details: map[string]any{"service": service},
	}
}

// Timeout creates an error for an operation that exceeded its deadline.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: fmt.Sprintf("%s timed out", operation),
		Retryable: true, Details: map[string]any{"operation": operation},
	}
}

// RateLimited creates an error for a rate-limited call.
func RateLimited() *AppError {
	return &AppError{Code: ErrCodeRateLimited, Message: "rate limit exceeded", Retryable: true}
}

// NotFound creates an error for a named resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("%s not found", resource), Details: details,
	}
}

// Conflict creates an error for an operation that conflicts with current state.
func Conflict(reason string) *AppError {
	return &AppError{Code: ErrCodeConflict, Message: reason}
}

// InvalidInput creates an error for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("invalid input: %s", reason), Details: details,
	}
}

// Validation creates an error for failed validation.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidInput, Message: message}
}

// Internal creates an error for an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: "unexpected error", Cause: cause}
}

// --- Inspection helpers ---

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err is an AppError with the given code.
func IsCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// IsRetryable reports whether err is worth retrying. Context cancellation
// is never retryable; plain errors are, AppErrors follow their flag.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr.Retryable
	}
	return true
}

// Wrap converts any error into an AppError. AppErrors anywhere in the chain
// are returned as-is; other errors become INTERNAL_ERROR with the original
// as cause.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Internal(err)
}
