package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeNotFound, "not found")
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.Message != "not found" {
		t.Errorf("expected message 'not found', got %q", err.Message)
	}
	if err.Retryable {
		t.Error("NOT_FOUND should not be retryable")
	}
}

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeProvider, "backend down")
	if !err.Retryable {
		t.Error("PROVIDER_ERROR should be retryable")
	}
}

func TestAppError_ToolNotFound(t *testing.T) {
	err := ToolNotFound("add")
	if err.Code != ErrCodeToolNotFound {
		t.Errorf("expected TOOL_NOT_FOUND, got %s", err.Code)
	}
	if !strings.Contains(err.Error(), "tool add not found") {
		t.Errorf("unexpected message %q", err.Error())
	}
	if err.Details["tool"] != "add" {
		t.Errorf("expected tool=add, got %v", err.Details["tool"])
	}
}

func TestAppError_SchemaNotFound(t *testing.T) {
	err := SchemaNotFound("add")
	if err.Code != ErrCodeToolNotFound {
		t.Errorf("expected TOOL_NOT_FOUND, got %s", err.Code)
	}
	if !strings.Contains(err.Message, "schema for tool add") {
		t.Errorf("unexpected message %q", err.Message)
	}
}

func TestAppError_Composition(t *testing.T) {
	err := Composition(2, "string", "int")
	if err.Code != ErrCodeComposition {
		t.Errorf("expected COMPOSITION_ERROR, got %s", err.Code)
	}
	if err.Details["step"] != 2 {
		t.Errorf("expected step=2, got %v", err.Details["step"])
	}
	if err.Retryable {
		t.Error("composition errors are defects and must not be retryable")
	}
}

func TestAppError_NotFound_EmptyID(t *testing.T) {
	err := NotFound("backend", "")
	if _, ok := err.Details["id"]; ok {
		t.Error("expected no 'id' key in details when id is empty")
	}
}

func TestAppError_WithCause_Chain(t *testing.T) {
	root := fmt.Errorf("connection reset")
	err := Provider("openai", root)
	if !stderrors.Is(err, root) {
		t.Error("expected errors.Is to find the cause")
	}
	if !strings.Contains(err.Error(), "connection reset") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}
}

func TestAppError_WithDetails_Merge(t *testing.T) {
	err := NotFound("tool", "x").WithDetails(map[string]any{"extra": 1})
	if err.Details["resource"] != "tool" || err.Details["extra"] != 1 {
		t.Errorf("expected merged details, got %v", err.Details)
	}
}

func TestAppError_WithDetail_NilMap(t *testing.T) {
	err := RateLimited().WithDetail("reason", "burst")
	if err.Details["reason"] != "burst" {
		t.Errorf("expected reason=burst, got %v", err.Details)
	}
}

func TestAppError_Error_Format(t *testing.T) {
	err := New(ErrCodeConflict, "sealed")
	if err.Error() != "CONFLICT: sealed" {
		t.Errorf("unexpected format %q", err.Error())
	}
}

func TestAppError_Constructors_Table(t *testing.T) {
	tests := []struct {
		name      string
		err       *AppError
		code      ErrorCode
		retryable bool
	}{
		{"Provider", Provider("openai", nil), ErrCodeProvider, true},
		{"Combination", Combination("fan", nil), ErrCodeCombination, false},
		{"EmptyResponse", EmptyResponse("gpt"), ErrCodeEmptyResponse, false},
		{"Serialization", Serialization("tool arguments", nil), ErrCodeSerialization, false},
		{"UnsupportedContent", UnsupportedContent("image"), ErrCodeUnsupportedContent, false},
		{"Template", Template("greeting", nil), ErrCodeTemplate, false},
		{"ToolExecution", ToolExecution("add", nil), ErrCodeToolExecution, false},
		{"ServiceUnavailable", ServiceUnavailable("model"), ErrCodeServiceUnavailable, true},
		{"Timeout", Timeout("process"), ErrCodeTimeout, true},
		{"RateLimited", RateLimited(), ErrCodeRateLimited, true},
		{"Conflict", Conflict("sealed"), ErrCodeConflict, false},
		{"InvalidInput", InvalidInput("x", "must be a number"), ErrCodeInvalidInput, false},
		{"Validation", Validation("bad input"), ErrCodeInvalidInput, false},
		{"Internal", Internal(nil), ErrCodeInternal, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("expected code %s, got %s", tc.code, tc.err.Code)
			}
			if tc.err.Retryable != tc.retryable {
				t.Errorf("expected retryable=%v, got %v", tc.retryable, tc.err.Retryable)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", fmt.Errorf("boom"), true},
		{"canceled", context.Canceled, false},
		{"wrapped deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), false},
		{"provider", Provider("x", nil), true},
		{"tool not found", ToolNotFound("x"), false},
		{"wrapped provider", fmt.Errorf("outer: %w", Provider("x", nil)), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsRetryable(tc.err); got != tc.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", EmptyResponse("m"))
	if !IsCode(err, ErrCodeEmptyResponse) {
		t.Error("expected IsCode to see through wrapping")
	}
	if IsCode(err, ErrCodeProvider) {
		t.Error("expected IsCode to reject other codes")
	}
	if IsCode(fmt.Errorf("plain"), ErrCodeInternal) {
		t.Error("plain errors carry no code")
	}
}

func TestAppError_AsAppError(t *testing.T) {
	original := Timeout("call")
	wrapped := fmt.Errorf("wrap: %w", original)
	got, ok := AsAppError(wrapped)
	if !ok || got != original {
		t.Fatal("expected AsAppError to return the original error")
	}
	if _, ok := AsAppError(fmt.Errorf("plain")); ok {
		t.Error("expected plain error not to convert")
	}
	if !IsAppError(wrapped) {
		t.Error("expected IsAppError true")
	}
}

func TestWrap_NilReturnsNil(t *testing.T) {
	if Wrap(nil) != nil {
		t.Error("expected nil")
	}
}

func TestWrap_AppErrorPassthrough(t *testing.T) {
	original := ToolNotFound("x")
	if Wrap(fmt.Errorf("outer: %w", original)) != original {
		t.Error("expected wrapped AppError to be returned as-is")
	}
}

func TestWrap_PlainError(t *testing.T) {
	cause := fmt.Errorf("disk full")
	got := Wrap(cause)
	if got.Code != ErrCodeInternal || got.Cause != cause {
		t.Errorf("expected INTERNAL_ERROR with cause, got %+v", got)
	}
}

func TestAppError_ImplementsErrorInterface(t *testing.T) {
	var err error = Internal(nil)
	if err.Error() == "" {
		t.Error("expected non-empty error string")
	}
}
