package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kbukum/chainkit/errors"
	"github.com/kbukum/chainkit/llm"
	"github.com/kbukum/chainkit/tools"
)

func newServer(t *testing.T, status int, reply string, seen *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.WriteHeader(http.StatusOK)
			return
		case "/api/chat":
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if seen != nil {
			if err := json.NewDecoder(r.Body).Decode(seen); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestProcessText(t *testing.T) {
	var seen chatRequest
	srv := newServer(t, http.StatusOK, `{"model":"llama3.1","message":{"role":"assistant","content":"hello"},"done":true,"prompt_eval_count":4,"eval_count":2}`, &seen)
	temp := 0.2
	m := New(llm.Config{BaseURL: srv.URL + "/", Temperature: &temp})

	resp, err := m.Process(context.Background(), llm.Request{System: "sys", Turns: []llm.Turn{llm.UserText("hi")}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != "hello" || resp.StopReason != llm.StopEndTurn || resp.Usage.TotalTokens != 6 {
		t.Errorf("unexpected response %+v", resp)
	}
	if seen.Model != defaultModel || seen.Stream {
		t.Errorf("unexpected request %+v", seen)
	}
	if len(seen.Messages) != 2 || seen.Messages[0].Role != "system" || seen.Messages[1].Content != "hi" {
		t.Errorf("unexpected messages %+v", seen.Messages)
	}
	if seen.Options == nil || seen.Options.Temperature == nil || *seen.Options.Temperature != 0.2 {
		t.Errorf("expected temperature option, got %+v", seen.Options)
	}
}

func TestProcessToolCalls(t *testing.T) {
	var seen chatRequest
	srv := newServer(t, http.StatusOK, `{"model":"llama3.1","message":{"role":"assistant","content":"",
		"tool_calls":[{"function":{"name":"add","arguments":{"a":1,"b":2}}}]},"done":true}`, &seen)
	m := New(llm.Config{BaseURL: srv.URL})

	turns := []llm.Turn{
		llm.UserText("add"),
		{Role: llm.RoleAssistant, Content: []llm.ContentBlock{llm.ToolUse{ID: "t1", Name: "add", Input: map[string]any{"a": 1}}}},
		{Role: llm.RoleUser, Content: []llm.ContentBlock{llm.ToolResult{ToolUseID: "t1", Content: map[string]any{"return": 1}, Status: llm.ToolSuccess}}},
	}
	resp, err := m.Process(context.Background(), llm.Request{
		Turns: turns,
		Tools: []tools.Schema{tools.NewSchema("add", "Adds", tools.Param{Name: "a", Type: "number"})},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	uses := resp.ToolUses()
	if len(uses) != 1 || uses[0].Name != "add" || uses[0].Input["b"] != 2.0 || !strings.HasPrefix(uses[0].ID, "call_") {
		t.Errorf("unexpected tool uses %+v", uses)
	}
	if resp.StopReason != llm.StopToolUse {
		t.Errorf("expected tool_use stop reason, got %s", resp.StopReason)
	}

	if len(seen.Tools) != 1 || seen.Tools[0].Type != "function" || seen.Tools[0].Function.Name != "add" {
		t.Errorf("unexpected tools %+v", seen.Tools)
	}
	tool := seen.Messages[2]
	if tool.Role != "tool" || tool.ToolName != "add" || tool.Content != `{"return":1}` {
		t.Errorf("unexpected tool message %+v", tool)
	}
	if calls := seen.Messages[1].ToolCalls; len(calls) != 1 || calls[0].Function.Name != "add" {
		t.Errorf("unexpected assistant tool calls %+v", calls)
	}
}

func TestProcessErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		code      errors.ErrorCode
		retryable bool
	}{
		{"server error", 500, `{"error":"boom"}`, errors.ErrCodeProvider, true},
		{"model missing", 404, `{"error":"model not found"}`, errors.ErrCodeProvider, false},
		{"malformed", 200, `{not json`, errors.ErrCodeSerialization, false},
		{"empty", 200, `{"model":"m","message":{"role":"assistant","content":""},"done":true}`, errors.ErrCodeEmptyResponse, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := newServer(t, tc.status, tc.body, nil)
			_, err := New(llm.Config{BaseURL: srv.URL}).Process(context.Background(), llm.Request{Turns: []llm.Turn{llm.UserText("hi")}})
			if !errors.IsCode(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
			if errors.IsRetryable(err) != tc.retryable {
				t.Errorf("expected retryable=%v, got %v", tc.retryable, err)
			}
		})
	}
}

func TestProcessCanceled(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{}`, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(llm.Config{BaseURL: srv.URL}).Process(ctx, llm.Request{Turns: []llm.Turn{llm.UserText("hi")}})
	if errors.IsRetryable(err) || err == nil {
		t.Errorf("expected non-retryable cancellation, got %v", err)
	}
}

func TestIsAvailable(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{}`, nil)
	if !New(llm.Config{BaseURL: srv.URL}).IsAvailable(context.Background()) {
		t.Error("expected server to be available")
	}
	if New(llm.Config{BaseURL: "http://127.0.0.1:1"}).IsAvailable(context.Background()) {
		t.Error("expected unreachable server to be unavailable")
	}
}

func TestRegisteredBackend(t *testing.T) {
	found := false
	for _, name := range llm.Backends() {
		found = found || name == Backend
	}
	if !found {
		t.Fatalf("expected %q in %v", Backend, llm.Backends())
	}
	m, err := llm.NewModel(llm.Config{Backend: Backend})
	if err != nil || m.Name() != "ollama-llm" {
		t.Errorf("unexpected model %v, err %v", m, err)
	}
}
