package agent

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/kbukum/chainkit/chain"
	"github.com/kbukum/chainkit/errors"
	"github.com/kbukum/chainkit/llm"
	"github.com/kbukum/chainkit/llm/llmtest"
	"github.com/kbukum/chainkit/logger"
	"github.com/kbukum/chainkit/state"
	"github.com/kbukum/chainkit/tools"
)

type addParams struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

func testRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	r := tools.NewRegistry()
	add := tools.MustTyped("add", "Adds two numbers", func(_ context.Context, p addParams) (float64, error) {
		return p.A + p.B, nil
	})
	fail := tools.MustTyped("fail", "Always fails", func(_ context.Context, _ struct{}) (string, error) {
		return "", stderrors.New("disk on fire")
	})
	for _, e := range []tools.Entry{add, fail} {
		if err := r.Add(e); err != nil {
			t.Fatal(err)
		}
	}
	return r
}

func toolResults(t *testing.T, turn llm.Turn) []llm.ToolResult {
	t.Helper()
	if turn.Role != llm.RoleUser {
		t.Fatalf("expected user turn, got %s", turn.Role)
	}
	var out []llm.ToolResult
	for _, b := range turn.Content {
		if r, ok := b.(llm.ToolResult); ok {
			out = append(out, r)
		}
	}
	return out
}

func TestTextAnswer(t *testing.T) {
	model := llmtest.New(llmtest.Text("4"))
	exec := New(model, testRegistry(t))

	got, err := exec.Process(context.Background(), "What is 2 + 2?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "4" || model.Calls() != 1 {
		t.Errorf("got %q after %d calls", got, model.Calls())
	}

	req, _ := model.LastRequest()
	if req.System != DefaultSystemPrompt {
		t.Errorf("unexpected system prompt %q", req.System)
	}
	if len(req.Tools) != 2 || req.Tools[0].Name != "add" {
		t.Errorf("expected tool schemas sorted by name, got %+v", req.Tools)
	}
	if want := "Given the tools available, answer the user's question: What is 2 + 2?"; req.Turns[0].Text("") != want {
		t.Errorf("unexpected instruction %q", req.Turns[0].Text(""))
	}

	history := exec.History()
	if len(history) != 2 || history[1].Role != llm.RoleAssistant {
		t.Errorf("unexpected history %+v", history)
	}
}

func TestToolRoundTrip(t *testing.T) {
	call := llmtest.ToolCall("add", map[string]any{"a": 1, "b": 2})
	model := llmtest.New(llmtest.Reply(call), llmtest.Text("The answer is 3."))
	exec := New(model, testRegistry(t))

	got, err := exec.Process(context.Background(), "add 1 and 2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "The answer is 3." {
		t.Errorf("unexpected answer %q", got)
	}
	if model.Calls() != 2 {
		t.Fatalf("expected 2 model calls, got %d", model.Calls())
	}

	second := model.Requests()[1]
	if len(second.Turns) != 3 {
		t.Fatalf("expected instruction, tool use and result, got %d turns", len(second.Turns))
	}
	results := toolResults(t, second.Turns[2])
	if len(results) != 1 || results[0].ToolUseID != call.ID || results[0].Status != llm.ToolSuccess {
		t.Fatalf("unexpected results %+v", results)
	}
	if ret := results[0].Content.(map[string]any)["return"]; ret != 3.0 {
		t.Errorf("expected return 3, got %v", ret)
	}
	if len(exec.History()) != 4 {
		t.Errorf("expected 4 turns of history, got %d", len(exec.History()))
	}
}

func TestTextAccumulatesAcrossTurns(t *testing.T) {
	model := llmtest.New(
		llmtest.Reply(llm.Text{Text: "Let me add."}, llmtest.ToolCall("add", map[string]any{"a": 2, "b": 2})),
		llmtest.Text("It is 4."),
	)
	got, err := New(model, testRegistry(t), WithSeparator(" | ")).Process(context.Background(), "2+2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Let me add. | It is 4." {
		t.Errorf("unexpected answer %q", got)
	}
}

func TestToolErrorsAreReportedToModel(t *testing.T) {
	tests := []struct {
		name string
		call llm.ToolUse
		want string
	}{
		{"unknown tool", llmtest.ToolCall("nope", nil), "TOOL_NOT_FOUND"},
		{"tool failure", llmtest.ToolCall("fail", nil), "disk on fire"},
		{"bad params", llmtest.ToolCall("add", map[string]any{"a": "x"}), "INVALID_INPUT"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			model := llmtest.New(llmtest.Reply(tc.call), llmtest.Text("sorry"))
			got, err := New(model, testRegistry(t)).Process(context.Background(), "q")
			if err != nil || got != "sorry" {
				t.Fatalf("expected run to continue, got %q, %v", got, err)
			}
			results := toolResults(t, model.Requests()[1].Turns[2])
			if len(results) != 1 || results[0].Status != llm.ToolError {
				t.Fatalf("unexpected results %+v", results)
			}
			if msg, _ := results[0].Content.(string); !strings.Contains(msg, tc.want) {
				t.Errorf("expected %q in %q", tc.want, msg)
			}
		})
	}
}

func TestIterationBound(t *testing.T) {
	model := llmtest.Loop(llmtest.Reply(llmtest.ToolCall("add", map[string]any{"a": 1, "b": 1})))
	store := state.New[string, []llm.Turn]()
	exec := New(model, testRegistry(t), WithMaxIterations(3), WithStore(store))

	got, err := exec.Process(context.Background(), "loop")
	if err != nil {
		t.Fatalf("reaching the bound must not fail: %v", err)
	}
	if got != "" {
		t.Errorf("expected no text, got %q", got)
	}
	if model.Calls() != 3 {
		t.Errorf("expected exactly 3 model calls, got %d", model.Calls())
	}

	history, _ := store.Get(HistoryKey)
	if len(history) != 7 {
		t.Fatalf("expected 7 turns, got %d", len(history))
	}
	if len(toolResults(t, history[6])) != 1 {
		t.Error("expected the last tool results to be kept")
	}

	// The next run folds its instruction into the trailing tool results.
	next := llmtest.New(llmtest.Text("done"))
	if _, err := New(next, testRegistry(t), WithStore(store)).Process(context.Background(), "again"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req, _ := next.LastRequest()
	last := req.Turns[len(req.Turns)-1]
	if len(req.Turns) != 7 || last.Role != llm.RoleUser || len(last.Content) != 2 {
		t.Fatalf("expected merged user turn, got %d turns, last %+v", len(req.Turns), last)
	}
	if !strings.HasSuffix(last.Text(""), "again") {
		t.Errorf("expected instruction in merged turn, got %q", last.Text(""))
	}
}

func TestDefaultBound(t *testing.T) {
	model := llmtest.Loop(llmtest.Reply(llmtest.ToolCall("add", map[string]any{"a": 1, "b": 1})))
	if _, err := New(model, testRegistry(t)).Process(context.Background(), "loop"); err != nil {
		t.Fatal(err)
	}
	if model.Calls() != DefaultMaxIterations {
		t.Errorf("expected %d calls, got %d", DefaultMaxIterations, model.Calls())
	}
}

func TestFatalResponses(t *testing.T) {
	provider := errors.Provider("scripted", stderrors.New("503"))
	tests := []struct {
		name string
		step llmtest.Step
		code errors.ErrorCode
	}{
		{"empty", llmtest.Reply(), errors.ErrCodeEmptyResponse},
		{"tool result from model", llmtest.Reply(llm.ToolResult{ToolUseID: "x", Content: "y"}), errors.ErrCodeUnsupportedContent},
		{"unsupported block", llmtest.Reply(llm.Text{Text: "see"}, llm.Unsupported{Kind: "image"}), errors.ErrCodeUnsupportedContent},
		{"provider error", llmtest.Fail(provider), errors.ErrCodeProvider},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			exec := New(llmtest.New(tc.step), testRegistry(t))
			_, err := exec.Process(context.Background(), "q")
			if !errors.IsCode(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
			if len(exec.History()) != 1 {
				t.Errorf("expected only the instruction in history, got %+v", exec.History())
			}
		})
	}
}

func TestCanceledContext(t *testing.T) {
	model := llmtest.New(llmtest.Text("never"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(model, testRegistry(t)).Process(ctx, "q"); !stderrors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if model.Calls() != 0 {
		t.Errorf("expected no model calls, got %d", model.Calls())
	}
}

func TestCustomPrompts(t *testing.T) {
	model := llmtest.New(llmtest.Text("ok"))
	exec := New(model, testRegistry(t),
		WithName("math"),
		WithSystemPrompt("You do math."),
		WithInstruction("Solve:"),
	)
	if _, err := exec.Process(context.Background(), "1+1"); err != nil {
		t.Fatal(err)
	}
	req, _ := model.LastRequest()
	if req.System != "You do math." || req.Turns[0].Text("") != "Solve: 1+1" {
		t.Errorf("unexpected request %+v", req)
	}
	if exec.Name() != "math" {
		t.Errorf("unexpected name %q", exec.Name())
	}
}

func TestStatefulLinkSharesHistory(t *testing.T) {
	store := state.New[string, []llm.Turn]()
	first := New(llmtest.New(llmtest.Text("draft")), testRegistry(t), WithName("writer"), WithStore(store))
	reviewerModel := llmtest.New(llmtest.Text("approved"))
	reviewer := New(reviewerModel, testRegistry(t), WithName("reviewer"), WithInstruction("Review: %s"))

	pipeline := chain.LinkWithState[string, string, string, string, []llm.Turn](first, reviewer, store)
	got, err := pipeline.Process(context.Background(), "write a haiku")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "approved" {
		t.Errorf("unexpected output %q", got)
	}

	req, _ := reviewerModel.LastRequest()
	if len(req.Turns) != 3 || req.Turns[2].Text("") != "Review: draft" {
		t.Errorf("expected reviewer to see the writer's history, got %+v", req.Turns)
	}
	if !reviewer.Store().Shares(store) {
		t.Error("expected injected store")
	}
}

func TestContextStoreTakesPrecedence(t *testing.T) {
	injected := state.New[string, []llm.Turn]()
	exec := New(llmtest.New(llmtest.Text("ok")), testRegistry(t), WithStore(injected))

	carried := state.New[string, []llm.Turn]()
	ctx := state.ContextWithStore(context.Background(), carried)
	if _, err := exec.Process(ctx, "q"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if turns, _ := carried.Get(HistoryKey); len(turns) != 2 {
		t.Errorf("expected question and answer in the carried store, got %d turns", len(turns))
	}
	if injected.Len() != 0 {
		t.Errorf("expected injected store untouched, got %d keys", injected.Len())
	}
}

func TestSetStateIgnoresNil(t *testing.T) {
	exec := New(llmtest.New(), nil)
	before := exec.Store()
	exec.SetState(nil)
	if exec.Store() != before {
		t.Error("expected nil store to be ignored")
	}
}

func TestRunIsLogged(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, &logger.Config{Level: "info", Format: "json"}, "test")
	exec := New(llmtest.New(llmtest.Text("ok")), testRegistry(t), WithLogger(log))
	if _, err := exec.Process(context.Background(), "q"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"agent run finished", `"run_id":`, `"component":"agent"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}

func TestConfig(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.MaxIterations != 10 || cfg.Separator != "\n\n" || cfg.Name != "agent" {
		t.Errorf("unexpected defaults %+v", cfg)
	}

	if _, err := NewFromConfig(Config{MaxIterations: -1}, llmtest.New(), nil); !errors.IsCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for negative bound, got %v", err)
	}
	if _, err := NewFromConfig(Config{Instruction: "%s and %s"}, llmtest.New(), nil); err == nil {
		t.Error("expected error for two format verbs")
	}

	exec, err := NewFromConfig(Config{Name: "cfg", MaxIterations: 2}, llmtest.Loop(llmtest.Reply(llmtest.ToolCall("add", map[string]any{"a": 1, "b": 1}))), testRegistry(t))
	if err != nil {
		t.Fatal(err)
	}
	if exec.Name() != "cfg" || exec.cfg.MaxIterations != 2 {
		t.Errorf("unexpected executor config %+v", exec.cfg)
	}
}
