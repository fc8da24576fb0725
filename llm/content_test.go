package llm

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/kbukum/chainkit/errors"
)

func TestTurnMarshalShape(t *testing.T) {
	turn := Turn{Role: RoleAssistant, Content: []ContentBlock{
		Text{Text: "checking"},
		ToolUse{ID: "t1", Name: "add", Input: map[string]any{"a": 1}},
	}}
	data, err := json.Marshal(turn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"role":"assistant","content":[{"type":"text","text":"checking"},{"type":"tool_use","id":"t1","name":"add","input":{"a":1}}]}`
	if string(data) != want {
		t.Errorf("unexpected json\n got: %s\nwant: %s", data, want)
	}
}

func TestToolResultMarshal(t *testing.T) {
	turn := Turn{Role: RoleUser, Content: []ContentBlock{
		ToolResult{ToolUseID: "t1", Content: map[string]any{"return": 3}, Status: ToolSuccess},
	}}
	data, _ := json.Marshal(turn)
	want := `{"role":"user","content":[{"type":"tool_result","tool_use_id":"t1","content":{"return":3},"status":"success"}]}`
	if string(data) != want {
		t.Errorf("unexpected json\n got: %s\nwant: %s", data, want)
	}
}

func TestTurnUnmarshal(t *testing.T) {
	data := `{"role":"user","content":[
		{"type":"text","text":"hi"},
		{"type":"tool_result","tool_use_id":"t1","content":"tool add not found","status":"error"},
		{"type":"image","source":{"data":"..."}}
	]}`
	var turn Turn
	if err := json.Unmarshal([]byte(data), &turn); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if turn.Role != RoleUser || len(turn.Content) != 3 {
		t.Fatalf("unexpected turn %+v", turn)
	}
	if turn.Content[0] != (Text{Text: "hi"}) {
		t.Errorf("unexpected text block %#v", turn.Content[0])
	}
	res, ok := turn.Content[1].(ToolResult)
	if !ok || res.Status != ToolError || res.Content != "tool add not found" {
		t.Errorf("unexpected tool result %#v", turn.Content[1])
	}
	unsup, ok := turn.Content[2].(Unsupported)
	if !ok || unsup.Type() != "image" {
		t.Errorf("expected unsupported image block, got %#v", turn.Content[2])
	}

	// Unsupported blocks keep their original payload.
	again, _ := json.Marshal(turn)
	if !strings.Contains(string(again), `"source":{"data":"..."}`) {
		t.Errorf("expected raw block preserved, got %s", again)
	}
}

func TestTurnRoundTripToolUse(t *testing.T) {
	in := Turn{Role: RoleAssistant, Content: []ContentBlock{ToolUse{ID: "x", Name: "lookup", Input: map[string]any{"q": "go"}}}}
	data, _ := json.Marshal(in)
	var out Turn
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("expected %#v, got %#v", in, out)
	}
}

func TestTurnUnmarshalMalformed(t *testing.T) {
	tests := map[string]string{
		"not json":           `{"role":`,
		"text without text":  `{"role":"user","content":[{"type":"text"}]}`,
		"content not object": `{"role":"user","content":[42]}`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			var turn Turn
			err := turn.UnmarshalJSON([]byte(data))
			if !errors.IsCode(err, errors.ErrCodeSerialization) {
				t.Errorf("expected SERIALIZATION_ERROR, got %v", err)
			}
		})
	}
}

func TestResponseHelpers(t *testing.T) {
	resp := Response{Content: []ContentBlock{
		Text{Text: "a"},
		ToolUse{ID: "1", Name: "x"},
		Text{Text: "b"},
		ToolUse{ID: "2", Name: "y"},
	}}
	if resp.Text() != "a\nb" {
		t.Errorf("unexpected text %q", resp.Text())
	}
	uses := resp.ToolUses()
	if len(uses) != 2 || uses[0].ID != "1" || uses[1].Name != "y" {
		t.Errorf("unexpected tool uses %v", uses)
	}
	if turn := resp.Turn(); turn.Role != RoleAssistant || len(turn.Content) != 4 {
		t.Errorf("unexpected turn %+v", turn)
	}
	if UserText("q").Text(" ") != "q" {
		t.Error("expected UserText round trip")
	}
}

func TestConfig(t *testing.T) {
	cfg := Config{Backend: "openai"}
	cfg.ApplyDefaults()
	if cfg.Name != "openai-llm" || cfg.Timeout == 0 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	hot := 3.0
	bad := Config{MaxTokens: -1, Temperature: &hot}
	err := bad.Validate()
	if !errors.IsCode(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
	for _, field := range []string{"backend", "max_tokens", "temperature"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("expected %s in %q", field, err.Error())
		}
	}
}

func TestExtractJSON(t *testing.T) {
	tests := map[string]string{
		"{\"a\":1}":                         `{"a":1}`,
		"```json\n{\"a\":1}\n```":           `{"a":1}`,
		"Sure! {\"a\":[1]} hope that helps": `{"a":[1]}`,
		"[{\"a\":1}]":                       `[{"a":1}]`,
		"no json here":                      "no json here",
	}
	for in, want := range tests {
		if got := ExtractJSON(in); got != want {
			t.Errorf("ExtractJSON(%q) = %q, want %q", in, got, want)
		}
	}
}
