package llm

import (
	"github.com/kbukum/chainkit/node"
	"github.com/kbukum/chainkit/tools"
)

// Request is the input of a model unit.
type Request struct {
	// Model overrides the backend's configured model.
	Model string `json:"model,omitempty"`
	// System is the system prompt.
	System string `json:"system,omitempty"`
	// Turns is the conversation so far, oldest first.
	Turns []Turn `json:"turns"`
	// Tools are offered to the model for this call.
	Tools []tools.Schema `json:"tools,omitempty"`
	// Temperature overrides the backend's sampling temperature when set.
	Temperature *float64 `json:"temperature,omitempty"`
	// MaxTokens limits the response length. 0 means the backend default.
	MaxTokens int `json:"max_tokens,omitempty"`
}

// StopReason explains why the model stopped generating.
type StopReason string

const (
	StopEndTurn   StopReason = "end_turn"
	StopToolUse   StopReason = "tool_use"
	StopMaxTokens StopReason = "max_tokens"
	StopOther     StopReason = "other"
)

// Response is the output of a model unit.
type Response struct {
	// Content is the assistant turn's content.
	Content []ContentBlock `json:"-"`
	// StopReason is the backend's reason for stopping.
	StopReason StopReason `json:"stop_reason"`
	// Model is the model that produced the response.
	Model string `json:"model"`
	// Usage reports token consumption.
	Usage Usage `json:"usage"`
}

// Usage reports token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Text joins the response's text blocks with newlines.
func (r Response) Text() string {
	return joinText(r.Content, "\n")
}

// ToolUses returns the tool calls the model requested, in order.
func (r Response) ToolUses() []ToolUse {
	var out []ToolUse
	for _, b := range r.Content {
		if tu, ok := b.(ToolUse); ok {
			out = append(out, tu)
		}
	}
	return out
}

// Turn returns the response as an assistant turn.
func (r Response) Turn() Turn {
	return Turn{Role: RoleAssistant, Content: r.Content}
}

// Model is a unit that sends a conversation to a language model.
type Model = node.Node[Request, Response]
