// Package ollama implements llm.Model on Ollama's /api/chat endpoint.
//
// Importing the package registers the "ollama" backend.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/kbukum/chainkit/errors"
	"github.com/kbukum/chainkit/llm"
	"github.com/kbukum/chainkit/tools"
)

const (
	// Backend is the registered backend name.
	Backend = "ollama"

	defaultURL   = "http://localhost:11434"
	defaultModel = "llama3.1"
)

func init() {
	llm.RegisterBackend(Backend, func(cfg llm.Config) (llm.Model, error) {
		return New(cfg), nil
	})
}

// Model talks to a local or remote Ollama server. Ollama does not assign
// tool call ids, so one is generated for each call it returns.
type Model struct {
	name        string
	baseURL     string
	model       string
	temperature *float64
	maxTokens   int
	client      *http.Client
}

var _ llm.Model = (*Model)(nil)

// New creates a model from config. Deadlines come from the caller's
// context; llm.NewModel adds cfg.Timeout.
func New(cfg llm.Config) *Model {
	m := &Model{
		name:        cfg.Name,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		client:      &http.Client{},
	}
	if m.name == "" {
		m.name = Backend + "-llm"
	}
	if m.baseURL == "" {
		m.baseURL = defaultURL
	}
	if m.model == "" {
		m.model = defaultModel
	}
	return m
}

func (m *Model) Name() string { return m.name }

// IsAvailable checks if the Ollama server is reachable.
func (m *Model) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return false
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Process sends one non-streaming chat request.
func (m *Model) Process(ctx context.Context, req llm.Request) (llm.Response, error) {
	chatReq, err := m.buildChatRequest(req)
	if err != nil {
		return llm.Response{}, err
	}
	resp, err := m.doRequest(ctx, chatReq)
	if err != nil {
		return llm.Response{}, err
	}
	return parseResponse(resp)
}

// --- internal Ollama API types ---

type chatFunction struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type chatToolCall struct {
	Function chatFunction `json:"function"`
}

type chatMessage struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	ToolCalls []chatToolCall `json:"tool_calls,omitempty"`
	ToolName  string         `json:"tool_name,omitempty"`
}

type chatTool struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

type chatOptions struct {
	Temperature *float64 `json:"temperature,omitempty"`
	NumPredict  int      `json:"num_predict,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Tools    []chatTool    `json:"tools,omitempty"`
	Stream   bool          `json:"stream"`
	Options  *chatOptions  `json:"options,omitempty"`
}

type chatResponse struct {
	Model           string      `json:"model"`
	Message         chatMessage `json:"message"`
	Done            bool        `json:"done"`
	DoneReason      string      `json:"done_reason,omitempty"`
	PromptEvalCount int         `json:"prompt_eval_count,omitempty"`
	EvalCount       int         `json:"eval_count,omitempty"`
}

func (m *Model) buildChatRequest(req llm.Request) (chatRequest, error) {
	model := m.model
	if req.Model != "" {
		model = req.Model
	}

	msgs := make([]chatMessage, 0, len(req.Turns)+1)
	if req.System != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: req.System})
	}
	// Tool results carry only the call id; Ollama wants the tool name.
	names := map[string]string{}
	for _, turn := range req.Turns {
		converted, err := toMessages(turn, names)
		if err != nil {
			return chatRequest{}, err
		}
		msgs = append(msgs, converted...)
	}

	out := chatRequest{Model: model, Messages: msgs, Tools: toTools(req.Tools)}

	opts := chatOptions{Temperature: m.temperature, NumPredict: m.maxTokens}
	if req.Temperature != nil {
		opts.Temperature = req.Temperature
	}
	if req.MaxTokens > 0 {
		opts.NumPredict = req.MaxTokens
	}
	if opts.Temperature != nil || opts.NumPredict > 0 {
		out.Options = &opts
	}
	return out, nil
}

func toMessages(turn llm.Turn, names map[string]string) ([]chatMessage, error) {
	if turn.Role == llm.RoleAssistant {
		msg := chatMessage{Role: "assistant", Content: turn.Text("\n")}
		for _, b := range turn.Content {
			switch v := b.(type) {
			case llm.Text:
			case llm.ToolUse:
				names[v.ID] = v.Name
				msg.ToolCalls = append(msg.ToolCalls, chatToolCall{
					Function: chatFunction{Name: v.Name, Arguments: v.Input},
				})
			default:
				return nil, errors.UnsupportedContent(b.Type())
			}
		}
		return []chatMessage{msg}, nil
	}

	var out []chatMessage
	for _, b := range turn.Content {
		switch v := b.(type) {
		case llm.Text:
			out = append(out, chatMessage{Role: "user", Content: v.Text})
		case llm.ToolResult:
			content, ok := v.Content.(string)
			if !ok {
				data, err := json.Marshal(v.Content)
				if err != nil {
					return nil, errors.Serialization("tool result content", err)
				}
				content = string(data)
			}
			out = append(out, chatMessage{Role: "tool", Content: content, ToolName: names[v.ToolUseID]})
		default:
			return nil, errors.UnsupportedContent(b.Type())
		}
	}
	return out, nil
}

func toTools(schemas []tools.Schema) []chatTool {
	if len(schemas) == 0 {
		return nil
	}
	out := make([]chatTool, 0, len(schemas))
	for _, s := range schemas {
		out = append(out, chatTool{
			Type: "function",
			Function: toolFunction{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  s.InputSchema.Map(),
			},
		})
	}
	return out
}

func parseResponse(resp *chatResponse) (llm.Response, error) {
	var blocks []llm.ContentBlock
	if resp.Message.Content != "" {
		blocks = append(blocks, llm.Text{Text: resp.Message.Content})
	}
	for _, call := range resp.Message.ToolCalls {
		input := call.Function.Arguments
		if input == nil {
			input = map[string]any{}
		}
		blocks = append(blocks, llm.ToolUse{
			ID:    "call_" + uuid.NewString(),
			Name:  call.Function.Name,
			Input: input,
		})
	}
	if len(blocks) == 0 {
		return llm.Response{}, errors.EmptyResponse(resp.Model)
	}

	stop := llm.StopEndTurn
	switch {
	case len(resp.Message.ToolCalls) > 0:
		stop = llm.StopToolUse
	case resp.DoneReason == "length":
		stop = llm.StopMaxTokens
	}

	return llm.Response{
		Content:    blocks,
		StopReason: stop,
		Model:      resp.Model,
		Usage: llm.Usage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
			TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
		},
	}, nil
}

// doRequest marshals the request, sends it to the Ollama API, and decodes the response.
func (m *Model) doRequest(ctx context.Context, req chatRequest) (*chatResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Serialization("ollama request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Provider(Backend, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := m.client.Do(httpReq)
	if err != nil {
		if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, errors.Provider(Backend, err)
	}
	defer httpResp.Body.Close() //nolint:errcheck // Error on close is safe to ignore for read operations

	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(httpResp.Body)
		appErr := errors.Provider(Backend, fmt.Errorf("unexpected status %d: %s", httpResp.StatusCode, strings.TrimSpace(string(respBody)))).
			WithDetail("status", httpResp.StatusCode)
		if httpResp.StatusCode >= 400 && httpResp.StatusCode < 500 && httpResp.StatusCode != http.StatusTooManyRequests {
			appErr.Retryable = false
		}
		return nil, appErr
	}

	var resp chatResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, errors.Serialization("ollama response", err)
	}
	return &resp, nil
}
