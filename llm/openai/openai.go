// Package openai implements llm.Model on the OpenAI chat completions API.
//
// Importing the package registers the "openai" backend:
//
//	import _ "github.com/kbukum/chainkit/llm/openai"
package openai

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	oa "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/kbukum/chainkit/errors"
	"github.com/kbukum/chainkit/llm"
	"github.com/kbukum/chainkit/tools"
)

const (
	// Backend is the registered backend name.
	Backend = "openai"

	defaultModel = string(oa.ChatModelGPT4oMini)
)

func init() {
	llm.RegisterBackend(Backend, func(cfg llm.Config) (llm.Model, error) {
		return New(cfg)
	})
}

// Model sends requests to the chat completions endpoint.
type Model struct {
	name        string
	client      oa.Client
	model       string
	temperature *float64
	maxTokens   int
}

var _ llm.Model = (*Model)(nil)

// New creates a model from config. An empty APIKey falls back to the
// OPENAI_API_KEY environment variable. The client's own retries are
// disabled; configure retries through llm.Config instead.
func New(cfg llm.Config, opts ...option.RequestOption) (*Model, error) {
	reqOpts := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg.APIKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	reqOpts = append(reqOpts, opts...)

	name := cfg.Name
	if name == "" {
		name = Backend + "-llm"
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &Model{
		name:        name,
		client:      oa.NewClient(reqOpts...),
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

func (m *Model) Name() string { return m.name }

// Process sends one chat completion request.
func (m *Model) Process(ctx context.Context, req llm.Request) (llm.Response, error) {
	params, err := m.buildParams(req)
	if err != nil {
		return llm.Response{}, err
	}

	completion, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return llm.Response{}, providerError(err)
	}
	return parseCompletion(completion)
}

func (m *Model) buildParams(req llm.Request) (oa.ChatCompletionNewParams, error) {
	model := m.model
	if req.Model != "" {
		model = req.Model
	}

	msgs := make([]oa.ChatCompletionMessageParamUnion, 0, len(req.Turns)+1)
	if req.System != "" {
		msgs = append(msgs, oa.SystemMessage(req.System))
	}
	for _, turn := range req.Turns {
		converted, err := toMessages(turn)
		if err != nil {
			return oa.ChatCompletionNewParams{}, err
		}
		msgs = append(msgs, converted...)
	}

	params := oa.ChatCompletionNewParams{
		Model:    oa.ChatModel(model),
		Messages: msgs,
		Tools:    toTools(req.Tools),
	}

	temp := m.temperature
	if req.Temperature != nil {
		temp = req.Temperature
	}
	if temp != nil {
		params.Temperature = oa.Float(*temp)
	}
	maxTokens := m.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}
	if maxTokens > 0 {
		params.MaxCompletionTokens = oa.Int(int64(maxTokens))
	}
	return params, nil
}

// toMessages maps a turn onto chat messages. An assistant turn becomes one
// assistant message carrying its tool calls; each tool result in a user
// turn becomes its own tool message.
func toMessages(turn llm.Turn) ([]oa.ChatCompletionMessageParamUnion, error) {
	if turn.Role == llm.RoleAssistant {
		var calls []oa.ChatCompletionMessageToolCallParam
		for _, b := range turn.Content {
			switch v := b.(type) {
			case llm.Text:
			case llm.ToolUse:
				args, err := json.Marshal(v.Input)
				if err != nil {
					return nil, errors.Serialization("tool call arguments", err)
				}
				calls = append(calls, oa.ChatCompletionMessageToolCallParam{
					ID: v.ID,
					Function: oa.ChatCompletionMessageToolCallFunctionParam{
						Name:      v.Name,
						Arguments: string(args),
					},
				})
			default:
				return nil, errors.UnsupportedContent(b.Type())
			}
		}
		msg := oa.ChatCompletionAssistantMessageParam{ToolCalls: calls}
		if text := turn.Text("\n"); text != "" || len(calls) == 0 {
			msg.Content = oa.ChatCompletionAssistantMessageParamContentUnion{OfString: oa.String(text)}
		}
		return []oa.ChatCompletionMessageParamUnion{{OfAssistant: &msg}}, nil
	}

	var out []oa.ChatCompletionMessageParamUnion
	for _, b := range turn.Content {
		switch v := b.(type) {
		case llm.Text:
			out = append(out, oa.UserMessage(v.Text))
		case llm.ToolResult:
			content, err := toolResultContent(v)
			if err != nil {
				return nil, err
			}
			out = append(out, oa.ToolMessage(content, v.ToolUseID))
		default:
			return nil, errors.UnsupportedContent(b.Type())
		}
	}
	return out, nil
}

func toolResultContent(r llm.ToolResult) (string, error) {
	if s, ok := r.Content.(string); ok {
		return s, nil
	}
	data, err := json.Marshal(r.Content)
	if err != nil {
		return "", errors.Serialization("tool result content", err)
	}
	return string(data), nil
}

func toTools(schemas []tools.Schema) []oa.ChatCompletionToolParam {
	if len(schemas) == 0 {
		return nil
	}
	out := make([]oa.ChatCompletionToolParam, 0, len(schemas))
	for _, s := range schemas {
		fn := oa.FunctionDefinitionParam{
			Name:       s.Name,
			Parameters: oa.FunctionParameters(s.InputSchema.Map()),
		}
		if s.Description != "" {
			fn.Description = oa.String(s.Description)
		}
		out = append(out, oa.ChatCompletionToolParam{Function: fn})
	}
	return out
}

func parseCompletion(c *oa.ChatCompletion) (llm.Response, error) {
	if c == nil || len(c.Choices) == 0 {
		model := ""
		if c != nil {
			model = c.Model
		}
		return llm.Response{}, errors.EmptyResponse(model)
	}
	choice := c.Choices[0]

	var blocks []llm.ContentBlock
	if choice.Message.Content != "" {
		blocks = append(blocks, llm.Text{Text: choice.Message.Content})
	}
	for _, call := range choice.Message.ToolCalls {
		input := map[string]any{}
		if call.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Function.Arguments), &input); err != nil {
				return llm.Response{}, errors.Serialization("tool call arguments", err).
					WithDetail("tool", call.Function.Name)
			}
		}
		blocks = append(blocks, llm.ToolUse{ID: call.ID, Name: call.Function.Name, Input: input})
	}

	return llm.Response{
		Content:    blocks,
		StopReason: stopReason(choice.FinishReason),
		Model:      c.Model,
		Usage: llm.Usage{
			PromptTokens:     int(c.Usage.PromptTokens),
			CompletionTokens: int(c.Usage.CompletionTokens),
			TotalTokens:      int(c.Usage.TotalTokens),
		},
	}, nil
}

func stopReason(finish string) llm.StopReason {
	switch finish {
	case "stop":
		return llm.StopEndTurn
	case "tool_calls", "function_call":
		return llm.StopToolUse
	case "length":
		return llm.StopMaxTokens
	default:
		return llm.StopOther
	}
}

// providerError maps a client error to PROVIDER_ERROR. Client-side
// rejections other than rate limiting are not retryable. Context errors
// pass through unchanged.
func providerError(err error) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}
	appErr := errors.Provider(Backend, err)
	var apiErr *oa.Error
	if stderrors.As(err, &apiErr) {
		appErr.WithDetail("status", apiErr.StatusCode)
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 && apiErr.StatusCode != http.StatusTooManyRequests {
			appErr.Retryable = false
		}
	}
	return appErr
}
