package llm

import (
	"encoding/json"
	"strings"

	"github.com/kbukum/chainkit/errors"
)

// Role is the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Block type tags used in the turn JSON shape.
const (
	BlockText       = "text"
	BlockToolUse    = "tool_use"
	BlockToolResult = "tool_result"
)

// ContentBlock is one piece of a turn's content. The set of variants is
// closed: Text, ToolUse, ToolResult and Unsupported.
type ContentBlock interface {
	// Type returns the block's type tag.
	Type() string
	contentBlock()
}

// Text is plain text.
type Text struct {
	Text string
}

// ToolUse is a model's request to call a tool.
type ToolUse struct {
	ID    string
	Name  string
	Input map[string]any
}

// ToolStatus is the outcome reported in a ToolResult.
type ToolStatus string

const (
	ToolSuccess ToolStatus = "success"
	ToolError   ToolStatus = "error"
)

// ToolResult answers the ToolUse with the same ID.
type ToolResult struct {
	ToolUseID string
	Content   any
	Status    ToolStatus
}

// Unsupported stands in for a block the library cannot represent, such
// as an image. Kind holds the original type tag.
type Unsupported struct {
	Kind string
	Raw  json.RawMessage
}

func (Text) Type() string          { return BlockText }
func (ToolUse) Type() string       { return BlockToolUse }
func (ToolResult) Type() string    { return BlockToolResult }
func (u Unsupported) Type() string { return u.Kind }

func (Text) contentBlock()        {}
func (ToolUse) contentBlock()     {}
func (ToolResult) contentBlock()  {}
func (Unsupported) contentBlock() {}

// Turn is one message of a conversation.
type Turn struct {
	Role    Role
	Content []ContentBlock
}

// UserText returns a user turn holding a single text block.
func UserText(text string) Turn {
	return Turn{Role: RoleUser, Content: []ContentBlock{Text{Text: text}}}
}

// AssistantText returns an assistant turn holding a single text block.
func AssistantText(text string) Turn {
	return Turn{Role: RoleAssistant, Content: []ContentBlock{Text{Text: text}}}
}

// Text joins the turn's text blocks with sep.
func (t Turn) Text(sep string) string {
	return joinText(t.Content, sep)
}

func joinText(blocks []ContentBlock, sep string) string {
	var parts []string
	for _, b := range blocks {
		if txt, ok := b.(Text); ok {
			parts = append(parts, txt.Text)
		}
	}
	return strings.Join(parts, sep)
}

type wireBlock struct {
	Type      string          `json:"type"`
	Text      *string         `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     map[string]any  `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
	Status    ToolStatus      `json:"status,omitempty"`
}

type wireTurn struct {
	Role    Role              `json:"role"`
	Content []json.RawMessage `json:"content"`
}

// MarshalJSON encodes the turn as
// {"role": ..., "content": [{"type": "text", "text": ...}, ...]}.
func (t Turn) MarshalJSON() ([]byte, error) {
	w := wireTurn{Role: t.Role, Content: make([]json.RawMessage, 0, len(t.Content))}
	for _, b := range t.Content {
		raw, err := marshalBlock(b)
		if err != nil {
			return nil, err
		}
		w.Content = append(w.Content, raw)
	}
	return json.Marshal(w)
}

func marshalBlock(b ContentBlock) (json.RawMessage, error) {
	switch v := b.(type) {
	case Text:
		return json.Marshal(wireBlock{Type: BlockText, Text: &v.Text})
	case ToolUse:
		input := v.Input
		if input == nil {
			input = map[string]any{}
		}
		return json.Marshal(struct {
			Type  string         `json:"type"`
			ID    string         `json:"id"`
			Name  string         `json:"name"`
			Input map[string]any `json:"input"`
		}{BlockToolUse, v.ID, v.Name, input})
	case ToolResult:
		content, err := json.Marshal(v.Content)
		if err != nil {
			return nil, errors.Serialization("tool result content", err)
		}
		return json.Marshal(wireBlock{Type: BlockToolResult, ToolUseID: v.ToolUseID, Content: content, Status: v.Status})
	case Unsupported:
		if len(v.Raw) > 0 {
			return v.Raw, nil
		}
		return json.Marshal(wireBlock{Type: v.Kind})
	default:
		return nil, errors.UnsupportedContent(b.Type())
	}
}

// UnmarshalJSON decodes the turn shape produced by MarshalJSON. Blocks of
// an unknown type decode into Unsupported. Malformed input is a
// SERIALIZATION_ERROR.
func (t *Turn) UnmarshalJSON(data []byte) error {
	var w wireTurn
	if err := json.Unmarshal(data, &w); err != nil {
		return errors.Serialization("conversation turn", err)
	}
	blocks := make([]ContentBlock, 0, len(w.Content))
	for _, raw := range w.Content {
		b, err := unmarshalBlock(raw)
		if err != nil {
			return err
		}
		blocks = append(blocks, b)
	}
	t.Role = w.Role
	t.Content = blocks
	return nil
}

func unmarshalBlock(raw json.RawMessage) (ContentBlock, error) {
	var w wireBlock
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, errors.Serialization("content block", err)
	}
	switch w.Type {
	case BlockText:
		if w.Text == nil {
			return nil, errors.Serialization("text block without text", nil)
		}
		return Text{Text: *w.Text}, nil
	case BlockToolUse:
		return ToolUse{ID: w.ID, Name: w.Name, Input: w.Input}, nil
	case BlockToolResult:
		var content any
		if len(w.Content) > 0 {
			if err := json.Unmarshal(w.Content, &content); err != nil {
				return nil, errors.Serialization("tool result content", err)
			}
		}
		return ToolResult{ToolUseID: w.ToolUseID, Content: content, Status: w.Status}, nil
	default:
		return Unsupported{Kind: w.Type, Raw: append(json.RawMessage(nil), raw...)}, nil
	}
}
