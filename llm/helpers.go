package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/kbukum/chainkit/errors"
	"github.com/kbukum/chainkit/node"
)

// Completion returns a unit that sends its input as a single user turn
// under the given system prompt and returns the response text. A response
// without text is EMPTY_RESPONSE.
func Completion(model Model, system string) node.Node[string, string] {
	return node.Func(model.Name()+".completion", func(ctx context.Context, prompt string) (string, error) {
		resp, err := model.Process(ctx, Request{System: system, Turns: []Turn{UserText(prompt)}})
		if err != nil {
			return "", err
		}
		text := resp.Text()
		if strings.TrimSpace(text) == "" {
			return "", errors.EmptyResponse(resp.Model)
		}
		return text, nil
	})
}

// Structured returns a unit that asks for a JSON object and decodes the
// reply into T. JSON formatting instructions are appended to the system
// prompt and markdown fences in the reply are ignored.
func Structured[T any](model Model, system string) node.Node[string, T] {
	system += "\n\nIMPORTANT: Respond with ONLY the JSON object. " +
		"No markdown, no code blocks, no explanations. " +
		"Start with { and end with }."
	complete := Completion(model, system)

	return node.Func(model.Name()+".structured", func(ctx context.Context, prompt string) (T, error) {
		var result T
		text, err := complete.Process(ctx, prompt)
		if err != nil {
			return result, err
		}
		if err := json.Unmarshal([]byte(ExtractJSON(text)), &result); err != nil {
			return result, errors.Serialization("structured model response", err)
		}
		return result, nil
	})
}

// ExtractJSON pulls a JSON object or array out of model output that may be
// wrapped in markdown fences or surrounded by prose.
func ExtractJSON(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s[3:], "\n"); idx >= 0 {
			s = s[3+idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(s, pair[0])
		end := strings.LastIndex(s, pair[1])
		if start >= 0 && end > start {
			if other := strings.Index(s, otherOpen(pair[0])); other >= 0 && other < start {
				continue
			}
			return s[start : end+1]
		}
	}
	return s
}

func otherOpen(open string) string {
	if open == "{" {
		return "["
	}
	return "{"
}
