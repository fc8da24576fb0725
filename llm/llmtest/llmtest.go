// Package llmtest provides a scripted model unit for testing code that
// talks to an llm.Model.
package llmtest

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/kbukum/chainkit/errors"
	"github.com/kbukum/chainkit/llm"
)

// Step is one scripted reply: a response or an error.
type Step struct {
	Response llm.Response
	Err      error
}

// Reply is a step answering with the given blocks.
func Reply(blocks ...llm.ContentBlock) Step {
	stop := llm.StopEndTurn
	for _, b := range blocks {
		if _, ok := b.(llm.ToolUse); ok {
			stop = llm.StopToolUse
		}
	}
	return Step{Response: llm.Response{Content: blocks, StopReason: stop, Model: "scripted"}}
}

// Text is a step answering with a single text block.
func Text(text string) Step {
	return Reply(llm.Text{Text: text})
}

// ToolCall returns a tool-use block with a fresh id.
func ToolCall(name string, input map[string]any) llm.ToolUse {
	return llm.ToolUse{ID: "toolu_" + uuid.NewString(), Name: name, Input: input}
}

// Fail is a step returning err.
func Fail(err error) Step {
	return Step{Err: err}
}

// Scripted is a model unit that replays steps in order and records every
// request it receives.
type Scripted struct {
	name     string
	mu       sync.Mutex
	steps    []Step
	loop     bool
	requests []llm.Request
}

var _ llm.Model = (*Scripted)(nil)

// New creates a model that answers with steps in order. Once the steps
// run out every call fails.
func New(steps ...Step) *Scripted {
	return &Scripted{name: "scripted", steps: steps}
}

// Loop creates a model that answers every call with step.
func Loop(step Step) *Scripted {
	return &Scripted{name: "scripted", steps: []Step{step}, loop: true}
}

// Named sets the unit name.
func (s *Scripted) Named(name string) *Scripted {
	s.name = name
	return s
}

func (s *Scripted) Name() string { return s.name }

// Process records req and returns the next scripted step.
func (s *Scripted) Process(ctx context.Context, req llm.Request) (llm.Response, error) {
	if err := ctx.Err(); err != nil {
		return llm.Response{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	req.Turns = slices.Clone(req.Turns)
	s.requests = append(s.requests, req)

	if len(s.steps) == 0 {
		return llm.Response{}, errors.Internal(fmt.Errorf("script exhausted after %d calls", len(s.requests)-1))
	}
	step := s.steps[0]
	if !s.loop {
		s.steps = s.steps[1:]
	}
	return step.Response, step.Err
}

// Calls returns how many times Process was called.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Requests returns the recorded requests, oldest first.
func (s *Scripted) Requests() []llm.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// LastRequest returns the most recent request.
func (s *Scripted) LastRequest() (llm.Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return llm.Request{}, false
	}
	return s.requests[len(s.requests)-1], true
}
