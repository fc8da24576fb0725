package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/chainkit/errors"
	"github.com/kbukum/chainkit/llm"
	"github.com/kbukum/chainkit/logger"
	"github.com/kbukum/chainkit/node"
	"github.com/kbukum/chainkit/observability"
	"github.com/kbukum/chainkit/state"
	"github.com/kbukum/chainkit/tools"
)

// History is the store type an Executor keeps its conversation in.
type History = state.Store[string, []llm.Turn]

// Executor is the agent loop as a processing unit from question to answer.
type Executor struct {
	model    llm.Model
	registry *tools.Registry
	cfg      Config
	log      *logger.Logger
	metrics  *observability.Metrics

	mu    sync.RWMutex
	store *History
}

var (
	_ node.Node[string, string]       = (*Executor)(nil)
	_ state.Aware[string, []llm.Turn] = (*Executor)(nil)
)

// Option configures an Executor.
type Option func(*Executor)

// WithName sets the unit name. Defaults to "agent".
func WithName(name string) Option {
	return func(e *Executor) {
		if name != "" {
			e.cfg.Name = name
		}
	}
}

// WithMaxIterations bounds the number of model calls per run. Values
// below one are ignored.
func WithMaxIterations(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.cfg.MaxIterations = n
		}
	}
}

// WithSystemPrompt sets the system prompt sent with every model call.
func WithSystemPrompt(s string) Option {
	return func(e *Executor) { e.cfg.SystemPrompt = s }
}

// WithInstruction sets the format wrapping each question.
func WithInstruction(format string) Option {
	return func(e *Executor) {
		if format != "" {
			e.cfg.Instruction = format
		}
	}
}

// WithSeparator sets the string joining the text of successive turns.
func WithSeparator(s string) Option {
	return func(e *Executor) { e.cfg.Separator = s }
}

// WithLogger sets the logger for run and turn events.
func WithLogger(l *logger.Logger) Option {
	return func(e *Executor) { e.log = l.WithComponent("agent") }
}

// WithMetrics records an agent-run metric for every Process.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// WithStore sets the initial history store.
func WithStore(s *History) Option {
	return func(e *Executor) {
		if s != nil {
			e.store = s
		}
	}
}

// New creates an executor. A nil registry uses tools.Default().
func New(model llm.Model, registry *tools.Registry, opts ...Option) *Executor {
	if registry == nil {
		registry = tools.Default()
	}
	e := &Executor{
		model:    model,
		registry: registry,
		log:      logger.Nop(),
	}
	e.cfg.ApplyDefaults()
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		e.store = state.New[string, []llm.Turn]()
	}
	return e
}

// NewFromConfig validates cfg and creates an executor from it. Extra
// options are applied after the config.
func NewFromConfig(cfg Config, model llm.Model, registry *tools.Registry, opts ...Option) (*Executor, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return New(model, registry, append(cfg.Options(), opts...)...), nil
}

func (e *Executor) Name() string { return e.cfg.Name }

// SetState replaces the history store. Stateful links call it before
// every Process.
func (e *Executor) SetState(store *History) {
	if store == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store = store
}

// Store returns the current history store.
func (e *Executor) Store() *History {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store
}

// History returns the conversation recorded so far.
func (e *Executor) History() []llm.Turn {
	turns, _ := e.Store().Get(HistoryKey)
	return turns
}

// Process runs the loop for one question and returns the model's text,
// joined across turns. Tool failures are reported back to the model and
// never end the run; model errors and content the loop cannot handle do.
// A history store attached to ctx takes precedence over the injected one.
func (e *Executor) Process(ctx context.Context, question string) (string, error) {
	runID := uuid.NewString()
	ctx = logger.ContextWithRunID(ctx, runID)
	ctx, span := observability.StartSpan(ctx, observability.SpanAgentRun)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrNode, e.cfg.Name)
	observability.SetSpanAttribute(ctx, observability.AttrRunID, runID)

	log := e.log.WithContext(ctx)
	start := time.Now()

	answer, turns, err := e.run(ctx, state.StoreFor(ctx, e.Store()), question)

	status := observability.StatusOK
	if err != nil {
		status = observability.StatusError
		observability.SetSpanError(ctx, err)
		log.Error("agent run failed", logger.Fields(
			logger.FieldNode, e.cfg.Name,
			logger.FieldIteration, turns,
			logger.FieldError, err.Error(),
		))
	} else {
		log.Info("agent run finished", logger.Fields(
			logger.FieldNode, e.cfg.Name,
			logger.FieldIteration, turns,
			logger.FieldDuration, time.Since(start).Milliseconds(),
		))
	}
	if e.metrics != nil {
		e.metrics.RecordAgentRun(ctx, e.cfg.Name, status, turns)
	}
	return answer, err
}

func (e *Executor) run(ctx context.Context, store *History, question string) (string, int, error) {
	e.appendInstruction(store, e.instruction(question))

	var output []string
	turns := 0
	for turns < e.cfg.MaxIterations {
		if err := ctx.Err(); err != nil {
			return "", turns, err
		}
		turns++

		history, _ := store.Get(HistoryKey)
		resp, err := e.model.Process(ctx, llm.Request{
			System: e.cfg.SystemPrompt,
			Turns:  history,
			Tools:  e.registry.Schemas(),
		})
		if err != nil {
			return "", turns, err
		}
		if len(resp.Content) == 0 {
			return "", turns, errors.EmptyResponse(resp.Model)
		}
		for _, b := range resp.Content {
			switch b.(type) {
			case llm.Text, llm.ToolUse:
			default:
				return "", turns, errors.UnsupportedContent(b.Type()).WithDetail("role", string(llm.RoleAssistant))
			}
		}
		state.Push(store, HistoryKey, resp.Turn())

		var results []llm.ContentBlock
		for _, b := range resp.Content {
			switch v := b.(type) {
			case llm.Text:
				if v.Text != "" {
					output = append(output, v.Text)
				}
			case llm.ToolUse:
				results = append(results, e.callTool(ctx, turns, v))
			}
		}

		e.log.WithContext(ctx).Debug("agent turn", logger.Fields(
			logger.FieldNode, e.cfg.Name,
			logger.FieldIteration, turns,
			"tool_calls", len(results),
		))

		if len(results) == 0 {
			break
		}
		state.Push(store, HistoryKey, llm.Turn{Role: llm.RoleUser, Content: results})
	}
	return strings.Join(output, e.cfg.Separator), turns, nil
}

func (e *Executor) instruction(question string) string {
	if strings.Contains(e.cfg.Instruction, "%s") {
		return fmt.Sprintf(e.cfg.Instruction, question)
	}
	return e.cfg.Instruction + " " + question
}

// appendInstruction adds the instruction as a user turn. A trailing user
// turn, left by a run that stopped at its bound after tool calls, absorbs
// the instruction so user and assistant turns keep alternating.
func (e *Executor) appendInstruction(store *History, text string) {
	store.Update(HistoryKey, func(cur []llm.Turn, _ bool) []llm.Turn {
		next := make([]llm.Turn, len(cur), len(cur)+1)
		copy(next, cur)
		if n := len(next); n > 0 && next[n-1].Role == llm.RoleUser {
			last := next[n-1]
			content := make([]llm.ContentBlock, 0, len(last.Content)+1)
			content = append(content, last.Content...)
			next[n-1] = llm.Turn{Role: llm.RoleUser, Content: append(content, llm.Text{Text: text})}
			return next
		}
		return append(next, llm.UserText(text))
	})
}

func (e *Executor) callTool(ctx context.Context, turn int, use llm.ToolUse) llm.ToolResult {
	result, err := e.registry.Execute(ctx, use.Name, use.Input)
	if err != nil {
		e.log.WithContext(ctx).Warn("tool call reported to model", logger.Fields(
			logger.FieldTool, use.Name,
			logger.FieldIteration, turn,
			logger.FieldError, err.Error(),
		))
		return llm.ToolResult{ToolUseID: use.ID, Content: err.Error(), Status: llm.ToolError}
	}
	return llm.ToolResult{ToolUseID: use.ID, Content: map[string]any{"return": result}, Status: llm.ToolSuccess}
}
