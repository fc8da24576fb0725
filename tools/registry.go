package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/kbukum/chainkit/errors"
	"github.com/kbukum/chainkit/logger"
	"github.com/kbukum/chainkit/observability"
)

// Func is a tool implementation. params has already been validated against
// the tool's input schema.
type Func func(ctx context.Context, params map[string]any) (any, error)

// Entry is a tool ready to register.
type Entry struct {
	Name        string
	Description string
	Input       InputSchema
	Fn          Func
}

// Schema returns the entry's schema as offered to a model.
func (e Entry) Schema() Schema {
	return Schema{Name: e.Name, Description: e.Description, InputSchema: e.Input}
}

type registered struct {
	entry     Entry
	validator *gojsonschema.Schema
}

// Registry maps tool names to implementations and schemas. It is safe for
// concurrent use; once sealed it rejects further registration.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]*registered
	sealed  bool
	log     *logger.Logger
	metrics *observability.Metrics
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for tool calls.
func WithLogger(l *logger.Logger) Option {
	return func(r *Registry) { r.log = l.WithComponent("tools") }
}

// WithMetrics records a tool-call metric for every Execute.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		tools: make(map[string]*registered),
		log:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a tool, replacing any tool of the same name.
func (r *Registry) Register(name, description string, input InputSchema, fn Func) error {
	return r.Add(Entry{Name: name, Description: description, Input: input, Fn: fn})
}

// Add registers a prepared entry, replacing any tool of the same name.
func (r *Registry) Add(e Entry) error {
	if strings.TrimSpace(e.Name) == "" {
		return errors.InvalidInput("name", "is required")
	}
	if e.Fn == nil {
		return errors.InvalidInput("fn", "is required")
	}
	if e.Input.Type == "" {
		e.Input.Type = "object"
	}
	v, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(e.Input.Map()))
	if err != nil {
		return errors.Validation(fmt.Sprintf("invalid input schema for tool %s", e.Name)).WithCause(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return errors.Conflict(fmt.Sprintf("registry is sealed, cannot register tool %s", e.Name))
	}
	r.tools[e.Name] = &registered{entry: e, validator: v}
	return nil
}

// Seal makes the registry read-only.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

func (r *Registry) lookup(name string) (*registered, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Execute validates params against the tool's schema and runs it.
//
// An unknown name is TOOL_NOT_FOUND, parameters that fail the schema are
// INVALID_INPUT, and a failing or panicking tool is TOOL_EXECUTION_ERROR
// unless the tool itself returned an AppError.
func (r *Registry) Execute(ctx context.Context, name string, params map[string]any) (any, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanToolCall)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrTool, name)

	result, err := r.execute(ctx, name, params)

	status := observability.StatusOK
	log := r.log.WithContext(ctx)
	if err != nil {
		status = observability.StatusError
		observability.SetSpanError(ctx, err)
		log.Warn("tool call failed", logger.Fields(logger.FieldTool, name, logger.FieldError, err.Error()))
	} else {
		log.Debug("tool call ok", logger.Fields(logger.FieldTool, name))
	}
	if r.metrics != nil {
		r.metrics.RecordToolCall(ctx, name, status)
	}
	return result, err
}

func (r *Registry) execute(ctx context.Context, name string, params map[string]any) (result any, err error) {
	t, ok := r.lookup(name)
	if !ok {
		return nil, errors.ToolNotFound(name)
	}
	if params == nil {
		params = map[string]any{}
	}
	if err := validateParams(t, params); err != nil {
		return nil, err
	}

	defer func() {
		if p := recover(); p != nil {
			result, err = nil, errors.ToolExecution(name, fmt.Errorf("panic: %v", p))
		}
	}()
	result, err = t.entry.Fn(ctx, params)
	if err != nil && !errors.IsAppError(err) {
		err = errors.ToolExecution(name, err)
	}
	return result, err
}

func validateParams(t *registered, params map[string]any) error {
	res, err := t.validator.Validate(gojsonschema.NewGoLoader(params))
	if err != nil {
		return errors.Serialization("tool parameters", err)
	}
	if res.Valid() {
		return nil
	}
	violations := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		violations = append(violations, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}
	return errors.Validation(fmt.Sprintf("invalid parameters for tool %s: %s", t.entry.Name, strings.Join(violations, "; "))).
		WithDetail("tool", t.entry.Name).
		WithDetail("violations", violations)
}

// GetSchema returns the schema of a registered tool.
func (r *Registry) GetSchema(name string) (Schema, error) {
	t, ok := r.lookup(name)
	if !ok {
		return Schema{}, errors.SchemaNotFound(name)
	}
	return t.entry.Schema(), nil
}

// Schemas returns every tool's schema, sorted by name.
func (r *Registry) Schemas() []Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Schema, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t.entry.Schema())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
