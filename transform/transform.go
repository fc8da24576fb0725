// Package transform provides units that reshape structured data between
// model calls: parsing JSON out of model text, selecting values with
// JSONPath and validating documents against a JSON Schema.
package transform

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/xeipuuv/gojsonschema"

	"github.com/kbukum/chainkit/errors"
	"github.com/kbukum/chainkit/llm"
	"github.com/kbukum/chainkit/node"
)

// ParseJSON returns a unit decoding JSON text. Markdown code fences and
// prose around a single object or array are ignored. Integers decode as
// int64 and other numbers as float64.
func ParseJSON(name string) node.Node[string, any] {
	return node.Func(name, func(_ context.Context, text string) (any, error) {
		v, err := oj.ParseString(llm.ExtractJSON(text))
		if err != nil {
			return nil, errors.Serialization("json input", err).WithDetail("node", name)
		}
		return v, nil
	})
}

type pathConfig struct {
	multiple   bool
	def        any
	hasDefault bool
}

// PathOption configures a JSONPath unit.
type PathOption func(*pathConfig)

// Multiple makes the unit return every match as a []any instead of the
// first match.
func Multiple() PathOption {
	return func(c *pathConfig) { c.multiple = true }
}

// Default sets the value returned when nothing matches.
func Default(v any) PathOption {
	return func(c *pathConfig) {
		c.def = v
		c.hasDefault = true
	}
}

// JSONPath returns a unit selecting values from its input with expr. An
// invalid expression is INVALID_INPUT. Without a default, no match yields
// nil, or an empty slice with Multiple.
func JSONPath(name, expr string, opts ...PathOption) (node.Node[any, any], error) {
	x, err := jp.ParseString(expr)
	if err != nil {
		return nil, errors.InvalidInput("path", fmt.Sprintf("invalid JSONPath %q: %v", expr, err)).WithCause(err)
	}
	var cfg pathConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	return node.Func(name, func(_ context.Context, input any) (any, error) {
		matches := x.Get(input)
		switch {
		case len(matches) == 0 && cfg.hasDefault:
			return cfg.def, nil
		case cfg.multiple:
			if matches == nil {
				matches = []any{}
			}
			return matches, nil
		case len(matches) == 0:
			return nil, nil
		default:
			return matches[0], nil
		}
	}), nil
}

// ValidateSchema returns a unit passing its input through unchanged when it
// satisfies schema. The schema is a Go value (typically map[string]any)
// or a JSON string. Violations are INVALID_INPUT with a "violations"
// detail; a schema that does not compile fails every call the same way.
func ValidateSchema(name string, schema any) node.Node[any, any] {
	compile := sync.OnceValues(func() (*gojsonschema.Schema, error) {
		var loader gojsonschema.JSONLoader
		if s, ok := schema.(string); ok {
			loader = gojsonschema.NewStringLoader(s)
		} else {
			loader = gojsonschema.NewGoLoader(schema)
		}
		return gojsonschema.NewSchema(loader)
	})

	return node.Func(name, func(_ context.Context, input any) (any, error) {
		s, err := compile()
		if err != nil {
			return nil, errors.InvalidInput("schema", err.Error()).WithDetail("node", name).WithCause(err)
		}
		res, err := s.Validate(gojsonschema.NewGoLoader(input))
		if err != nil {
			return nil, errors.Serialization("document", err).WithDetail("node", name)
		}
		if res.Valid() {
			return input, nil
		}
		violations := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			violations = append(violations, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
		}
		return nil, errors.Validation(fmt.Sprintf("document does not match schema: %s", strings.Join(violations, "; "))).
			WithDetail("node", name).
			WithDetail("violations", violations)
	})
}
