// Package prompt renders text/template prompts as processing units.
//
//	greet := prompt.MustNew("greet", "Summarize {{.doc}} in {{.words}} words.")
//	text, err := greet.Process(ctx, prompt.Vars("doc", doc, "words", 50))
//
// Templates are parsed with missingkey=error, so a variable absent from the
// input fails the render instead of producing "<no value>".
package prompt

import (
	"context"
	"encoding/json"
	"strings"
	"text/template"

	"github.com/kbukum/chainkit/errors"
	"github.com/kbukum/chainkit/node"
)

// Template is a unit from template variables to rendered text.
type Template struct {
	name string
	tmpl *template.Template
}

var _ node.Node[map[string]any, string] = (*Template)(nil)

var funcs = template.FuncMap{
	"join":  strings.Join,
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"trim":  strings.TrimSpace,
	"json": func(v any) (string, error) {
		data, err := json.Marshal(v)
		return string(data), err
	},
}

// New parses text. A parse error is INVALID_INPUT.
func New(name, text string) (*Template, error) {
	tmpl, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, errors.InvalidInput("template", err.Error()).
			WithDetail("template", name).
			WithCause(err)
	}
	return &Template{name: name, tmpl: tmpl}, nil
}

// MustNew is like New but panics on a parse error.
func MustNew(name, text string) *Template {
	t, err := New(name, text)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Template) Name() string { return t.name }

// Process renders the template. Execution errors are TEMPLATE_ERROR.
func (t *Template) Process(ctx context.Context, vars map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if vars == nil {
		vars = map[string]any{}
	}
	var sb strings.Builder
	if err := t.tmpl.Execute(&sb, vars); err != nil {
		return "", errors.Template(t.name, err)
	}
	return sb.String(), nil
}

// Vars builds template variables from alternating key-value pairs.
// Non-string keys and a trailing key without a value are skipped.
func Vars(kvs ...any) map[string]any {
	m := make(map[string]any, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}
