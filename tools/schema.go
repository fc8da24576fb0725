package tools

import (
	"github.com/invopop/jsonschema"

	"github.com/kbukum/chainkit/errors"
)

// Schema describes a tool to a model.
type Schema struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"input_schema"`
}

// InputSchema is the JSON schema of a tool's parameter object.
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes one parameter.
type Property struct {
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Enum        []any     `json:"enum,omitempty"`
	Items       *Property `json:"items,omitempty"`
}

// Param is a parameter for NewSchema.
type Param struct {
	Name        string
	Type        string
	Description string
	Optional    bool
}

// NewSchema builds a schema from an explicit parameter list. Parameters are
// required unless marked Optional.
func NewSchema(name, description string, params ...Param) Schema {
	in := InputSchema{Type: "object", Properties: make(map[string]Property, len(params))}
	for _, p := range params {
		in.Properties[p.Name] = Property{Type: p.Type, Description: p.Description}
		if !p.Optional {
			in.Required = append(in.Required, p.Name)
		}
	}
	return Schema{Name: name, Description: description, InputSchema: in}
}

// Map returns the schema as a generic JSON object.
func (s InputSchema) Map() map[string]any {
	props := make(map[string]any, len(s.Properties))
	for name, p := range s.Properties {
		props[name] = p.toMap()
	}
	m := map[string]any{"type": s.Type, "properties": props}
	if len(s.Required) > 0 {
		m["required"] = s.Required
	}
	return m
}

func (p Property) toMap() map[string]any {
	m := map[string]any{"type": p.Type}
	if p.Description != "" {
		m["description"] = p.Description
	}
	if len(p.Enum) > 0 {
		m["enum"] = p.Enum
	}
	if p.Items != nil {
		m["items"] = p.Items.toMap()
	}
	return m
}

var reflector = jsonschema.Reflector{
	AllowAdditionalProperties: false,
	DoNotReference:            true,
}

// reflectInput derives an input schema from the struct type of v. Fields
// are required unless their json tag has omitempty.
func reflectInput(v any) (InputSchema, error) {
	root := reflector.Reflect(v)
	if root.Type != "object" {
		return InputSchema{}, errors.Validation("tool parameters must be a struct, got " + root.Type)
	}

	in := InputSchema{Type: "object", Required: root.Required}
	if root.Properties != nil {
		in.Properties = make(map[string]Property, root.Properties.Len())
		for pair := root.Properties.Oldest(); pair != nil; pair = pair.Next() {
			in.Properties[pair.Key] = toProperty(pair.Value)
		}
	}
	return in, nil
}

func toProperty(s *jsonschema.Schema) Property {
	p := Property{Type: jsonType(s.Type), Description: s.Description, Enum: s.Enum}
	if s.Items != nil {
		items := toProperty(s.Items)
		p.Items = &items
	}
	return p
}

func jsonType(t string) string {
	if t == "integer" {
		return "number"
	}
	return t
}
