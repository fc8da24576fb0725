// Package tools provides the registry of callable tools an agent offers to
// a model.
//
// Each tool has a JSON schema describing its parameters. The registry
// validates parameters against that schema before calling the tool and
// never panics: unknown tools, invalid parameters and panicking tools all
// come back as errors.
//
// Tools can be registered by hand with an explicit schema, or derived from
// a typed function whose parameter struct supplies the schema:
//
//	type addParams struct {
//		A float64 `json:"a" jsonschema_description:"first addend"`
//		B float64 `json:"b"`
//	}
//
//	func init() {
//		tools.MustRegister(tools.MustTyped("add", "Adds two numbers",
//			func(_ context.Context, p addParams) (float64, error) { return p.A + p.B, nil }))
//	}
package tools
