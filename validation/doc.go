// Package validation validates tool parameters and configuration structs.
//
// Struct tag validation uses go-playground/validator; field names in error
// messages come from json tags so they match what a model sent:
//
//	type AddParams struct {
//	    X float64 `json:"x" validate:"required"`
//	    Y float64 `json:"y"`
//	}
//	err := validation.Validate(params)
//
// Programmatic validation collects errors for config checks:
//
//	v := validation.New()
//	v.Min("max_iterations", cfg.MaxIterations, 1)
//	err := v.Validate()
package validation
