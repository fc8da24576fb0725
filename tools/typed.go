package tools

import (
	"context"
	"fmt"
	"math"
	"reflect"

	"github.com/go-viper/mapstructure/v2"

	"github.com/kbukum/chainkit/errors"
	"github.com/kbukum/chainkit/validation"
)

// Typed builds an entry from a function taking a parameter struct. The
// input schema is reflected from P using its json and jsonschema tags;
// at call time the parameters are decoded into P and checked against its
// validate tags before fn runs.
func Typed[P, R any](name, description string, fn func(ctx context.Context, params P) (R, error)) (Entry, error) {
	var zero P
	input, err := reflectInput(zero)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		Name:        name,
		Description: description,
		Input:       input,
		Fn: func(ctx context.Context, raw map[string]any) (any, error) {
			p, err := decodeParams[P](raw)
			if err != nil {
				return nil, err
			}
			return fn(ctx, p)
		},
	}, nil
}

// MustTyped is like Typed but panics on error. Use it for package-level
// registration in init.
func MustTyped[P, R any](name, description string, fn func(ctx context.Context, params P) (R, error)) Entry {
	e, err := Typed(name, description, fn)
	if err != nil {
		panic(err)
	}
	return e
}

func decodeParams[P any](raw map[string]any) (P, error) {
	var p P
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &p,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.DecodeHookFuncType(rejectFractional),
	})
	if err != nil {
		return p, errors.Internal(err)
	}
	if err := dec.Decode(raw); err != nil {
		return p, errors.Validation("cannot decode tool parameters").WithCause(err)
	}
	if reflect.TypeFor[P]().Kind() == reflect.Struct {
		if err := validation.Validate(p); err != nil {
			return p, err
		}
	}
	return p, nil
}

// rejectFractional stops a JSON number with a fractional part from being
// truncated into an integer field.
func rejectFractional(from, to reflect.Type, data any) (any, error) {
	switch from.Kind() {
	case reflect.Float32, reflect.Float64:
	default:
		return data, nil
	}
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return data, nil
	}
	f := reflect.ValueOf(data).Float()
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%v is not an integer", data)
	}
	return data, nil
}
