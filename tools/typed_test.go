package tools

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/kbukum/chainkit/errors"
)

type weatherParams struct {
	City  string `json:"city" jsonschema_description:"city name"`
	Days  int    `json:"days" validate:"gte=1,lte=7"`
	Units string `json:"units,omitempty" jsonschema:"enum=metric,enum=imperial"`
	Live  bool   `json:"live,omitempty"`
}

func weather(_ context.Context, p weatherParams) (string, error) {
	return fmt.Sprintf("%s:%d:%s:%v", p.City, p.Days, p.Units, p.Live), nil
}

func TestTypedSchema(t *testing.T) {
	e, err := Typed("weather", "Forecast", weather)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := e.Schema()
	if s.Name != "weather" || s.Description != "Forecast" {
		t.Errorf("unexpected schema header %+v", s)
	}

	props := s.InputSchema.Properties
	wantTypes := map[string]string{"city": "string", "days": "number", "units": "string", "live": "boolean"}
	for name, typ := range wantTypes {
		if props[name].Type != typ {
			t.Errorf("property %s: expected %s, got %q", name, typ, props[name].Type)
		}
	}
	if props["city"].Description != "city name" {
		t.Errorf("expected description from tag, got %q", props["city"].Description)
	}
	if len(props["units"].Enum) != 2 {
		t.Errorf("expected enum values, got %v", props["units"].Enum)
	}

	required := append([]string(nil), s.InputSchema.Required...)
	if !reflect.DeepEqual(required, []string{"city", "days"}) {
		t.Errorf("expected city and days required, got %v", required)
	}
}

func TestTypedExecute(t *testing.T) {
	e, _ := Typed("weather", "Forecast", weather)
	r := NewRegistry()
	if err := r.Add(e); err != nil {
		t.Fatal(err)
	}

	// JSON numbers arrive as float64 and decode into int fields.
	got, err := r.Execute(context.Background(), "weather", map[string]any{"city": "Oslo", "days": 3.0, "units": "metric"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Oslo:3:metric:false" {
		t.Errorf("unexpected result %v", got)
	}

	_, err = r.Execute(context.Background(), "weather", map[string]any{"city": "Oslo", "days": 9.0})
	if !errors.IsCode(err, errors.ErrCodeInvalidInput) || !strings.Contains(err.Error(), "days") {
		t.Errorf("expected validate-tag failure, got %v", err)
	}

	_, err = r.Execute(context.Background(), "weather", map[string]any{"city": "Oslo", "days": 2.0, "units": "kelvin"})
	if !errors.IsCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected enum violation, got %v", err)
	}
}

func TestTypedRejectsFractionalIntegers(t *testing.T) {
	type pageParams struct {
		Page  int     `json:"page"`
		Limit uint16  `json:"limit,omitempty"`
		Score float64 `json:"score,omitempty"`
	}
	e := MustTyped("page", "", func(_ context.Context, p pageParams) (string, error) {
		return fmt.Sprintf("%d:%d:%v", p.Page, p.Limit, p.Score), nil
	})
	r := NewRegistry()
	if err := r.Add(e); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		params map[string]any
		want   string
	}{
		{"integral float", map[string]any{"page": 3.0, "limit": 10.0}, "3:10:0"},
		{"fraction into float field", map[string]any{"page": 1.0, "score": 0.5}, "1:0:0.5"},
		{"fraction into int", map[string]any{"page": 2.7}, ""},
		{"fraction into uint", map[string]any{"page": 1.0, "limit": 9.5}, ""},
		{"negative fraction", map[string]any{"page": -1.2}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Execute(context.Background(), "page", tt.params)
			if tt.want == "" {
				if !errors.IsCode(err, errors.ErrCodeInvalidInput) {
					t.Fatalf("expected INVALID_INPUT, got %v (result %v)", err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %v", tt.want, got)
			}
		})
	}
}

func TestTypedRejectsNonStruct(t *testing.T) {
	_, err := Typed("bad", "", func(_ context.Context, n int) (int, error) { return n, nil })
	if !errors.IsCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Error("expected MustTyped to panic")
		}
	}()
	MustTyped("bad", "", func(_ context.Context, n int) (int, error) { return n, nil })
}

func TestDefaultRegistry(t *testing.T) {
	Reset()
	defer Reset()

	MustRegister(MustTyped("weather", "Forecast", weather))
	if err := Register("add", "Adds", addSchema(), addFn); err != nil {
		t.Fatal(err)
	}
	if Default().Len() != 2 {
		t.Fatalf("expected 2 tools, got %d", Default().Len())
	}
	got, err := Execute(context.Background(), "add", map[string]any{"a": 1.0, "b": 2.0})
	if err != nil || got != 3.0 {
		t.Errorf("expected 3, got %v (%v)", got, err)
	}

	Seal()
	if err := Register("late", "", InputSchema{}, addFn); !errors.IsCode(err, errors.ErrCodeConflict) {
		t.Errorf("expected CONFLICT after Seal, got %v", err)
	}

	Reset()
	if Default().Len() != 0 || Default().Sealed() {
		t.Error("expected Reset to give an empty unsealed registry")
	}
}
