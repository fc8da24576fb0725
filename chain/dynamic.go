package chain

import (
	"context"
	"fmt"
	"reflect"

	"github.com/kbukum/chainkit/errors"
	"github.com/kbukum/chainkit/node"
)

// AnyNode is a unit whose types are known only at runtime. It processes
// untyped values and reports the types it expects and produces.
type AnyNode interface {
	node.Node[any, any]
	InputType() reflect.Type
	OutputType() reflect.Type
}

// Erase wraps a typed unit as an AnyNode.
func Erase[I, O any](n node.Node[I, O]) AnyNode {
	return &erased[I, O]{inner: n}
}

type erased[I, O any] struct {
	inner node.Node[I, O]
}

func (e *erased[I, O]) Name() string             { return e.inner.Name() }
func (e *erased[I, O]) InputType() reflect.Type  { return reflect.TypeFor[I]() }
func (e *erased[I, O]) OutputType() reflect.Type { return reflect.TypeFor[O]() }

func (e *erased[I, O]) Process(ctx context.Context, input any) (any, error) {
	in, err := assertType[I](e.inner.Name(), input)
	if err != nil {
		return nil, err
	}
	return e.inner.Process(ctx, in)
}

// assertType converts an untyped value back to T. A nil value becomes the
// zero T.
func assertType[T any](unit string, v any) (T, error) {
	var zero T
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, errors.New(errors.ErrCodeComposition,
			fmt.Sprintf("%s expects %s, got %T", unit, reflect.TypeFor[T](), v)).
			WithDetail("unit", unit)
	}
	return t, nil
}

// retyped gives an untyped unit explicit runtime types.
type retyped struct {
	node.Node[any, any]
	in, out reflect.Type
}

func (r *retyped) InputType() reflect.Type  { return r.in }
func (r *retyped) OutputType() reflect.Type { return r.out }

// Dynamic assembles a pipeline from AnyNodes.
type Dynamic struct {
	name  string
	steps []AnyNode
}

// NewDynamic creates an empty dynamic builder.
func NewDynamic() *Dynamic {
	return &Dynamic{}
}

// Named sets the pipeline's name.
func (d *Dynamic) Named(name string) *Dynamic {
	d.name = name
	return d
}

// Add appends steps.
func (d *Dynamic) Add(steps ...AnyNode) *Dynamic {
	d.steps = append(d.steps, steps...)
	return d
}

// Build checks that every step accepts the previous step's output type and
// returns the pipeline as one AnyNode. A mismatch is a COMPOSITION_ERROR
// naming the offending step.
func (d *Dynamic) Build() (AnyNode, error) {
	if len(d.steps) == 0 {
		return nil, errors.New(errors.ErrCodeComposition, "pipeline has no steps")
	}
	for i := 1; i < len(d.steps); i++ {
		out := d.steps[i-1].OutputType()
		in := d.steps[i].InputType()
		if !out.AssignableTo(in) {
			return nil, errors.Composition(i, out.String(), in.String()).
				WithDetail("unit", d.steps[i].Name())
		}
	}

	name := d.name
	if name == "" {
		name = d.steps[0].Name()
		for _, s := range d.steps[1:] {
			name += " -> " + s.Name()
		}
	}
	return &dynamicPipeline{name: name, steps: append([]AnyNode(nil), d.steps...)}, nil
}

type dynamicPipeline struct {
	name  string
	steps []AnyNode
}

func (p *dynamicPipeline) Name() string             { return p.name }
func (p *dynamicPipeline) InputType() reflect.Type  { return p.steps[0].InputType() }
func (p *dynamicPipeline) OutputType() reflect.Type { return p.steps[len(p.steps)-1].OutputType() }

func (p *dynamicPipeline) Process(ctx context.Context, input any) (any, error) {
	v := input
	for _, s := range p.steps {
		out, err := s.Process(ctx, v)
		if err != nil {
			return nil, err
		}
		v = out
	}
	return v, nil
}

// Typed converts a dynamic pipeline into a typed unit after checking that
// I can be fed to it and its output can be read as O.
func Typed[I, O any](a AnyNode) (node.Node[I, O], error) {
	in, out := reflect.TypeFor[I](), reflect.TypeFor[O]()
	if !in.AssignableTo(a.InputType()) {
		return nil, errors.Composition(0, in.String(), a.InputType().String())
	}
	if !a.OutputType().AssignableTo(out) {
		return nil, errors.Composition(1, a.OutputType().String(), out.String())
	}
	return &typed[I, O]{inner: a}, nil
}

type typed[I, O any] struct {
	inner AnyNode
}

func (t *typed[I, O]) Name() string { return t.inner.Name() }

func (t *typed[I, O]) Process(ctx context.Context, input I) (O, error) {
	out, err := t.inner.Process(ctx, input)
	if err != nil {
		var zero O
		return zero, err
	}
	return assertType[O](t.inner.Name(), out)
}
