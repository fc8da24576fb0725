package chain

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/kbukum/chainkit/errors"
	"github.com/kbukum/chainkit/node"
	"github.com/kbukum/chainkit/parallel"
)

// AnyCombiner is a fan-in function with runtime type tags. A nil Elem
// accepts outputs of any type.
type AnyCombiner struct {
	Elem reflect.Type
	Out  reflect.Type
	Fn   parallel.Combiner[any, any]
}

// EraseCombiner wraps a typed combiner as an AnyCombiner.
func EraseCombiner[O, R any](c parallel.Combiner[O, R]) AnyCombiner {
	return AnyCombiner{
		Elem: reflect.TypeFor[O](),
		Out:  reflect.TypeFor[R](),
		Fn: func(ctx context.Context, outputs []any) (any, error) {
			typed := make([]O, len(outputs))
			for i, o := range outputs {
				v, err := assertType[O]("combiner", o)
				if err != nil {
					return nil, err
				}
				typed[i] = v
			}
			res, err := c(ctx, typed)
			if err != nil {
				return nil, err
			}
			return res, nil
		},
	}
}

// Registry maps component names to units and combiner names to combiners
// so pipelines can be described by name.
type Registry struct {
	mu         sync.RWMutex
	components map[string]AnyNode
	combiners  map[string]AnyCombiner
}

// NewRegistry creates a registry holding the stock combiners "collect"
// (outputs as []any) and "join" (string outputs joined by newlines).
func NewRegistry() *Registry {
	r := &Registry{
		components: make(map[string]AnyNode),
		combiners:  make(map[string]AnyCombiner),
	}
	r.RegisterCombiner("collect", AnyCombiner{
		Out: reflect.TypeFor[[]any](),
		Fn: func(_ context.Context, outputs []any) (any, error) {
			return outputs, nil
		},
	})
	r.RegisterCombiner("join", EraseCombiner(parallel.JoinStrings("\n")))
	return r
}

// Register adds a component under name, replacing any previous one.
func (r *Registry) Register(name string, n AnyNode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.components[name] = n
}

// RegisterNode adds a typed unit under its own name.
func RegisterNode[I, O any](r *Registry, n node.Node[I, O]) {
	r.Register(n.Name(), Erase(n))
}

// RegisterCombiner adds a combiner under name, replacing any previous one.
func (r *Registry) RegisterCombiner(name string, c AnyCombiner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.combiners[name] = c
}

// Get retrieves a component by name.
func (r *Registry) Get(name string) (AnyNode, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.components[name]
	return n, ok
}

// Combiner retrieves a combiner by name.
func (r *Registry) Combiner(name string) (AnyCombiner, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.combiners[name]
	return c, ok
}

// List returns the sorted component names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.components))
	for name := range r.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// fanOut builds a parallel unit over the named components.
func (r *Registry) fanOut(name string, step StepDef) (AnyNode, error) {
	children := make([]node.Node[any, any], len(step.Parallel))
	var in reflect.Type
	for i, cname := range step.Parallel {
		c, ok := r.Get(cname)
		if !ok {
			return nil, errors.NotFound("component", cname)
		}
		if in == nil {
			in = c.InputType()
		} else if c.InputType() != in {
			return nil, errors.New(errors.ErrCodeComposition,
				fmt.Sprintf("parallel branch %s expects %s, other branches expect %s", cname, c.InputType(), in))
		}
		children[i] = c
	}

	combine := step.Combine
	if combine == "" {
		combine = "collect"
	}
	comb, ok := r.Combiner(combine)
	if !ok {
		return nil, errors.NotFound("combiner", combine)
	}
	if comb.Elem != nil {
		for _, cname := range step.Parallel {
			c, _ := r.Get(cname)
			if !c.OutputType().AssignableTo(comb.Elem) {
				return nil, errors.New(errors.ErrCodeComposition,
					fmt.Sprintf("combiner %s expects %s, branch %s produces %s", combine, comb.Elem, cname, c.OutputType()))
			}
		}
	}

	var opts []parallel.Option[any]
	if step.CancelOnError {
		opts = append(opts, parallel.WithCancelOnError[any]())
	}
	if step.MaxConcurrency > 0 {
		opts = append(opts, parallel.WithMaxConcurrency[any](step.MaxConcurrency))
	}
	if in == nil {
		in = reflect.TypeFor[any]()
	}
	return &retyped{
		Node: parallel.New(name, children, comb.Fn, opts...),
		in:   in,
		out:  comb.Out,
	}, nil
}
