package parallel

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kbukum/chainkit/errors"
	"github.com/kbukum/chainkit/node"
)

// Combiner reduces the children's outputs, given in registration order,
// into the unit's result. It may call other units.
type Combiner[O, R any] func(ctx context.Context, outputs []O) (R, error)

// Option configures a fan-out unit.
type Option[I any] func(*settings[I])

type settings[I any] struct {
	clone          func(I) I
	cancelOnError  bool
	maxConcurrency int
}

// WithClone sets how the input is copied for each child. The default is a
// plain value copy, which shares any maps, slices or pointers the input holds.
func WithClone[I any](clone func(I) I) Option[I] {
	return func(s *settings[I]) { s.clone = clone }
}

// WithCancelOnError cancels the context passed to the remaining children as
// soon as one fails, and waits for them to return before Process returns.
func WithCancelOnError[I any]() Option[I] {
	return func(s *settings[I]) { s.cancelOnError = true }
}

// WithMaxConcurrency bounds the number of children running at once. Zero or
// negative means unbounded.
func WithMaxConcurrency[I any](n int) Option[I] {
	return func(s *settings[I]) { s.maxConcurrency = n }
}

// New creates a fan-out/fan-in unit over children. The children slice is
// copied; later changes to it do not affect the unit.
func New[I, O, R any](name string, children []node.Node[I, O], combine Combiner[O, R], opts ...Option[I]) node.Node[I, R] {
	s := settings[I]{clone: func(in I) I { return in }}
	for _, opt := range opts {
		opt(&s)
	}
	return &unit[I, O, R]{
		name:     name,
		children: append([]node.Node[I, O](nil), children...),
		combine:  combine,
		settings: s,
	}
}

type unit[I, O, R any] struct {
	name     string
	children []node.Node[I, O]
	combine  Combiner[O, R]
	settings settings[I]
}

func (u *unit[I, O, R]) Name() string { return u.name }

// Process runs every child on its own copy of input and combines the
// results. A child error is returned unchanged; a combiner error is
// returned as COMBINATION_ERROR.
func (u *unit[I, O, R]) Process(ctx context.Context, input I) (R, error) {
	var zero R

	var outputs []O
	var err error
	if u.settings.cancelOnError {
		outputs, err = u.runStrict(ctx, input)
	} else {
		outputs, err = u.runWeak(ctx, input)
	}
	if err != nil {
		return zero, err
	}

	result, err := u.combine(ctx, outputs)
	if err != nil {
		return zero, errors.Combination(u.name, err)
	}
	return result, nil
}

type outcome struct {
	index int
	err   error
}

// runWeak launches every child and returns on the first failure without
// waiting for, or signalling, the others.
func (u *unit[I, O, R]) runWeak(ctx context.Context, input I) ([]O, error) {
	n := len(u.children)
	outputs := make([]O, n)
	done := make(chan outcome, n)

	var sem chan struct{}
	if u.settings.maxConcurrency > 0 {
		sem = make(chan struct{}, u.settings.maxConcurrency)
	}

	for i, child := range u.children {
		in := u.settings.clone(input)
		go func() {
			if sem != nil {
				select {
				case sem <- struct{}{}:
					defer func() { <-sem }()
				case <-ctx.Done():
					done <- outcome{index: i, err: ctx.Err()}
					return
				}
			}
			out, err := invoke(ctx, child, in)
			if err == nil {
				outputs[i] = out
			}
			done <- outcome{index: i, err: err}
		}()
	}

	for range n {
		if o := <-done; o.err != nil {
			return nil, o.err
		}
	}
	return outputs, nil
}

// runStrict runs the children in an errgroup whose context is cancelled by
// the first failure.
func (u *unit[I, O, R]) runStrict(ctx context.Context, input I) ([]O, error) {
	outputs := make([]O, len(u.children))
	g, gctx := errgroup.WithContext(ctx)
	if u.settings.maxConcurrency > 0 {
		g.SetLimit(u.settings.maxConcurrency)
	}

	for i, child := range u.children {
		in := u.settings.clone(input)
		g.Go(func() error {
			out, err := invoke(gctx, child, in)
			if err != nil {
				return err
			}
			outputs[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

// invoke calls child.Process, converting a panic into an INTERNAL_ERROR.
func invoke[I, O any](ctx context.Context, child node.Node[I, O], in I) (out O, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Internal(fmt.Errorf("panic in %s: %v", child.Name(), r))
		}
	}()
	return child.Process(ctx, in)
}
