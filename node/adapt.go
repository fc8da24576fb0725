package node

import "context"

// Adapt bridges a unit with types [BI, BO] to a pipeline slot with types
// [I, O]. mapIn converts the pipeline input before the call and mapOut
// converts the result after it. Errors from either mapping or the inner
// unit are returned as-is.
func Adapt[I, O, BI, BO any](
	inner Node[BI, BO],
	name string,
	mapIn func(ctx context.Context, input I) (BI, error),
	mapOut func(output BO) (O, error),
) Node[I, O] {
	return &adapted[I, O, BI, BO]{
		inner:  inner,
		name:   name,
		mapIn:  mapIn,
		mapOut: mapOut,
	}
}

type adapted[I, O, BI, BO any] struct {
	inner  Node[BI, BO]
	name   string
	mapIn  func(ctx context.Context, input I) (BI, error)
	mapOut func(output BO) (O, error)
}

func (a *adapted[I, O, BI, BO]) Name() string { return a.name }

func (a *adapted[I, O, BI, BO]) Process(ctx context.Context, input I) (O, error) {
	var zero O

	in, err := a.mapIn(ctx, input)
	if err != nil {
		return zero, err
	}

	out, err := a.inner.Process(ctx, in)
	if err != nil {
		return zero, err
	}

	return a.mapOut(out)
}
