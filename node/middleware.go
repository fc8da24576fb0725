package node

// Middleware wraps a unit, typically delegating to it while adding
// cross-cutting behavior. Wrapped units keep the inner unit's name.
type Middleware[I, O any] func(Node[I, O]) Node[I, O]

// Chain composes middlewares into one. The first middleware is outermost
// (runs first on the way in, last on the way out).
//
// Chain(a, b, c)(n) is equivalent to a(b(c(n))).
func Chain[I, O any](middlewares ...Middleware[I, O]) Middleware[I, O] {
	return func(inner Node[I, O]) Node[I, O] {
		for i := len(middlewares) - 1; i >= 0; i-- {
			inner = middlewares[i](inner)
		}
		return inner
	}
}

// Wrap applies middlewares to n. It is shorthand for Chain(middlewares...)(n).
func Wrap[I, O any](n Node[I, O], middlewares ...Middleware[I, O]) Node[I, O] {
	return Chain(middlewares...)(n)
}
