// Package node defines the processing unit every chainkit pipeline is built
// from, plus the adapters and middleware that wrap units.
//
// A Node[I, O] takes one input and produces one output or an error:
//
//	upper := node.Func("upper", func(ctx context.Context, s string) (string, error) {
//	    return strings.ToUpper(s), nil
//	})
//
// Units are immutable once constructed; shared mutable data belongs in a
// state.Store. Cross-cutting behavior is added with Middleware:
//
//	n := node.Chain(
//	    node.WithTracing[string, string]("research"),
//	    node.WithLogging[string, string](log),
//	    node.WithResilience[string, string](node.ResilienceConfig{
//	        Retry: &resilience.RetryConfig{MaxAttempts: 3},
//	    }),
//	)(upper)
//
// Chain(a, b, c)(n) is a(b(c(n))): the first middleware is outermost.
package node
