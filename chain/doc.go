// Package chain composes processing units into pipelines.
//
// Link joins two units so the second consumes the first's output and an
// error anywhere stops the run. LinkWithState additionally hands a shared
// state.Store to the downstream unit before every call. The Builder strings
// links together with compile-time type checking:
//
//	p := chain.Then(chain.Then(chain.Start(fetch), summarize), translate).Build()
//	out, err := p.Process(ctx, url)
//
// Pipelines assembled at runtime (for example from YAML definitions) go
// through the dynamic builder, which carries reflect.Type tags and checks
// adjacent steps when Build is called rather than at compile time.
package chain
