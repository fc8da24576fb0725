// Package agent runs a tool-using conversation loop as a processing unit.
//
// An Executor takes a question, asks the model, executes every tool the
// model requests through a tools.Registry, feeds the results back and
// repeats until the model answers without requesting tools or the
// iteration bound is reached. The conversation is kept in a state store
// under HistoryKey, so several executors linked with chain.LinkWithState
// can share one history:
//
//	exec := agent.New(model, registry, agent.WithMaxIterations(5))
//	answer, err := exec.Process(ctx, "What is 2 + 3?")
package agent
