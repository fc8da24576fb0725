// Package parallel provides the fan-out/fan-in unit: one input is cloned
// to every child unit, the children run concurrently, and a combiner
// reduces their outputs, in registration order, into one result.
//
//	summaries := parallel.New("summaries",
//	    []node.Node[string, string]{shortSummary, longSummary},
//	    parallel.JoinStrings("\n---\n"),
//	)
//
// The first child error observed resolves the unit to that error. By
// default the remaining children are not signalled: they run to completion
// in the background and their results are dropped. WithCancelOnError
// cancels their context instead.
package parallel
