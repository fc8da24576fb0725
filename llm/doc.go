// Package llm defines the conversation model shared by model units and
// the agent loop, plus a backend registry for creating model units from
// configuration.
//
// # Architecture
//
// The llm package provides:
//   - Conversation types: [Turn] and the [ContentBlock] variants [Text],
//     [ToolUse], [ToolResult] and [Unsupported]
//   - [Request] and [Response], the input and output of a [Model] unit
//   - Backend registry: [RegisterBackend] / [NewModel] for config-driven
//     backend selection, similar to how database/sql works with drivers
//   - Convenience units: [Completion], [Structured]
//
// # Usage
//
// Import a backend package for side-effect registration, then create a model:
//
//	import (
//	    "github.com/kbukum/chainkit/llm"
//	    _ "github.com/kbukum/chainkit/llm/openai" // registers "openai"
//	)
//
//	model, err := llm.NewModel(llm.Config{
//	    Backend: "openai",
//	    Model:   "gpt-4o-mini",
//	    APIKey:  os.Getenv("OPENAI_API_KEY"),
//	})
//
//	answer := llm.Completion(model, "You are terse.")
//	text, err := answer.Process(ctx, "What is a monad?")
//
// # Writing a Backend
//
// Implement a [Factory] that returns a node.Node[Request, Response] and
// register it:
//
//	func init() {
//	    llm.RegisterBackend("my-provider", newModel)
//	}
package llm
