package logger

import (
	"time"
)

// Standard field key constants for structured logging.
const (
	FieldComponent = "component"
	FieldTraceID   = "trace_id"
	FieldSpanID    = "span_id"
	FieldRunID     = "run_id"
	FieldNode      = "node"
	FieldTool      = "tool"
	FieldModel     = "model"
	FieldIteration = "iteration"
	FieldStatus    = "status"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
	FieldInput     = "input"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	logger.Info("done", logger.Fields("node", "summarize", "turns", 2))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields creates fields for a unit that failed.
func ErrorFields(node string, err error) map[string]interface{} {
	return map[string]interface{}{
		FieldNode:  node,
		FieldError: err.Error(),
	}
}

// DurationFields creates fields for a timed unit call.
func DurationFields(node string, d time.Duration) map[string]interface{} {
	return map[string]interface{}{
		FieldNode:     node,
		FieldDuration: d.Milliseconds(),
	}
}
