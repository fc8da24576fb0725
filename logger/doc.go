// Package logger provides structured logging for chainkit pipelines using
// zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers. Units, the agent loop and the tool registry log
// through this package with the field names defined in fields.go.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("agent")
//	log.Info("run finished", logger.Fields(logger.FieldRunID, id, logger.FieldIteration, 2))
package logger
