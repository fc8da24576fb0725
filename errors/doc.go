// Package errors provides the structured error type shared by every chainkit
// package.
//
// Errors carry a machine-readable code, a human-readable message, a
// retryable flag and optional details. Codes follow the pipeline failure
// taxonomy: composition, provider, combination, tool, empty-response,
// serialization and unsupported-content failures.
package errors
