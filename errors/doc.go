// Package errors provides the error model shared by every modkit package.
// It implements a structured error type with machine-readable codes and
// retryable detection, so callers can tell a broken module graph from a
// failing module or a flaky storage backend.
package errors
