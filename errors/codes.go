package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Graph construction errors
const (
	// ErrCodeInvalidGraph indicates a module dependency graph that is not a DAG.
	ErrCodeInvalidGraph ErrorCode = "INVALID_GRAPH"
)

// Input errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// Execution errors
const (
	// ErrCodeModuleFailed indicates a module collaborator call failed.
	ErrCodeModuleFailed ErrorCode = "MODULE_FAILED"
	// ErrCodeStorage indicates a storage backend failure.
	ErrCodeStorage ErrorCode = "STORAGE_ERROR"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeInternal indicates a broken internal invariant.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeStorage:  true,
	ErrCodeTimeout:  true,
	ErrCodeInternal: false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
