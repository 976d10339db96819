package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Connection/Availability errors (retryable)
const (
	// ErrCodeServiceUnavailable indicates the service is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Resource errors
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Artifact errors
const (
	// ErrCodeCorruptArtifact indicates stored artifact bytes are missing, truncated or undecodable.
	ErrCodeCorruptArtifact ErrorCode = "CORRUPT_ARTIFACT"
	// ErrCodeUnsupportedType indicates a materializer was asked for a kind outside its variant set.
	ErrCodeUnsupportedType ErrorCode = "UNSUPPORTED_TYPE"
)

// Pipeline and serving errors
const (
	// ErrCodeStepExecution indicates a pipeline step failed and aborted its run.
	ErrCodeStepExecution ErrorCode = "STEP_EXECUTION"
	// ErrCodeNoDeployedService indicates inference was requested with nothing deployed.
	ErrCodeNoDeployedService ErrorCode = "NO_DEPLOYED_SERVICE"
	// ErrCodeDeploymentTimeout indicates the serving platform did not become ready in time.
	ErrCodeDeploymentTimeout ErrorCode = "DEPLOYMENT_TIMEOUT"
)

// Internal errors
const (
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeExternalService indicates an error from an external service.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeTimeout:            true,
	ErrCodeExternalService:    true,
	ErrCodeDeploymentTimeout:  false,
	ErrCodeStepExecution:      false,
	ErrCodeInternal:           false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
