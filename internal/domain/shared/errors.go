package shared

import "errors"

// Error codes shared across the routing pipeline. The code is the stable,
// machine-readable identity of a failure; messages are for operators.
const (
	ErrCodeAuthenticationFailed  = "AUTHENTICATION_FAILED"
	ErrCodeRateLimitExceeded     = "RATE_LIMIT_EXCEEDED"
	ErrCodeNetworkError          = "NETWORK_ERROR"
	ErrCodeValidationError       = "VALIDATION_ERROR"
	ErrCodeSkuNotMapped          = "SKU_NOT_MAPPED"
	ErrCodeInsufficientInventory = "INSUFFICIENT_INVENTORY"
	ErrCodeInventoryCheckFailed  = "INVENTORY_CHECK_FAILED"
	ErrCodeProviderAPIError      = "PROVIDER_API_ERROR"
	ErrCodeNotFound              = "NOT_FOUND"
	ErrCodeAlreadyExists         = "ALREADY_EXISTS"
	ErrCodeInvalidInput          = "INVALID_INPUT"
)

// DomainError represents a domain-level error with a machine-readable code
// and a retryability classification used by the retry helper.
type DomainError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new non-retryable domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// NewRetryableError creates a new retryable domain error
func NewRetryableError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, Retryable: true}
}

// Common domain errors
var (
	ErrNotFound             = NewDomainError(ErrCodeNotFound, "Resource not found")
	ErrAlreadyExists        = NewDomainError(ErrCodeAlreadyExists, "Resource already exists")
	ErrInvalidInput         = NewDomainError(ErrCodeInvalidInput, "Invalid input provided")
	ErrAuthenticationFailed = NewDomainError(ErrCodeAuthenticationFailed, "Authentication with the platform failed")
	ErrRateLimitExceeded    = NewRetryableError(ErrCodeRateLimitExceeded, "Platform rate limit exceeded")
	ErrNetworkError         = NewRetryableError(ErrCodeNetworkError, "Network error while calling the platform")
	ErrSkuNotMapped         = NewDomainError(ErrCodeSkuNotMapped, "SKU has no fulfillment mapping")
	ErrInsufficientStock    = NewDomainError(ErrCodeInsufficientInventory, "Insufficient stock available to fulfill")
	ErrInventoryCheckFailed = NewRetryableError(ErrCodeInventoryCheckFailed, "Inventory availability could not be determined")
)

// IsRetryable reports whether err carries a retryable classification.
// Unknown errors are treated as non-retryable so callers fail closed.
func IsRetryable(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Retryable
	}
	return false
}

// CodeOf extracts the domain error code from err, or the empty string if
// err does not wrap a DomainError.
func CodeOf(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}
