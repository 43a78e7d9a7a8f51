package dto

import (
	"net/http"

	"github.com/orderbridge/backend/internal/domain/shared"
)

// General error codes
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
)

// httpStatusByCode maps domain and transport error codes to HTTP statuses
var httpStatusByCode = map[string]int{
	ErrCodeBadRequest:                   http.StatusBadRequest,
	shared.ErrCodeInvalidInput:          http.StatusBadRequest,
	shared.ErrCodeValidationError:       http.StatusBadRequest,
	shared.ErrCodeAuthenticationFailed:  http.StatusBadGateway,
	shared.ErrCodeRateLimitExceeded:     http.StatusBadGateway,
	shared.ErrCodeNetworkError:          http.StatusBadGateway,
	shared.ErrCodeProviderAPIError:      http.StatusBadGateway,
	shared.ErrCodeInventoryCheckFailed:  http.StatusBadGateway,
	shared.ErrCodeSkuNotMapped:          http.StatusUnprocessableEntity,
	shared.ErrCodeInsufficientInventory: http.StatusConflict,
	shared.ErrCodeNotFound:              http.StatusNotFound,
	shared.ErrCodeAlreadyExists:         http.StatusConflict,
	ErrCodeInternal:                     http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status for an error code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := httpStatusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
