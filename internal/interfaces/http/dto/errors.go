package dto

import (
	"net/http"
	"strings"

	"github.com/pharmacy/analytics/internal/application/report"
	"github.com/pharmacy/analytics/internal/domain/ledger"
)

// General error codes
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeValidation is used when query parameters fail validation
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeNotFound is used for unknown routes
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeTimeout is used when the request deadline passed before the work finished
	ErrCodeTimeout = "REQUEST_TIMEOUT"
	// ErrCodeRateLimited is used when a client exceeds the export rate limit
	ErrCodeRateLimited = "RATE_LIMITED"
	// ErrCodeConflict is used when a refresh is already running
	ErrCodeConflict = "CONFLICT"
)

// invalidPrefix marks every parameter error raised by the domain
const invalidPrefix = "INVALID_"

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:    http.StatusInternalServerError,
	ErrCodeValidation:  http.StatusBadRequest,
	ErrCodeNotFound:    http.StatusNotFound,
	ErrCodeTimeout:     http.StatusServiceUnavailable,
	ErrCodeRateLimited: http.StatusTooManyRequests,
	ErrCodeConflict:    http.StatusConflict,

	// The dataset cannot be served until a reload succeeds
	ledger.CodeLoad:            http.StatusServiceUnavailable,
	ledger.CodeDateSetMismatch: http.StatusServiceUnavailable,
	ledger.CodeNoDataset:       http.StatusServiceUnavailable,

	ledger.CodeInsufficientHistory: http.StatusUnprocessableEntity,
	report.CodeUnknownExport:       http.StatusNotFound,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// INVALID_* codes are 400; unknown codes are 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, invalidPrefix) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
