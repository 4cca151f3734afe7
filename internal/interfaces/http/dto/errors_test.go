package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmacy/analytics/internal/application/report"
	"github.com/pharmacy/analytics/internal/domain/ledger"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ledger.CodeLoad, http.StatusServiceUnavailable},
		{ledger.CodeDateSetMismatch, http.StatusServiceUnavailable},
		{ledger.CodeNoDataset, http.StatusServiceUnavailable},
		{ledger.CodeInvalidDateRange, http.StatusBadRequest},
		{ledger.CodeInvalidMonth, http.StatusBadRequest},
		{ledger.CodeInvalidForecast, http.StatusBadRequest},
		{ErrCodeValidation, http.StatusBadRequest},
		{ledger.CodeInsufficientHistory, http.StatusUnprocessableEntity},
		{report.CodeUnknownExport, http.StatusNotFound},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeConflict, http.StatusConflict},
		{ErrCodeTimeout, http.StatusServiceUnavailable},
		// Unknown code should return 500
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNewErrorResponse_JSONShape(t *testing.T) {
	resp := NewErrorResponse(ledger.CodeInvalidMonth, "Month must be between 1 and 12", "req-1", map[string]any{"month": 13})

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, false, decoded["success"])
	assert.NotContains(t, decoded, "data")
	assert.NotContains(t, decoded, "meta")

	errObj, ok := decoded["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "INVALID_MONTH", errObj["code"])
	assert.Equal(t, "req-1", errObj["request_id"])
	assert.Equal(t, map[string]any{"month": float64(13)}, errObj["details"])
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{
		{Field: "start", Message: "Must be a date in YYYY-MM-DD format"},
	}

	resp := NewValidationErrorResponse("Request validation failed", "req-789", details)

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-789", resp.Error.RequestID)
	assert.Equal(t, details, resp.Error.Details)
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]int{1, 2}, &Meta{Empty: false, Total: 2})

	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 2, resp.Meta.Total)
}
