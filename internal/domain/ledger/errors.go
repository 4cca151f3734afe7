package ledger

import (
	"errors"

	"github.com/pharmacy/analytics/internal/domain/shared"
)

// Error codes
const (
	CodeLoad                = "LOAD_ERROR"
	CodeDateSetMismatch     = "DATE_SET_MISMATCH"
	CodeInsufficientHistory = "INSUFFICIENT_HISTORY"
	CodeInvalidDateRange    = "INVALID_DATE_RANGE"
	CodeInvalidMonth        = "INVALID_MONTH"
	CodeInvalidForecast     = "INVALID_FORECAST_PARAMS"
	CodeNoDataset           = "NO_DATASET"
)

// Domain errors
var (
	ErrLoad = shared.NewDomainError(CodeLoad, "Workbook could not be loaded")
	// ErrDateSetMismatch is a LoadError: the three transactional sheets disagree on dates.
	ErrDateSetMismatch     = shared.NewDomainError(CodeDateSetMismatch, "Daily income, inventory and expense sheets have inconsistent date sets")
	ErrInsufficientHistory = shared.NewDomainError(CodeInsufficientHistory, "Not enough history to fit a forecast")
	ErrInvalidDateRange    = shared.NewDomainError(CodeInvalidDateRange, "Start date must not be after end date")
	ErrInvalidMonth        = shared.NewDomainError(CodeInvalidMonth, "Month must be between 1 and 12")
	ErrInvalidForecast     = shared.NewDomainError(CodeInvalidForecast, "Forecast parameters are out of range")
	ErrNoDataset           = shared.NewDomainError(CodeNoDataset, "No dataset has been loaded yet")
)

// IsLoadError reports whether err prevents the dataset from being used
func IsLoadError(err error) bool {
	var de *shared.DomainError
	if !errors.As(err, &de) {
		return false
	}
	return de.Code == CodeLoad || de.Code == CodeDateSetMismatch
}
