package workbook

import (
	"fmt"
	"strings"
)

// Row-level error codes
const (
	ErrCodeInvalidDate   = "ERR_WORKBOOK_INVALID_DATE"
	ErrCodeInvalidNumber = "ERR_WORKBOOK_INVALID_NUMBER"
	ErrCodeMissingSheet  = "ERR_WORKBOOK_MISSING_SHEET"
	ErrCodeMissingColumn = "ERR_WORKBOOK_MISSING_COLUMN"
)

// RowError represents a problem in a specific sheet row
type RowError struct {
	Sheet   string `json:"sheet"`
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// Error implements the error interface
func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s row %d, column '%s': %s", e.Sheet, e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("%s row %d: %s", e.Sheet, e.Row, e.Message)
}

// ErrorCollection accumulates row errors up to a limit while counting all of them
type ErrorCollection struct {
	errors     []RowError
	maxErrors  int
	totalCount int
}

// NewErrorCollection creates a new ErrorCollection with a maximum error limit
func NewErrorCollection(maxErrors int) *ErrorCollection {
	if maxErrors <= 0 {
		maxErrors = 100
	}
	return &ErrorCollection{
		errors:    make([]RowError, 0),
		maxErrors: maxErrors,
	}
}

// Add adds an error to the collection
func (ec *ErrorCollection) Add(err RowError) {
	ec.totalCount++
	if len(ec.errors) < ec.maxErrors {
		ec.errors = append(ec.errors, err)
	}
}

// AddDateError records an unparseable date
func (ec *ErrorCollection) AddDateError(sheet string, row int, column, value string) {
	ec.Add(RowError{
		Sheet:   sheet,
		Row:     row,
		Column:  column,
		Code:    ErrCodeInvalidDate,
		Message: "unparseable date, row dropped",
		Value:   value,
	})
}

// AddNumberError records a non-numeric value coerced to zero
func (ec *ErrorCollection) AddNumberError(sheet string, row int, column, value string) {
	ec.Add(RowError{
		Sheet:   sheet,
		Row:     row,
		Column:  column,
		Code:    ErrCodeInvalidNumber,
		Message: "not a number, treated as 0",
		Value:   value,
	})
}

// Errors returns the collected errors
func (ec *ErrorCollection) Errors() []RowError {
	return ec.errors
}

// TotalCount returns the total number of errors including those not collected
func (ec *ErrorCollection) TotalCount() int {
	return ec.totalCount
}

// HasErrors returns true if there are any errors
func (ec *ErrorCollection) HasErrors() bool {
	return ec.totalCount > 0
}

// IsTruncated returns true if some errors were not collected due to the limit
func (ec *ErrorCollection) IsTruncated() bool {
	return ec.totalCount > ec.maxErrors
}

// ErrorSummary returns a count of collected errors by code
func (ec *ErrorCollection) ErrorSummary() map[string]int {
	summary := make(map[string]int)
	for _, err := range ec.errors {
		summary[err.Code]++
	}
	return summary
}

// String returns a string representation of all errors
func (ec *ErrorCollection) String() string {
	if !ec.HasErrors() {
		return "no errors"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d error(s) found", ec.totalCount)
	if ec.IsTruncated() {
		fmt.Fprintf(&sb, " (showing first %d)", ec.maxErrors)
	}
	sb.WriteString(":\n")
	for _, err := range ec.errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}
