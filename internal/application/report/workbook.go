package report

import (
	"context"
	"time"
)

// SpreadsheetMIME is the content type of every exported report
const SpreadsheetMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Sheet is one worksheet: zero or more header rows followed by data rows.
// Cell values are literals (string, float64, int, time.Time).
type Sheet struct {
	Name   string
	Header [][]string
	Rows   [][]any
}

// Workbook is an ordered set of sheets
type Workbook struct {
	Sheets []Sheet
}

// Sheet returns the named sheet
func (w Workbook) Sheet(name string) (Sheet, bool) {
	for _, s := range w.Sheets {
		if s.Name == name {
			return s, true
		}
	}
	return Sheet{}, false
}

// WorkbookWriter serializes a workbook to xlsx bytes
type WorkbookWriter interface {
	Write(wb Workbook) ([]byte, error)
}

// Archive stores a copy of each exported report
type Archive interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
}

// ArchiveKey is the object key for a report: reports/<yyyy>/<mm>/<filename>
func ArchiveKey(at time.Time, filename string) string {
	return "reports/" + at.Format("2006") + "/" + at.Format("01") + "/" + filename
}
